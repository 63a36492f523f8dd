// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Manage the answer bank",
	Long: `Answers manages the answer bank: past requirement/response pairs with
precomputed embeddings that similarity search retrieves as examples for
new responses.`,
}

var answersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import answer-bank entries from a YAML file",
	Long: `Import reads a YAML list of past answers and inserts them into the
answer bank. Each entry carries the requirement text, the response, an
optional category, and an embedding vector computed offline. Entries
without embeddings are stored but never matched.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnswersImport,
}

func runAnswersImport(cmd *cobra.Command, args []string) error {
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ImportAnswers(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d answer(s)\n", n)
	return nil
}

func init() {
	answersCmd.AddCommand(answersImportCmd)
	rootCmd.AddCommand(answersCmd)
}
