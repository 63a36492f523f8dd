// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements",
	Short: "Manage stored RFP requirements (import, list, show)",
	Long: `Requirements manages the RFP requirements table. Use subcommands to
import requirements from YAML, list what is stored, or show one
requirement with its generated responses.`,
}

// --- import subcommand ---

var requirementsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import requirements from a YAML file",
	Long: `Import reads a YAML list of requirements and inserts them into the
database. Each entry carries the requirement text plus optional
category, rfp_name, and uploaded_by fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runRequirementsImport,
}

func runRequirementsImport(cmd *cobra.Command, args []string) error {
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ImportRequirements(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d requirement(s)\n", n)
	return nil
}

// --- list subcommand ---

var requirementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored requirements",
	RunE:  runRequirementsList,
}

func runRequirementsList(cmd *cobra.Command, args []string) error {
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	requirements, err := st.ListRequirements(context.Background())
	if err != nil {
		return err
	}

	if len(requirements) == 0 {
		fmt.Println("No requirements stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-60s  %-20s  %s\n", "ID", "Requirement", "Category", "RFP")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range requirements {
		fmt.Fprintf(os.Stdout, "%-4d  %-60s  %-20s  %s\n",
			r.ID, truncate(r.Text, 60), truncate(r.Category, 20), truncate(r.RFPName, 20))
	}
	fmt.Fprintf(os.Stdout, "\n%d requirement(s)\n", len(requirements))
	return nil
}

// --- show subcommand ---

var requirementsShowCmd = &cobra.Command{
	Use:   "show <requirement-id>",
	Short: "Show a requirement with its stored responses",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequirementsShow,
}

func runRequirementsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return fmt.Errorf("invalid requirement ID %q", args[0])
	}

	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := st.LoadResult(context.Background(), id)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Requirement %d: %s\n", result.ID, result.Text)
	if result.Category != "" {
		fmt.Printf("Category: %s\n", result.Category)
	}
	if result.RFPName != "" {
		fmt.Printf("RFP: %s\n", result.RFPName)
	}
	if result.Final == nil {
		fmt.Println("\nNo response generated yet.")
		return nil
	}

	fmt.Printf("\nGenerated by %s at %s\n", result.Provider, result.Timestamp)
	printDraft("OpenAI", result.OpenAI)
	printDraft("DeepSeek", result.DeepSeek)
	printDraft("Anthropic", result.Anthropic)
	fmt.Println("=== Final Response ===")
	fmt.Println(*result.Final)
	return nil
}

func init() {
	requirementsShowCmd.Flags().Bool("json", false, "output the requirement as JSON")

	requirementsCmd.AddCommand(requirementsImportCmd)
	requirementsCmd.AddCommand(requirementsListCmd)
	requirementsCmd.AddCommand(requirementsShowCmd)

	rootCmd.AddCommand(requirementsCmd)
}
