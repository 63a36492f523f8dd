// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rfp-engine/internal/similarity"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

var matchesCmd = &cobra.Command{
	Use:   "matches [requirement-id]",
	Short: "Find past answers similar to a requirement",
	Long: `Matches ranks the answer bank against a requirement's embedding by
cosine similarity and stores the result as the requirement's match
snapshot. Use --cached to display the stored snapshot without
re-ranking.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatches,
}

func runMatches(cmd *cobra.Command, args []string) error {
	requirementID, err := requirementIDArg(args)
	if err != nil {
		return err
	}

	cfg := pipelineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cached, _ := cmd.Flags().GetBool("cached")

	var matches []types.SimilarMatch
	if cached {
		matches, err = st.LoadCachedMatches(context.Background(), requirementID)
	} else {
		searcher := &similarity.Searcher{Store: st, MaxMatches: cfg.Similarity.MaxMatches}
		matches, err = searcher.FindSimilarMatches(context.Background(), requirementID)
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatMatchesOutput(matches, jsonOutput)
}

func formatMatchesOutput(matches []types.SimilarMatch, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No matches found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-6s  %-50s  %s\n",
		"Reference", "Score", "Requirement", "Response")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 130))

	for _, m := range matches {
		fmt.Fprintf(os.Stdout, "%-12s  %-6.4f  %-50s  %s\n",
			m.Reference, m.Score, truncate(m.Requirement, 50), truncate(m.Response, 55))
	}

	fmt.Fprintf(os.Stdout, "\n%d matches\n", len(matches))
	return nil
}

func init() {
	matchesCmd.Flags().Bool("cached", false, "display the stored snapshot instead of re-ranking")
	matchesCmd.Flags().Bool("json", false, "output matches as JSON")

	rootCmd.AddCommand(matchesCmd)
}
