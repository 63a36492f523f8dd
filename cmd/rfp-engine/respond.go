// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rfp-engine/internal/provider"
	"github.com/pdiddy/rfp-engine/internal/respond"
	"github.com/pdiddy/rfp-engine/internal/secrets"
	"github.com/pdiddy/rfp-engine/internal/similarity"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

var respondCmd = &cobra.Command{
	Use:   "respond [requirement-id]",
	Short: "Generate a response for a stored requirement",
	Long: `Respond loads a requirement from the database, finds similar past
answers, and generates a response. The default model "moa" drafts with
OpenAI, DeepSeek, and Anthropic concurrently and synthesizes the drafts
into one final response; naming a single provider queries it alone.

The generated response and the retrieval snapshot are written back to
the requirement's row.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRespond,
}

func runRespond(cmd *cobra.Command, args []string) error {
	requirementID, err := requirementIDArg(args)
	if err != nil {
		return err
	}

	cfg := pipelineConfig(cmd)
	if cmd.Flags().Changed("model") || cfg.Respond.Model == "" {
		cfg.Respond.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("timeout") || cfg.Respond.Timeout == 0 {
		cfg.Respond.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	display, _ := cmd.Flags().GetBool("display")
	skipSearch, _ := cmd.Flags().GetBool("skip-similarity-search")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := &provider.Registry{
		Credentials:  secrets.Lookup(loadedSecrets),
		SystemNotice: cfg.Respond.SystemNotice,
	}

	workflow := &respond.Workflow{
		Store:   st,
		Matcher: &similarity.Searcher{Store: st, MaxMatches: cfg.Similarity.MaxMatches},
		Invoker: &provider.Invoker{
			Registry:  registry,
			Timeout:   cfg.Respond.Timeout,
			UserAgent: cfg.Respond.UserAgent,
			Out:       os.Stderr,
		},
		Registry: registry,
	}

	result, err := workflow.Run(context.Background(), respond.RunOptions{
		RequirementID:        requirementID,
		Model:                cfg.Respond.Model,
		SkipSimilaritySearch: skipSearch,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Saved response for requirement %d (provider: %s)\n", requirementID, result.Provider)
	if display {
		printResult(result)
	}
	return nil
}

// requirementIDArg parses the optional positional requirement ID,
// defaulting to 1.
func requirementIDArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 1, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid requirement ID %q", args[0])
	}
	return id, nil
}

func printResult(result *types.GenerationResult) {
	if result.Provider == respond.ModelMOA {
		printDraft("OpenAI", result.OpenAI)
		printDraft("DeepSeek", result.DeepSeek)
		printDraft("Anthropic", result.Anthropic)
	}

	fmt.Println("=== Final Response ===")
	fmt.Println(result.Final)

	if len(result.Matches) > 0 {
		fmt.Printf("\n%d similar past answers informed this response:\n", len(result.Matches))
		for _, m := range result.Matches {
			fmt.Printf("  %s (%.2f): %s\n", m.Reference, m.Score, truncate(m.Requirement, 70))
		}
	}
}

func printDraft(label string, text *string) {
	fmt.Printf("=== %s Draft ===\n", label)
	if text == nil {
		fmt.Println("(provider failed)")
	} else {
		fmt.Println(*text)
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}

func init() {
	respondCmd.Flags().String("model", "moa", `model to use: "moa", "openai", "deepseek", "anthropic", or "claude"`)
	respondCmd.Flags().Bool("display", true, "print the generated response to stdout")
	respondCmd.Flags().Bool("skip-similarity-search", false, "reuse the stored match snapshot instead of searching")
	respondCmd.Flags().Duration("timeout", 120*time.Second, "per-provider request timeout")

	rootCmd.AddCommand(respondCmd)
}
