// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the rfp-engine CLI.
// Implements: prd001-data-model, prd006-similarity, prd007-workflow
//             (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rfp-engine/internal/secrets"
	"github.com/pdiddy/rfp-engine/internal/store"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the rfp-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "rfp-engine",
	Short: "Generate vendor responses to RFP requirements",
	Long: `rfp-engine generates vendor responses to RFP (request for proposal)
requirements. It retrieves similar past answers from an answer bank, builds
grounded prompts, and queries one LLM provider or a mixture-of-agents
pipeline that drafts with three providers and synthesizes a final response.

Requirements and past answers live in a local SQLite database; use the
requirements and answers subcommands to manage them, matches to inspect
retrieval, and respond to generate.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./rfp-engine.yaml or ~/.config/rfp-engine/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite database (default: ./rfp.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rfp-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "rfp-engine"))
		}
	}

	viper.SetEnvPrefix("RFP_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the stage configurations from flags and the
// viper-backed config file. Flags win over config keys.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Store:      types.StoreConfig{DBPath: viper.GetString("db")},
		Similarity: types.SimilarityConfig{MaxMatches: viper.GetInt("max_matches")},
		Respond: types.RespondConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("timeout"),
				UserAgent: viper.GetString("user_agent"),
			},
			Model:        viper.GetString("model"),
			SystemNotice: viper.GetString("system_notice"),
		},
	}

	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.Store.DBPath = path
	}
	if cfg.Respond.UserAgent == "" {
		cfg.Respond.UserAgent = "rfp-engine/" + version
	}
	return cfg
}

// openStore opens the requirement database for a command run.
func openStore(cfg types.PipelineConfig) (*store.Store, error) {
	return store.NewStore(cfg.Store)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
