// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that call provider APIs.
type HTTPConfig struct {
	// Timeout bounds a single provider call. Zero means no timeout.
	// A hung provider would otherwise stall MOA synthesis indefinitely.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "rfp-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StoreConfig holds settings for the requirement store.
type StoreConfig struct {
	// DBPath is the SQLite database file (default "rfp.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// SimilarityConfig holds settings for the similarity search stage.
// Per prd006-similarity R2.1-R2.3.
type SimilarityConfig struct {
	// MaxMatches is the number of nearest neighbors retrieved and stored
	// (default 5). Prompt construction uses at most the top 3.
	MaxMatches int `json:"max_matches" yaml:"max_matches"`
}

// RespondConfig holds settings for the response generation stage.
type RespondConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the logical model name: a provider name, the alias
	// "claude", or "moa" for mixture-of-agents synthesis (default "moa").
	Model string `json:"model" yaml:"model"`

	// SystemNotice is the confidentiality instruction attached when a
	// prompt carries no system message of its own. Explicit configuration
	// rather than a package constant so alternate notices are testable.
	SystemNotice string `json:"system_notice,omitempty" yaml:"system_notice,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Store      StoreConfig      `json:"store" yaml:"store"`
	Similarity SimilarityConfig `json:"similarity" yaml:"similarity"`
	Respond    RespondConfig    `json:"respond" yaml:"respond"`
}
