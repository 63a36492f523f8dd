// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the RFP response engine.
// Implements: prd001-data-model; docs/ARCHITECTURE § Data Model.
package types

import "time"

// Requirement is one RFP requirement loaded from the store. Read-only for
// a workflow run; the store owns the record.
type Requirement struct {
	// ID is the requirement's database identifier.
	ID int64 `json:"id" yaml:"id"`

	// Text is the literal requirement text from the RFP document.
	Text string `json:"requirement" yaml:"requirement"`

	// Category is the functional category (e.g. "Reporting", "Tax").
	// Optional; prompt construction substitutes a generic label when empty.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// RFPName identifies the source RFP document.
	RFPName string `json:"rfp_name,omitempty" yaml:"rfp_name,omitempty"`

	// UploadedBy records who imported the requirement.
	UploadedBy string `json:"uploaded_by,omitempty" yaml:"uploaded_by,omitempty"`
}

// SimilarMatch is one nearest-neighbor result from the answer bank:
// a previously answered requirement with its similarity to the current one.
type SimilarMatch struct {
	// Requirement is the matched prior requirement text.
	Requirement string `json:"question" yaml:"question"`

	// Response is the answer previously submitted for that requirement.
	Response string `json:"response" yaml:"response"`

	// Reference is an ordinal label for display (e.g. "Response #1").
	Reference string `json:"reference" yaml:"reference"`

	// Score is the similarity score. Cosine similarity, so conventionally
	// in [-1, 1]; higher is closer. Matches are ordered descending.
	Score float64 `json:"similarity_score" yaml:"similarity_score"`
}

// Answer is one entry in the answer bank: an answered requirement with
// its precomputed embedding. Embedding generation is external; answers
// are imported with vectors already attached.
type Answer struct {
	// Requirement is the answered requirement text.
	Requirement string `json:"requirement" yaml:"requirement"`

	// Response is the submitted answer text.
	Response string `json:"response" yaml:"response"`

	// Category is the requirement's functional category.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Embedding is the requirement text's embedding vector.
	Embedding []float64 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// GenerationResult is what one workflow run persists for a requirement.
// Provider fields are nil when that provider produced no result (MOA mode
// tolerates individual failures), non-nil otherwise.
type GenerationResult struct {
	// OpenAI, DeepSeek, and Anthropic hold the individual provider drafts.
	OpenAI    *string `json:"openai_response" yaml:"openai_response"`
	DeepSeek  *string `json:"deepseek_response" yaml:"deepseek_response"`
	Anthropic *string `json:"anthropic_response" yaml:"anthropic_response"`

	// Final is the text stored as final_response: the synthesized answer
	// in MOA mode, or the single provider's answer otherwise.
	Final string `json:"final_response" yaml:"final_response"`

	// Matches is the similar-match snapshot used for prompting, persisted
	// so later runs can replay without re-querying similarity search.
	Matches []SimilarMatch `json:"similar_questions" yaml:"similar_questions"`

	// Provider is the logical model name the run used ("moa" or a
	// normalized provider name).
	Provider string `json:"model_provider" yaml:"model_provider"`

	// Timestamp records when the result was generated.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
