// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package respond runs the end-to-end response generation workflow:
// load a requirement, gather similar past answers, build prompts, and
// generate through one provider or the full mixture-of-agents pipeline.
// Implements: prd007-workflow; docs/ARCHITECTURE § Generation.
package respond

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pdiddy/rfp-engine/internal/moa"
	"github.com/pdiddy/rfp-engine/internal/prompt"
	"github.com/pdiddy/rfp-engine/internal/provider"
	"github.com/pdiddy/rfp-engine/internal/store"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

// ModelMOA selects the full mixture-of-agents pipeline instead of a
// single provider.
const ModelMOA = "moa"

// Matcher finds answer-bank entries similar to a requirement.
type Matcher interface {
	FindSimilarMatches(ctx context.Context, requirementID int64) ([]types.SimilarMatch, error)
}

// Invoker sends a prompt to a named provider and returns its text.
type Invoker interface {
	Invoke(ctx context.Context, prompt []types.Message, providerName string) (string, error)
}

// Workflow generates and persists a response for one requirement.
type Workflow struct {
	Store    *store.Store
	Matcher  Matcher
	Invoker  Invoker
	Registry *provider.Registry

	// Out receives progress and warning messages. Defaults to stderr.
	Out io.Writer
}

// RunOptions control a single generation run.
type RunOptions struct {
	RequirementID int64

	// Model is a provider name or ModelMOA. Empty means ModelMOA.
	Model string

	// SkipSimilaritySearch reuses the stored match snapshot instead of
	// re-ranking the answer bank.
	SkipSimilaritySearch bool
}

func (w *Workflow) out() io.Writer {
	if w.Out != nil {
		return w.Out
	}
	return os.Stderr
}

// Run executes the generation workflow and persists the outcome.
// Similarity search failures degrade to generation without examples; a
// missing requirement or a failed generation is fatal.
func (w *Workflow) Run(ctx context.Context, opts RunOptions) (*types.GenerationResult, error) {
	req, err := w.Store.LoadRequirement(ctx, opts.RequirementID)
	if err != nil {
		return nil, err
	}

	matches := w.gatherMatches(ctx, opts)

	primary := prompt.Build(req.Text, req.Category, matches)

	model := opts.Model
	if model == "" {
		model = ModelMOA
	}
	if model == ModelMOA {
		return w.runMOA(ctx, req, primary, matches)
	}
	return w.runSingle(ctx, req, primary, matches, model)
}

// gatherMatches returns cached or freshly ranked matches. Any failure
// here is a warning, not an error: generation proceeds without examples.
func (w *Workflow) gatherMatches(ctx context.Context, opts RunOptions) []types.SimilarMatch {
	if opts.SkipSimilaritySearch {
		cached, err := w.Store.LoadCachedMatches(ctx, opts.RequirementID)
		if err != nil {
			fmt.Fprintf(w.out(), "warning: loading cached matches: %v\n", err)
			return nil
		}
		if cached != nil {
			fmt.Fprintf(w.out(), "using %d cached similar matches\n", len(cached))
			return cached
		}
		// No snapshot to replay: fall through to a live search.
	}

	matches, err := w.Matcher.FindSimilarMatches(ctx, opts.RequirementID)
	if err != nil {
		fmt.Fprintf(w.out(), "warning: similarity search failed: %v\n", err)
		return nil
	}
	return matches
}

func (w *Workflow) runMOA(ctx context.Context, req *types.Requirement, primary []types.Message, matches []types.SimilarMatch) (*types.GenerationResult, error) {
	claude := prompt.ConvertToClaudeFormat(primary)

	orch := &moa.Orchestrator{Invoker: w.Invoker, Out: w.Out}
	moaResult, err := orch.Run(ctx, req.Text, primary, claude)
	if err != nil {
		return nil, err
	}

	result := &types.GenerationResult{
		Final:     moaResult.Final,
		Matches:   matches,
		Provider:  ModelMOA,
		Timestamp: time.Now().UTC(),
	}
	if moaResult.OpenAI != "" {
		result.OpenAI = &moaResult.OpenAI
	}
	if moaResult.DeepSeek != "" {
		result.DeepSeek = &moaResult.DeepSeek
	}
	if moaResult.Anthropic != "" {
		result.Anthropic = &moaResult.Anthropic
	}

	if err := w.Store.SaveMOAResult(ctx, req.ID, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Workflow) runSingle(ctx context.Context, req *types.Requirement, primary []types.Message, matches []types.SimilarMatch, model string) (*types.GenerationResult, error) {
	cfg, err := w.Registry.Resolve(model)
	if err != nil {
		return nil, err
	}

	p := primary
	if cfg.SystemOutOfBand {
		p = prompt.ConvertToClaudeFormat(primary)
	}

	text, err := w.Invoker.Invoke(ctx, p, cfg.Name)
	if err != nil {
		return nil, err
	}

	result := &types.GenerationResult{
		Final:     text,
		Matches:   matches,
		Provider:  cfg.Name,
		Timestamp: time.Now().UTC(),
	}
	switch cfg.Name {
	case "openai":
		result.OpenAI = &text
	case "deepseek":
		result.DeepSeek = &text
	case "anthropic":
		result.Anthropic = &text
	}

	if err := w.Store.SaveSingleResult(ctx, req.ID, cfg.Name, text, matches, result.Timestamp); err != nil {
		return nil, err
	}
	return result, nil
}
