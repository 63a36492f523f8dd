// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package moa coordinates mixture-of-agents response generation: a
// concurrent fan-out to several providers with isolated failure domains,
// followed by a synthesis call that merges the surviving drafts.
// Implements: prd004-synthesis; docs/ARCHITECTURE § Mixture of Agents.
package moa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/rfp-engine/internal/prompt"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

// ErrAllProvidersFailed reports that every fan-out branch failed. Fatal:
// with no drafts there is nothing to synthesize and nothing to persist.
var ErrAllProvidersFailed = errors.New("all providers failed")

// synthesisProvider merges the drafts. Fixed choice, matching the
// fallback priority below; a policy decision, not a quality ranking.
const synthesisProvider = "openai"

// Invoker abstracts the provider invoker so tests can supply mocks.
type Invoker interface {
	Invoke(ctx context.Context, prompt []types.Message, providerName string) (string, error)
}

// Result is the fixed-arity join record of one MOA run. Provider fields
// are empty when that branch failed; Final always holds the outcome text.
type Result struct {
	OpenAI    string
	DeepSeek  string
	Anthropic string

	// Final is the synthesized text, or the best individual draft when
	// synthesis itself failed.
	Final string

	// Synthesized reports whether Final came from the synthesis call.
	Synthesized bool
}

// Orchestrator runs the three-provider fan-out and synthesis.
type Orchestrator struct {
	// Invoker issues the provider calls.
	Invoker Invoker

	// Out receives progress and per-branch warning lines. Nil silences.
	Out io.Writer
}

// Run invokes OpenAI and DeepSeek with the primary prompt and Anthropic
// with the Claude-format prompt, concurrently. Each branch catches its
// own failure; a dead or slow provider never blocks the others beyond
// the join. If at least one draft survives, the drafts are merged by the
// synthesis provider; if that call fails, Final falls back to the first
// non-empty draft in fixed order OpenAI, DeepSeek, Anthropic.
func (o *Orchestrator) Run(ctx context.Context, requirement string, primary, claude []types.Message) (Result, error) {
	var res Result

	branches := []struct {
		name string
		in   []types.Message
		out  *string
	}{
		{"openai", primary, &res.OpenAI},
		{"deepseek", primary, &res.DeepSeek},
		{"anthropic", claude, &res.Anthropic},
	}

	var wg sync.WaitGroup
	for _, b := range branches {
		wg.Add(1)
		go func(name string, in []types.Message, out *string) {
			defer wg.Done()
			text, err := o.Invoker.Invoke(ctx, in, name)
			if err != nil {
				fmt.Fprintf(o.out(), "warning: %s response failed: %v\n", name, err)
				return
			}
			*out = text
		}(b.name, b.in, b.out)
	}
	wg.Wait()

	if res.OpenAI == "" && res.DeepSeek == "" && res.Anthropic == "" {
		return Result{}, ErrAllProvidersFailed
	}

	synthPrompt := prompt.BuildSynthesis(requirement, labelSources(res))

	final, err := o.Invoker.Invoke(ctx, synthPrompt, synthesisProvider)
	if err != nil {
		fmt.Fprintf(o.out(), "warning: synthesis failed, falling back to best individual response: %v\n", err)
		res.Final = firstNonEmpty(res.OpenAI, res.DeepSeek, res.Anthropic)
		return res, nil
	}

	res.Final = final
	res.Synthesized = true
	return res, nil
}

// labelSources concatenates the successful drafts, each under its
// provider label, for the synthesis prompt.
func labelSources(res Result) string {
	var sources []string
	if res.OpenAI != "" {
		sources = append(sources, "OpenAI Response:\n"+res.OpenAI)
	}
	if res.DeepSeek != "" {
		sources = append(sources, "Deepseek Response:\n"+res.DeepSeek)
	}
	if res.Anthropic != "" {
		sources = append(sources, "Claude Response:\n"+res.Anthropic)
	}
	return strings.Join(sources, "\n\n")
}

// firstNonEmpty implements the fixed fallback priority. Callers ensure
// at least one argument is non-empty.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func (o *Orchestrator) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return io.Discard
}
