// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package moa

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rfp-engine/pkg/types"
)

// scriptedInvoker returns canned text or a forced error per provider.
// The synthesis call is recognized by its prompt rather than its name,
// since the synthesis provider is also a fan-out provider.
type scriptedInvoker struct {
	mu        sync.Mutex
	responses map[string]string // provider -> draft
	errs      map[string]error  // provider -> forced fan-out error
	synthText string
	synthErr  error
	synthGot  string // user content of the synthesis prompt, for inspection
	calls     []string
}

func isSynthesisPrompt(p []types.Message) bool {
	return len(p) > 0 && strings.Contains(p[0].Content, "Synthesize multiple response versions")
}

func (s *scriptedInvoker) Invoke(_ context.Context, p []types.Message, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isSynthesisPrompt(p) {
		s.calls = append(s.calls, "synthesis:"+name)
		s.synthGot = p[1].Content
		return s.synthText, s.synthErr
	}
	s.calls = append(s.calls, name)
	if err := s.errs[name]; err != nil {
		return "", err
	}
	return s.responses[name], nil
}

func primaryPrompt() []types.Message {
	return []types.Message{
		{Role: types.RoleSystem, Content: "frame"},
		{Role: types.RoleUser, Content: "draft it"},
	}
}

func claudePrompt() []types.Message {
	return []types.Message{{Role: types.RoleUser, Content: "frame\n\nHuman: draft it"}}
}

func TestRunSynthesizesAllThree(t *testing.T) {
	inv := &scriptedInvoker{
		responses: map[string]string{
			"openai":    "openai draft",
			"deepseek":  "deepseek draft",
			"anthropic": "claude draft",
		},
		synthText: "merged answer",
	}

	o := &Orchestrator{Invoker: inv}
	res, err := o.Run(context.Background(), "the requirement", primaryPrompt(), claudePrompt())
	require.NoError(t, err)

	assert.Equal(t, "openai draft", res.OpenAI)
	assert.Equal(t, "deepseek draft", res.DeepSeek)
	assert.Equal(t, "claude draft", res.Anthropic)
	assert.Equal(t, "merged answer", res.Final)
	assert.True(t, res.Synthesized)

	assert.Equal(t, []string{"synthesis:openai"}, inv.calls[3:], "synthesis runs once, after the join, on openai")

	assert.Contains(t, inv.synthGot, "OpenAI Response:\nopenai draft")
	assert.Contains(t, inv.synthGot, "Deepseek Response:\ndeepseek draft")
	assert.Contains(t, inv.synthGot, "Claude Response:\nclaude draft")
	assert.Contains(t, inv.synthGot, "the requirement")
}

func TestRunIsolatesBranchFailures(t *testing.T) {
	inv := &scriptedInvoker{
		responses: map[string]string{"anthropic": "claude draft"},
		errs: map[string]error{
			"openai":   fmt.Errorf("rate limited"),
			"deepseek": fmt.Errorf("connection refused"),
		},
		synthText: "merged from one",
	}

	o := &Orchestrator{Invoker: inv}
	res, err := o.Run(context.Background(), "req", primaryPrompt(), claudePrompt())
	require.NoError(t, err, "one surviving branch is enough")

	assert.Empty(t, res.OpenAI)
	assert.Empty(t, res.DeepSeek)
	assert.Equal(t, "claude draft", res.Anthropic)
	assert.Equal(t, "merged from one", res.Final)

	// Only the surviving draft feeds synthesis.
	assert.Contains(t, inv.synthGot, "Claude Response:\nclaude draft")
	assert.NotContains(t, inv.synthGot, "OpenAI Response:")
	assert.NotContains(t, inv.synthGot, "Deepseek Response:")
}

func TestRunAllProvidersFailed(t *testing.T) {
	inv := &scriptedInvoker{
		errs: map[string]error{
			"openai":    fmt.Errorf("down"),
			"deepseek":  fmt.Errorf("down"),
			"anthropic": fmt.Errorf("down"),
		},
	}

	o := &Orchestrator{Invoker: inv}
	_, err := o.Run(context.Background(), "req", primaryPrompt(), claudePrompt())
	assert.ErrorIs(t, err, ErrAllProvidersFailed)

	for _, call := range inv.calls {
		assert.NotContains(t, call, "synthesis", "no synthesis attempt when every branch failed")
	}
}

func TestRunSynthesisFailureFallsBackInPriorityOrder(t *testing.T) {
	tests := []struct {
		name      string
		responses map[string]string
		want      string
	}{
		{
			name: "openai first",
			responses: map[string]string{
				"openai": "openai draft", "deepseek": "deepseek draft", "anthropic": "claude draft",
			},
			want: "openai draft",
		},
		{
			name:      "deepseek when openai failed",
			responses: map[string]string{"deepseek": "deepseek draft", "anthropic": "claude draft"},
			want:      "deepseek draft",
		},
		{
			name:      "anthropic last",
			responses: map[string]string{"anthropic": "claude draft"},
			want:      "claude draft",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := map[string]error{}
			for _, name := range []string{"openai", "deepseek", "anthropic"} {
				if _, ok := tt.responses[name]; !ok {
					errs[name] = fmt.Errorf("down")
				}
			}
			inv := &scriptedInvoker{
				responses: tt.responses,
				errs:      errs,
				synthErr:  fmt.Errorf("synthesis provider down"),
			}

			o := &Orchestrator{Invoker: inv}
			res, err := o.Run(context.Background(), "req", primaryPrompt(), claudePrompt())
			require.NoError(t, err, "fallback must not fail once a draft exists")
			assert.Equal(t, tt.want, res.Final)
			assert.False(t, res.Synthesized)
		})
	}
}

func TestRunSingleSurvivorFallbackReturnsItUnchanged(t *testing.T) {
	inv := &scriptedInvoker{
		responses: map[string]string{"deepseek": "the only draft"},
		errs: map[string]error{
			"openai":    fmt.Errorf("down"),
			"anthropic": fmt.Errorf("down"),
		},
		synthErr: fmt.Errorf("down"),
	}

	o := &Orchestrator{Invoker: inv}
	res, err := o.Run(context.Background(), "req", primaryPrompt(), claudePrompt())
	require.NoError(t, err)
	assert.Equal(t, "the only draft", res.Final)
}

// slowInvoker delays every fan-out call to verify branches run concurrently.
type slowInvoker struct {
	delay time.Duration
}

func (s *slowInvoker) Invoke(ctx context.Context, p []types.Message, name string) (string, error) {
	if !isSynthesisPrompt(p) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return name + " text", nil
}

func TestRunFansOutConcurrently(t *testing.T) {
	inv := &slowInvoker{delay: 100 * time.Millisecond}

	o := &Orchestrator{Invoker: inv}
	start := time.Now()
	_, err := o.Run(context.Background(), "req", primaryPrompt(), claudePrompt())
	require.NoError(t, err)

	// Three sequential calls would take ~300ms; concurrent fan-out only
	// pays the slowest branch once.
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}
