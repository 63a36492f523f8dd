// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package respond

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rfp-engine/internal/moa"
	"github.com/pdiddy/rfp-engine/internal/provider"
	"github.com/pdiddy/rfp-engine/internal/store"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

type stubMatcher struct {
	matches []types.SimilarMatch
	err     error
	calls   int
}

func (m *stubMatcher) FindSimilarMatches(ctx context.Context, id int64) ([]types.SimilarMatch, error) {
	m.calls++
	return m.matches, m.err
}

// stubInvoker returns canned text per provider and records the prompts
// it saw. Nil entries in responses mean that provider errors.
type stubInvoker struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	prompts   map[string][][]types.Message
}

func (s *stubInvoker) Invoke(ctx context.Context, prompt []types.Message, providerName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompts == nil {
		s.prompts = make(map[string][][]types.Message)
	}
	s.prompts[providerName] = append(s.prompts[providerName], prompt)
	if err := s.errs[providerName]; err != nil {
		return "", err
	}
	return s.responses[providerName], nil
}

func newWorkflowStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(types.StoreConfig{DBPath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	path := filepath.Join(t.TempDir(), "reqs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- requirement: "Describe your incident response process."
  category: "Security"
`), 0o644))
	_, err = s.ImportRequirements(context.Background(), path)
	require.NoError(t, err)
	return s
}

func newWorkflow(t *testing.T, s *store.Store, matcher Matcher, invoker Invoker) *Workflow {
	t.Helper()
	return &Workflow{
		Store:    s,
		Matcher:  matcher,
		Invoker:  invoker,
		Registry: &provider.Registry{},
		Out:      &bytes.Buffer{},
	}
}

func TestRunMOAPersistsAllBranches(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{responses: map[string]string{
		"openai":    "openai draft",
		"deepseek":  "deepseek draft",
		"anthropic": "anthropic draft",
	}}
	matcher := &stubMatcher{matches: []types.SimilarMatch{
		{Requirement: "q", Response: "r", Reference: "Response #1", Score: 0.9},
	}}
	w := newWorkflow(t, s, matcher, invoker)

	result, err := w.Run(context.Background(), RunOptions{RequirementID: 1})
	require.NoError(t, err)

	assert.Equal(t, "moa", result.Provider)
	require.NotNil(t, result.OpenAI)
	assert.Equal(t, "openai draft", *result.OpenAI)
	require.NotNil(t, result.DeepSeek)
	require.NotNil(t, result.Anthropic)
	// Synthesis runs through openai on top of the fan-out call.
	assert.Len(t, invoker.prompts["openai"], 2)
	assert.Equal(t, "openai draft", result.Final)

	stored, err := s.LoadResult(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "moa", stored.Provider)
	require.NotNil(t, stored.Final)
	assert.Equal(t, result.Final, *stored.Final)
	require.Len(t, stored.Matches, 1)
}

func TestRunMOAAnthropicGetsClaudeFormat(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{responses: map[string]string{
		"openai": "a", "deepseek": "b", "anthropic": "c",
	}}
	w := newWorkflow(t, s, &stubMatcher{}, invoker)

	_, err := w.Run(context.Background(), RunOptions{RequirementID: 1})
	require.NoError(t, err)

	// The primary prompt keeps its system message; the anthropic branch
	// gets it folded into the first user turn.
	primary := invoker.prompts["openai"][0]
	assert.Equal(t, types.RoleSystem, primary[0].Role)

	claude := invoker.prompts["anthropic"][0]
	for _, m := range claude {
		assert.NotEqual(t, types.RoleSystem, m.Role)
	}
	assert.Contains(t, claude[0].Content, "Human:")
}

func TestRunSingleProvider(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{responses: map[string]string{"deepseek": "deepseek answer"}}
	w := newWorkflow(t, s, &stubMatcher{}, invoker)

	result, err := w.Run(context.Background(), RunOptions{RequirementID: 1, Model: "deepseek"})
	require.NoError(t, err)

	assert.Equal(t, "deepseek", result.Provider)
	assert.Equal(t, "deepseek answer", result.Final)
	require.NotNil(t, result.DeepSeek)
	assert.Nil(t, result.OpenAI)
	assert.Nil(t, result.Anthropic)

	stored, err := s.LoadResult(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stored.DeepSeek)
	assert.Equal(t, "deepseek answer", *stored.DeepSeek)
	assert.Nil(t, stored.OpenAI)
	assert.Equal(t, "deepseek answer", *stored.Final)
}

func TestRunSingleClaudeAliasConvertsPrompt(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{responses: map[string]string{"anthropic": "claude answer"}}
	w := newWorkflow(t, s, &stubMatcher{}, invoker)

	result, err := w.Run(context.Background(), RunOptions{RequirementID: 1, Model: "claude"})
	require.NoError(t, err)

	// The alias resolves to the anthropic provider with its prompt
	// converted out of chat format.
	assert.Equal(t, "anthropic", result.Provider)
	sent := invoker.prompts["anthropic"][0]
	for _, m := range sent {
		assert.NotEqual(t, types.RoleSystem, m.Role)
	}
}

func TestRunUnsupportedModel(t *testing.T) {
	s := newWorkflowStore(t)
	w := newWorkflow(t, s, &stubMatcher{}, &stubInvoker{})

	_, err := w.Run(context.Background(), RunOptions{RequirementID: 1, Model: "gemini"})
	assert.ErrorIs(t, err, provider.ErrUnsupportedProvider)
}

func TestRunUnknownRequirement(t *testing.T) {
	s := newWorkflowStore(t)
	w := newWorkflow(t, s, &stubMatcher{}, &stubInvoker{})

	_, err := w.Run(context.Background(), RunOptions{RequirementID: 42})
	assert.ErrorIs(t, err, store.ErrRequirementNotFound)
}

func TestRunSimilarityFailureDegrades(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{responses: map[string]string{"openai": "answer"}}
	matcher := &stubMatcher{err: errors.New("vector index offline")}
	var out bytes.Buffer
	w := newWorkflow(t, s, matcher, invoker)
	w.Out = &out

	result, err := w.Run(context.Background(), RunOptions{RequirementID: 1, Model: "openai"})
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Final)
	assert.Empty(t, result.Matches)
	assert.Contains(t, out.String(), "similarity search failed")

	// Without matches the prompt carries the no-examples notice.
	sent := invoker.prompts["openai"][0]
	var user string
	for _, m := range sent {
		if m.Role == types.RoleUser {
			user = m.Content
			break
		}
	}
	assert.Contains(t, user, "No previous responses available")
}

func TestRunSkipSimilarityUsesSnapshot(t *testing.T) {
	s := newWorkflowStore(t)
	cached := []types.SimilarMatch{
		{Requirement: "cached q", Response: "cached r", Reference: "Response #1", Score: 0.88},
	}
	require.NoError(t, s.SaveMatchSnapshot(context.Background(), 1, cached))

	invoker := &stubInvoker{responses: map[string]string{"openai": "answer"}}
	matcher := &stubMatcher{}
	w := newWorkflow(t, s, matcher, invoker)

	result, err := w.Run(context.Background(), RunOptions{
		RequirementID: 1, Model: "openai", SkipSimilaritySearch: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, matcher.calls)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "cached q", result.Matches[0].Requirement)

	sent := invoker.prompts["openai"][0]
	joined := ""
	for _, m := range sent {
		joined += m.Content + "\n"
	}
	assert.Contains(t, joined, "cached r")
}

func TestRunSkipSimilarityWithoutSnapshotSearches(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{responses: map[string]string{"openai": "answer"}}
	matcher := &stubMatcher{matches: []types.SimilarMatch{
		{Requirement: "fresh q", Response: "fresh r", Reference: "Response #1", Score: 0.8},
	}}
	w := newWorkflow(t, s, matcher, invoker)

	result, err := w.Run(context.Background(), RunOptions{
		RequirementID: 1, Model: "openai", SkipSimilaritySearch: true,
	})
	require.NoError(t, err)

	// No snapshot exists yet, so the skip falls back to a live search.
	assert.Equal(t, 1, matcher.calls)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "fresh q", result.Matches[0].Requirement)
}

func TestRunMOABranchFailureStoresNull(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{
		responses: map[string]string{"openai": "openai draft", "deepseek": "deepseek draft"},
		errs:      map[string]error{"anthropic": errors.New("529 overloaded")},
	}
	w := newWorkflow(t, s, &stubMatcher{}, invoker)

	result, err := w.Run(context.Background(), RunOptions{RequirementID: 1})
	require.NoError(t, err)
	assert.Nil(t, result.Anthropic)

	stored, err := s.LoadResult(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, stored.Anthropic)
	require.NotNil(t, stored.OpenAI)
}

func TestRunMOAAllFailedPersistsNothing(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{errs: map[string]error{
		"openai":    errors.New("down"),
		"deepseek":  errors.New("down"),
		"anthropic": errors.New("down"),
	}}
	w := newWorkflow(t, s, &stubMatcher{}, invoker)

	_, err := w.Run(context.Background(), RunOptions{RequirementID: 1})
	assert.ErrorIs(t, err, moa.ErrAllProvidersFailed)

	stored, err := s.LoadResult(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, stored.Final)
	assert.Empty(t, stored.Provider)
}

func TestRunMOANoExamplesText(t *testing.T) {
	s := newWorkflowStore(t)
	invoker := &stubInvoker{responses: map[string]string{
		"openai": "a", "deepseek": "b", "anthropic": "c",
	}}
	w := newWorkflow(t, s, &stubMatcher{}, invoker)

	_, err := w.Run(context.Background(), RunOptions{RequirementID: 1})
	require.NoError(t, err)

	synthesis := invoker.prompts["openai"][1]
	joined := ""
	for _, m := range synthesis {
		joined += m.Content + "\n"
	}
	if !strings.Contains(joined, "OpenAI Response:") {
		t.Fatalf("synthesis prompt missing labeled drafts:\n%s", joined)
	}
}
