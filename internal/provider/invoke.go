// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/rfp-engine/internal/httputil"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

// anthropicVersion is the API version header required by the messages API.
const anthropicVersion = "2023-06-01"

// Invoker issues a built prompt against a resolved provider and returns
// the extracted text. One Invoker is shared across providers; per-call
// state lives in the resolved Config.
type Invoker struct {
	// Registry resolves logical model names.
	Registry *Registry

	// Client is the HTTP client for provider calls. Nil uses
	// http.DefaultClient.
	Client *http.Client

	// Timeout bounds a single provider call. Zero means no timeout.
	Timeout time.Duration

	// UserAgent is sent as the User-Agent header when non-empty.
	UserAgent string

	// Out receives progress and warning lines. Nil silences them.
	Out io.Writer
}

// Invoke resolves providerName, issues the prompt, and returns the
// trimmed response text.
//
// Failure classification: an unknown name wraps ErrUnsupportedProvider;
// transport failures wrap *CallError and are not swallowed — the caller
// decides per-provider tolerance. An empty response from a nominally
// successful call is not an error: it degrades to a placeholder naming
// the provider, so one empty reply cannot abort a multi-provider run.
func (inv *Invoker) Invoke(ctx context.Context, prompt []types.Message, providerName string) (string, error) {
	cfg, err := inv.Registry.Resolve(providerName)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(inv.out(), "calling %s API\n", cfg.DisplayName)

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	var raw any
	if cfg.Protocol == ProtocolMessages {
		system := inv.Registry.Notice()
		if s, ok := types.SystemContent(prompt); ok {
			system = s
		}
		raw, err = inv.postMessages(ctx, cfg, system, types.WithoutSystem(prompt))
	} else {
		raw, err = inv.postChat(ctx, cfg, prompt)
	}
	if err != nil {
		return "", &CallError{Provider: cfg.Name, Err: err}
	}

	text := strings.TrimSpace(cfg.Extract(raw))
	if text == "" {
		fmt.Fprintf(inv.out(), "warning: empty response from %s, using fallback content\n", cfg.DisplayName)
		return emptyResponsePlaceholder(cfg.DisplayName), nil
	}
	return text, nil
}

// emptyResponsePlaceholder is the diagnostic text persisted when a
// provider returns success with no content.
func emptyResponsePlaceholder(displayName string) string {
	return fmt.Sprintf("The system encountered an issue with the %s response. Please try again or use another model.", displayName)
}

// chatRequest is the request body for chat-completion providers.
type chatRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []types.Message `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	User        string          `json:"user,omitempty"`
}

// messagesRequest is the request body for the Anthropic messages API.
// System travels out-of-band from the message list.
type messagesRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []types.Message `json:"messages"`
}

func (inv *Invoker) postChat(ctx context.Context, cfg Config, prompt []types.Message) (any, error) {
	body := chatRequest{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Messages:    prompt,
		MaxTokens:   cfg.MaxTokens,
		User:        cfg.User,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + cfg.APIKey,
	}
	return inv.post(ctx, cfg, cfg.BaseURL+"/chat/completions", body, headers)
}

func (inv *Invoker) postMessages(ctx context.Context, cfg Config, system string, prompt []types.Message) (any, error) {
	body := messagesRequest{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		System:      system,
		Messages:    prompt,
	}

	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}
	return inv.post(ctx, cfg, cfg.BaseURL+"/v1/messages", body, headers)
}

// post issues one JSON request and decodes the reply into a generic
// value for the extraction ladder.
func (inv *Invoker) post(ctx context.Context, cfg Config, url string, body any, headers map[string]string) (any, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if inv.UserAgent != "" {
		req.Header.Set("User-Agent", inv.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for k, v := range cfg.ExtraHeaders {
		req.Header.Set(k, v)
	}

	client := inv.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%s API request: %w", cfg.DisplayName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s API returned %d: %s", cfg.DisplayName, resp.StatusCode, string(respBody))
	}

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", cfg.DisplayName, err)
	}
	return raw, nil
}

func (inv *Invoker) out() io.Writer {
	if inv.Out != nil {
		return inv.Out
	}
	return io.Discard
}
