// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider normalizes heterogeneous LLM provider APIs into one
// calling convention: a registry of data-driven provider configurations,
// a defensive response extractor, and a generic invoker.
// Implements: prd003-providers; docs/ARCHITECTURE § Provider Layer.
package provider

import (
	"fmt"
	"os"
	"strings"
)

// Protocol selects the wire format a provider speaks.
type Protocol string

const (
	// ProtocolChat is the OpenAI-style chat completions API. System
	// messages travel inline in the message list.
	ProtocolChat Protocol = "chat"

	// ProtocolMessages is the Anthropic-style messages API. The system
	// instruction is a separate top-level request field; system-role
	// entries must be stripped from the message list before sending.
	ProtocolMessages Protocol = "messages"
)

// DefaultSystemNotice is the confidentiality instruction attached when a
// prompt carries no system message and the provider requires one
// out-of-band. Registry carries it as a field so alternates are testable.
const DefaultSystemNotice = "All responses and data must be treated as private and confidential. Do not use for training or any other purpose."

// Config is one provider's resolved connection and request-shaping data.
// Built fresh on every Resolve call so credentials are never stale.
type Config struct {
	// Name is the normalized logical name ("openai", "deepseek", "anthropic").
	Name string

	// DisplayName is the human-readable provider name used in progress
	// output, placeholders, and synthesis labels.
	DisplayName string

	// Protocol selects the wire format.
	Protocol Protocol

	// BaseURL is the API endpoint root.
	BaseURL string

	// APIKeyVar names the environment variable holding the credential.
	APIKeyVar string

	// APIKey is the credential resolved at Resolve time. Empty when the
	// credential is missing; the provider call then fails with an
	// authentication error rather than the resolution.
	APIKey string

	// Model is the provider's target model identifier.
	Model string

	// Temperature is the sampling temperature request default.
	Temperature float64

	// MaxTokens caps the response length. Zero omits the field where the
	// protocol allows it.
	MaxTokens int

	// User is an opaque end-user identifier sent with chat requests.
	User string

	// ExtraHeaders are provider-specific HTTP headers added to every request.
	ExtraHeaders map[string]string

	// SystemOutOfBand reports whether the system instruction must be
	// supplied as a separate request field instead of an inline message.
	SystemOutOfBand bool

	// Extract is the response-extraction strategy for this provider.
	Extract ExtractFunc
}

// providerTable is the static registry: one entry per supported provider.
// Adding a provider is a new table entry plus, if its response shape is
// novel, a new extraction strategy.
var providerTable = map[string]Config{
	"openai": {
		Name:        "openai",
		DisplayName: "OpenAI",
		Protocol:    ProtocolChat,
		APIKeyVar:   "OPENAI_API_KEY",
		Model:       "gpt-4",
		Temperature: 0.2,
		User:        "private-user",
		ExtraHeaders: map[string]string{
			"HTTP-Referer":       "null",
			"X-Data-Use-Consent": "false",
		},
		Extract: extractChatText,
	},
	"deepseek": {
		Name:        "deepseek",
		DisplayName: "DeepSeek",
		Protocol:    ProtocolChat,
		APIKeyVar:   "DEEPSEEK_API_KEY",
		Model:       "deepseek-chat",
		Temperature: 0.2,
		ExtraHeaders: map[string]string{
			"X-Privacy-Mode":    "strict",
			"X-Data-Collection": "disabled",
		},
		Extract: extractChatText,
	},
	"anthropic": {
		Name:            "anthropic",
		DisplayName:     "Anthropic",
		Protocol:        ProtocolMessages,
		APIKeyVar:       "ANTHROPIC_API_KEY",
		Model:           "claude-3-7-sonnet-20250219",
		Temperature:     0.2,
		MaxTokens:       4000,
		SystemOutOfBand: true,
		Extract:         ExtractText,
	},
}

// Endpoint roots. Declared as vars so tests can substitute httptest servers.
var (
	openaiAPIBase    = "https://api.openai.com/v1"
	deepseekAPIBase  = "https://api.deepseek.com/v1"
	anthropicAPIBase = "https://api.anthropic.com"
)

// baseURLFor maps a normalized provider name to its endpoint root.
func baseURLFor(name string) string {
	switch name {
	case "deepseek":
		return deepseekAPIBase
	case "anthropic":
		return anthropicAPIBase
	default:
		return openaiAPIBase
	}
}

// Registry resolves logical model names to provider configurations.
// Construction is side-effect free; credentials are read through the
// Credentials lookup only when a name is resolved.
type Registry struct {
	// Credentials looks up a credential by environment variable name.
	// Nil uses os.Getenv.
	Credentials func(string) string

	// SystemNotice overrides DefaultSystemNotice for prompts without a
	// system message. Empty uses the default.
	SystemNotice string
}

// Resolve maps a logical model name to its provider configuration.
// Resolution is case-insensitive and treats "claude" as a synonym for
// "anthropic". Unknown names fail wrapping ErrUnsupportedProvider.
func (r *Registry) Resolve(name string) (Config, error) {
	normalized := Normalize(name)

	tmpl, ok := providerTable[normalized]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}

	// Copy the template; the registry table itself stays immutable.
	cfg := tmpl
	cfg.BaseURL = baseURLFor(normalized)
	cfg.ExtraHeaders = make(map[string]string, len(tmpl.ExtraHeaders))
	for k, v := range tmpl.ExtraHeaders {
		cfg.ExtraHeaders[k] = v
	}

	cfg.APIKey = r.credential(cfg.APIKeyVar)
	return cfg, nil
}

// Normalize lowercases a logical model name and folds the "claude" alias
// onto "anthropic". It does not validate the name.
func Normalize(name string) string {
	normalized := strings.ToLower(name)
	if normalized == "claude" {
		normalized = "anthropic"
	}
	return normalized
}

// Notice returns the system instruction to use when a prompt has none.
func (r *Registry) Notice() string {
	if r.SystemNotice != "" {
		return r.SystemNotice
	}
	return DefaultSystemNotice
}

func (r *Registry) credential(envVar string) string {
	if r.Credentials != nil {
		return r.Credentials(envVar)
	}
	return os.Getenv(envVar)
}
