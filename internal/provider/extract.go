// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"fmt"
	"strings"
)

// ExtractFunc unwraps a decoded provider response into plain text.
type ExtractFunc func(raw any) string

// ExtractText defensively unwraps a decoded JSON response into plain text.
// Response shapes overlap across provider SDK versions, so the checks run
// from most to least specific:
//
//  1. already a string
//  2. a content field holding a list of text-bearing blocks (joined)
//  3. a content field holding a list of plain strings (joined)
//  4. a content field holding a string
//  5. a direct text field
//  6. nested message wrapping: message.content[0].text
//  7. chat-completion shape: choices[0].message.content
//  8. fallback: stringify the whole value
//
// It never fails; unknown future shapes degrade to the stringified form.
func ExtractText(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return stringify(raw)
	}

	if content, ok := obj["content"]; ok {
		if s, ok := extractContent(content); ok {
			return s
		}
		return stringify(content)
	}

	if text, ok := obj["text"].(string); ok {
		return text
	}

	if msg, ok := obj["message"].(map[string]any); ok {
		if blocks, ok := msg["content"].([]any); ok && len(blocks) > 0 {
			if block, ok := blocks[0].(map[string]any); ok {
				if text, ok := block["text"].(string); ok {
					return text
				}
			}
		}
	}

	if s, ok := choicesContent(obj); ok {
		return s
	}

	return stringify(raw)
}

// extractContent handles the possible shapes of a content field.
func extractContent(content any) (string, bool) {
	switch c := content.(type) {
	case string:
		return c, true
	case []any:
		var parts []string
		for _, item := range c {
			switch block := item.(type) {
			case map[string]any:
				if text, ok := block["text"].(string); ok {
					parts = append(parts, text)
				}
			case string:
				parts = append(parts, block)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " "), true
		}
		return "", false
	default:
		return "", false
	}
}

// choicesContent pulls choices[0].message.content from a chat-completion
// response. Reports false when the path is absent.
func choicesContent(raw any) (string, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := msg["content"].(string)
	return content, ok
}

// extractChatText is the extraction strategy for chat-completion
// providers: the choices path first, then the generic ladder.
func extractChatText(raw any) string {
	if s, ok := choicesContent(raw); ok {
		return s
	}
	return ExtractText(raw)
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}
