// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Role tags a prompt message. Per prd002-prompting R1.1.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry in a prompt. An ordered slice of
// Messages is the unit passed to provider transports.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// SystemContent returns the content of the first system message in the
// prompt and whether one was found. At most one system message is
// logically active; the first wins.
func SystemContent(prompt []Message) (string, bool) {
	for _, m := range prompt {
		if m.Role == RoleSystem {
			return m.Content, true
		}
	}
	return "", false
}

// WithoutSystem returns the prompt with all system-role messages removed.
// Used by transports that carry the system instruction out-of-band.
func WithoutSystem(prompt []Message) []Message {
	out := make([]Message, 0, len(prompt))
	for _, m := range prompt {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}
