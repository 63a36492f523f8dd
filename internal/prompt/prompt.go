// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt builds the instruction sequences sent to LLM providers:
// the retrieval-augmented drafting prompt, its Claude-format conversion,
// and the mixture-of-agents synthesis prompt.
// Implements: prd002-prompting; docs/ARCHITECTURE § Prompt Construction.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/rfp-engine/pkg/types"
)

const (
	// DefaultCategory labels requirements that carry no functional category.
	DefaultCategory = "Financial Technology"

	// NoExamplesNotice replaces the example block when no similar prior
	// answers are available.
	NoExamplesNotice = "No previous responses available. Create an original response based on your expertise."

	// maxExamples caps how many similar matches are embedded in a prompt.
	// Retrieval may store more; only the closest three inform drafting.
	maxExamples = 3
)

// systemTmpl frames the drafting task: domain, category, the literal
// requirement, and the style constraints the model must honor.
var systemTmpl = template.Must(template.New("system").Parse(`You are a senior RFP specialist with over 15 years of experience in wealth management software.
Your expertise lies in crafting precise, impactful, and business-aligned responses to RFP requirements.

**CONTEXT**:
- Domain: Wealth Management Software.
- Requirement Category: {{.Category}}.
- Current Requirement: {{.Requirement}}.
- Audience: Business professionals and wealth management decision-makers.

**TASK**:
Develop a high-quality response to the current RFP requirement. Use the provided previous responses as source material, prioritizing content from responses with higher similarity scores.

**GUIDELINES**:
1. **Response Style**:
   - Professional, clear, and concise.
   - Accessible to business professionals, avoiding excessive technical jargon.
   - Focus on business benefits, practical applications, and value propositions.
   - Ensure the response is complete and submission-ready.

2. **Content Rules**:
   - Incorporate content from the provided previous responses where relevant.
   - Prioritize responses with higher similarity scores for relevance.
   - Include technical details only when needed to demonstrate capability.
   - Maintain an appropriate length (200-400 words) based on the complexity of the requirement.

3. **Response Structure**:
   - **Opening Statement**: Highlight the most relevant feature or capability related to the requirement.
   - **Supporting Information**: Include specific examples or benefits that reinforce the feature.
   - **Value Proposition**: End with a strong, tailored statement of value.

4. **Critical Constraints**:
   - Do NOT include any meta-text or commentary (e.g., "Here's the response…", 'Draft Response').
   - Do NOT include speculative or ambiguous language.
   - Format your response as direct informational content, not as a letter with salutation and signature.
`))

// userTmpl embeds the formatted similar-answer examples and the requirement.
var userTmpl = template.Must(template.New("user").Parse(`You have the following previous responses with similarity scores to evaluate:

**Previous Responses and Scores**:
{{.Examples}}

**Instructions**:
1. Analyze the responses, prioritizing those with higher scores for relevance.
2. Draft a response that meets all guidelines and rules outlined in the system message.
3. Ensure the response is clear, concise, and tailored to the given requirement.

**Current Requirement**: {{.Requirement}}
`))

// validationText is the fixed self-review checklist appended as a final
// user message. Word-count and tone constraints are instructions to the
// model, not enforced programmatically.
const validationText = `Review and validate the draft response based on these criteria:
1. Content is appropriate and relevant to the requirement.
2. The tone is professional and business-focused.
3. No meta-text, assumptions, or speculative language is present.
4. No salutation like "Dear [Client's Name]" or signature block is included.
5. The response delivers a clear, specific value proposition for the requirement.

If any criteria are unmet, revise the response accordingly.`

// Build constructs the three-message drafting prompt: system framing,
// a user message with up to the top three similar matches (scores to two
// decimals) or the no-examples notice, and the validation checklist.
func Build(requirement, category string, matches []types.SimilarMatch) []types.Message {
	if category == "" {
		category = DefaultCategory
	}

	system := render(systemTmpl, map[string]string{
		"Category":    category,
		"Requirement": requirement,
	})

	examples := formatExamples(matches)
	if examples == "" {
		examples = NoExamplesNotice
	}
	user := render(userTmpl, map[string]string{
		"Examples":    examples,
		"Requirement": requirement,
	})

	return []types.Message{
		{Role: types.RoleSystem, Content: system},
		{Role: types.RoleUser, Content: user},
		{Role: types.RoleUser, Content: validationText},
	}
}

// formatExamples renders the top matches as numbered example blocks.
// Matches arrive sorted by descending similarity; the order is preserved.
func formatExamples(matches []types.SimilarMatch) string {
	if len(matches) > maxExamples {
		matches = matches[:maxExamples]
	}

	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "**Example %d (Similarity: %.2f)**:\n", i+1, m.Score)
		fmt.Fprintf(&b, "Requirement: %s\n", m.Requirement)
		fmt.Fprintf(&b, "Response: %s\n\n", m.Response)
	}
	return b.String()
}

// ConvertToClaudeFormat rewrites a prompt for providers whose message
// protocol has no inline system role. Any system message is extracted,
// all system entries dropped, and the system text is prepended to the
// first remaining user message as "{system}\n\nHuman: {content}". The
// conversion is positional: only the first user message is rewritten;
// later messages pass through unchanged. Prompts without a system
// message pass through as-is, so converting twice equals converting once.
func ConvertToClaudeFormat(prompt []types.Message) []types.Message {
	system, hasSystem := types.SystemContent(prompt)

	var out []types.Message
	for _, msg := range prompt {
		switch msg.Role {
		case types.RoleSystem:
			continue
		case types.RoleUser:
			if hasSystem && len(out) == 0 {
				out = append(out, types.Message{
					Role:    types.RoleUser,
					Content: fmt.Sprintf("%s\n\nHuman: %s", system, msg.Content),
				})
				continue
			}
			out = append(out, msg)
		case types.RoleAssistant:
			out = append(out, msg)
		}
	}
	return out
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Templates are static and the data is plain strings; execution cannot fail.
	tmpl.Execute(&buf, data)
	return buf.String()
}
