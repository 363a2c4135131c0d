package agent

import (
	"fmt"
	"strings"
)

const defaultSystemPrompt = `You are a research assistant with access to search tools.

ALWAYS use the appropriate search tool when asked about:
- Current events or recent news
- Company updates or developments
- Recent developments in technology
- What happened in specific years
- Any factual information you're not certain about

Choose the most appropriate tool based on the question type.`

// toolHints tells the model when each kind of capability is the right one.
var toolHints = map[ToolKind]string{
	ToolKindEncyclopedia: "Use for encyclopedic information, definitions, historical facts, scientific concepts",
	ToolKindWebSearch:    "Use for current events, recent news, company updates, breaking news",
}

// buildPreamble renders the one-time instruction block sent ahead of the first decision.
func buildPreamble(base string, specs []ToolSpec) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = defaultSystemPrompt
	}
	tools := renderTools(specs)
	if tools == "" {
		return base
	}
	return base + "\n\n" + tools
}

// renderTools formats the available tool specs into a prompt-friendly block.
func renderTools(specs []ToolSpec) string {
	if len(specs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, spec := range specs {
		desc := strings.TrimSpace(spec.Description)
		if hint, ok := toolHints[spec.Kind]; ok {
			desc = hint
		}
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", spec.Name, spec.Attribution(), desc))
	}
	return strings.TrimRight(sb.String(), "\n")
}
