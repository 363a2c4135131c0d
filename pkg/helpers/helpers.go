package helpers

import (
	"strings"

	agent "github.com/Protocol-Lattice/research-agent"
	"github.com/spf13/cast"
)

// ToolNames renders tool names for status output.
func ToolNames(tools []agent.Tool) string {
	if len(tools) == 0 {
		return "<none>"
	}
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Spec().Name
	}
	return strings.Join(names, ", ")
}

func ParseCSVList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// QueryArgument extracts the "query" argument of a tool call for display,
// falling back to "information" when it is absent.
func QueryArgument(args map[string]any) string {
	q := strings.TrimSpace(cast.ToString(args["query"]))
	if q == "" {
		return "information"
	}
	return q
}

// Preview shortens s to at most n runes on a single line.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
