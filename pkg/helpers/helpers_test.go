package helpers

import (
	"context"
	"errors"
	"testing"

	agent "github.com/Protocol-Lattice/research-agent"
)

type stubTool struct{ name string }

func (s stubTool) Spec() agent.ToolSpec { return agent.ToolSpec{Name: s.name} }
func (stubTool) Invoke(context.Context, agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{}, errors.New("not implemented")
}

func TestToolNames(t *testing.T) {
	if got := ToolNames(nil); got != "<none>" {
		t.Fatalf("expected <none> for nil slice, got %q", got)
	}
	tools := []agent.Tool{stubTool{name: "wikipedia"}, stubTool{name: "duckduckgo_search"}}
	if got := ToolNames(tools); got != "wikipedia, duckduckgo_search" {
		t.Fatalf("unexpected tool names: %q", got)
	}
}

func TestParseCSVList(t *testing.T) {
	if got := ParseCSVList("   "); got != nil {
		t.Fatalf("expected nil for whitespace input, got %#v", got)
	}
	list := ParseCSVList("one, two, , three")
	want := []string{"one", "two", "three"}
	if len(list) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(list))
	}
	for i, v := range want {
		if list[i] != v {
			t.Fatalf("entry %d: expected %q, got %q", i, v, list[i])
		}
	}
}

func TestQueryArgument(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"nil", nil, "information"},
		{"blank", map[string]any{"query": "  "}, "information"},
		{"string", map[string]any{"query": " Go "}, "Go"},
		{"number", map[string]any{"query": 42}, "42"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := QueryArgument(tc.args); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("a\n b   c", 0); got != "a b c" {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := Preview("abcdefghij", 6); got != "abc..." {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := Preview("short", 10); got != "short" {
		t.Fatalf("unexpected preview %q", got)
	}
}
