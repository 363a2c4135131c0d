package agent

import (
	"testing"

	"github.com/Protocol-Lattice/research-agent/pkg/models"
)

func TestRouteAfter(t *testing.T) {
	cases := []struct {
		name string
		msg  models.Message
		want Route
	}{
		{"answer", models.AssistantMessage("done"), RouteEnd},
		{"tool calls", models.AssistantMessage("", models.ToolCall{ID: "1", Name: "wikipedia"}), RouteTools},
		{"content and calls", models.AssistantMessage("thinking", models.ToolCall{ID: "1", Name: "x"}), RouteTools},
		{"empty assistant", models.AssistantMessage(""), RouteEnd},
		{"user", models.UserMessage("hi"), RouteEnd},
		{"tool result", models.ToolResultMessage(models.ToolCall{ID: "1"}, "x"), RouteEnd},
		{"user carrying calls", models.Message{Role: models.RoleUser, ToolCalls: []models.ToolCall{{Name: "x"}}}, RouteEnd},
	}
	for _, tc := range cases {
		if got := RouteAfter(tc.msg); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestConversationCopiesEntries(t *testing.T) {
	conv := NewConversation(models.UserMessage("q"))
	msg := models.AssistantMessage("", models.ToolCall{ID: "a", Name: "wikipedia", Arguments: map[string]any{"query": "x"}})
	conv.Append(msg)
	msg.ToolCalls[0].ID = "mutated"

	if conv.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", conv.Len())
	}
	last, ok := conv.Last()
	if !ok || last.ToolCalls[0].ID != "a" {
		t.Fatalf("conversation shares caller memory: %+v", last)
	}
	snapshot := conv.Messages()
	snapshot[0].Content = "changed"
	if first := conv.Messages()[0]; first.Content != "q" {
		t.Fatalf("Messages must return a copy")
	}
	if _, ok := NewConversation().Last(); ok {
		t.Fatalf("empty conversation has no last entry")
	}
}
