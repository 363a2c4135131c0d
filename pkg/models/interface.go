package models

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Role identifies who produced a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request, emitted by the model, to run a named tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry of a conversation.
//
// ToolCalls is only set on assistant messages. ToolCallID and ToolName are
// only set on tool results and point back at the call they answer.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// ToolDefinition describes a tool the model is allowed to request.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// Request is everything a ChatModel needs to make one decision.
type Request struct {
	// System is an optional instruction block sent ahead of Messages.
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// ChatModel produces the next assistant message for a conversation.
// Implementations make exactly one outbound call and never retry.
type ChatModel interface {
	Chat(ctx context.Context, req Request) (Message, error)
}

// Settings carries the provider-agnostic knobs shared by every adapter.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}
