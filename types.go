package agent

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolKind is the closed set of capabilities the agent knows how to attribute.
type ToolKind int

const (
	// ToolKindFallback covers every capability that is not one of the named kinds,
	// including requests for tools that are not registered at all.
	ToolKindFallback ToolKind = iota
	ToolKindEncyclopedia
	ToolKindWebSearch
)

var toolKindNames = map[ToolKind]string{
	ToolKindFallback:     "fallback",
	ToolKindEncyclopedia: "encyclopedia",
	ToolKindWebSearch:    "web_search",
}

func (k ToolKind) String() string {
	if name, ok := toolKindNames[k]; ok {
		return name
	}
	return "fallback"
}

// sourceLabels is the attribution table consulted when a spec carries no Source.
var sourceLabels = map[ToolKind]string{
	ToolKindEncyclopedia: "Wikipedia",
	ToolKindWebSearch:    "Web Search (DuckDuckGo)",
}

// ToolSpec describes how the agent should present a tool to the model.
type ToolSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Kind        ToolKind           `json:"-"`
	Source      string             `json:"source,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema,omitempty"`
}

// Attribution returns the provenance label appended to this tool's results.
func (s ToolSpec) Attribution() string {
	if s.Source != "" {
		return s.Source
	}
	if label, ok := sourceLabels[s.Kind]; ok {
		return label
	}
	return s.Name
}

// ToolRequest captures an invocation request for a tool.
type ToolRequest struct {
	RunID     string
	CallID    string
	Arguments map[string]any
}

// ToolResponse represents the structured response returned by a tool.
type ToolResponse struct {
	Content  string
	Metadata map[string]string
}

// Tool exposes structured metadata and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// RemoteCaller resolves tools that are not in the local catalog.
type RemoteCaller interface {
	CallTool(ctx context.Context, toolName string, args map[string]any) (any, error)
}
