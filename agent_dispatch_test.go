package agent

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/Protocol-Lattice/research-agent/pkg/models"
)

func TestDispatchSchemaViolationBecomesErrorResult(t *testing.T) {
	wiki := queryTool("wikipedia", ToolKindEncyclopedia, "text")
	d := NewDispatcher(NewStaticToolCatalog([]Tool{wiki}), nil, nil)

	results := d.Dispatch(context.Background(), "run", []models.ToolCall{{ID: "c1", Name: "wikipedia"}})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.HasPrefix(results[0].Content, "Error: invalid arguments") {
		t.Fatalf("expected schema error, got %q", results[0].Content)
	}
	if len(wiki.calls) != 0 {
		t.Fatalf("tool must not run with invalid arguments")
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	bad := queryTool("explodes", ToolKindFallback, "")
	bad.panicMsg = "kaboom"
	good := queryTool("wikipedia", ToolKindEncyclopedia, "fine")
	d := NewDispatcher(NewStaticToolCatalog([]Tool{bad, good}), nil, nil)

	results := d.Dispatch(context.Background(), "run", []models.ToolCall{
		call("a", "explodes", "x"),
		call("b", "wikipedia", "y"),
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !strings.HasPrefix(results[0].Content, "Error: ") || !strings.Contains(results[0].Content, "kaboom") {
		t.Fatalf("expected panic rendered as error, got %q", results[0].Content)
	}
	if results[1].Content != "fine\n\nSource: Wikipedia" {
		t.Fatalf("batch should continue after a panic, got %q", results[1].Content)
	}
}

func TestDispatchLookupIsCaseInsensitive(t *testing.T) {
	wiki := queryTool("wikipedia", ToolKindEncyclopedia, "text")
	d := NewDispatcher(NewStaticToolCatalog([]Tool{wiki}), nil, nil)

	results := d.Dispatch(context.Background(), "run", []models.ToolCall{call("c", " Wikipedia ", "x")})
	if results[0].Content != "text\n\nSource: Wikipedia" {
		t.Fatalf("unexpected content %q", results[0].Content)
	}
	if results[0].ToolName != " Wikipedia " {
		t.Fatalf("result should echo the requested name, got %q", results[0].ToolName)
	}
}

func TestDispatchUsesSourceOverride(t *testing.T) {
	tool := queryTool("arxiv", ToolKindFallback, "paper")
	tool.spec.Source = "arXiv"
	d := NewDispatcher(NewStaticToolCatalog([]Tool{tool}), nil, nil)

	results := d.Dispatch(context.Background(), "run", []models.ToolCall{call("c", "arxiv", "x")})
	if results[0].Content != "paper\n\nSource: arXiv" {
		t.Fatalf("unexpected content %q", results[0].Content)
	}
}

func TestDispatchFallbackToRemoteCaller(t *testing.T) {
	remote := &stubRemote{output: map[string]any{"city": "Oslo"}}
	d := NewDispatcher(NewStaticToolCatalog(nil), remote, nil)

	results := d.Dispatch(context.Background(), "run", []models.ToolCall{{ID: "c", Name: "weather.lookup"}})
	if remote.lastName != "weather.lookup" {
		t.Fatalf("remote caller not used, got %q", remote.lastName)
	}
	if remote.lastArgs == nil {
		t.Fatalf("remote caller should receive a non-nil argument map")
	}
	if results[0].Content != "city: Oslo\n\nSource: weather.lookup" {
		t.Fatalf("unexpected fallback content %q", results[0].Content)
	}
}

func TestDispatchFallbackErrorIsIsolated(t *testing.T) {
	remote := &stubRemote{err: errors.New("no provider")}
	d := NewDispatcher(NewStaticToolCatalog(nil), remote, nil)

	results := d.Dispatch(context.Background(), "run", []models.ToolCall{{ID: "c", Name: "missing"}})
	if results[0].Content != "Error: no provider" {
		t.Fatalf("unexpected content %q", results[0].Content)
	}
}

func TestDispatchEmptyBatch(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	if got := d.Dispatch(context.Background(), "run", nil); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestStringifyOutput(t *testing.T) {
	if got := stringifyOutput("plain"); got != "plain" {
		t.Fatalf("unexpected string output %q", got)
	}
	if got := stringifyOutput([]byte("raw")); got != "raw" {
		t.Fatalf("unexpected bytes output %q", got)
	}
	if got := stringifyOutput(nil); got != "" {
		t.Fatalf("nil output should be empty, got %q", got)
	}
	if got := stringifyOutput([]string{"a", "b"}); got != "- a\n- b" {
		t.Fatalf("unexpected structured output %q", got)
	}
}

func TestDispatchFailureStaysBelowWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	tool := queryTool("wikipedia", ToolKindEncyclopedia, "")
	tool.err = errors.New("timeout")
	d := NewDispatcher(NewStaticToolCatalog([]Tool{tool}), nil, logger)

	results := d.Dispatch(context.Background(), "run", []models.ToolCall{call("c", "wikipedia", "x")})
	if results[0].Content != "Error: timeout" {
		t.Fatalf("unexpected content %q", results[0].Content)
	}
	if buf.Len() != 0 {
		t.Fatalf("tool failure should not log at warn level, got %q", buf.String())
	}
}
