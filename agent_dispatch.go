package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Protocol-Lattice/research-agent/pkg/models"
	"github.com/goccy/go-yaml"
)

// Dispatcher executes the tool calls of one assistant message.
// Calls run sequentially and each one yields exactly one tool result.
type Dispatcher struct {
	catalog  ToolCatalog
	fallback RemoteCaller
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher to a catalog. fallback and logger may be nil.
func NewDispatcher(catalog ToolCatalog, fallback RemoteCaller, logger *slog.Logger) *Dispatcher {
	if catalog == nil {
		catalog = NewStaticToolCatalog(nil)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{catalog: catalog, fallback: fallback, logger: logger}
}

// Dispatch answers every call in order. A failing call never stops the batch;
// its failure is rendered into the result content.
func (d *Dispatcher) Dispatch(ctx context.Context, runID string, calls []models.ToolCall) []models.Message {
	results := make([]models.Message, 0, len(calls))
	for _, call := range calls {
		results = append(results, d.dispatchOne(ctx, runID, call))
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, runID string, call models.ToolCall) models.Message {
	log := d.logger.With("run_id", runID, "tool", call.Name, "call_id", call.ID)

	output, attribution, err := d.invoke(ctx, runID, call)
	if err != nil {
		log.Info("tool call failed", "error", err)
		return models.ToolResultMessage(call, (&ToolError{Tool: call.Name, Err: err}).Error())
	}
	log.Debug("tool call finished", "bytes", len(output))
	return models.ToolResultMessage(call, output+"\n\nSource: "+attribution)
}

func (d *Dispatcher) invoke(ctx context.Context, runID string, call models.ToolCall) (output, attribution string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", call.Name, r)
		}
	}()

	tool, spec, ok := d.catalog.Lookup(call.Name)
	if !ok {
		return d.invokeFallback(ctx, call)
	}
	if err := d.catalog.Validate(spec.Name, call.Arguments); err != nil {
		return "", "", err
	}
	resp, err := tool.Invoke(ctx, ToolRequest{RunID: runID, CallID: call.ID, Arguments: call.Arguments})
	if err != nil {
		return "", "", err
	}
	return resp.Content, spec.Attribution(), nil
}

func (d *Dispatcher) invokeFallback(ctx context.Context, call models.ToolCall) (string, string, error) {
	name := strings.TrimSpace(call.Name)
	if d.fallback == nil || name == "" {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	raw, err := d.fallback.CallTool(ctx, name, args)
	if err != nil {
		return "", "", err
	}
	spec := ToolSpec{Name: name, Kind: ToolKindFallback}
	return stringifyOutput(raw), spec.Attribution(), nil
}

// stringifyOutput renders arbitrary tool output as text.
func stringifyOutput(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	case []byte:
		return string(out)
	case fmt.Stringer:
		return out.String()
	}
	encoded, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(encoded))
}
