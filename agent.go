package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Protocol-Lattice/research-agent/pkg/journal"
	"github.com/Protocol-Lattice/research-agent/pkg/models"
	"github.com/google/uuid"
)

// DefaultMaxIterations bounds a run when Options.MaxIterations is unset.
const DefaultMaxIterations = 10

const journalTimeout = 5 * time.Second

// Node names the loop state a progress step was emitted from.
type Node string

const (
	NodeDecide Node = "decide"
	NodeTools  Node = "tools"
)

// Step is one state transition of a run, reported to a ProgressFunc.
type Step struct {
	RunID     string
	Iteration int
	Node      Node
	// Message is the assistant decision. Set on decide steps.
	Message models.Message
	// Requests are the tool calls about to be dispatched, if any.
	Requests []models.ToolCall
	// Results are the tool results appended. Set on tools steps.
	Results []models.Message
}

// ProgressFunc observes a run as it advances. It must not block for long.
type ProgressFunc func(Step)

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeAnswered       Outcome = "answered"
	OutcomeIterationLimit Outcome = "iteration_limit"
	OutcomeFailed         Outcome = "failed"
	OutcomeCanceled       Outcome = "canceled"
)

// Result is the terminal state of a run.
type Result struct {
	RunID        string
	Answer       string
	Outcome      Outcome
	Iterations   int
	Conversation []models.Message
}

// Agent runs the decide / dispatch loop for research questions.
type Agent struct {
	model         models.ChatModel
	catalog       ToolCatalog
	dispatcher    *Dispatcher
	maxIterations int
	preamble      bool
	systemPrompt  string
	logger        *slog.Logger
	journal       journal.Recorder
}

// Options configure a new Agent.
type Options struct {
	Model models.ChatModel
	// Tools are registered into ToolCatalog, or into a fresh catalog when nil.
	Tools       []Tool
	ToolCatalog ToolCatalog
	// Fallback serves tool names that are not in the catalog.
	Fallback      RemoteCaller
	MaxIterations int
	// Preamble sends the system instruction on the first decision of every run.
	Preamble     bool
	SystemPrompt string
	Logger       *slog.Logger
	Journal      journal.Recorder
}

// New creates an Agent with the provided options.
func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent requires a language model")
	}
	if opts.MaxIterations < 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", opts.MaxIterations)
	}
	maxIter := opts.MaxIterations
	if maxIter == 0 {
		maxIter = DefaultMaxIterations
	}

	catalog := opts.ToolCatalog
	if catalog == nil {
		catalog = NewStaticToolCatalog(nil)
	}
	for _, tool := range opts.Tools {
		if tool == nil {
			continue
		}
		if err := catalog.Register(tool); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Agent{
		model:         opts.Model,
		catalog:       catalog,
		dispatcher:    NewDispatcher(catalog, opts.Fallback, logger),
		maxIterations: maxIter,
		preamble:      opts.Preamble,
		systemPrompt:  buildPreamble(opts.SystemPrompt, catalog.Specs()),
		logger:        logger,
		journal:       opts.Journal,
	}, nil
}

// ToolSpecs exposes the registered tool specs in registration order.
func (a *Agent) ToolSpecs() []ToolSpec { return a.catalog.Specs() }

// MaxIterations reports the iteration bound applied to each run.
func (a *Agent) MaxIterations() int { return a.maxIterations }

// Run answers query, consulting tools as the model requests them.
func (a *Agent) Run(ctx context.Context, query string) (Result, error) {
	return a.RunWithProgress(ctx, query, nil)
}

// RunWithProgress is Run with a callback invoked after every state transition.
//
// The returned error is nil only for OutcomeAnswered. Result is always
// populated with the conversation as it stood when the run ended.
func (a *Agent) RunWithProgress(ctx context.Context, query string, progress ProgressFunc) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, errors.New("query is empty")
	}
	if progress == nil {
		progress = func(Step) {}
	}

	started := time.Now()
	runID := uuid.NewString()
	log := a.logger.With("run_id", runID)
	conv := NewConversation(models.UserMessage(query))
	tools := toolDefinitions(a.catalog.Specs())
	used := map[string]struct{}{}
	var usedOrder []string

	res := Result{RunID: runID}
	var runErr error

	log.Info("run started", "query", query, "max_iterations", a.maxIterations)
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			res.Outcome = OutcomeCanceled
			runErr = fmt.Errorf("%w: %w", ErrCanceled, err)
			break
		}
		if iteration > a.maxIterations {
			res.Outcome = OutcomeIterationLimit
			runErr = ErrIterationLimitExceeded
			break
		}
		res.Iterations = iteration

		req := models.Request{Messages: conv.Messages(), Tools: tools}
		if a.preamble && iteration == 1 {
			req.System = a.systemPrompt
		}
		msg, err := a.model.Chat(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				res.Outcome = OutcomeCanceled
				runErr = fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
				break
			}
			res.Outcome = OutcomeFailed
			runErr = &DecisionError{Iteration: iteration, Err: err}
			break
		}
		msg = msg.Clone()
		msg.Role = models.RoleAssistant
		msg.ToolCallID, msg.ToolName = "", ""
		normalizeCallIDs(msg.ToolCalls)
		conv.Append(msg)

		route := RouteAfter(msg)
		log.Debug("decision", "iteration", iteration, "route", route.String(), "tool_calls", len(msg.ToolCalls))
		progress(Step{RunID: runID, Iteration: iteration, Node: NodeDecide, Message: msg.Clone(), Requests: msg.Clone().ToolCalls})

		if route == RouteEnd {
			res.Outcome = OutcomeAnswered
			res.Answer = msg.Content
			break
		}

		for _, call := range msg.ToolCalls {
			if _, seen := used[call.Name]; !seen {
				used[call.Name] = struct{}{}
				usedOrder = append(usedOrder, call.Name)
			}
		}
		results := a.dispatcher.Dispatch(ctx, runID, msg.ToolCalls)
		conv.Append(results...)
		progress(Step{RunID: runID, Iteration: iteration, Node: NodeTools, Results: conv.Messages()[conv.Len()-len(results):]})
	}

	res.Conversation = conv.Messages()
	if runErr != nil {
		log.Warn("run ended without answer", "outcome", res.Outcome, "iterations", res.Iterations, "error", runErr)
	} else {
		log.Info("run answered", "iterations", res.Iterations)
	}
	a.record(ctx, journal.Record{
		RunID:      runID,
		Query:      query,
		Outcome:    string(res.Outcome),
		Iterations: res.Iterations,
		Tools:      usedOrder,
		StartedAt:  started,
		Duration:   time.Since(started),
		Error:      errorText(runErr),
	})
	return res, runErr
}

// record writes the run to the journal. Journal failures never affect the run.
func (a *Agent) record(ctx context.Context, rec journal.Record) {
	if a.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := a.journal.Record(ctx, rec); err != nil {
		a.logger.Warn("journal write failed", "run_id", rec.RunID, "error", err)
	}
}

// normalizeCallIDs gives every call in one message a unique, non-empty ID.
func normalizeCallIDs(calls []models.ToolCall) {
	seen := make(map[string]struct{}, len(calls))
	for i := range calls {
		id := strings.TrimSpace(calls[i].ID)
		if _, dup := seen[id]; id == "" || dup {
			id = models.NewCallID()
		}
		seen[id] = struct{}{}
		calls[i].ID = id
	}
}

func toolDefinitions(specs []ToolSpec) []models.ToolDefinition {
	if len(specs) == 0 {
		return nil
	}
	defs := make([]models.ToolDefinition, 0, len(specs))
	for _, spec := range specs {
		defs = append(defs, models.ToolDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.InputSchema,
		})
	}
	return defs
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
