package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	agent "github.com/Protocol-Lattice/research-agent"
	"github.com/Protocol-Lattice/research-agent/pkg/config"
	"github.com/Protocol-Lattice/research-agent/pkg/journal"
	"github.com/Protocol-Lattice/research-agent/pkg/models"
	"github.com/Protocol-Lattice/research-agent/pkg/tools"
)

// runtime owns the agent and every resource that must be released on exit.
type runtime struct {
	agent   *agent.Agent
	tools   []agent.Tool
	logger  *slog.Logger
	verbose bool
	closers []io.Closer
}

func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (rt *runtime, err error) {
	rt = &runtime{logger: logger}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	model, err := models.NewLLMProvider(ctx, cfg.Provider, cfg.Settings())
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	if c, ok := model.(io.Closer); ok {
		rt.closers = append(rt.closers, c)
	}

	rt.tools, err = tools.Build(cfg.Tools, tools.Options{
		Wikipedia: tools.WikipediaOptions{
			TopK:     cfg.Wikipedia.TopK,
			MaxChars: cfg.Wikipedia.MaxChars,
			Language: cfg.Wikipedia.Language,
		},
		DuckDuckGo: tools.DuckDuckGoOptions{
			MaxResults: cfg.WebSearch.MaxResults,
			Timeout:    cfg.WebSearch.Timeout,
		},
	})
	if err != nil {
		return nil, err
	}

	var fallback agent.RemoteCaller
	if cfg.UTCP.ProvidersFile != "" {
		caller, err := tools.NewUTCPCaller(ctx, cfg.UTCP.ProvidersFile)
		if err != nil {
			return nil, err
		}
		fallback = caller
	}

	recorder, err := rt.openJournal(ctx, cfg.Journal)
	if err != nil {
		return nil, err
	}

	rt.agent, err = agent.New(agent.Options{
		Model:         model,
		Tools:         rt.tools,
		Fallback:      fallback,
		MaxIterations: cfg.MaxIterations,
		Preamble:      cfg.Preamble,
		Logger:        logger,
		Journal:       recorder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	logger.Debug("agent ready", "provider", cfg.Provider, "tools", len(rt.tools), "max_iterations", cfg.MaxIterations)
	return rt, nil
}

func (rt *runtime) openJournal(ctx context.Context, cfg config.JournalConfig) (journal.Recorder, error) {
	var recorders journal.MultiRecorder
	if cfg.PostgresDSN != "" {
		pg, err := journal.NewPostgresRecorder(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pg)
		recorders = append(recorders, pg)
	}
	if cfg.MongoURI != "" {
		mg, err := journal.NewMongoRecorder(ctx, cfg.MongoURI, cfg.MongoDatabase, journal.DefaultMongoCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		rt.closers = append(rt.closers, mg)
		recorders = append(recorders, mg)
	}
	if len(recorders) == 0 {
		return nil, nil
	}
	return recorders, nil
}

func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// ask runs one question and prints its progress and outcome to out.
func (rt *runtime) ask(ctx context.Context, query string, out io.Writer) (agent.Result, error) {
	p := newPrinter(out, rt.verbose)
	p.question(query)
	res, err := rt.agent.RunWithProgress(ctx, query, p.step)
	p.outcome(res, err)
	return res, err
}
