package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/Protocol-Lattice/research-agent/pkg/config"
	"github.com/Protocol-Lattice/research-agent/pkg/helpers"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath    string
	provider      string
	model         string
	tools         string
	maxIterations int
	logLevel      string
	verbose       bool
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "research",
		Short: "Research agent that answers questions using Wikipedia and web search",
		Long: `research - a conversational research agent.

The agent decides whether to answer directly or to consult Wikipedia and
DuckDuckGo, folds their results into the conversation and repeats until it
can answer or the iteration limit is reached.

Settings come from defaults, then --config (YAML), then RESEARCH_* variables
(a .env file is loaded when present), then flags. Provider credentials are
read from GOOGLE_API_KEY / GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY
or OLLAMA_HOST.

Examples:
  research
  research ask "What is the capital of Australia?"
  research --provider openai --model gpt-4o-mini ask "Latest Go release?"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			rt, err := newRuntime(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runREPL(ctx, rt, in, out)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&flags.provider, "provider", "", "model provider: gemini, openai, anthropic, ollama or dummy")
	pf.StringVar(&flags.model, "model", "", "model identifier (provider default when empty)")
	pf.StringVar(&flags.tools, "tools", "", "comma separated tools to enable (default: all)")
	pf.IntVar(&flags.maxIterations, "max-iterations", 0, "maximum decision steps per question")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print every intermediate step")

	root.AddCommand(newAskCmd(flags, out))
	return root
}

func newAskCmd(flags *rootFlags, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			rt, err := newRuntime(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer rt.Close()
			_, err = rt.ask(ctx, strings.Join(args, " "), out)
			return err
		},
	}
}

// resolveConfig applies flags that were explicitly set on top of the loaded config.
func resolveConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	changed := cmd.Flags().Changed
	if changed("provider") {
		cfg.Provider = flags.provider
	}
	if changed("model") {
		cfg.Model = flags.model
	}
	if changed("tools") {
		cfg.Tools = helpers.ParseCSVList(flags.tools)
	}
	if changed("max-iterations") {
		cfg.MaxIterations = flags.maxIterations
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newRuntime(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*runtime, error) {
	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.verbose = flags.verbose
	return rt, nil
}

func runREPL(ctx context.Context, rt *runtime, in io.Reader, out io.Writer) error {
	st := newStyles()
	fmt.Fprintln(out, st.title.Render("Welcome to the Research Agent!"))
	fmt.Fprintln(out, "Ask me anything and I'll search Wikipedia and the web for answers.")
	fmt.Fprintf(out, "%s\n", st.dim.Render("Tools: "+helpers.ToolNames(rt.tools)))
	fmt.Fprintln(out, st.rule.Render(strings.Repeat("=", 60)))

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "\nEnter your question (or 'quit' to exit): ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}
		query := strings.TrimSpace(line)
		switch strings.ToLower(query) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			fmt.Fprintln(out, "Please enter a question!")
			continue
		}

		if _, err := rt.ask(ctx, query, out); err != nil && ctx.Err() != nil {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}
	}
}
