package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	agent "github.com/Protocol-Lattice/research-agent"
	"github.com/Protocol-Lattice/research-agent/pkg/helpers"
	"github.com/Protocol-Lattice/research-agent/pkg/models"
	"github.com/Protocol-Lattice/research-agent/pkg/tools"
	"github.com/charmbracelet/lipgloss"
)

const (
	ruleWidth     = 50
	previewLength = 200
	errorPrefix   = "Error: "
	primaryColor  = lipgloss.Color("#00ff9f")
	dimColor      = lipgloss.Color("#6e7681")
	warnColor     = lipgloss.Color("#f2cc60")
	errorColor    = lipgloss.Color("#ff6b6b")
)

type styles struct {
	title  lipgloss.Style
	rule   lipgloss.Style
	label  lipgloss.Style
	dim    lipgloss.Style
	warn   lipgloss.Style
	failed lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(primaryColor),
		rule:   lipgloss.NewStyle().Foreground(dimColor),
		label:  lipgloss.NewStyle().Bold(true).Foreground(primaryColor),
		dim:    lipgloss.NewStyle().Foreground(dimColor),
		warn:   lipgloss.NewStyle().Bold(true).Foreground(warnColor),
		failed: lipgloss.NewStyle().Bold(true).Foreground(errorColor),
	}
}

// printer renders the progress of one run.
type printer struct {
	out     io.Writer
	st      styles
	verbose bool
	count   int
	pending []models.ToolCall
}

func newPrinter(out io.Writer, verbose bool) *printer {
	return &printer{out: out, st: newStyles(), verbose: verbose}
}

func (p *printer) question(query string) {
	fmt.Fprintf(p.out, "\n%s %s\n", p.st.label.Render("Question:"), query)
	p.rule()
}

func (p *printer) rule() {
	fmt.Fprintln(p.out, p.st.rule.Render(strings.Repeat("=", ruleWidth)))
}

func (p *printer) step(s agent.Step) {
	p.count++
	switch s.Node {
	case agent.NodeDecide:
		fmt.Fprintf(p.out, "Step %d: LLM is analyzing your question...\n", p.count)
		p.pending = s.Requests
		if p.verbose && strings.TrimSpace(s.Message.Content) != "" && len(s.Requests) > 0 {
			fmt.Fprintf(p.out, "   %s\n", p.st.dim.Render(helpers.Preview(s.Message.Content, previewLength)))
		}
	case agent.NodeTools:
		for _, call := range p.pending {
			fmt.Fprintf(p.out, "   %s\n", describeCall(call))
		}
		for _, res := range s.Results {
			if strings.HasPrefix(res.Content, errorPrefix) {
				fmt.Fprintf(p.out, "    %s\n", p.st.failed.Render(fmt.Sprintf("Error using %s: %s", res.ToolName, strings.TrimPrefix(res.Content, errorPrefix))))
			} else if p.verbose {
				fmt.Fprintf(p.out, "   %s\n", p.st.dim.Render(res.ToolName+" => "+helpers.Preview(res.Content, previewLength)))
			}
		}
		p.pending = nil
		fmt.Fprintf(p.out, "Step %d: Gathering information from sources...\n", p.count)
	}
}

func describeCall(call models.ToolCall) string {
	switch strings.ToLower(strings.TrimSpace(call.Name)) {
	case tools.WikipediaToolName:
		return "Searching Wikipedia for: " + helpers.QueryArgument(call.Arguments)
	case tools.DuckDuckGoToolName:
		return "Searching the web for: " + helpers.QueryArgument(call.Arguments)
	default:
		return "Using tool: " + call.Name
	}
}

func (p *printer) outcome(res agent.Result, err error) {
	switch {
	case err == nil:
		p.rule()
		fmt.Fprintf(p.out, "%s %s\n", p.st.label.Render("Answer:"), res.Answer)
		p.rule()
	case errors.Is(err, agent.ErrIterationLimitExceeded):
		fmt.Fprintln(p.out, p.st.warn.Render("WARNING: Maximum steps reached. Stopping to prevent infinite loop."))
		p.rule()
	case errors.Is(err, agent.ErrCanceled):
		p.rule()
		fmt.Fprintln(p.out, p.st.warn.Render("Canceled."))
		p.rule()
	default:
		p.rule()
		fmt.Fprintln(p.out, p.st.failed.Render(fmt.Sprintf("Error getting final answer: %v", err)))
		p.rule()
	}
}
