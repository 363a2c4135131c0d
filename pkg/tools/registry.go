package tools

import (
	"fmt"
	"strings"

	agent "github.com/Protocol-Lattice/research-agent"
)

// Options bundles the settings of every built-in research tool.
type Options struct {
	Wikipedia  WikipediaOptions
	DuckDuckGo DuckDuckGoOptions
}

// Names lists the built-in tools in their default registration order.
func Names() []string {
	return []string{WikipediaToolName, DuckDuckGoToolName}
}

// Build constructs the named built-in tools in the given order.
// An empty list selects every built-in tool.
func Build(names []string, opts Options) ([]agent.Tool, error) {
	if len(names) == 0 {
		names = Names()
	}
	out := make([]agent.Tool, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case WikipediaToolName:
			out = append(out, NewWikipedia(opts.Wikipedia))
		case DuckDuckGoToolName, "duckduckgo", "web":
			out = append(out, NewDuckDuckGo(opts.DuckDuckGo))
		default:
			return nil, fmt.Errorf("unknown tool %q (available: %s)", name, strings.Join(Names(), ", "))
		}
	}
	return out, nil
}
