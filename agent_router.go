package agent

import "github.com/Protocol-Lattice/research-agent/pkg/models"

// Route is the router's verdict after a decision step.
type Route int

const (
	// RouteEnd terminates the loop.
	RouteEnd Route = iota
	// RouteTools continues to the tool dispatcher.
	RouteTools
)

func (r Route) String() string {
	if r == RouteTools {
		return "tools"
	}
	return "end"
}

// RouteAfter decides where the loop goes next from the latest entry alone.
// Only an assistant message with at least one tool call continues; anything
// else, including an assistant message with neither content nor calls, ends.
func RouteAfter(last models.Message) Route {
	if last.HasToolCalls() {
		return RouteTools
	}
	return RouteEnd
}
