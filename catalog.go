package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolCatalog is the registry consulted by the dispatcher.
type ToolCatalog interface {
	Register(tool Tool) error
	Lookup(name string) (Tool, ToolSpec, bool)
	Specs() []ToolSpec
	Tools() []Tool
	Validate(name string, args map[string]any) error
}

// StaticToolCatalog is the default in-memory implementation of ToolCatalog.
// It is safe for concurrent readers once registration is done.
type StaticToolCatalog struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	specs    map[string]ToolSpec
	resolved map[string]*jsonschema.Resolved
	order    []string
}

// NewStaticToolCatalog constructs a catalog seeded with the provided tools.
func NewStaticToolCatalog(tools []Tool) *StaticToolCatalog {
	catalog := &StaticToolCatalog{
		tools:    make(map[string]Tool),
		specs:    make(map[string]ToolSpec),
		resolved: make(map[string]*jsonschema.Resolved),
	}
	for _, tool := range tools {
		_ = catalog.Register(tool) // invalid entries are skipped
	}
	return catalog
}

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a tool to the catalog using a lower-cased key. Duplicate names return an error.
func (c *StaticToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := catalogKey(spec.Name)
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}

	var resolved *jsonschema.Resolved
	if spec.InputSchema != nil {
		r, err := spec.InputSchema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("tool %s: resolve input schema: %w", spec.Name, err)
		}
		resolved = r
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[key]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	c.tools[key] = tool
	c.specs[key] = spec
	if resolved != nil {
		c.resolved[key] = resolved
	}
	c.order = append(c.order, key)
	return nil
}

// Lookup returns the tool and its specification if present.
func (c *StaticToolCatalog) Lookup(name string) (Tool, ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := catalogKey(name)
	tool, ok := c.tools[key]
	if !ok {
		return nil, ToolSpec{}, false
	}
	return tool, c.specs[key], true
}

// Validate checks args against the tool's input schema. Tools without a
// schema accept anything.
func (c *StaticToolCatalog) Validate(name string, args map[string]any) error {
	c.mu.RLock()
	resolved := c.resolved[catalogKey(name)]
	c.mu.RUnlock()

	if resolved == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := resolved.Validate(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Specs returns a snapshot of the tool specifications in registration order.
func (c *StaticToolCatalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, c.specs[key])
	}
	return specs
}

// Tools returns the registered tools in order.
func (c *StaticToolCatalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make([]Tool, 0, len(c.order))
	for _, key := range c.order {
		tools = append(tools, c.tools[key])
	}
	return tools
}

var _ ToolCatalog = (*StaticToolCatalog)(nil)
