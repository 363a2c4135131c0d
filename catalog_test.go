package agent

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

func TestStaticToolCatalogKeepsRegistrationOrder(t *testing.T) {
	catalog := NewStaticToolCatalog(nil)
	for _, name := range []string{"wikipedia", "duckduckgo_search", "calculator"} {
		if err := catalog.Register(queryTool(name, ToolKindFallback, "")); err != nil {
			t.Fatalf("Register(%s) returned error: %v", name, err)
		}
	}
	specs := catalog.Specs()
	if len(specs) != 3 || specs[0].Name != "wikipedia" || specs[2].Name != "calculator" {
		t.Fatalf("unexpected spec order: %+v", specs)
	}
	if len(catalog.Tools()) != 3 {
		t.Fatalf("expected 3 tools")
	}
}

func TestStaticToolCatalogRejectsBadTools(t *testing.T) {
	catalog := NewStaticToolCatalog(nil)
	if err := catalog.Register(nil); err == nil {
		t.Fatalf("expected error for nil tool")
	}
	if err := catalog.Register(&stubTool{spec: ToolSpec{Name: "  "}}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := catalog.Register(queryTool("Wikipedia", ToolKindEncyclopedia, "")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := catalog.Register(queryTool("wikipedia ", ToolKindEncyclopedia, "")); err == nil {
		t.Fatalf("expected duplicate error for names differing only in case and space")
	}
	broken := &stubTool{spec: ToolSpec{Name: "broken", InputSchema: &jsonschema.Schema{Pattern: "("}}}
	if err := catalog.Register(broken); err == nil {
		t.Fatalf("expected error for unresolvable schema")
	}
}

func TestStaticToolCatalogValidate(t *testing.T) {
	catalog := NewStaticToolCatalog([]Tool{
		queryTool("wikipedia", ToolKindEncyclopedia, ""),
		&stubTool{spec: ToolSpec{Name: "free"}},
	})
	if err := catalog.Validate("wikipedia", map[string]any{"query": "x"}); err != nil {
		t.Fatalf("expected valid arguments, got %v", err)
	}
	if err := catalog.Validate("wikipedia", map[string]any{"query": 3}); err == nil {
		t.Fatalf("expected type error")
	}
	if err := catalog.Validate("wikipedia", nil); err == nil {
		t.Fatalf("expected missing query to fail")
	}
	if err := catalog.Validate("free", nil); err != nil {
		t.Fatalf("schema-less tools accept anything, got %v", err)
	}
}

func TestToolSpecAttribution(t *testing.T) {
	cases := []struct {
		spec ToolSpec
		want string
	}{
		{ToolSpec{Name: "wikipedia", Kind: ToolKindEncyclopedia}, "Wikipedia"},
		{ToolSpec{Name: "duckduckgo_search", Kind: ToolKindWebSearch}, "Web Search (DuckDuckGo)"},
		{ToolSpec{Name: "calculator", Kind: ToolKindFallback}, "calculator"},
		{ToolSpec{Name: "wikipedia", Kind: ToolKindEncyclopedia, Source: "Wikipédia"}, "Wikipédia"},
	}
	for _, tc := range cases {
		if got := tc.spec.Attribution(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.spec.Name, tc.want, got)
		}
	}
	if ToolKindWebSearch.String() != "web_search" || ToolKind(42).String() != "fallback" {
		t.Fatalf("unexpected kind names")
	}
}
