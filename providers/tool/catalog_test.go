package tool

import (
	"context"
	"testing"

	"github.com/telmok/anychat/providers/ai"
)

type stubTool struct {
	name   string
	result string
}

func (s stubTool) Info() ai.ToolDescription {
	return ai.ToolDescription{Name: s.name, Description: "stub"}
}

func (s stubTool) Call(ctx context.Context, inputJSON string) (string, error) {
	return s.result, nil
}

func TestCatalogLookupIsCaseInsensitive(t *testing.T) {
	catalog := NewCatalog(stubTool{name: "Web_Search"})

	for _, name := range []string{"web_search", "WEB_SEARCH", "Web_Search"} {
		if _, ok := catalog.Get(name); !ok {
			t.Errorf("Get(%q) did not find the registered tool", name)
		}
	}

	if _, ok := catalog.Get("calculator"); ok {
		t.Error("Get returned a tool that was never registered")
	}
}

func TestCatalogAddReplacesSameName(t *testing.T) {
	catalog := NewCatalog(stubTool{name: "search", result: "old"})
	catalog.Add(stubTool{name: "SEARCH", result: "new"})

	if got := catalog.Size(); got != 1 {
		t.Fatalf("Size = %d, want 1", got)
	}

	found, _ := catalog.Get("search")
	result, err := found.Call(context.Background(), "{}")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result != "new" {
		t.Errorf("Call = %q, want the replacement tool's result", result)
	}
}

func TestCatalogDescriptions(t *testing.T) {
	catalog := NewCatalog(stubTool{name: "alpha"}, stubTool{name: "beta"})

	descriptions := catalog.Descriptions()
	if len(descriptions) != 2 {
		t.Fatalf("Descriptions returned %d entries, want 2", len(descriptions))
	}
	seen := map[string]bool{}
	for _, d := range descriptions {
		seen[d.Name] = true
	}
	if !seen["alpha"] || !seen["beta"] {
		t.Errorf("Descriptions = %v, missing a registered tool", seen)
	}
}
