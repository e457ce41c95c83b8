// Package websearch implements the web_search tool: a query goes to one of
// the configured search backends (DuckDuckGo, Brave, or both interleaved)
// and the results come back as a JSON document the model can ground its
// final answer on. Repeated queries within a short window are served from a
// process-wide cache.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telmok/anychat/core/parse"
	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
)

// ToolName is the function name advertised to providers.
const ToolName = "web_search"

// maxResults caps the number of results handed back to the model.
const maxResults = 10

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Excerpt string `json:"excerpt,omitempty"` // page excerpt, when enrichment is enabled
}

// Engine is a search backend.
type Engine interface {
	// Name identifies the backend in logs and cache keys.
	Name() string

	// Search runs the query and returns ranked results.
	Search(ctx context.Context, query string) ([]Result, error)
}

// Input is the argument object the model supplies when invoking the tool.
type Input struct {
	Query string `json:"query"`
}

// Output is the JSON document returned to the model and surfaced to the UI
// as the browsing payload.
type Output struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// Tool adapts an Engine to the tool.Tool contract, adding caching and
// optional page-excerpt enrichment.
type Tool struct {
	engine    Engine
	cache     *queryCache
	enrichTop bool
	fetcher   *pageFetcher
}

// Option configures a Tool.
type Option func(*Tool)

// WithTopResultExcerpt fetches the first result's page and attaches a
// markdown excerpt, giving the model real page content instead of just a
// snippet.
func WithTopResultExcerpt() Option {
	return func(t *Tool) {
		t.enrichTop = true
	}
}

// New creates the web_search tool backed by engine.
func New(engine Engine, opts ...Option) *Tool {
	t := &Tool{
		engine:  engine,
		cache:   sharedCache,
		fetcher: newPageFetcher(nil),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Info implements tool.Tool.
func (t *Tool) Info() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        ToolName,
		Description: "Search the web for current information. Use this when the question concerns recent events or facts you are unsure about.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search query"}
			},
			"required": ["query"]
		}`),
	}
}

// Call implements tool.Tool. The input is parsed leniently since it comes
// straight from accumulated stream fragments.
func (t *Tool) Call(ctx context.Context, inputJSON string) (string, error) {
	input, err := parse.ParseJSON[Input](inputJSON)
	if err != nil {
		return "", fmt.Errorf("web_search: invalid arguments: %w", err)
	}

	output, err := t.Run(ctx, input.Query)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("web_search: failed to encode results: %w", err)
	}
	return string(encoded), nil
}

// Run executes the search with caching and optional enrichment. Exposed
// separately so the prompt-engineered fallback path can reuse it without
// the JSON argument framing.
func (t *Tool) Run(ctx context.Context, query string) (*Output, error) {
	observer := observability.ObserverFromContext(ctx)

	cacheKey := t.engine.Name() + "\x00" + query
	if cached, ok := t.cache.get(cacheKey); ok {
		if observer != nil {
			observer.Debug(ctx, "web search served from cache",
				observability.String(observability.AttrSearchQuery, query),
				observability.Bool(observability.AttrSearchCached, true),
			)
		}
		return cached, nil
	}

	results, err := t.engine.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("web_search: %w", err)
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	if t.enrichTop && len(results) > 0 {
		// Enrichment is best-effort; an unreachable page never fails the search.
		if excerpt, fetchErr := t.fetcher.excerpt(ctx, results[0].URL); fetchErr == nil {
			results[0].Excerpt = excerpt
		}
	}

	output := &Output{Query: query, Results: results}
	t.cache.put(cacheKey, output)

	if observer != nil {
		observer.Debug(ctx, "web search completed",
			observability.String(observability.AttrSearchQuery, query),
			observability.String(observability.AttrSearchEngine, t.engine.Name()),
			observability.Int(observability.AttrSearchResults, len(results)),
		)
	}

	return output, nil
}
