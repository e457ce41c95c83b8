package engine

import "github.com/telmok/anychat/providers/ai"

// CallOptions configures a single Chat call. The zero value asks for
// provider defaults everywhere.
type CallOptions struct {
	// Model selects the model identifier sent to the provider. Empty means
	// the adapter's default.
	Model string

	// Sampling parameters. Nil pointers and zero MaxTokens mean "provider
	// default" and are omitted from the wire request.
	MaxTokens   int
	Temperature *float32
	TopP        *float32

	// WebBrowsing enables the web search round-trip for this call. It is a
	// no-op when the engine was built without a search tool.
	WebBrowsing bool

	// OnResultChange, when set, is invoked on every observable change to the
	// in-flight result. Each invocation carries the full accumulated state,
	// not an increment; rendering the latest delta verbatim always shows the
	// complete partial answer.
	OnResultChange func(ResultDelta)
}

// ResultDelta is a cumulative snapshot of an in-flight chat result. Every
// field holds the complete value accumulated so far.
type ResultDelta struct {
	Content          string
	ReasoningContent string
	ToolCalls        []ai.ToolCall
	WebBrowsing      *WebBrowsing
}

// WebBrowsing describes the search performed on behalf of the current call.
type WebBrowsing struct {
	Query string
	Links []Link
}

// Link is one search result surfaced to the caller.
type Link struct {
	Title string
	URL   string
}

func (o CallOptions) generationConfig() *ai.GenerationConfig {
	if o.MaxTokens == 0 && o.Temperature == nil && o.TopP == nil {
		return nil
	}
	return &ai.GenerationConfig{
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
		TopP:        o.TopP,
	}
}
