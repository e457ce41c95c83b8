package ai

import "context"

// Provider is the core interface every chat adapter must satisfy. It covers
// authentication, endpoint construction, message dispatch, and response
// interpretation for a single backend family. Adapters are constructed from
// explicit configuration; they never read ambient global state.
type Provider interface {
	// Name returns the provider's stable identifier, used in error messages
	// and observability attributes.
	Name() string

	// SendMessage sends a chat request and returns the completed response.
	// Returns an error if the provider call fails, the context is cancelled,
	// or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}

// StreamProvider is implemented by adapters that support incremental
// streaming responses. Callers detect support via type assertion:
// provider.(StreamProvider). Without it, callers fall back to SendMessage
// wrapped in a single-event stream.
type StreamProvider interface {
	Provider

	// StreamMessage sends a chat request and returns a ChatStream yielding
	// incremental deltas. Pre-stream errors (auth, bad request, network) are
	// returned as a normal error; mid-stream errors come through the
	// iterator.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}

// ToolCapable is implemented by adapters whose wire format carries native
// tool invocation. Adapters without it get the prompt-engineered search
// fallback when web browsing is requested.
type ToolCapable interface {
	SupportsToolUse() bool
}

// VisionCapable is implemented by adapters that accept image attachments.
type VisionCapable interface {
	SupportsVision() bool
}

// PaintProvider is implemented by adapters that can generate images.
type PaintProvider interface {
	// Paint generates n images for the prompt and returns them as base64
	// data URLs.
	Paint(ctx context.Context, prompt string, n int) ([]string, error)
}

// SupportsToolUse reports whether provider natively supports tool calls.
func SupportsToolUse(provider Provider) bool {
	capable, ok := provider.(ToolCapable)
	return ok && capable.SupportsToolUse()
}

// SupportsVision reports whether provider accepts image attachments.
func SupportsVision(provider Provider) bool {
	capable, ok := provider.(VisionCapable)
	return ok && capable.SupportsVision()
}
