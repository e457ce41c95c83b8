// Package tool defines the callable-tool contract the engine uses when a
// model requests an external capability mid-generation, plus a small
// registry for looking tools up by name. Web search, the one shipped tool,
// lives in the websearch subpackage.
package tool

import (
	"context"

	"github.com/telmok/anychat/providers/ai"
)

// Tool is a capability the model can invoke. Call receives the raw JSON
// argument string accumulated from the stream; implementations parse it
// leniently and return a JSON-encoded result for the follow-up tool
// message.
type Tool interface {
	// Info returns the metadata advertised to the provider.
	Info() ai.ToolDescription

	// Call invokes the tool. Returns an error if parsing or execution fails.
	Call(ctx context.Context, inputJSON string) (string, error)
}
