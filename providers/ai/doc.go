// Package ai defines the shared, provider-agnostic types and interfaces used
// across all chat provider adapters (OpenAI-compatible, Azure, Ollama, the
// hosted aggregator). Each adapter's conversion layer maps these types to its
// own wire format, keeping the engine decoupled from provider-specific
// details.
//
// The central interface is [Provider] for synchronous chat completions, with
// [StreamProvider] for streaming responses. Capability interfaces
// ([ToolCapable], [VisionCapable], [PaintProvider]) are detected via type
// assertion. Conversations flow in as [Message] slices, run through
// [Normalize] before dispatch, and responses come back as [ChatResponse]
// values or incremental [StreamEvent] deltas carried by a [ChatStream].
package ai
