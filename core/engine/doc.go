// Package engine is the orchestration layer between a raw provider adapter
// and the application: it normalizes conversations, streams completions with
// cumulative delta callbacks, runs the web search tool round-trip (native
// tool calls or the prompt-engineered fallback), and turns caller
// cancellation into a graceful partial result instead of an error.
//
// The primary entry point is [New], which accepts an [ai.Provider] and
// functional options such as [WithWebSearch].
package engine
