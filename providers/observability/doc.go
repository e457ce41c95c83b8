// Package observability defines the lightweight tracing and structured
// logging contracts used across the anychat engine and its provider
// adapters. It deliberately avoids a hard dependency on any telemetry
// vendor: the engine emits span events and log records against the
// [Observer] and [Span] interfaces, and callers decide where those records
// go by attaching an implementation to the context.
//
// The slogobs subpackage provides the default implementation backed by
// log/slog.
package observability
