package observability

import (
	"context"
	"fmt"
	"time"
)

// Observer receives structured log records and opens spans. It is the single
// collaborator the engine reports to; unexpected errors are recorded here
// before being re-thrown to the caller.
type Observer interface {
	// StartSpan starts a new span and returns a context carrying it.
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)

	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Span represents a single unit of work (one provider call, one tool
// execution). Implementations must be safe for use from the goroutine that
// created them; spans are never shared across calls.
type Span interface {
	// End completes the span.
	End()
	// SetAttributes adds attributes to the span.
	SetAttributes(attrs ...Attribute)
	// RecordError records an error against the span.
	RecordError(err error)
	// AddEvent adds a named point-in-time event to the span.
	AddEvent(name string, attrs ...Attribute)
}

// Attribute is a key-value pair attached to spans, events, and log records.
type Attribute struct {
	Key   string
	Value interface{}
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute rendered in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error creates the conventional "error" attribute from an error value.
// A nil error produces an empty string value.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}

// Any creates an attribute holding an arbitrary value formatted lazily.
func Any(key string, value interface{}) Attribute {
	return Attribute{Key: key, Value: value}
}

// FormatValue renders an attribute value as a string for text-based sinks.
func FormatValue(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return typed
	case time.Duration:
		return fmt.Sprintf("%.1fms", float64(typed)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%v", typed)
	}
}
