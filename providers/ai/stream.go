package ai

import "iter"

// StreamEventType identifies the kind of delta carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventContent indicates a text content delta.
	StreamEventContent StreamEventType = "content"
	// StreamEventReasoning indicates a reasoning/thinking content delta.
	StreamEventReasoning StreamEventType = "reasoning"
	// StreamEventToolCall indicates an incremental tool call delta (name or arguments chunk).
	StreamEventToolCall StreamEventType = "tool_call"
	// StreamEventUsage carries token usage metadata (typically the final event).
	StreamEventUsage StreamEventType = "usage"
	// StreamEventDone signals that the stream has finished normally.
	StreamEventDone StreamEventType = "done"
)

// ToolCallDelta represents an incremental update to a tool call being
// streamed. Index identifies which call is being updated; ID and Name are
// only present on the first chunk for a given index, subsequent chunks carry
// only Arguments fragments.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamEvent represents a single delta yielded during response streaming.
// Each event carries exactly one kind of payload, identified by Type.
// Content and Reasoning are increments, not cumulative buffers; accumulation
// is the consumer's job.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`
	Reasoning    string          `json:"reasoning,omitempty"`
	ToolCall     *ToolCallDelta  `json:"tool_call,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ChatStream is a lazy, finite, non-restartable sequence of stream events.
// Callers must consume it, either by ranging over Iter (breaking out early
// is fine) or by calling Collect, because the underlying adapter holds an
// open HTTP response body that is only released when the iterator completes
// or is abandoned via a loop break.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream creates a ChatStream from a raw streaming iterator. The
// iterator yields events with a nil error for normal deltas and may yield a
// non-nil error to signal a mid-stream failure, after which it must stop.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleEventStream wraps a completed ChatResponse as a short stream:
// content, reasoning, and tool calls each become one event, followed by a
// done event. Used as the fallback when an adapter does not stream.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		if response.Content != "" {
			if !yield(StreamEvent{Type: StreamEventContent, Content: response.Content}, nil) {
				return
			}
		}

		if response.Reasoning != "" {
			if !yield(StreamEvent{Type: StreamEventReasoning, Reasoning: response.Reasoning}, nil) {
				return
			}
		}

		for toolIndex, toolCall := range response.ToolCalls {
			if !yield(StreamEvent{
				Type: StreamEventToolCall,
				ToolCall: &ToolCallDelta{
					Index:     toolIndex,
					ID:        toolCall.ID,
					Name:      toolCall.Function.Name,
					Arguments: toolCall.Function.Arguments,
				},
			}, nil) {
				return
			}
		}

		if response.Usage != nil {
			if !yield(StreamEvent{Type: StreamEventUsage, Usage: response.Usage}, nil) {
				return
			}
		}

		yield(StreamEvent{Type: StreamEventDone, FinishReason: response.FinishReason}, nil)
	}

	return NewChatStream(iteratorFunc)
}

// Iter returns the underlying iterator for use with range-over-func loops.
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the accumulated
// ChatResponse. A mid-stream error terminates collection and returns the
// partial response together with the error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	accumulated := &ChatResponse{}
	var builders []ToolCallBuilder

	for event, err := range stream.iterator {
		if err != nil {
			accumulated.ToolCalls = FinishToolCalls(builders)
			return accumulated, err
		}

		switch event.Type {
		case StreamEventContent:
			accumulated.Content += event.Content
		case StreamEventReasoning:
			accumulated.Reasoning += event.Reasoning
		case StreamEventToolCall:
			if event.ToolCall != nil {
				builders = AccumulateToolCallDelta(builders, event.ToolCall)
			}
		case StreamEventUsage:
			if event.Usage != nil {
				accumulated.Usage = event.Usage
			}
		case StreamEventDone:
			accumulated.FinishReason = event.FinishReason
		}
	}

	accumulated.ToolCalls = FinishToolCalls(builders)
	return accumulated, nil
}

// ToolCallBuilder accumulates incremental tool call deltas into a complete
// ToolCall. Arguments grow as raw text fragments; parsing happens only once
// the call is known complete. The fields are plain values so the builders
// slice can be grown with append while earlier entries are still receiving
// fragments.
type ToolCallBuilder struct {
	ID        string
	Name      string
	arguments string
}

// Arguments returns the argument fragments accumulated so far.
func (b *ToolCallBuilder) Arguments() string {
	return b.arguments
}

// AccumulateToolCallDelta merges a delta into the running list of builders,
// growing the slice when new tool call indices appear.
func AccumulateToolCallDelta(builders []ToolCallBuilder, delta *ToolCallDelta) []ToolCallBuilder {
	for len(builders) <= delta.Index {
		builders = append(builders, ToolCallBuilder{})
	}

	builder := &builders[delta.Index]

	if delta.ID != "" {
		builder.ID = delta.ID
	}
	if delta.Name != "" {
		builder.Name = delta.Name
	}
	if delta.Arguments != "" {
		builder.arguments += delta.Arguments
	}

	return builders
}

// FinishToolCalls converts accumulated builders into final ToolCall values,
// dropping builders that never received a name.
func FinishToolCalls(builders []ToolCallBuilder) []ToolCall {
	var calls []ToolCall
	for index := range builders {
		builder := &builders[index]
		if builder.Name == "" {
			continue
		}
		calls = append(calls, ToolCall{
			ID:   builder.ID,
			Type: "function",
			Function: ToolCallFunction{
				Name:      builder.Name,
				Arguments: builder.Arguments(),
			},
		})
	}
	return calls
}
