package ai

import (
	"errors"
	"testing"
)

// TestCollect_AccumulatesContentAndToolCalls verifies that Collect folds
// every event kind into the final response.
func TestCollect_AccumulatesContentAndToolCalls(t *testing.T) {
	stream := NewChatStream(func(yield func(StreamEvent, error) bool) {
		events := []StreamEvent{
			{Type: StreamEventContent, Content: "Hel"},
			{Type: StreamEventContent, Content: "lo"},
			{Type: StreamEventReasoning, Reasoning: "thinking"},
			{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, ID: "call_1", Name: "web_search"}},
			{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `{"query":`}},
			{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `"go"}`}},
			{Type: StreamEventUsage, Usage: &Usage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12}},
			{Type: StreamEventDone, FinishReason: "tool_calls"},
		}
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	})

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	if response.Content != "Hello" {
		t.Errorf("expected content 'Hello', got %q", response.Content)
	}
	if response.Reasoning != "thinking" {
		t.Errorf("expected reasoning 'thinking', got %q", response.Reasoning)
	}
	if response.FinishReason != "tool_calls" {
		t.Errorf("expected finish reason 'tool_calls', got %q", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 12 {
		t.Errorf("unexpected usage: %+v", response.Usage)
	}
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(response.ToolCalls))
	}
	call := response.ToolCalls[0]
	if call.ID != "call_1" || call.Function.Name != "web_search" || call.Function.Arguments != `{"query":"go"}` {
		t.Errorf("unexpected tool call: %+v", call)
	}
}

// TestCollect_MidStreamErrorReturnsPartial verifies that an in-stream error
// surfaces together with whatever accumulated before it.
func TestCollect_MidStreamErrorReturnsPartial(t *testing.T) {
	streamErr := errors.New("connection reset")
	stream := NewChatStream(func(yield func(StreamEvent, error) bool) {
		if !yield(StreamEvent{Type: StreamEventContent, Content: "partial"}, nil) {
			return
		}
		yield(StreamEvent{}, streamErr)
	})

	response, err := stream.Collect()
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected stream error, got %v", err)
	}
	if response.Content != "partial" {
		t.Errorf("expected partial content, got %q", response.Content)
	}
}

// TestNewSingleEventStream verifies the non-streaming fallback replays a
// completed response as a short event sequence.
func TestNewSingleEventStream(t *testing.T) {
	stream := NewSingleEventStream(&ChatResponse{
		Content:      "answer",
		Reasoning:    "because",
		FinishReason: "stop",
		Usage:        &Usage{TotalTokens: 3},
		ToolCalls: []ToolCall{
			{ID: "call_1", Type: "function", Function: ToolCallFunction{Name: "web_search", Arguments: "{}"}},
		},
	})

	var types []StreamEventType
	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		types = append(types, event.Type)
	}

	want := []StreamEventType{StreamEventContent, StreamEventReasoning, StreamEventToolCall, StreamEventUsage, StreamEventDone}
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(types), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

// TestAccumulateToolCallDelta_InterleavedIndices verifies fragments may keep
// arriving for an earlier index after a later index opened, which grows the
// builders slice mid-call.
func TestAccumulateToolCallDelta_InterleavedIndices(t *testing.T) {
	var builders []ToolCallBuilder
	builders = AccumulateToolCallDelta(builders, &ToolCallDelta{Index: 0, ID: "call_1", Name: "web_search", Arguments: `{"q":`})
	builders = AccumulateToolCallDelta(builders, &ToolCallDelta{Index: 1, ID: "call_2", Name: "web_search", Arguments: `{"q":"y"}`})
	builders = AccumulateToolCallDelta(builders, &ToolCallDelta{Index: 0, Arguments: `"x"}`})

	calls := FinishToolCalls(builders)
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Function.Arguments != `{"q":"x"}` {
		t.Errorf("call 0 arguments = %q, want %q", calls[0].Function.Arguments, `{"q":"x"}`)
	}
	if calls[1].Function.Arguments != `{"q":"y"}` {
		t.Errorf("call 1 arguments = %q, want %q", calls[1].Function.Arguments, `{"q":"y"}`)
	}
}

// TestFinishToolCalls_DropsNameless verifies builders that never received a
// function name are discarded instead of producing broken calls.
func TestFinishToolCalls_DropsNameless(t *testing.T) {
	var builders []ToolCallBuilder
	builders = AccumulateToolCallDelta(builders, &ToolCallDelta{Index: 0, Arguments: "{}"})
	builders = AccumulateToolCallDelta(builders, &ToolCallDelta{Index: 1, ID: "call_2", Name: "web_search", Arguments: "{}"})

	calls := FinishToolCalls(builders)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].ID != "call_2" {
		t.Errorf("expected call_2 to survive, got %+v", calls[0])
	}
}
