package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/tool/websearch"
)

// scriptedProvider replays canned stream scripts and synchronous responses,
// recording every request it receives.
type scriptedProvider struct {
	name        string
	toolCapable bool

	streams        [][]ai.StreamEvent
	streamRequests []ai.ChatRequest

	sendResponses []*ai.ChatResponse
	sendRequests  []ai.ChatRequest
}

func (p *scriptedProvider) Name() string {
	if p.name == "" {
		return "scripted"
	}
	return p.name
}

func (p *scriptedProvider) SupportsToolUse() bool { return p.toolCapable }

func (p *scriptedProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.sendRequests = append(p.sendRequests, request)
	if len(p.sendResponses) == 0 {
		return nil, errors.New("scripted provider: no response left")
	}
	response := p.sendResponses[0]
	p.sendResponses = p.sendResponses[1:]
	return response, nil
}

func (p *scriptedProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.streamRequests = append(p.streamRequests, request)
	if len(p.streams) == 0 {
		return nil, errors.New("scripted provider: no stream left")
	}
	events := p.streams[0]
	p.streams = p.streams[1:]

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	}), nil
}

func contentEvents(fragments ...string) []ai.StreamEvent {
	var events []ai.StreamEvent
	for _, fragment := range fragments {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventContent, Content: fragment})
	}
	events = append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "stop"})
	return events
}

type fakeSearchEngine struct {
	name    string
	results []websearch.Result
	calls   int
	queries []string
}

func (f *fakeSearchEngine) Name() string { return f.name }

func (f *fakeSearchEngine) Search(ctx context.Context, query string) ([]websearch.Result, error) {
	f.calls++
	f.queries = append(f.queries, query)
	return f.results, nil
}

func TestChat_StreamsCumulativeDeltas(t *testing.T) {
	provider := &scriptedProvider{streams: [][]ai.StreamEvent{contentEvents("Hel", "lo", " world")}}
	chat := New(provider)

	var snapshots []string
	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{
		OnResultChange: func(delta ResultDelta) {
			snapshots = append(snapshots, delta.Content)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", answer)

	// Every snapshot carries the full buffer, and each one extends the last.
	require.Equal(t, []string{"Hel", "Hello", "Hello world"}, snapshots)
	for i := 1; i < len(snapshots); i++ {
		assert.True(t, strings.HasPrefix(snapshots[i], snapshots[i-1]),
			"snapshot %d is not an extension of its predecessor", i)
	}
}

func TestChat_NormalizesBeforeSending(t *testing.T) {
	provider := &scriptedProvider{streams: [][]ai.StreamEvent{contentEvents("ok")}}
	chat := New(provider)

	_, err := chat.Chat(context.Background(), []ai.Message{
		{Role: ai.RoleUser, Content: "first"},
		{Role: ai.RoleSystem, Content: "be terse"},
		{Role: ai.RoleUser, Content: "second"},
	}, CallOptions{Model: "m1"})
	require.NoError(t, err)

	require.Len(t, provider.streamRequests, 1)
	request := provider.streamRequests[0]
	assert.Equal(t, "be terse", request.SystemPrompt)
	require.Len(t, request.Messages, 1)
	assert.Equal(t, "first\n\nsecond", request.Messages[0].Content)
	assert.Equal(t, "m1", request.Model)
}

func TestChat_CancellationResolvesPartial(t *testing.T) {
	provider := &scriptedProvider{streams: [][]ai.StreamEvent{contentEvents("Hel", "lo")}}
	chat := New(provider)

	ctx, cancel := context.WithCancel(context.Background())
	answer, err := chat.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{
		OnResultChange: func(delta ResultDelta) {
			if delta.Content == "Hel" {
				cancel()
			}
		},
	})

	require.NoError(t, err, "cancellation must not surface as an error")
	assert.Equal(t, "Hel", answer)
}

func TestChat_ThinkBlockExtractedToReasoning(t *testing.T) {
	provider := &scriptedProvider{streams: [][]ai.StreamEvent{
		contentEvents("<think>pondering", " deeply</think>", "the answer is 42"),
	}}
	chat := New(provider)

	var last ResultDelta
	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{
		OnResultChange: func(delta ResultDelta) { last = delta },
	})
	require.NoError(t, err)

	assert.Equal(t, "the answer is 42", answer)
	assert.Equal(t, "pondering deeply", last.ReasoningContent)
	assert.Equal(t, "the answer is 42", last.Content)
}

func TestChat_ThinkBlockPartialTreatedAsReasoning(t *testing.T) {
	provider := &scriptedProvider{streams: [][]ai.StreamEvent{
		contentEvents("<think>still going"),
	}}
	chat := New(provider)

	var last ResultDelta
	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{
		OnResultChange: func(delta ResultDelta) { last = delta },
	})
	require.NoError(t, err)

	assert.Equal(t, "", answer)
	assert.Equal(t, "still going", last.ReasoningContent)
}

func TestChat_NonStreamingProviderFallsBack(t *testing.T) {
	// A provider without StreamMessage still produces deltas through the
	// single-event wrapper.
	provider := &sendOnlyProvider{response: &ai.ChatResponse{Content: "collected", FinishReason: "stop"}}
	chat := New(provider)

	var snapshots []string
	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{
		OnResultChange: func(delta ResultDelta) { snapshots = append(snapshots, delta.Content) },
	})
	require.NoError(t, err)
	assert.Equal(t, "collected", answer)
	assert.Equal(t, []string{"collected"}, snapshots)
}

type sendOnlyProvider struct {
	response *ai.ChatResponse
	requests []ai.ChatRequest
}

func (p *sendOnlyProvider) Name() string { return "send-only" }

func (p *sendOnlyProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.requests = append(p.requests, request)
	return p.response, nil
}

func TestChat_NativeToolRoundTrip(t *testing.T) {
	toolCallRound := []ai.StreamEvent{
		{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, ID: "call_1", Name: websearch.ToolName, Arguments: `{"query":`}},
		{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, Arguments: `"weather berlin native"}`}},
		{Type: ai.StreamEventDone, FinishReason: "tool_calls"},
	}
	finalRound := []ai.StreamEvent{
		{Type: ai.StreamEventContent, Content: "It is sunny."},
		// A tool call requested during the resubmission must be ignored.
		{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, ID: "call_2", Name: websearch.ToolName, Arguments: `{"query":"again"}`}},
		{Type: ai.StreamEventDone, FinishReason: "stop"},
	}

	provider := &scriptedProvider{
		toolCapable: true,
		streams:     [][]ai.StreamEvent{toolCallRound, finalRound},
	}
	searchEngine := &fakeSearchEngine{name: "native-test", results: []websearch.Result{
		{Title: "Weather Berlin", URL: "https://example.com/berlin", Snippet: "sunny, 24C"},
	}}
	chat := New(provider, WithWebSearch(websearch.New(searchEngine)))

	var browsing *WebBrowsing
	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "weather in berlin?"}}, CallOptions{
		WebBrowsing: true,
		OnResultChange: func(delta ResultDelta) {
			if delta.WebBrowsing != nil {
				browsing = delta.WebBrowsing
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", answer)

	// Exactly one resubmission; the second round's tool call triggered no
	// third provider call.
	require.Len(t, provider.streamRequests, 2)
	assert.Equal(t, 1, searchEngine.calls)
	assert.Equal(t, []string{"weather berlin native"}, searchEngine.queries)

	// First round advertises the tool.
	require.Len(t, provider.streamRequests[0].Tools, 1)
	assert.Equal(t, websearch.ToolName, provider.streamRequests[0].Tools[0].Name)

	// The resubmission carries the assistant tool-call turn and the tool
	// result turn after the original conversation.
	resubmitted := provider.streamRequests[1].Messages
	require.Len(t, resubmitted, 3)
	assert.Equal(t, ai.RoleAssistant, resubmitted[1].Role)
	require.Len(t, resubmitted[1].ToolCalls, 1)
	assert.Equal(t, "call_1", resubmitted[1].ToolCalls[0].ID)
	assert.Equal(t, ai.RoleTool, resubmitted[2].Role)
	assert.Equal(t, "call_1", resubmitted[2].ToolCallID)
	assert.Contains(t, resubmitted[2].Content, "example.com/berlin")

	// The browsing payload surfaced through the delta channel.
	require.NotNil(t, browsing)
	assert.Equal(t, "weather berlin native", browsing.Query)
	require.Len(t, browsing.Links, 1)
	assert.Equal(t, "https://example.com/berlin", browsing.Links[0].URL)
}

func TestChat_UnknownToolCallSkipped(t *testing.T) {
	toolCallRound := []ai.StreamEvent{
		{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, ID: "call_1", Name: "no_such_tool", Arguments: `{}`}},
		{Type: ai.StreamEventDone, FinishReason: "tool_calls"},
	}
	provider := &scriptedProvider{
		toolCapable: true,
		streams:     [][]ai.StreamEvent{toolCallRound},
	}
	searchEngine := &fakeSearchEngine{name: "skip-test"}
	chat := New(provider, WithWebSearch(websearch.New(searchEngine)))

	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{WebBrowsing: true})
	require.NoError(t, err)

	// Nothing executable, so no resubmission happened.
	assert.Equal(t, "", answer)
	assert.Len(t, provider.streamRequests, 1)
	assert.Equal(t, 0, searchEngine.calls)
}

func TestChat_FallbackDecisionSearch(t *testing.T) {
	provider := &fallbackProvider{
		decision: `Here's my call: {'action': 'search', 'query': 'fallback weather berlin'}`,
		streams:  [][]ai.StreamEvent{contentEvents("Grounded answer.")},
	}
	searchEngine := &fakeSearchEngine{name: "fallback-test", results: []websearch.Result{
		{Title: "Weather Berlin", URL: "https://example.com/berlin", Snippet: "sunny"},
	}}
	chat := New(provider, WithWebSearch(websearch.New(searchEngine)))

	var browsing *WebBrowsing
	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "weather in berlin?"}}, CallOptions{
		WebBrowsing: true,
		OnResultChange: func(delta ResultDelta) {
			if delta.WebBrowsing != nil {
				browsing = delta.WebBrowsing
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Grounded answer.", answer)
	assert.Equal(t, 1, searchEngine.calls)

	// The decision call carried its own instructions, not the user's system
	// prompt.
	require.Len(t, provider.sendRequests, 1)
	assert.Contains(t, provider.sendRequests[0].SystemPrompt, "web search")

	// The real call got the results folded into the system prompt and no
	// tools advertised.
	require.Len(t, provider.streamRequests, 1)
	generation := provider.streamRequests[0]
	assert.Empty(t, generation.Tools)
	assert.Contains(t, generation.SystemPrompt, "fallback weather berlin")
	assert.Contains(t, generation.SystemPrompt, "https://example.com/berlin")

	require.NotNil(t, browsing)
	assert.Equal(t, "fallback weather berlin", browsing.Query)
}

func TestChat_FallbackDecisionProceed(t *testing.T) {
	provider := &fallbackProvider{
		decision: `{"action":"proceed"}`,
		streams:  [][]ai.StreamEvent{contentEvents("Direct answer.")},
	}
	searchEngine := &fakeSearchEngine{name: "proceed-test"}
	chat := New(provider, WithWebSearch(websearch.New(searchEngine)))

	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "2+2?"}}, CallOptions{WebBrowsing: true})
	require.NoError(t, err)
	assert.Equal(t, "Direct answer.", answer)
	assert.Equal(t, 0, searchEngine.calls)
}

func TestChat_FallbackGarbageDecisionProceeds(t *testing.T) {
	provider := &fallbackProvider{
		decision: "I cannot produce JSON, sorry.",
		streams:  [][]ai.StreamEvent{contentEvents("Answer anyway.")},
	}
	searchEngine := &fakeSearchEngine{name: "garbage-test"}
	chat := New(provider, WithWebSearch(websearch.New(searchEngine)))

	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{WebBrowsing: true})
	require.NoError(t, err)
	assert.Equal(t, "Answer anyway.", answer)
	assert.Equal(t, 0, searchEngine.calls)
}

// fallbackProvider streams but does not advertise tool use, which routes
// browsing through the decision pre-flight.
type fallbackProvider struct {
	decision string

	streams        [][]ai.StreamEvent
	streamRequests []ai.ChatRequest
	sendRequests   []ai.ChatRequest
}

func (p *fallbackProvider) Name() string { return "fallback" }

func (p *fallbackProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.sendRequests = append(p.sendRequests, request)
	return &ai.ChatResponse{Content: p.decision, FinishReason: "stop"}, nil
}

func (p *fallbackProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.streamRequests = append(p.streamRequests, request)
	if len(p.streams) == 0 {
		return nil, errors.New("fallback provider: no stream left")
	}
	events := p.streams[0]
	p.streams = p.streams[1:]
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	}), nil
}

func TestChat_StreamErrorReturnsPartial(t *testing.T) {
	streamErr := errors.New("connection reset")
	failing := &erroringProvider{events: []ai.StreamEvent{{Type: ai.StreamEventContent, Content: "par"}}, err: streamErr}
	chat := New(failing)

	answer, err := chat.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, CallOptions{})
	require.ErrorIs(t, err, streamErr)
	assert.Equal(t, "par", answer)
}

type erroringProvider struct {
	events []ai.StreamEvent
	err    error
}

func (p *erroringProvider) Name() string { return "erroring" }

func (p *erroringProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return nil, p.err
}

func (p *erroringProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, event := range p.events {
			if !yield(event, nil) {
				return
			}
		}
		yield(ai.StreamEvent{}, p.err)
	}), nil
}

func TestPaint_UnsupportedProvider(t *testing.T) {
	chat := New(&scriptedProvider{})

	_, err := chat.Paint(context.Background(), "a sunset", 1)

	var capabilityErr *ai.UnsupportedCapabilityError
	require.ErrorAs(t, err, &capabilityErr)
	assert.Equal(t, "paint", capabilityErr.Capability)
}

func TestSplitThink(t *testing.T) {
	tests := []struct {
		raw, content, reasoning string
	}{
		{"plain answer", "plain answer", ""},
		{"<think>why</think>answer", "answer", "why"},
		{"<think>why</think>\nanswer", "answer", "why"},
		{"prefix <think>why</think> suffix", "prefix  suffix", "why"},
		{"<think>unclosed", "", "unclosed"},
		{"", "", ""},
	}
	for _, test := range tests {
		content, reasoning := splitThink(test.raw)
		assert.Equal(t, test.content, content, "raw: %q", test.raw)
		assert.Equal(t, test.reasoning, reasoning, "raw: %q", test.raw)
	}
}

func TestAccumulator_SnapshotIncludesToolCallsInProgress(t *testing.T) {
	acc := newAccumulator(nil)
	acc.apply(ai.StreamEvent{Type: ai.StreamEventToolCall, ToolCall: &ai.ToolCallDelta{Index: 0, ID: "call_1", Name: "web_search", Arguments: `{"q`}})

	snapshot := acc.snapshot()
	require.Len(t, snapshot.ToolCalls, 1)
	assert.Equal(t, `{"q`, snapshot.ToolCalls[0].Function.Arguments)
}
