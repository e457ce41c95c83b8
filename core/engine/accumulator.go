package engine

import (
	"strings"

	"github.com/telmok/anychat/providers/ai"
)

const (
	thinkOpenTag  = "<think>"
	thinkCloseTag = "</think>"
)

// accumulator folds stream events into cumulative buffers and notifies the
// caller after every change. It survives the tool-call resubmission, so the
// final answer continues in the same content buffer the first round started.
type accumulator struct {
	rawContent strings.Builder
	reasoning  strings.Builder
	builders   []ai.ToolCallBuilder
	browsing   *WebBrowsing
	usage      *ai.Usage
	onChange   func(ResultDelta)
}

func newAccumulator(onChange func(ResultDelta)) *accumulator {
	return &accumulator{onChange: onChange}
}

func (a *accumulator) apply(event ai.StreamEvent) {
	switch event.Type {
	case ai.StreamEventContent:
		a.rawContent.WriteString(event.Content)
	case ai.StreamEventReasoning:
		a.reasoning.WriteString(event.Reasoning)
	case ai.StreamEventToolCall:
		if event.ToolCall != nil {
			a.builders = ai.AccumulateToolCallDelta(a.builders, event.ToolCall)
		}
	case ai.StreamEventUsage:
		if event.Usage != nil {
			a.usage = event.Usage
		}
		return
	case ai.StreamEventDone:
		return
	default:
		return
	}
	a.notify()
}

func (a *accumulator) setBrowsing(browsing *WebBrowsing) {
	a.browsing = browsing
	a.notify()
}

// takeToolCalls finalizes and returns the accumulated tool calls, clearing
// the builders so calls streamed during the resubmission are not re-run.
func (a *accumulator) takeToolCalls() []ai.ToolCall {
	calls := ai.FinishToolCalls(a.builders)
	a.builders = nil
	return calls
}

func (a *accumulator) notify() {
	if a.onChange != nil {
		a.onChange(a.snapshot())
	}
}

func (a *accumulator) snapshot() ResultDelta {
	content, thought := splitThink(a.rawContent.String())
	return ResultDelta{
		Content:          content,
		ReasoningContent: joinReasoning(a.reasoning.String(), thought),
		ToolCalls:        ai.FinishToolCalls(a.builders),
		WebBrowsing:      a.browsing,
	}
}

// text returns the accumulated answer text with any think block removed.
func (a *accumulator) text() string {
	content, _ := splitThink(a.rawContent.String())
	return content
}

// splitThink extracts an embedded <think>...</think> block from raw content.
// While the closing tag has not arrived yet, everything after the opening tag
// is treated as reasoning so the caller can render the thought in progress.
func splitThink(raw string) (content, reasoning string) {
	start := strings.Index(raw, thinkOpenTag)
	if start < 0 {
		return raw, ""
	}

	inner := raw[start+len(thinkOpenTag):]
	end := strings.Index(inner, thinkCloseTag)
	if end < 0 {
		return raw[:start], strings.TrimSpace(inner)
	}

	after := strings.TrimLeft(inner[end+len(thinkCloseTag):], "\n")
	return raw[:start] + after, strings.TrimSpace(inner[:end])
}

func joinReasoning(streamed, embedded string) string {
	switch {
	case streamed == "":
		return embedded
	case embedded == "":
		return streamed
	default:
		return streamed + "\n\n" + embedded
	}
}
