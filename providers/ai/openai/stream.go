package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
)

// StreamMessage implements ai.StreamProvider. It sends a streaming request
// with stream=true and returns a ChatStream yielding deltas as SSE events
// arrive.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrProviderName, p.Name()),
			observability.String(observability.AttrProviderModel, request.Model),
			observability.Bool(observability.AttrStreaming, true),
		)
	}

	if p.config.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is not set")
	}

	wireRequest := requestToWire(request, true)

	opts := p.requestOptions()
	opts.Stream = true

	httpResponse, err := utils.DoPost(ctx, p.config.Client, p.baseURL+chatCompletionsEndpoint, wireRequest, opts)
	if err != nil {
		return nil, err
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamStarted)
	}

	sseScanner := utils.NewSSEScanner(httpResponse.Body)

	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			payload, sseErr := sseScanner.Next()
			if sseErr == io.EOF {
				return
			}
			if sseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("SSE read error: %w", sseErr))
				return
			}

			chunk, parseErr := unmarshalStreamChunk(payload)
			if parseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("failed to parse streaming chunk: %w", parseErr))
				return
			}

			for _, event := range chunkToStreamEvents(chunk) {
				if !yield(event, nil) {
					return // Caller stopped iterating.
				}
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}

// chunkToStreamEvents converts one SSE chunk into stream events. A single
// chunk can carry several payload kinds (content + tool calls + usage).
func chunkToStreamEvents(chunk *chatCompletionStreamChunk) []ai.StreamEvent {
	var events []ai.StreamEvent

	// The usage chunk typically has empty choices, so handle it first.
	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{
			Type: ai.StreamEventUsage,
			Usage: &ai.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			},
		})
	}

	for _, choice := range chunk.Choices {
		delta := choice.Delta

		if delta.Content != nil && *delta.Content != "" {
			events = append(events, ai.StreamEvent{
				Type:    ai.StreamEventContent,
				Content: *delta.Content,
			})
		}

		reasoning := delta.ReasoningContent
		if reasoning == nil {
			reasoning = delta.Reasoning
		}
		if reasoning != nil && *reasoning != "" {
			events = append(events, ai.StreamEvent{
				Type:      ai.StreamEventReasoning,
				Reasoning: *reasoning,
			})
		}

		for _, toolCallPart := range delta.ToolCalls {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index:     toolCallPart.Index,
					ID:        toolCallPart.ID,
					Name:      toolCallPart.Function.Name,
					Arguments: toolCallPart.Function.Arguments,
				},
			})
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			events = append(events, ai.StreamEvent{
				Type:         ai.StreamEventDone,
				FinishReason: *choice.FinishReason,
			})
		}
	}

	return events
}
