package hosted

import (
	"context"
	"fmt"
	"io"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
)

// StreamMessage implements ai.StreamProvider against the aggregator's SSE
// endpoint. In-band error frames terminate the stream; a quota frame is
// surfaced as ai.QuotaExhaustedError.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	if err := p.checkLicense(); err != nil {
		return nil, err
	}

	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrProviderName, p.Name()),
			observability.String(observability.AttrProviderModel, request.Model),
			observability.Bool(observability.AttrStreaming, true),
		)
	}

	wireRequest := requestToWire(request)

	opts := p.requestOptions()
	opts.Stream = true

	httpResponse, err := utils.DoPost(ctx, p.config.Client, p.origin+chatEndpoint, wireRequest, opts)
	if err != nil {
		return nil, p.refineError(err)
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

			frame, parseErr := unmarshalStreamFrame(payload)
			if parseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("failed to parse streaming frame: %w", parseErr))
				return
			}

			if frame.Error != nil {
				if frame.Error.Code == quotaExhaustedCode {
					yield(ai.StreamEvent{}, &ai.QuotaExhaustedError{Provider: p.Name()})
					return
				}
				yield(ai.StreamEvent{}, &ai.APIError{Provider: p.Name(), Payload: frame.Error.Message})
				return
			}

			for _, event := range frameToStreamEvents(frame) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}

func frameToStreamEvents(frame *streamFrame) []ai.StreamEvent {
	var events []ai.StreamEvent

	if frame.Usage != nil {
		events = append(events, ai.StreamEvent{
			Type: ai.StreamEventUsage,
			Usage: &ai.Usage{
				PromptTokens:     frame.Usage.PromptTokens,
				CompletionTokens: frame.Usage.CompletionTokens,
				TotalTokens:      frame.Usage.TotalTokens,
			},
		})
	}

	if delta := frame.Delta; delta != nil {
		if delta.Content != "" {
			events = append(events, ai.StreamEvent{Type: ai.StreamEventContent, Content: delta.Content})
		}
		if delta.Reasoning != "" {
			events = append(events, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: delta.Reasoning})
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
	}

	if frame.FinishReason != "" {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: frame.FinishReason})
	}

	return events
}
