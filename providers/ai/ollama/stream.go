package ollama

import (
	"context"
	"fmt"
	"io"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
)

// StreamMessage implements ai.StreamProvider over newline-delimited JSON.
// Each line carries a content fragment; the line with done=true terminates
// the sequence and carries the finish reason and token counts.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrProviderName, p.Name()),
			observability.String(observability.AttrProviderModel, request.Model),
			observability.Bool(observability.AttrStreaming, true),
		)
	}

	wireRequest := requestToWire(request, true)

	opts := p.requestOptions()
	opts.Stream = true

	httpResponse, err := utils.DoPost(ctx, p.config.Client, p.baseURL+chatEndpoint, wireRequest, opts)
	if err != nil {
		return nil, err
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamStarted)
	}

	ndjsonScanner := utils.NewNDJSONScanner(httpResponse.Body)

	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			payload, scanErr := ndjsonScanner.Next()
			if scanErr == io.EOF {
				return
			}
			if scanErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("NDJSON read error: %w", scanErr))
				return
			}

			line, parseErr := unmarshalChatLine(payload)
			if parseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("failed to parse streaming line: %w", parseErr))
				return
			}

			if line.Message.Content != "" {
				if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: line.Message.Content}, nil) {
					return
				}
			}

			if line.Done {
				if usage := line.usage(); usage != nil {
					if !yield(ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usage}, nil) {
						return
					}
				}
				finishReason := line.DoneReason
				if finishReason == "" {
					finishReason = "stop"
				}
				yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason}, nil)
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}
