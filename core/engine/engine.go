package engine

import (
	"context"
	"errors"

	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
	"github.com/telmok/anychat/providers/tool"
	"github.com/telmok/anychat/providers/tool/websearch"
)

// Engine drives a single chat completion against a provider: it normalizes
// the conversation, streams the response, runs the web search round-trip when
// browsing is requested, and delivers cumulative deltas to the caller.
//
// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	provider ai.Provider
	tools    *tool.Catalog
	search   *websearch.Tool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWebSearch equips the engine with a search tool, enabling the
// CallOptions.WebBrowsing flag.
func WithWebSearch(search *websearch.Tool) Option {
	return func(e *Engine) {
		e.search = search
		e.tools.Add(search)
	}
}

// New creates an Engine on top of provider.
func New(provider ai.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		tools:    tool.NewCatalog(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider returns the underlying provider.
func (e *Engine) Provider() ai.Provider {
	return e.provider
}

// Chat runs one completion over messages and returns the final answer text.
//
// Cancelling ctx at any phase is not an error: Chat resolves with whatever
// text accumulated before the cancellation and a nil error, and transport or
// decode failures observed after the cancellation are swallowed. Any other
// failure returns the partial text together with the error.
func (e *Engine) Chat(ctx context.Context, messages []ai.Message, opts CallOptions) (string, error) {
	observer := observability.ObserverFromContext(ctx)

	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, "engine.chat",
			observability.String(observability.AttrProviderName, e.provider.Name()),
			observability.String(observability.AttrProviderModel, opts.Model),
			observability.Int(observability.AttrMessagesCount, len(messages)),
		)
		defer span.End()
		span.AddEvent(observability.EventChatStart)
	}

	normalized := ai.Normalize(messages)
	systemPrompt, rest := ai.SplitSystemPrompt(normalized)

	request := ai.ChatRequest{
		Model:            opts.Model,
		Messages:         rest,
		SystemPrompt:     systemPrompt,
		GenerationConfig: opts.generationConfig(),
	}

	acc := newAccumulator(opts.OnResultChange)

	browsing := opts.WebBrowsing && e.search != nil
	if browsing {
		if ai.SupportsToolUse(e.provider) {
			request.Tools = e.tools.Descriptions()
		} else {
			// Providers without native tool calling get a pre-flight decision
			// call; its failure modes all degrade to answering directly.
			e.applySearchFallback(ctx, &request, acc)
			if ctx.Err() != nil {
				e.markCancelled(span)
				return acc.text(), nil
			}
		}
	}

	if err := e.streamOnce(ctx, request, acc); err != nil {
		if wasCancelled(ctx, err) {
			e.markCancelled(span)
			return acc.text(), nil
		}
		if span != nil {
			span.RecordError(err)
		}
		return acc.text(), err
	}

	if len(request.Tools) > 0 {
		if err := e.runToolRound(ctx, request, acc, span); err != nil {
			if wasCancelled(ctx, err) {
				e.markCancelled(span)
				return acc.text(), nil
			}
			if span != nil {
				span.RecordError(err)
			}
			return acc.text(), err
		}
	}

	if span != nil {
		span.AddEvent(observability.EventChatDone)
	}
	return acc.text(), nil
}

// Paint generates images when the underlying provider supports it.
func (e *Engine) Paint(ctx context.Context, prompt string, n int) ([]string, error) {
	painter, ok := e.provider.(ai.PaintProvider)
	if !ok {
		return nil, &ai.UnsupportedCapabilityError{Provider: e.provider.Name(), Capability: "paint"}
	}
	return painter.Paint(ctx, prompt, n)
}

// runToolRound executes the tool calls accumulated by the first streaming
// round and resubmits the conversation exactly once. Tool calls requested in
// the resubmission response are ignored.
func (e *Engine) runToolRound(ctx context.Context, request ai.ChatRequest, acc *accumulator, span observability.Span) error {
	calls := acc.takeToolCalls()
	if len(calls) == 0 {
		return nil
	}

	assistantTurn, toolTurns := e.executeToolCalls(ctx, calls, acc)
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(toolTurns) == 0 {
		// Every call failed to parse or execute; nothing to resubmit with.
		return nil
	}

	resubmit := request
	resubmit.Messages = make([]ai.Message, 0, len(request.Messages)+1+len(toolTurns))
	resubmit.Messages = append(resubmit.Messages, request.Messages...)
	resubmit.Messages = append(resubmit.Messages, assistantTurn)
	resubmit.Messages = append(resubmit.Messages, toolTurns...)

	if span != nil {
		span.AddEvent(observability.EventChatResubmit,
			observability.Int(observability.AttrToolsCount, len(toolTurns)))
	}

	if err := e.streamOnce(ctx, resubmit, acc); err != nil {
		return err
	}
	acc.takeToolCalls()
	return nil
}

// streamOnce issues one provider call and folds every event into acc.
// Adapters without streaming support fall back to a collected response
// replayed as a short stream.
func (e *Engine) streamOnce(ctx context.Context, request ai.ChatRequest, acc *accumulator) error {
	stream, err := e.openStream(ctx, request)
	if err != nil {
		return err
	}

	for event, eventErr := range stream.Iter() {
		if eventErr != nil {
			return eventErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		acc.apply(event)
	}
	return nil
}

func (e *Engine) openStream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	if streamer, ok := e.provider.(ai.StreamProvider); ok {
		return streamer.StreamMessage(ctx, request)
	}

	response, err := e.provider.SendMessage(ctx, request)
	if err != nil {
		return nil, err
	}
	return ai.NewSingleEventStream(response), nil
}

func (e *Engine) markCancelled(span observability.Span) {
	if span != nil {
		span.AddEvent(observability.EventChatCancelled)
	}
}

// wasCancelled reports whether err is the caller's cancellation, either
// directly or wrapped by the transport layer. Cancellation resolves the call
// instead of failing it.
func wasCancelled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}
