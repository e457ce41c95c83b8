package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/telmok/anychat/core/parse"
	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
	"github.com/telmok/anychat/providers/tool/websearch"
)

// executeToolCalls runs the tool calls requested by the model and shapes the
// follow-up conversation turns: the assistant message carrying the calls,
// then one tool message per successful execution. A call whose arguments
// cannot be parsed or whose execution fails is skipped; the remaining calls
// still run.
func (e *Engine) executeToolCalls(ctx context.Context, calls []ai.ToolCall, acc *accumulator) (ai.Message, []ai.Message) {
	observer := observability.ObserverFromContext(ctx)
	span := observability.SpanFromContext(ctx)

	assistantTurn := ai.Message{Role: ai.RoleAssistant, ToolCalls: calls}
	var toolTurns []ai.Message

	for _, call := range calls {
		registered, exists := e.tools.Get(call.Function.Name)
		if !exists {
			continue
		}

		if span != nil {
			span.AddEvent(observability.EventToolCallStart,
				observability.String(observability.AttrToolName, call.Function.Name),
				observability.String(observability.AttrToolInput, call.Function.Arguments),
			)
		}

		output, err := registered.Call(ctx, call.Function.Arguments)
		if err != nil {
			if ctx.Err() != nil {
				return assistantTurn, toolTurns
			}
			if observer != nil {
				observer.Warn(ctx, "tool call skipped",
					observability.String(observability.AttrToolName, call.Function.Name),
					observability.String(observability.AttrToolError, err.Error()),
				)
			}
			continue
		}
		if span != nil {
			span.AddEvent(observability.EventToolCallEnd,
				observability.String(observability.AttrToolName, call.Function.Name))
		}

		if call.Function.Name == websearch.ToolName {
			e.recordBrowsing(output, acc)
		}

		toolTurns = append(toolTurns, ai.Message{
			Role:       ai.RoleTool,
			Content:    output,
			ToolCallID: call.ID,
			Name:       call.Function.Name,
		})
	}

	return assistantTurn, toolTurns
}

// recordBrowsing surfaces the search the model just performed through the
// delta channel, so the caller can render the query and links alongside the
// streaming answer.
func (e *Engine) recordBrowsing(toolOutput string, acc *accumulator) {
	var output websearch.Output
	if err := json.Unmarshal([]byte(toolOutput), &output); err != nil {
		return
	}

	browsing := &WebBrowsing{Query: output.Query}
	for _, result := range output.Results {
		browsing.Links = append(browsing.Links, Link{Title: result.Title, URL: result.URL})
	}
	acc.setBrowsing(browsing)
}

const searchDecisionSystemPrompt = `You decide whether answering the user's latest message requires a web search for current information.

Respond with ONLY a JSON object, no other text:
{"action": "search", "query": "<search query>"} if a web search would help, or
{"action": "proceed"} if you can answer from your own knowledge.`

type searchDecision struct {
	Action string `json:"action"`
	Query  string `json:"query"`
}

// applySearchFallback is the browsing path for providers without native tool
// calling. It asks the model, via a separate structured-output call, whether
// a search is needed; on "search" it runs the query and folds the results
// into the request's system prompt. Every failure mode degrades to answering
// without a search.
func (e *Engine) applySearchFallback(ctx context.Context, request *ai.ChatRequest, acc *accumulator) {
	observer := observability.ObserverFromContext(ctx)
	span := observability.SpanFromContext(ctx)

	decision, ok := e.decideSearch(ctx, *request)
	if span != nil {
		span.AddEvent(observability.EventSearchDecision,
			observability.Bool("search.requested", ok && decision.Action == "search"))
	}
	if !ok || decision.Action != "search" || strings.TrimSpace(decision.Query) == "" {
		return
	}

	output, err := e.search.Run(ctx, decision.Query)
	if err != nil {
		if observer != nil && ctx.Err() == nil {
			observer.Warn(ctx, "search fallback failed", observability.Error(err))
		}
		return
	}

	browsing := &WebBrowsing{Query: output.Query}
	for _, result := range output.Results {
		browsing.Links = append(browsing.Links, Link{Title: result.Title, URL: result.URL})
	}
	acc.setBrowsing(browsing)

	request.SystemPrompt = foldSearchResults(request.SystemPrompt, output)
}

// decideSearch issues the pre-flight decision call and extracts the JSON
// verdict from the unconstrained response text.
func (e *Engine) decideSearch(ctx context.Context, request ai.ChatRequest) (searchDecision, bool) {
	var decision searchDecision

	conversation := make([]ai.Message, 0, len(request.Messages))
	conversation = append(conversation, request.Messages...)

	response, err := e.provider.SendMessage(ctx, ai.ChatRequest{
		Model:        request.Model,
		Messages:     conversation,
		SystemPrompt: searchDecisionSystemPrompt,
	})
	if err != nil {
		return decision, false
	}

	raw, found := parse.ExtractJSONObject(response.Content)
	if !found {
		return decision, false
	}

	decision, err = parse.ParseJSON[searchDecision](raw)
	if err != nil {
		return decision, false
	}
	return decision, true
}

// foldSearchResults rewrites the system prompt so the real generation call
// carries the search results as grounding context.
func foldSearchResults(systemPrompt string, output *websearch.Output) string {
	var section strings.Builder
	section.WriteString("Web search results for the query ")
	fmt.Fprintf(&section, "%q", output.Query)
	section.WriteString(":\n\n")

	for index, result := range output.Results {
		fmt.Fprintf(&section, "%d. %s\n%s\n", index+1, result.Title, result.URL)
		if result.Snippet != "" {
			section.WriteString(result.Snippet)
			section.WriteString("\n")
		}
		if result.Excerpt != "" {
			section.WriteString(result.Excerpt)
			section.WriteString("\n")
		}
		section.WriteString("\n")
	}

	section.WriteString("Use these results to ground your answer and cite the relevant links.")

	if strings.TrimSpace(systemPrompt) == "" {
		return section.String()
	}
	return systemPrompt + "\n\n" + section.String()
}
