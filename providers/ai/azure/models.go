package azure

import (
	"encoding/json"

	"github.com/telmok/anychat/providers/ai"
)

// Azure speaks the chat-completions dialect; deployment routing happens in
// the URL, so the body never carries a model field the way the OpenAI
// endpoint does. The field is still accepted and ignored, and sending it
// keeps request logging uniform.

type chatCompletionRequest struct {
	Model               string        `json:"model,omitempty"`
	Messages            []chatMessage `json:"messages"`
	Temperature         *float32      `json:"temperature,omitempty"`
	TopP                *float32      `json:"top_p,omitempty"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Stream              *bool         `json:"stream,omitempty"`
	Tools               []toolSpec    `json:"tools,omitempty"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content"` // string or []contentPart
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type wireToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatCompletionResponse struct {
	ID      string           `json:"id"`
	Model   string           `json:"model"`
	Choices []responseChoice `json:"choices"`
	Usage   *wireUsage       `json:"usage,omitempty"`
}

type responseChoice struct {
	Index        int             `json:"index"`
	Message      responseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type responseMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletionStreamChunk struct {
	ID      string        `json:"id"`
	Choices []chunkChoice `json:"choices"`
	Usage   *wireUsage    `json:"usage,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Content   *string         `json:"content,omitempty"`
	ToolCalls []toolCallChunk `json:"tool_calls,omitempty"`
}

type toolCallChunk struct {
	Index    int               `json:"index"`
	ID       string            `json:"id,omitempty"`
	Function chunkToolFunction `json:"function"`
}

type chunkToolFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// requestToWire maps the canonical request to the Azure wire shape.
// Reasoning-only deployments reject sampling parameters and use
// max_completion_tokens; requests for them are always synchronous.
func requestToWire(request ai.ChatRequest, stream bool) chatCompletionRequest {
	reasoning := isReasoningModel(request.Model)

	wireRequest := chatCompletionRequest{
		Model:    request.Model,
		Messages: messagesToWire(request),
	}

	if config := request.GenerationConfig; config != nil {
		if reasoning {
			wireRequest.MaxCompletionTokens = config.MaxTokens
		} else {
			wireRequest.Temperature = config.Temperature
			wireRequest.TopP = config.TopP
			wireRequest.MaxTokens = config.MaxTokens
		}
	}

	for _, tool := range request.Tools {
		wireRequest.Tools = append(wireRequest.Tools, toolSpec{
			Type: "function",
			Function: toolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	if stream && !reasoning {
		enabled := true
		wireRequest.Stream = &enabled
	}

	return wireRequest
}

func messagesToWire(request ai.ChatRequest) []chatMessage {
	messages := make([]chatMessage, 0, len(request.Messages)+1)

	if request.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}

	for _, message := range request.Messages {
		content := foldFileAttachments(message)
		wireMessage := chatMessage{
			Role:       string(message.Role),
			Content:    content,
			ToolCallID: message.ToolCallID,
			Name:       message.Name,
		}

		for _, call := range message.ToolCalls {
			wireMessage.ToolCalls = append(wireMessage.ToolCalls, wireToolCall{
				ID:   call.ID,
				Type: "function",
				Function: wireToolFunction{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			})
		}

		if parts := visionParts(message, content); parts != nil {
			wireMessage.Content = parts
		}

		messages = append(messages, wireMessage)
	}

	return messages
}

// foldFileAttachments appends plain-file attachment text to the message
// content, since the wire format has no file part type.
func foldFileAttachments(message ai.Message) string {
	content := message.Content
	for _, attachment := range message.Attachments {
		if attachment.Kind != ai.AttachmentFile {
			continue
		}
		content += "\n\n[file: " + attachment.Name + "]\n" + attachment.Data
	}
	return content
}

func visionParts(message ai.Message, content string) []contentPart {
	var parts []contentPart
	for _, attachment := range message.Attachments {
		if attachment.Kind != ai.AttachmentImage {
			continue
		}
		mime := attachment.MimeType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURLPart{URL: "data:" + mime + ";base64," + attachment.Data},
		})
	}
	if parts == nil {
		return nil
	}
	return append([]contentPart{{Type: "text", Text: content}}, parts...)
}

func responseToGeneric(response *chatCompletionResponse) *ai.ChatResponse {
	choice := response.Choices[0]

	generic := &ai.ChatResponse{
		Model:        response.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}

	for _, call := range choice.Message.ToolCalls {
		generic.ToolCalls = append(generic.ToolCalls, ai.ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}

	if response.Usage != nil {
		generic.Usage = &ai.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}

	return generic
}

func unmarshalStreamChunk(payload string) (*chatCompletionStreamChunk, error) {
	var chunk chatCompletionStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}
