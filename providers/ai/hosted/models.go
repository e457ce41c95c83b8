package hosted

import (
	"encoding/json"

	"github.com/telmok/anychat/providers/ai"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
	Tools       []toolSpec    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Pictures   []string       `json:"pictures,omitempty"` // base64 data URLs
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
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

type toolSpec struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// streamFrame is one SSE data payload from the aggregator. Errors arrive
// in-band as frames carrying only the error field.
type streamFrame struct {
	Delta        *frameDelta `json:"delta,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *wireUsage  `json:"usage,omitempty"`
	Error        *wireError  `json:"error,omitempty"`
}

type frameDelta struct {
	Content   string          `json:"content,omitempty"`
	Reasoning string          `json:"reasoning_content,omitempty"`
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

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func requestToWire(request ai.ChatRequest) chatRequest {
	wireRequest := chatRequest{
		Model:  request.Model,
		Stream: true,
	}

	if config := request.GenerationConfig; config != nil {
		wireRequest.Temperature = config.Temperature
		wireRequest.TopP = config.TopP
		wireRequest.MaxTokens = config.MaxTokens
	}

	if request.SystemPrompt != "" {
		wireRequest.Messages = append(wireRequest.Messages, chatMessage{
			Role:    string(ai.RoleSystem),
			Content: request.SystemPrompt,
		})
	}

	for _, message := range request.Messages {
		wireMessage := chatMessage{
			Role:       string(message.Role),
			Content:    message.Content,
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
		for _, attachment := range message.Attachments {
			switch attachment.Kind {
			case ai.AttachmentImage:
				mime := attachment.MimeType
				if mime == "" {
					mime = "image/png"
				}
				wireMessage.Pictures = append(wireMessage.Pictures, "data:"+mime+";base64,"+attachment.Data)
			case ai.AttachmentFile:
				wireMessage.Content += "\n\n[file: " + attachment.Name + "]\n" + attachment.Data
			}
		}
		wireRequest.Messages = append(wireRequest.Messages, wireMessage)
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

	return wireRequest
}

func unmarshalStreamFrame(payload string) (*streamFrame, error) {
	var frame streamFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}
