package ollama

import (
	"encoding/json"

	"github.com/telmok/anychat/providers/ai"
)

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64, no data-URL prefix
}

// chatLine is one NDJSON line of a streaming response, and also the entire
// body of a non-streaming response.
type chatLine struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

func (line *chatLine) usage() *ai.Usage {
	if line.PromptEvalCount == 0 && line.EvalCount == 0 {
		return nil
	}
	return &ai.Usage{
		PromptTokens:     line.PromptEvalCount,
		CompletionTokens: line.EvalCount,
		TotalTokens:      line.PromptEvalCount + line.EvalCount,
	}
}

func requestToWire(request ai.ChatRequest, stream bool) chatRequest {
	wireRequest := chatRequest{
		Model:  request.Model,
		Stream: stream,
	}

	if request.SystemPrompt != "" {
		wireRequest.Messages = append(wireRequest.Messages, chatMessage{
			Role:    string(ai.RoleSystem),
			Content: request.SystemPrompt,
		})
	}

	for _, message := range request.Messages {
		wireMessage := chatMessage{
			Role:    string(message.Role),
			Content: message.Content,
		}
		for _, attachment := range message.Attachments {
			switch attachment.Kind {
			case ai.AttachmentImage:
				wireMessage.Images = append(wireMessage.Images, attachment.Data)
			case ai.AttachmentFile:
				wireMessage.Content += "\n\n[file: " + attachment.Name + "]\n" + attachment.Data
			}
		}
		// Ollama has no tool role; fold tool output into a user turn.
		if message.Role == ai.RoleTool {
			wireMessage.Role = string(ai.RoleUser)
		}
		wireRequest.Messages = append(wireRequest.Messages, wireMessage)
	}

	if config := request.GenerationConfig; config != nil {
		options := map[string]any{}
		if config.Temperature != nil {
			options["temperature"] = *config.Temperature
		}
		if config.TopP != nil {
			options["top_p"] = *config.TopP
		}
		if config.MaxTokens > 0 {
			options["num_predict"] = config.MaxTokens
		}
		if len(options) > 0 {
			wireRequest.Options = options
		}
	}

	return wireRequest
}

func unmarshalChatLine(payload string) (*chatLine, error) {
	var line chatLine
	if err := json.Unmarshal([]byte(payload), &line); err != nil {
		return nil, err
	}
	return &line, nil
}
