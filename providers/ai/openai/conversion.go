package openai

import (
	"strings"

	"github.com/telmok/anychat/providers/ai"
)

// requestToWire maps the canonical request onto the chat-completions wire
// format. The system prompt becomes a leading system message; image
// attachments turn the content into multimodal parts; file attachments are
// folded into the text since the dialect has no file part type.
func requestToWire(request ai.ChatRequest, stream bool) chatCompletionRequest {
	wireRequest := chatCompletionRequest{
		Model:    resolveModel(request.Model),
		Messages: messagesToWire(request),
	}

	if config := request.GenerationConfig; config != nil {
		wireRequest.Temperature = config.Temperature
		wireRequest.TopP = config.TopP
		wireRequest.MaxTokens = config.MaxTokens
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

	if stream {
		enabled := true
		wireRequest.Stream = &enabled
		wireRequest.StreamOptions = &streamOptions{IncludeUsage: true}
	}

	return wireRequest
}

func messagesToWire(request ai.ChatRequest) []chatMessage {
	messages := make([]chatMessage, 0, len(request.Messages)+1)

	if request.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}

	for _, message := range request.Messages {
		messages = append(messages, messageToWire(message))
	}

	return messages
}

func messageToWire(message ai.Message) chatMessage {
	wireMessage := chatMessage{
		Role:       string(message.Role),
		Content:    foldFileAttachments(message),
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

	if images := imageAttachments(message); len(images) > 0 {
		parts := []contentPart{{Type: "text", Text: wireMessage.Content.(string)}}
		for _, image := range images {
			mime := image.MimeType
			if mime == "" {
				mime = "image/png"
			}
			parts = append(parts, contentPart{
				Type:     "image_url",
				ImageURL: &imageURLPart{URL: "data:" + mime + ";base64," + image.Data},
			})
		}
		wireMessage.Content = parts
	}

	return wireMessage
}

// foldFileAttachments appends plain-file attachment text to the message
// content, since the wire format has no file part type.
func foldFileAttachments(message ai.Message) string {
	content := message.Content
	for _, attachment := range message.Attachments {
		if attachment.Kind != ai.AttachmentFile {
			continue
		}
		var section strings.Builder
		section.WriteString("\n\n[file: ")
		section.WriteString(attachment.Name)
		section.WriteString("]\n")
		section.WriteString(attachment.Data)
		content += section.String()
	}
	return content
}

func imageAttachments(message ai.Message) []ai.Attachment {
	var images []ai.Attachment
	for _, attachment := range message.Attachments {
		if attachment.Kind == ai.AttachmentImage {
			images = append(images, attachment)
		}
	}
	return images
}

func responseToGeneric(response *chatCompletionResponse) *ai.ChatResponse {
	choice := response.Choices[0]

	generic := &ai.ChatResponse{
		Model:        response.Model,
		Content:      choice.Message.Content,
		Reasoning:    choice.Message.ReasoningContent,
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
