package ai

import "encoding/json"

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a single chat completion request, already
// normalized and provider-agnostic. Adapters translate it to their wire
// format; they must never mutate the Messages slice.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // Conversation, excluding the system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`             // Tool definitions advertised to the model
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional sampling configuration
}

// ToolDescription advertises a callable tool to the model. Parameters is an
// OpenAI-style JSON schema object.
type ToolDescription struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool/function output
)

// Message represents a single message in a conversation.
type Message struct {
	// Core fields (always present)
	Role    MessageRole `json:"role"`
	Content string      `json:"content"` // Empty string is the canonical "no content" value

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being answered
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that produced this message

	// Attachments carried by user messages (inline images for vision-capable
	// providers, plain-text files folded into content by adapters that lack
	// multimodal input).
	Attachments []Attachment `json:"attachments,omitempty"`
}

// AttachmentKind distinguishes image attachments from plain files.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is an image or file attached to a user message. Image data is
// base64-encoded without the data-URL prefix; adapters add whatever framing
// their wire format needs.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	Name     string         `json:"name,omitempty"`
	MimeType string         `json:"mime_type,omitempty"`
	Data     string         `json:"data"` // base64 for images, raw text for files
}

// HasContent reports whether the message carries anything worth sending:
// non-blank text, attachments, or tool calls.
func (m Message) HasContent() bool {
	return trimmed(m.Content) != "" || len(m.Attachments) > 0 || len(m.ToolCalls) > 0
}

// GenerationConfig carries optional sampling parameters. Zero values mean
// "provider default" and are omitted from the wire request.
type GenerationConfig struct {
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"` // Sampling temperature [0..2]
	TopP        *float32 `json:"top_p,omitempty"`       // Nucleus sampling [0..1]
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage holds token accounting reported by the provider, when available.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents a completed (non-streaming or fully collected)
// chat response.
type ChatResponse struct {
	Model        string     `json:"model,omitempty"`
	Content      string     `json:"content"`
	Reasoning    string     `json:"reasoning,omitempty"` // Chain-of-thought content for reasoning models
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// ToolCall represents a function/tool invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // always "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its raw JSON argument string.
// Arguments accumulate as text fragments during streaming and are only
// parsed once the call is known complete.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
