package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/telmok/anychat/providers/ai"
)

func writeSSE(writer http.ResponseWriter, data string) {
	fmt.Fprintf(writer, "data: %s\n\n", data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://myres.openai.azure.com", "https://myres.openai.azure.com"},
		{"https://myres.openai.azure.com/", "https://myres.openai.azure.com"},
		{"https://myres.openai.azure.com/openai/deployments/gpt-4/chat/completions?api-version=x", "https://myres.openai.azure.com"},
		{"myres.openai.azure.com", "https://myres.openai.azure.com"},
		{"", ""},
	}
	for _, test := range tests {
		if got := normalizeEndpoint(test.in); got != test.want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestDeploymentName(t *testing.T) {
	if got := deploymentName("gpt-3.5-turbo"); got != "gpt-35-turbo" {
		t.Errorf("expected dots stripped, got %q", got)
	}
	if got := deploymentName("gpt-4o"); got != "gpt-4o" {
		t.Errorf("expected unchanged name, got %q", got)
	}
}

func TestIsReasoningModel(t *testing.T) {
	for _, model := range []string{"o1", "o1-mini", "o3-mini", "O1-Preview", "o4-mini"} {
		if !isReasoningModel(model) {
			t.Errorf("expected %q to be a reasoning model", model)
		}
	}
	for _, model := range []string{"gpt-4o", "gpt-4o-mini", "omni", "o12x"} {
		if isReasoningModel(model) {
			t.Errorf("expected %q not to be a reasoning model", model)
		}
	}
}

// TestStreamMessage_DeploymentRoutingAndAuth verifies the deployment-scoped
// URL, the api-version query, and the api-key header.
func TestStreamMessage_DeploymentRoutingAndAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/openai/deployments/gpt-35-turbo/chat/completions" {
			t.Errorf("unexpected path %q", request.URL.Path)
		}
		if got := request.URL.Query().Get("api-version"); got != "2024-05-01-preview" {
			t.Errorf("unexpected api-version %q", got)
		}
		if got := request.Header.Get("api-key"); got != "azure-key" {
			t.Errorf("expected api-key header, got %q", got)
		}
		if request.Header.Get("Authorization") != "" {
			t.Error("Authorization header must not be set for Azure")
		}

		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)
		writeSSE(writer, `{"id":"a1","choices":[{"index":0,"delta":{"content":"ok"},"finish_reason":null}]}`)
		writeSSE(writer, `{"id":"a1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`)
		fmt.Fprintf(writer, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := New(Config{APIKey: "azure-key", Endpoint: server.URL})

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("StreamMessage returned error: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if response.Content != "ok" {
		t.Errorf("expected content 'ok', got %q", response.Content)
	}
}

// TestStreamMessage_ReasoningModelSingleJSON verifies that reasoning-only
// deployments are served synchronously: no stream flag, no temperature,
// max_completion_tokens instead of max_tokens, and the completed response
// wrapped as a one-shot stream.
func TestStreamMessage_ReasoningModelSingleJSON(t *testing.T) {
	temperature := float32(0.7)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var wireRequest map[string]any
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if _, hasStream := wireRequest["stream"]; hasStream {
			t.Error("reasoning requests must not set stream")
		}
		if _, hasTemperature := wireRequest["temperature"]; hasTemperature {
			t.Error("reasoning requests must not carry temperature")
		}
		if _, hasMaxTokens := wireRequest["max_tokens"]; hasMaxTokens {
			t.Error("reasoning requests must use max_completion_tokens")
		}
		if got, _ := wireRequest["max_completion_tokens"].(float64); got != 2048 {
			t.Errorf("expected max_completion_tokens 2048, got %v", got)
		}

		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"id":"a2","model":"o1-mini","choices":[{"index":0,"message":{"role":"assistant","content":"thought through"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "azure-key", Endpoint: server.URL})

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{
		Model:    "o1-mini",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
		GenerationConfig: &ai.GenerationConfig{
			MaxTokens:   2048,
			Temperature: &temperature,
		},
	})
	if err != nil {
		t.Fatalf("StreamMessage returned error: %v", err)
	}

	var contents []string
	var finishReason string
	for event, eventErr := range stream.Iter() {
		if eventErr != nil {
			t.Fatalf("unexpected stream error: %v", eventErr)
		}
		if event.Type == ai.StreamEventContent {
			contents = append(contents, event.Content)
		}
		if event.Type == ai.StreamEventDone {
			finishReason = event.FinishReason
		}
	}

	if len(contents) != 1 || contents[0] != "thought through" {
		t.Errorf("expected single content event, got %v", contents)
	}
	if finishReason != "stop" {
		t.Errorf("expected finish reason 'stop', got %q", finishReason)
	}
}

// TestSendMessage_SystemPromptLeads verifies the system prompt becomes the
// first wire message.
func TestSendMessage_SystemPromptLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var wireRequest struct {
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if len(wireRequest.Messages) != 2 || wireRequest.Messages[0].Role != "system" {
			t.Errorf("expected leading system message, got %+v", wireRequest.Messages)
		}

		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"id":"a3","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "azure-key", Endpoint: server.URL})

	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:        "gpt-4o",
		SystemPrompt: "be terse",
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if response.Content != "hello" {
		t.Errorf("expected content 'hello', got %q", response.Content)
	}
}

// TestMessagesToWire_AttachmentFolding verifies file attachments fold into
// the content string and stay visible in the text part when images push the
// message into multimodal form.
func TestMessagesToWire_AttachmentFolding(t *testing.T) {
	messages := messagesToWire(ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "summarize", Attachments: []ai.Attachment{
				{Kind: ai.AttachmentFile, Name: "notes.txt", Data: "some notes"},
			}},
			{Role: ai.RoleUser, Content: "compare", Attachments: []ai.Attachment{
				{Kind: ai.AttachmentFile, Name: "report.txt", Data: "figures"},
				{Kind: ai.AttachmentImage, MimeType: "image/jpeg", Data: "QUJD"},
			}},
		},
	})
	if len(messages) != 2 {
		t.Fatalf("expected 2 wire messages, got %d", len(messages))
	}

	want := "summarize\n\n[file: notes.txt]\nsome notes"
	if messages[0].Content != want {
		t.Errorf("file-only message content = %q, want %q", messages[0].Content, want)
	}

	parts, ok := messages[1].Content.([]contentPart)
	if !ok {
		t.Fatalf("expected multimodal parts, got %T", messages[1].Content)
	}
	if len(parts) != 2 || parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	wantText := "compare\n\n[file: report.txt]\nfigures"
	if parts[0].Text != wantText {
		t.Errorf("text part = %q, want %q", parts[0].Text, wantText)
	}
	if parts[1].ImageURL == nil || parts[1].ImageURL.URL != "data:image/jpeg;base64,QUJD" {
		t.Errorf("unexpected image part: %+v", parts[1])
	}
}
