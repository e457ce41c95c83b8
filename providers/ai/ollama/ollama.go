// Package ollama implements the chat adapter for self-hosted Ollama
// servers. The wire format is newline-delimited JSON over POST /api/chat
// with no authentication; a done flag in the final line terminates the
// stream. Ollama hosts are local by convention and are therefore never
// proxied.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
)

const (
	defaultBaseURL = "http://127.0.0.1:11434"
	chatEndpoint   = "/api/chat"
)

// Config holds the explicit settings for an Ollama host.
type Config struct {
	BaseURL string // default http://127.0.0.1:11434
	Client  *http.Client

	AttemptTimeout time.Duration
}

// Provider implements ai.Provider, ai.StreamProvider, and ai.VisionCapable.
// Tool use is deliberately not implemented: locally served models are
// handled through the engine's prompt-engineered fallback instead.
type Provider struct {
	config  Config
	baseURL string
}

// New creates an Ollama adapter.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{config: cfg, baseURL: baseURL}
}

// Name implements ai.Provider.
func (p *Provider) Name() string {
	return "ollama"
}

// SupportsVision implements ai.VisionCapable; multimodal models accept
// base64 images in the messages.
func (p *Provider) SupportsVision() bool {
	return true
}

// SendMessage implements ai.Provider using a non-streaming request.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	wireRequest := requestToWire(request, false)

	response, err := utils.DoPostSync[chatLine](ctx, p.config.Client, p.baseURL+chatEndpoint, wireRequest, p.requestOptions())
	if err != nil {
		return nil, err
	}

	return &ai.ChatResponse{
		Model:        response.Model,
		Content:      response.Message.Content,
		FinishReason: response.DoneReason,
		Usage:        response.usage(),
	}, nil
}

func (p *Provider) requestOptions() utils.RequestOptions {
	return utils.RequestOptions{
		AttemptTimeout: p.config.AttemptTimeout,
		Provider:       p.Name(),
	}
}
