package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com"
	chatCompletionsEndpoint = "/chat/completions"
	imagesEndpoint          = "/images/generations"
)

// modelAliases maps retired or misspelled model identifiers, still present
// in old saved settings, onto their current equivalents.
var modelAliases = map[string]string{
	"gpt-35-turbo":         "gpt-3.5-turbo",
	"gpt-3.5-turbo-0301":   "gpt-3.5-turbo",
	"gpt-3.5-turbo-0613":   "gpt-3.5-turbo",
	"gpt-4-32k-0314":       "gpt-4-32k",
	"gpt-4-0314":           "gpt-4",
	"gpt-4-vision-preview": "gpt-4-turbo",
	"gpt-4-1106-preview":   "gpt-4-turbo",
}

// Config holds everything the adapter needs to reach an OpenAI-compatible
// endpoint. All values are explicit; the adapter never reads environment
// variables or other ambient state.
type Config struct {
	APIKey  string
	BaseURL string       // host override; default https://api.openai.com
	Client  *http.Client // optional; http.DefaultClient when nil

	// Proxy reroutes requests through an indirection endpoint for platforms
	// that cannot call the provider directly.
	Proxy *utils.ProxyConfig

	// AttemptTimeout bounds time-to-first-byte per transport attempt.
	AttemptTimeout time.Duration
}

// Provider implements ai.Provider, ai.StreamProvider, ai.ToolCapable,
// ai.VisionCapable, and ai.PaintProvider for OpenAI-compatible endpoints.
type Provider struct {
	config  Config
	baseURL string
}

// New creates an adapter from cfg, normalizing the base URL (scheme,
// trailing slash, implicit /v1 path).
func New(cfg Config) *Provider {
	return &Provider{
		config:  cfg,
		baseURL: normalizeBaseURL(cfg.BaseURL),
	}
}

// Name implements ai.Provider.
func (p *Provider) Name() string {
	return "openai"
}

// SupportsToolUse implements ai.ToolCapable. All chat-completions dialects
// in scope accept the tools array.
func (p *Provider) SupportsToolUse() bool {
	return true
}

// SupportsVision implements ai.VisionCapable at the adapter level; whether a
// given request can carry images also depends on the model (see
// isVisionModel).
func (p *Provider) SupportsVision() bool {
	return true
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is not set")
	}

	wireRequest := requestToWire(request, false)

	response, err := utils.DoPostSync[chatCompletionResponse](ctx, p.config.Client, p.baseURL+chatCompletionsEndpoint, wireRequest, p.requestOptions())
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, &ai.APIError{Provider: p.Name(), Payload: "no choices in response"}
	}

	return responseToGeneric(response), nil
}

// Paint implements ai.PaintProvider via the images endpoint. Generated
// images come back as base64 data URLs.
func (p *Provider) Paint(ctx context.Context, prompt string, n int) ([]string, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is not set")
	}
	if n <= 0 {
		n = 1
	}

	request := imageGenerationRequest{
		Prompt:         prompt,
		N:              n,
		Model:          "dall-e-3",
		ResponseFormat: "b64_json",
	}

	response, err := utils.DoPostSync[imageGenerationResponse](ctx, p.config.Client, p.baseURL+imagesEndpoint, request, p.requestOptions())
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(response.Data))
	for _, item := range response.Data {
		images = append(images, "data:image/png;base64,"+item.B64JSON)
	}
	return images, nil
}

func (p *Provider) requestOptions() utils.RequestOptions {
	return utils.RequestOptions{
		Headers: map[string]string{
			"Authorization": "Bearer " + p.config.APIKey,
		},
		Proxy:          p.config.Proxy,
		AttemptTimeout: p.config.AttemptTimeout,
		Provider:       p.Name(),
	}
}

// normalizeBaseURL trims trailing slashes and appends the /v1 path segment
// when the host was given bare, so both "https://api.example.com" and
// "https://api.example.com/v1" work as overrides.
func normalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}

// resolveModel applies the legacy-identifier alias table.
func resolveModel(model string) string {
	if alias, ok := modelAliases[model]; ok {
		return alias
	}
	return model
}
