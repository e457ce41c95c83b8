// Package azure implements the chat adapter for Azure-hosted OpenAI
// deployments. Azure routes by deployment name rather than model name,
// authenticates with an api-key header, and serves reasoning-only models
// (o1/o3 family) without streaming: those requests return a single JSON
// body that the adapter wraps as a one-shot stream.
package azure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
)

const defaultAPIVersion = "2024-05-01-preview"

// Config holds the explicit settings for one Azure OpenAI deployment.
type Config struct {
	APIKey     string
	Endpoint   string // resource endpoint, e.g. https://myresource.openai.azure.com
	APIVersion string // default 2024-05-01-preview
	Client     *http.Client

	AttemptTimeout time.Duration
}

// Provider implements ai.Provider, ai.StreamProvider, ai.ToolCapable, and
// ai.VisionCapable for Azure OpenAI.
type Provider struct {
	config   Config
	endpoint string
}

// New creates an Azure adapter, normalizing the endpoint so that pasted
// full URLs (including a /openai/deployments/... path) still work.
func New(cfg Config) *Provider {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	return &Provider{
		config:   cfg,
		endpoint: normalizeEndpoint(cfg.Endpoint),
	}
}

// Name implements ai.Provider.
func (p *Provider) Name() string {
	return "azure"
}

// SupportsToolUse implements ai.ToolCapable.
func (p *Provider) SupportsToolUse() bool {
	return true
}

// SupportsVision implements ai.VisionCapable.
func (p *Provider) SupportsVision() bool {
	return true
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("azure: API key is not set")
	}

	wireRequest := requestToWire(request, false)

	response, err := utils.DoPostSync[chatCompletionResponse](ctx, p.config.Client, p.completionsURL(request.Model), wireRequest, p.requestOptions())
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, &ai.APIError{Provider: p.Name(), Payload: "no choices in response"}
	}

	return responseToGeneric(response), nil
}

// completionsURL builds the deployment-scoped chat completions URL.
func (p *Provider) completionsURL(model string) string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		p.endpoint, deploymentName(model), url.QueryEscape(p.config.APIVersion))
}

func (p *Provider) requestOptions() utils.RequestOptions {
	return utils.RequestOptions{
		Headers: map[string]string{
			"api-key": p.config.APIKey,
		},
		AttemptTimeout: p.config.AttemptTimeout,
		Provider:       p.Name(),
	}
}

// deploymentName derives the deployment identifier from a model name.
// Azure deployment names cannot contain dots, so saved model identifiers
// like "gpt-3.5-turbo" map to the "gpt-35-turbo" deployment.
func deploymentName(model string) string {
	return strings.ReplaceAll(model, ".", "")
}

// isReasoningModel reports whether the model only supports the synchronous
// completions shape (no streaming, no sampling parameters).
func isReasoningModel(model string) bool {
	model = strings.ToLower(model)
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if model == prefix || strings.HasPrefix(model, prefix+"-") {
			return true
		}
	}
	return false
}

// normalizeEndpoint reduces whatever the user pasted to the resource
// origin: scheme + host, no path, no trailing slash.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Scheme + "://" + parsed.Host
	}
	return strings.TrimRight(endpoint, "/")
}
