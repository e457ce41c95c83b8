// Package hosted implements the chat adapter for the vendor-hosted
// aggregator service, which fronts multiple upstream models behind one
// account. Authentication pairs the account license key with the client's
// installation identifier; the service reports a dedicated in-band code
// when the account's monthly quota is exhausted, which this adapter maps to
// ai.QuotaExhaustedError so callers can show an upgrade prompt rather than
// a generic failure.
//
// On platforms that cannot reach the origin directly the adapter reroutes
// requests through the configured proxy endpoint (see utils.ProxyConfig);
// the transport layer skips the proxy for private hosts automatically.
package hosted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
)

const (
	defaultOrigin = "https://api.anychat.app"
	chatEndpoint  = "/api/ai/chat"
)

// quotaExhaustedCode is the service's in-band error code for "monthly usage
// cap reached".
const quotaExhaustedCode = 10004

// Config holds the explicit settings for the aggregator account.
type Config struct {
	LicenseKey string
	InstanceID string // stable per-installation identifier
	Origin     string // service origin override; default https://api.anychat.app
	Client     *http.Client

	// Proxy reroutes requests for client platforms that must not call the
	// origin directly.
	Proxy *utils.ProxyConfig

	AttemptTimeout time.Duration
}

// Provider implements ai.Provider, ai.StreamProvider, ai.ToolCapable, and
// ai.VisionCapable against the aggregator service.
type Provider struct {
	config Config
	origin string
}

// New creates an aggregator adapter.
func New(cfg Config) *Provider {
	origin := strings.TrimRight(cfg.Origin, "/")
	if origin == "" {
		origin = defaultOrigin
	}
	return &Provider{config: cfg, origin: origin}
}

// Name implements ai.Provider.
func (p *Provider) Name() string {
	return "hosted"
}

// SupportsToolUse implements ai.ToolCapable.
func (p *Provider) SupportsToolUse() bool {
	return true
}

// SupportsVision implements ai.VisionCapable.
func (p *Provider) SupportsVision() bool {
	return true
}

// SendMessage implements ai.Provider by collecting a streaming call; the
// service only exposes the SSE shape.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	stream, err := p.StreamMessage(ctx, request)
	if err != nil {
		return nil, err
	}
	return stream.Collect()
}

func (p *Provider) requestOptions() utils.RequestOptions {
	return utils.RequestOptions{
		Headers: map[string]string{
			"Authorization": p.config.LicenseKey,
			"Instance-Id":   p.config.InstanceID,
		},
		Proxy:          p.config.Proxy,
		AttemptTimeout: p.config.AttemptTimeout,
		Provider:       p.Name(),
	}
}

// refineError upgrades transport-level APIErrors that carry the service's
// quota code into the dedicated QuotaExhaustedError.
func (p *Provider) refineError(err error) error {
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	var payload struct {
		Error *wireError `json:"error"`
	}
	if json.Unmarshal([]byte(apiErr.Payload), &payload) != nil || payload.Error == nil {
		return err
	}
	if payload.Error.Code == quotaExhaustedCode {
		return &ai.QuotaExhaustedError{Provider: p.Name()}
	}
	return err
}

func (p *Provider) checkLicense() error {
	if p.config.LicenseKey == "" {
		return fmt.Errorf("hosted: license key is not set")
	}
	return nil
}
