// Package anychat assembles chat completion providers behind a single
// factory. Each provider kind maps to a self-contained adapter constructed
// from explicit configuration; nothing is read from the environment or any
// other ambient state.
package anychat

import (
	"fmt"
	"net/http"
	"time"

	"github.com/telmok/anychat/internal/utils"
	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/ai/azure"
	"github.com/telmok/anychat/providers/ai/hosted"
	"github.com/telmok/anychat/providers/ai/ollama"
	"github.com/telmok/anychat/providers/ai/openai"
)

// Kind identifies a provider family.
type Kind string

const (
	// KindOpenAI covers OpenAI and every OpenAI-compatible endpoint reachable
	// through a Host override.
	KindOpenAI Kind = "openai"
	// KindAzure is Azure OpenAI with its deployment-scoped URLs and api-key
	// header.
	KindAzure Kind = "azure"
	// KindOllama is a self-hosted Ollama server speaking NDJSON.
	KindOllama Kind = "ollama"
	// KindHosted is the built-in aggregator service authenticated by license
	// key.
	KindHosted Kind = "hosted"
)

// ProxyConfig mirrors the transport proxy settings for callers that must
// route provider traffic through an indirection endpoint.
type ProxyConfig struct {
	Endpoint string // proxy URL; requests to private hosts bypass it
	Platform string // client platform reported to the proxy
	Version  string // client version reported to the proxy
}

// ProviderConfig carries the union of per-kind settings. Only the fields
// relevant to the selected Kind are read.
type ProviderConfig struct {
	// APIKey authenticates openai and azure providers.
	APIKey string

	// Host overrides the provider origin: the API base URL for openai and
	// ollama, the resource endpoint for azure, the service origin for hosted.
	Host string

	// APIVersion applies to azure only.
	APIVersion string

	// LicenseKey and InstanceID authenticate the hosted provider.
	LicenseKey string
	InstanceID string

	// Proxy applies to kinds that support proxy indirection (openai, hosted).
	Proxy *ProxyConfig

	// Client is the HTTP client shared by the adapter; http.DefaultClient
	// when nil.
	Client *http.Client

	// AttemptTimeout bounds time-to-first-byte per transport attempt. Zero
	// disables the per-attempt deadline.
	AttemptTimeout time.Duration
}

// NewProvider constructs the adapter for kind. It is a pure mapping from
// configuration to adapter; no adapter knows about any other.
func NewProvider(kind Kind, cfg ProviderConfig) (ai.Provider, error) {
	switch kind {
	case KindOpenAI:
		return openai.New(openai.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.Host,
			Client:         cfg.Client,
			Proxy:          transportProxy(cfg.Proxy),
			AttemptTimeout: cfg.AttemptTimeout,
		}), nil

	case KindAzure:
		return azure.New(azure.Config{
			APIKey:         cfg.APIKey,
			Endpoint:       cfg.Host,
			APIVersion:     cfg.APIVersion,
			Client:         cfg.Client,
			AttemptTimeout: cfg.AttemptTimeout,
		}), nil

	case KindOllama:
		return ollama.New(ollama.Config{
			BaseURL:        cfg.Host,
			Client:         cfg.Client,
			AttemptTimeout: cfg.AttemptTimeout,
		}), nil

	case KindHosted:
		return hosted.New(hosted.Config{
			LicenseKey:     cfg.LicenseKey,
			InstanceID:     cfg.InstanceID,
			Origin:         cfg.Host,
			Client:         cfg.Client,
			Proxy:          transportProxy(cfg.Proxy),
			AttemptTimeout: cfg.AttemptTimeout,
		}), nil

	default:
		return nil, fmt.Errorf("anychat: unknown provider kind %q", kind)
	}
}

func transportProxy(proxy *ProxyConfig) *utils.ProxyConfig {
	if proxy == nil {
		return nil
	}
	return &utils.ProxyConfig{
		Endpoint: proxy.Endpoint,
		Platform: proxy.Platform,
		Version:  proxy.Version,
	}
}
