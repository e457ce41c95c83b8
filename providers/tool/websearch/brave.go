package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/telmok/anychat/internal/utils"
)

// Brave searches via the Brave Search API. Requires an API key.
type Brave struct {
	APIKey  string
	BaseURL string // override for tests; default https://api.search.brave.com/res/v1
	Client  *http.Client
}

// NewBrave creates the Brave backend.
func NewBrave(apiKey string) *Brave {
	return &Brave{APIKey: apiKey}
}

// Name implements Engine.
func (b *Brave) Name() string {
	return "brave"
}

type braveResponse struct {
	Web *braveWebResults `json:"web"`
}

type braveWebResults struct {
	Results []braveWebResult `json:"results"`
}

type braveWebResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Search implements Engine.
func (b *Brave) Search(ctx context.Context, query string) ([]Result, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("brave: API key is not set")
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("count", strconv.Itoa(maxResults))

	baseURL := b.BaseURL
	if baseURL == "" {
		baseURL = "https://api.search.brave.com/res/v1"
	}
	fullURL := baseURL + "/web/search?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Subscription-Token", b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var brave braveResponse
	if err := json.Unmarshal(body, &brave); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	if brave.Web == nil {
		return nil, nil
	}

	results := make([]Result, 0, len(brave.Web.Results))
	for _, hit := range brave.Web.Results {
		results = append(results, Result{
			Title:   hit.Title,
			URL:     hit.URL,
			Snippet: hit.Description,
		})
	}
	return results, nil
}
