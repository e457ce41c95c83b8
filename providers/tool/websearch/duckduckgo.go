package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/telmok/anychat/internal/utils"
)

// DuckDuckGo searches via the free DuckDuckGo Instant Answer API. It needs
// no API key, which makes it the default backend.
type DuckDuckGo struct {
	BaseURL string // override for tests; default https://api.duckduckgo.com
	Client  *http.Client
}

// NewDuckDuckGo creates the DuckDuckGo backend.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{}
}

// Name implements Engine.
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"` // nested category groups
}

// Search implements Engine.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("no_html", "1")
	params.Add("skip_disambig", "1")

	baseURL := d.BaseURL
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	fullURL := baseURL + "/?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", searchUserAgent)

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var ddg ddgResponse
	if err := json.Unmarshal(body, &ddg); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	return ddgToResults(&ddg), nil
}

func ddgToResults(ddg *ddgResponse) []Result {
	var results []Result

	if ddg.AbstractText != "" {
		results = append(results, Result{
			Title:   ddg.Heading,
			URL:     ddg.AbstractURL,
			Snippet: ddg.AbstractText,
		})
	}

	var appendTopics func(topics []ddgTopic)
	appendTopics = func(topics []ddgTopic) {
		for _, topic := range topics {
			if len(topic.Topics) > 0 {
				appendTopics(topic.Topics)
				continue
			}
			if topic.Text == "" || topic.FirstURL == "" {
				continue
			}
			results = append(results, Result{
				Title:   topicTitle(topic.Text),
				URL:     topic.FirstURL,
				Snippet: topic.Text,
			})
		}
	}
	appendTopics(ddg.RelatedTopics)

	return results
}

// topicTitle takes the leading phrase of a related-topic text as its title.
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	return text
}
