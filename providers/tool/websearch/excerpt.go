package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/telmok/anychat/internal/utils"
)

const (
	searchUserAgent = "anychat-websearch/1.0"

	maxPageBytes    = 2 * 1024 * 1024
	maxExcerptRunes = 2000
)

// pageFetcher downloads a result page and converts it to a markdown excerpt.
type pageFetcher struct {
	client *http.Client
}

func newPageFetcher(client *http.Client) *pageFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &pageFetcher{client: client}
}

func (f *pageFetcher) excerpt(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching page: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("error reading page: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(string(htmlBytes))
	if err != nil {
		return "", fmt.Errorf("error converting HTML to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	runes := []rune(markdown)
	if len(runes) > maxExcerptRunes {
		markdown = string(runes[:maxExcerptRunes]) + "..."
	}
	return markdown, nil
}
