package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/telmok/anychat/providers/ai"
	"github.com/telmok/anychat/providers/observability"
)

const (
	// defaultRetryCount is the number of additional attempts after the first
	// failure, so a request is tried at most defaultRetryCount+1 times.
	defaultRetryCount = 3

	// retryBackoff is the fixed wait between attempts.
	retryBackoff = 500 * time.Millisecond
)

// maxResponseBodySize caps error-body reads (10 MB) so a rogue response
// cannot cause unbounded memory allocation.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// ProxyConfig describes the indirection endpoint used for providers that
// must not be called directly from certain client platforms. The original
// request URL travels in a header; the proxy forwards the body verbatim.
type ProxyConfig struct {
	Endpoint string // proxy URL that receives the rerouted request
	Platform string // client platform flag forwarded to the proxy
	Version  string // client version forwarded to the proxy
}

// RequestOptions tunes a single transport call. The zero value gives three
// retries with a fixed 500ms back-off, no proxy, and no per-attempt
// deadline.
type RequestOptions struct {
	// Headers are set on the outgoing request after the defaults, so they
	// can override Content-Type or Authorization.
	Headers map[string]string

	// RetryCount is the number of additional attempts after the first
	// failure. Negative disables retries entirely; zero means the default.
	RetryCount int

	// AttemptTimeout bounds the time to receive response headers on each
	// attempt. Zero disables the deadline.
	AttemptTimeout time.Duration

	// Proxy reroutes the request through an indirection endpoint. Loopback
	// and private-network hosts are never proxied.
	Proxy *ProxyConfig

	// Stream sets the Accept header for SSE and leaves the body open.
	Stream bool

	// Provider names the backend for APIError payloads.
	Provider string
}

func (opts RequestOptions) retries() int {
	if opts.RetryCount < 0 {
		return 0
	}
	if opts.RetryCount == 0 {
		return defaultRetryCount
	}
	return opts.RetryCount
}

// DoPost performs an HTTP POST with a JSON body, retrying failed attempts,
// and returns the response with the body left open. The caller owns the
// body. On a non-2xx response the body is consumed and the call fails with
// *ai.APIError; on transport failure after all retries it fails with
// *ai.NetworkError. No retry happens once ctx is cancelled; the
// cancellation is propagated immediately.
func DoPost(ctx context.Context, client *http.Client, requestURL string, body any, opts RequestOptions) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}
	return doRequest(ctx, client, http.MethodPost, requestURL, jsonBody, opts)
}

// DoGet performs an HTTP GET with the same retry and proxy semantics as
// DoPost.
func DoGet(ctx context.Context, client *http.Client, requestURL string, opts RequestOptions) (*http.Response, error) {
	return doRequest(ctx, client, http.MethodGet, requestURL, nil, opts)
}

// DoPostSync performs a POST and decodes the full JSON response body into
// OutputStruct. It closes the body before returning.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, requestURL string, body any, opts RequestOptions) (*OutputStruct, error) {
	response, err := DoPost(ctx, client, requestURL, body, opts)
	if err != nil {
		return nil, err
	}
	defer CloseWithLog(response.Body)

	respBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s",
			response.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return &resStruct, nil
}

func doRequest(ctx context.Context, client *http.Client, method, requestURL string, jsonBody []byte, opts RequestOptions) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	targetURL, proxied := applyProxy(requestURL, opts)

	if span != nil {
		span.AddEvent(observability.EventHTTPRequestPrepared,
			observability.String(observability.AttrHTTPMethod, method),
			observability.String(observability.AttrHTTPURL, requestURL),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
			observability.Bool(observability.AttrHTTPProxied, proxied),
		)
	}

	retries := opts.retries()
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			// Cancellation must win over the back-off and suppress further
			// attempts.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
			if span != nil {
				span.AddEvent(observability.EventHTTPRequestRetry,
					observability.Int(observability.AttrHTTPAttempt, attempt),
				)
			}
		}

		response, err := doAttempt(ctx, httpClient, method, targetURL, requestURL, jsonBody, opts)
		if err == nil {
			if span != nil {
				span.AddEvent(observability.EventHTTPResponse,
					observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
					observability.Int(observability.AttrHTTPAttempt, attempt),
				)
			}
			return response, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			// The failure is (or is shadowed by) a cancellation; never retry.
			return nil, ctx.Err()
		}

		if span != nil {
			span.AddEvent(observability.EventHTTPRequestError,
				observability.Error(err),
				observability.String(observability.AttrHTTPHost, HostOf(requestURL)),
				observability.Int(observability.AttrHTTPAttempt, attempt),
			)
		}
	}

	return nil, lastErr
}

// doAttempt performs one request attempt and maps failures onto the typed
// error taxonomy. originURL (not the proxy endpoint) names the host in
// NetworkError so user-facing diagnostics point at the real provider.
func doAttempt(ctx context.Context, client *http.Client, method, targetURL, originURL string, jsonBody []byte, opts RequestOptions) (*http.Response, error) {
	attemptCtx := ctx
	cancel := context.CancelFunc(nil)
	if opts.AttemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, opts.AttemptTimeout)
	}

	var bodyReader io.Reader
	if jsonBody != nil {
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, targetURL, bodyReader)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if proxy := opts.Proxy; proxy != nil && targetURL != originURL {
		req.Header.Set("X-Target-URI", originURL)
		req.Header.Set("X-Platform", proxy.Platform)
		req.Header.Set("X-Client-Version", proxy.Version)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	response, err := client.Do(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, &ai.NetworkError{Host: HostOf(originURL), Err: err}
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		if cancel != nil {
			cancel()
		}
		defer CloseWithLog(response.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		if readErr != nil {
			return nil, &ai.APIError{
				Provider:   opts.Provider,
				StatusCode: response.StatusCode,
				Payload:    fmt.Sprintf("(failed to read body: %v)", readErr),
			}
		}
		return nil, &ai.APIError{
			Provider:   opts.Provider,
			StatusCode: response.StatusCode,
			Payload:    string(errorBody),
		}
	}

	if cancel != nil {
		// The per-attempt deadline only guards the time to headers. Hand
		// cancel to the body so the derived context stays alive while the
		// caller streams, and is released on Close.
		response.Body = &cancelOnClose{ReadCloser: response.Body, cancel: cancel}
	}

	return response, nil
}

// cancelOnClose releases a per-attempt context when the response body is
// closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// applyProxy decides whether the request should be rerouted through the
// proxy endpoint. Local and private-network hosts are never proxied even
// when a proxy is configured.
func applyProxy(requestURL string, opts RequestOptions) (string, bool) {
	if opts.Proxy == nil || opts.Proxy.Endpoint == "" {
		return requestURL, false
	}
	if IsPrivateHost(HostOf(requestURL)) {
		return requestURL, false
	}
	return opts.Proxy.Endpoint, true
}

// HostOf extracts the hostname from a URL, falling back to the raw string
// when it does not parse.
func HostOf(requestURL string) string {
	parsed, err := url.Parse(requestURL)
	if err != nil || parsed.Hostname() == "" {
		return requestURL
	}
	return parsed.Hostname()
}

// CloseWithLog closes body and logs a failure instead of returning it, so
// deferred closes never override a primary error.
func CloseWithLog(body io.Closer) {
	if err := body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}
