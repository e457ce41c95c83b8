package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxStreamLineSize is the maximum size of a single stream line (1 MB).
// The default bufio.Scanner limit is 64 KiB, which is too small for large
// events such as tool-call arguments or long completions. A longer line
// surfaces as a wrapped bufio.ErrTooLong from Next().
const maxStreamLineSize = 1 * 1024 * 1024

// SSEScanner reads Server-Sent Events from an io.Reader. It handles
// multi-line data fields, skips comments and empty lines, and treats the
// [DONE] sentinel used by OpenAI-compatible APIs as a clean end of stream.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner creates an SSEScanner reading from reader.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineSize)
	return &SSEScanner{scanner: scanner}
}

// Next returns the next SSE data payload. Multi-line data fields (multiple
// consecutive "data:" lines) are joined with newlines into one payload.
// Returns io.EOF when the stream ends or the [DONE] sentinel arrives.
func (sseScanner *SSEScanner) Next() (string, error) {
	var dataLines []string

	for sseScanner.scanner.Scan() {
		line := sseScanner.scanner.Text()

		// Empty line signals end of an event; flush accumulated data lines.
		if line == "" {
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
			continue
		}

		// Skip SSE comments.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			if data == "[DONE]" {
				return "", io.EOF
			}

			dataLines = append(dataLines, data)
			continue
		}

		// Ignore other SSE fields (event:, id:, retry:).
	}

	if err := sseScanner.scanner.Err(); err != nil {
		return "", fmt.Errorf("SSE scanner error: %w", err)
	}

	if len(dataLines) > 0 {
		return strings.Join(dataLines, "\n"), nil
	}

	return "", io.EOF
}

// NDJSONScanner reads newline-delimited JSON from an io.Reader, one document
// per line, as produced by self-hosted model servers. Blank lines are
// skipped; each non-blank line is returned verbatim for the caller to parse.
type NDJSONScanner struct {
	scanner *bufio.Scanner
}

// NewNDJSONScanner creates an NDJSONScanner reading from reader.
func NewNDJSONScanner(reader io.Reader) *NDJSONScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineSize)
	return &NDJSONScanner{scanner: scanner}
}

// Next returns the next non-blank line. Returns io.EOF at end of stream.
func (ndjsonScanner *NDJSONScanner) Next() (string, error) {
	for ndjsonScanner.scanner.Scan() {
		line := strings.TrimSpace(ndjsonScanner.scanner.Text())
		if line == "" {
			continue
		}
		return line, nil
	}

	if err := ndjsonScanner.scanner.Err(); err != nil {
		return "", fmt.Errorf("NDJSON scanner error: %w", err)
	}

	return "", io.EOF
}
