// Package parse provides lenient JSON parsing for model-produced text.
// Models routinely emit almost-JSON (single quotes, trailing commas, bare
// keys, prose around the object); this package repairs what it can and
// extracts embedded objects from unconstrained text.
package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseJSON unmarshals content into T. If strict unmarshaling fails, the
// content is run through jsonrepair and parsing is retried once. Used for
// streamed tool-call arguments, which arrive as raw text fragments and are
// only parsed when the call is complete.
func ParseJSON[T any](content string) (T, error) {
	var result T

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	if err = json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}

	return result, nil
}

// ExtractJSONObject pulls the first top-level {...} block out of
// unconstrained model text. It is inherently best-effort: the caller must
// treat "no object found" as a non-fatal outcome.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}
			continue
		}

		switch char {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	// Unbalanced braces; hand back the tail and let jsonrepair try.
	return text[start:], true
}
