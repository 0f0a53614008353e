// Package modeljson is the single normalization point for free-form model
// output that is supposed to carry a JSON object. Model responses routinely
// arrive wrapped in a markdown code fence; everything else about the payload
// is taken literally — there is no guessing of missing commas or quotes.
package modeljson

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
)

// StripCodeFence removes at most one layer of markdown code fencing from s.
// A fence opened with an optional language tag (```json, ```JSON, ```) and
// closed with a bare ``` is accepted; anything else is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	// Drop the language tag up to the first newline, if any.
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	} else {
		rest = strings.TrimLeft(rest, "`")
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// ExtractObject parses raw model text into a JSON object after stripping a
// fence wrapper. Parse failures and non-object payloads both wrap
// apperrors.ErrMalformedContract so callers can apply their own fallback
// policy with errors.Is.
func ExtractObject(raw string) (map[string]any, error) {
	text := StripCodeFence(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", apperrors.ErrMalformedContract)
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedContract, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", apperrors.ErrMalformedContract)
	}
	return obj, nil
}

// ExtractInto unmarshals the fenced-or-bare JSON object into out.
func ExtractInto(raw string, out any) error {
	text := StripCodeFence(raw)
	if !strings.HasPrefix(text, "{") {
		return fmt.Errorf("%w: top-level value is not an object", apperrors.ErrMalformedContract)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMalformedContract, err)
	}
	return nil
}
