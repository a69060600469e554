package rules

import (
	"fmt"
	"time"

	"github.com/headonpro/contenthooks/internal/apperr"
)

// Typed payload accessors. Content payloads arrive as decoded JSON maps;
// rules read fields through these helpers so absent or mistyped fields fail
// with a named error kind instead of silently defaulting.

// StringField returns the named field as a string.
func StringField(payload map[string]any, name string) (string, error) {
	v, ok := payload[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%s: %w", name, apperr.ErrMissingField)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T: %w", name, v, apperr.ErrMalformedField)
	}
	return s, nil
}

// NumberField returns the named field as a float64. JSON numbers decode to
// float64; integer values stored by callers are widened.
func NumberField(payload map[string]any, name string) (float64, error) {
	v, ok := payload[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s: %w", name, apperr.ErrMissingField)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%s: expected number, got %T: %w", name, v, apperr.ErrMalformedField)
}

// DateField returns the named field parsed as an ISO-8601 date or datetime.
func DateField(payload map[string]any, name string) (time.Time, error) {
	s, err := StringField(payload, name)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, parseErr := time.Parse(layout, s); parseErr == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %q is not a date: %w", name, s, apperr.ErrMalformedField)
}

// ListField returns the named field as a slice of payload maps.
func ListField(payload map[string]any, name string) ([]map[string]any, error) {
	v, ok := payload[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("%s: %w", name, apperr.ErrMissingField)
	}
	switch list := v.(type) {
	case []map[string]any:
		return list, nil
	case []any:
		out := make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: expected object, got %T: %w", name, i, item, apperr.ErrMalformedField)
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: expected list, got %T: %w", name, v, apperr.ErrMalformedField)
}
