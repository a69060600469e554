package hook

import (
	"context"
	"fmt"
	"testing"

	"github.com/headonpro/contenthooks/internal/apperr"
)

func TestClassifyCodes(t *testing.T) {
	hctx := NewContext("team", BeforeCreate, nil)

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"timeout sentinel", fmt.Errorf("deadline: %w", apperr.ErrTimeout), CodeTimeout},
		{"context deadline", context.DeadlineExceeded, CodeTimeout},
		{"overlap", fmt.Errorf("season: %w", apperr.ErrOverlap), CodeOverlap},
		{"duplicate", fmt.Errorf("team: %w", apperr.ErrDuplicate), CodeDuplicate},
		{"validation sentinel", fmt.Errorf("name: %w", apperr.ErrValidation), CodeValidation},
		{"missing field", fmt.Errorf("name: %w", apperr.ErrMissingField), CodeValidation},
		{"message pattern", fmt.Errorf("field name is required"), CodeValidation},
		{"unknown", fmt.Errorf("disk on fire"), CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Classify(tt.err, hctx, false)
			if rec.Code != tt.code {
				t.Errorf("code = %s, want %s", rec.Code, tt.code)
			}
			if rec.Severity != SeverityWarning {
				t.Errorf("severity = %s, want warning without strict mode", rec.Severity)
			}
			if rec.Message == "" {
				t.Error("message is empty")
			}
		})
	}
}

func TestClassifyStrictEscalation(t *testing.T) {
	hctx := NewContext("team", BeforeCreate, nil)

	rec := Classify(fmt.Errorf("name: %w", apperr.ErrValidation), hctx, true)
	if rec.Severity != SeverityCritical {
		t.Errorf("strict validation severity = %s, want critical", rec.Severity)
	}

	// Timeouts stay warnings even under strict validation.
	rec = Classify(fmt.Errorf("slow: %w", apperr.ErrTimeout), hctx, true)
	if rec.Severity != SeverityWarning {
		t.Errorf("strict timeout severity = %s, want warning", rec.Severity)
	}

	rec = Classify(fmt.Errorf("disk on fire"), hctx, true)
	if rec.Severity != SeverityWarning {
		t.Errorf("strict unknown severity = %s, want warning", rec.Severity)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	hctx := NewContext("team", BeforeCreate, nil)
	err := fmt.Errorf("name: %w", apperr.ErrValidation)

	a := Classify(err, hctx, true)
	b := Classify(err, hctx, true)
	if a.Code != b.Code || a.Severity != b.Severity || a.Message != b.Message {
		t.Errorf("classification not deterministic: %+v vs %+v", a, b)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{fmt.Errorf("op: %w", apperr.ErrTimeout), true},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("connection refused"), true},
		{fmt.Errorf("database is busy"), true},
		{fmt.Errorf("name: %w", apperr.ErrValidation), false},
		{fmt.Errorf("disk on fire"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
