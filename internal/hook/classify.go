package hook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/headonpro/contenthooks/internal/apperr"
)

// Classify maps a failure raised inside a hook execution into a typed,
// severity-tagged error record. It is a pure function: same failure and
// context produce the same classification.
//
// Every code defaults to warning severity; validation-originated failures
// escalate to critical only when strict validation is enabled. Timeouts stay
// warnings so a slow rule alone never blocks a write.
func Classify(err error, hctx Context, strict bool) ErrorRecord {
	rec := ErrorRecord{
		Severity:  SeverityWarning,
		Code:      CodeUnknown,
		Message:   err.Error(),
		Context:   hctx,
		Timestamp: time.Now(),
	}

	switch {
	case errors.Is(err, apperr.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		rec.Code = CodeTimeout
	case errors.Is(err, apperr.ErrOverlap):
		rec.Code = CodeOverlap
	case errors.Is(err, apperr.ErrDuplicate):
		rec.Code = CodeDuplicate
	case isValidationFailure(err):
		rec.Code = CodeValidation
	}

	if strict && isValidationCode(rec.Code) {
		rec.Severity = SeverityCritical
	}
	return rec
}

func isValidationCode(code string) bool {
	switch code {
	case CodeValidation, CodeOverlap, CodeDuplicate:
		return true
	}
	return false
}

func isValidationFailure(err error) bool {
	if errors.Is(err, apperr.ErrValidation) ||
		errors.Is(err, apperr.ErrMissingField) ||
		errors.Is(err, apperr.ErrMalformedField) {
		return true
	}
	// Message pattern fallback for failures raised by third-party validators.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"validation", "required", "invalid", "must be"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// IsTransient reports whether a failure is worth retrying. Only the explicit
// retry decorator consults this; the execution core never retries on its own.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperr.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "temporary", "unavailable", "busy"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
