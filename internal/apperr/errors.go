// Package apperr defines the sentinel errors shared across the hook pipeline.
package apperr

import "errors"

var (
	// ErrTimeout is returned by the timeout guard when an operation misses
	// its deadline. The operation itself keeps running; only the wait ends.
	ErrTimeout = errors.New("operation timed out")

	// ErrRuleCycle marks a cyclic rule dependency graph.
	ErrRuleCycle = errors.New("rule dependency cycle")

	// ErrUnknownRule marks a dependency on a rule id that is not registered.
	ErrUnknownRule = errors.New("unknown rule dependency")

	// ErrRuleNotFound is returned when a rule id is not registered.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrMissingField is returned by payload accessors for absent fields.
	ErrMissingField = errors.New("missing field")

	// ErrMalformedField is returned by payload accessors when a field has
	// an unexpected type.
	ErrMalformedField = errors.New("malformed field")

	// ErrOverlap marks a date/range overlap business failure.
	ErrOverlap = errors.New("overlapping records")

	// ErrDuplicate marks a duplicate-record business failure.
	ErrDuplicate = errors.New("duplicate record")

	// ErrValidation marks a generic validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for lookups of records that do not exist.
	ErrNotFound = errors.New("not found")
)
