// Package rules implements the validation rule engine: dependency-ordered
// execution of registered rules against content payloads, with per-rule
// deadline budgets, critical/warning aggregation and result caching.
package rules

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/headonpro/contenthooks/internal/hook"
)

// Outcome is the product of one rule evaluation. It is never persisted
// beyond the enclosing validation result.
type Outcome struct {
	Passed     bool          `json:"passed"`
	Severity   hook.Severity `json:"severity"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// Pass returns a passing outcome.
func Pass() Outcome {
	return Outcome{Passed: true}
}

// Fail returns a failing outcome with the given message.
func Fail(format string, args ...any) Outcome {
	return Outcome{Passed: false, Message: fmt.Sprintf(format, args...)}
}

// Input is what one rule evaluation sees: the event payload, optional
// existing data for cross-record checks (nil on create), and the rule's
// current opaque configuration.
type Input struct {
	Payload  map[string]any
	Existing map[string]any
	Config   map[string]any
}

// EvaluateFunc is the contract business rules must satisfy. Evaluators must
// not share mutable state and must stay inert when abandoned after their
// deadline.
type EvaluateFunc func(ctx context.Context, in Input) (Outcome, error)

// Definition describes one registered validation rule. Identity (ID) is
// stable and drives dependency resolution; Enabled and Config may change at
// runtime, everything else is fixed at registration.
type Definition struct {
	ID        string
	Category  string
	Severity  hook.Severity
	Priority  int
	DependsOn []string
	Enabled   bool
	Evaluate  EvaluateFunc
	Config    map[string]any
}

// Validate checks the structural fields of a definition.
func (d Definition) Validate() error {
	if err := validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Category, validation.Required),
		validation.Field(&d.Severity, validation.Required, validation.In(hook.SeverityCritical, hook.SeverityWarning)),
	); err != nil {
		return err
	}
	if d.Evaluate == nil {
		return fmt.Errorf("rule %s: evaluate function is required", d.ID)
	}
	return nil
}
