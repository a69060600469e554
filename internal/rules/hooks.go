package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/headonpro/contenthooks/internal/apperr"
	"github.com/headonpro/contenthooks/internal/hook"
)

// ValidationDataKey is where validation hooks stash the engine result inside
// a hook result's modified data, so callers can surface warnings from a
// passing run.
const ValidationDataKey = "validation"

// ValidationHooks builds the hook set that routes before-create and
// before-update events for category through the engine. A non-passing
// validation surfaces as a failed operation so the execution core can apply
// its degradation policy; a passing one attaches the engine result under
// ValidationDataKey.
func ValidationHooks(e *Engine, category string) hook.CategoryHooks {
	validate := func(operation string) hook.Operation {
		return func(ctx context.Context, ev *hook.Event) (map[string]any, error) {
			if ev == nil {
				return nil, fmt.Errorf("%s.%s: nil event", category, operation)
			}
			res, err := e.Validate(ctx, category, operation, ev.Params.Data, ev.Result)
			if err != nil {
				return nil, err
			}
			if !res.Passed {
				var msgs []string
				for _, f := range res.CriticalFailures() {
					msgs = append(msgs, f.RuleID+": "+f.Message)
				}
				return nil, fmt.Errorf("%s: %w", strings.Join(msgs, "; "), apperr.ErrValidation)
			}
			return map[string]any{ValidationDataKey: res}, nil
		}
	}
	return hook.CategoryHooks{
		BeforeCreate: validate("create"),
		BeforeUpdate: validate("update"),
	}
}
