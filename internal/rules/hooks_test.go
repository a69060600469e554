package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/headonpro/contenthooks/internal/apperr"
	"github.com/headonpro/contenthooks/internal/hook"
)

func TestValidationHooksPassingAttachesResult(t *testing.T) {
	eng, reg := testEngine(t, nil)
	mustRegister(t, reg, def("ok", "team", 10))

	hooks := ValidationHooks(eng, "team")
	ev := &hook.Event{Params: hook.EventParams{Data: map[string]any{"name": "VfB"}}}

	data, err := hooks.BeforeCreate(context.Background(), ev)
	if err != nil {
		t.Fatalf("before create: %v", err)
	}
	res, ok := data[ValidationDataKey].(*Result)
	if !ok {
		t.Fatalf("validation result missing from modified data: %v", data)
	}
	if !res.Passed || res.Operation != "create" {
		t.Errorf("result = %+v", res)
	}
}

func TestValidationHooksFailingReturnsError(t *testing.T) {
	eng, reg := testEngine(t, func(s *hook.Settings) { s.EnableStrictValidation = true })
	mustRegister(t, reg, Definition{
		ID: "must-fail", Category: "team", Severity: hook.SeverityCritical, Priority: 10, Enabled: true,
		Evaluate: func(context.Context, Input) (Outcome, error) {
			return Fail("name is required"), nil
		},
	})

	hooks := ValidationHooks(eng, "team")
	ev := &hook.Event{Params: hook.EventParams{Data: map[string]any{}}}

	_, err := hooks.BeforeCreate(context.Background(), ev)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestValidationHooksUpdateUsesExistingData(t *testing.T) {
	eng, reg := testEngine(t, nil)

	var sawExisting map[string]any
	mustRegister(t, reg, Definition{
		ID: "spy", Category: "team", Severity: hook.SeverityWarning, Priority: 10, Enabled: true,
		Evaluate: func(_ context.Context, in Input) (Outcome, error) {
			sawExisting = in.Existing
			return Pass(), nil
		},
	})

	hooks := ValidationHooks(eng, "team")
	ev := &hook.Event{
		Params: hook.EventParams{Data: map[string]any{"name": "VfB"}},
		Result: map[string]any{"id": 7},
	}
	if _, err := hooks.BeforeUpdate(context.Background(), ev); err != nil {
		t.Fatalf("before update: %v", err)
	}
	if sawExisting == nil || sawExisting["id"] != 7 {
		t.Errorf("existing data = %v, want event result", sawExisting)
	}
}

func TestValidationHooksNilEvent(t *testing.T) {
	eng, _ := testEngine(t, nil)
	hooks := ValidationHooks(eng, "team")
	if _, err := hooks.BeforeCreate(context.Background(), nil); err == nil {
		t.Error("nil event accepted")
	}
}

func TestValidationHooksOnlyBeforeWrites(t *testing.T) {
	eng, _ := testEngine(t, nil)
	hooks := ValidationHooks(eng, "team")
	if hooks.AfterCreate != nil || hooks.AfterUpdate != nil || hooks.BeforeDelete != nil || hooks.AfterDelete != nil {
		t.Error("validation hooks must only cover before-create and before-update")
	}
}
