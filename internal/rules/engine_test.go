package rules

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/headonpro/contenthooks/internal/hook"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T, mutate func(*hook.Settings)) (*Engine, *Registry) {
	t.Helper()
	s := hook.DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	reg := NewRegistry()
	eng := NewEngine(reg, hook.NewSettingsStore(s, nil), silentLogger(), 64, time.Minute)
	return eng, reg
}

func TestValidateAggregatesOutcomes(t *testing.T) {
	eng, reg := testEngine(t, nil)
	mustRegister(t, reg,
		def("pass-1", "team", 10),
		Definition{
			ID: "fail-1", Category: "team", Severity: hook.SeverityWarning, Priority: 20, Enabled: true,
			Evaluate: func(context.Context, Input) (Outcome, error) {
				return Fail("name too short"), nil
			},
		})

	res, err := eng.Validate(context.Background(), "team", "create", map[string]any{"name": "x"}, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Passed {
		t.Error("warning failure must not fail the run")
	}
	if len(res.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(res.Outcomes))
	}
	if w := res.Warnings(); len(w) != 1 || w[0].RuleID != "fail-1" {
		t.Errorf("warnings = %v", w)
	}
}

func TestValidateStrictCriticalFailure(t *testing.T) {
	eng, reg := testEngine(t, func(s *hook.Settings) { s.EnableStrictValidation = true })

	ran := []string{}
	record := func(id string, out Outcome) Definition {
		return Definition{
			ID: id, Category: "team", Severity: hook.SeverityCritical, Priority: len(ran), Enabled: true,
			Evaluate: func(context.Context, Input) (Outcome, error) {
				ran = append(ran, id)
				return out, nil
			},
		}
	}
	mustRegister(t, reg,
		record("crit-fail", Outcome{Passed: false, Message: "bad"}),
		record("crit-pass", Pass()))

	res, err := eng.Validate(context.Background(), "team", "create", map[string]any{"name": "x"}, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Passed {
		t.Error("critical failure under strict validation must fail the run")
	}
	// All rules still run after a critical failure.
	if len(ran) != 2 {
		t.Errorf("rules run = %v, want both", ran)
	}
	if cf := res.CriticalFailures(); len(cf) != 1 || cf[0].RuleID != "crit-fail" {
		t.Errorf("critical failures = %v", cf)
	}
}

func TestValidateNonStrictDowngradesCritical(t *testing.T) {
	eng, reg := testEngine(t, nil)
	mustRegister(t, reg, Definition{
		ID: "crit", Category: "team", Severity: hook.SeverityCritical, Priority: 10, Enabled: true,
		Evaluate: func(context.Context, Input) (Outcome, error) {
			return Fail("bad"), nil
		},
	})

	res, err := eng.Validate(context.Background(), "team", "create", map[string]any{"name": "x"}, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Passed {
		t.Error("critical failure without strict validation must not fail the run")
	}
	if w := res.Warnings(); len(w) != 1 {
		t.Errorf("downgraded failure not surfaced as warning: %v", res.Outcomes)
	}
}

func TestValidateRuleTimeout(t *testing.T) {
	eng, reg := testEngine(t, func(s *hook.Settings) {
		s.RuleExecutionTime = 20 * time.Millisecond
	})
	mustRegister(t, reg, Definition{
		ID: "slow", Category: "team", Severity: hook.SeverityWarning, Priority: 10, Enabled: true,
		Evaluate: func(ctx context.Context, _ Input) (Outcome, error) {
			select {
			case <-time.After(5 * time.Second):
				return Pass(), nil
			case <-ctx.Done():
				return Outcome{}, ctx.Err()
			}
		},
	})

	res, err := eng.Validate(context.Background(), "team", "create", map[string]any{"name": "x"}, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(res.Outcomes) != 1 {
		t.Fatalf("outcomes = %d", len(res.Outcomes))
	}
	o := res.Outcomes[0]
	if o.Passed || !o.TimedOut {
		t.Errorf("outcome = %+v, want failed and timed out", o)
	}
	if o.Severity != hook.SeverityWarning {
		t.Errorf("severity = %s, want warning for timed-out warning rule", o.Severity)
	}
	if !res.Passed {
		t.Error("timed-out warning rule failed the run")
	}
}

func TestValidateRuleErrorFails(t *testing.T) {
	eng, reg := testEngine(t, nil)
	mustRegister(t, reg, Definition{
		ID: "broken", Category: "team", Severity: hook.SeverityWarning, Priority: 10, Enabled: true,
		Evaluate: func(context.Context, Input) (Outcome, error) {
			panic("evaluator blew up")
		},
	})

	res, err := eng.Validate(context.Background(), "team", "create", map[string]any{"name": "x"}, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Outcomes[0].Passed {
		t.Error("panicking rule reported as passed")
	}
}

func TestValidateCacheHit(t *testing.T) {
	eng, reg := testEngine(t, nil)

	var calls atomic.Int64
	mustRegister(t, reg, Definition{
		ID: "counted", Category: "team", Severity: hook.SeverityWarning, Priority: 10, Enabled: true,
		Evaluate: func(context.Context, Input) (Outcome, error) {
			calls.Add(1)
			return Pass(), nil
		},
	})

	payload := map[string]any{"name": "VfB"}
	if _, err := eng.Validate(context.Background(), "team", "create", payload, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Validate(context.Background(), "team", "create", payload, nil); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("evaluator calls = %d, want 1 (second request served from cache)", got)
	}

	// A different payload misses the cache.
	if _, err := eng.Validate(context.Background(), "team", "create", map[string]any{"name": "other"}, nil); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("evaluator calls = %d, want 2", got)
	}
}

func TestRegistryMutationInvalidatesCache(t *testing.T) {
	eng, reg := testEngine(t, nil)

	var calls atomic.Int64
	mustRegister(t, reg, Definition{
		ID: "counted", Category: "team", Severity: hook.SeverityWarning, Priority: 10, Enabled: true,
		Evaluate: func(context.Context, Input) (Outcome, error) {
			calls.Add(1)
			return Pass(), nil
		},
	})

	payload := map[string]any{"name": "VfB"}
	if _, err := eng.Validate(context.Background(), "team", "create", payload, nil); err != nil {
		t.Fatal(err)
	}

	// Toggling any team rule drops cached team results.
	if err := reg.SetEnabled("counted", true); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Validate(context.Background(), "team", "create", payload, nil); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("evaluator calls = %d, want 2 after invalidation", got)
	}
}

func TestPurgeCache(t *testing.T) {
	eng, reg := testEngine(t, nil)

	var calls atomic.Int64
	mustRegister(t, reg, Definition{
		ID: "counted", Category: "team", Severity: hook.SeverityWarning, Priority: 10, Enabled: true,
		Evaluate: func(context.Context, Input) (Outcome, error) {
			calls.Add(1)
			return Pass(), nil
		},
	})

	payload := map[string]any{"name": "VfB"}
	if _, err := eng.Validate(context.Background(), "team", "create", payload, nil); err != nil {
		t.Fatal(err)
	}
	eng.PurgeCache()
	if _, err := eng.Validate(context.Background(), "team", "create", payload, nil); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("evaluator calls = %d, want 2 after purge", got)
	}
}

func TestValidateRecordsRuleUsage(t *testing.T) {
	eng, reg := testEngine(t, nil)
	mustRegister(t, reg, Definition{
		ID: "fails", Category: "team", Severity: hook.SeverityWarning, Priority: 10, Enabled: true,
		Evaluate: func(context.Context, Input) (Outcome, error) {
			return Fail("nope"), nil
		},
	})

	if _, err := eng.Validate(context.Background(), "team", "create", map[string]any{"name": "x"}, nil); err != nil {
		t.Fatal(err)
	}

	stats := reg.Stats()
	if len(stats) != 1 {
		t.Fatalf("stats = %d", len(stats))
	}
	if stats[0].Evaluations != 1 || stats[0].Failures != 1 {
		t.Errorf("usage = %+v, want 1 evaluation and 1 failure", stats[0])
	}
	if stats[0].LastUsed.IsZero() {
		t.Error("last used not set")
	}
}

func TestFingerprintStability(t *testing.T) {
	payload := map[string]any{"b": 2, "a": 1}
	same := map[string]any{"a": 1, "b": 2}

	k1 := Fingerprint("team", "create", payload, nil)
	k2 := Fingerprint("team", "create", same, nil)
	if k1 != k2 {
		t.Error("identical content produced different keys")
	}

	if Fingerprint("team", "update", payload, nil) == k1 {
		t.Error("operation not part of the key")
	}
	if Fingerprint("player", "create", payload, nil) == k1 {
		t.Error("category not part of the key")
	}
	if Fingerprint("team", "create", payload, map[string]any{"x": 1}) == k1 {
		t.Error("existing data not part of the key")
	}
}
