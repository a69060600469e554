package rules

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/headonpro/contenthooks/internal/apperr"
	"github.com/headonpro/contenthooks/internal/hook"
)

// RuleResult is the recorded outcome of one rule within a validation run.
type RuleResult struct {
	RuleID     string        `json:"rule_id"`
	Passed     bool          `json:"passed"`
	Severity   hook.Severity `json:"severity"`
	Message    string        `json:"message,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	TimedOut   bool          `json:"timed_out,omitempty"`
}

// Result aggregates one validation run. Passed is false only when an enabled
// critical rule failed under strict validation.
type Result struct {
	Category  string       `json:"category"`
	Operation string       `json:"operation"`
	Passed    bool         `json:"passed"`
	Outcomes  []RuleResult `json:"outcomes"`
	ElapsedMs int64        `json:"elapsed_ms"`
	CacheKey  string       `json:"cache_key"`
}

// Warnings returns the non-passing outcomes that do not block.
func (r *Result) Warnings() []RuleResult {
	var out []RuleResult
	for _, o := range r.Outcomes {
		if !o.Passed && o.Severity != hook.SeverityCritical {
			out = append(out, o)
		}
	}
	return out
}

// CriticalFailures returns the failed critical outcomes.
func (r *Result) CriticalFailures() []RuleResult {
	var out []RuleResult
	for _, o := range r.Outcomes {
		if !o.Passed && o.Severity == hook.SeverityCritical {
			out = append(out, o)
		}
	}
	return out
}

// Engine executes the ordered rule set for a content category against an
// event payload. Ordering, isolation, caching and aggregation live here; the
// rule content itself is supplied by registered evaluators.
type Engine struct {
	registry *Registry
	settings *hook.SettingsStore
	cache    *resultCache
	group    singleflight.Group
	logger   *slog.Logger
}

// NewEngine creates an engine over registry with a bounded result cache.
// Registry mutations invalidate cached results for the affected category.
func NewEngine(registry *Registry, settings *hook.SettingsStore, logger *slog.Logger, cacheSize int, cacheTTL time.Duration) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		registry: registry,
		settings: settings,
		cache:    newResultCache(cacheSize, cacheTTL),
		logger:   logger,
	}
	registry.OnMutate(e.cache.invalidateCategory)
	return e
}

// Validate runs every enabled rule for category in dependency order and
// aggregates the outcomes. Identical requests within the cache TTL return
// the cached result without re-invoking any evaluator; concurrent identical
// misses share a single execution.
func (e *Engine) Validate(ctx context.Context, category, operation string, payload, existing map[string]any) (*Result, error) {
	key := Fingerprint(category, operation, payload, existing)
	if cached, ok := e.cache.get(key); ok {
		e.logger.Debug("validation cache hit", slog.String("key", key))
		return cached, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		res, runErr := e.run(ctx, category, operation, payload, existing, key)
		if runErr != nil {
			return nil, runErr
		}
		e.cache.add(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// PurgeCache drops all cached validation results.
func (e *Engine) PurgeCache() {
	e.cache.purge()
}

func (e *Engine) run(ctx context.Context, category, operation string, payload, existing map[string]any, key string) (*Result, error) {
	defs, err := e.registry.RulesFor(category)
	if err != nil {
		// Unreachable after registration-time graph checks, but a mutated
		// registry must never crash event handling.
		return nil, err
	}
	st := e.settings.Load()

	res := &Result{
		Category:  category,
		Operation: operation,
		Passed:    true,
		Outcomes:  make([]RuleResult, 0, len(defs)),
		CacheKey:  key,
	}

	start := time.Now()
	for _, def := range defs {
		rr := e.evaluateRule(ctx, def, st, payload, existing)
		res.Outcomes = append(res.Outcomes, rr)

		if !rr.Passed && rr.Severity == hook.SeverityCritical {
			// Remaining rules still run so every issue is surfaced.
			res.Passed = false
		}
	}
	res.ElapsedMs = time.Since(start).Milliseconds()

	e.logger.Debug("validation completed",
		slog.String("category", category),
		slog.String("operation", operation),
		slog.Bool("passed", res.Passed),
		slog.Int("rules", len(res.Outcomes)),
		slog.Int64("elapsed_ms", res.ElapsedMs))
	return res, nil
}

func (e *Engine) evaluateRule(ctx context.Context, def Definition, st hook.Settings, payload, existing map[string]any) RuleResult {
	ruleStart := time.Now()
	in := Input{Payload: payload, Existing: existing, Config: def.Config}
	outcome, err := hook.RunWithDeadline(ctx, st.RuleExecutionTime, func(ctx context.Context) (Outcome, error) {
		return def.Evaluate(ctx, in)
	})
	elapsed := time.Since(ruleStart)

	rr := RuleResult{
		RuleID:     def.ID,
		Severity:   def.Severity,
		DurationMs: elapsed.Milliseconds(),
	}
	switch {
	case err == nil:
		rr.Passed = outcome.Passed
		rr.Message = outcome.Message
		rr.Suggestion = outcome.Suggestion
		if outcome.Severity != "" {
			rr.Severity = outcome.Severity
		}
	case errorsIsTimeout(err):
		// A timed-out rule is a failed warning unless the rule itself is
		// critical.
		rr.Passed = false
		rr.TimedOut = true
		rr.Message = "rule evaluation timed out"
		if def.Severity != hook.SeverityCritical {
			rr.Severity = hook.SeverityWarning
		}
	default:
		rr.Passed = false
		rr.Message = err.Error()
	}

	// Without strict validation a critical failure degrades to a warning in
	// the aggregate; the hook boundary decides whether the event proceeds.
	if !rr.Passed && rr.Severity == hook.SeverityCritical && !st.EnableStrictValidation {
		rr.Severity = hook.SeverityWarning
	}

	e.registry.recordUse(def.ID, elapsed, rr.Passed)

	if !rr.Passed {
		e.logger.Debug("rule failed",
			slog.String("rule", def.ID),
			slog.String("severity", string(rr.Severity)),
			slog.Bool("timed_out", rr.TimedOut))
	}
	return rr
}

func errorsIsTimeout(err error) bool {
	return errors.Is(err, apperr.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
