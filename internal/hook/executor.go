package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/headonpro/contenthooks/internal/metrics"
)

// CompletionFunc is notified after each execution, outside the hot path
// decision making. Audit and monitoring sinks attach here.
type CompletionFunc func(Context, Result)

// Executor wraps caller-supplied operations with the timeout guard, error
// classifier and metrics recorder. Failures never escape as raised errors;
// every invocation produces exactly one Result.
type Executor struct {
	settings   *SettingsStore
	recorder   *metrics.Recorder
	logger     *slog.Logger
	onComplete CompletionFunc
}

// NewExecutor creates an execution core. onComplete may be nil.
func NewExecutor(settings *SettingsStore, recorder *metrics.Recorder, logger *slog.Logger, onComplete CompletionFunc) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		settings:   settings,
		recorder:   recorder,
		logger:     logger,
		onComplete: onComplete,
	}
}

// Settings returns the runtime settings store backing this executor.
func (e *Executor) Settings() *SettingsStore {
	return e.settings
}

// Execute runs op around the lifecycle event described by category/kind.
// On success the result carries the operation's modified data; on any
// failure (including timeout) the failure is classified into a single
// error record and the graceful degradation switch decides whether the
// surrounding event may proceed.
func (e *Executor) Execute(ctx context.Context, category string, kind Kind, ev *Event, op Operation) Result {
	hctx := NewContext(category, kind, ev)
	st := e.settings.Load()
	opName := hctx.OperationName()

	e.logger.Debug("hook start",
		slog.String("operation", opName),
		slog.String("operation_id", hctx.OperationID))

	start := time.Now()
	data, err := RunWithDeadline(ctx, st.MaxHookExecutionTime, func(c context.Context) (map[string]any, error) {
		return op(c, ev)
	})
	elapsed := time.Since(start)

	var res Result
	if err == nil {
		e.recorder.Record(opName, elapsed, true)
		res = Result{
			Context:         hctx,
			Success:         true,
			CanProceed:      true,
			Errors:          []ErrorRecord{},
			Warnings:        []ErrorRecord{},
			ExecutionTimeMs: elapsed.Milliseconds(),
			ModifiedData:    data,
		}
		e.logger.Debug("hook completed",
			slog.String("operation", opName),
			slog.String("operation_id", hctx.OperationID),
			slog.Int64("duration_ms", res.ExecutionTimeMs))
	} else {
		e.recorder.Record(opName, elapsed, false)
		rec := Classify(err, hctx, st.EnableStrictValidation)
		res = Result{
			Context:         hctx,
			Success:         false,
			CanProceed:      st.EnableGracefulDegradation,
			Errors:          []ErrorRecord{rec},
			Warnings:        []ErrorRecord{},
			ExecutionTimeMs: elapsed.Milliseconds(),
		}
		level := slog.LevelWarn
		if !res.CanProceed {
			level = slog.LevelError
		}
		e.logger.Log(ctx, level, "hook failed",
			slog.String("operation", opName),
			slog.String("operation_id", hctx.OperationID),
			slog.String("code", rec.Code),
			slog.String("severity", string(rec.Severity)),
			slog.Bool("can_proceed", res.CanProceed),
			slog.Int64("duration_ms", res.ExecutionTimeMs),
			slog.String("error", err.Error()))
	}

	if e.onComplete != nil {
		e.onComplete(hctx, res)
	}
	return res
}
