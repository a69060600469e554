package hook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/headonpro/contenthooks/internal/metrics"
)

func testExecutor(t *testing.T, mutate func(*Settings), onComplete CompletionFunc) (*Executor, *metrics.Recorder) {
	t.Helper()
	s := DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	rec := metrics.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExecutor(NewSettingsStore(s, nil), rec, logger, onComplete), rec
}

func testEvent(data map[string]any) *Event {
	return &Event{Params: EventParams{Data: data}}
}

func TestExecuteSuccess(t *testing.T) {
	exec, rec := testExecutor(t, nil, nil)

	res := exec.Execute(context.Background(), "team", BeforeCreate, testEvent(map[string]any{"name": "VfB"}),
		func(_ context.Context, ev *Event) (map[string]any, error) {
			return map[string]any{"normalized": true}, nil
		})

	if !res.Success || !res.CanProceed {
		t.Fatalf("success = %v, canProceed = %v, want both true", res.Success, res.CanProceed)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("errors = %d, warnings = %d, want empty", len(res.Errors), len(res.Warnings))
	}
	if res.ModifiedData["normalized"] != true {
		t.Errorf("modified data = %v", res.ModifiedData)
	}
	if res.Context.OperationID == "" {
		t.Error("operation id is empty")
	}

	stats, ok := rec.Snapshot("team.beforeCreate")
	if !ok {
		t.Fatal("no stats recorded for team.beforeCreate")
	}
	if stats.ExecutionCount != 1 || stats.TotalErrors != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestExecuteFailureGracefulDegradation(t *testing.T) {
	exec, rec := testExecutor(t, nil, nil)

	res := exec.Execute(context.Background(), "team", BeforeCreate, testEvent(nil),
		func(context.Context, *Event) (map[string]any, error) {
			return nil, fmt.Errorf("name is required")
		})

	if res.Success {
		t.Error("success = true for failed operation")
	}
	if !res.CanProceed {
		t.Error("canProceed = false with graceful degradation enabled")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}
	if res.Errors[0].Code != CodeValidation {
		t.Errorf("code = %s, want %s", res.Errors[0].Code, CodeValidation)
	}

	stats, _ := rec.Snapshot("team.beforeCreate")
	if stats.TotalErrors != 1 {
		t.Errorf("total errors = %d, want 1", stats.TotalErrors)
	}
}

func TestExecuteFailureStrictBlocks(t *testing.T) {
	exec, _ := testExecutor(t, func(s *Settings) {
		s.EnableGracefulDegradation = false
		s.EnableStrictValidation = true
	}, nil)

	res := exec.Execute(context.Background(), "team", BeforeCreate, testEvent(nil),
		func(context.Context, *Event) (map[string]any, error) {
			return nil, fmt.Errorf("name is required")
		})

	if res.CanProceed {
		t.Error("canProceed = true with graceful degradation disabled")
	}
	if res.Errors[0].Severity != SeverityCritical {
		t.Errorf("severity = %s, want critical under strict validation", res.Errors[0].Severity)
	}
}

func TestExecuteTimeout(t *testing.T) {
	exec, _ := testExecutor(t, func(s *Settings) {
		s.MaxHookExecutionTime = 20 * time.Millisecond
	}, nil)

	res := exec.Execute(context.Background(), "team", BeforeCreate, testEvent(nil),
		func(ctx context.Context, _ *Event) (map[string]any, error) {
			select {
			case <-time.After(5 * time.Second):
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})

	if res.Success {
		t.Error("success = true for timed-out operation")
	}
	if !res.CanProceed {
		t.Error("timeout must not block the event with graceful degradation on")
	}
	if res.Errors[0].Code != CodeTimeout {
		t.Errorf("code = %s, want %s", res.Errors[0].Code, CodeTimeout)
	}
}

func TestExecutePanicAbsorbed(t *testing.T) {
	exec, _ := testExecutor(t, nil, nil)

	res := exec.Execute(context.Background(), "team", BeforeCreate, testEvent(nil),
		func(context.Context, *Event) (map[string]any, error) {
			panic("hook went sideways")
		})

	if res.Success {
		t.Error("success = true for panicking operation")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}
}

func TestExecuteCompletionCallback(t *testing.T) {
	var gotCtx Context
	var gotRes Result
	calls := 0

	exec, _ := testExecutor(t, nil, func(hctx Context, res Result) {
		gotCtx = hctx
		gotRes = res
		calls++
	})

	exec.Execute(context.Background(), "season", BeforeUpdate, testEvent(nil),
		func(context.Context, *Event) (map[string]any, error) {
			return nil, nil
		})

	if calls != 1 {
		t.Fatalf("completion callback calls = %d, want 1", calls)
	}
	if gotCtx.Category != "season" || gotCtx.Kind != BeforeUpdate {
		t.Errorf("callback context = %+v", gotCtx)
	}
	if !gotRes.Success {
		t.Error("callback result not successful")
	}
}

func TestExecuteSettingsUpdateApplies(t *testing.T) {
	exec, _ := testExecutor(t, nil, nil)

	s := exec.Settings().Load()
	s.EnableGracefulDegradation = false
	if err := exec.Settings().Update(s); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	res := exec.Execute(context.Background(), "team", BeforeCreate, testEvent(nil),
		func(context.Context, *Event) (map[string]any, error) {
			return nil, fmt.Errorf("boom")
		})
	if res.CanProceed {
		t.Error("settings update did not reach subsequent execution")
	}
}
