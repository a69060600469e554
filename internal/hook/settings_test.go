package hook

import (
	"log/slog"
	"testing"
	"time"
)

func TestDefaultSettingsValid(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestSettingsValidateRejectsZeroTimeouts(t *testing.T) {
	s := DefaultSettings()
	s.MaxHookExecutionTime = 0
	if err := s.Validate(); err == nil {
		t.Error("zero hook timeout accepted")
	}

	s = DefaultSettings()
	s.RetryAttempts = 11
	if err := s.Validate(); err == nil {
		t.Error("retry attempts above cap accepted")
	}
}

func TestSettingsStoreUpdateRejectsInvalid(t *testing.T) {
	st := NewSettingsStore(DefaultSettings(), nil)

	bad := st.Load()
	bad.RuleExecutionTime = 0
	if err := st.Update(bad); err == nil {
		t.Fatal("invalid settings installed")
	}
	if st.Load().RuleExecutionTime == 0 {
		t.Error("rejected update still mutated the store")
	}
}

func TestSettingsStoreSyncsLogLevel(t *testing.T) {
	level := new(slog.LevelVar)
	st := NewSettingsStore(DefaultSettings(), level)
	if level.Level() != slog.LevelInfo {
		t.Fatalf("initial level = %v", level.Level())
	}

	s := st.Load()
	s.LogLevel = slog.LevelDebug
	if err := st.Update(s); err != nil {
		t.Fatalf("update: %v", err)
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level var = %v, want debug", level.Level())
	}
}

func TestSettingsStoreSnapshotIsolation(t *testing.T) {
	st := NewSettingsStore(DefaultSettings(), nil)
	snap := st.Load()

	s := st.Load()
	s.MaxHookExecutionTime = 42 * time.Millisecond
	if err := st.Update(s); err != nil {
		t.Fatalf("update: %v", err)
	}

	if snap.MaxHookExecutionTime == 42*time.Millisecond {
		t.Error("earlier snapshot changed after update")
	}
	if st.Load().MaxHookExecutionTime != 42*time.Millisecond {
		t.Error("update not visible to new loads")
	}
}
