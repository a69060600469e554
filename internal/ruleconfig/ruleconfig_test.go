package ruleconfig

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/headonpro/contenthooks/internal/hook"
	"github.com/headonpro/contenthooks/internal/rules"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func passRule(context.Context, rules.Input) (rules.Outcome, error) {
	return rules.Pass(), nil
}

func seededRegistry(t *testing.T) *rules.Registry {
	t.Helper()
	reg := rules.NewRegistry()
	err := reg.Register(rules.Definition{
		ID: "team.name-length", Category: "team", Severity: hook.SeverityWarning,
		Priority: 10, Enabled: true, Evaluate: passRule,
		Config: map[string]any{"min_length": 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeFile(t, `
settings:
  strict_validation: true
  rule_execution_time_ms: 75
rules:
  - id: team.name-length
    enabled: false
    config:
      min_length: 5
`)

	reg := seededRegistry(t)
	store := hook.NewSettingsStore(hook.DefaultSettings(), nil)

	if err := LoadAndApply(path, reg, store, silentLogger()); err != nil {
		t.Fatalf("load and apply: %v", err)
	}

	s := store.Load()
	if !s.EnableStrictValidation {
		t.Error("strict validation override not applied")
	}
	if s.RuleExecutionTime != 75*time.Millisecond {
		t.Errorf("rule execution time = %v, want 75ms", s.RuleExecutionTime)
	}
	// Untouched settings keep their defaults.
	if s.MaxHookExecutionTime != hook.DefaultSettings().MaxHookExecutionTime {
		t.Errorf("hook execution time changed: %v", s.MaxHookExecutionTime)
	}

	def, ok := reg.Get("team.name-length")
	if !ok {
		t.Fatal("rule missing")
	}
	if def.Enabled {
		t.Error("disable override not applied")
	}
	if def.Config["min_length"] != 5 {
		t.Errorf("config override = %v", def.Config)
	}
}

func TestApplyUnknownRuleSkipped(t *testing.T) {
	path := writeFile(t, `
rules:
  - id: ghost.rule
    enabled: false
  - id: team.name-length
    enabled: false
`)

	reg := seededRegistry(t)
	store := hook.NewSettingsStore(hook.DefaultSettings(), nil)

	// Unknown ids are reported, not fatal; later overrides still apply.
	if err := LoadAndApply(path, reg, store, silentLogger()); err != nil {
		t.Fatalf("load and apply: %v", err)
	}
	def, _ := reg.Get("team.name-length")
	if def.Enabled {
		t.Error("override after unknown id not applied")
	}
}

func TestLoadRejectsMissingID(t *testing.T) {
	path := writeFile(t, `
rules:
  - enabled: false
`)
	if _, err := Load(path); err == nil {
		t.Error("rule override without id accepted")
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeFile(t, `
settings:
  log_level: chatty
`)
	if _, err := Load(path); err == nil {
		t.Error("unknown log level accepted")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeFile(t, `
rules:
  - id: team.name-length
    enabled: true
`)

	reg := seededRegistry(t)
	store := hook.NewSettingsStore(hook.DefaultSettings(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, path, reg, store, silentLogger())
		close(done)
	}()

	// Give the watcher time to start.
	time.Sleep(100 * time.Millisecond)

	update := `
rules:
  - id: team.name-length
    enabled: false
`
	if err := os.WriteFile(path, []byte(update), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		def, _ := reg.Get("team.name-length")
		if !def.Enabled {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watcher did not apply file change")
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}
