// Package testutil provides shared test helpers for building hook execution
// stacks and temporary audit databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/headonpro/contenthooks/internal/audit"
	"github.com/headonpro/contenthooks/internal/hook"
)

// SilentLogger returns a logger that discards everything.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSettings returns a settings store seeded with defaults, optionally
// mutated by fn.
func TestSettings(t *testing.T, fn func(*hook.Settings)) *hook.SettingsStore {
	t.Helper()
	s := hook.DefaultSettings()
	if fn != nil {
		fn(&s)
	}
	return hook.NewSettingsStore(s, nil)
}

// TestAuditStore creates a temporary SQLite audit database that is cleaned up
// automatically.
func TestAuditStore(t *testing.T) *audit.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "contenthooks-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := audit.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
