package hook

import (
	"log/slog"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Settings is the runtime-tunable behaviour of the execution core. Updates
// apply immediately to subsequent invocations; in-flight executions keep the
// snapshot they started with.
type Settings struct {
	// EnableStrictValidation escalates validation failures to critical,
	// blocking the surrounding event.
	EnableStrictValidation bool

	// EnableAsyncCalculations allows after-hooks to schedule derived-field
	// work off the write path.
	EnableAsyncCalculations bool

	// MaxHookExecutionTime bounds one wrapped operation.
	MaxHookExecutionTime time.Duration

	// RuleExecutionTime bounds a single rule evaluation inside the engine.
	RuleExecutionTime time.Duration

	// RetryAttempts is consumed only by the explicit WithRetry decorator.
	RetryAttempts int

	// EnableGracefulDegradation absorbs failures into warnings instead of
	// rejecting the triggering event.
	EnableGracefulDegradation bool

	// LogLevel gates hook execution log verbosity.
	LogLevel slog.Level
}

// DefaultSettings returns the stock execution settings.
func DefaultSettings() Settings {
	return Settings{
		EnableStrictValidation:    false,
		EnableAsyncCalculations:   false,
		MaxHookExecutionTime:      100 * time.Millisecond,
		RuleExecutionTime:         50 * time.Millisecond,
		RetryAttempts:             2,
		EnableGracefulDegradation: true,
		LogLevel:                  slog.LevelInfo,
	}
}

// Validate validates the settings.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.MaxHookExecutionTime, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&s.RuleExecutionTime, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&s.RetryAttempts, validation.Min(0), validation.Max(10)),
	)
}

// SettingsStore holds the current Settings behind an atomic pointer so
// concurrent executions read a consistent snapshot while admin surfaces
// update it.
type SettingsStore struct {
	cur   atomic.Pointer[Settings]
	level *slog.LevelVar
}

// NewSettingsStore creates a store seeded with s. The optional level var is
// kept in sync with Settings.LogLevel so the process logger follows runtime
// reconfiguration.
func NewSettingsStore(s Settings, level *slog.LevelVar) *SettingsStore {
	st := &SettingsStore{level: level}
	st.set(s)
	return st
}

// Load returns the current settings snapshot.
func (st *SettingsStore) Load() Settings {
	return *st.cur.Load()
}

// Update validates and installs new settings.
func (st *SettingsStore) Update(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.set(s)
	return nil
}

func (st *SettingsStore) set(s Settings) {
	st.cur.Store(&s)
	if st.level != nil {
		st.level.Set(s.LogLevel)
	}
}
