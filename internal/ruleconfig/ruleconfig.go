// Package ruleconfig loads rule-set overrides from a YAML file and applies
// them to the registry and runtime settings, optionally re-applying the file
// whenever it changes on disk.
package ruleconfig

import (
	"fmt"
	"log/slog"
	"time"

	pkgconfig "github.com/headonpro/contenthooks/pkg/config"

	"github.com/headonpro/contenthooks/internal/hook"
	"github.com/headonpro/contenthooks/internal/rules"
)

// File is the on-disk rule-set override format. All fields are optional;
// absent values leave the current state untouched.
type File struct {
	Settings *SettingsOverride `yaml:"settings"`
	Rules    []RuleOverride    `yaml:"rules"`
}

// SettingsOverride adjusts the runtime execution settings.
type SettingsOverride struct {
	StrictValidation       *bool   `yaml:"strict_validation"`
	AsyncCalculations      *bool   `yaml:"async_calculations"`
	GracefulDegradation    *bool   `yaml:"graceful_degradation"`
	MaxHookExecutionTimeMs *int    `yaml:"max_hook_execution_time_ms"`
	RuleExecutionTimeMs    *int    `yaml:"rule_execution_time_ms"`
	RetryAttempts          *int    `yaml:"retry_attempts"`
	LogLevel               *string `yaml:"log_level"`
}

// RuleOverride toggles or reconfigures one registered rule by id.
type RuleOverride struct {
	ID      string         `yaml:"id"`
	Enabled *bool          `yaml:"enabled"`
	Config  map[string]any `yaml:"config"`
}

// Validate validates the override file.
func (f *File) Validate() error {
	for i, r := range f.Rules {
		if r.ID == "" {
			return fmt.Errorf("rules[%d]: id is required", i)
		}
	}
	if f.Settings != nil && f.Settings.LogLevel != nil {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(*f.Settings.LogLevel)); err != nil {
			return fmt.Errorf("settings.log_level: %w", err)
		}
	}
	return nil
}

// Load reads and validates the override file at path.
func Load(path string) (*File, error) {
	var f File
	if err := pkgconfig.Load(path, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply pushes the overrides into the registry and settings store. Rule
// overrides referencing unknown ids are reported but do not abort the rest
// of the file.
func Apply(f *File, reg *rules.Registry, store *hook.SettingsStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if f.Settings != nil {
		s := store.Load()
		o := f.Settings
		if o.StrictValidation != nil {
			s.EnableStrictValidation = *o.StrictValidation
		}
		if o.AsyncCalculations != nil {
			s.EnableAsyncCalculations = *o.AsyncCalculations
		}
		if o.GracefulDegradation != nil {
			s.EnableGracefulDegradation = *o.GracefulDegradation
		}
		if o.MaxHookExecutionTimeMs != nil {
			s.MaxHookExecutionTime = time.Duration(*o.MaxHookExecutionTimeMs) * time.Millisecond
		}
		if o.RuleExecutionTimeMs != nil {
			s.RuleExecutionTime = time.Duration(*o.RuleExecutionTimeMs) * time.Millisecond
		}
		if o.RetryAttempts != nil {
			s.RetryAttempts = *o.RetryAttempts
		}
		if o.LogLevel != nil {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(*o.LogLevel)); err == nil {
				s.LogLevel = lvl
			}
		}
		if err := store.Update(s); err != nil {
			return fmt.Errorf("apply settings override: %w", err)
		}
	}

	var failed int
	for _, o := range f.Rules {
		if o.Enabled != nil {
			if err := reg.SetEnabled(o.ID, *o.Enabled); err != nil {
				logger.Warn("rule override skipped",
					slog.String("rule", o.ID),
					slog.String("error", err.Error()))
				failed++
				continue
			}
		}
		if o.Config != nil {
			if err := reg.SetConfig(o.ID, o.Config); err != nil {
				logger.Warn("rule config override skipped",
					slog.String("rule", o.ID),
					slog.String("error", err.Error()))
				failed++
			}
		}
	}
	if failed > 0 {
		logger.Warn("rule overrides partially applied", slog.Int("skipped", failed))
	}
	return nil
}

// LoadAndApply is the startup path: read the file and push it through.
func LoadAndApply(path string, reg *rules.Registry, store *hook.SettingsStore, logger *slog.Logger) error {
	f, err := Load(path)
	if err != nil {
		return err
	}
	return Apply(f, reg, store, logger)
}
