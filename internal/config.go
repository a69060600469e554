// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/headonpro/contenthooks/internal/hook"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Hooks HooksConfig       `yaml:"hooks"`
	Rules RulesConfig       `yaml:"rules"`
	Audit AuditConfig       `yaml:"audit"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Hooks.Validate(); err != nil {
		return err
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	if err := c.Audit.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// HooksConfig seeds the runtime execution settings.
type HooksConfig struct {
	StrictValidation       bool `yaml:"strict_validation"`
	AsyncCalculations      bool `yaml:"async_calculations"`
	GracefulDegradation    bool `yaml:"graceful_degradation"`
	MaxHookExecutionTimeMs int  `yaml:"max_hook_execution_time_ms"`
	RuleExecutionTimeMs    int  `yaml:"rule_execution_time_ms"`
	RetryAttempts          int  `yaml:"retry_attempts"`
}

// Validate validates the hooks configuration.
func (c *HooksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxHookExecutionTimeMs, validation.Required, validation.Min(1)),
		validation.Field(&c.RuleExecutionTimeMs, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryAttempts, validation.Min(0), validation.Max(10)),
	)
}

// Settings converts the configuration into runtime execution settings.
func (c *HooksConfig) Settings(logLevel slog.Level) hook.Settings {
	return hook.Settings{
		EnableStrictValidation:    c.StrictValidation,
		EnableAsyncCalculations:   c.AsyncCalculations,
		EnableGracefulDegradation: c.GracefulDegradation,
		MaxHookExecutionTime:      time.Duration(c.MaxHookExecutionTimeMs) * time.Millisecond,
		RuleExecutionTime:         time.Duration(c.RuleExecutionTimeMs) * time.Millisecond,
		RetryAttempts:             c.RetryAttempts,
		LogLevel:                  logLevel,
	}
}

// RulesConfig holds the rule engine configuration. Path points to the
// optional rule-set override file that is watched for runtime changes.
type RulesConfig struct {
	Path         string `yaml:"path"`
	CacheSize    int    `yaml:"cache_size"`
	CacheTTLSecs int    `yaml:"cache_ttl_seconds"`
}

// Validate validates the rules configuration.
func (c *RulesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CacheSize, validation.Min(0)),
		validation.Field(&c.CacheTTLSecs, validation.Min(0)),
	)
}

// CacheTTL returns the configured cache TTL.
func (c *RulesConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

// AuditConfig holds the execution audit log configuration.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the audit configuration.
func (c *AuditConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Hooks: HooksConfig{
			StrictValidation:       false,
			AsyncCalculations:      false,
			GracefulDegradation:    true,
			MaxHookExecutionTimeMs: 100,
			RuleExecutionTimeMs:    50,
			RetryAttempts:          2,
		},
		Rules: RulesConfig{
			CacheSize:    1024,
			CacheTTLSecs: 300,
		},
		Audit: AuditConfig{
			Path: "./contenthooks.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
