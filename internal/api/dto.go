package api

import (
	"github.com/headonpro/contenthooks/internal/format"
	"github.com/headonpro/contenthooks/internal/metrics"
	"github.com/headonpro/contenthooks/internal/rules"
)

// ValidateRequest is the request body for running a validation.
type ValidateRequest struct {
	Category  string         `json:"category" validate:"required"`
	Operation string         `json:"operation" validate:"required"`
	Data      map[string]any `json:"data" validate:"required"`
	Existing  map[string]any `json:"existing,omitempty"`
}

// HookRequest is the request body for dispatching a lifecycle hook.
type HookRequest struct {
	Category string         `json:"category" validate:"required"`
	Data     map[string]any `json:"data" validate:"required"`
	Where    map[string]any `json:"where,omitempty"`
	Result   map[string]any `json:"result,omitempty"`
}

// RulePatchRequest toggles or reconfigures one rule.
type RulePatchRequest struct {
	Enabled *bool          `json:"enabled,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}

// SettingsPayload mirrors the runtime execution settings with millisecond
// fields for transport.
type SettingsPayload struct {
	StrictValidation       bool   `json:"strict_validation"`
	AsyncCalculations      bool   `json:"async_calculations"`
	GracefulDegradation    bool   `json:"graceful_degradation"`
	MaxHookExecutionTimeMs int64  `json:"max_hook_execution_time_ms"`
	RuleExecutionTimeMs    int64  `json:"rule_execution_time_ms"`
	RetryAttempts          int    `json:"retry_attempts"`
	LogLevel               string `json:"log_level"`
}

// HookResponse is the execution payload (aliased from the formatter).
type HookResponse = format.HookResponse

// ValidationResponse is the validation payload (aliased from the formatter).
type ValidationResponse = format.ValidationResponse

// RuleListResponse wraps rule stats listings.
type RuleListResponse struct {
	Rules []rules.RuleStats `json:"rules" validate:"required"`
}

// OperationStatsResponse wraps per-operation metric snapshots.
type OperationStatsResponse struct {
	Operations []metrics.OperationStats `json:"operations" validate:"required"`
}
