package hook

import "time"

// Severity classifies how an error record affects the surrounding event.
type Severity string

const (
	// SeverityCritical blocks the event unless graceful degradation overrides.
	SeverityCritical Severity = "critical"
	// SeverityWarning is logged and surfaced but never blocks.
	SeverityWarning Severity = "warning"
	// SeverityInfo is diagnostic only.
	SeverityInfo Severity = "info"
)

// IsValidSeverity reports whether s is a recognised severity value.
func IsValidSeverity(s Severity) bool {
	return s == SeverityCritical || s == SeverityWarning || s == SeverityInfo
}

// Error codes produced by the classifier.
const (
	CodeTimeout    = "HOOK_TIMEOUT"
	CodeValidation = "VALIDATION_ERROR"
	CodeOverlap    = "OVERLAP_VALIDATION"
	CodeDuplicate  = "DUPLICATE_VALIDATION"
	CodeUnknown    = "UNKNOWN_ERROR"
)

// ErrorRecord is a classified, severity-tagged failure. Immutable once
// created.
type ErrorRecord struct {
	Severity  Severity  `json:"severity"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Context   Context   `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the uniform outcome of one hook invocation. CanProceed=false
// means the surrounding event must be rejected; Success=false with
// CanProceed=true is a degraded success whose failures were absorbed into
// Errors.
type Result struct {
	Context         Context        `json:"context"`
	Success         bool           `json:"success"`
	CanProceed      bool           `json:"can_proceed"`
	Errors          []ErrorRecord  `json:"errors"`
	Warnings        []ErrorRecord  `json:"warnings"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	ModifiedData    map[string]any `json:"modified_data,omitempty"`
}
