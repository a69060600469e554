// Package format projects hook and validation results into the shapes
// consumed by the API layer and the structured log.
package format

import (
	"log/slog"

	"github.com/headonpro/contenthooks/internal/hook"
	"github.com/headonpro/contenthooks/internal/rules"
)

// ErrorRecord is the consumer-facing projection of one classified failure.
type ErrorRecord struct {
	Severity  string `json:"severity"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HookResponse is the API payload for one hook execution.
type HookResponse struct {
	OperationID     string         `json:"operation_id"`
	Category        string         `json:"category"`
	Kind            string         `json:"kind"`
	Success         bool           `json:"success"`
	CanProceed      bool           `json:"can_proceed"`
	Errors          []ErrorRecord  `json:"errors"`
	Warnings        []ErrorRecord  `json:"warnings"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	ModifiedData    map[string]any `json:"modified_data,omitempty"`
}

// HookResponseFrom builds the API payload for one execution.
func HookResponseFrom(res hook.Result) HookResponse {
	return HookResponse{
		OperationID:     res.Context.OperationID,
		Category:        res.Context.Category,
		Kind:            string(res.Context.Kind),
		Success:         res.Success,
		CanProceed:      res.CanProceed,
		Errors:          errorRecords(res.Errors),
		Warnings:        errorRecords(res.Warnings),
		ExecutionTimeMs: res.ExecutionTimeMs,
		ModifiedData:    res.ModifiedData,
	}
}

// ValidationResponse is the API payload for one validation run.
type ValidationResponse struct {
	Category  string             `json:"category"`
	Operation string             `json:"operation"`
	Passed    bool               `json:"passed"`
	Outcomes  []rules.RuleResult `json:"outcomes"`
	Warnings  []rules.RuleResult `json:"warnings"`
	ElapsedMs int64              `json:"elapsed_ms"`
}

// ValidationResponseFrom builds the API payload for one validation result.
func ValidationResponseFrom(res *rules.Result) ValidationResponse {
	out := ValidationResponse{
		Category:  res.Category,
		Operation: res.Operation,
		Passed:    res.Passed,
		Outcomes:  res.Outcomes,
		Warnings:  res.Warnings(),
		ElapsedMs: res.ElapsedMs,
	}
	if out.Outcomes == nil {
		out.Outcomes = []rules.RuleResult{}
	}
	if out.Warnings == nil {
		out.Warnings = []rules.RuleResult{}
	}
	return out
}

// LogAttrs renders one execution as structured log attributes.
func LogAttrs(res hook.Result) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", res.Context.OperationName()),
		slog.String("operation_id", res.Context.OperationID),
		slog.Bool("success", res.Success),
		slog.Bool("can_proceed", res.CanProceed),
		slog.Int64("duration_ms", res.ExecutionTimeMs),
	}
	if len(res.Errors) > 0 {
		attrs = append(attrs, slog.String("error_code", res.Errors[0].Code))
	}
	return attrs
}

func errorRecords(recs []hook.ErrorRecord) []ErrorRecord {
	out := make([]ErrorRecord, len(recs))
	for i, r := range recs {
		out[i] = ErrorRecord{
			Severity:  string(r.Severity),
			Code:      r.Code,
			Message:   r.Message,
			Timestamp: r.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
	}
	return out
}
