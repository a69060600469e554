package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/headonpro/contenthooks/internal/apperr"
	"github.com/headonpro/contenthooks/internal/audit"
	"github.com/headonpro/contenthooks/internal/format"
	"github.com/headonpro/contenthooks/internal/hook"
	"github.com/headonpro/contenthooks/internal/metrics"
	"github.com/headonpro/contenthooks/internal/rules"
)

// Handler holds API route handlers.
type Handler struct {
	dispatcher *hook.Dispatcher
	engine     *rules.Engine
	registry   *rules.Registry
	recorder   *metrics.Recorder
	auditStore *audit.Store
	settings   *hook.SettingsStore
}

// NewHandler creates a new Handler.
func NewHandler(dispatcher *hook.Dispatcher, engine *rules.Engine, registry *rules.Registry,
	recorder *metrics.Recorder, auditStore *audit.Store, settings *hook.SettingsStore) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		engine:     engine,
		registry:   registry,
		recorder:   recorder,
		auditStore: auditStore,
		settings:   settings,
	}
}

// Validate handles POST /api/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Category == "" || req.Operation == "" || req.Data == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("category, operation and data are required"))
		return
	}

	res, err := h.engine.Validate(r.Context(), req.Category, req.Operation, req.Data, req.Existing)
	if err != nil {
		slog.Error("validate failed",
			slog.String("category", req.Category),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, format.ValidationResponseFrom(res))
}

// DispatchHook handles POST /api/hooks/{kind}.
func (h *Handler) DispatchHook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	kind := hook.Kind(chi.URLParam(r, "kind"))
	if !hook.IsKnownKind(kind) {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown hook kind"))
		return
	}

	var req HookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Category == "" || req.Data == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("category and data are required"))
		return
	}

	ev := &hook.Event{
		Params: hook.EventParams{Data: req.Data, Where: req.Where},
		Result: req.Result,
	}
	res := h.dispatcher.Dispatch(r.Context(), req.Category, kind, ev)

	status := http.StatusOK
	if !res.CanProceed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, format.HookResponseFrom(res))
}

// ListRules handles GET /api/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	stats := h.registry.Stats()
	if category != "" {
		filtered := stats[:0:0]
		for _, s := range stats {
			if s.Category == category {
				filtered = append(filtered, s)
			}
		}
		stats = filtered
	}
	if stats == nil {
		stats = []rules.RuleStats{}
	}
	writeJSON(w, http.StatusOK, RuleListResponse{Rules: stats})
}

// PatchRule handles PATCH /api/rules/{id}.
func (h *Handler) PatchRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("rule id is required"))
		return
	}

	var req RulePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Enabled == nil && req.Config == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to update"))
		return
	}

	if req.Enabled != nil {
		if err := h.registry.SetEnabled(id, *req.Enabled); err != nil {
			h.writeRuleError(w, id, err)
			return
		}
	}
	if req.Config != nil {
		if err := h.registry.SetConfig(id, req.Config); err != nil {
			h.writeRuleError(w, id, err)
			return
		}
	}

	def, _ := h.registry.Get(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      def.ID,
		"enabled": def.Enabled,
		"config":  def.Config,
	})
}

func (h *Handler) writeRuleError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, apperr.ErrRuleNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("rule not found"))
		return
	}
	slog.Error("rule update failed", slog.String("rule", id), slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// OperationStats handles GET /api/stats/operations.
func (h *Handler) OperationStats(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		s, ok := h.recorder.Snapshot(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody("operation not found"))
			return
		}
		writeJSON(w, http.StatusOK, OperationStatsResponse{Operations: []metrics.OperationStats{s}})
		return
	}
	writeJSON(w, http.StatusOK, OperationStatsResponse{Operations: h.recorder.All()})
}

// SlowOperations handles GET /api/stats/slow.
func (h *Handler) SlowOperations(w http.ResponseWriter, r *http.Request) {
	thresholdMs, _ := strconv.Atoi(r.URL.Query().Get("threshold_ms"))
	if thresholdMs <= 0 {
		thresholdMs = 100
	}
	ops := h.recorder.SlowOperations(time.Duration(thresholdMs) * time.Millisecond)
	if ops == nil {
		ops = []metrics.OperationStats{}
	}
	writeJSON(w, http.StatusOK, OperationStatsResponse{Operations: ops})
}

// AuditLog handles GET /api/audit.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, err := h.auditStore.Recent(q.Get("category"), limit)
	if err != nil {
		slog.Error("audit query failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, settingsPayload(h.settings.Load()))
}

// UpdateSettings handles PUT /api/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	s := h.settings.Load()
	s.EnableStrictValidation = req.StrictValidation
	s.EnableAsyncCalculations = req.AsyncCalculations
	s.EnableGracefulDegradation = req.GracefulDegradation
	if req.MaxHookExecutionTimeMs > 0 {
		s.MaxHookExecutionTime = time.Duration(req.MaxHookExecutionTimeMs) * time.Millisecond
	}
	if req.RuleExecutionTimeMs > 0 {
		s.RuleExecutionTime = time.Duration(req.RuleExecutionTimeMs) * time.Millisecond
	}
	if req.RetryAttempts >= 0 {
		s.RetryAttempts = req.RetryAttempts
	}
	if req.LogLevel != "" {
		if err := s.LogLevel.UnmarshalText([]byte(req.LogLevel)); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid log level"))
			return
		}
	}

	if err := h.settings.Update(s); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, settingsPayload(h.settings.Load()))
}

func settingsPayload(s hook.Settings) SettingsPayload {
	return SettingsPayload{
		StrictValidation:       s.EnableStrictValidation,
		AsyncCalculations:      s.EnableAsyncCalculations,
		GracefulDegradation:    s.EnableGracefulDegradation,
		MaxHookExecutionTimeMs: s.MaxHookExecutionTime.Milliseconds(),
		RuleExecutionTimeMs:    s.RuleExecutionTime.Milliseconds(),
		RetryAttempts:          s.RetryAttempts,
		LogLevel:               s.LogLevel.String(),
	}
}
