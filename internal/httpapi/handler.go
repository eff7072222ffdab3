// Package httpapi exposes the audit boundary over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/auditgate/internal/engine"
	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/model"
)

const maxBodyBytes = 1 << 20

// EngineFunc returns the engine to serve the current request with.
type EngineFunc func() *engine.Engine

// Handler wires HTTP endpoints to the loaded engine.
type Handler struct {
	engine   EngineFunc
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// New constructs a handler. A nil gatherer disables /metrics.
func New(eng EngineFunc, logger *slog.Logger, gatherer prometheus.Gatherer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, logger: logger, gatherer: gatherer}
}

// Router returns a chi router with every endpoint mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.Register(r)
	return r
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Post("/v1/check", h.HandleCheck)
	r.Post("/v1/dispatch/{operation}", h.HandleDispatch)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

// TaskRequest is the JSON body accepted by check and dispatch.
type TaskRequest struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Principle   string `json:"principle"`
}

// VerdictResponse is returned by POST /v1/check.
type VerdictResponse struct {
	TaskID     string `json:"task_id"`
	Compliant  bool   `json:"compliant"`
	Reason     string `json:"reason,omitempty"`
	Principle  string `json:"principle,omitempty"`
	PolicyHash string `json:"policy_hash"`
}

// OutcomeResponse is returned by POST /v1/dispatch/{operation}. Blocked
// tasks are still 200 responses; status says what happened.
type OutcomeResponse struct {
	TaskID     string `json:"task_id"`
	Operation  string `json:"operation"`
	Status     string `json:"status"`
	Value      string `json:"value,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Detail     string `json:"detail,omitempty"`
	PolicyHash string `json:"policy_hash"`
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	eng := h.engine()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"policy_hash": eng.PolicyHash,
		"operations":  eng.Ops.Names(),
	})
}

// HandleCheck handles POST /v1/check.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	task, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	eng := h.engine()
	v := eng.Check(ctx, task)
	principle := v.Principle
	if principle == "" {
		principle = task.Principle
	}

	h.logger.InfoContext(ctx, "task checked",
		"request_id", middleware.GetReqID(ctx),
		"task_id", task.ID,
		"compliant", v.Compliant,
	)
	writeJSON(w, http.StatusOK, VerdictResponse{
		TaskID:     task.ID,
		Compliant:  v.Compliant,
		Reason:     v.Reason,
		Principle:  string(principle),
		PolicyHash: eng.PolicyHash,
	})
}

// HandleDispatch handles POST /v1/dispatch/{operation}.
func (h *Handler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	operation := chi.URLParam(r, "operation")
	task, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	eng := h.engine()
	out, err := eng.Dispatch(ctx, operation, task)
	if err != nil {
		if errors.Is(err, gate.ErrUnknownOperation) {
			writeError(w, http.StatusNotFound, "unknown_operation", "no operation named "+operation)
			return
		}
		h.logger.ErrorContext(ctx, "dispatch failed",
			"request_id", middleware.GetReqID(ctx),
			"operation", operation,
			"task_id", task.ID,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "action_failed", "")
		return
	}

	h.logger.InfoContext(ctx, "task dispatched",
		"request_id", middleware.GetReqID(ctx),
		"operation", operation,
		"task_id", task.ID,
		"status", out.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, OutcomeResponse{
		TaskID:     task.ID,
		Operation:  operation,
		Status:     string(out.Status),
		Value:      out.Value,
		Reason:     out.Reason,
		Detail:     out.Detail,
		PolicyHash: eng.PolicyHash,
	})
}

func (h *Handler) decodeTask(w http.ResponseWriter, r *http.Request) (model.Task, bool) {
	var req TaskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return model.Task{}, false
	}
	principle, err := model.ParsePrinciple(req.Principle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return model.Task{}, false
	}
	task := model.NewTask(req.Description, principle)
	if req.ID != "" {
		task.ID = req.ID
	}
	return task, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError omits the description when empty so internal failures do not
// leak action errors to callers.
func writeError(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	writeJSON(w, status, body)
}
