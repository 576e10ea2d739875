// Package handlers exposes the reconciler to the derivative-generation
// pipeline as a small JSON-over-HTTP surface.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"islandora-handle-backend/internal/domain/models"
	"islandora-handle-backend/internal/domain/ports"
)

// Reconciler is the application surface the HTTP layer drives.
type Reconciler interface {
	EnsureHandleAndAttach(ctx context.Context, obj ports.RepositoryObject, hook models.DerivativeHook) models.Result
	SyncDublinCore(ctx context.Context, obj ports.RepositoryObject) models.Result
	RetractIfOrphaned(ctx context.Context, obj ports.RepositoryObject) models.Result
}

// Handlers routes pipeline requests to the reconciler
type Handlers struct {
	reconciler Reconciler
	objects    ports.ObjectStore
	handles    ports.HandleService
	logger     logr.Logger
}

// NewHandlers creates the HTTP handler set
func NewHandlers(reconciler Reconciler, objects ports.ObjectStore, handles ports.HandleService, logger logr.Logger) *Handlers {
	return &Handlers{
		reconciler: reconciler,
		objects:    objects,
		handles:    handles,
		logger:     logger,
	}
}

// Register wires the routes onto the router
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/v1/objects/{pid}/handle", h.ensureHandle).Methods(http.MethodPost)
	r.HandleFunc("/v1/objects/{pid}/dc", h.syncDublinCore).Methods(http.MethodPost)
	r.HandleFunc("/v1/objects/{pid}/handle", h.retractHandle).Methods(http.MethodDelete)
	r.HandleFunc("/v1/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (h *Handlers) ensureHandle(w http.ResponseWriter, r *http.Request) {
	var hook models.DerivativeHook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if hook.DestinationDSID == "" {
		h.writeError(w, http.StatusBadRequest, "destination_dsid is required")
		return
	}

	h.run(w, r, "ensure", func(ctx context.Context, obj ports.RepositoryObject) models.Result {
		return h.reconciler.EnsureHandleAndAttach(ctx, obj, hook)
	})
}

func (h *Handlers) syncDublinCore(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "sync_dc", h.reconciler.SyncDublinCore)
}

func (h *Handlers) retractHandle(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "retract", h.reconciler.RetractIfOrphaned)
}

// run resolves the pid and executes one reconciler operation, reporting
// the structured result with a 200 regardless of the operation's own
// success flag. Transport-level statuses are reserved for bad requests
// and unknown objects.
func (h *Handlers) run(w http.ResponseWriter, r *http.Request, operation string, op func(context.Context, ports.RepositoryObject) models.Result) {
	pid := mux.Vars(r)["pid"]

	obj, err := h.objects.Get(r.Context(), pid)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "object not found")
			return
		}
		h.logger.Error(err, "object lookup failed", "pid", pid)
		h.writeError(w, http.StatusBadGateway, "repository unavailable")
		return
	}

	start := time.Now()
	result := op(r.Context(), obj)
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	operationsTotal.WithLabelValues(operation, outcomeLabel(result.Success)).Inc()

	if !result.Success {
		h.logger.Info("operation reported failure", "operation", operation, "pid", pid, "messages", len(result.Messages))
	}
	h.writeJSON(w, http.StatusOK, result)
}

// healthCheckPID is never minted; a 404 from the resolver still proves
// reachability, only a transport failure marks the service down.
const healthCheckPID = "healthcheck"

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.handles.Exists(r.Context(), healthCheckPID); err != nil {
		h.logger.Error(err, "handle service unreachable")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(err, "failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
