package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/riskflow/internal/config"
	"github.com/gyaneshwarpardhi/riskflow/internal/engine"
	"github.com/gyaneshwarpardhi/riskflow/internal/logging"
	"github.com/gyaneshwarpardhi/riskflow/internal/metrics"
	"github.com/gyaneshwarpardhi/riskflow/internal/report"
	"github.com/gyaneshwarpardhi/riskflow/internal/store"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

const (
	maxBatchSize = 100_000
	maxBodyBytes = 64 << 20
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	repo    *store.Repository
	builder *report.Builder
	disp    *engine.Dispatcher
	loader  *config.Loader
	logger  *slog.Logger
	router  chi.Router

	mu     sync.RWMutex
	latest *outcomeView
}

// outcomeView is the JSON form of the most recent engine.Outcome.
type outcomeView struct {
	JobID      string                `json:"job_id"`
	BatchSize  int                   `json:"batch_size"`
	DurationMs int64                 `json:"duration_ms"`
	Analytics  *engine.RiskAnalytics `json:"analytics,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// New creates an HTTP handler, registers all routes and subscribes to
// dispatcher outcomes.
func New(repo *store.Repository, builder *report.Builder, disp *engine.Dispatcher, loader *config.Loader, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		repo:    repo,
		builder: builder,
		disp:    disp,
		loader:  loader,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	disp.Listen(h.record)

	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.RealIP)
	h.router.Use(requestLogger(logger))
	h.router.Use(middleware.Recoverer)
	h.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h.router.Route("/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.appendTransactions)
			r.Get("/summary", h.summary)
		})
		r.Get("/repository/stats", h.repositoryStats)
		r.Post("/assessments", h.assess)
		r.Post("/analytics", h.submitAnalytics)
		r.Get("/analytics", h.latestAnalytics)
		r.Get("/config", h.showConfig)
		r.Post("/config/reload", h.reloadConfig)
	})
	h.router.Get("/healthz", h.healthz)
	h.router.Get("/readyz", h.readyz)
	h.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return h.router
}

func (h *Handler) record(o engine.Outcome) {
	v := &outcomeView{
		JobID:      o.JobID,
		BatchSize:  o.BatchSize,
		DurationMs: o.DurationMs,
		Analytics:  o.Analytics,
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	h.mu.Lock()
	h.latest = v
	h.mu.Unlock()
}

// decodeBatch reads a JSON array of transactions. An empty body yields
// (nil, false, nil) so callers can fall back to the repository.
func decodeBatch(r *http.Request) ([]txn.Transaction, bool, error) {
	var batch []txn.Transaction
	err := json.NewDecoder(r.Body).Decode(&batch)
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(batch) > maxBatchSize {
		return nil, false, fmt.Errorf("batch size %d exceeds max %d", len(batch), maxBatchSize)
	}
	return batch, true, nil
}

// batchFromRequest returns the request batch, validated, or the repository
// snapshot when the body is empty.
func (h *Handler) batchFromRequest(w http.ResponseWriter, r *http.Request) ([]txn.Transaction, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	batch, ok, err := decodeBatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if !ok {
		return h.repo.Snapshot(), true
	}
	for _, t := range batch {
		if err := txn.Validate(t); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return nil, false
		}
	}
	return batch, true
}

// POST /v1/transactions — validate and append to the repository.
func (h *Handler) appendTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	batch, ok, err := decodeBatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok || len(batch) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one transaction")
		return
	}
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.NewString()
		}
	}

	if err := h.repo.Append(batch...); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, store.ErrDuplicateID) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	logging.L(r.Context()).Debug("transactions appended", "count", len(batch))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"appended": len(batch),
		"version":  h.repo.Version(),
	})
}

// GET /v1/transactions/summary
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Summarize(h.repo.Snapshot()))
}

// GET /v1/repository/stats
func (h *Handler) repositoryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":       h.repo.Stats(),
		"checkpoints": h.repo.Checkpoints(),
	})
}

// POST /v1/assessments — synchronous risk assessment.
func (h *Handler) assess(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.batchFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.builder.Build(batch))
}

// POST /v1/analytics — queue a batch for background analysis.
func (h *Handler) submitAnalytics(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.batchFromRequest(w, r)
	if !ok {
		return
	}
	jobID, err := h.disp.Submit(batch)
	switch {
	case errors.Is(err, engine.ErrBelowThreshold):
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"skipped":    true,
			"batch_size": len(batch),
			"threshold":  h.disp.Threshold(),
		})
	case errors.Is(err, engine.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, engine.ErrDisposed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logging.L(r.Context()).Info("analysis queued", "job_id", jobID, "batch_size", len(batch))
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"job_id":     jobID,
			"batch_size": len(batch),
		})
	}
}

// GET /v1/analytics — dispatcher state and the latest outcome.
func (h *Handler) latestAnalytics(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":     h.disp.State(),
		"threshold": h.disp.Threshold(),
		"latest":    latest,
	})
}

// GET /v1/config
func (h *Handler) showConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loader.Config())
}

// POST /v1/config/reload — re-read the config file and apply it if valid.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if errors.Is(err, config.ErrInvalid) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":  true,
		"version":   cfg.Version,
		"threshold": h.disp.Threshold(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the dispatcher queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.disp.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
