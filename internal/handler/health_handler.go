package handler

import (
	"context"
	"net/http"
	"time"

	"divyashree/internal/tasks"

	"github.com/rs/zerolog"
)

// Pinger checks a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TaskStats reports background dispatcher counters.
type TaskStats interface {
	Stats() tasks.Stats
}

// HealthHandler reports liveness, database reachability and task counters.
type HealthHandler struct {
	db     Pinger
	tasks  TaskStats
	logger zerolog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, tasks TaskStats, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		tasks:  tasks,
		logger: logger.With().Str("handler", "health").Logger(),
	}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string      `json:"status"`
	Database  string      `json:"database"`
	Tasks     tasks.Stats `json:"tasks"`
	Timestamp time.Time   `json:"timestamp"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:    "healthy",
		Database:  "up",
		Tasks:     h.tasks.Stats(),
		Timestamp: time.Now().UTC(),
	}
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database ping failed")
		status.Status = "degraded"
		status.Database = "down"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, Response{Success: code == http.StatusOK, Data: status})
}
