package handler

import (
	"net/http"

	"divyashree/internal/model"
	"divyashree/internal/service"

	"github.com/rs/zerolog"
)

// InventoryHandler handles admin stock management.
type InventoryHandler struct {
	service service.InventoryService
	logger  zerolog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(service service.InventoryService, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With().Str("handler", "inventory").Logger(),
	}
}

// ImportRequest names the feed to import.
type ImportRequest struct {
	Name string `json:"name"`
}

// LowStock handles GET /api/admin/inventory/low-stock.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "threshold", 0)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, products)
}

// Adjust handles PATCH /api/admin/inventory/{id}.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.StockAdjustRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	change, err := h.service.Adjust(r.Context(), actorFrom(r, user), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, change)
}

// Bulk handles POST /api/admin/inventory/bulk.
func (h *InventoryHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.BulkStockRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Bulk(r.Context(), actorFrom(r, user), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, result)
}

// Import handles POST /api/admin/inventory/import.
func (h *InventoryHandler) Import(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req ImportRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Import(r.Context(), actorFrom(r, user), req.Name)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, result)
}
