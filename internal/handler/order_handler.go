package handler

import (
	"net/http"

	"divyashree/internal/model"
	"divyashree/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.OrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("user_id", user.ID.String()).
		Msg("order placed")
	respond(w, http.StatusCreated, order)
}

// ListMine handles GET /api/orders.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), user.ID, page, limit)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{orderId}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID, user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, order)
}

// Track handles GET /api/orders/track/{orderNumber}.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.TrackOrder(r.Context(), chi.URLParam(r, "orderNumber"), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, order)
}

// Cancel handles PATCH /api/orders/{orderId}/cancel. The body is optional.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.CancelRequest
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.CancelOrder(r.Context(), orderID, user.ID, req.Reason)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, order)
}

// RequestReturn handles POST /api/orders/{orderId}/return-exchange.
func (h *OrderHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ReturnRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.RequestReturnExchange(r.Context(), orderID, user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, order)
}

// List handles GET /api/admin/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	filter := model.OrderFilter{
		Status: model.OrderStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, r, model.NewValidation("invalid status parameter"), h.logger)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, orders)
}

// GetAdmin handles GET /api/admin/orders/{orderId}.
func (h *OrderHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.GetOrderAdmin(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/admin/orders/{orderId}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.StatusUpdateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), actorFrom(r, user), orderID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, order)
}

// ProcessReturn handles PATCH /api/admin/orders/{orderId}/return-exchange.
func (h *OrderHandler) ProcessReturn(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ProcessReturnRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.ProcessReturnExchange(r.Context(), actorFrom(r, user), orderID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, order)
}

// Dashboard handles GET /api/admin/dashboard.
func (h *OrderHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, stats)
}
