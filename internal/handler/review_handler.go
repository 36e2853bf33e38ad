package handler

import (
	"context"
	"net/http"

	"divyashree/internal/auth"
	"divyashree/internal/model"
	"divyashree/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReviewHandler handles product reviews.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("handler", "review").Logger(),
	}
}

// List handles GET /api/products/{id}/reviews.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	list, err := h.service.List(r.Context(), productID, page, limit)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, list)
}

// Create handles POST /api/products/{id}/reviews. Authentication is optional.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var input model.ReviewInput
	if err := decode(w, r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var userID *uuid.UUID
	if user := auth.UserFrom(r.Context()); user != nil {
		userID = &user.ID
	}

	review, err := h.service.Create(r.Context(), productID, userID, &input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusCreated, review)
}

// Update handles PUT /api/reviews/{id}.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input model.ReviewInput
	if err := decode(w, r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	review, err := h.service.Update(r.Context(), id, user.ID, &input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, review)
}

// Delete handles DELETE /api/reviews/{id}. Only the author may delete.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.Delete)
}

// AdminDelete handles DELETE /api/admin/reviews/{id}.
func (h *ReviewHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteAsAdmin)
}

func (h *ReviewHandler) delete(w http.ResponseWriter, r *http.Request, del func(context.Context, model.Actor, uuid.UUID) error) {
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

	if err := del(r.Context(), actorFrom(r, user), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondMessage(w, "Review deleted")
}

// MarkHelpful handles POST /api/reviews/{id}/helpful.
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	helpful, err := h.service.MarkHelpful(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, map[string]int{"helpful": helpful})
}
