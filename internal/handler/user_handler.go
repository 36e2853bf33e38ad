package handler

import (
	"net/http"

	"divyashree/internal/model"
	"divyashree/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles a customer's profile, addresses, wishlist and cart.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

// CartQuantityRequest is the body of a cart line update.
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// Profile handles GET /api/users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	profile, err := h.service.Profile(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ProfileUpdate
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, profile)
}

// Addresses handles GET /api/users/addresses.
func (h *UserHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	addresses, err := h.service.Addresses(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, addresses)
}

// AddAddress handles POST /api/users/addresses.
func (h *UserHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var in model.AddressInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	addresses, err := h.service.AddAddress(r.Context(), user.ID, &in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusCreated, addresses)
}

// UpdateAddress handles PUT /api/users/addresses/{id}.
func (h *UserHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
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

	var in model.AddressInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	addresses, err := h.service.UpdateAddress(r.Context(), user.ID, id, &in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, addresses)
}

// DeleteAddress handles DELETE /api/users/addresses/{id}.
func (h *UserHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
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

	addresses, err := h.service.DeleteAddress(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, addresses)
}

// SetDefaultAddress handles PATCH /api/users/addresses/{id}/default.
func (h *UserHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
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

	addresses, err := h.service.SetDefaultAddress(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, addresses)
}

// Wishlist handles GET /api/users/wishlist.
func (h *UserHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.Wishlist(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, products)
}

// AddToWishlist handles POST /api/users/wishlist/{productId}.
func (h *UserHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.AddToWishlist(r.Context(), user.ID, productID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, products)
}

// RemoveFromWishlist handles DELETE /api/users/wishlist/{productId}.
func (h *UserHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.RemoveFromWishlist(r.Context(), user.ID, productID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, products)
}

// Cart handles GET /api/cart.
func (h *UserHandler) Cart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.Cart(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, cart)
}

// AddToCart handles POST /api/cart.
func (h *UserHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var in model.CartItemInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.AddToCart(r.Context(), user.ID, &in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, cart)
}

// UpdateCartItem handles PUT /api/cart/{itemId}.
func (h *UserHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req CartQuantityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.UpdateCartItem(r.Context(), user.ID, itemID, req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, cart)
}

// RemoveCartItem handles DELETE /api/cart/{itemId}.
func (h *UserHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.RemoveCartItem(r.Context(), user.ID, itemID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /api/cart.
func (h *UserHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.ClearCart(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, cart)
}
