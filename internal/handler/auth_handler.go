package handler

import (
	"net/http"

	"divyashree/internal/model"
	"divyashree/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	me, err := h.service.Me(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, me)
}
