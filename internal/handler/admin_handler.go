package handler

import (
	"net/http"

	"divyashree/internal/model"
	"divyashree/internal/permission"
	"divyashree/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminHandler handles user administration, the permission matrix and the
// audit trail.
type AdminHandler struct {
	admin       service.AdminService
	permissions service.PermissionService
	logger      zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(admin service.AdminService, permissions service.PermissionService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:       admin,
		permissions: permissions,
		logger:      logger.With().Str("handler", "admin").Logger(),
	}
}

// PermissionUpdateRequest replaces a role's matrix.
type PermissionUpdateRequest struct {
	Permissions permission.Matrix `json:"permissions"`
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	filter := model.UserFilter{
		Search: r.URL.Query().Get("search"),
		Role:   model.Role(r.URL.Query().Get("role")),
		Page:   page,
		Limit:  limit,
	}
	if filter.Role != "" && !filter.Role.Valid() {
		writeError(w, r, model.NewValidation("invalid role parameter"), h.logger)
		return
	}

	users, err := h.admin.ListUsers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, users)
}

// GetUser handles GET /api/admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.admin.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, user)
}

// ChangeRole handles PATCH /api/admin/users/{id}/role.
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.RoleUpdateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.admin.ChangeRole(r.Context(), actorFrom(r, caller), id, req.Role)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, user)
}

// DeactivateUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.admin.DeactivateUser(r.Context(), actorFrom(r, caller), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondMessage(w, "User deactivated")
}

// ListPermissions handles GET /api/admin/permissions.
func (h *AdminHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.permissions.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, perms)
}

// GetPermissions handles GET /api/admin/permissions/{role}.
func (h *AdminHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	perm, err := h.permissions.Get(r.Context(), model.Role(chi.URLParam(r, "role")))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, perm)
}

// UpdatePermissions handles PUT /api/admin/permissions/{role}.
func (h *AdminHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req PermissionUpdateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	role := model.Role(chi.URLParam(r, "role"))
	perm, err := h.permissions.Update(r.Context(), actorFrom(r, caller), role, req.Permissions)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, perm)
}

// AuditLogs handles GET /api/admin/audit-logs.
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	q := r.URL.Query()
	filter := model.AuditFilter{
		Resource: q.Get("resource"),
		Action:   model.AuditAction(q.Get("action")),
		Page:     page,
		Limit:    limit,
	}
	if raw := q.Get("actorId"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, model.NewValidation("invalid actorId parameter"), h.logger)
			return
		}
		filter.ActorID = &actorID
	}

	logs, err := h.admin.AuditLogs(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, logs)
}
