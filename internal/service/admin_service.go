package service

import (
	"context"
	"fmt"
	"strings"

	"divyashree/internal/model"
	"divyashree/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// adminService implements AdminService.
type adminService struct {
	userRepo repository.UserRepository
	audit    AuditTrail
	logger   zerolog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(userRepo repository.UserRepository, trail AuditTrail, logger zerolog.Logger) AdminService {
	return &adminService{
		userRepo: userRepo,
		audit:    trail,
		logger:   logger.With().Str("service", "admin").Logger(),
	}
}

func (s *adminService) ListUsers(ctx context.Context, filter model.UserFilter) (*model.Page[model.User], error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, model.NewValidation("Invalid role: %s", filter.Role)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.Limit = model.ClampPage(filter.Page, filter.Limit)

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return pageOf(users, filter.Page, filter.Limit, total), nil
}

func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// ChangeRole sets a user's role. Admins cannot change their own role and
// only a superadmin may grant or revoke superadmin.
func (s *adminService) ChangeRole(ctx context.Context, actor model.Actor, id uuid.UUID, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, model.NewValidation("Invalid role: %s", role)
	}
	if actor.ID == id {
		return nil, model.NewInvalidState(model.ErrCodeProtectedRole, "You cannot change your own role")
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	touchesSuper := role == model.RoleSuperAdmin || user.Role == model.RoleSuperAdmin
	if touchesSuper && actor.Role != model.RoleSuperAdmin {
		return nil, model.ErrForbidden
	}

	previous := user.Role
	updated, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if !updated {
		return nil, model.ErrUserNotFound
	}
	user.Role = role

	s.logger.Info().
		Str("user_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(role)).
		Str("actor_id", actor.ID.String()).
		Msg("user role changed")

	s.audit.Record(actor, model.AuditRoleChange, "users", id.String(),
		map[string]any{"role": previous},
		map[string]any{"role": role})

	return user, nil
}

func (s *adminService) DeactivateUser(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if actor.ID == id {
		return model.NewInvalidState(model.ErrCodeProtectedRole, "You cannot deactivate your own account")
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin {
		return model.ErrForbidden
	}

	updated, err := s.userRepo.SetActive(ctx, id, false)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if !updated {
		return model.ErrUserNotFound
	}

	s.logger.Info().
		Str("user_id", id.String()).
		Str("actor_id", actor.ID.String()).
		Msg("user deactivated")

	s.audit.Record(actor, model.AuditDelete, "users", id.String(),
		map[string]any{"isActive": user.IsActive},
		map[string]any{"isActive": false})
	return nil
}

func (s *adminService) AuditLogs(ctx context.Context, filter model.AuditFilter) (*model.Page[model.AuditLog], error) {
	filter.Page, filter.Limit = model.ClampPage(filter.Page, filter.Limit)

	logs, total, err := s.audit.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list audit logs")
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return pageOf(logs, filter.Page, filter.Limit, total), nil
}
