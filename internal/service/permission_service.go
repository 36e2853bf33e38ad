package service

import (
	"context"
	"fmt"

	"divyashree/internal/model"
	"divyashree/internal/permission"
	"divyashree/internal/repository"

	"github.com/rs/zerolog"
)

// permissionService implements PermissionService.
type permissionService struct {
	repo   repository.PermissionRepository
	audit  Auditor
	logger zerolog.Logger
}

// NewPermissionService creates a new permission service.
func NewPermissionService(repo repository.PermissionRepository, auditor Auditor, logger zerolog.Logger) PermissionService {
	return &permissionService{
		repo:   repo,
		audit:  auditor,
		logger: logger.With().Str("service", "permission").Logger(),
	}
}

func (s *permissionService) List(ctx context.Context) ([]permission.RolePermission, error) {
	perms, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list role permissions")
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	if perms == nil {
		perms = []permission.RolePermission{}
	}
	return perms, nil
}

func (s *permissionService) Get(ctx context.Context, role model.Role) (*permission.RolePermission, error) {
	if !role.IsAdmin() {
		return nil, model.ErrRoleNotFound
	}
	rp, err := s.repo.Get(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	if rp == nil {
		return nil, model.ErrRoleNotFound
	}
	return rp, nil
}

// Update replaces a role's matrix. The stored form is normalised so every
// cell is present. The superadmin template cannot lose any capability.
func (s *permissionService) Update(ctx context.Context, actor model.Actor, role model.Role, matrix permission.Matrix) (*permission.RolePermission, error) {
	if !role.IsAdmin() {
		return nil, model.ErrRoleNotFound
	}
	if matrix == nil {
		return nil, model.NewValidation("permissions is required")
	}

	next := permission.FromMatrix(matrix)
	if role == model.RoleSuperAdmin && next.Size() < permission.All().Size() {
		return nil, model.NewInvalidState(model.ErrCodeProtectedRole, "Superadmin permissions cannot be reduced")
	}

	current, err := s.repo.Get(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}

	updated := &permission.RolePermission{Role: role, Permissions: next.Matrix()}
	var before permission.Matrix
	if current != nil {
		updated.Description = current.Description
		before = current.Permissions
	}

	if err := s.repo.Upsert(ctx, updated); err != nil {
		s.logger.Error().Err(err).Str("role", string(role)).Msg("failed to update role permissions")
		return nil, fmt.Errorf("failed to update role permissions: %w", err)
	}

	s.logger.Info().
		Str("role", string(role)).
		Int("grants", next.Size()).
		Str("actor_id", actor.ID.String()).
		Msg("role permissions updated")

	s.audit.Record(actor, model.AuditPermissionChange, "permissions", string(role), before, updated.Permissions)
	return updated, nil
}

// SetFor loads the capability set of role. Superadmin always holds every
// capability regardless of what is stored.
func (s *permissionService) SetFor(ctx context.Context, role model.Role) (*permission.Set, error) {
	if role == model.RoleSuperAdmin {
		return permission.All(), nil
	}
	if !role.IsAdmin() {
		return permission.NewSet(), nil
	}

	rp, err := s.repo.Get(ctx, role)
	if err != nil {
		s.logger.Error().Err(err).Str("role", string(role)).Msg("failed to load role permissions")
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	if rp == nil {
		return permission.NewSet(), nil
	}
	return permission.FromMatrix(rp.Permissions), nil
}
