package repository

import (
	"context"
	"errors"
	"fmt"

	"divyashree/internal/model"
	"divyashree/internal/permission"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// permissionRepository implements the PermissionRepository interface using PostgreSQL.
type permissionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPermissionRepository creates a new PostgreSQL-backed permission repository.
func NewPermissionRepository(pool *pgxpool.Pool, logger zerolog.Logger) PermissionRepository {
	return &permissionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "permission").Logger(),
	}
}

func (r *permissionRepository) List(ctx context.Context) ([]permission.RolePermission, error) {
	rows, err := r.pool.Query(ctx, "SELECT role, permissions, description FROM role_permissions ORDER BY role")
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query role permissions")
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}
	defer rows.Close()

	out := []permission.RolePermission{}
	for rows.Next() {
		var rp permission.RolePermission
		if err := rows.Scan(&rp.Role, &rp.Permissions, &rp.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role permissions: %w", err)
		}
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role permissions: %w", err)
	}
	return out, nil
}

func (r *permissionRepository) Get(ctx context.Context, role model.Role) (*permission.RolePermission, error) {
	var rp permission.RolePermission
	err := r.pool.QueryRow(ctx, "SELECT role, permissions, description FROM role_permissions WHERE role = $1", role).
		Scan(&rp.Role, &rp.Permissions, &rp.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("role", string(role)).Msg("failed to query role permissions")
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}
	return &rp, nil
}

func (r *permissionRepository) Upsert(ctx context.Context, rp *permission.RolePermission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role, permissions, description, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (role) DO UPDATE
		SET permissions = EXCLUDED.permissions,
			description = EXCLUDED.description,
			updated_at = NOW()
	`, rp.Role, rp.Permissions, rp.Description)
	if err != nil {
		r.logger.Error().Err(err).Str("role", string(rp.Role)).Msg("failed to save role permissions")
		return fmt.Errorf("failed to save role permissions: %w", err)
	}

	r.logger.Info().Str("role", string(rp.Role)).Msg("role permissions saved")
	return nil
}
