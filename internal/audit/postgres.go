package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"divyashree/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresStore keeps audit records in the audit_logs table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates the default audit store.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("store", "audit-postgres").Logger(),
	}
}

func (s *PostgresStore) Insert(ctx context.Context, e *model.AuditLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, resource, resource_id,
			before, after, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.ActorID, e.ActorRole, e.Action, e.Resource, e.ResourceID,
		nullJSON(e.Before), nullJSON(e.After), e.IP, e.UserAgent, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f model.AuditFilter) ([]model.AuditLog, int, error) {
	page, limit := model.ClampPage(f.Page, f.Limit)

	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Resource != "" {
		clauses = append(clauses, "resource = "+arg(f.Resource))
	}
	if f.Action != "" {
		clauses = append(clauses, "action = "+arg(f.Action))
	}
	if f.ActorID != nil {
		clauses = append(clauses, "actor_id = "+arg(*f.ActorID))
	}
	whereSQL := ""
	if len(clauses) > 0 {
		whereSQL = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+whereSQL, args...).Scan(&total); err != nil {
		s.logger.Error().Err(err).Msg("failed to count audit logs")
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := `
		SELECT id, actor_id, actor_role, action, resource, resource_id, before, after,
			ip, user_agent, created_at
		FROM audit_logs` + whereSQL + `
		ORDER BY created_at DESC, id
		LIMIT ` + arg(limit) + ` OFFSET ` + arg(model.Offset(page, limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query audit logs")
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := []model.AuditLog{}
	for rows.Next() {
		var e model.AuditLog
		var before, after []byte
		err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.Resource, &e.ResourceID,
			&before, &after, &e.IP, &e.UserAgent, &e.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log: %w", err)
		}
		e.Before, e.After = before, after
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit logs: %w", err)
	}
	return logs, total, nil
}

// nullJSON maps an empty snapshot to SQL NULL.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
