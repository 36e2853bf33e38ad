// Package audit records admin mutations. Records are advisory: they are
// written on the task dispatcher and a failed write never fails the mutation.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"divyashree/internal/model"
	"divyashree/internal/tasks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists and lists audit records.
type Store interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter model.AuditFilter) ([]model.AuditLog, int, error)
}

// Recorder builds audit records and hands them to the dispatcher.
type Recorder struct {
	store  Store
	tasks  tasks.Submitter
	logger zerolog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing to store through submitter.
func NewRecorder(store Store, submitter tasks.Submitter, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		tasks:  submitter,
		logger: logger.With().Str("component", "audit").Logger(),
		now:    time.Now,
	}
}

// Record queues one audit entry. before and after are JSON-encoded
// snapshots and may be nil.
func (r *Recorder) Record(actor model.Actor, action model.AuditAction, resource, resourceID string, before, after any) {
	entry := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Before:     r.snapshot(before),
		After:      r.snapshot(after),
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
		CreatedAt:  r.now().UTC(),
	}

	r.tasks.Submit("audit."+string(action), func(ctx context.Context) error {
		return r.store.Insert(ctx, entry)
	})
}

// List returns one page of audit records, newest first.
func (r *Recorder) List(ctx context.Context, filter model.AuditFilter) ([]model.AuditLog, int, error) {
	return r.store.List(ctx, filter)
}

func (r *Recorder) snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to encode audit snapshot")
		return nil
	}
	return b
}
