package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"divyashree/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "audit_logs"

// auditDocument is the MongoDB shape of an audit record. Snapshots are kept
// as JSON text so they round-trip unchanged.
type auditDocument struct {
	ID         string    `bson:"_id"`
	ActorID    string    `bson:"actorId"`
	ActorRole  string    `bson:"actorRole"`
	Action     string    `bson:"action"`
	Resource   string    `bson:"resource"`
	ResourceID string    `bson:"resourceId"`
	Before     string    `bson:"before,omitempty"`
	After      string    `bson:"after,omitempty"`
	IP         string    `bson:"ip"`
	UserAgent  string    `bson:"userAgent"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func toDocument(e *model.AuditLog) auditDocument {
	return auditDocument{
		ID:         e.ID.String(),
		ActorID:    e.ActorID.String(),
		ActorRole:  string(e.ActorRole),
		Action:     string(e.Action),
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Before:     string(e.Before),
		After:      string(e.After),
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt,
	}
}

func (d auditDocument) toModel() (model.AuditLog, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.AuditLog{}, fmt.Errorf("invalid audit id %q: %w", d.ID, err)
	}
	actor, err := uuid.Parse(d.ActorID)
	if err != nil {
		return model.AuditLog{}, fmt.Errorf("invalid actor id %q: %w", d.ActorID, err)
	}
	e := model.AuditLog{
		ID:         id,
		ActorID:    actor,
		ActorRole:  model.Role(d.ActorRole),
		Action:     model.AuditAction(d.Action),
		Resource:   d.Resource,
		ResourceID: d.ResourceID,
		IP:         d.IP,
		UserAgent:  d.UserAgent,
		CreatedAt:  d.CreatedAt,
	}
	if d.Before != "" {
		e.Before = json.RawMessage(d.Before)
	}
	if d.After != "" {
		e.After = json.RawMessage(d.After)
	}
	return e, nil
}

// MongoStore keeps audit records in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger zerolog.Logger
}

// NewMongoStore connects to uri and ensures the listing index exists.
func NewMongoStore(ctx context.Context, uri, database string, logger zerolog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(auditCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "resource", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create audit index: %w", err)
	}

	logger = logger.With().Str("store", "audit-mongo").Logger()
	logger.Info().Str("database", database).Msg("mongodb audit store ready")

	return &MongoStore{client: client, coll: coll, logger: logger}, nil
}

func (s *MongoStore) Insert(ctx context.Context, e *model.AuditLog) error {
	if _, err := s.coll.InsertOne(ctx, toDocument(e)); err != nil {
		return fmt.Errorf("failed to insert audit document: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, f model.AuditFilter) ([]model.AuditLog, int, error) {
	page, limit := model.ClampPage(f.Page, f.Limit)

	filter := bson.M{}
	if f.Resource != "" {
		filter["resource"] = f.Resource
	}
	if f.Action != "" {
		filter["action"] = string(f.Action)
	}
	if f.ActorID != nil {
		filter["actorId"] = f.ActorID.String()
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count audit documents")
		return nil, 0, fmt.Errorf("failed to count audit documents: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(model.Offset(page, limit))).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query audit documents")
		return nil, 0, fmt.Errorf("failed to query audit documents: %w", err)
	}

	var docs []auditDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode audit documents: %w", err)
	}

	logs := make([]model.AuditLog, 0, len(docs))
	for _, d := range docs {
		e, err := d.toModel()
		if err != nil {
			s.logger.Warn().Err(err).Str("id", d.ID).Msg("skipping malformed audit document")
			continue
		}
		logs = append(logs, e)
	}
	return logs, int(total), nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
