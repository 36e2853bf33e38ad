package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction enumerates the admin actions recorded in the audit trail.
type AuditAction string

const (
	AuditCreate           AuditAction = "create"
	AuditUpdate           AuditAction = "update"
	AuditDelete           AuditAction = "delete"
	AuditStatusChange     AuditAction = "status_change"
	AuditStockUpdate      AuditAction = "stock_update"
	AuditPermissionChange AuditAction = "permission_change"
	AuditRoleChange       AuditAction = "role_change"
	AuditReturnProcessed  AuditAction = "return_processed"
	AuditInventoryImport  AuditAction = "inventory_import"
)

// AuditLog is one advisory record of an admin mutation.
type AuditLog struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actorId"`
	ActorRole  Role            `json:"actorRole"`
	Action     AuditAction     `json:"action"`
	Resource   string          `json:"resource"`
	ResourceID string          `json:"resourceId"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	IP         string          `json:"ip"`
	UserAgent  string          `json:"userAgent"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Actor identifies who performed an admin request and from where.
type Actor struct {
	ID        uuid.UUID
	Role      Role
	IP        string
	UserAgent string
}

// AuditFilter holds audit listing criteria.
type AuditFilter struct {
	Resource string
	Action   AuditAction
	ActorID  *uuid.UUID
	Page     int
	Limit    int
}
