// ABOUTME: Data models for the CRM sync engine
// ABOUTME: Defines Booking, MappingRecord, QueueItem, FieldMappingRule, and SyncLogEntry structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking is the local entity the engine keeps in sync with the remote CRM.
type Booking struct {
	ID            uuid.UUID  `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	ServiceName   string     `json:"service_name,omitempty"`
	Status        string     `json:"status"`
	AmountCents   int64      `json:"amount_cents,omitempty"`
	Currency      string     `json:"currency"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Booking status constants.
const (
	BookingPending      = "pending"
	BookingAcknowledged = "acknowledged"
	BookingCompleted    = "completed"
	BookingCancelled    = "cancelled"
	BookingMissed       = "missed"
)

// Remote object kinds.
const (
	RemoteContact     = "Contact"
	RemoteLead        = "Lead"
	RemoteOpportunity = "Opportunity"
)

// Local entity types.
const (
	LocalBooking = "booking"
)

// MappingRecord associates a local entity with a remote CRM object.
// At most one row exists per (local_type, local_id, remote_type).
type MappingRecord struct {
	LocalType  string    `json:"local_type"`
	LocalID    string    `json:"local_id"`
	RemoteType string    `json:"remote_type"`
	RemoteID   string    `json:"remote_id"`
	SyncStatus string    `json:"sync_status"`
	LastSync   time.Time `json:"last_sync"`
}

// Mapping sync status constants.
const (
	MappingSynced = "synced"
	MappingStale  = "stale"
	MappingError  = "error"
)

// Queue operation constants.
const (
	OpCreate       = "create"
	OpUpdate       = "update"
	OpUpdateStatus = "update_status"
	OpDelete       = "delete"
)

// Queue item status constants.
const (
	QueuePending    = "pending"
	QueueProcessing = "processing"
	QueueCompleted  = "completed"
	QueueFailed     = "failed"
)

// QueueItem is a durable pending sync operation for a local entity.
type QueueItem struct {
	ID           uuid.UUID  `json:"id"`
	Operation    string     `json:"operation"`
	LocalType    string     `json:"local_type"`
	LocalID      string     `json:"local_id"`
	Priority     int        `json:"priority"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	ErrorMessage string     `json:"error_message,omitempty"`
	WorkerToken  string     `json:"worker_token,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Sync direction constants for field mapping rules.
const (
	DirectionBoth       = "both"
	DirectionToRemote   = "to_remote"
	DirectionFromRemote = "from_remote"
)

// Transform name constants. The set is closed; the mapping engine
// rejects rules naming anything else at load time.
const (
	TransformIdentity    = "identity"
	TransformUppercase   = "uppercase"
	TransformLowercase   = "lowercase"
	TransformTitlecase   = "titlecase"
	TransformDateISO     = "date_iso"
	TransformDatetimeISO = "datetime_iso"
	TransformFloat       = "float"
	TransformInt         = "int"
	TransformBool        = "bool"
)

// FieldMappingRule translates one local field to one remote field.
// Rules are configured out-of-band and read-only at sync time.
type FieldMappingRule struct {
	ObjectType  string `json:"object_type" yaml:"object_type"`
	LocalField  string `json:"local_field" yaml:"local_field"`
	RemoteField string `json:"remote_field" yaml:"remote_field"`
	Direction   string `json:"direction" yaml:"direction"`
	Transform   string `json:"transform" yaml:"transform"`
	IsActive    bool   `json:"is_active" yaml:"is_active"`
}

// Sync log direction constants.
const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// Sync log status constants.
const (
	LogSuccess = "success"
	LogError   = "error"
)

// SyncLogEntry is one row of the append-only sync audit trail.
type SyncLogEntry struct {
	ID         uuid.UUID `json:"id"`
	Direction  string    `json:"direction"`
	Action     string    `json:"action"`
	LocalType  string    `json:"local_type"`
	LocalID    string    `json:"local_id"`
	RemoteType string    `json:"remote_type"`
	RemoteID   string    `json:"remote_id,omitempty"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
