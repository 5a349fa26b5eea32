// ABOUTME: Shared translator contract and helpers for remote object kinds
// ABOUTME: Handles mapping lookup, payload building, sync logging, and inbound correlation
package translate

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/crm"
	"github.com/harperreed/crmbridge/db"
	"github.com/harperreed/crmbridge/mapping"
	"github.com/harperreed/crmbridge/models"
)

// Event kinds delivered by webhook ingestion.
const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventDeleted   = "deleted"
	EventConverted = "converted"
)

// Translator syncs one remote object kind against local bookings.
type Translator interface {
	// ObjectType names the remote object kind this translator owns.
	ObjectType() string
	// SyncFromLocal pushes a booking to the remote system, creating the
	// remote object on first sync and updating it afterwards.
	SyncFromLocal(ctx context.Context, localID uuid.UUID) (string, error)
	// UpdateStatusFromLocal maps a local booking status onto the remote
	// object's stage field. Unmapped statuses use the default stage.
	UpdateStatusFromLocal(ctx context.Context, localID uuid.UUID, status string) error
	// ApplyInbound applies a webhook event for this object kind.
	ApplyInbound(ctx context.Context, remoteID string, fields map[string]any, eventKind string) error
}

// base carries the dependencies every translator shares.
type base struct {
	db  *sql.DB
	api crm.API
}

// engineFor loads the active rules for an object kind into a fresh engine.
// Rules are externally configured, so they are re-read on each operation.
func (b *base) engineFor(objectType string) (*mapping.Engine, error) {
	rules, err := db.GetFieldMappingRules(b.db, objectType)
	if err != nil {
		return nil, fmt.Errorf("failed to load field mapping rules: %w", err)
	}

	engine, err := mapping.NewEngine(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build mapping engine: %w", err)
	}

	return engine, nil
}

// loadBooking fetches the booking or returns a validation error so the
// processor fails the item without retrying.
func (b *base) loadBooking(localID uuid.UUID) (*models.Booking, error) {
	booking, err := db.GetBooking(b.db, localID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, &crm.APIError{Kind: crm.ErrKindValidation, Message: fmt.Sprintf("booking not found: %s", localID)}
	}
	return booking, nil
}

// logOutcome appends a sync log row. The log is operator visibility only,
// so a write failure is reported but never propagated.
func (b *base) logOutcome(direction, action, localID, remoteType, remoteID, status, message string) {
	entry := &models.SyncLogEntry{
		Direction:  direction,
		Action:     action,
		LocalType:  models.LocalBooking,
		LocalID:    localID,
		RemoteType: remoteType,
		RemoteID:   remoteID,
		Status:     status,
		Message:    message,
	}
	if err := db.AppendSyncLog(b.db, entry); err != nil {
		log.Printf("sync log write failed: %v", err)
	}
}

// syncFromLocal is the shared create-or-update path. defaults is applied to
// the built payload before the remote call.
func (b *base) syncFromLocal(ctx context.Context, objectType string, localID uuid.UUID, defaults func(payload map[string]any, booking *models.Booking)) (string, error) {
	booking, err := b.loadBooking(localID)
	if err != nil {
		return "", err
	}

	engine, err := b.engineFor(objectType)
	if err != nil {
		return "", err
	}

	payload := engine.BuildPayload(objectType, db.BookingFields(booking), nil)
	if defaults != nil {
		defaults(payload, booking)
	}

	remoteID, err := db.FindMapping(b.db, models.LocalBooking, localID.String(), objectType)
	if err != nil {
		return "", err
	}

	if remoteID == "" {
		remoteID, err = b.api.Create(ctx, objectType, payload)
		if err != nil {
			b.logOutcome(models.DirectionOutbound, "create", localID.String(), objectType, "", models.LogError, err.Error())
			return "", err
		}

		if err := db.UpsertMapping(b.db, models.LocalBooking, localID.String(), objectType, remoteID); err != nil {
			return "", err
		}

		b.logOutcome(models.DirectionOutbound, "create", localID.String(), objectType, remoteID, models.LogSuccess, "")
		return remoteID, nil
	}

	if err := b.api.Update(ctx, objectType, remoteID, payload); err != nil {
		b.logOutcome(models.DirectionOutbound, "update", localID.String(), objectType, remoteID, models.LogError, err.Error())
		_ = db.MarkMappingStatus(b.db, models.LocalBooking, localID.String(), objectType, models.MappingError)
		return "", err
	}

	if err := db.UpsertMapping(b.db, models.LocalBooking, localID.String(), objectType, remoteID); err != nil {
		return "", err
	}

	b.logOutcome(models.DirectionOutbound, "update", localID.String(), objectType, remoteID, models.LogSuccess, "")
	return remoteID, nil
}

// updateStatus pushes a stage payload for an already-synced booking,
// creating the remote object first if it was never synced.
func (b *base) updateStatus(ctx context.Context, t Translator, objectType string, localID uuid.UUID, payload map[string]any) error {
	remoteID, err := db.FindMapping(b.db, models.LocalBooking, localID.String(), objectType)
	if err != nil {
		return err
	}

	if remoteID == "" {
		if remoteID, err = t.SyncFromLocal(ctx, localID); err != nil {
			return err
		}
	}

	if err := b.api.Update(ctx, objectType, remoteID, payload); err != nil {
		b.logOutcome(models.DirectionOutbound, "update_status", localID.String(), objectType, remoteID, models.LogError, err.Error())
		return err
	}

	b.logOutcome(models.DirectionOutbound, "update_status", localID.String(), objectType, remoteID, models.LogSuccess, "")
	return nil
}

// applyInbound is the shared webhook path for created/updated/deleted
// events. Object-specific kinds (lead conversion) are layered on top.
func (b *base) applyInbound(ctx context.Context, objectType, remoteID string, fields map[string]any, eventKind string) error {
	switch eventKind {
	case EventCreated:
		return b.applyInboundCreated(objectType, remoteID, fields)
	case EventUpdated:
		return b.applyInboundUpdated(objectType, remoteID, fields)
	case EventDeleted:
		record, err := db.FindMappingByRemote(b.db, objectType, remoteID)
		if err != nil {
			return err
		}
		if err := db.RemoveMapping(b.db, objectType, remoteID); err != nil {
			return err
		}
		localID := ""
		if record != nil {
			localID = record.LocalID
		}
		b.logOutcome(models.DirectionInbound, "delete", localID, objectType, remoteID, models.LogSuccess, "remote object deleted")
		return nil
	default:
		// Tolerate provider payload evolution.
		log.Printf("ignoring unknown %s event kind %q", objectType, eventKind)
		return nil
	}
}

// applyInboundCreated establishes a mapping row for a remote object seen for
// the first time, correlating by booking ID field or customer email.
func (b *base) applyInboundCreated(objectType, remoteID string, fields map[string]any) error {
	existing, err := db.FindMappingByRemote(b.db, objectType, remoteID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	booking, err := b.correlateBooking(fields)
	if err != nil {
		return err
	}
	if booking == nil {
		log.Printf("no local booking matches inbound %s %s, skipping", objectType, remoteID)
		return nil
	}

	if err := db.UpsertMapping(b.db, models.LocalBooking, booking.ID.String(), objectType, remoteID); err != nil {
		return err
	}

	b.logOutcome(models.DirectionInbound, "create", booking.ID.String(), objectType, remoteID, models.LogSuccess, "mapping discovered from webhook")
	return b.writeBack(objectType, booking.ID, fields)
}

// applyInboundUpdated writes from-remote fields onto the mapped booking.
func (b *base) applyInboundUpdated(objectType, remoteID string, fields map[string]any) error {
	record, err := db.FindMappingByRemote(b.db, objectType, remoteID)
	if err != nil {
		return err
	}
	if record == nil {
		// Unknown remote objects are reconciled as first-seen creates.
		return b.applyInboundCreated(objectType, remoteID, fields)
	}

	localID, err := uuid.Parse(record.LocalID)
	if err != nil {
		return fmt.Errorf("failed to parse local id: %w", err)
	}

	if err := b.writeBack(objectType, localID, fields); err != nil {
		return err
	}

	b.logOutcome(models.DirectionInbound, "update", record.LocalID, objectType, remoteID, models.LogSuccess, "")
	return nil
}

// writeBack applies from-remote rule fields to the booking row.
func (b *base) writeBack(objectType string, localID uuid.UUID, fields map[string]any) error {
	engine, err := b.engineFor(objectType)
	if err != nil {
		return err
	}

	local := engine.LocalFields(objectType, fields)
	if len(local) == 0 {
		return nil
	}

	return db.ApplyBookingFields(b.db, localID, local)
}

// correlateBooking finds the local booking an inbound payload refers to.
// A booking ID field wins; otherwise the customer email is matched.
func (b *base) correlateBooking(fields map[string]any) (*models.Booking, error) {
	for _, key := range []string{"Booking_ID__c", "booking_id"} {
		if raw, ok := fields[key].(string); ok && raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			booking, err := db.GetBooking(b.db, id)
			if err != nil {
				return nil, err
			}
			if booking != nil {
				return booking, nil
			}
		}
	}

	for _, key := range []string{"Email", "email", "customer_email"} {
		if email, ok := fields[key].(string); ok && email != "" {
			return db.FindBookingByEmail(b.db, email)
		}
	}

	return nil, nil
}
