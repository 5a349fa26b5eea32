// ABOUTME: Contact translator for booking-to-CRM synchronization
// ABOUTME: Creates or updates remote Contact objects and applies inbound contact events
package translate

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/crm"
	"github.com/harperreed/crmbridge/models"
)

// ContactTranslator syncs bookings against remote Contact objects.
type ContactTranslator struct {
	base
}

func NewContactTranslator(database *sql.DB, api crm.API) *ContactTranslator {
	return &ContactTranslator{base{db: database, api: api}}
}

func (t *ContactTranslator) ObjectType() string {
	return models.RemoteContact
}

func (t *ContactTranslator) SyncFromLocal(ctx context.Context, localID uuid.UUID) (string, error) {
	return t.syncFromLocal(ctx, models.RemoteContact, localID, func(payload map[string]any, booking *models.Booking) {
		// Contacts require a surname
		if s, _ := payload["LastName"].(string); s == "" {
			payload["LastName"] = "Unknown"
		}
	})
}

func (t *ContactTranslator) UpdateStatusFromLocal(ctx context.Context, localID uuid.UUID, status string) error {
	payload := map[string]any{
		"Booking_Status__c": stageFor(contactStages, status, defaultContactStage),
	}
	return t.updateStatus(ctx, t, models.RemoteContact, localID, payload)
}

func (t *ContactTranslator) ApplyInbound(ctx context.Context, remoteID string, fields map[string]any, eventKind string) error {
	return t.applyInbound(ctx, models.RemoteContact, remoteID, fields, eventKind)
}
