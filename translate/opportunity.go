// ABOUTME: Opportunity translator for booking-to-CRM synchronization
// ABOUTME: Maps booking lifecycle onto opportunity stages with close dates on terminal stages
package translate

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/crm"
	"github.com/harperreed/crmbridge/models"
)

// OpportunityTranslator syncs bookings against remote Opportunity objects.
type OpportunityTranslator struct {
	base
}

func NewOpportunityTranslator(database *sql.DB, api crm.API) *OpportunityTranslator {
	return &OpportunityTranslator{base{db: database, api: api}}
}

func (t *OpportunityTranslator) ObjectType() string {
	return models.RemoteOpportunity
}

func (t *OpportunityTranslator) SyncFromLocal(ctx context.Context, localID uuid.UUID) (string, error) {
	return t.syncFromLocal(ctx, models.RemoteOpportunity, localID, func(payload map[string]any, booking *models.Booking) {
		// Opportunities require a name, a stage, and a close date
		if s, _ := payload["Name"].(string); s == "" {
			if booking.ServiceName != "" {
				payload["Name"] = booking.ServiceName + " - " + booking.CustomerName
			} else {
				payload["Name"] = "Booking - " + booking.CustomerName
			}
		}
		if _, ok := payload["StageName"]; !ok {
			payload["StageName"] = stageFor(opportunityStages, booking.Status, defaultOpportunityStage)
		}
		if _, ok := payload["CloseDate"]; !ok {
			payload["CloseDate"] = time.Now().Format("2006-01-02")
		}
	})
}

func (t *OpportunityTranslator) UpdateStatusFromLocal(ctx context.Context, localID uuid.UUID, status string) error {
	stage := stageFor(opportunityStages, status, defaultOpportunityStage)
	payload := map[string]any{
		"StageName": stage,
	}
	// Terminal stages carry the date the booking closed out
	if bucket := StageBucket(stage); bucket == BucketWon || bucket == BucketLost {
		payload["CloseDate"] = time.Now().Format("2006-01-02")
	}
	return t.updateStatus(ctx, t, models.RemoteOpportunity, localID, payload)
}

func (t *OpportunityTranslator) ApplyInbound(ctx context.Context, remoteID string, fields map[string]any, eventKind string) error {
	return t.applyInbound(ctx, models.RemoteOpportunity, remoteID, fields, eventKind)
}
