// ABOUTME: Lead translator for booking-to-CRM synchronization
// ABOUTME: Handles lead-specific defaults and the terminal lead-to-contact conversion
package translate

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/crm"
	"github.com/harperreed/crmbridge/db"
	"github.com/harperreed/crmbridge/models"
)

// LeadTranslator syncs bookings against remote Lead objects. Leads carry
// one terminal transition: conversion into a Contact, which migrates the
// mapping row without losing the booking's remote identity history (the
// sync log records both IDs).
type LeadTranslator struct {
	base
}

func NewLeadTranslator(database *sql.DB, api crm.API) *LeadTranslator {
	return &LeadTranslator{base{db: database, api: api}}
}

func (t *LeadTranslator) ObjectType() string {
	return models.RemoteLead
}

func (t *LeadTranslator) SyncFromLocal(ctx context.Context, localID uuid.UUID) (string, error) {
	return t.syncFromLocal(ctx, models.RemoteLead, localID, func(payload map[string]any, booking *models.Booking) {
		// Leads require both a surname and a company
		if s, _ := payload["LastName"].(string); s == "" {
			payload["LastName"] = "Unknown"
		}
		if s, _ := payload["Company"].(string); s == "" {
			payload["Company"] = "Individual"
		}
	})
}

func (t *LeadTranslator) UpdateStatusFromLocal(ctx context.Context, localID uuid.UUID, status string) error {
	payload := map[string]any{
		"Status": stageFor(leadStages, status, defaultLeadStage),
	}
	return t.updateStatus(ctx, t, models.RemoteLead, localID, payload)
}

func (t *LeadTranslator) ApplyInbound(ctx context.Context, remoteID string, fields map[string]any, eventKind string) error {
	if eventKind == EventConverted {
		return t.applyConversion(remoteID, fields)
	}
	return t.applyInbound(ctx, models.RemoteLead, remoteID, fields, eventKind)
}

// applyConversion migrates the Lead mapping to a Contact mapping in one
// transaction and records both remote IDs in the sync log.
func (t *LeadTranslator) applyConversion(remoteID string, fields map[string]any) error {
	newRemoteID := convertedContactID(fields)
	if newRemoteID == "" {
		return &crm.APIError{Kind: crm.ErrKindValidation, Message: "conversion event missing converted contact id"}
	}

	record, err := db.FindMappingByRemote(t.db, models.RemoteLead, remoteID)
	if err != nil {
		return err
	}
	if record == nil {
		log.Printf("conversion for unmapped lead %s, skipping", remoteID)
		return nil
	}

	if err := db.MigrateMapping(t.db, record.LocalType, record.LocalID, models.RemoteLead, models.RemoteContact, newRemoteID); err != nil {
		return err
	}

	t.logOutcome(models.DirectionInbound, "convert", record.LocalID, models.RemoteContact, newRemoteID,
		models.LogSuccess, fmt.Sprintf("lead %s converted to contact %s", remoteID, newRemoteID))
	return nil
}

func convertedContactID(fields map[string]any) string {
	for _, key := range []string{"ConvertedContactId", "converted_contact_id", "contact_id"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
