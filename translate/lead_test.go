// ABOUTME: Tests for the lead translator
// ABOUTME: Covers lead-specific defaults and lead-to-contact conversion
package translate

import (
	"context"
	"strings"
	"testing"

	"github.com/harperreed/crmbridge/crm"
	"github.com/harperreed/crmbridge/db"
	"github.com/harperreed/crmbridge/models"
)

func TestLeadSyncDefaults(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()
	api := &fakeAPI{nextID: "00Qlead"}
	translator := NewLeadTranslator(database, api)

	booking := &models.Booking{}
	if err := db.CreateBooking(database, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if _, err := translator.SyncFromLocal(context.Background(), booking.ID); err != nil {
		t.Fatalf("SyncFromLocal failed: %v", err)
	}

	payload := api.createCalls[0].payload
	if payload["LastName"] != "Unknown" {
		t.Errorf("Expected default LastName Unknown, got %v", payload["LastName"])
	}
	if payload["Company"] != "Individual" {
		t.Errorf("Expected default Company Individual, got %v", payload["Company"])
	}
}

func TestLeadUpdateStatusStages(t *testing.T) {
	tests := []struct {
		status string
		stage  string
	}{
		{models.BookingPending, "Open - Not Contacted"},
		{models.BookingAcknowledged, "Working - Contacted"},
		{models.BookingCompleted, "Closed - Converted"},
		{models.BookingCancelled, "Closed - Not Converted"},
		{models.BookingMissed, "Closed - Not Converted"},
		{"never_heard_of_it", "Open - Not Contacted"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			database := setupTestDB(t)
			defer database.Close()
			api := &fakeAPI{}
			translator := NewLeadTranslator(database, api)

			booking := newBooking(t, database, "Ada Lovelace", "ada@example.com")
			if err := db.UpsertMapping(database, models.LocalBooking, booking.ID.String(), models.RemoteLead, "00Qabc"); err != nil {
				t.Fatalf("UpsertMapping failed: %v", err)
			}

			if err := translator.UpdateStatusFromLocal(context.Background(), booking.ID, tt.status); err != nil {
				t.Fatalf("UpdateStatusFromLocal failed: %v", err)
			}
			if api.updateCalls[0].payload["Status"] != tt.stage {
				t.Errorf("Expected stage %q, got %v", tt.stage, api.updateCalls[0].payload["Status"])
			}
		})
	}
}

func TestLeadConversionMigratesMapping(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()
	translator := NewLeadTranslator(database, &fakeAPI{})

	booking := newBooking(t, database, "Ada Lovelace", "ada@example.com")
	if err := db.UpsertMapping(database, models.LocalBooking, booking.ID.String(), models.RemoteLead, "00Qlead"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	fields := map[string]any{"ConvertedContactId": "003conv"}
	if err := translator.ApplyInbound(context.Background(), "00Qlead", fields, EventConverted); err != nil {
		t.Fatalf("ApplyInbound failed: %v", err)
	}

	// Lead mapping replaced by contact mapping
	leadID, _ := db.FindMapping(database, models.LocalBooking, booking.ID.String(), models.RemoteLead)
	if leadID != "" {
		t.Error("Expected lead mapping removed after conversion")
	}
	contactID, _ := db.FindMapping(database, models.LocalBooking, booking.ID.String(), models.RemoteContact)
	if contactID != "003conv" {
		t.Errorf("Expected contact mapping 003conv, got %q", contactID)
	}

	// One audit entry naming both remote IDs
	entries, err := db.ListSyncLog(database, models.LocalBooking, booking.ID.String(), 0)
	if err != nil {
		t.Fatalf("ListSyncLog failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Action != "convert" {
		t.Errorf("Expected convert action, got %s", entries[0].Action)
	}
	if !strings.Contains(entries[0].Message, "00Qlead") || !strings.Contains(entries[0].Message, "003conv") {
		t.Errorf("Expected both remote IDs in message, got %q", entries[0].Message)
	}
}

func TestLeadConversionUnmappedSkips(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()
	translator := NewLeadTranslator(database, &fakeAPI{})

	fields := map[string]any{"ConvertedContactId": "003conv"}
	if err := translator.ApplyInbound(context.Background(), "00Qstranger", fields, EventConverted); err != nil {
		t.Errorf("Conversion for unmapped lead should be skipped, got %v", err)
	}

	record, _ := db.FindMappingByRemote(database, models.RemoteContact, "003conv")
	if record != nil {
		t.Error("Expected no contact mapping created")
	}
}

func TestLeadConversionMissingContactID(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()
	translator := NewLeadTranslator(database, &fakeAPI{})

	err := translator.ApplyInbound(context.Background(), "00Qlead", map[string]any{}, EventConverted)
	if err == nil {
		t.Fatal("Expected error for conversion without contact id")
	}
	if crm.IsRetryable(err) {
		t.Error("Malformed conversion event should not be retryable")
	}
}
