// ABOUTME: Tests for the crm_mappings table operations
// ABOUTME: Covers upsert replace semantics, lookups in both directions, and migration
package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/models"
)

func TestUpsertAndFindMapping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()

	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003abc"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	remoteID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteContact)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if remoteID != "003abc" {
		t.Errorf("Expected remote ID 003abc, got %s", remoteID)
	}
}

func TestFindMappingMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	remoteID, err := FindMapping(db, models.LocalBooking, uuid.New().String(), models.RemoteContact)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if remoteID != "" {
		t.Errorf("Expected empty remote ID, got %s", remoteID)
	}
}

func TestUpsertMappingReplaces(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()

	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003old"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003new"); err != nil {
		t.Fatalf("Second UpsertMapping failed: %v", err)
	}

	// Last write wins, exactly one row remains
	remoteID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteContact)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if remoteID != "003new" {
		t.Errorf("Expected remote ID 003new, got %s", remoteID)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM crm_mappings WHERE local_id = ?`, localID).Scan(&count); err != nil {
		t.Fatalf("Failed to count mappings: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 mapping row, got %d", count)
	}
}

func TestFindMappingByRemote(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteLead, "00Qxyz"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	record, err := FindMappingByRemote(db, models.RemoteLead, "00Qxyz")
	if err != nil {
		t.Fatalf("FindMappingByRemote failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected mapping record, got nil")
	}
	if record.LocalID != localID {
		t.Errorf("Expected local ID %s, got %s", localID, record.LocalID)
	}
	if record.SyncStatus != models.MappingSynced {
		t.Errorf("Expected synced status, got %s", record.SyncStatus)
	}

	missing, err := FindMappingByRemote(db, models.RemoteLead, "00Qnope")
	if err != nil {
		t.Fatalf("FindMappingByRemote failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown remote ID")
	}
}

func TestSameLocalMultipleRemoteTypes(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()

	// One booking can map to a Contact and an Opportunity at once
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003aaa"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteOpportunity, "006bbb"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	contactID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteContact)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if contactID != "003aaa" {
		t.Errorf("Expected 003aaa, got %s", contactID)
	}

	oppID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteOpportunity)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if oppID != "006bbb" {
		t.Errorf("Expected 006bbb, got %s", oppID)
	}
}

func TestRemoveMapping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003abc"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	if err := RemoveMapping(db, models.RemoteContact, "003abc"); err != nil {
		t.Fatalf("RemoveMapping failed: %v", err)
	}

	remoteID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteContact)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if remoteID != "" {
		t.Error("Expected mapping to be gone")
	}
}

func TestRemoveMappingsByLocal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003abc"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteOpportunity, "006def"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	if err := RemoveMappingsByLocal(db, models.LocalBooking, localID); err != nil {
		t.Fatalf("RemoveMappingsByLocal failed: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM crm_mappings WHERE local_id = ?`, localID).Scan(&count); err != nil {
		t.Fatalf("Failed to count mappings: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 mapping rows, got %d", count)
	}
}

func TestMarkMappingStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003abc"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	if err := MarkMappingStatus(db, models.LocalBooking, localID, models.RemoteContact, models.MappingError); err != nil {
		t.Fatalf("MarkMappingStatus failed: %v", err)
	}

	record, err := FindMappingByRemote(db, models.RemoteContact, "003abc")
	if err != nil {
		t.Fatalf("FindMappingByRemote failed: %v", err)
	}
	if record.SyncStatus != models.MappingError {
		t.Errorf("Expected error status, got %s", record.SyncStatus)
	}
}

func TestMigrateMapping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteLead, "00Qlead"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	if err := MigrateMapping(db, models.LocalBooking, localID, models.RemoteLead, models.RemoteContact, "003conv"); err != nil {
		t.Fatalf("MigrateMapping failed: %v", err)
	}

	// Lead mapping is gone
	leadID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteLead)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if leadID != "" {
		t.Error("Expected lead mapping to be removed")
	}

	// Contact mapping points at the converted object
	contactID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteContact)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if contactID != "003conv" {
		t.Errorf("Expected 003conv, got %s", contactID)
	}

	// No intermediate state left behind
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM crm_mappings WHERE local_id = ?`, localID).Scan(&count); err != nil {
		t.Fatalf("Failed to count mappings: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 mapping row after migration, got %d", count)
	}
}

func TestMigrateMappingOverExistingTarget(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	localID := uuid.New().String()
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteLead, "00Qlead"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}
	if err := UpsertMapping(db, models.LocalBooking, localID, models.RemoteContact, "003stale"); err != nil {
		t.Fatalf("UpsertMapping failed: %v", err)
	}

	if err := MigrateMapping(db, models.LocalBooking, localID, models.RemoteLead, models.RemoteContact, "003fresh"); err != nil {
		t.Fatalf("MigrateMapping failed: %v", err)
	}

	contactID, err := FindMapping(db, models.LocalBooking, localID, models.RemoteContact)
	if err != nil {
		t.Fatalf("FindMapping failed: %v", err)
	}
	if contactID != "003fresh" {
		t.Errorf("Expected 003fresh, got %s", contactID)
	}
}
