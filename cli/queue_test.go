// ABOUTME: Tests for queue CLI commands
// ABOUTME: Verifies enqueue validation and the failed-item retry path
package cli

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/db"
	"github.com/harperreed/crmbridge/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	if err := db.InitSchema(database); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return database
}

func TestQueueEnqueueCommand(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	booking := &models.Booking{CustomerName: "CLI Customer"}
	if err := db.CreateBooking(database, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	err := QueueEnqueueCommand(database, []string{"--op", "update_status", "--priority", "5", booking.ID.String()})
	if err != nil {
		t.Fatalf("QueueEnqueueCommand failed: %v", err)
	}

	items, err := db.ListQueueItems(database, models.QueuePending, 0)
	if err != nil {
		t.Fatalf("ListQueueItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 pending item, got %d", len(items))
	}
	if items[0].Operation != models.OpUpdateStatus {
		t.Errorf("Expected update_status operation, got %s", items[0].Operation)
	}
	if items[0].Priority != 5 {
		t.Errorf("Expected priority 5, got %d", items[0].Priority)
	}
}

func TestQueueEnqueueCommandRequiresID(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	if err := QueueEnqueueCommand(database, []string{}); err == nil {
		t.Error("Expected error without booking ID")
	}
	if err := QueueEnqueueCommand(database, []string{"not-a-uuid"}); err == nil {
		t.Error("Expected error for invalid booking ID")
	}
}

func TestQueueRetryCommand(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	item, err := db.EnqueueSync(database, models.OpCreate, models.LocalBooking, uuid.New().String(), 10)
	if err != nil {
		t.Fatalf("EnqueueSync failed: %v", err)
	}
	if err := db.FailQueueItem(database, item.ID, "gave up"); err != nil {
		t.Fatalf("FailQueueItem failed: %v", err)
	}

	if err := QueueRetryCommand(database, []string{item.ID.String()}); err != nil {
		t.Fatalf("QueueRetryCommand failed: %v", err)
	}

	// Old item stays for audit, a fresh pending item exists
	old, _ := db.GetQueueItem(database, item.ID)
	if old.Status != models.QueueFailed {
		t.Errorf("Expected original item to stay failed, got %s", old.Status)
	}

	pending, err := db.ListQueueItems(database, models.QueuePending, 0)
	if err != nil {
		t.Fatalf("ListQueueItems failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 fresh pending item, got %d", len(pending))
	}
	if pending[0].Attempts != 0 {
		t.Errorf("Expected attempts reset, got %d", pending[0].Attempts)
	}
	if pending[0].LocalID != item.LocalID {
		t.Errorf("Expected same local entity, got %s", pending[0].LocalID)
	}
}

func TestQueueRetryCommandRejectsNonFailed(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	item, err := db.EnqueueSync(database, models.OpCreate, models.LocalBooking, uuid.New().String(), 10)
	if err != nil {
		t.Fatalf("EnqueueSync failed: %v", err)
	}

	if err := QueueRetryCommand(database, []string{item.ID.String()}); err == nil {
		t.Error("Expected error retrying a pending item")
	}
	if err := QueueRetryCommand(database, []string{uuid.New().String()}); err == nil {
		t.Error("Expected error for unknown item")
	}
}
