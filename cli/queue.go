// ABOUTME: Queue CLI commands
// ABOUTME: Handles processing, listing, enqueueing, and retrying sync queue items
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/config"
	"github.com/harperreed/crmbridge/db"
	"github.com/harperreed/crmbridge/models"
	"github.com/harperreed/crmbridge/queue"
)

// QueueProcessCommand runs one processor invocation over due items.
// Meant to be invoked from cron or a systemd timer.
func QueueProcessCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Max items to process")
	_ = fs.Parse(args)

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	translators, err := buildTranslators(ctx, database, cfg)
	if err != nil {
		return err
	}

	processor := queue.NewProcessor(database, translators)
	result, err := processor.Process(ctx, *limit)
	if err != nil {
		return fmt.Errorf("queue processing failed: %w", err)
	}

	fmt.Printf("✓ Claimed %d items: %d completed, %d retried, %d failed\n",
		result.Claimed, result.Completed, result.Retried, result.Failed)
	if result.Cleaned > 0 {
		fmt.Printf("✓ Cleaned up %d retired items\n", result.Cleaned)
	}

	return nil
}

// QueueListCommand lists queue items with status and attempt counts.
func QueueListCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (pending, processing, completed, failed)")
	limit := fs.Int("limit", 50, "Max results")
	_ = fs.Parse(args)

	items, err := db.ListQueueItems(database, *status, *limit)
	if err != nil {
		return fmt.Errorf("failed to list queue items: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	for _, item := range items {
		line := fmt.Sprintf("%s  %-13s %-10s %s/%s  attempts %d/%d  due %s",
			item.ID, item.Operation, item.Status, item.LocalType, item.LocalID,
			item.Attempts, item.MaxAttempts, item.ScheduledAt.Format(time.RFC3339))
		if item.ErrorMessage != "" {
			line += "  error: " + item.ErrorMessage
		}
		fmt.Println(line)
	}

	return nil
}

// QueueEnqueueCommand inserts a pending sync operation manually.
func QueueEnqueueCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	operation := fs.String("op", models.OpUpdate, "Operation (create, update, update_status, delete)")
	priority := fs.Int("priority", 10, "Priority (lower runs first)")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("booking ID required")
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid booking ID: %w", err)
	}

	item, err := db.EnqueueSync(database, *operation, models.LocalBooking, id.String(), *priority)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Enqueued %s for booking %s (item %s)\n", item.Operation, id, item.ID)
	return nil
}

// QueueRetryCommand resets a failed item back to pending for another run.
func QueueRetryCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("retry", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("queue item ID required")
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid queue item ID: %w", err)
	}

	item, err := db.GetQueueItem(database, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item not found: %s", id)
	}
	if item.Status != models.QueueFailed {
		return fmt.Errorf("only failed items can be retried (item is %s)", item.Status)
	}

	// Re-enqueue fresh so attempts start over; the old item stays for audit
	retried, err := db.EnqueueSync(database, item.Operation, item.LocalType, item.LocalID, item.Priority)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Re-enqueued %s as %s\n", id, retried.ID)
	return nil
}
