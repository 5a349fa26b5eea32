// ABOUTME: Direct sync CLI commands
// ABOUTME: Runs translators immediately for one booking, bypassing the queue
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
)

// SyncBookingCommand pushes one booking to the CRM right now.
func SyncBookingCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("booking", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("booking ID required")
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid booking ID: %w", err)
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	translators, err := buildTranslators(ctx, database, cfg)
	if err != nil {
		return err
	}

	for _, t := range translators {
		remoteID, err := t.SyncFromLocal(ctx, id)
		if err != nil {
			fmt.Printf("  ✗ %s sync failed: %v\n", t.ObjectType(), err)
			continue
		}
		fmt.Printf("  ✓ %s synced as %s\n", t.ObjectType(), remoteID)
	}

	return nil
}

// MappingsListCommand lists local-to-remote mapping rows.
func MappingsListCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("mappings", flag.ExitOnError)
	limit := fs.Int("limit", 100, "Max results")
	_ = fs.Parse(args)

	records, err := db.ListMappings(database, *limit)
	if err != nil {
		return fmt.Errorf("failed to list mappings: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No mappings found")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s/%s → %s %s  [%s]  %s\n",
			r.LocalType, r.LocalID, r.RemoteType, r.RemoteID, r.SyncStatus, r.LastSync.Format(time.RFC3339))
	}

	return nil
}

// LogListCommand shows recent sync log entries.
func LogListCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	localID := fs.String("booking", "", "Filter by booking ID")
	limit := fs.Int("limit", 50, "Max results")
	_ = fs.Parse(args)

	localType := ""
	if *localID != "" {
		localType = models.LocalBooking
	}

	entries, err := db.ListSyncLog(database, localType, *localID, *limit)
	if err != nil {
		return fmt.Errorf("failed to list sync log: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Sync log is empty")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %-13s %s/%s → %s %s  [%s]",
			e.CreatedAt.Format(time.RFC3339), e.Direction, e.Action,
			e.LocalType, e.LocalID, e.RemoteType, e.RemoteID, e.Status)
		if e.Message != "" {
			line += "  " + e.Message
		}
		fmt.Println(line)
	}

	return nil
}

// RulesLoadCommand imports field mapping rules from a YAML file.
func RulesLoadCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("load-rules", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("rules file path required")
	}

	count, err := db.LoadFieldMappingRulesFile(database, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("✓ Loaded %d field mapping rules\n", count)
	return nil
}
