// ABOUTME: Booking CLI commands
// ABOUTME: Domain operations that insert pending sync queue items as a side effect
package cli

import (
	"database/sql"
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/db"
	"github.com/harperreed/crmbridge/models"
)

// AddBookingCommand creates a booking and enqueues its initial sync.
func AddBookingCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-booking", flag.ExitOnError)
	name := fs.String("name", "", "Customer name (required)")
	email := fs.String("email", "", "Customer email")
	phone := fs.String("phone", "", "Customer phone")
	service := fs.String("service", "", "Service name")
	amount := fs.Int64("amount", 0, "Amount in cents")
	currency := fs.String("currency", "USD", "Currency code")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	booking := &models.Booking{
		CustomerName:  *name,
		CustomerEmail: *email,
		CustomerPhone: *phone,
		ServiceName:   *service,
		AmountCents:   *amount,
		Currency:      *currency,
		Notes:         *notes,
	}

	if err := db.CreateBooking(database, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if _, err := db.EnqueueSync(database, models.OpCreate, models.LocalBooking, booking.ID.String(), 10); err != nil {
		return fmt.Errorf("failed to enqueue sync: %w", err)
	}

	fmt.Printf("✓ Created booking %s and queued CRM sync\n", booking.ID)
	return nil
}

// ListBookingsCommand lists bookings.
func ListBookingsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list-bookings", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Max results")
	_ = fs.Parse(args)

	bookings, err := db.ListBookings(database, *status, *limit)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}

	if len(bookings) == 0 {
		fmt.Println("No bookings found")
		return nil
	}

	for _, b := range bookings {
		fmt.Printf("%s  %-12s %-25s %s\n", b.ID, b.Status, b.CustomerName, b.CustomerEmail)
	}

	return nil
}

// SetBookingStatusCommand changes a booking's lifecycle status and enqueues
// a status sync.
func SetBookingStatusCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	status := fs.String("status", "", "New status (pending, acknowledged, completed, cancelled, missed)")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("booking ID required")
	}
	if *status == "" {
		return fmt.Errorf("--status is required")
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid booking ID: %w", err)
	}

	booking, err := db.GetBooking(database, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking not found: %s", id)
	}

	if err := db.UpdateBookingStatus(database, id, *status); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	// Status changes sync ahead of plain field updates
	if _, err := db.EnqueueSync(database, models.OpUpdateStatus, models.LocalBooking, id.String(), 5); err != nil {
		return fmt.Errorf("failed to enqueue status sync: %w", err)
	}

	fmt.Printf("✓ Booking %s is now %s, status sync queued\n", id, *status)
	return nil
}

// DeleteBookingCommand deletes a booking and enqueues mapping cleanup.
// The remote CRM objects are left intact.
func DeleteBookingCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("delete-booking", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("booking ID required")
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid booking ID: %w", err)
	}

	if err := db.DeleteBooking(database, id); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if _, err := db.EnqueueSync(database, models.OpDelete, models.LocalBooking, id.String(), 10); err != nil {
		return fmt.Errorf("failed to enqueue mapping cleanup: %w", err)
	}

	fmt.Printf("✓ Deleted booking %s, mapping cleanup queued\n", id)
	return nil
}
