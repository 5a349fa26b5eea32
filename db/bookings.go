// ABOUTME: Booking database operations
// ABOUTME: Handles CRUD operations and field lookups for local booking entities
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/models"
)

func CreateBooking(db *sql.DB, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if booking.Status == "" {
		booking.Status = models.BookingPending
	}
	if booking.Currency == "" {
		booking.Currency = "USD"
	}

	_, err := db.Exec(`
		INSERT INTO bookings (id, customer_name, customer_email, customer_phone, service_name, status, amount_cents, currency, starts_at, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, booking.ID.String(), booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone, booking.ServiceName,
		booking.Status, booking.AmountCents, booking.Currency, booking.StartsAt, booking.Notes, booking.CreatedAt, booking.UpdatedAt)

	return err
}

func GetBooking(db *sql.DB, id uuid.UUID) (*models.Booking, error) {
	booking := &models.Booking{}

	err := db.QueryRow(`
		SELECT id, customer_name, customer_email, customer_phone, service_name, status, amount_cents, currency, starts_at, notes, created_at, updated_at
		FROM bookings WHERE id = ?
	`, id.String()).Scan(
		&booking.ID,
		&booking.CustomerName,
		&booking.CustomerEmail,
		&booking.CustomerPhone,
		&booking.ServiceName,
		&booking.Status,
		&booking.AmountCents,
		&booking.Currency,
		&booking.StartsAt,
		&booking.Notes,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// FindBookingByEmail returns the most recent booking for a customer email,
// or nil if none exists. Used to correlate first-seen remote objects.
func FindBookingByEmail(db *sql.DB, email string) (*models.Booking, error) {
	var id string
	err := db.QueryRow(`
		SELECT id FROM bookings
		WHERE LOWER(customer_email) = LOWER(?)
		ORDER BY created_at DESC
		LIMIT 1
	`, email).Scan(&id)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking id: %w", err)
	}

	return GetBooking(db, parsed)
}

func UpdateBooking(db *sql.DB, id uuid.UUID, updates *models.Booking) error {
	updates.UpdatedAt = time.Now()

	_, err := db.Exec(`
		UPDATE bookings
		SET customer_name = ?, customer_email = ?, customer_phone = ?, service_name = ?, status = ?, amount_cents = ?, currency = ?, starts_at = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, updates.CustomerName, updates.CustomerEmail, updates.CustomerPhone, updates.ServiceName, updates.Status,
		updates.AmountCents, updates.Currency, updates.StartsAt, updates.Notes, updates.UpdatedAt, id.String())

	return err
}

func UpdateBookingStatus(db *sql.DB, id uuid.UUID, status string) error {
	_, err := db.Exec(`
		UPDATE bookings
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, status, time.Now(), id.String())

	return err
}

func DeleteBooking(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`DELETE FROM bookings WHERE id = ?`, id.String())
	return err
}

func ListBookings(db *sql.DB, status string, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.Query(`
			SELECT id, customer_name, customer_email, customer_phone, service_name, status, amount_cents, currency, starts_at, notes, created_at, updated_at
			FROM bookings
			WHERE status = ?
			ORDER BY created_at DESC
			LIMIT ?
		`, status, limit)
	} else {
		rows, err = db.Query(`
			SELECT id, customer_name, customer_email, customer_phone, service_name, status, amount_cents, currency, starts_at, notes, created_at, updated_at
			FROM bookings
			ORDER BY created_at DESC
			LIMIT ?
		`, limit)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.ServiceName, &b.Status,
			&b.AmountCents, &b.Currency, &b.StartsAt, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// BookingFields flattens a booking into the field map the mapping engine reads.
// service_name is resolved here so rules can target it like a stored column.
func BookingFields(booking *models.Booking) map[string]any {
	fields := map[string]any{
		"id":             booking.ID.String(),
		"customer_name":  booking.CustomerName,
		"customer_email": booking.CustomerEmail,
		"customer_phone": booking.CustomerPhone,
		"service_name":   booking.ServiceName,
		"status":         booking.Status,
		"currency":       booking.Currency,
		"notes":          booking.Notes,
	}
	if booking.AmountCents != 0 {
		fields["amount"] = float64(booking.AmountCents) / 100.0
	}
	if booking.StartsAt != nil {
		fields["starts_at"] = *booking.StartsAt
	}
	return fields
}

// ApplyBookingFields writes inbound remote values onto a booking row.
// Unknown field names are ignored so provider payloads can evolve.
func ApplyBookingFields(db *sql.DB, id uuid.UUID, fields map[string]any) error {
	booking, err := GetBooking(db, id)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return fmt.Errorf("booking not found: %s", id)
	}

	for name, value := range fields {
		s, _ := value.(string)
		switch name {
		case "customer_name":
			if s != "" {
				booking.CustomerName = s
			}
		case "customer_email":
			if s != "" {
				booking.CustomerEmail = s
			}
		case "customer_phone":
			if s != "" {
				booking.CustomerPhone = s
			}
		case "notes":
			if s != "" {
				booking.Notes = s
			}
		}
	}

	return UpdateBooking(db, id, booking)
}
