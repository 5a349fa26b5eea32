// ABOUTME: Database operations for the append-only sync_log table
// ABOUTME: Records every sync outcome for operator visibility, never read for control flow
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/models"
)

// AppendSyncLog writes one audit entry. Log failures are reported but the
// callers treat them as non-fatal.
func AppendSyncLog(db *sql.DB, entry *models.SyncLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := db.Exec(`
		INSERT INTO sync_log (id, direction, action, local_type, local_id, remote_type, remote_id, status, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID.String(), entry.Direction, entry.Action, entry.LocalType, entry.LocalID,
		entry.RemoteType, entry.RemoteID, entry.Status, entry.Message)

	if err != nil {
		return fmt.Errorf("failed to append sync log: %w", err)
	}

	return nil
}

// ListSyncLog returns recent log entries, newest first, optionally filtered
// by local entity.
func ListSyncLog(db *sql.DB, localType, localID string, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error

	if localType != "" && localID != "" {
		rows, err = db.Query(`
			SELECT id, direction, action, local_type, local_id, remote_type, remote_id, status, message, created_at
			FROM sync_log
			WHERE local_type = ? AND local_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		`, localType, localID, limit)
	} else {
		rows, err = db.Query(`
			SELECT id, direction, action, local_type, local_id, remote_type, remote_id, status, message, created_at
			FROM sync_log
			ORDER BY created_at DESC
			LIMIT ?
		`, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var entry models.SyncLogEntry
		var remoteID sql.NullString
		var message sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Direction,
			&entry.Action,
			&entry.LocalType,
			&entry.LocalID,
			&entry.RemoteType,
			&remoteID,
			&entry.Status,
			&message,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync log entry: %w", err)
		}

		if remoteID.Valid {
			entry.RemoteID = remoteID.String
		}
		if message.Valid {
			entry.Message = message.String
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
