// ABOUTME: Database operations for the crm_mappings table
// ABOUTME: Single source of truth for local-entity to remote-object associations
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/crmbridge/models"
)

// FindMapping returns the remote ID mapped to a local entity, or empty string if none.
func FindMapping(db *sql.DB, localType, localID, remoteType string) (string, error) {
	var remoteID string
	err := db.QueryRow(`
		SELECT remote_id FROM crm_mappings
		WHERE local_type = ? AND local_id = ? AND remote_type = ?
	`, localType, localID, remoteType).Scan(&remoteID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find mapping: %w", err)
	}

	return remoteID, nil
}

// FindMappingByRemote resolves a remote object back to its local entity.
// Returns nil if no mapping exists.
func FindMappingByRemote(db *sql.DB, remoteType, remoteID string) (*models.MappingRecord, error) {
	record := &models.MappingRecord{}
	err := db.QueryRow(`
		SELECT local_type, local_id, remote_type, remote_id, sync_status, last_sync
		FROM crm_mappings
		WHERE remote_type = ? AND remote_id = ?
	`, remoteType, remoteID).Scan(
		&record.LocalType,
		&record.LocalID,
		&record.RemoteType,
		&record.RemoteID,
		&record.SyncStatus,
		&record.LastSync,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find mapping by remote: %w", err)
	}

	return record, nil
}

// UpsertMapping writes a mapping row with replace semantics. Repeated calls
// with the same key keep exactly one row carrying the latest remote ID.
func UpsertMapping(db *sql.DB, localType, localID, remoteType, remoteID string) error {
	_, err := db.Exec(`
		INSERT INTO crm_mappings (local_type, local_id, remote_type, remote_id, sync_status, last_sync)
		VALUES (?, ?, ?, ?, 'synced', ?)
		ON CONFLICT(local_type, local_id, remote_type) DO UPDATE SET
			remote_id = excluded.remote_id,
			sync_status = 'synced',
			last_sync = excluded.last_sync
	`, localType, localID, remoteType, remoteID, time.Now())

	if err != nil {
		return fmt.Errorf("failed to upsert mapping: %w", err)
	}

	return nil
}

// RemoveMapping deletes the mapping row for a remote object. Used when the
// remote object is deleted or migrates to a different object kind.
func RemoveMapping(db *sql.DB, remoteType, remoteID string) error {
	_, err := db.Exec(`
		DELETE FROM crm_mappings WHERE remote_type = ? AND remote_id = ?
	`, remoteType, remoteID)

	if err != nil {
		return fmt.Errorf("failed to remove mapping: %w", err)
	}

	return nil
}

// RemoveMappingsByLocal deletes all mapping rows for a local entity.
func RemoveMappingsByLocal(db *sql.DB, localType, localID string) error {
	_, err := db.Exec(`
		DELETE FROM crm_mappings WHERE local_type = ? AND local_id = ?
	`, localType, localID)

	if err != nil {
		return fmt.Errorf("failed to remove mappings: %w", err)
	}

	return nil
}

// MarkMappingStatus updates the sync status of an existing mapping row.
func MarkMappingStatus(db *sql.DB, localType, localID, remoteType, status string) error {
	_, err := db.Exec(`
		UPDATE crm_mappings SET sync_status = ?, last_sync = ?
		WHERE local_type = ? AND local_id = ? AND remote_type = ?
	`, status, time.Now(), localType, localID, remoteType)

	if err != nil {
		return fmt.Errorf("failed to mark mapping status: %w", err)
	}

	return nil
}

// MigrateMapping atomically moves a local entity's mapping from one remote
// object kind to another, replacing the remote ID. Used for lead conversion.
func MigrateMapping(db *sql.DB, localType, localID, oldRemoteType, newRemoteType, newRemoteID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	_, err = tx.Exec(`
		DELETE FROM crm_mappings WHERE local_type = ? AND local_id = ? AND remote_type = ?
	`, localType, localID, oldRemoteType)
	if err != nil {
		return fmt.Errorf("failed to remove old mapping: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO crm_mappings (local_type, local_id, remote_type, remote_id, sync_status, last_sync)
		VALUES (?, ?, ?, ?, 'synced', ?)
		ON CONFLICT(local_type, local_id, remote_type) DO UPDATE SET
			remote_id = excluded.remote_id,
			sync_status = 'synced',
			last_sync = excluded.last_sync
	`, localType, localID, newRemoteType, newRemoteID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert new mapping: %w", err)
	}

	return tx.Commit()
}

// ListMappings returns all mapping rows, newest sync first.
func ListMappings(db *sql.DB, limit int) ([]models.MappingRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.Query(`
		SELECT local_type, local_id, remote_type, remote_id, sync_status, last_sync
		FROM crm_mappings
		ORDER BY last_sync DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var records []models.MappingRecord
	for rows.Next() {
		var r models.MappingRecord
		if err := rows.Scan(&r.LocalType, &r.LocalID, &r.RemoteType, &r.RemoteID, &r.SyncStatus, &r.LastSync); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
