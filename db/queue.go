// ABOUTME: Database operations for the sync_queue table
// ABOUTME: Handles enqueueing, atomic claiming of due items, and retry bookkeeping
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/models"
)

// EnqueueSync inserts a new pending queue item for a local entity.
func EnqueueSync(db *sql.DB, operation, localType, localID string, priority int) (*models.QueueItem, error) {
	item := &models.QueueItem{
		ID:          uuid.New(),
		Operation:   operation,
		LocalType:   localType,
		LocalID:     localID,
		Priority:    priority,
		Status:      models.QueuePending,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
		CreatedAt:   time.Now(),
	}

	_, err := db.Exec(`
		INSERT INTO sync_queue (id, operation, local_type, local_id, priority, status, attempts, max_attempts, scheduled_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`, item.ID.String(), item.Operation, item.LocalType, item.LocalID, item.Priority, item.Status,
		item.MaxAttempts, item.ScheduledAt, item.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to enqueue sync item: %w", err)
	}

	return item, nil
}

// ClaimDueItems atomically marks up to limit due pending items as processing,
// stamped with workerToken, and returns them in (priority, scheduled_at)
// order. The single UPDATE makes the claim safe under concurrent processors.
func ClaimDueItems(db *sql.DB, workerToken string, limit int) ([]models.QueueItem, error) {
	if limit <= 0 {
		limit = 50
	}

	_, err := db.Exec(`
		UPDATE sync_queue
		SET status = 'processing', attempts = attempts + 1, worker_token = ?, claimed_at = ?
		WHERE id IN (
			SELECT id FROM sync_queue
			WHERE status = 'pending' AND scheduled_at <= ? AND attempts < max_attempts
			ORDER BY priority ASC, scheduled_at ASC
			LIMIT ?
		)
	`, workerToken, time.Now(), time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim queue items: %w", err)
	}

	rows, err := db.Query(`
		SELECT id, operation, local_type, local_id, priority, status, attempts, max_attempts, scheduled_at, error_message, worker_token, claimed_at, processed_at, created_at
		FROM sync_queue
		WHERE worker_token = ? AND status = 'processing'
		ORDER BY priority ASC, scheduled_at ASC
	`, workerToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load claimed items: %w", err)
	}
	defer rows.Close()

	return scanQueueItems(rows)
}

// CompleteQueueItem marks a claimed item as completed.
func CompleteQueueItem(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`
		UPDATE sync_queue
		SET status = 'completed', processed_at = ?, error_message = NULL, worker_token = NULL, claimed_at = NULL
		WHERE id = ?
	`, time.Now(), id.String())

	if err != nil {
		return fmt.Errorf("failed to complete queue item: %w", err)
	}

	return nil
}

// RescheduleQueueItem returns a claimed item to pending with a new run time.
func RescheduleQueueItem(db *sql.DB, id uuid.UUID, runAt time.Time, errorMsg string) error {
	_, err := db.Exec(`
		UPDATE sync_queue
		SET status = 'pending', scheduled_at = ?, error_message = ?, worker_token = NULL, claimed_at = NULL
		WHERE id = ?
	`, runAt, errorMsg, id.String())

	if err != nil {
		return fmt.Errorf("failed to reschedule queue item: %w", err)
	}

	return nil
}

// FailQueueItem marks an item as terminally failed. Failed items never
// transition automatically.
func FailQueueItem(db *sql.DB, id uuid.UUID, errorMsg string) error {
	_, err := db.Exec(`
		UPDATE sync_queue
		SET status = 'failed', processed_at = ?, error_message = ?, worker_token = NULL, claimed_at = NULL
		WHERE id = ?
	`, time.Now(), errorMsg, id.String())

	if err != nil {
		return fmt.Errorf("failed to fail queue item: %w", err)
	}

	return nil
}

// ReclaimStaleItems recovers processing rows whose worker died mid-batch.
// Rows claimed longer than staleAfter ago go back to pending, or to failed
// when their attempts are already spent. Returns the number of rows touched.
func ReclaimStaleItems(db *sql.DB, staleAfter time.Duration) (int64, error) {
	cutoff := time.Now().Add(-staleAfter)

	exhausted, err := db.Exec(`
		UPDATE sync_queue
		SET status = 'failed', processed_at = ?, error_message = 'abandoned by crashed worker', worker_token = NULL, claimed_at = NULL
		WHERE status = 'processing' AND claimed_at IS NOT NULL AND claimed_at < ? AND attempts >= max_attempts
	`, time.Now(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale queue items: %w", err)
	}

	recovered, err := db.Exec(`
		UPDATE sync_queue
		SET status = 'pending', worker_token = NULL, claimed_at = NULL
		WHERE status = 'processing' AND claimed_at IS NOT NULL AND claimed_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale queue items: %w", err)
	}

	failed, _ := exhausted.RowsAffected()
	repended, _ := recovered.RowsAffected()
	return failed + repended, nil
}

// CleanupQueue deletes completed and failed items older than maxAge.
// Returns the number of rows removed.
func CleanupQueue(db *sql.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	result, err := db.Exec(`
		DELETE FROM sync_queue
		WHERE status IN ('completed', 'failed') AND processed_at IS NOT NULL AND processed_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up queue: %w", err)
	}

	return result.RowsAffected()
}

// GetQueueItem loads a single queue item by ID, or nil if missing.
func GetQueueItem(db *sql.DB, id uuid.UUID) (*models.QueueItem, error) {
	rows, err := db.Query(`
		SELECT id, operation, local_type, local_id, priority, status, attempts, max_attempts, scheduled_at, error_message, worker_token, claimed_at, processed_at, created_at
		FROM sync_queue
		WHERE id = ?
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query queue item: %w", err)
	}
	defer rows.Close()

	items, err := scanQueueItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// ListQueueItems returns queue items, optionally filtered by status.
func ListQueueItems(db *sql.DB, status string, limit int) ([]models.QueueItem, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = db.Query(`
			SELECT id, operation, local_type, local_id, priority, status, attempts, max_attempts, scheduled_at, error_message, worker_token, claimed_at, processed_at, created_at
			FROM sync_queue
			WHERE status = ?
			ORDER BY priority ASC, scheduled_at ASC
			LIMIT ?
		`, status, limit)
	} else {
		rows, err = db.Query(`
			SELECT id, operation, local_type, local_id, priority, status, attempts, max_attempts, scheduled_at, error_message, worker_token, claimed_at, processed_at, created_at
			FROM sync_queue
			ORDER BY priority ASC, scheduled_at ASC
			LIMIT ?
		`, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query queue items: %w", err)
	}
	defer rows.Close()

	return scanQueueItems(rows)
}

func scanQueueItems(rows *sql.Rows) ([]models.QueueItem, error) {
	var items []models.QueueItem
	for rows.Next() {
		var item models.QueueItem
		var errorMessage sql.NullString
		var workerToken sql.NullString
		var claimedAt sql.NullTime
		var processedAt sql.NullTime

		if err := rows.Scan(
			&item.ID,
			&item.Operation,
			&item.LocalType,
			&item.LocalID,
			&item.Priority,
			&item.Status,
			&item.Attempts,
			&item.MaxAttempts,
			&item.ScheduledAt,
			&errorMessage,
			&workerToken,
			&claimedAt,
			&processedAt,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}

		if errorMessage.Valid {
			item.ErrorMessage = errorMessage.String
		}
		if workerToken.Valid {
			item.WorkerToken = workerToken.String
		}
		if claimedAt.Valid {
			t := claimedAt.Time
			item.ClaimedAt = &t
		}
		if processedAt.Valid {
			t := processedAt.Time
			item.ProcessedAt = &t
		}

		items = append(items, item)
	}

	return items, rows.Err()
}
