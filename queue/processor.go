// ABOUTME: Batch processor draining the durable sync queue
// ABOUTME: Claims due items, dispatches to translators, and applies capped exponential backoff
package queue

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmbridge/crm"
	"github.com/harperreed/crmbridge/db"
	"github.com/harperreed/crmbridge/models"
	"github.com/harperreed/crmbridge/translate"
	"github.com/oklog/ulid/v2"
)

const (
	// maxBackoff caps the 2^attempts-minute delay between retries.
	maxBackoff = 6 * time.Hour
	// retention is how long completed and failed items are kept.
	retention = 7 * 24 * time.Hour
	// staleClaim is how long a processing row may sit unclosed before it is
	// assumed orphaned by a crashed worker and recovered.
	staleClaim = 15 * time.Minute
)

// Processor drains due queue items against the enabled translators.
type Processor struct {
	db          *sql.DB
	translators []translate.Translator
	workerToken string
	now         func() time.Time
}

// NewProcessor creates a processor over the enabled translators.
// Dependencies are passed explicitly; there is no shared registry.
func NewProcessor(database *sql.DB, translators []translate.Translator) *Processor {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return &Processor{
		db:          database,
		translators: translators,
		workerToken: ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String(),
		now:         time.Now,
	}
}

// Result summarizes one processor invocation.
type Result struct {
	Claimed   int
	Completed int
	Retried   int
	Failed    int
	Cleaned   int64
}

// Process claims up to limit due items, dispatches each, and retires the
// batch. Safe to run from concurrent scheduler invocations: the claim step
// is a single conditional UPDATE stamped with this processor's token.
func (p *Processor) Process(ctx context.Context, limit int) (*Result, error) {
	// Recover rows orphaned by a worker that crashed after claiming them
	if reclaimed, err := db.ReclaimStaleItems(p.db, staleClaim); err != nil {
		return nil, fmt.Errorf("failed to reclaim stale items: %w", err)
	} else if reclaimed > 0 {
		log.Printf("reclaimed %d stale queue items", reclaimed)
	}

	items, err := db.ClaimDueItems(p.db, p.workerToken, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due items: %w", err)
	}

	result := &Result{Claimed: len(items)}

	for i := range items {
		item := &items[i]

		if err := p.dispatch(ctx, item); err != nil {
			p.retire(item, err, result)
			continue
		}

		if err := db.CompleteQueueItem(p.db, item.ID); err != nil {
			return result, err
		}
		result.Completed++
	}

	// Bound storage: drop completed/failed items past the retention window
	cleaned, err := db.CleanupQueue(p.db, retention)
	if err != nil {
		return result, err
	}
	result.Cleaned = cleaned

	return result, nil
}

// dispatch routes one claimed item to its operation handler.
func (p *Processor) dispatch(ctx context.Context, item *models.QueueItem) error {
	localID, err := uuid.Parse(item.LocalID)
	if err != nil {
		return &crm.APIError{Kind: crm.ErrKindValidation, Message: fmt.Sprintf("bad local id %q", item.LocalID)}
	}

	switch item.Operation {
	case models.OpCreate, models.OpUpdate:
		return p.fanOutSync(ctx, localID)

	case models.OpUpdateStatus:
		booking, err := db.GetBooking(p.db, localID)
		if err != nil {
			return err
		}
		if booking == nil {
			return &crm.APIError{Kind: crm.ErrKindValidation, Message: fmt.Sprintf("booking not found: %s", localID)}
		}
		return p.fanOutStatus(ctx, localID, booking.Status)

	case models.OpDelete:
		// Mapping rows only. Remote objects are never deleted by this
		// path; CRM history survives local deletion.
		return db.RemoveMappingsByLocal(p.db, item.LocalType, item.LocalID)

	default:
		return &crm.APIError{Kind: crm.ErrKindValidation, Message: fmt.Sprintf("unknown operation %q", item.Operation)}
	}
}

// fanOutSync runs SyncFromLocal on every enabled translator, collecting
// partial failures. Retryable failures dominate so the item comes back.
func (p *Processor) fanOutSync(ctx context.Context, localID uuid.UUID) error {
	var failures []string
	retryable := false

	for _, t := range p.translators {
		if _, err := t.SyncFromLocal(ctx, localID); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", t.ObjectType(), err))
			if crm.IsRetryable(err) {
				retryable = true
			}
		}
	}

	return joinFailures(failures, retryable)
}

func (p *Processor) fanOutStatus(ctx context.Context, localID uuid.UUID, status string) error {
	var failures []string
	retryable := false

	for _, t := range p.translators {
		if err := t.UpdateStatusFromLocal(ctx, localID, status); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", t.ObjectType(), err))
			if crm.IsRetryable(err) {
				retryable = true
			}
		}
	}

	return joinFailures(failures, retryable)
}

func joinFailures(failures []string, retryable bool) error {
	if len(failures) == 0 {
		return nil
	}
	kind := crm.ErrKindValidation
	if retryable {
		kind = crm.ErrKindTransient
	}
	return &crm.APIError{Kind: kind, Message: strings.Join(failures, "; ")}
}

// retire decides between reschedule and terminal failure for a failed item.
// The processor is the sole place that makes this decision.
func (p *Processor) retire(item *models.QueueItem, dispatchErr error, result *Result) {
	msg := dispatchErr.Error()

	if !crm.IsRetryable(dispatchErr) || item.Attempts >= item.MaxAttempts {
		if err := db.FailQueueItem(p.db, item.ID, msg); err != nil {
			log.Printf("failed to mark item %s failed: %v", item.ID, err)
		}
		result.Failed++
		return
	}

	runAt := p.now().Add(backoffDelay(item.Attempts))
	if err := db.RescheduleQueueItem(p.db, item.ID, runAt, msg); err != nil {
		log.Printf("failed to reschedule item %s: %v", item.ID, err)
	}
	result.Retried++
}

// backoffDelay computes 2^attempts minutes, capped at maxBackoff. The delay
// strictly increases with each attempt until the cap.
func backoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	// Guard the shift before the cap comparison
	if attempts > 20 {
		return maxBackoff
	}
	delay := time.Duration(1<<uint(attempts)) * time.Minute
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
