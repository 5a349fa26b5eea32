// ABOUTME: Status-to-stage lookup tables and display buckets
// ABOUTME: Maps local booking statuses onto remote stage values per object kind
package translate

import "github.com/harperreed/crmbridge/models"

// Stage buckets used for display round-trips. Stage granularity exceeds
// status granularity, so inbound stages collapse into these.
const (
	BucketOpen    = "open"
	BucketEngaged = "engaged"
	BucketWon     = "won"
	BucketLost    = "lost"
)

var contactStages = map[string]string{
	models.BookingPending:      "Open",
	models.BookingAcknowledged: "Contacted",
	models.BookingCompleted:    "Converted",
	models.BookingCancelled:    "Not Converted",
	models.BookingMissed:       "Not Converted",
}

var leadStages = map[string]string{
	models.BookingPending:      "Open - Not Contacted",
	models.BookingAcknowledged: "Working - Contacted",
	models.BookingCompleted:    "Closed - Converted",
	models.BookingCancelled:    "Closed - Not Converted",
	models.BookingMissed:       "Closed - Not Converted",
}

var opportunityStages = map[string]string{
	models.BookingPending:      "Prospecting",
	models.BookingAcknowledged: "Qualification",
	models.BookingCompleted:    "Closed Won",
	models.BookingCancelled:    "Closed Lost",
	models.BookingMissed:       "Closed Lost",
}

// Default stages for statuses outside the defined domain. A stage lookup
// never errors.
const (
	defaultContactStage     = "Open"
	defaultLeadStage        = "Open - Not Contacted"
	defaultOpportunityStage = "Prospecting"
)

func stageFor(table map[string]string, status, fallback string) string {
	if stage, ok := table[status]; ok {
		return stage
	}
	return fallback
}

// StageBucket collapses any remote stage value into its display bucket.
func StageBucket(stage string) string {
	switch stage {
	case "Closed Won", "Converted", "Closed - Converted":
		return BucketWon
	case "Closed Lost", "Not Converted", "Closed - Not Converted":
		return BucketLost
	case "Contacted", "Working - Contacted", "Qualification", "Proposal", "Negotiation":
		return BucketEngaged
	default:
		return BucketOpen
	}
}

// StatusBucket collapses a local booking status into the same buckets,
// so status → stage → bucket round-trips line up for display.
func StatusBucket(status string) string {
	switch status {
	case models.BookingCompleted:
		return BucketWon
	case models.BookingCancelled, models.BookingMissed:
		return BucketLost
	case models.BookingAcknowledged:
		return BucketEngaged
	default:
		return BucketOpen
	}
}
