package dto

import "time"

// Change actions announced on the submissions event stream.
const (
	ChangeActionInsert = "insert"
	ChangeActionUpdate = "update"
)

// ChangeEvent tells subscribers that a row in the named table changed.
// Consumers re-fetch the full list; the event intentionally carries no row
// data so ordering or coalescing of deliveries cannot corrupt client state.
type ChangeEvent struct {
	Table        string    `json:"table"`
	Action       string    `json:"action"`
	SubmissionID uint      `json:"submission_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}
