package models

import "time"

// NoteStatus enumerates the resolution states of client feedback.
type NoteStatus string

const (
	NoteStatusPending   NoteStatus = "pending"
	NoteStatusCompleted NoteStatus = "completed"
)

// Valid reports whether the status is one of the known note states.
func (s NoteStatus) Valid() bool {
	return s == NoteStatusPending || s == NoteStatusCompleted
}

// Note is a timestamped piece of client feedback attached to one video
// version. Notes are never reassigned to another version; when a new cut is
// uploaded, feedback stays with the version it was written against.
type Note struct {
	ID             string     `db:"id" json:"id"`
	VideoVersionID string     `db:"video_version_id" json:"video_version_id"`
	Body           string     `db:"body" json:"body"`
	Status         NoteStatus `db:"status" json:"status"`
	ReviewerLabel  string     `db:"reviewer_label" json:"reviewer_label"`
	SubmitBatchID  string     `db:"submit_batch_id" json:"submit_batch_id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
