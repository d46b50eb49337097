package models

import "time"

// NotificationEvent names for outbound review notifications.
const (
	EventFeedbackReceived = "FEEDBACK_RECEIVED"
	EventVideoApproved    = "VIDEO_APPROVED"
	EventProjectApproved  = "PROJECT_APPROVED"
	EventShareLinkUpdated = "SHARE_LINK_UPDATED"
)

// NotificationEvent is published after a mutation completes. Delivery is
// fire-and-forget; failures are logged and never surface to the caller.
type NotificationEvent struct {
	Type          string    `json:"type"`
	ProjectID     string    `json:"project_id"`
	ProjectName   string    `json:"project_name"`
	VideoID       string    `json:"video_id,omitempty"`
	VideoTitle    string    `json:"video_title,omitempty"`
	ReviewerLabel string    `json:"reviewer_label,omitempty"`
	NoteCount     int       `json:"note_count,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReviewPage aggregates everything a client needs to render a review link:
// the project, its videos joined to their current versions, and the notes
// attached to those versions.
type ReviewPage struct {
	Project Project            `json:"project"`
	Videos  []VideoWithVersion `json:"videos"`
	Notes   []Note             `json:"notes"`
}
