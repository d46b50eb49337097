package models

import "time"

// VideoStatus enumerates the review states of a single video.
type VideoStatus string

const (
	VideoStatusPendingReview VideoStatus = "pending_review"
	VideoStatusNeedsChanges  VideoStatus = "needs_changes"
	VideoStatusApproved      VideoStatus = "approved"
)

// Valid reports whether the status is one of the known video states.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusPendingReview, VideoStatusNeedsChanges, VideoStatusApproved:
		return true
	}
	return false
}

// Video belongs to exactly one project. CurrentVersionID always references a
// VideoVersion whose VideoID matches.
type Video struct {
	ID               string      `db:"id" json:"id"`
	ProjectID        string      `db:"project_id" json:"project_id"`
	Title            string      `db:"title" json:"title"`
	OrderIndex       int         `db:"order_index" json:"order_index"`
	Status           VideoStatus `db:"status" json:"status"`
	CurrentVersionID *string     `db:"current_version_id" json:"current_version_id,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// VideoVersion is an append-only source revision of a video. VersionNumber
// strictly increases per video; exactly one version is current at a time.
type VideoVersion struct {
	ID            string    `db:"id" json:"id"`
	VideoID       string    `db:"video_id" json:"video_id"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	SourceURL     string    `db:"source_url" json:"source_url"`
	ThumbnailURL  *string   `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// VideoWithVersion joins a video to its current version for review responses.
type VideoWithVersion struct {
	Video
	VersionNumber *int    `db:"version_number" json:"version_number,omitempty"`
	SourceURL     *string `db:"source_url" json:"source_url,omitempty"`
	ThumbnailURL  *string `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
}
