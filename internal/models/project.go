package models

import "time"

// ProjectStatus enumerates the lifecycle states of a review project.
type ProjectStatus string

const (
	// ProjectStatusActive means review is open and no feedback has arrived yet.
	ProjectStatusActive ProjectStatus = "active"
	// ProjectStatusPending means feedback exists but not every video is approved.
	ProjectStatusPending ProjectStatus = "pending"
	// ProjectStatusApproved means every video is approved and no note is pending.
	ProjectStatusApproved ProjectStatus = "approved"
	// ProjectStatusArchived is sticky; it is never recomputed from videos or notes.
	ProjectStatusArchived ProjectStatus = "archived"
)

// Valid reports whether the status is one of the known project states.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusPending, ProjectStatusApproved, ProjectStatusArchived:
		return true
	}
	return false
}

// Project is a review engagement shared with a client.
//
// Status is always a pure function of the project's videos and notes, except
// for archived which is set explicitly and never auto-recomputed.
type Project struct {
	ID                  string        `db:"id" json:"id"`
	Name                string        `db:"name" json:"name"`
	ClientDisplayName   string        `db:"client_display_name" json:"client_display_name"`
	OwnerUserID         string        `db:"owner_user_id" json:"owner_user_id"`
	Status              ProjectStatus `db:"status" json:"status"`
	ShareToken          string        `db:"share_token" json:"-"`
	ShareExpiresAt      time.Time     `db:"share_expires_at" json:"share_expires_at"`
	LastStatusChangeAt  time.Time     `db:"last_status_change_at" json:"last_status_change_at"`
	ApprovedVideosCount int           `db:"approved_videos_count" json:"approved_videos_count"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectFilter defines filter criteria for listing projects.
type ProjectFilter struct {
	OwnerUserID string
	Status      ProjectStatus
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// ShareLinkAction selects how manageShareLink mutates the link.
type ShareLinkAction string

const (
	// ShareLinkExtend pushes the expiry forward keeping the current token.
	ShareLinkExtend ShareLinkAction = "extend"
	// ShareLinkRegenerate issues a fresh token, invalidating the old one immediately.
	ShareLinkRegenerate ShareLinkAction = "regenerate"
)

// Valid reports whether the action is recognised.
func (a ShareLinkAction) Valid() bool {
	return a == ShareLinkExtend || a == ShareLinkRegenerate
}
