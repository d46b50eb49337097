package models

import "time"

// ApprovalScope distinguishes per-video approvals from whole-project ones.
type ApprovalScope string

const (
	ApprovalScopeProject ApprovalScope = "project"
	ApprovalScopeVideo   ApprovalScope = "video"
)

// Valid reports whether the scope is recognised.
func (s ApprovalScope) Valid() bool {
	return s == ApprovalScopeProject || s == ApprovalScopeVideo
}

// Approval is an append-only audit record of an approval action. It is never
// mutated or deleted.
type Approval struct {
	ID            string        `db:"id" json:"id"`
	Scope         ApprovalScope `db:"scope" json:"scope"`
	ScopeID       string        `db:"scope_id" json:"scope_id"`
	VersionID     *string       `db:"version_id" json:"version_id,omitempty"`
	ReviewerLabel string        `db:"reviewer_label" json:"reviewer_label"`
	ApprovedAt    time.Time     `db:"approved_at" json:"approved_at"`
}
