package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZyrticX/youreditable-api/internal/models"
)

// ApprovalRepository manages the append-only approval audit trail. Approval
// rows are never updated or deleted.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs a new approval repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create appends an approval record.
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.Approval) error {
	if !approval.Scope.Valid() {
		return fmt.Errorf("create approval: unknown scope %q", approval.Scope)
	}
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	if approval.ApprovedAt.IsZero() {
		approval.ApprovedAt = time.Now().UTC()
	}

	const query = `INSERT INTO approvals (id, scope, scope_id, version_id, reviewer_label, approved_at)
		VALUES (:id, :scope, :scope_id, :version_id, :reviewer_label, :approved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, approval); err != nil {
		return fmt.Errorf("create approval: %w", err)
	}
	return nil
}

// ListByScope returns the audit trail for one project or video, newest first.
func (r *ApprovalRepository) ListByScope(ctx context.Context, scope models.ApprovalScope, scopeID string) ([]models.Approval, error) {
	const query = `SELECT id, scope, scope_id, version_id, reviewer_label, approved_at FROM approvals WHERE scope = $1 AND scope_id = $2 ORDER BY approved_at DESC`
	var approvals []models.Approval
	if err := r.db.SelectContext(ctx, &approvals, query, string(scope), scopeID); err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return approvals, nil
}
