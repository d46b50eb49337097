package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZyrticX/youreditable-api/internal/models"
)

const projectColumns = "id, name, client_display_name, owner_user_id, status, share_token, share_expires_at, last_status_change_at, approved_videos_count, created_at, updated_at"

// ProjectRepository manages persistence for review projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs a new project repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns projects matching filter criteria.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	base := "FROM projects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.OwnerUserID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_user_id = $%d", len(args)+1))
		args = append(args, filter.OwnerUserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(client_display_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":                  true,
		"status":                true,
		"last_status_change_at": true,
		"created_at":            true,
		"updated_at":            true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", projectColumns, base, sortBy, order, size, offset)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// FindByID returns a project record by ID.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByShareToken resolves a project by its current share token. A token that
// was regenerated no longer matches any row, so old links stop resolving
// immediately.
func (r *ProjectRepository) FindByShareToken(ctx context.Context, token string) (*models.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE share_token = $1", projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, token); err != nil {
		return nil, err
	}
	return &project, nil
}

// Create persists a project record.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if !project.Status.Valid() {
		return fmt.Errorf("create project: unknown status %q", project.Status)
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	if project.LastStatusChangeAt.IsZero() {
		project.LastStatusChangeAt = now
	}
	project.UpdatedAt = now

	const query = `INSERT INTO projects (id, name, client_display_name, owner_user_id, status, share_token, share_expires_at, last_status_change_at, approved_videos_count, created_at, updated_at)
		VALUES (:id, :name, :client_display_name, :owner_user_id, :status, :share_token, :share_expires_at, :last_status_change_at, :approved_videos_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update modifies the mutable descriptive fields of a project.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects SET name = :name, client_display_name = :client_display_name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// UpdateStatus persists a derived status transition together with the
// last_status_change_at timestamp and the approved videos tally.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status models.ProjectStatus, approvedCount int, changedAt time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("update project status: unknown status %q", status)
	}
	const query = `UPDATE projects SET status = $2, approved_videos_count = $3, last_status_change_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(status), approvedCount, changedAt); err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return nil
}

// UpdateShareLink replaces the share token and expiry in one write.
func (r *ProjectRepository) UpdateShareLink(ctx context.Context, id, token string, expiresAt time.Time) error {
	const query = `UPDATE projects SET share_token = $2, share_expires_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update share link: %w", err)
	}
	return nil
}

// CountByOwner reports how many projects an editor owns, for plan limits.
func (r *ProjectRepository) CountByOwner(ctx context.Context, ownerUserID string) (int, error) {
	const query = `SELECT COUNT(*) FROM projects WHERE owner_user_id = $1 AND status <> 'archived'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, ownerUserID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count projects by owner: %w", err)
	}
	return count, nil
}
