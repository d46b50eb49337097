package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZyrticX/youreditable-api/internal/models"
)

const videoColumns = "id, project_id, title, order_index, status, current_version_id, created_at, updated_at"

// VideoRepository manages persistence for videos and their versions.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository constructs a new video repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// ListByProject returns the project's videos in display order.
func (r *VideoRepository) ListByProject(ctx context.Context, projectID string) ([]models.Video, error) {
	query := fmt.Sprintf("SELECT %s FROM videos WHERE project_id = $1 ORDER BY order_index ASC", videoColumns)
	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, query, projectID); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// ListWithCurrentVersion joins each video to its current version for review
// responses.
func (r *VideoRepository) ListWithCurrentVersion(ctx context.Context, projectID string) ([]models.VideoWithVersion, error) {
	const query = `SELECT v.id, v.project_id, v.title, v.order_index, v.status, v.current_version_id, v.created_at, v.updated_at,
		vv.version_number, vv.source_url, vv.thumbnail_url
		FROM videos v
		LEFT JOIN video_versions vv ON vv.id = v.current_version_id
		WHERE v.project_id = $1 ORDER BY v.order_index ASC`
	var videos []models.VideoWithVersion
	if err := r.db.SelectContext(ctx, &videos, query, projectID); err != nil {
		return nil, fmt.Errorf("list videos with versions: %w", err)
	}
	return videos, nil
}

// FindByID returns a video record by ID.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	query := fmt.Sprintf("SELECT %s FROM videos WHERE id = $1", videoColumns)
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		return nil, err
	}
	return &video, nil
}

// Create persists a video record.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if !video.Status.Valid() {
		return fmt.Errorf("create video: unknown status %q", video.Status)
	}
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now

	const query = `INSERT INTO videos (id, project_id, title, order_index, status, current_version_id, created_at, updated_at)
		VALUES (:id, :project_id, :title, :order_index, :status, :current_version_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// UpdateStatus transitions a video to the given review state.
func (r *VideoRepository) UpdateStatus(ctx context.Context, id string, status models.VideoStatus) error {
	if !status.Valid() {
		return fmt.Errorf("update video status: unknown status %q", status)
	}
	const query = `UPDATE videos SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("update video status: %w", err)
	}
	return nil
}

// SetCurrentVersion points the video at a new version and resets its status.
func (r *VideoRepository) SetCurrentVersion(ctx context.Context, id, versionID string, status models.VideoStatus) error {
	if !status.Valid() {
		return fmt.Errorf("set current version: unknown status %q", status)
	}
	const query = `UPDATE videos SET current_version_id = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, versionID, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("set current version: %w", err)
	}
	return nil
}

// ApproveAllByProject marks every video in the project approved. Used by the
// editor override path.
func (r *VideoRepository) ApproveAllByProject(ctx context.Context, projectID string) error {
	const query = `UPDATE videos SET status = 'approved', updated_at = $2 WHERE project_id = $1`
	if _, err := r.db.ExecContext(ctx, query, projectID, time.Now().UTC()); err != nil {
		return fmt.Errorf("approve all videos: %w", err)
	}
	return nil
}

// CreateVersion appends a new version record for a video.
func (r *VideoRepository) CreateVersion(ctx context.Context, version *models.VideoVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO video_versions (id, video_id, version_number, source_url, thumbnail_url, created_at)
		VALUES (:id, :video_id, :version_number, :source_url, :thumbnail_url, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("create video version: %w", err)
	}
	return nil
}

// FindVersionByID returns a version record by ID.
func (r *VideoRepository) FindVersionByID(ctx context.Context, id string) (*models.VideoVersion, error) {
	const query = `SELECT id, video_id, version_number, source_url, thumbnail_url, created_at FROM video_versions WHERE id = $1`
	var version models.VideoVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListVersions returns all versions of a video, oldest first.
func (r *VideoRepository) ListVersions(ctx context.Context, videoID string) ([]models.VideoVersion, error) {
	const query = `SELECT id, video_id, version_number, source_url, thumbnail_url, created_at FROM video_versions WHERE video_id = $1 ORDER BY version_number ASC`
	var versions []models.VideoVersion
	if err := r.db.SelectContext(ctx, &versions, query, videoID); err != nil {
		return nil, fmt.Errorf("list video versions: %w", err)
	}
	return versions, nil
}

// MaxVersionNumber returns the highest version number recorded for a video,
// or zero when none exist.
func (r *VideoRepository) MaxVersionNumber(ctx context.Context, videoID string) (int, error) {
	const query = `SELECT COALESCE(MAX(version_number), 0) FROM video_versions WHERE video_id = $1`
	var max int
	if err := r.db.GetContext(ctx, &max, query, videoID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("max version number: %w", err)
	}
	return max, nil
}
