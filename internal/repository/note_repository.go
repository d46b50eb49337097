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

const noteColumns = "id, video_version_id, body, status, reviewer_label, submit_batch_id, created_at, updated_at"

// NoteRepository manages persistence for client feedback notes.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs a new note repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListByVersion returns the notes attached to one video version.
func (r *NoteRepository) ListByVersion(ctx context.Context, versionID string) ([]models.Note, error) {
	query := fmt.Sprintf("SELECT %s FROM notes WHERE video_version_id = $1 ORDER BY created_at ASC", noteColumns)
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes, query, versionID); err != nil {
		return nil, fmt.Errorf("list notes by version: %w", err)
	}
	return notes, nil
}

// ListForCurrentVersions returns notes on the current version of every video
// in the project. Notes left on superseded versions are excluded; replacing a
// video's source naturally ages its old feedback out of status derivation.
func (r *NoteRepository) ListForCurrentVersions(ctx context.Context, projectID string) ([]models.Note, error) {
	const query = `SELECT n.id, n.video_version_id, n.body, n.status, n.reviewer_label, n.submit_batch_id, n.created_at, n.updated_at
		FROM notes n
		JOIN videos v ON v.current_version_id = n.video_version_id
		WHERE v.project_id = $1
		ORDER BY n.created_at ASC`
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes, query, projectID); err != nil {
		return nil, fmt.Errorf("list notes for current versions: %w", err)
	}
	return notes, nil
}

// BulkCreate inserts a batch of notes submitted together.
func (r *NoteRepository) BulkCreate(ctx context.Context, notes []models.Note) error {
	if len(notes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range notes {
		if !notes[i].Status.Valid() {
			return fmt.Errorf("bulk create notes: unknown status %q", notes[i].Status)
		}
		if notes[i].ID == "" {
			notes[i].ID = uuid.NewString()
		}
		if notes[i].CreatedAt.IsZero() {
			notes[i].CreatedAt = now
		}
		notes[i].UpdatedAt = now
	}

	const query = `INSERT INTO notes (id, video_version_id, body, status, reviewer_label, submit_batch_id, created_at, updated_at)
		VALUES (:id, :video_version_id, :body, :status, :reviewer_label, :submit_batch_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notes); err != nil {
		return fmt.Errorf("bulk create notes: %w", err)
	}
	return nil
}

// FindByID returns a note record by ID.
func (r *NoteRepository) FindByID(ctx context.Context, id string) (*models.Note, error) {
	query := fmt.Sprintf("SELECT %s FROM notes WHERE id = $1", noteColumns)
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateStatus resolves or reopens a single note.
func (r *NoteRepository) UpdateStatus(ctx context.Context, id string, status models.NoteStatus) error {
	if !status.Valid() {
		return fmt.Errorf("update note status: unknown status %q", status)
	}
	const query = `UPDATE notes SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("update note status: %w", err)
	}
	return nil
}

// CompleteAllByProject marks every note under the project's videos completed,
// across all versions. Used by the editor override path.
func (r *NoteRepository) CompleteAllByProject(ctx context.Context, projectID string) error {
	const query = `UPDATE notes SET status = 'completed', updated_at = $2
		WHERE video_version_id IN (
			SELECT vv.id FROM video_versions vv
			JOIN videos v ON v.id = vv.video_id
			WHERE v.project_id = $1
		)`
	if _, err := r.db.ExecContext(ctx, query, projectID, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete notes by project: %w", err)
	}
	return nil
}

// CountPendingByVersion reports how many notes on a version are unresolved.
func (r *NoteRepository) CountPendingByVersion(ctx context.Context, versionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notes WHERE video_version_id = $1 AND status = 'pending'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, versionID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count pending notes: %w", err)
	}
	return count, nil
}
