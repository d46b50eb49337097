package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZyrticX/youreditable-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func projectRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "client_display_name", "owner_user_id", "status", "share_token", "share_expires_at", "last_status_change_at", "approved_videos_count", "created_at", "updated_at"}).
		AddRow("p1", "Launch video", "Acme", "u1", "active", "tok", now.Add(time.Hour), now, 0, now, now)
}

func TestProjectList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, client_display_name, owner_user_id, status, share_token, share_expires_at, last_status_change_at, approved_videos_count, created_at, updated_at FROM projects WHERE 1=1 AND owner_user_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(projectRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects WHERE 1=1 AND owner_user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	projects, total, err := repo.List(context.Background(), models.ProjectFilter{OwnerUserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	// "share_token; DROP TABLE" falls back to created_at
	mock.ExpectQuery("ORDER BY created_at DESC").WillReturnRows(projectRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.ProjectFilter{SortBy: "share_token; DROP TABLE projects"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectFindByShareToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE share_token = $1")).
		WithArgs("tok").
		WillReturnRows(projectRows(now))

	project, err := repo.FindByShareToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "p1", project.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectFindByShareTokenMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE share_token = $1")).
		WithArgs("stale").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByShareToken(context.Background(), "stale")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(1, 1))

	project := &models.Project{
		Name:              "Launch video",
		ClientDisplayName: "Acme",
		OwnerUserID:       "u1",
		Status:            models.ProjectStatusActive,
		ShareToken:        "tok",
		ShareExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), project))
	assert.NotEmpty(t, project.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectCreateRejectsUnknownStatus(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	err := repo.Create(context.Background(), &models.Project{Status: "deleted"})
	assert.Error(t, err)
}

func TestProjectUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	changedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET status = $2, approved_videos_count = $3, last_status_change_at = $4, updated_at = $4 WHERE id = $1")).
		WithArgs("p1", "approved", 3, changedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "p1", models.ProjectStatusApproved, 3, changedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectUpdateShareLink(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	expiresAt := time.Now().UTC().Add(7 * 24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET share_token = $2, share_expires_at = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("p1", "fresh", expiresAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateShareLink(context.Background(), "p1", "fresh", expiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectCountByOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects WHERE owner_user_id = $1 AND status <> 'archived'")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
