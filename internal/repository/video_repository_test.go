package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZyrticX/youreditable-api/internal/models"
)

func TestVideoListWithCurrentVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "project_id", "title", "order_index", "status", "current_version_id", "created_at", "updated_at", "version_number", "source_url", "thumbnail_url"}).
		AddRow("v1", "p1", "Teaser", 0, "pending_review", "ver1", now, now, 2, "https://cdn/teaser_v2.mp4", nil).
		AddRow("v2", "p1", "Main cut", 1, "approved", nil, now, now, nil, nil, nil)
	mock.ExpectQuery("LEFT JOIN video_versions vv ON vv.id = v.current_version_id").
		WithArgs("p1").
		WillReturnRows(rows)

	videos, err := repo.ListWithCurrentVersion(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	require.NotNil(t, videos[0].VersionNumber)
	assert.Equal(t, 2, *videos[0].VersionNumber)
	assert.Nil(t, videos[1].VersionNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoCreateVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec("INSERT INTO video_versions").WillReturnResult(sqlmock.NewResult(1, 1))

	version := &models.VideoVersion{VideoID: "v1", VersionNumber: 3, SourceURL: "https://cdn/cut_v3.mp4"}
	require.NoError(t, repo.CreateVersion(context.Background(), version))
	assert.NotEmpty(t, version.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoSetCurrentVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET current_version_id = $2, status = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("v1", "ver3", "pending_review", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetCurrentVersion(context.Background(), "v1", "ver3", models.VideoStatusPendingReview))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoSetCurrentVersionRejectsUnknownStatus(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	err := repo.SetCurrentVersion(context.Background(), "v1", "ver3", "published")
	assert.Error(t, err)
}

func TestVideoApproveAllByProject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET status = 'approved', updated_at = $2 WHERE project_id = $1")).
		WithArgs("p1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.ApproveAllByProject(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoMaxVersionNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version_number), 0) FROM video_versions WHERE video_id = $1")).
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))

	max, err := repo.MaxVersionNumber(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, 4, max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoMaxVersionNumberEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version_number), 0) FROM video_versions WHERE video_id = $1")).
		WithArgs("fresh").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	max, err := repo.MaxVersionNumber(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, max)
	assert.NoError(t, mock.ExpectationsWereMet())
}
