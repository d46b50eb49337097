package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZyrticX/youreditable-api/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	approved := models.Video{Status: models.VideoStatusApproved}
	pendingReview := models.Video{Status: models.VideoStatusPendingReview}
	pendingNote := models.Note{Status: models.NoteStatusPending}
	completedNote := models.Note{Status: models.NoteStatusCompleted}

	cases := []struct {
		name    string
		current models.ProjectStatus
		videos  []models.Video
		notes   []models.Note
		want    models.ProjectStatus
	}{
		{"no videos no notes", models.ProjectStatusActive, nil, nil, models.ProjectStatusActive},
		{"no feedback yet", models.ProjectStatusActive, []models.Video{pendingReview}, nil, models.ProjectStatusActive},
		{"pending note", models.ProjectStatusActive, []models.Video{pendingReview}, []models.Note{pendingNote}, models.ProjectStatusPending},
		{"all approved no pending notes", models.ProjectStatusPending, []models.Video{approved, approved}, []models.Note{completedNote}, models.ProjectStatusApproved},
		{"all approved but pending note", models.ProjectStatusPending, []models.Video{approved}, []models.Note{pendingNote}, models.ProjectStatusPending},
		{"one video not approved", models.ProjectStatusActive, []models.Video{approved, pendingReview}, []models.Note{completedNote}, models.ProjectStatusPending},
		{"completed notes only, not all approved", models.ProjectStatusApproved, []models.Video{pendingReview}, []models.Note{completedNote}, models.ProjectStatusPending},
		{"archived is sticky", models.ProjectStatusArchived, []models.Video{approved}, nil, models.ProjectStatusArchived},
		{"empty project never approved", models.ProjectStatusActive, nil, []models.Note{completedNote}, models.ProjectStatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.current, tc.videos, tc.notes))
		})
	}
}

func TestDeriveStatusIsPure(t *testing.T) {
	videos := []models.Video{{Status: models.VideoStatusApproved}}
	notes := []models.Note{{Status: models.NoteStatusCompleted}}

	first := DeriveStatus(models.ProjectStatusPending, videos, notes)
	second := DeriveStatus(first, videos, notes)
	assert.Equal(t, first, second)
}

func newStatusFixture() (*memData, *StatusService) {
	d := newMemData()
	svc := NewStatusService(&stubProjects{d: d}, &stubVideos{d: d}, &stubNotes{d: d}, zap.NewNop())
	return d, svc
}

func TestReconcilePersistsDerivedStatus(t *testing.T) {
	d, svc := newStatusFixture()
	project := d.addProject(models.Project{Status: models.ProjectStatusActive})
	d.addVideo(models.Video{ProjectID: project.ID, Status: models.VideoStatusApproved})

	reconciled, err := svc.Reconcile(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusApproved, reconciled.Status)
	assert.Equal(t, 1, reconciled.ApprovedVideosCount)
	assert.Equal(t, 1, d.statusWrites)
}

func TestReconcileIsIdempotent(t *testing.T) {
	d, svc := newStatusFixture()
	project := d.addProject(models.Project{Status: models.ProjectStatusActive})
	d.addVideo(models.Video{ProjectID: project.ID, Status: models.VideoStatusApproved})

	first, err := svc.Reconcile(context.Background(), project.ID)
	require.NoError(t, err)
	second, err := svc.Reconcile(context.Background(), project.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	// The second pass found nothing changed and wrote nothing.
	assert.Equal(t, 1, d.statusWrites)
}

func TestReconcileArchivedNeverRecomputed(t *testing.T) {
	d, svc := newStatusFixture()
	project := d.addProject(models.Project{Status: models.ProjectStatusArchived})
	d.addVideo(models.Video{ProjectID: project.ID, Status: models.VideoStatusApproved})

	reconciled, err := svc.Reconcile(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusArchived, reconciled.Status)
	assert.Zero(t, d.statusWrites)
}

func TestReconcileBumpsChangeTimestampOnlyOnTransition(t *testing.T) {
	d := newMemData()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := NewStatusService(&stubProjects{d: d}, &stubVideos{d: d}, &stubNotes{d: d}, zap.NewNop()).
		WithClock(func() time.Time { return base })

	changed := base.Add(-48 * time.Hour)
	project := d.addProject(models.Project{Status: models.ProjectStatusApproved, LastStatusChangeAt: changed, ApprovedVideosCount: 2})
	d.addVideo(models.Video{ProjectID: project.ID, Status: models.VideoStatusApproved})

	// Status stays approved; only the tally shrinks from 2 to 1.
	reconciled, err := svc.Reconcile(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusApproved, reconciled.Status)
	assert.Equal(t, 1, reconciled.ApprovedVideosCount)
	assert.Equal(t, changed, reconciled.LastStatusChangeAt)
}

func TestReconcileNotFound(t *testing.T) {
	_, svc := newStatusFixture()

	_, err := svc.Reconcile(context.Background(), "missing")
	assert.Error(t, err)
}
