package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ZyrticX/youreditable-api/internal/models"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
)

type statusProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus, approvedCount int, changedAt time.Time) error
}

type statusVideoRepo interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Video, error)
}

type statusNoteRepo interface {
	ListForCurrentVersions(ctx context.Context, projectID string) ([]models.Note, error)
}

// DeriveStatus computes a project's status from its videos and the notes on
// their current versions. It is a pure function so reconciliation can be
// rerun cheaply after any mutation, including as a repair pass after a
// partial failure.
//
// Archived is sticky: once a project is archived nothing derived from videos
// or notes moves it, only an explicit unarchive does.
func DeriveStatus(current models.ProjectStatus, videos []models.Video, notes []models.Note) models.ProjectStatus {
	if current == models.ProjectStatusArchived {
		return models.ProjectStatusArchived
	}

	allApproved := len(videos) > 0
	for _, v := range videos {
		if v.Status != models.VideoStatusApproved {
			allApproved = false
			break
		}
	}

	hasAnyNotes := len(notes) > 0
	hasPendingNotes := false
	for _, n := range notes {
		if n.Status == models.NoteStatusPending {
			hasPendingNotes = true
			break
		}
	}

	switch {
	case allApproved && !hasPendingNotes:
		return models.ProjectStatusApproved
	case hasAnyNotes:
		return models.ProjectStatusPending
	default:
		return models.ProjectStatusActive
	}
}

// StatusService re-derives and persists project status after mutations.
type StatusService struct {
	projects statusProjectRepo
	videos   statusVideoRepo
	notes    statusNoteRepo
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatusService constructs a StatusService.
func NewStatusService(projects statusProjectRepo, videos statusVideoRepo, notes statusNoteRepo, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		projects: projects,
		videos:   videos,
		notes:    notes,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *StatusService) WithClock(now func() time.Time) *StatusService {
	s.now = now
	return s
}

// WithMetrics attaches a metrics sink counting reconciliation outcomes.
func (s *StatusService) WithMetrics(metrics *MetricsService) *StatusService {
	s.metrics = metrics
	return s
}

// Reconcile freshly reads the project, its videos and current-version notes,
// recomputes status, and writes it back only when something changed. The
// fresh read narrows the window for lost updates between two concurrent
// mutations; the conditional write keeps repeated calls idempotent.
func (s *StatusService) Reconcile(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	if project.Status == models.ProjectStatusArchived {
		return project, nil
	}

	videos, err := s.videos.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load videos")
	}
	notes, err := s.notes.ListForCurrentVersions(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notes")
	}

	derived := DeriveStatus(project.Status, videos, notes)
	approvedCount := 0
	for _, v := range videos {
		if v.Status == models.VideoStatusApproved {
			approvedCount++
		}
	}

	if derived == project.Status && approvedCount == project.ApprovedVideosCount {
		return project, nil
	}

	changedAt := project.LastStatusChangeAt
	if derived != project.Status {
		changedAt = s.now()
	}
	if err := s.projects.UpdateStatus(ctx, projectID, derived, approvedCount, changedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist project status")
	}

	if s.metrics != nil {
		s.metrics.RecordReconciliation(string(derived))
	}
	s.logger.Info("project status reconciled",
		zap.String("project_id", projectID),
		zap.String("from", string(project.Status)),
		zap.String("to", string(derived)),
		zap.Int("approved_videos", approvedCount),
	)

	project.Status = derived
	project.ApprovedVideosCount = approvedCount
	project.LastStatusChangeAt = changedAt
	return project, nil
}
