package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZyrticX/youreditable-api/internal/models"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/retry"
)

// AnonymousReviewer is used when a client submits feedback without a name.
const AnonymousReviewer = "Anonymous"

type reviewProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	FindByShareToken(ctx context.Context, token string) (*models.Project, error)
}

type reviewVideoRepo interface {
	FindByID(ctx context.Context, id string) (*models.Video, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Video, error)
	ListWithCurrentVersion(ctx context.Context, projectID string) ([]models.VideoWithVersion, error)
	UpdateStatus(ctx context.Context, id string, status models.VideoStatus) error
	FindVersionByID(ctx context.Context, id string) (*models.VideoVersion, error)
}

type reviewNoteRepo interface {
	BulkCreate(ctx context.Context, notes []models.Note) error
	ListForCurrentVersions(ctx context.Context, projectID string) ([]models.Note, error)
	CountPendingByVersion(ctx context.Context, versionID string) (int, error)
}

type approvalWriter interface {
	Create(ctx context.Context, approval *models.Approval) error
}

type statusReconciler interface {
	Reconcile(ctx context.Context, projectID string) (*models.Project, error)
}

type eventPublisher interface {
	Publish(event models.NotificationEvent)
}

// SubmitFeedbackRequest carries one batch of client notes for a video version.
type SubmitFeedbackRequest struct {
	VideoVersionID string   `json:"video_version_id" validate:"required"`
	Notes          []string `json:"notes" validate:"required,min=1,dive,required"`
	ReviewerLabel  string   `json:"reviewer_label"`
}

// ApproveVideoRequest carries the reviewer label for a video approval.
type ApproveVideoRequest struct {
	ReviewerLabel string `json:"reviewer_label"`
}

// ApproveVideoResult reports the outcome of a video approval.
type ApproveVideoResult struct {
	Video           *models.Video   `json:"video"`
	Project         *models.Project `json:"project"`
	AlreadyApproved bool            `json:"already_approved"`
	ProjectApproved bool            `json:"project_approved"`
	PendingNotes    int             `json:"pending_notes"`
}

// ReviewService backs the unauthenticated review surface addressed by share
// tokens. It is the only legitimate client-side mutation entry point; the UI
// never touches video or note status directly.
type ReviewService struct {
	projects  reviewProjectRepo
	videos    reviewVideoRepo
	notes     reviewNoteRepo
	approvals approvalWriter
	status    statusReconciler
	notifier  eventPublisher
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	retryCfg  retry.Config
	now       func() time.Time
}

// NewReviewService constructs a ReviewService.
func NewReviewService(projects reviewProjectRepo, videos reviewVideoRepo, notes reviewNoteRepo, approvals approvalWriter, status statusReconciler, notifier eventPublisher, cache *CacheService, validate *validator.Validate, logger *zap.Logger, retryCfg retry.Config) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		projects:  projects,
		videos:    videos,
		notes:     notes,
		approvals: approvals,
		status:    status,
		notifier:  notifier,
		cache:     cache,
		validator: validate,
		logger:    logger,
		retryCfg:  retryCfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

// LoadByShareToken resolves a review page from an opaque share token. The
// token is the entire credential; expiry is checked against the caller's
// clock at access time, never at write time.
func (s *ReviewService) LoadByShareToken(ctx context.Context, token string) (*models.ReviewPage, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "share token is required")
	}

	cacheKey := reviewCacheKey(token)
	var cached models.ReviewPage
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		if s.now().After(cached.Project.ShareExpiresAt) {
			return nil, appErrors.Clone(appErrors.ErrLinkExpired, "review link has expired")
		}
		return &cached, nil
	}

	project, err := s.projects.FindByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review link not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve review link")
	}

	if s.now().After(project.ShareExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrLinkExpired, "review link has expired")
	}

	videos, err := s.videos.ListWithCurrentVersion(ctx, project.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review videos")
	}
	notes, err := s.notes.ListForCurrentVersions(ctx, project.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review notes")
	}

	page := &models.ReviewPage{Project: *project, Videos: videos, Notes: notes}
	s.cache.Set(ctx, cacheKey, page)
	return page, nil
}

// ResolveShareToken validates a share token and returns its project without
// assembling the full review page. Expired links surface as 410.
func (s *ReviewService) ResolveShareToken(ctx context.Context, token string) (*models.Project, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "share token is required")
	}
	project, err := s.projects.FindByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review link not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve review link")
	}
	if s.now().After(project.ShareExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrLinkExpired, "review link has expired")
	}
	return project, nil
}

// SubmitFeedback creates one pending note per body, all sharing a fresh
// submit batch id, flags the owning video needs_changes, and re-derives the
// project status.
func (s *ReviewService) SubmitFeedback(ctx context.Context, projectID string, req SubmitFeedbackRequest) ([]models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "feedback requires at least one note")
	}

	version, err := s.videos.FindVersionByID(ctx, req.VideoVersionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "video version does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video version")
	}

	video, err := s.videos.FindByID(ctx, version.VideoID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	project, err := s.guardProject(ctx, projectID, video.ProjectID)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(req.ReviewerLabel)
	if label == "" {
		label = AnonymousReviewer
	}

	batchID := uuid.NewString()
	notes := make([]models.Note, 0, len(req.Notes))
	for _, body := range req.Notes {
		notes = append(notes, models.Note{
			VideoVersionID: version.ID,
			Body:           body,
			Status:         models.NoteStatusPending,
			ReviewerLabel:  label,
			SubmitBatchID:  batchID,
		})
	}

	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.notes.BulkCreate(ctx, notes)
	}); err != nil {
		return nil, appErrors.FromError(err)
	}

	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.videos.UpdateStatus(ctx, video.ID, models.VideoStatusNeedsChanges)
	}); err != nil {
		// Notes are committed; reconcile so status drift is corrected.
		s.reconcileBestEffort(ctx, project.ID)
		return nil, appErrors.FromError(err)
	}

	if _, err := s.status.Reconcile(ctx, project.ID); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, reviewCacheKey(project.ShareToken))
	s.notifier.Publish(models.NotificationEvent{
		Type:          models.EventFeedbackReceived,
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		VideoID:       video.ID,
		VideoTitle:    video.Title,
		ReviewerLabel: label,
		NoteCount:     len(notes),
	})

	return notes, nil
}

// ApproveVideo records a client approval for one video. Approving an already
// approved video is a signalled no-op, not an error. Pending notes do not
// block approval; their count is returned so the UI can ask for confirmation.
func (s *ReviewService) ApproveVideo(ctx context.Context, projectID, videoID string, req ApproveVideoRequest) (*ApproveVideoResult, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	project, err := s.guardProject(ctx, projectID, video.ProjectID)
	if err != nil {
		return nil, err
	}

	if video.Status == models.VideoStatusApproved {
		return &ApproveVideoResult{Video: video, Project: project, AlreadyApproved: true}, nil
	}

	label := strings.TrimSpace(req.ReviewerLabel)
	if label == "" {
		label = AnonymousReviewer
	}

	pendingNotes := 0
	if video.CurrentVersionID != nil {
		if count, err := s.notes.CountPendingByVersion(ctx, *video.CurrentVersionID); err == nil {
			pendingNotes = count
		} else {
			s.logger.Warn("failed to count pending notes", zap.String("video_id", videoID), zap.Error(err))
		}
	}

	approval := &models.Approval{
		Scope:         models.ApprovalScopeVideo,
		ScopeID:       video.ID,
		VersionID:     video.CurrentVersionID,
		ReviewerLabel: label,
		ApprovedAt:    s.now(),
	}
	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.approvals.Create(ctx, approval)
	}); err != nil {
		return nil, appErrors.FromError(err)
	}

	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.videos.UpdateStatus(ctx, video.ID, models.VideoStatusApproved)
	}); err != nil {
		s.reconcileBestEffort(ctx, project.ID)
		return nil, appErrors.FromError(err)
	}
	video.Status = models.VideoStatusApproved

	projectApproved := false
	videos, err := s.videos.ListByProject(ctx, project.ID)
	if err == nil {
		allApproved := len(videos) > 0
		for _, v := range videos {
			if v.Status != models.VideoStatusApproved {
				allApproved = false
				break
			}
		}
		if allApproved {
			projectApproved = true
			projectApprovalRecord := &models.Approval{
				Scope:         models.ApprovalScopeProject,
				ScopeID:       project.ID,
				ReviewerLabel: label,
				ApprovedAt:    s.now(),
			}
			if err := s.approvals.Create(ctx, projectApprovalRecord); err != nil {
				s.logger.Warn("failed to record project approval", zap.String("project_id", project.ID), zap.Error(err))
			}
		}
	} else {
		s.logger.Warn("failed to list videos after approval", zap.String("project_id", project.ID), zap.Error(err))
	}

	reconciled, err := s.status.Reconcile(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, reviewCacheKey(project.ShareToken))

	eventType := models.EventVideoApproved
	if reconciled.Status == models.ProjectStatusApproved {
		eventType = models.EventProjectApproved
	}
	s.notifier.Publish(models.NotificationEvent{
		Type:          eventType,
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		VideoID:       video.ID,
		VideoTitle:    video.Title,
		ReviewerLabel: label,
	})

	return &ApproveVideoResult{
		Video:           video,
		Project:         reconciled,
		ProjectApproved: projectApproved,
		PendingNotes:    pendingNotes,
	}, nil
}

// guardProject verifies that the mutation target belongs to the project the
// share token resolved to, and that the project still accepts client input.
func (s *ReviewService) guardProject(ctx context.Context, projectID, targetProjectID string) (*models.Project, error) {
	if projectID != targetProjectID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "resource does not belong to this review")
	}
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.Status == models.ProjectStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "project is archived")
	}
	return project, nil
}

func (s *ReviewService) reconcileBestEffort(ctx context.Context, projectID string) {
	if _, err := s.status.Reconcile(ctx, projectID); err != nil {
		s.logger.Warn("reconciliation after partial failure did not complete", zap.String("project_id", projectID), zap.Error(err))
	}
}

func reviewCacheKey(token string) string {
	return "review:token:" + token
}
