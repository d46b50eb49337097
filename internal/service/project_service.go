package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZyrticX/youreditable-api/internal/models"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/retry"
	"github.com/ZyrticX/youreditable-api/pkg/token"
)

type projectRepository interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	FindByID(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus, approvedCount int, changedAt time.Time) error
	UpdateShareLink(ctx context.Context, id, token string, expiresAt time.Time) error
}

type projectVideoRepo interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Video, error)
	ListWithCurrentVersion(ctx context.Context, projectID string) ([]models.VideoWithVersion, error)
	FindByID(ctx context.Context, id string) (*models.Video, error)
	Create(ctx context.Context, video *models.Video) error
	ApproveAllByProject(ctx context.Context, projectID string) error
	CreateVersion(ctx context.Context, version *models.VideoVersion) error
	FindVersionByID(ctx context.Context, id string) (*models.VideoVersion, error)
	ListVersions(ctx context.Context, videoID string) ([]models.VideoVersion, error)
	MaxVersionNumber(ctx context.Context, videoID string) (int, error)
	SetCurrentVersion(ctx context.Context, id, versionID string, status models.VideoStatus) error
}

type projectNoteRepo interface {
	ListForCurrentVersions(ctx context.Context, projectID string) ([]models.Note, error)
	ListByVersion(ctx context.Context, versionID string) ([]models.Note, error)
	CompleteAllByProject(ctx context.Context, projectID string) error
	FindByID(ctx context.Context, id string) (*models.Note, error)
	UpdateStatus(ctx context.Context, id string, status models.NoteStatus) error
}

type projectApprovalRepo interface {
	Create(ctx context.Context, approval *models.Approval) error
	ListByScope(ctx context.Context, scope models.ApprovalScope, scopeID string) ([]models.Approval, error)
}

// NewVideoInput describes one imported video in a project creation payload.
type NewVideoInput struct {
	Title        string  `json:"title" validate:"required"`
	SourceURL    string  `json:"source_url" validate:"required,url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// CreateProjectRequest captures the import-completion payload.
type CreateProjectRequest struct {
	Name              string          `json:"name" validate:"required"`
	ClientDisplayName string          `json:"client_display_name" validate:"required"`
	Videos            []NewVideoInput `json:"videos" validate:"required,min=1,dive"`
}

// UpdateProjectRequest modifies descriptive project fields.
type UpdateProjectRequest struct {
	Name              string `json:"name" validate:"required"`
	ClientDisplayName string `json:"client_display_name" validate:"required"`
}

// OverrideApproveRequest carries the editor's label for an override approval.
type OverrideApproveRequest struct {
	ReviewerLabel string `json:"reviewer_label"`
}

// ReplaceVideoSourceRequest uploads a new cut for a video.
type ReplaceVideoSourceRequest struct {
	SourceURL    string  `json:"source_url" validate:"required,url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// ShareLinkRequest selects the share-link mutation to perform.
type ShareLinkRequest struct {
	Action models.ShareLinkAction `json:"action" validate:"required,oneof=extend regenerate"`
}

// ShareLinkResponse returns the live link credentials after a change.
type ShareLinkResponse struct {
	ShareToken     string    `json:"share_token"`
	ShareExpiresAt time.Time `json:"share_expires_at"`
}

// ResolveNotesRequest marks a batch of notes resolved or reopens them.
type ResolveNotesRequest struct {
	NoteIDs []string          `json:"note_ids" validate:"required,min=1,dive,required"`
	Status  models.NoteStatus `json:"status" validate:"required,oneof=pending completed"`
}

// ProjectDetail aggregates a project with its videos and live notes.
type ProjectDetail struct {
	Project models.Project            `json:"project"`
	Videos  []models.VideoWithVersion `json:"videos"`
	Notes   []models.Note             `json:"notes"`
}

// editorOverrideSuffix marks override approvals in the audit trail.
const editorOverrideSuffix = " (editor override)"

// ProjectService coordinates the editor-side project operations.
type ProjectService struct {
	projects  projectRepository
	videos    projectVideoRepo
	notes     projectNoteRepo
	approvals projectApprovalRepo
	status    statusReconciler
	notifier  eventPublisher
	cache     *CacheService
	tokens    token.Source
	validator *validator.Validate
	logger    *zap.Logger
	retryCfg  retry.Config
	shareTTL  time.Duration
	now       func() time.Time
}

// NewProjectService constructs a ProjectService.
func NewProjectService(projects projectRepository, videos projectVideoRepo, notes projectNoteRepo, approvals projectApprovalRepo, status statusReconciler, notifier eventPublisher, cache *CacheService, tokens token.Source, validate *validator.Validate, logger *zap.Logger, retryCfg retry.Config, shareTTL time.Duration) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if shareTTL <= 0 {
		shareTTL = 7 * 24 * time.Hour
	}
	return &ProjectService{
		projects:  projects,
		videos:    videos,
		notes:     notes,
		approvals: approvals,
		status:    status,
		notifier:  notifier,
		cache:     cache,
		tokens:    tokens,
		validator: validate,
		logger:    logger,
		retryCfg:  retryCfg,
		shareTTL:  shareTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *ProjectService) WithClock(now func() time.Time) *ProjectService {
	s.now = now
	return s
}

// List returns the caller's projects with pagination metadata. Admins may
// list any owner's projects through the filter.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter, claims *models.JWTClaims) ([]models.Project, *models.Pagination, error) {
	if claims.Role != models.RoleAdmin || filter.OwnerUserID == "" {
		filter.OwnerUserID = claims.UserID
	}
	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return projects, pagination, nil
}

// Get returns a project with its videos and the notes on current versions.
func (s *ProjectService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*ProjectDetail, error) {
	project, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	videos, err := s.videos.ListWithCurrentVersion(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load videos")
	}
	notes, err := s.notes.ListForCurrentVersions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notes")
	}
	return &ProjectDetail{Project: *project, Videos: videos, Notes: notes}, nil
}

// Create finalises an import: the project plus one video and initial version
// per entry, and a fresh share link. The store offers no multi-record
// transaction, so creation is sequential; a failure part-way leaves a project
// the editor can retry into.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest, claims *models.JWTClaims) (*ProjectDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	shareToken, err := s.tokens.Generate()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue share token")
	}

	now := s.now()
	project := &models.Project{
		Name:               req.Name,
		ClientDisplayName:  req.ClientDisplayName,
		OwnerUserID:        claims.UserID,
		Status:             models.ProjectStatusActive,
		ShareToken:         shareToken,
		ShareExpiresAt:     now.Add(s.shareTTL),
		LastStatusChangeAt: now,
	}
	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.projects.Create(ctx, project)
	}); err != nil {
		return nil, appErrors.FromError(err)
	}

	for i, input := range req.Videos {
		video := &models.Video{
			ProjectID:  project.ID,
			Title:      input.Title,
			OrderIndex: i,
			Status:     models.VideoStatusPendingReview,
		}
		if err := s.videos.Create(ctx, video); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video")
		}
		version := &models.VideoVersion{
			VideoID:       video.ID,
			VersionNumber: 1,
			SourceURL:     input.SourceURL,
			ThumbnailURL:  input.ThumbnailURL,
		}
		if err := s.videos.CreateVersion(ctx, version); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video version")
		}
		if err := s.videos.SetCurrentVersion(ctx, video.ID, version.ID, models.VideoStatusPendingReview); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate video version")
		}
	}

	return s.Get(ctx, project.ID, claims)
}

// Update modifies descriptive fields of an owned project.
func (s *ProjectService) Update(ctx context.Context, id string, req UpdateProjectRequest, claims *models.JWTClaims) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	project, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	project.Name = req.Name
	project.ClientDisplayName = req.ClientDisplayName
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

// Archive puts the project in its sticky terminal state. Derivation never
// moves a project out of archived.
func (s *ProjectService) Archive(ctx context.Context, id string, claims *models.JWTClaims) (*models.Project, error) {
	project, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusArchived {
		return project, nil
	}

	changedAt := s.now()
	if err := s.projects.UpdateStatus(ctx, id, models.ProjectStatusArchived, project.ApprovedVideosCount, changedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive project")
	}
	s.cache.Invalidate(ctx, reviewCacheKey(project.ShareToken))

	project.Status = models.ProjectStatusArchived
	project.LastStatusChangeAt = changedAt
	return project, nil
}

// Unarchive reopens an archived project and recomputes its true status from
// the current videos and notes.
func (s *ProjectService) Unarchive(ctx context.Context, id string, claims *models.JWTClaims) (*models.Project, error) {
	project, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusArchived {
		return project, nil
	}

	if err := s.projects.UpdateStatus(ctx, id, models.ProjectStatusActive, project.ApprovedVideosCount, s.now()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unarchive project")
	}
	return s.status.Reconcile(ctx, id)
}

// OverrideApprove is the editor shortcut that approves everything at once:
// all videos approved, all notes completed, project approved, one override
// approval in the audit trail. The store gives no transaction, so the steps
// run sequentially and a failure triggers a reconciliation pass.
func (s *ProjectService) OverrideApprove(ctx context.Context, id string, req OverrideApproveRequest, claims *models.JWTClaims) (*models.Project, error) {
	project, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "project is archived")
	}

	label := strings.TrimSpace(req.ReviewerLabel)
	if label == "" {
		label = claims.FullName
	}

	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.videos.ApproveAllByProject(ctx, id)
	}); err != nil {
		s.reconcileBestEffort(ctx, id)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve videos")
	}
	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.notes.CompleteAllByProject(ctx, id)
	}); err != nil {
		s.reconcileBestEffort(ctx, id)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve notes")
	}

	videos, err := s.videos.ListByProject(ctx, id)
	if err != nil {
		s.reconcileBestEffort(ctx, id)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load videos")
	}

	changedAt := s.now()
	if err := s.projects.UpdateStatus(ctx, id, models.ProjectStatusApproved, len(videos), changedAt); err != nil {
		s.reconcileBestEffort(ctx, id)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve project")
	}

	if err := s.approvals.Create(ctx, &models.Approval{
		Scope:         models.ApprovalScopeProject,
		ScopeID:       id,
		ReviewerLabel: label + editorOverrideSuffix,
		ApprovedAt:    changedAt,
	}); err != nil {
		s.logger.Warn("failed to record override approval", zap.String("project_id", id), zap.Error(err))
	}

	// The override and the derivation must never disagree.
	reconciled, err := s.status.Reconcile(ctx, id)
	if err != nil {
		return nil, err
	}
	if reconciled.Status != models.ProjectStatusApproved {
		s.logger.Error("override approval disagrees with derived status",
			zap.String("project_id", id),
			zap.String("derived", string(reconciled.Status)),
		)
	}

	s.cache.Invalidate(ctx, reviewCacheKey(project.ShareToken))
	s.notifier.Publish(models.NotificationEvent{
		Type:          models.EventProjectApproved,
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		ReviewerLabel: label,
	})

	return reconciled, nil
}

// ReplaceVideoSource uploads a new cut: a fresh append-only version with the
// next version number becomes current and the video returns to
// pending_review. Notes on prior versions stay where they were written.
func (s *ProjectService) ReplaceVideoSource(ctx context.Context, videoID string, req ReplaceVideoSourceRequest, claims *models.JWTClaims) (*models.VideoVersion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid source payload")
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	project, err := s.loadOwned(ctx, video.ProjectID, claims)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "project is archived")
	}

	maxVersion, err := s.videos.MaxVersionNumber(ctx, videoID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to determine next version")
	}

	version := &models.VideoVersion{
		VideoID:       videoID,
		VersionNumber: maxVersion + 1,
		SourceURL:     req.SourceURL,
		ThumbnailURL:  req.ThumbnailURL,
	}
	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.videos.CreateVersion(ctx, version)
	}); err != nil {
		return nil, appErrors.FromError(err)
	}

	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.videos.SetCurrentVersion(ctx, videoID, version.ID, models.VideoStatusPendingReview)
	}); err != nil {
		s.reconcileBestEffort(ctx, project.ID)
		return nil, appErrors.FromError(err)
	}

	if _, err := s.status.Reconcile(ctx, project.ID); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, reviewCacheKey(project.ShareToken))
	return version, nil
}

// ListVideoVersions returns the append-only version history of a video.
func (s *ProjectService) ListVideoVersions(ctx context.Context, videoID string, claims *models.JWTClaims) ([]models.VideoVersion, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if _, err := s.loadOwned(ctx, video.ProjectID, claims); err != nil {
		return nil, err
	}

	versions, err := s.videos.ListVersions(ctx, videoID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list versions")
	}
	return versions, nil
}

// ListVideoNotes returns the feedback left on one version of a video. With an
// empty versionID it reads the current version. Replacing a source retires
// old feedback from status derivation but never from this history.
func (s *ProjectService) ListVideoNotes(ctx context.Context, videoID, versionID string, claims *models.JWTClaims) ([]models.Note, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if _, err := s.loadOwned(ctx, video.ProjectID, claims); err != nil {
		return nil, err
	}

	if versionID == "" {
		if video.CurrentVersionID == nil {
			return []models.Note{}, nil
		}
		versionID = *video.CurrentVersionID
	} else {
		version, err := s.videos.FindVersionByID(ctx, versionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "version not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version")
		}
		if version.VideoID != videoID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "version belongs to another video")
		}
	}

	notes, err := s.notes.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, nil
}

// ManageShareLink extends or regenerates the review link. Regeneration makes
// the previous token permanently invalid with no grace period.
func (s *ProjectService) ManageShareLink(ctx context.Context, id string, req ShareLinkRequest, claims *models.JWTClaims) (*ShareLinkResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid share link action")
	}
	project, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	shareToken := project.ShareToken
	if req.Action == models.ShareLinkRegenerate {
		shareToken, err = s.tokens.Generate()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue share token")
		}
	}
	expiresAt := s.now().Add(s.shareTTL)

	if err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		return s.projects.UpdateShareLink(ctx, id, shareToken, expiresAt)
	}); err != nil {
		return nil, appErrors.FromError(err)
	}

	// Drop any page cached under the superseded token.
	s.cache.Invalidate(ctx, reviewCacheKey(project.ShareToken))
	s.notifier.Publish(models.NotificationEvent{
		Type:        models.EventShareLinkUpdated,
		ProjectID:   project.ID,
		ProjectName: project.Name,
	})

	return &ShareLinkResponse{ShareToken: shareToken, ShareExpiresAt: expiresAt}, nil
}

// ResolveNotes marks a batch of notes completed (or reopens them) and
// re-derives project status once.
func (s *ProjectService) ResolveNotes(ctx context.Context, projectID string, req ResolveNotesRequest, claims *models.JWTClaims) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notes payload")
	}
	project, err := s.loadOwned(ctx, projectID, claims)
	if err != nil {
		return nil, err
	}

	for _, noteID := range req.NoteIDs {
		note, err := s.notes.FindByID(ctx, noteID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
		}
		version, err := s.videos.FindVersionByID(ctx, note.VideoVersionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note version")
		}
		video, err := s.videos.FindByID(ctx, version.VideoID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note video")
		}
		if video.ProjectID != projectID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "note does not belong to this project")
		}
		if err := s.notes.UpdateStatus(ctx, noteID, req.Status); err != nil {
			s.reconcileBestEffort(ctx, projectID)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update note")
		}
	}

	reconciled, err := s.status.Reconcile(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, reviewCacheKey(project.ShareToken))
	return reconciled, nil
}

// ListApprovals returns the audit trail for a project and its videos.
func (s *ProjectService) ListApprovals(ctx context.Context, projectID string, claims *models.JWTClaims) ([]models.Approval, error) {
	if _, err := s.loadOwned(ctx, projectID, claims); err != nil {
		return nil, err
	}

	approvals, err := s.approvals.ListByScope(ctx, models.ApprovalScopeProject, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approvals")
	}

	videos, err := s.videos.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load videos")
	}
	for _, video := range videos {
		videoApprovals, err := s.approvals.ListByScope(ctx, models.ApprovalScopeVideo, video.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list video approvals")
		}
		approvals = append(approvals, videoApprovals...)
	}
	return approvals, nil
}

// loadOwned fetches a project and enforces ownership. Admins may act on any
// project.
func (s *ProjectService) loadOwned(ctx context.Context, id string, claims *models.JWTClaims) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if claims.Role != models.RoleAdmin && project.OwnerUserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "project belongs to another editor")
	}
	return project, nil
}

func (s *ProjectService) reconcileBestEffort(ctx context.Context, projectID string) {
	if _, err := s.status.Reconcile(ctx, projectID); err != nil {
		s.logger.Warn("reconciliation after partial failure did not complete", zap.String("project_id", projectID), zap.Error(err))
	}
}
