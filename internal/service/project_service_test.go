package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZyrticX/youreditable-api/internal/models"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/retry"
)

type projectFixture struct {
	d         *memData
	projects  *stubProjects
	videos    *stubVideos
	notes     *stubNotes
	approvals *stubApprovals
	events    *capturedEvents
	tokens    *stubTokenSource
	status    *StatusService
	svc       *ProjectService
	now       time.Time
}

func newProjectFixture() *projectFixture {
	d := newMemData()
	f := &projectFixture{
		d:         d,
		projects:  &stubProjects{d: d},
		videos:    &stubVideos{d: d},
		notes:     &stubNotes{d: d},
		approvals: &stubApprovals{d: d},
		events:    &capturedEvents{},
		tokens:    &stubTokenSource{tokens: []string{"tok1", "tok2"}},
		now:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	f.status = NewStatusService(f.projects, f.videos, f.notes, zap.NewNop()).
		WithClock(func() time.Time { return f.now })
	f.svc = NewProjectService(f.projects, f.videos, f.notes, f.approvals, f.status, f.events, nil, f.tokens, validator.New(), zap.NewNop(), retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}, 7*24*time.Hour).
		WithClock(func() time.Time { return f.now })
	return f
}

func editorClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleEditor, FullName: "Noa Editor"}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin, FullName: "Admin"}
}

func (f *projectFixture) seedProject(owner string, n int) (*models.Project, []*models.Video, []*models.VideoVersion) {
	project := f.d.addProject(models.Project{
		Name:           "Launch video",
		OwnerUserID:    owner,
		Status:         models.ProjectStatusActive,
		ShareToken:     "seeded",
		ShareExpiresAt: f.now.Add(time.Hour),
	})
	videos := make([]*models.Video, 0, n)
	versions := make([]*models.VideoVersion, 0, n)
	for i := 0; i < n; i++ {
		video := f.d.addVideo(models.Video{ProjectID: project.ID, Title: "Cut", OrderIndex: i, Status: models.VideoStatusPendingReview})
		version := f.d.addVersion(models.VideoVersion{VideoID: video.ID, VersionNumber: 1, SourceURL: "https://cdn/cut.mp4"})
		video.CurrentVersionID = &version.ID
		videos = append(videos, video)
		versions = append(versions, version)
	}
	return project, videos, versions
}

func TestProjectCreateImportsVideos(t *testing.T) {
	f := newProjectFixture()

	detail, err := f.svc.Create(context.Background(), CreateProjectRequest{
		Name:              "Brand film",
		ClientDisplayName: "Acme",
		Videos: []NewVideoInput{
			{Title: "Teaser", SourceURL: "https://cdn/teaser.mp4"},
			{Title: "Main cut", SourceURL: "https://cdn/main.mp4"},
		},
	}, editorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.ProjectStatusActive, detail.Project.Status)
	assert.Equal(t, "u1", detail.Project.OwnerUserID)
	assert.Equal(t, "tok1", detail.Project.ShareToken)
	assert.Equal(t, f.now.Add(7*24*time.Hour), detail.Project.ShareExpiresAt)

	require.Len(t, detail.Videos, 2)
	for _, video := range detail.Videos {
		assert.Equal(t, models.VideoStatusPendingReview, video.Status)
		require.NotNil(t, video.CurrentVersionID)
		require.NotNil(t, video.VersionNumber)
		assert.Equal(t, 1, *video.VersionNumber)
	}
}

func TestProjectCreateRequiresVideos(t *testing.T) {
	f := newProjectFixture()

	_, err := f.svc.Create(context.Background(), CreateProjectRequest{Name: "Empty", ClientDisplayName: "Acme"}, editorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProjectGetEnforcesOwnership(t *testing.T) {
	f := newProjectFixture()
	project, _, _ := f.seedProject("u1", 1)

	_, err := f.svc.Get(context.Background(), project.ID, editorClaims("intruder"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Get(context.Background(), project.ID, adminClaims())
	assert.NoError(t, err)
}

func TestProjectArchiveIsSticky(t *testing.T) {
	f := newProjectFixture()
	project, videos, _ := f.seedProject("u1", 1)

	archived, err := f.svc.Archive(context.Background(), project.ID, editorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusArchived, archived.Status)

	// Approving everything afterwards must not move the project.
	f.d.videos[videos[0].ID].Status = models.VideoStatusApproved
	reconciled, err := f.status.Reconcile(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusArchived, reconciled.Status)
}

func TestProjectUnarchiveRecomputes(t *testing.T) {
	f := newProjectFixture()
	project, videos, _ := f.seedProject("u1", 1)
	f.d.projects[project.ID].Status = models.ProjectStatusArchived
	f.d.videos[videos[0].ID].Status = models.VideoStatusApproved

	restored, err := f.svc.Unarchive(context.Background(), project.ID, editorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusApproved, restored.Status)
	assert.Equal(t, 1, restored.ApprovedVideosCount)
}

func TestOverrideApprove(t *testing.T) {
	f := newProjectFixture()
	project, _, versions := f.seedProject("u1", 2)
	note := f.d.addNote(models.Note{VideoVersionID: versions[0].ID, Body: "Too dark", Status: models.NoteStatusPending, ReviewerLabel: "Dana", SubmitBatchID: "b1"})

	result, err := f.svc.OverrideApprove(context.Background(), project.ID, OverrideApproveRequest{}, editorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusApproved, result.Status)
	assert.Equal(t, 2, result.ApprovedVideosCount)

	for _, video := range f.d.videos {
		assert.Equal(t, models.VideoStatusApproved, video.Status)
	}
	assert.Equal(t, models.NoteStatusCompleted, f.d.notes[note.ID].Status)

	projectApprovals, err := f.approvals.ListByScope(context.Background(), models.ApprovalScopeProject, project.ID)
	require.NoError(t, err)
	require.Len(t, projectApprovals, 1)
	assert.Equal(t, "Noa Editor"+editorOverrideSuffix, projectApprovals[0].ReviewerLabel)

	require.NotEmpty(t, f.events.events)
	assert.Equal(t, models.EventProjectApproved, f.events.events[len(f.events.events)-1].Type)
}

func TestOverrideApproveArchivedRejected(t *testing.T) {
	f := newProjectFixture()
	project, _, _ := f.seedProject("u1", 1)
	f.d.projects[project.ID].Status = models.ProjectStatusArchived

	_, err := f.svc.OverrideApprove(context.Background(), project.ID, OverrideApproveRequest{}, editorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestReplaceVideoSource(t *testing.T) {
	f := newProjectFixture()
	project, videos, versions := f.seedProject("u1", 1)
	f.d.videos[videos[0].ID].Status = models.VideoStatusApproved
	f.d.addNote(models.Note{VideoVersionID: versions[0].ID, Body: "Old gripe", Status: models.NoteStatusPending, ReviewerLabel: "Dana", SubmitBatchID: "b1"})

	version, err := f.svc.ReplaceVideoSource(context.Background(), videos[0].ID, ReplaceVideoSourceRequest{SourceURL: "https://cdn/cut_v2.mp4"}, editorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, 2, version.VersionNumber)

	video := f.d.videos[videos[0].ID]
	require.NotNil(t, video.CurrentVersionID)
	assert.Equal(t, version.ID, *video.CurrentVersionID)
	assert.Equal(t, models.VideoStatusPendingReview, video.Status)

	// Notes on the superseded version age out of derivation.
	assert.Equal(t, models.ProjectStatusActive, f.d.projects[project.ID].Status)
}

func TestReplaceVideoSourceVersionNumbersIncrease(t *testing.T) {
	f := newProjectFixture()
	_, videos, _ := f.seedProject("u1", 1)

	second, err := f.svc.ReplaceVideoSource(context.Background(), videos[0].ID, ReplaceVideoSourceRequest{SourceURL: "https://cdn/v2.mp4"}, editorClaims("u1"))
	require.NoError(t, err)
	third, err := f.svc.ReplaceVideoSource(context.Background(), videos[0].ID, ReplaceVideoSourceRequest{SourceURL: "https://cdn/v3.mp4"}, editorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, 2, second.VersionNumber)
	assert.Equal(t, 3, third.VersionNumber)

	history, err := f.svc.ListVideoVersions(context.Background(), videos[0].ID, editorClaims("u1"))
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 1, history[0].VersionNumber)
	assert.Equal(t, 3, history[2].VersionNumber)
}

func TestListVideoNotesDefaultsToCurrentVersion(t *testing.T) {
	f := newProjectFixture()
	_, videos, versions := f.seedProject("u1", 1)
	current := f.d.addNote(models.Note{VideoVersionID: versions[0].ID, Body: "Current cut note", Status: models.NoteStatusPending, ReviewerLabel: "Dana", SubmitBatchID: "b1"})

	old := f.d.addVersion(models.VideoVersion{VideoID: videos[0].ID, VersionNumber: 0, SourceURL: "https://cdn/v0.mp4"})
	f.d.addNote(models.Note{VideoVersionID: old.ID, Body: "Retired note", Status: models.NoteStatusCompleted, ReviewerLabel: "Dana", SubmitBatchID: "b0"})

	notes, err := f.svc.ListVideoNotes(context.Background(), videos[0].ID, "", editorClaims("u1"))
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, current.ID, notes[0].ID)

	// History on a superseded version stays readable.
	retired, err := f.svc.ListVideoNotes(context.Background(), videos[0].ID, old.ID, editorClaims("u1"))
	require.NoError(t, err)
	require.Len(t, retired, 1)
	assert.Equal(t, "Retired note", retired[0].Body)
}

func TestListVideoNotesRejectsForeignVersion(t *testing.T) {
	f := newProjectFixture()
	_, videos, _ := f.seedProject("u1", 1)
	_, _, otherVersions := f.seedProject("u1", 1)

	_, err := f.svc.ListVideoNotes(context.Background(), videos[0].ID, otherVersions[0].ID, editorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestManageShareLinkExtendKeepsToken(t *testing.T) {
	f := newProjectFixture()
	project, _, _ := f.seedProject("u1", 1)

	link, err := f.svc.ManageShareLink(context.Background(), project.ID, ShareLinkRequest{Action: models.ShareLinkExtend}, editorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, "seeded", link.ShareToken)
	assert.Equal(t, f.now.Add(7*24*time.Hour), link.ShareExpiresAt)
}

func TestManageShareLinkRegenerateInvalidatesOldToken(t *testing.T) {
	f := newProjectFixture()
	project, _, _ := f.seedProject("u1", 1)

	link, err := f.svc.ManageShareLink(context.Background(), project.ID, ShareLinkRequest{Action: models.ShareLinkRegenerate}, editorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, "tok1", link.ShareToken)
	assert.NotEqual(t, "seeded", link.ShareToken)

	// The superseded token resolves to nothing.
	_, err = f.projects.FindByShareToken(context.Background(), "seeded")
	assert.Error(t, err)

	found, err := f.projects.FindByShareToken(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, project.ID, found.ID)
}

func TestResolveNotesRederivesStatus(t *testing.T) {
	f := newProjectFixture()
	project, videos, versions := f.seedProject("u1", 1)
	f.d.videos[videos[0].ID].Status = models.VideoStatusApproved
	note := f.d.addNote(models.Note{VideoVersionID: versions[0].ID, Body: "Fix the color", Status: models.NoteStatusPending, ReviewerLabel: "Dana", SubmitBatchID: "b1"})

	result, err := f.svc.ResolveNotes(context.Background(), project.ID, ResolveNotesRequest{
		NoteIDs: []string{note.ID},
		Status:  models.NoteStatusCompleted,
	}, editorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.NoteStatusCompleted, f.d.notes[note.ID].Status)
	assert.Equal(t, models.ProjectStatusApproved, result.Status)
}

func TestResolveNotesKeepsPendingUntilApproved(t *testing.T) {
	f := newProjectFixture()
	project, videos, versions := f.seedProject("u1", 1)
	first := f.d.addNote(models.Note{VideoVersionID: versions[0].ID, Body: "Trim the end", Status: models.NoteStatusPending, ReviewerLabel: "Dana", SubmitBatchID: "b1"})
	second := f.d.addNote(models.Note{VideoVersionID: versions[0].ID, Body: "Louder music", Status: models.NoteStatusPending, ReviewerLabel: "Dana", SubmitBatchID: "b1"})
	f.d.projects[project.ID].Status = models.ProjectStatusPending

	result, err := f.svc.ResolveNotes(context.Background(), project.ID, ResolveNotesRequest{
		NoteIDs: []string{first.ID, second.ID},
		Status:  models.NoteStatusCompleted,
	}, editorClaims("u1"))
	require.NoError(t, err)

	// The video is still unapproved, so completing the notes is not enough.
	assert.Equal(t, models.ProjectStatusPending, result.Status)

	f.d.videos[videos[0].ID].Status = models.VideoStatusApproved
	reconciled, err := f.status.Reconcile(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusApproved, reconciled.Status)
}

func TestResolveNotesRejectsForeignNote(t *testing.T) {
	f := newProjectFixture()
	project, _, _ := f.seedProject("u1", 1)
	_, _, otherVersions := f.seedProject("u2", 1)
	foreign := f.d.addNote(models.Note{VideoVersionID: otherVersions[0].ID, Body: "Not yours", Status: models.NoteStatusPending, ReviewerLabel: "Dana", SubmitBatchID: "b2"})

	_, err := f.svc.ResolveNotes(context.Background(), project.ID, ResolveNotesRequest{
		NoteIDs: []string{foreign.ID},
		Status:  models.NoteStatusCompleted,
	}, editorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestProjectListScopedToOwner(t *testing.T) {
	f := newProjectFixture()
	f.seedProject("u1", 0)
	f.seedProject("u2", 0)

	projects, pagination, err := f.svc.List(context.Background(), models.ProjectFilter{}, editorClaims("u1"))
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "u1", projects[0].OwnerUserID)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestListApprovalsIncludesVideoScope(t *testing.T) {
	f := newProjectFixture()
	project, videos, versions := f.seedProject("u1", 1)
	require.NoError(t, f.approvals.Create(context.Background(), &models.Approval{Scope: models.ApprovalScopeVideo, ScopeID: videos[0].ID, VersionID: &versions[0].ID, ReviewerLabel: "Dana", ApprovedAt: f.now}))
	require.NoError(t, f.approvals.Create(context.Background(), &models.Approval{Scope: models.ApprovalScopeProject, ScopeID: project.ID, ReviewerLabel: "Dana", ApprovedAt: f.now}))

	approvals, err := f.svc.ListApprovals(context.Background(), project.ID, editorClaims("u1"))
	require.NoError(t, err)
	assert.Len(t, approvals, 2)
}
