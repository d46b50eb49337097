package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ZyrticX/youreditable-api/internal/models"
)

// memData is a shared in-memory store backing the repository stubs so that
// multi-step flows (feedback, approval cascade, override) observe each
// other's writes the way they would against a real database.
type memData struct {
	projects  map[string]*models.Project
	videos    map[string]*models.Video
	versions  map[string]*models.VideoVersion
	notes     map[string]*models.Note
	approvals []models.Approval

	statusWrites int
}

func newMemData() *memData {
	return &memData{
		projects: make(map[string]*models.Project),
		videos:   make(map[string]*models.Video),
		versions: make(map[string]*models.VideoVersion),
		notes:    make(map[string]*models.Note),
	}
}

func (d *memData) addProject(p models.Project) *models.Project {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	d.projects[p.ID] = &p
	return d.projects[p.ID]
}

func (d *memData) addVideo(v models.Video) *models.Video {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	d.videos[v.ID] = &v
	return d.videos[v.ID]
}

func (d *memData) addVersion(v models.VideoVersion) *models.VideoVersion {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	d.versions[v.ID] = &v
	return d.versions[v.ID]
}

func (d *memData) addNote(n models.Note) *models.Note {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	d.notes[n.ID] = &n
	return d.notes[n.ID]
}

type stubProjects struct {
	d *memData

	updateStatusErr error
}

func (s *stubProjects) List(_ context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	var out []models.Project
	for _, p := range s.d.projects {
		if filter.OwnerUserID != "" && p.OwnerUserID != filter.OwnerUserID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *stubProjects) FindByID(_ context.Context, id string) (*models.Project, error) {
	p, ok := s.d.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (s *stubProjects) FindByShareToken(_ context.Context, token string) (*models.Project, error) {
	for _, p := range s.d.projects {
		if p.ShareToken == token {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubProjects) Create(_ context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	copied := *project
	s.d.projects[project.ID] = &copied
	return nil
}

func (s *stubProjects) Update(_ context.Context, project *models.Project) error {
	stored, ok := s.d.projects[project.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Name = project.Name
	stored.ClientDisplayName = project.ClientDisplayName
	return nil
}

func (s *stubProjects) UpdateStatus(_ context.Context, id string, status models.ProjectStatus, approvedCount int, changedAt time.Time) error {
	if s.updateStatusErr != nil {
		return s.updateStatusErr
	}
	stored, ok := s.d.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = status
	stored.ApprovedVideosCount = approvedCount
	stored.LastStatusChangeAt = changedAt
	s.d.statusWrites++
	return nil
}

func (s *stubProjects) UpdateShareLink(_ context.Context, id, token string, expiresAt time.Time) error {
	stored, ok := s.d.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.ShareToken = token
	stored.ShareExpiresAt = expiresAt
	return nil
}

type stubVideos struct {
	d *memData

	updateStatusErr     error
	updateStatusErrLeft int
}

func (s *stubVideos) ListByProject(_ context.Context, projectID string) ([]models.Video, error) {
	var out []models.Video
	for _, v := range s.d.videos {
		if v.ProjectID == projectID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *stubVideos) ListWithCurrentVersion(_ context.Context, projectID string) ([]models.VideoWithVersion, error) {
	videos, _ := s.ListByProject(context.Background(), projectID)
	out := make([]models.VideoWithVersion, 0, len(videos))
	for _, v := range videos {
		joined := models.VideoWithVersion{Video: v}
		if v.CurrentVersionID != nil {
			if ver, ok := s.d.versions[*v.CurrentVersionID]; ok {
				joined.VersionNumber = &ver.VersionNumber
				joined.SourceURL = &ver.SourceURL
				joined.ThumbnailURL = ver.ThumbnailURL
			}
		}
		out = append(out, joined)
	}
	return out, nil
}

func (s *stubVideos) FindByID(_ context.Context, id string) (*models.Video, error) {
	v, ok := s.d.videos[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *v
	return &copied, nil
}

func (s *stubVideos) Create(_ context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	copied := *video
	s.d.videos[video.ID] = &copied
	return nil
}

func (s *stubVideos) UpdateStatus(_ context.Context, id string, status models.VideoStatus) error {
	if s.updateStatusErr != nil && s.updateStatusErrLeft != 0 {
		if s.updateStatusErrLeft > 0 {
			s.updateStatusErrLeft--
		}
		return s.updateStatusErr
	}
	stored, ok := s.d.videos[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = status
	return nil
}

func (s *stubVideos) SetCurrentVersion(_ context.Context, id, versionID string, status models.VideoStatus) error {
	stored, ok := s.d.videos[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.CurrentVersionID = &versionID
	stored.Status = status
	return nil
}

func (s *stubVideos) ApproveAllByProject(_ context.Context, projectID string) error {
	for _, v := range s.d.videos {
		if v.ProjectID == projectID {
			v.Status = models.VideoStatusApproved
		}
	}
	return nil
}

func (s *stubVideos) CreateVersion(_ context.Context, version *models.VideoVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	copied := *version
	s.d.versions[version.ID] = &copied
	return nil
}

func (s *stubVideos) FindVersionByID(_ context.Context, id string) (*models.VideoVersion, error) {
	v, ok := s.d.versions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *v
	return &copied, nil
}

func (s *stubVideos) ListVersions(_ context.Context, videoID string) ([]models.VideoVersion, error) {
	var out []models.VideoVersion
	for _, v := range s.d.versions {
		if v.VideoID == videoID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

func (s *stubVideos) MaxVersionNumber(_ context.Context, videoID string) (int, error) {
	max := 0
	for _, v := range s.d.versions {
		if v.VideoID == videoID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

type stubNotes struct {
	d *memData

	bulkCreateErr     error
	bulkCreateErrLeft int
}

func (s *stubNotes) ListForCurrentVersions(_ context.Context, projectID string) ([]models.Note, error) {
	var out []models.Note
	for _, n := range s.d.notes {
		ver, ok := s.d.versions[n.VideoVersionID]
		if !ok {
			continue
		}
		video, ok := s.d.videos[ver.VideoID]
		if !ok || video.ProjectID != projectID {
			continue
		}
		if video.CurrentVersionID == nil || *video.CurrentVersionID != n.VideoVersionID {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubNotes) ListByVersion(_ context.Context, versionID string) ([]models.Note, error) {
	var out []models.Note
	for _, n := range s.d.notes {
		if n.VideoVersionID == versionID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubNotes) BulkCreate(_ context.Context, notes []models.Note) error {
	if s.bulkCreateErr != nil && s.bulkCreateErrLeft != 0 {
		if s.bulkCreateErrLeft > 0 {
			s.bulkCreateErrLeft--
		}
		return s.bulkCreateErr
	}
	for i := range notes {
		if notes[i].ID == "" {
			notes[i].ID = uuid.NewString()
		}
		copied := notes[i]
		s.d.notes[copied.ID] = &copied
	}
	return nil
}

func (s *stubNotes) FindByID(_ context.Context, id string) (*models.Note, error) {
	n, ok := s.d.notes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *n
	return &copied, nil
}

func (s *stubNotes) UpdateStatus(_ context.Context, id string, status models.NoteStatus) error {
	stored, ok := s.d.notes[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = status
	return nil
}

func (s *stubNotes) CompleteAllByProject(_ context.Context, projectID string) error {
	for _, n := range s.d.notes {
		ver, ok := s.d.versions[n.VideoVersionID]
		if !ok {
			continue
		}
		video, ok := s.d.videos[ver.VideoID]
		if !ok || video.ProjectID != projectID {
			continue
		}
		n.Status = models.NoteStatusCompleted
	}
	return nil
}

func (s *stubNotes) CountPendingByVersion(_ context.Context, versionID string) (int, error) {
	count := 0
	for _, n := range s.d.notes {
		if n.VideoVersionID == versionID && n.Status == models.NoteStatusPending {
			count++
		}
	}
	return count, nil
}

type stubApprovals struct {
	d *memData

	createErr error
}

func (s *stubApprovals) Create(_ context.Context, approval *models.Approval) error {
	if s.createErr != nil {
		return s.createErr
	}
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	s.d.approvals = append(s.d.approvals, *approval)
	return nil
}

func (s *stubApprovals) ListByScope(_ context.Context, scope models.ApprovalScope, scopeID string) ([]models.Approval, error) {
	var out []models.Approval
	for _, a := range s.d.approvals {
		if a.Scope == scope && a.ScopeID == scopeID {
			out = append(out, a)
		}
	}
	return out, nil
}

type capturedEvents struct {
	events []models.NotificationEvent
}

func (c *capturedEvents) Publish(event models.NotificationEvent) {
	c.events = append(c.events, event)
}

type stubTokenSource struct {
	tokens []string
	next   int
}

func (s *stubTokenSource) Generate() (string, error) {
	if s.next >= len(s.tokens) {
		return uuid.NewString(), nil
	}
	token := s.tokens[s.next]
	s.next++
	return token, nil
}
