package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZyrticX/youreditable-api/internal/models"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// ExportKind selects which report to build.
type ExportKind string

const (
	ExportKindFeedback  ExportKind = "feedback"
	ExportKindApprovals ExportKind = "approvals"
)

// ExportResult carries a rendered report ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportProjectLoader interface {
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*ProjectDetail, error)
	ListApprovals(ctx context.Context, projectID string, claims *models.JWTClaims) ([]models.Approval, error)
}

// ExportService renders project feedback and approval trails as CSV or PDF.
type ExportService struct {
	projects exportProjectLoader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(projects exportProjectLoader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{projects: projects, csv: csv, pdf: pdf, logger: logger}
}

// Generate builds the requested report for an owned project.
func (s *ExportService) Generate(ctx context.Context, projectID string, kind ExportKind, format ExportFormat, claims *models.JWTClaims) (*ExportResult, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	var (
		dataset export.Dataset
		title   string
		err     error
	)
	switch kind {
	case ExportKindFeedback:
		dataset, title, err = s.buildFeedbackDataset(ctx, projectID, claims)
	case ExportKindApprovals:
		dataset, title, err = s.buildApprovalsDataset(ctx, projectID, claims)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report %q", kind))
	}
	if err != nil {
		return nil, err
	}

	var payload []byte
	contentType := "text/csv"
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    buildExportFilename(string(kind), title, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildFeedbackDataset(ctx context.Context, projectID string, claims *models.JWTClaims) (export.Dataset, string, error) {
	detail, err := s.projects.Get(ctx, projectID, claims)
	if err != nil {
		return export.Dataset{}, "", err
	}

	videoByVersion := make(map[string]models.VideoWithVersion, len(detail.Videos))
	for _, video := range detail.Videos {
		if video.CurrentVersionID != nil {
			videoByVersion[*video.CurrentVersionID] = video
		}
	}

	rows := make([]map[string]string, 0, len(detail.Notes))
	for _, note := range detail.Notes {
		row := map[string]string{
			"Video":    "",
			"Version":  "",
			"Reviewer": note.ReviewerLabel,
			"Note":     note.Body,
			"Status":   string(note.Status),
			"Left At":  note.CreatedAt.UTC().Format(time.RFC3339),
		}
		if video, ok := videoByVersion[note.VideoVersionID]; ok {
			row["Video"] = video.Title
			if video.VersionNumber != nil {
				row["Version"] = fmt.Sprintf("v%d", *video.VersionNumber)
			}
		}
		rows = append(rows, row)
	}

	dataset := export.Dataset{
		Headers: []string{"Video", "Version", "Reviewer", "Note", "Status", "Left At"},
		Rows:    rows,
	}
	return dataset, fmt.Sprintf("Feedback — %s", detail.Project.Name), nil
}

func (s *ExportService) buildApprovalsDataset(ctx context.Context, projectID string, claims *models.JWTClaims) (export.Dataset, string, error) {
	detail, err := s.projects.Get(ctx, projectID, claims)
	if err != nil {
		return export.Dataset{}, "", err
	}
	approvals, err := s.projects.ListApprovals(ctx, projectID, claims)
	if err != nil {
		return export.Dataset{}, "", err
	}

	videoTitles := make(map[string]string, len(detail.Videos))
	for _, video := range detail.Videos {
		videoTitles[video.ID] = video.Title
	}

	rows := make([]map[string]string, 0, len(approvals))
	for _, approval := range approvals {
		scope := "project"
		subject := detail.Project.Name
		if approval.Scope == models.ApprovalScopeVideo {
			scope = "video"
			subject = videoTitles[approval.ScopeID]
		}
		rows = append(rows, map[string]string{
			"Scope":       scope,
			"Subject":     subject,
			"Reviewer":    approval.ReviewerLabel,
			"Approved At": approval.ApprovedAt.UTC().Format(time.RFC3339),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Scope", "Subject", "Reviewer", "Approved At"},
		Rows:    rows,
	}
	return dataset, fmt.Sprintf("Approvals — %s", detail.Project.Name), nil
}

func buildExportFilename(kind, title string, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", kind, sanitizeFilename(title), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "—", "-", "..", ".", "__", "_")
	result := replacer.Replace(strings.ToLower(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
