package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ZyrticX/youreditable-api/internal/service"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/response"
)

// ExportHandler streams rendered feedback and approval reports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Download godoc
// @Summary Export project report
// @Description Render the project's feedback or approval trail as CSV or PDF
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Project ID"
// @Param kind query string false "Report kind (feedback|approvals)" default(feedback)
// @Param format query string false "Output format (csv|pdf)" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	kind := service.ExportKind(c.DefaultQuery("kind", string(service.ExportKindFeedback)))
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))

	result, err := h.service.Generate(c.Request.Context(), c.Param("id"), kind, format, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Download(c, result.Filename, result.ContentType, result.Payload)
}
