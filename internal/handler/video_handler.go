package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZyrticX/youreditable-api/internal/service"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/response"
)

// VideoHandler wires HTTP endpoints for per-video operations.
type VideoHandler struct {
	service *service.ProjectService
}

// NewVideoHandler creates a new handler.
func NewVideoHandler(svc *service.ProjectService) *VideoHandler {
	return &VideoHandler{service: svc}
}

// ReplaceSource godoc
// @Summary Replace video source
// @Description Upload a new cut: a fresh version becomes current and the video returns to pending_review
// @Tags Videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body service.ReplaceVideoSourceRequest true "Source payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /videos/{id}/versions [post]
func (h *VideoHandler) ReplaceSource(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReplaceVideoSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid source payload"))
		return
	}

	version, err := h.service.ReplaceVideoSource(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, version)
}

// ListVersions godoc
// @Summary List video versions
// @Description Returns the append-only version history of a video
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /videos/{id}/versions [get]
func (h *VideoHandler) ListVersions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	versions, err := h.service.ListVideoVersions(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, versions, nil)
}

// ListNotes godoc
// @Summary List video feedback
// @Description Returns the notes left on one version of a video (current version by default)
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Param version_id query string false "Version ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /videos/{id}/notes [get]
func (h *VideoHandler) ListNotes(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notes, err := h.service.ListVideoNotes(c.Request.Context(), c.Param("id"), c.Query("version_id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, notes, nil)
}
