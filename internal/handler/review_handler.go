package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZyrticX/youreditable-api/internal/service"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/response"
)

// ReviewHandler serves the unauthenticated review surface. Every route is
// addressed by an opaque share token resolved by the share token middleware.
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// GetPage godoc
// @Summary Load review page
// @Description Returns the project, its videos with current versions, and live notes for a share token
// @Tags Review
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /review/{token} [get]
func (h *ReviewHandler) GetPage(c *gin.Context) {
	page, err := h.service.LoadByShareToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, page, nil)
}

// SubmitFeedback godoc
// @Summary Submit feedback
// @Description Create a batch of notes against a video version and flag the video needs_changes
// @Tags Review
// @Accept json
// @Produce json
// @Param token path string true "Share token"
// @Param payload body service.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /review/{token}/feedback [post]
func (h *ReviewHandler) SubmitFeedback(c *gin.Context) {
	project := reviewProjectFromContext(c)
	if project == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	notes, err := h.service.SubmitFeedback(c.Request.Context(), project.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, notes)
}

// ApproveVideo godoc
// @Summary Approve video
// @Description Record a client approval for one video; approving an approved video is a no-op
// @Tags Review
// @Accept json
// @Produce json
// @Param token path string true "Share token"
// @Param id path string true "Video ID"
// @Param payload body service.ApproveVideoRequest false "Approval payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /review/{token}/videos/{id}/approve [post]
func (h *ReviewHandler) ApproveVideo(c *gin.Context) {
	project := reviewProjectFromContext(c)
	if project == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ApproveVideoRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
			return
		}
	}

	result, err := h.service.ApproveVideo(c.Request.Context(), project.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
