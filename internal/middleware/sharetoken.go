package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ZyrticX/youreditable-api/internal/service"
	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
	"github.com/ZyrticX/youreditable-api/pkg/response"
)

// ContextReviewProjectKey is the gin context key storing the project a share
// token resolved to.
const ContextReviewProjectKey = "reviewProject"

// ShareToken resolves the :token path parameter into its project. The token
// is the whole credential for the review surface; a missing, unknown, or
// expired token never reaches the handler.
func ShareToken(reviewService *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "share token is required"))
			c.Abort()
			return
		}

		project, err := reviewService.ResolveShareToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextReviewProjectKey, project)
		c.Next()
	}
}
