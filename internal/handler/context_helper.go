package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ZyrticX/youreditable-api/internal/middleware"
	"github.com/ZyrticX/youreditable-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func reviewProjectFromContext(c *gin.Context) *models.Project {
	value, exists := c.Get(middleware.ContextReviewProjectKey)
	if !exists {
		return nil
	}
	project, ok := value.(*models.Project)
	if !ok {
		return nil
	}
	return project
}
