package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
	"go.uber.org/zap"
)

// respondServiceError maps service error kinds onto HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidOperation):
		apierrors.UnprocessableEntity(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrInvalidToken):
		apierrors.InvalidToken(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Set OPENAI_API_KEY to enable suggestions.")
	default:
		_ = c.Error(err)
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		apierrors.InternalError(c, "")
	}
}

// respondBindError reports a body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
}
