package middleware

import (
	"errors"
	"net/http"

	"watchparty/internal/core/domain"
	coreservices "watchparty/internal/core/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler maps the domain's tagged errors onto transport codes. Handlers
// push errors into gin's error chain and return; the mapping lives here so
// every route reports business failures identically.
func ErrorHandler(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "VALIDATION_FAILED",
				"message": vErr.Error(),
				"fields":  vErr.Fields,
			})
			return
		}

		status, code := classify(err)
		if status == http.StatusInternalServerError {
			// AllocationExhausted and unexpected faults are operational,
			// not business outcomes.
			logger.Errorw("unhandled error",
				"error", err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			c.JSON(status, gin.H{
				"error":   code,
				"message": "internal server error",
			})
			return
		}

		c.JSON(status, gin.H{
			"error":   code,
			"message": err.Error(),
		})
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound, "ROOM_NOT_FOUND"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound, "PARTICIPANT_NOT_FOUND"
	case errors.Is(err, domain.ErrRoomFull):
		return http.StatusConflict, "ROOM_FULL"
	case errors.Is(err, domain.ErrRoomClosed):
		return http.StatusConflict, "ROOM_CLOSED"
	case errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusUnauthorized, "INVALID_PASSWORD"
	case errors.Is(err, coreservices.ErrInvalidChannelToken):
		return http.StatusUnauthorized, "INVALID_CHANNEL_TOKEN"
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, domain.ErrAllocationExhausted):
		return http.StatusInternalServerError, "ALLOCATION_EXHAUSTED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// Recovery recovers from panics and returns a proper error response.
func Recovery(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "INTERNAL_ERROR",
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
