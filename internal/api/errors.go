package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebook/backend/internal/service"
	"github.com/pageza/recipebook/backend/internal/types"
)

// errRequestTooLarge marks a body cut off by the upload cap
var errRequestTooLarge = errors.New("request body too large")

// writeError maps a service error to a status code and the JSON error body.
// Anything outside the service taxonomy is a 500 whose details stay in the log.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	_ = c.Error(err)

	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   types.ErrKindValidation,
			Message: vErr.Message,
			Field:   vErr.Field,
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.ErrKindValidation, Message: err.Error()})
	case errors.Is(err, errRequestTooLarge):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: types.ErrKindPayloadInvalid, Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: types.ErrKindNotFound, Message: "recipe not found"})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: types.ErrKindUnauthorized, Message: "authentication required"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, types.ErrorResponse{Error: types.ErrKindRateLimited, Message: "too many requests"})
	default:
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   types.ErrKindInternal,
			Message: "An internal error occurred",
		})
	}
}
