package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/admin-dashboard/internal/handler"
	apperrors "github.com/jwalitptl/admin-dashboard/pkg/errors"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// *errors.AppError values choose the status code; anything else is a 500
// whose details stay in the log.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			logger.Error().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		status := http.StatusInternalServerError
		message := "internal server error"
		if appErr, ok := apperrors.As(lastErr); ok {
			status = appErr.HTTPStatus()
			if status < http.StatusInternalServerError || appErr.Code == apperrors.ErrUpstream {
				message = appErr.Message
			}
		}

		c.JSON(status, handler.NewErrorResponse(message))
	}
}
