package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status   string `json:"status"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, code int, message string) ErrorResponse {
	return ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString(ContextRequestID),
	}
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("client_id", c.GetString(ContextClientID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		status := apperrors.StatusCode(lastErr)
		c.JSON(status, newErrorResponse(c, status, apperrors.PublicMessage(lastErr)))
	}
}
