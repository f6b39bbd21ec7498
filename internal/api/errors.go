package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rendis/algoscope/pkg/schema"
)

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case schema.ErrCodeModelNotFound:
		return http.StatusNotFound
	case schema.ErrCodeRuleNotImplemented:
		return http.StatusInternalServerError
	case schema.ErrCodeValidation, schema.ErrCodeExpression:
		return http.StatusBadRequest
	case schema.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": message}. MODEL_NOT_FOUND and
// RULE_NOT_IMPLEMENTED carry only the fixed message; client errors also carry
// their code and violations.
func (h *Handler) writeError(c *gin.Context, err error) {
	var se *schema.Error
	if !errors.As(err, &se) {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		h.logger().ErrorContext(c.Request.Context(), "request failed", slog.String("error", err.Error()))
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	status := statusFor(se.Code)
	switch se.Code {
	case schema.ErrCodeModelNotFound, schema.ErrCodeRuleNotImplemented:
		c.AbortWithStatusJSON(status, gin.H{"error": se.Message})
		return
	}

	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(c.Request.Context(), "request failed",
			slog.String("code", se.Code), slog.String("error", se.Error()))
	}

	body := gin.H{"error": se.Message, "code": se.Code}
	if v, ok := se.Details["violations"]; ok {
		body["violations"] = v
	}
	if v, ok := se.Details["expression"]; ok {
		body["expression"] = v
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
