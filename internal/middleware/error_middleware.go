package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/roster/internal/app/models/dto"
	"github.com/yigit/roster/internal/pkg/apperrors"
	"github.com/yigit/roster/internal/pkg/dberrors"
	"github.com/yigit/roster/internal/pkg/logger"
)

// --- Central Error Handling Middleware/Function ---

// HandleAPIError logs err with the request context and writes the matching error
// response. It is the single place where application errors become HTTP errors.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classifyError(err)

	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	} else {
		event = logger.Warn()
	}
	event.Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("requestID", GetRequestID(c)).
		Int("status", status).
		Str("code", string(detail.Code)).
		Msg("Request failed")

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

// classifyError maps err onto an HTTP status and a response body.
func classifyError(err error) (int, *dto.ErrorDetail) {
	ce, _ := apperrors.AsCustom(err)

	switch {
	case errors.Is(err, apperrors.ErrInvalidCourseReference):
		return http.StatusBadRequest, customDetail(dto.ErrorCodeResourceInvalid, ce, "Invalid course reference").
			WithField("courseIds").
			WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, customDetail(dto.ErrorCodeValidationFailed, ce, "Validation failed").
			WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusBadRequest, customDetail(dto.ErrorCodeResourceAlreadyExists, ce, "Resource already exists").
			WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, customDetail(dto.ErrorCodeResourceNotFound, ce, "Resource not found").
			WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrUpstreamFailure):
		return http.StatusInternalServerError, customDetail(dto.ErrorCodeExternalServiceError, ce, "Upstream service failure")
	case dberrors.IsConnectionError(err):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unavailable").
			WithSeverity(dto.ErrorSeverityCritical)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeTimeout, "Request timed out")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
	}
}

// customDetail builds an error detail from the application error, falling back
// to a generic message when err carries none.
func customDetail(code dto.ErrorCode, ce *apperrors.CustomError, fallback string) *dto.ErrorDetail {
	if ce == nil {
		return dto.NewErrorDetail(code, fallback)
	}

	message := ce.Message
	if message == "" {
		message = fallback
	}
	detail := dto.NewErrorDetail(code, message)

	if field, ok := ce.Details["field"].(string); ok {
		detail.WithField(field)
	}
	if ce.Code != "" {
		detail.WithDetails(map[string]string{"reason": ce.Code})
	}
	return detail
}

// Recovery turns panics into the standard internal error response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("requestID", GetRequestID(c)).
			Msg("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").WithSeverity(dto.ErrorSeverityCritical),
		))
	})
}

// NoRoute answers unmatched routes with the standard not-found body.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Route not found").WithSeverity(dto.ErrorSeverityWarning),
	))
}
