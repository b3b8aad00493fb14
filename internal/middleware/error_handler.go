// Package middleware holds the gin middleware shared by all API routes:
// panic recovery with the JSON error envelope, request IDs, inbound rate
// limiting and CORS.
package middleware

import (
	"encoding/json"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "fxdash/internal/errors"
)

// ErrorHandler recovers from panics and renders them as the standard error
// envelope instead of gin's default empty 500.
func ErrorHandler(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(logrus.Fields{
			"error":  recovered,
			"stack":  string(debug.Stack()),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("panic recovered")

		err := apperrors.NewAppError(apperrors.ErrCodeInternal, "Internal server error", nil).
			WithRequestID(GetRequestID(c))
		WriteError(c, log, err)
	})
}

// WriteError renders err as the JSON error envelope and aborts the request.
// Non-AppErrors become internal errors; the cause is logged, never exposed.
func WriteError(c *gin.Context, log *logrus.Logger, err error) {
	if err == nil {
		return
	}

	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error")
	}
	if appErr.RequestID == "" {
		appErr = appErr.WithRequestID(GetRequestID(c))
	}

	logError(c, log, appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, c.Request.URL.Path))
}

func logError(c *gin.Context, log *logrus.Logger, err *apperrors.AppError) {
	fields := logrus.Fields{
		"error_code": err.Code,
		"severity":   err.Severity,
		"request_id": err.RequestID,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"ip":         c.ClientIP(),
	}
	if err.Details != "" {
		fields["details"] = err.Details
	}
	if len(err.Context) > 0 {
		if contextJSON, jsonErr := json.Marshal(err.Context); jsonErr == nil {
			fields["context"] = string(contextJSON)
		}
	}
	if err.Cause != nil {
		fields["cause"] = err.Cause.Error()
	}

	entry := log.WithFields(fields)
	switch err.Severity {
	case apperrors.SeverityCritical, apperrors.SeverityHigh:
		entry.Error(err.Message)
	case apperrors.SeverityMedium:
		entry.Warn(err.Message)
	default:
		entry.Info(err.Message)
	}
}
