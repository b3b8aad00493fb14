package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"fxdash/internal/config"
	apperrors "fxdash/internal/errors"
)

// RateLimit throttles inbound requests with a shared token bucket. The
// limiter is process-wide, not per-client; this guards the upstream provider
// budget rather than individual users.
func RateLimit(cfg config.RateLimitConfig, log *logrus.Logger) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			WriteError(c, log, apperrors.NewAppError(
				apperrors.ErrCodeRateLimit, "Rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}
