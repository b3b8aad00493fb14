// Package cache provides the response cache used by the dashboard service to
// bound call volume to the rate provider. Values are JSON-encoded; keys are
// request fingerprints. The cache is an injected collaborator of the service
// layer and never appears inside the analytics functions.
package cache

import (
	"context"
	"time"

	apperrors "fxdash/internal/errors"
)

// Store defines the cache operations the service layer depends on
type Store interface {
	// Get retrieves a value and unmarshals it into dest. A miss returns an
	// error for which IsMiss reports true.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores a value with the given time-to-live.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a live (non-expired) entry exists for key.
	Exists(ctx context.Context, key string) (bool, error)
	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
	// Close releases backing resources.
	Close() error
}

// Miss returns the canonical cache-miss error for a key.
func Miss(key string) error {
	return apperrors.NewAppError(apperrors.ErrCodeCacheMiss, "cache miss", nil).
		WithContext("key", key)
}

// IsMiss reports whether err represents a cache miss.
func IsMiss(err error) bool {
	appErr := apperrors.GetAppError(err)
	return appErr != nil && appErr.Code == apperrors.ErrCodeCacheMiss
}
