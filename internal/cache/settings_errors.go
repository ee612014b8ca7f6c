package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheUnavailable is returned when Redis is not healthy
	ErrCacheUnavailable = errors.New("cache unavailable - Redis is not healthy")

	// ErrSettingNotFound is returned when a setting doesn't exist in cache or DB
	ErrSettingNotFound = errors.New("setting not found")
)

// disabledBackend is used when Redis is turned off; every read misses and
// every write reports unavailable, so the settings service falls through
// to the database.
type disabledBackend struct{}

// NewDisabledBackend returns a Backend for running without Redis
func NewDisabledBackend() Backend {
	return disabledBackend{}
}

func (disabledBackend) IsHealthy() bool { return false }

func (disabledBackend) Get(ctx context.Context, key string) (string, error) {
	return "", ErrCacheUnavailable
}

func (disabledBackend) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return ErrCacheUnavailable
}

func (disabledBackend) Delete(ctx context.Context, key string) error {
	return ErrCacheUnavailable
}
