package ratelimiter

import (
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// windowState is the persisted counter for one identity: how many
// admissions happened since the window started.
type windowState struct {
	Count   int
	StartMS int64 // window start, Unix milliseconds
}

// GetterSetter abstracts the counter store so the limiter can run on
// process memory or on a shared cache in front of multiple replicas.
type GetterSetter interface {
	Get(key string) (windowState, error)
	SetWithExpiration(key string, state windowState, expiration time.Duration) error
	Close() error
}
