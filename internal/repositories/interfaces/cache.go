package interfaces

import (
	"context"
	"time"
)

// Cache is the subset of the Redis client the repositories and services use.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	GetDel(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}
