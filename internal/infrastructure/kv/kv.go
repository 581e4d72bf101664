// Package kv defines the key-value contract every storage backend implements.
// Values are opaque bytes; sets hold strings; counters are decimal strings.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNil is returned by reads of keys that do not exist or have expired.
var ErrNil = errors.New("kv: nil")

// Store is the shared store all auth state lives in. A ttl of zero means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// GetDel reads and removes key in one atomic step.
	GetDel(ctx context.Context, key string) ([]byte, error)
	// Del removes all keys in a single batched call. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	// Incr adds one to the counter at key and (re)sets its ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Keys lists every live key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
