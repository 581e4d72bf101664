// Package ratelimit implements a sliding-window limiter over a kv.Store.
//
// Each identifier gets one counter per fixed window. A request is admitted when
// the previous window's count, weighted by how much of it still overlaps the
// trailing interval, plus the current count stays within the budget. Rejected
// requests are not recorded. Concurrent callers racing past the first check are
// counted and checked again, so they may overcount but never undercount.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/portfolio-gate/internal/infrastructure/kv"
)

// Namespaces used by the HTTP layer.
const (
	PrefixRequest = "ratelimit:request"
	PrefixVerify  = "ratelimit:verify"
	PrefixTest    = "ratelimit:test"
)

type Limiter struct {
	store  kv.Store
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// New returns a limiter admitting limit requests per window for each identifier.
func New(store kv.Store, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *Limiter) Prefix() string { return l.prefix }

func (l *Limiter) key(identifier string, window int64) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, identifier, window)
}

// Allow reports whether one more request for identifier fits the budget and,
// if it does, records it.
func (l *Limiter) Allow(ctx context.Context, identifier string) (bool, error) {
	now := l.now().UnixMilli()
	size := l.window.Milliseconds()
	current := now / size
	weight := 1 - float64(now%size)/float64(size)

	previous, err := l.count(ctx, l.key(identifier, current-1))
	if err != nil {
		return false, fmt.Errorf("ratelimit read previous window: %w", err)
	}
	seen, err := l.count(ctx, l.key(identifier, current))
	if err != nil {
		return false, fmt.Errorf("ratelimit read current window: %w", err)
	}
	if float64(previous)*weight+float64(seen+1) > float64(l.limit) {
		return false, nil
	}

	n, err := l.store.Incr(ctx, l.key(identifier, current), 2*l.window)
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	return float64(previous)*weight+float64(n) <= float64(l.limit), nil
}

func (l *Limiter) count(ctx context.Context, key string) (int64, error) {
	raw, err := l.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}
