// Package memory is an in-process kv.Store used by tests and by STORE_BACKEND=memory
// for local development. State is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/portfolio-gate/internal/infrastructure/kv"
)

type entry struct {
	value     []byte
	set       map[string]struct{}
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store implements kv.Store behind a single mutex.
type Store struct {
	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests drive ttl expiry.
func NewWithClock(now func() time.Time) *Store {
	return &Store{data: make(map[string]*entry), now: now}
}

// live returns the entry at key, dropping it first if it has expired. Callers hold mu.
func (s *Store) live(key string) *entry {
	e, ok := s.data[key]
	if !ok {
		return nil
	}
	if e.expired(s.now()) {
		delete(s.data, key)
		return nil
	}
	return e
}

func (s *Store) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.set != nil {
		return nil, kv.ErrNil
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = &entry{value: append([]byte(nil), value...), expiresAt: s.deadline(ttl)}
	return nil
}

func (s *Store) GetDel(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.set != nil {
		return nil, kv.ErrNil
	}
	delete(s.data, key)
	return e.value, nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *Store) setEntry(key string) (*entry, error) {
	e := s.live(key)
	if e == nil {
		e = &entry{set: make(map[string]struct{})}
		s.data[key] = e
	}
	if e.set == nil {
		return nil, fmt.Errorf("key %q does not hold a set", key)
	}
	return e, nil
}

func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.setEntry(key)
	if err != nil {
		return err
	}
	for _, m := range members {
		e.set[m] = struct{}{}
	}
	return nil
}

func (s *Store) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return nil
	}
	if e.set == nil {
		return fmt.Errorf("key %q does not hold a set", key)
	}
	for _, m := range members {
		delete(e.set, m)
	}
	if len(e.set) == 0 {
		delete(s.data, key)
	}
	return nil
}

func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return []string{}, nil
	}
	out := make([]string, 0, len(e.set))
	for m := range e.set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if e := s.live(key); e != nil {
		if e.set != nil {
			return 0, fmt.Errorf("key %q does not hold a counter", key)
		}
		parsed, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("key %q does not hold a counter: %w", key, err)
		}
		n = parsed
	}
	n++
	s.data[key] = &entry{value: []byte(strconv.FormatInt(n, 10)), expiresAt: s.deadline(ttl)}
	return n, nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) && s.live(k) != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
