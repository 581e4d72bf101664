package kvrepo

import (
	"context"
	"time"

	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/infrastructure/kv"
)

// SessionRepo stores sessions under session:<id> and indexes their ids
// per email under sessions:<email>.
type SessionRepo struct {
	store kv.Store
}

func NewSessionRepo(store kv.Store) *SessionRepo {
	return &SessionRepo{store: store}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	if err := putJSON(ctx, r.store, sessionKey(s.ID), s, ttl); err != nil {
		return err
	}
	return r.store.SAdd(ctx, sessionSetKey(s.Email), s.ID)
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	if err := getJSON(ctx, r.store, sessionKey(id), &s); err != nil {
		return nil, err
	}
	s.ID = id
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, s *domain.Session) error {
	if err := r.store.Del(ctx, sessionKey(s.ID)); err != nil {
		return err
	}
	return r.store.SRem(ctx, sessionSetKey(s.Email), s.ID)
}

// DeleteAll removes every session of email and the index itself in one Del call.
// It returns how many session ids the index held.
func (r *SessionRepo) DeleteAll(ctx context.Context, email string) (int, error) {
	setKey := sessionSetKey(email)
	ids, err := r.store.SMembers(ctx, setKey)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, setKey)
	if err := r.store.Del(ctx, keys...); err != nil {
		return 0, err
	}
	return len(ids), nil
}
