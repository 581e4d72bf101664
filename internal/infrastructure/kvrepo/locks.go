package kvrepo

import (
	"context"
	"errors"

	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/infrastructure/kv"
)

// LockRepo stores project lock overrides under project-lock:<id> as JSON booleans.
type LockRepo struct {
	store kv.Store
}

func NewLockRepo(store kv.Store) *LockRepo {
	return &LockRepo{store: store}
}

// Get returns the override for id. ok is false when none was ever set.
func (r *LockRepo) Get(ctx context.Context, id string) (locked bool, ok bool, err error) {
	err = getJSON(ctx, r.store, projectLockKey(id), &locked)
	if errors.Is(err, domain.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return locked, true, nil
}

func (r *LockRepo) Set(ctx context.Context, id string, locked bool) error {
	return putJSON(ctx, r.store, projectLockKey(id), locked, 0)
}
