package kvrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/infrastructure/kv"
)

// TokenRepo stores magic-link tokens under token:<id>.
type TokenRepo struct {
	store kv.Store
}

func NewTokenRepo(store kv.Store) *TokenRepo {
	return &TokenRepo{store: store}
}

func (r *TokenRepo) Put(ctx context.Context, id string, t *domain.MagicLinkToken, ttl time.Duration) error {
	return putJSON(ctx, r.store, tokenKey(id), t, ttl)
}

// Take reads and deletes the token atomically, so only one caller ever gets it.
func (r *TokenRepo) Take(ctx context.Context, id string) (*domain.MagicLinkToken, error) {
	b, err := r.store.GetDel(ctx, tokenKey(id))
	if errors.Is(err, kv.ErrNil) {
		return nil, fmt.Errorf("token: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var t domain.MagicLinkToken
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &t, nil
}
