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

func getJSON(ctx context.Context, store kv.Store, key string, dst interface{}) error {
	b, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNil) {
		return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func putJSON(ctx context.Context, store kv.Store, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, b, ttl)
}
