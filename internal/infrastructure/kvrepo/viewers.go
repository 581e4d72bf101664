package kvrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/infrastructure/kv"
)

// ViewerRepo stores ViewerAccess records under viewer:<email> and keeps the
// pending_viewers index.
type ViewerRepo struct {
	store kv.Store
}

func NewViewerRepo(store kv.Store) *ViewerRepo {
	return &ViewerRepo{store: store}
}

func (r *ViewerRepo) Get(ctx context.Context, email string) (*domain.ViewerAccess, error) {
	var v domain.ViewerAccess
	if err := getJSON(ctx, r.store, viewerKey(email), &v); err != nil {
		return nil, err
	}
	if v.Projects == nil {
		v.Projects = []string{}
	}
	return &v, nil
}

func (r *ViewerRepo) Put(ctx context.Context, v *domain.ViewerAccess) error {
	if v.Projects == nil {
		v.Projects = []string{}
	}
	return putJSON(ctx, r.store, viewerKey(v.Email), v, 0)
}

// List returns every stored record once, pending index members first.
// Emails whose record has vanished are skipped.
func (r *ViewerRepo) List(ctx context.Context) ([]domain.ViewerAccess, error) {
	emails, err := r.Pending(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := r.store.Keys(ctx, viewerPrefix)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		emails = append(emails, strings.TrimPrefix(k, viewerPrefix))
	}

	seen := make(map[string]struct{}, len(emails))
	out := make([]domain.ViewerAccess, 0, len(emails))
	for _, email := range emails {
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		v, err := r.Get(ctx, email)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (r *ViewerRepo) AddPending(ctx context.Context, email string) error {
	return r.store.SAdd(ctx, pendingViewersKey, email)
}

func (r *ViewerRepo) RemovePending(ctx context.Context, email string) error {
	return r.store.SRem(ctx, pendingViewersKey, email)
}

func (r *ViewerRepo) Pending(ctx context.Context) ([]string, error) {
	return r.store.SMembers(ctx, pendingViewersKey)
}
