package project

import (
	"context"
	"fmt"

	"github.com/portfolio-gate/internal/domain"
)

type Catalog interface {
	All() []domain.Project
	Get(id string) (domain.Project, bool)
}

type LockStore interface {
	Get(ctx context.Context, id string) (locked bool, ok bool, err error)
	Set(ctx context.Context, id string, locked bool) error
}

type ServiceDeps struct {
	Catalog Catalog
	Locks   LockStore
}

// Service resolves the effective lock of each catalog project. A stored
// override wins over the catalog default.
type Service interface {
	IsLocked(ctx context.Context, id string) (bool, error)
	SetLock(ctx context.Context, id string, locked bool) error
	LockedIDs(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]domain.Project, error)
	LockedProjects(ctx context.Context) ([]domain.LockedProject, error)
	Exists(id string) bool
}

type service struct {
	catalog Catalog
	locks   LockStore
}

func NewService(deps ServiceDeps) Service {
	return &service{catalog: deps.Catalog, locks: deps.Locks}
}

func (s *service) Exists(id string) bool {
	_, ok := s.catalog.Get(id)
	return ok
}

func (s *service) IsLocked(ctx context.Context, id string) (bool, error) {
	p, known := s.catalog.Get(id)
	return s.effective(ctx, p, known)
}

func (s *service) effective(ctx context.Context, p domain.Project, known bool) (bool, error) {
	if !known {
		return false, nil
	}
	locked, ok, err := s.locks.Get(ctx, p.ID)
	if err != nil {
		return false, err
	}
	if ok {
		return locked, nil
	}
	return p.Locked, nil
}

func (s *service) SetLock(ctx context.Context, id string, locked bool) error {
	if !s.Exists(id) {
		return fmt.Errorf("project %q: %w", id, domain.ErrNotFound)
	}
	return s.locks.Set(ctx, id, locked)
}

// List returns every catalog project with Locked set to its effective value.
func (s *service) List(ctx context.Context) ([]domain.Project, error) {
	all := s.catalog.All()
	for i := range all {
		locked, err := s.effective(ctx, all[i], true)
		if err != nil {
			return nil, err
		}
		all[i].Locked = locked
	}
	return all, nil
}

func (s *service) LockedIDs(ctx context.Context) ([]string, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for _, p := range all {
		if p.Locked {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *service) LockedProjects(ctx context.Context) ([]domain.LockedProject, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LockedProject, 0, len(all))
	for _, p := range all {
		if p.Locked {
			out = append(out, domain.LockedProject{ID: p.ID, Title: p.Title, Subtitle: p.Subtitle})
		}
	}
	return out, nil
}
