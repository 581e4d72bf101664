package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portfolio-gate/internal/domain"
	pkgtoken "github.com/portfolio-gate/internal/pkg/token"
	"github.com/portfolio-gate/internal/telemetry"
)

const DefaultTTL = 7 * 24 * time.Hour

type SessionStore interface {
	Put(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, s *domain.Session) error
	DeleteAll(ctx context.Context, email string) (int, error)
}

type ServiceDeps struct {
	Sessions SessionStore
	TTL      time.Duration
	Now      func() time.Time
}

type Service interface {
	Create(ctx context.Context, email string, role domain.Role) (*domain.Session, error)
	Read(ctx context.Context, id string) (*domain.Session, error)
	Destroy(ctx context.Context, id string) error
	InvalidateAll(ctx context.Context, email string) (int, error)
	TTL() time.Duration
}

type service struct {
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{sessions: deps.Sessions, ttl: deps.TTL, now: deps.Now}
	if s.ttl == 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) TTL() time.Duration { return s.ttl }

func (s *service) Create(ctx context.Context, email string, role domain.Role) (*domain.Session, error) {
	id, err := pkgtoken.New()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	sess := &domain.Session{
		ID:        id,
		Email:     email,
		Role:      role,
		ExpiresAt: domain.MillisOf(s.now().Add(s.ttl)),
	}
	if err := s.sessions.Put(ctx, sess, s.ttl); err != nil {
		return nil, err
	}
	telemetry.SessionsCreatedTotal.WithLabelValues(string(role)).Inc()
	return sess, nil
}

// Read returns (nil, nil) for unknown or expired sessions. Expired records are removed.
func (s *service) Read(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sess); err != nil {
			slog.Warn("delete expired session", "email", sess.Email, "err", err)
		}
		return nil, nil
	}
	return sess, nil
}

func (s *service) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sess)
}

func (s *service) InvalidateAll(ctx context.Context, email string) (int, error) {
	n, err := s.sessions.DeleteAll(ctx, email)
	if err != nil {
		return 0, err
	}
	telemetry.SessionsInvalidatedTotal.Add(float64(n))
	return n, nil
}
