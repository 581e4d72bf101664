package token

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/portfolio-gate/internal/domain"
	pkgtoken "github.com/portfolio-gate/internal/pkg/token"
	"github.com/portfolio-gate/internal/telemetry"
)

const DefaultTTL = 15 * time.Minute

type TokenStore interface {
	Put(ctx context.Context, id string, t *domain.MagicLinkToken, ttl time.Duration) error
	Take(ctx context.Context, id string) (*domain.MagicLinkToken, error)
}

type ServiceDeps struct {
	Tokens  TokenStore
	BaseURL string
	TTL     time.Duration
	Now     func() time.Time
}

// Service issues and redeems single-use magic-link tokens.
type Service interface {
	Issue(ctx context.Context, email string, typ domain.TokenType) (string, error)
	Link(tokenID string) string
	Redeem(ctx context.Context, tokenID string) (*domain.MagicLinkToken, error)
}

type service struct {
	tokens  TokenStore
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		tokens:  deps.Tokens,
		baseURL: strings.TrimRight(deps.BaseURL, "/"),
		ttl:     deps.TTL,
		now:     deps.Now,
	}
	if s.ttl == 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Issue(ctx context.Context, email string, typ domain.TokenType) (string, error) {
	id, err := pkgtoken.New()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	t := &domain.MagicLinkToken{
		Email:     email,
		Type:      typ,
		ExpiresAt: domain.MillisOf(s.now().Add(s.ttl)),
	}
	if err := s.tokens.Put(ctx, id, t, s.ttl); err != nil {
		return "", err
	}
	telemetry.MagicLinksTotal.WithLabelValues(string(typ), "issued").Inc()
	return id, nil
}

func (s *service) Link(tokenID string) string {
	return s.baseURL + "/api/auth/verify?token=" + url.QueryEscape(tokenID)
}

// Redeem consumes the token. It returns (nil, nil) when the token is unknown,
// already used or expired.
func (s *service) Redeem(ctx context.Context, tokenID string) (*domain.MagicLinkToken, error) {
	t, err := s.tokens.Take(ctx, tokenID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now()) {
		telemetry.MagicLinksTotal.WithLabelValues(string(t.Type), "expired").Inc()
		return nil, nil
	}
	telemetry.MagicLinksTotal.WithLabelValues(string(t.Type), "redeemed").Inc()
	return t, nil
}
