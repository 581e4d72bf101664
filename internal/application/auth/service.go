package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/pkg/validate"
	"github.com/portfolio-gate/internal/telemetry"
	"golang.org/x/crypto/bcrypt"
)

type TestSessionRequest struct {
	Secret string      `json:"secret"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

var (
	ErrTestModeDisabled  = fmt.Errorf("test mode not enabled: %w", domain.ErrForbidden)
	ErrInvalidTestSecret = fmt.Errorf("invalid test secret: %w", domain.ErrUnauthorized)
	ErrInvalidRole       = fmt.Errorf("invalid role: %w", domain.ErrValidation)
	ErrInvalidToken      = fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
)

type ViewerRegistry interface {
	RequestAccess(ctx context.Context, email string, projectID *string) error
	EnsureApproved(ctx context.Context, email string) error
}

type TokenService interface {
	Issue(ctx context.Context, email string, typ domain.TokenType) (string, error)
	Link(tokenID string) string
	Redeem(ctx context.Context, tokenID string) (*domain.MagicLinkToken, error)
}

type SessionCreator interface {
	Create(ctx context.Context, email string, role domain.Role) (*domain.Session, error)
}

type LinkSender interface {
	SendMagicLink(ctx context.Context, email, link string, typ domain.TokenType) error
}

type ServiceDeps struct {
	Viewers        ViewerRegistry
	Tokens         TokenService
	Sessions       SessionCreator
	Notifier       LinkSender
	AdminEmail     string
	TestMode       bool
	TestSecret     string
	TestSecretHash string // bcrypt, preferred over TestSecret
}

// Service runs the magic-link login flow.
type Service interface {
	RequestAccess(ctx context.Context, rawEmail string, projectID *string) error
	Verify(ctx context.Context, rawToken string) (*domain.Session, error)
	TestSession(ctx context.Context, req TestSessionRequest) (*domain.Session, error)
	TestModeEnabled() bool
}

type service struct {
	viewers        ViewerRegistry
	tokens         TokenService
	sessions       SessionCreator
	notifier       LinkSender
	adminEmail     string
	testMode       bool
	testSecret     string
	testSecretHash string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		viewers:        deps.Viewers,
		tokens:         deps.Tokens,
		sessions:       deps.Sessions,
		notifier:       deps.Notifier,
		adminEmail:     deps.AdminEmail,
		testMode:       deps.TestMode,
		testSecret:     deps.TestSecret,
		testSecretHash: deps.TestSecretHash,
	}
}

func (s *service) TestModeEnabled() bool { return s.testMode }

// RequestAccess validates the address, then either mails the admin a login
// link or hands the request to the viewer registry. Only validation errors
// are meant for the client.
func (s *service) RequestAccess(ctx context.Context, rawEmail string, projectID *string) error {
	email, err := validate.Email(rawEmail)
	if err != nil {
		return err
	}
	if email != s.adminEmail {
		return s.viewers.RequestAccess(ctx, email, projectID)
	}
	id, err := s.tokens.Issue(ctx, email, domain.TokenAdmin)
	if err != nil {
		return err
	}
	telemetry.AccessRequestsTotal.WithLabelValues("admin").Inc()
	return s.notifier.SendMagicLink(ctx, email, s.tokens.Link(id), domain.TokenAdmin)
}

func (s *service) Verify(ctx context.Context, rawToken string) (*domain.Session, error) {
	id, err := validate.Token(rawToken)
	if err != nil {
		telemetry.MagicLinksTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, ErrInvalidToken
	}
	t, err := s.tokens.Redeem(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		telemetry.MagicLinksTotal.WithLabelValues("unknown", "invalid").Inc()
		return nil, ErrInvalidToken
	}
	sess, err := s.sessions.Create(ctx, t.Email, t.Type.Role())
	if err != nil {
		return nil, err
	}
	slog.Info("magic link redeemed", "email", t.Email, "role", sess.Role)
	return sess, nil
}

func (s *service) TestSession(ctx context.Context, req TestSessionRequest) (*domain.Session, error) {
	if !s.testMode {
		return nil, ErrTestModeDisabled
	}
	if !s.secretMatches(req.Secret) {
		return nil, ErrInvalidTestSecret
	}
	email, err := validate.Email(req.Email)
	if err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if req.Role == domain.RoleViewer {
		if err := s.viewers.EnsureApproved(ctx, email); err != nil {
			return nil, err
		}
	}
	sess, err := s.sessions.Create(ctx, email, req.Role)
	if err != nil {
		return nil, err
	}
	slog.Warn("test session created", "email", email, "role", req.Role)
	return sess, nil
}

func (s *service) secretMatches(secret string) bool {
	if secret == "" {
		return false
	}
	if s.testSecretHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.testSecretHash), []byte(secret)) == nil
	}
	return s.testSecret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(s.testSecret)) == 1
}
