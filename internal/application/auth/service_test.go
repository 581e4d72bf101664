package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/portfolio-gate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockViewers struct{ mock.Mock }

func (m *mockViewers) RequestAccess(ctx context.Context, email string, projectID *string) error {
	return m.Called(ctx, email, projectID).Error(0)
}
func (m *mockViewers) EnsureApproved(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) Issue(ctx context.Context, email string, typ domain.TokenType) (string, error) {
	args := m.Called(ctx, email, typ)
	return args.String(0), args.Error(1)
}
func (m *mockTokens) Link(id string) string { return "https://example.com/api/auth/verify?token=" + id }
func (m *mockTokens) Redeem(ctx context.Context, id string) (*domain.MagicLinkToken, error) {
	args := m.Called(ctx, id)
	if t, _ := args.Get(0).(*domain.MagicLinkToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Create(ctx context.Context, email string, role domain.Role) (*domain.Session, error) {
	args := m.Called(ctx, email, role)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendMagicLink(ctx context.Context, email, link string, typ domain.TokenType) error {
	return m.Called(ctx, email, link, typ).Error(0)
}

// --- builder ---

type mocks struct {
	viewers  *mockViewers
	tokens   *mockTokens
	sessions *mockSessions
	notifier *mockNotifier
}

func newService(deps ServiceDeps) (Service, *mocks) {
	m := &mocks{&mockViewers{}, &mockTokens{}, &mockSessions{}, &mockNotifier{}}
	deps.Viewers = m.viewers
	deps.Tokens = m.tokens
	deps.Sessions = m.sessions
	deps.Notifier = m.notifier
	if deps.AdminEmail == "" {
		deps.AdminEmail = "admin@example.com"
	}
	return NewService(deps), m
}

const validToken = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJ0123456"

// --- RequestAccess ---

func TestRequestAccess_InvalidEmail(t *testing.T) {
	svc, m := newService(ServiceDeps{})
	err := svc.RequestAccess(context.Background(), "not-an-email", nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	m.viewers.AssertNotCalled(t, "RequestAccess", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestAccess_ViewerNormalized(t *testing.T) {
	svc, m := newService(ServiceDeps{})
	m.viewers.On("RequestAccess", mock.Anything, "v@x.com", (*string)(nil)).Return(nil)

	require.NoError(t, svc.RequestAccess(context.Background(), "  V@X.com ", nil))
	m.viewers.AssertExpectations(t)
}

func TestRequestAccess_AdminGetsAdminLink(t *testing.T) {
	svc, m := newService(ServiceDeps{})
	m.tokens.On("Issue", mock.Anything, "admin@example.com", domain.TokenAdmin).Return("tok", nil)
	m.notifier.On("SendMagicLink", mock.Anything, "admin@example.com",
		"https://example.com/api/auth/verify?token=tok", domain.TokenAdmin).Return(nil)

	require.NoError(t, svc.RequestAccess(context.Background(), "Admin@Example.com", nil))
	m.notifier.AssertExpectations(t)
	m.viewers.AssertNotCalled(t, "RequestAccess", mock.Anything, mock.Anything, mock.Anything)
}

// --- Verify ---

func TestVerify_MalformedToken(t *testing.T) {
	svc, m := newService(ServiceDeps{})
	_, err := svc.Verify(context.Background(), "short")
	assert.True(t, errors.Is(err, ErrInvalidToken))
	m.tokens.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
}

func TestVerify_UnknownToken(t *testing.T) {
	svc, m := newService(ServiceDeps{})
	m.tokens.On("Redeem", mock.Anything, validToken).Return(nil, nil)

	_, err := svc.Verify(context.Background(), validToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerify_CreatesSessionForTokenRole(t *testing.T) {
	svc, m := newService(ServiceDeps{})
	m.tokens.On("Redeem", mock.Anything, validToken).
		Return(&domain.MagicLinkToken{Email: "admin@example.com", Type: domain.TokenAdmin}, nil)
	m.sessions.On("Create", mock.Anything, "admin@example.com", domain.RoleAdmin).
		Return(&domain.Session{ID: "s1", Email: "admin@example.com", Role: domain.RoleAdmin}, nil)

	sess, err := svc.Verify(context.Background(), validToken)
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())
}

func TestVerify_StoreError(t *testing.T) {
	svc, m := newService(ServiceDeps{})
	m.tokens.On("Redeem", mock.Anything, validToken).Return(nil, errors.New("redis down"))

	_, err := svc.Verify(context.Background(), validToken)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidToken))
}

// --- TestSession ---

func TestTestSession_Disabled(t *testing.T) {
	svc, _ := newService(ServiceDeps{TestSecret: "s3cret"})
	_, err := svc.TestSession(context.Background(), TestSessionRequest{Secret: "s3cret"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestTestSession_WrongSecret(t *testing.T) {
	svc, _ := newService(ServiceDeps{TestMode: true, TestSecret: "s3cret"})
	_, err := svc.TestSession(context.Background(), TestSessionRequest{Secret: "nope", Email: "v@x.com", Role: domain.RoleViewer})
	assert.True(t, errors.Is(err, ErrInvalidTestSecret))
}

func TestTestSession_EmptySecretNeverMatches(t *testing.T) {
	svc, _ := newService(ServiceDeps{TestMode: true})
	_, err := svc.TestSession(context.Background(), TestSessionRequest{Email: "v@x.com", Role: domain.RoleViewer})
	assert.True(t, errors.Is(err, ErrInvalidTestSecret))
}

func TestTestSession_InvalidRole(t *testing.T) {
	svc, _ := newService(ServiceDeps{TestMode: true, TestSecret: "s3cret"})
	_, err := svc.TestSession(context.Background(), TestSessionRequest{Secret: "s3cret", Email: "v@x.com", Role: "root"})
	assert.True(t, errors.Is(err, ErrInvalidRole))
}

func TestTestSession_ViewerIsApproved(t *testing.T) {
	svc, m := newService(ServiceDeps{TestMode: true, TestSecret: "s3cret"})
	m.viewers.On("EnsureApproved", mock.Anything, "v@x.com").Return(nil)
	m.sessions.On("Create", mock.Anything, "v@x.com", domain.RoleViewer).
		Return(&domain.Session{ID: "s1", Email: "v@x.com", Role: domain.RoleViewer}, nil)

	sess, err := svc.TestSession(context.Background(), TestSessionRequest{Secret: "s3cret", Email: "V@x.com", Role: domain.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	m.viewers.AssertExpectations(t)
}

func TestTestSession_BcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, m := newService(ServiceDeps{TestMode: true, TestSecretHash: string(hash)})
	m.sessions.On("Create", mock.Anything, "admin@example.com", domain.RoleAdmin).
		Return(&domain.Session{ID: "s2", Email: "admin@example.com", Role: domain.RoleAdmin}, nil)

	sess, err := svc.TestSession(context.Background(), TestSessionRequest{Secret: "hashed-secret", Email: "admin@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "s2", sess.ID)
	m.viewers.AssertNotCalled(t, "EnsureApproved", mock.Anything, mock.Anything)

	_, err = svc.TestSession(context.Background(), TestSessionRequest{Secret: "other", Email: "admin@example.com", Role: domain.RoleAdmin})
	assert.True(t, errors.Is(err, ErrInvalidTestSecret))
}
