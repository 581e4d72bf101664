package handler

import (
	"context"

	"github.com/portfolio-gate/internal/application/auth"
	"github.com/portfolio-gate/internal/application/viewer"
	"github.com/portfolio-gate/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) RequestAccess(ctx context.Context, email string, projectID *string) error {
	return m.Called(ctx, email, projectID).Error(0)
}
func (m *mockAuthSvc) Verify(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) TestSession(ctx context.Context, req auth.TestSessionRequest) (*domain.Session, error) {
	args := m.Called(ctx, req)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) TestModeEnabled() bool { return m.Called().Bool(0) }

type mockSessionDestroyer struct{ mock.Mock }

func (m *mockSessionDestroyer) Destroy(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockViewerSvc struct{ mock.Mock }

func (m *mockViewerSvc) RequestAccess(ctx context.Context, email string, projectID *string) error {
	return m.Called(ctx, email, projectID).Error(0)
}
func (m *mockViewerSvc) Approve(ctx context.Context, email string, projects *[]string, exp domain.OptionalMillis) (*domain.ViewerAccess, error) {
	args := m.Called(ctx, email, projects, exp)
	if v, _ := args.Get(0).(*domain.ViewerAccess); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockViewerSvc) Revoke(ctx context.Context, email string, deny bool) (viewer.RevokeResult, error) {
	args := m.Called(ctx, email, deny)
	return args.Get(0).(viewer.RevokeResult), args.Error(1)
}
func (m *mockViewerSvc) Archive(ctx context.Context, email string) (viewer.ArchiveResult, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(viewer.ArchiveResult), args.Error(1)
}
func (m *mockViewerSvc) Restore(ctx context.Context, email string) (*domain.ViewerAccess, error) {
	args := m.Called(ctx, email)
	if v, _ := args.Get(0).(*domain.ViewerAccess); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockViewerSvc) UpdateAccess(ctx context.Context, email string, projects []string, exp domain.OptionalMillis) (*domain.ViewerAccess, error) {
	args := m.Called(ctx, email, projects, exp)
	if v, _ := args.Get(0).(*domain.ViewerAccess); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockViewerSvc) CanAccess(ctx context.Context, sess *domain.Session, projectID string) (bool, error) {
	args := m.Called(ctx, sess, projectID)
	return args.Bool(0), args.Error(1)
}
func (m *mockViewerSvc) List(ctx context.Context) ([]domain.ViewerAccess, error) {
	args := m.Called(ctx)
	all, _ := args.Get(0).([]domain.ViewerAccess)
	return all, args.Error(1)
}
func (m *mockViewerSvc) Get(ctx context.Context, email string) (*domain.ViewerAccess, error) {
	args := m.Called(ctx, email)
	if v, _ := args.Get(0).(*domain.ViewerAccess); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockViewerSvc) EnsureApproved(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockProjectSvc struct{ mock.Mock }

func (m *mockProjectSvc) IsLocked(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *mockProjectSvc) SetLock(ctx context.Context, id string, locked bool) error {
	return m.Called(ctx, id, locked).Error(0)
}
func (m *mockProjectSvc) LockedIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}
func (m *mockProjectSvc) List(ctx context.Context) ([]domain.Project, error) {
	args := m.Called(ctx)
	all, _ := args.Get(0).([]domain.Project)
	return all, args.Error(1)
}
func (m *mockProjectSvc) LockedProjects(ctx context.Context) ([]domain.LockedProject, error) {
	args := m.Called(ctx)
	all, _ := args.Get(0).([]domain.LockedProject)
	return all, args.Error(1)
}
func (m *mockProjectSvc) Exists(id string) bool { return m.Called(id).Bool(0) }
