package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/telemetry"
)

type ViewerStore interface {
	Get(ctx context.Context, email string) (*domain.ViewerAccess, error)
	Put(ctx context.Context, v *domain.ViewerAccess) error
	List(ctx context.Context) ([]domain.ViewerAccess, error)
	AddPending(ctx context.Context, email string) error
	RemovePending(ctx context.Context, email string) error
}

type SessionInvalidator interface {
	InvalidateAll(ctx context.Context, email string) (int, error)
}

type ProjectLocks interface {
	IsLocked(ctx context.Context, id string) (bool, error)
	LockedIDs(ctx context.Context) ([]string, error)
}

type LinkIssuer interface {
	Issue(ctx context.Context, email string, typ domain.TokenType) (string, error)
	Link(tokenID string) string
}

type Notifier interface {
	SendMagicLink(ctx context.Context, email, link string, typ domain.TokenType) error
	NotifyAccessRequest(ctx context.Context, viewerEmail string, requestedProject *string) error
	SendAccessApproved(ctx context.Context, email, link string) error
}

var (
	ErrViewerNotFound  = fmt.Errorf("viewer not found: %w", domain.ErrNotFound)
	ErrAlreadyArchived = fmt.Errorf("viewer is already archived: %w", domain.ErrConflict)
	ErrNotArchived     = fmt.Errorf("viewer is not archived: %w", domain.ErrConflict)
	ErrNotApproved     = fmt.Errorf("viewer not approved: %w", domain.ErrConflict)
	ErrArchived        = fmt.Errorf("viewer is archived: %w", domain.ErrConflict)
)

type ServiceDeps struct {
	Viewers  ViewerStore
	Sessions SessionInvalidator
	Projects ProjectLocks
	Tokens   LinkIssuer
	Notifier Notifier
	Now      func() time.Time
}

type RevokeResult struct {
	Action              string `json:"action"`
	SessionsInvalidated int    `json:"sessionsInvalidated"`
}

type ArchiveResult struct {
	SessionsInvalidated int `json:"sessionsInvalidated"`
}

// Service owns the viewer approval state machine.
type Service interface {
	RequestAccess(ctx context.Context, email string, projectID *string) error
	Approve(ctx context.Context, email string, projects *[]string, expiresAt domain.OptionalMillis) (*domain.ViewerAccess, error)
	Revoke(ctx context.Context, email string, deny bool) (RevokeResult, error)
	Archive(ctx context.Context, email string) (ArchiveResult, error)
	Restore(ctx context.Context, email string) (*domain.ViewerAccess, error)
	UpdateAccess(ctx context.Context, email string, projects []string, expiresAt domain.OptionalMillis) (*domain.ViewerAccess, error)
	CanAccess(ctx context.Context, sess *domain.Session, projectID string) (bool, error)
	List(ctx context.Context) ([]domain.ViewerAccess, error)
	Get(ctx context.Context, email string) (*domain.ViewerAccess, error)
	EnsureApproved(ctx context.Context, email string) error
}

type service struct {
	viewers  ViewerStore
	sessions SessionInvalidator
	projects ProjectLocks
	tokens   LinkIssuer
	notifier Notifier
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		viewers:  deps.Viewers,
		sessions: deps.Sessions,
		projects: deps.Projects,
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
		now:      deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) RequestAccess(ctx context.Context, email string, projectID *string) error {
	v, err := s.viewers.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return s.createPending(ctx, email, projectID)
	}
	if err != nil {
		return err
	}
	expired := v.Expired(s.now())
	if err := s.normalize(ctx, v); err != nil {
		return err
	}
	switch {
	case expired:
		telemetry.AccessRequestsTotal.WithLabelValues("expired").Inc()
		slog.Info("access request from expired viewer", "email", email)
		return nil
	case v.Status == domain.StatusApproved:
		return s.sendLink(ctx, email)
	case v.Status == domain.StatusPending:
		telemetry.AccessRequestsTotal.WithLabelValues("pending").Inc()
		return nil
	default:
		telemetry.AccessRequestsTotal.WithLabelValues("ignored").Inc()
		slog.Info("access request ignored", "email", email, "status", v.Status)
		return nil
	}
}

func (s *service) createPending(ctx context.Context, email string, projectID *string) error {
	if err := s.save(ctx, domain.NewPendingViewer(email, projectID, s.now())); err != nil {
		return err
	}
	telemetry.AccessRequestsTotal.WithLabelValues("created").Inc()
	slog.Info("access requested", "email", email)
	if err := s.notifier.NotifyAccessRequest(ctx, email, projectID); err != nil {
		slog.Warn("notify admin of access request", "email", email, "err", err)
	}
	return nil
}

func (s *service) sendLink(ctx context.Context, email string) error {
	id, err := s.tokens.Issue(ctx, email, domain.TokenViewer)
	if err != nil {
		return err
	}
	telemetry.AccessRequestsTotal.WithLabelValues("link_sent").Inc()
	if err := s.notifier.SendMagicLink(ctx, email, s.tokens.Link(id), domain.TokenViewer); err != nil {
		slog.Warn("send viewer magic link", "email", email, "err", err)
	}
	return nil
}

func (s *service) Approve(ctx context.Context, email string, projects *[]string, expiresAt domain.OptionalMillis) (*domain.ViewerAccess, error) {
	v, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if !v.Status.CanTransitionTo(domain.StatusApproved) {
		return nil, ErrArchived
	}
	if projects != nil {
		if err := s.checkProjects(ctx, *projects); err != nil {
			return nil, err
		}
		v.Projects = append([]string{}, *projects...)
	}
	if expiresAt.Set {
		v.ExpiresAt = expiresAt.Value
	}
	now := domain.MillisOf(s.now())
	v.Status = domain.StatusApproved
	v.ApprovedAt = &now
	if err := s.save(ctx, v); err != nil {
		return nil, err
	}
	slog.Info("viewer approved", "email", email, "projects", v.Projects)

	id, err := s.tokens.Issue(ctx, email, domain.TokenViewer)
	if err != nil {
		slog.Warn("issue link after approval", "email", email, "err", err)
		return v, nil
	}
	if err := s.notifier.SendAccessApproved(ctx, email, s.tokens.Link(id)); err != nil {
		slog.Warn("send approval email", "email", email, "err", err)
	}
	return v, nil
}

func (s *service) Revoke(ctx context.Context, email string, deny bool) (RevokeResult, error) {
	v, err := s.Get(ctx, email)
	if err != nil {
		return RevokeResult{}, err
	}
	if v.Status == domain.StatusArchived {
		return RevokeResult{}, ErrArchived
	}
	v.Status = domain.StatusDenied
	if err := s.save(ctx, v); err != nil {
		return RevokeResult{}, err
	}
	n, err := s.sessions.InvalidateAll(ctx, email)
	if err != nil {
		return RevokeResult{}, err
	}
	action := "revoked"
	if deny {
		action = "denied"
	}
	slog.Info("viewer access removed", "email", email, "action", action, "sessions", n)
	return RevokeResult{Action: action, SessionsInvalidated: n}, nil
}

func (s *service) Archive(ctx context.Context, email string) (ArchiveResult, error) {
	v, err := s.Get(ctx, email)
	if err != nil {
		return ArchiveResult{}, err
	}
	if !v.Status.CanTransitionTo(domain.StatusArchived) {
		return ArchiveResult{}, ErrAlreadyArchived
	}
	now := domain.MillisOf(s.now())
	v.Status = domain.StatusArchived
	v.ArchivedAt = &now
	if err := s.save(ctx, v); err != nil {
		return ArchiveResult{}, err
	}
	n, err := s.sessions.InvalidateAll(ctx, email)
	if err != nil {
		return ArchiveResult{}, err
	}
	slog.Info("viewer archived", "email", email, "sessions", n)
	return ArchiveResult{SessionsInvalidated: n}, nil
}

// Restore takes an archived viewer back to denied.
func (s *service) Restore(ctx context.Context, email string) (*domain.ViewerAccess, error) {
	v, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.StatusArchived {
		return nil, ErrNotArchived
	}
	v.Status = domain.StatusDenied
	v.ArchivedAt = nil
	if err := s.save(ctx, v); err != nil {
		return nil, err
	}
	slog.Info("viewer restored", "email", email)
	return v, nil
}

func (s *service) UpdateAccess(ctx context.Context, email string, projects []string, expiresAt domain.OptionalMillis) (*domain.ViewerAccess, error) {
	v, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.StatusApproved {
		return nil, ErrNotApproved
	}
	if err := s.checkProjects(ctx, projects); err != nil {
		return nil, err
	}
	v.Projects = append([]string{}, projects...)
	if expiresAt.Set {
		v.ExpiresAt = expiresAt.Value
	}
	if err := s.save(ctx, v); err != nil {
		return nil, err
	}
	slog.Info("viewer access updated", "email", email, "projects", v.Projects)
	return v, nil
}

func (s *service) CanAccess(ctx context.Context, sess *domain.Session, projectID string) (bool, error) {
	if sess.IsAdmin() {
		return true, nil
	}
	locked, err := s.projects.IsLocked(ctx, projectID)
	if err != nil {
		return false, err
	}
	if !locked {
		return true, nil
	}
	if sess == nil {
		return false, nil
	}
	v, err := s.Get(ctx, sess.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.Authorize(projectID, s.now()), nil
}

// List returns every viewer, pending first, newest first within a status.
func (s *service) List(ctx context.Context) ([]domain.ViewerAccess, error) {
	all, err := s.viewers.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if err := s.normalize(ctx, &all[i]); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		ri, rj := all[i].Status.Rank(), all[j].Status.Rank()
		if ri != rj {
			return ri < rj
		}
		return all[i].CreatedAt > all[j].CreatedAt
	})
	return all, nil
}

func (s *service) Get(ctx context.Context, email string) (*domain.ViewerAccess, error) {
	v, err := s.viewers.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrViewerNotFound
		}
		return nil, err
	}
	if err := s.normalize(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// EnsureApproved grants unrestricted, permanent access unless the viewer is
// already approved.
func (s *service) EnsureApproved(ctx context.Context, email string) error {
	v, err := s.Get(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		v = &domain.ViewerAccess{Email: email, CreatedAt: domain.MillisOf(s.now())}
	case err != nil:
		return err
	case v.Status == domain.StatusApproved:
		return nil
	}
	now := domain.MillisOf(s.now())
	v.Status = domain.StatusApproved
	v.Projects = []string{}
	v.ExpiresAt = nil
	v.ApprovedAt = &now
	v.ArchivedAt = nil
	return s.save(ctx, v)
}

// normalize persists an approved record whose grant has lapsed as denied.
func (s *service) normalize(ctx context.Context, v *domain.ViewerAccess) error {
	if !v.Expired(s.now()) {
		return nil
	}
	v.Status = domain.StatusDenied
	slog.Info("viewer access expired", "email", v.Email)
	return s.save(ctx, v)
}

func (s *service) checkProjects(ctx context.Context, ids []string) error {
	locked, err := s.projects.LockedIDs(ctx)
	if err != nil {
		return err
	}
	var invalid []string
	for _, id := range ids {
		if !slices.Contains(locked, id) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return &domain.InvalidProjectsError{IDs: invalid}
	}
	return nil
}

// save is the only writer of viewer records. It keeps pending_viewers in step
// with the stored status.
func (s *service) save(ctx context.Context, v *domain.ViewerAccess) error {
	if err := s.viewers.Put(ctx, v); err != nil {
		return err
	}
	if v.Status == domain.StatusPending {
		return s.viewers.AddPending(ctx, v.Email)
	}
	return s.viewers.RemovePending(ctx, v.Email)
}
