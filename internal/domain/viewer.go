package domain

import (
	"slices"
	"time"
)

type ViewerStatus string

const (
	StatusPending  ViewerStatus = "pending"
	StatusApproved ViewerStatus = "approved"
	StatusDenied   ViewerStatus = "denied"
	StatusArchived ViewerStatus = "archived"
)

var viewerTransitions = map[ViewerStatus][]ViewerStatus{
	StatusPending:  {StatusApproved, StatusDenied, StatusArchived},
	StatusApproved: {StatusApproved, StatusDenied, StatusArchived},
	StatusDenied:   {StatusApproved, StatusDenied, StatusArchived},
	StatusArchived: {StatusDenied},
}

// CanTransitionTo reports whether an admin action may move a record from s to next.
func (s ViewerStatus) CanTransitionTo(next ViewerStatus) bool {
	return slices.Contains(viewerTransitions[s], next)
}

// Rank orders statuses for admin listings: pending first, archived last.
func (s ViewerStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusApproved:
		return 1
	case StatusDenied:
		return 2
	default:
		return 3
	}
}

// ViewerAccess is the authorization record for a non-admin email.
// An empty Projects slice grants every locked project, present and future.
type ViewerAccess struct {
	Email            string       `json:"email"`
	Status           ViewerStatus `json:"status"`
	Projects         []string     `json:"projects"`
	RequestedProject *string      `json:"requestedProject,omitempty"`
	ExpiresAt        *UnixMillis  `json:"expiresAt"`
	CreatedAt        UnixMillis   `json:"createdAt"`
	ApprovedAt       *UnixMillis  `json:"approvedAt,omitempty"`
	ArchivedAt       *UnixMillis  `json:"archivedAt,omitempty"`
}

func NewPendingViewer(email string, requestedProject *string, now time.Time) *ViewerAccess {
	return &ViewerAccess{
		Email:            email,
		Status:           StatusPending,
		Projects:         []string{},
		RequestedProject: requestedProject,
		CreatedAt:        MillisOf(now),
	}
}

// Expired reports whether an approved grant has run past its expiry.
func (v *ViewerAccess) Expired(now time.Time) bool {
	return v.Status == StatusApproved && v.ExpiresAt != nil && v.ExpiresAt.Passed(now)
}

// Authorize decides whether the viewer may open projectID at now.
// A nil receiver is never authorized.
func (v *ViewerAccess) Authorize(projectID string, now time.Time) bool {
	if v == nil || v.Status != StatusApproved {
		return false
	}
	if v.ExpiresAt != nil && v.ExpiresAt.Passed(now) {
		return false
	}
	if len(v.Projects) == 0 {
		return true
	}
	return slices.Contains(v.Projects, projectID)
}
