package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/portfolio-gate/internal/application/auth"
	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/transport/http/middleware"
)

const requestAccessMessage = "If this email is approved or pending approval, you will receive further instructions."

type SessionDestroyer interface {
	Destroy(ctx context.Context, id string) error
}

// AuthHandler serves the public login endpoints.
type AuthHandler struct {
	svc      auth.Service
	sessions SessionDestroyer
	baseURL  string
	secure   bool
	now      func() time.Time
}

// NewAuthHandler uses now to size cookies; it must be the clock the session service uses.
func NewAuthHandler(svc auth.Service, sessions SessionDestroyer, baseURL string, secure bool, now func() time.Time) *AuthHandler {
	if now == nil {
		now = time.Now
	}
	return &AuthHandler{svc: svc, sessions: sessions, baseURL: baseURL, secure: secure, now: now}
}

type accessRequest struct {
	Email     interface{} `json:"email"`
	ProjectID interface{} `json:"projectId"`
}

type sessionResponse struct {
	Authenticated bool               `json:"authenticated"`
	Email         string             `json:"email,omitempty"`
	Role          domain.Role        `json:"role,omitempty"`
	ExpiresAt     *domain.UnixMillis `json:"expiresAt,omitempty"`
}

type testSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
}

// Request answers identically for every well-formed address so callers
// cannot learn which emails are known.
func (h *AuthHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email, _ := req.Email.(string)
	var projectID *string
	if p, ok := req.ProjectID.(string); ok {
		projectID = &p
	}
	err := h.svc.RequestAccess(r.Context(), email, projectID)
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, messageFor(err))
		return
	}
	if err != nil {
		slog.Error("access request failed", "err", err)
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: requestAccessMessage})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Verify(r.Context(), r.URL.Query().Get("token"))
	if errors.Is(err, auth.ErrInvalidToken) {
		h.redirect(w, r, "/auth/error?reason=invalid_token")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, sess, h.now(), h.secure)
	if sess.IsAdmin() {
		h.redirect(w, r, "/admin")
		return
	}
	h.redirect(w, r, "/")
}

// VerifyRateLimited is the over-budget responder for Verify.
func (h *AuthHandler) VerifyRateLimited(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, "/auth/error?reason=rate_limited")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(r)
	middleware.ClearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

func (h *AuthHandler) LogoutRedirect(w http.ResponseWriter, r *http.Request) {
	h.endSession(r)
	middleware.ClearSessionCookie(w, h.secure)
	h.redirect(w, r, "/")
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	exp := sess.ExpiresAt
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Email:         sess.Email,
		Role:          sess.Role,
		ExpiresAt:     &exp,
	})
}

func (h *AuthHandler) TestSession(w http.ResponseWriter, r *http.Request) {
	var req auth.TestSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sess, err := h.svc.TestSession(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, sess, h.now(), h.secure)
	writeJSON(w, http.StatusOK, testSessionResponse{Success: true, SessionID: sess.ID})
}

func (h *AuthHandler) endSession(r *http.Request) {
	id := middleware.SessionID(r)
	if id == "" {
		return
	}
	if err := h.sessions.Destroy(r.Context(), id); err != nil {
		slog.Warn("destroy session on logout", "err", err)
	}
}

func (h *AuthHandler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.baseURL+path, http.StatusTemporaryRedirect)
}
