package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/portfolio-gate/internal/application/project"
	"github.com/portfolio-gate/internal/application/viewer"
	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/pkg/validate"
	"github.com/portfolio-gate/internal/transport/http/middleware"
)

// AdminHandler serves the dashboard API. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	viewers  viewer.Service
	projects project.Service
}

func NewAdminHandler(viewers viewer.Service, projects project.Service) *AdminHandler {
	return &AdminHandler{viewers: viewers, projects: projects}
}

type approveRequest struct {
	Email     string                `json:"email" validate:"required"`
	Projects  *[]string             `json:"projects" validate:"omitempty,dive,required"`
	ExpiresAt domain.OptionalMillis `json:"expiresAt"`
}

type revokeRequest struct {
	Email string `json:"email" validate:"required"`
	Deny  bool   `json:"deny"`
}

type archiveRequest struct {
	Email   string `json:"email" validate:"required"`
	Restore bool   `json:"restore"`
}

type updateAccessRequest struct {
	Email     string                `json:"email" validate:"required"`
	Projects  []string              `json:"projects" validate:"required,dive,required"`
	ExpiresAt domain.OptionalMillis `json:"expiresAt"`
}

type toggleLockRequest struct {
	ProjectID interface{} `json:"projectId"`
	Locked    interface{} `json:"locked"`
}

type revokeResponse struct {
	Success bool `json:"success"`
	viewer.RevokeResult
}

type archiveResponse struct {
	Success             bool                `json:"success"`
	Action              string              `json:"action"`
	SessionsInvalidated *int                `json:"sessionsInvalidated,omitempty"`
	NewStatus           domain.ViewerStatus `json:"newStatus,omitempty"`
}

type toggleLockResponse struct {
	Success   bool   `json:"success"`
	ProjectID string `json:"projectId"`
	Locked    bool   `json:"locked"`
}

// decodeAdmin reads and validates a request body, then normalizes *email.
// It writes the 400 itself and reports false on failure.
func decodeAdmin(w http.ResponseWriter, r *http.Request, dst interface{}, email *string) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	normalized, err := validate.Email(*email)
	if err != nil {
		writeError(w, http.StatusBadRequest, messageFor(err))
		return false
	}
	*email = normalized
	return true
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !decodeAdmin(w, r, &req, &req.Email) {
		return
	}
	v, err := h.viewers.Approve(r.Context(), req.Email, req.Projects, req.ExpiresAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit(r, "approve", req.Email)
	writeJSON(w, http.StatusOK, ViewerEnvelope{Success: true, Viewer: v})
}

func (h *AdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !decodeAdmin(w, r, &req, &req.Email) {
		return
	}
	res, err := h.viewers.Revoke(r.Context(), req.Email, req.Deny)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit(r, res.Action, req.Email)
	writeJSON(w, http.StatusOK, revokeResponse{Success: true, RevokeResult: res})
}

func (h *AdminHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if !decodeAdmin(w, r, &req, &req.Email) {
		return
	}
	if req.Restore {
		v, err := h.viewers.Restore(r.Context(), req.Email)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		h.audit(r, "restore", req.Email)
		writeJSON(w, http.StatusOK, archiveResponse{Success: true, Action: "restored", NewStatus: v.Status})
		return
	}
	res, err := h.viewers.Archive(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit(r, "archive", req.Email)
	n := res.SessionsInvalidated
	writeJSON(w, http.StatusOK, archiveResponse{Success: true, Action: "archived", SessionsInvalidated: &n})
}

func (h *AdminHandler) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	var req updateAccessRequest
	if !decodeAdmin(w, r, &req, &req.Email) {
		return
	}
	v, err := h.viewers.UpdateAccess(r.Context(), req.Email, req.Projects, req.ExpiresAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit(r, "update-access", req.Email)
	writeJSON(w, http.StatusOK, ViewerEnvelope{Success: true, Viewer: v})
}

func (h *AdminHandler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	var req toggleLockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id, ok := req.ProjectID.(string)
	if !ok || id == "" {
		writeError(w, http.StatusBadRequest, "Invalid projectId")
		return
	}
	locked, ok := req.Locked.(bool)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid locked value")
		return
	}
	err := h.projects.SetLock(r.Context(), id, locked)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	slog.Info("project lock changed", "project", id, "locked", locked)
	writeJSON(w, http.StatusOK, toggleLockResponse{Success: true, ProjectID: id, Locked: locked})
}

func (h *AdminHandler) Viewers(w http.ResponseWriter, r *http.Request) {
	all, err := h.viewers.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ViewersEnvelope{Viewers: all})
}

func (h *AdminHandler) Projects(w http.ResponseWriter, r *http.Request) {
	all, err := h.projects.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectsEnvelope{Projects: all})
}

func (h *AdminHandler) LockedProjects(w http.ResponseWriter, r *http.Request) {
	locked, err := h.projects.LockedProjects(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectsEnvelope{Projects: locked})
}

func (h *AdminHandler) audit(r *http.Request, action, email string) {
	admin := ""
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		admin = sess.Email
	}
	slog.Info("admin action", "action", action, "viewer", email, "admin", admin)
}
