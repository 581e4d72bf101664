package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfolio-gate/internal/application/project"
	"github.com/portfolio-gate/internal/application/viewer"
	"github.com/portfolio-gate/internal/transport/http/middleware"
)

// ProjectHandler answers per-project access checks for the current caller.
type ProjectHandler struct {
	projects project.Service
	viewers  viewer.Service
}

func NewProjectHandler(projects project.Service, viewers viewer.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects, viewers: viewers}
}

type projectAccessResponse struct {
	ProjectID  string `json:"projectId"`
	Locked     bool   `json:"locked"`
	Authorized bool   `json:"authorized"`
}

func (h *ProjectHandler) Access(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.projects.Exists(id) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	locked, err := h.projects.IsLocked(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	authorized, err := h.viewers.CanAccess(r.Context(), middleware.SessionFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectAccessResponse{ProjectID: id, Locked: locked, Authorized: authorized})
}
