package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/portfolio-gate/internal/application/auth"
	"github.com/portfolio-gate/internal/application/viewer"
	"github.com/portfolio-gate/internal/domain"
	"github.com/portfolio-gate/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type InvalidProjectsEnvelope struct {
	Error           string   `json:"error"`
	InvalidProjects []string `json:"invalidProjects"`
}

type ViewerEnvelope struct {
	Success bool                 `json:"success"`
	Viewer  *domain.ViewerAccess `json:"viewer"`
}

type ViewersEnvelope struct {
	Viewers []domain.ViewerAccess `json:"viewers"`
}

type ProjectsEnvelope struct {
	Projects interface{} `json:"projects"`
}

// Client-facing wording for errors raised below the handlers.
var errorMessages = []struct {
	err error
	msg string
}{
	{auth.ErrTestModeDisabled, "Test mode not enabled"},
	{auth.ErrInvalidTestSecret, "Invalid test secret"},
	{auth.ErrInvalidRole, "Invalid role"},
	{auth.ErrInvalidToken, "Invalid token"},
	{viewer.ErrViewerNotFound, "Viewer not found"},
	{viewer.ErrAlreadyArchived, "Viewer is already archived"},
	{viewer.ErrNotArchived, "Viewer is not archived"},
	{viewer.ErrNotApproved, "Viewer is not approved"},
	{viewer.ErrArchived, "Viewer is archived"},
	{domain.ErrNotFound, "Not found"},
	{domain.ErrUnauthorized, "Unauthorized"},
	{domain.ErrForbidden, "Forbidden"},
	{domain.ErrConflict, "Invalid state transition"},
	{domain.ErrValidation, "Invalid request"},
	{domain.ErrBadRequest, "Invalid request"},
	{domain.ErrRateLimited, "Too many requests"},
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	var ve *validate.Error
	if errors.As(err, &ve) {
		return ve.Msg
	}
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Internal server error"
}

// writeServiceError maps err onto a status and client message. Unmapped
// errors are logged and answered with 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ipe *domain.InvalidProjectsError
	if errors.As(err, &ipe) {
		writeJSON(w, http.StatusBadRequest, InvalidProjectsEnvelope{Error: "Invalid project IDs", InvalidProjects: ipe.IDs})
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, messageFor(err))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
