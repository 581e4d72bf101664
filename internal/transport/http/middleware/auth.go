package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/portfolio-gate/internal/domain"
)

type contextKey string

const sessionKey contextKey = "session"

type SessionReader interface {
	Read(ctx context.Context, id string) (*domain.Session, error)
}

// Session loads the session named by the cookie, if any, into the request
// context. Requests without a live session pass through anonymously.
func Session(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(CookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := sessions.Read(r.Context(), c.Value)
			if err != nil {
				slog.Error("read session", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the caller's session, or nil when anonymous.
func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey).(*domain.Session)
	return sess
}
