package middleware

import (
	"net/http"
	"time"

	"github.com/portfolio-gate/internal/domain"
)

const CookieName = "portfolio_session"

// SetSessionCookie binds sess to the browser until the session expires.
func SetSessionCookie(w http.ResponseWriter, sess *domain.Session, now time.Time, secure bool) {
	expires := sess.ExpiresAt.Time()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(now) / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID returns the raw cookie value, or "".
func SessionID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
