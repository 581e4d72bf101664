package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/portfolio-gate/internal/application/auth"
	"github.com/portfolio-gate/internal/application/notification"
	"github.com/portfolio-gate/internal/application/project"
	"github.com/portfolio-gate/internal/application/session"
	"github.com/portfolio-gate/internal/application/token"
	"github.com/portfolio-gate/internal/application/viewer"
	"github.com/portfolio-gate/internal/config"
	"github.com/portfolio-gate/internal/infrastructure/kvrepo"
	"github.com/portfolio-gate/internal/infrastructure/ratelimit"
	"github.com/portfolio-gate/internal/transport/http/handler"
	appmiddleware "github.com/portfolio-gate/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	sessionSvc := session.NewService(session.ServiceDeps{
		Sessions: kvrepo.NewSessionRepo(deps.Store),
		Now:      now,
	})
	tokenSvc := token.NewService(token.ServiceDeps{
		Tokens:  kvrepo.NewTokenRepo(deps.Store),
		BaseURL: cfg.PublicBaseURL,
		Now:     now,
	})
	projectSvc := project.NewService(project.ServiceDeps{
		Catalog: deps.Catalog,
		Locks:   kvrepo.NewLockRepo(deps.Store),
	})
	notifSvc := notification.NewService(notification.ServiceDeps{
		Mailer:     deps.Mailer,
		Alerts:     deps.Alerts,
		AdminEmail: cfg.SuperAdminEmail,
		BaseURL:    cfg.PublicBaseURL,
		SiteName:   cfg.SiteName,
		LinkTTL:    token.DefaultTTL,
		SessionTTL: sessionSvc.TTL(),
	})
	viewerSvc := viewer.NewService(viewer.ServiceDeps{
		Viewers:  kvrepo.NewViewerRepo(deps.Store),
		Sessions: sessionSvc,
		Projects: projectSvc,
		Tokens:   tokenSvc,
		Notifier: notifSvc,
		Now:      now,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Viewers:        viewerSvc,
		Tokens:         tokenSvc,
		Sessions:       sessionSvc,
		Notifier:       notifSvc,
		AdminEmail:     cfg.SuperAdminEmail,
		TestMode:       cfg.AuthTestMode,
		TestSecret:     cfg.AuthTestSecret,
		TestSecretHash: cfg.AuthTestSecretHash,
	})

	rl := cfg.RateLimits
	requestRL := ratelimit.New(deps.Store, ratelimit.PrefixRequest, rl.Request, rl.Window)
	verifyRL := ratelimit.New(deps.Store, ratelimit.PrefixVerify, rl.Verify, rl.Window)
	testRL := ratelimit.New(deps.Store, ratelimit.PrefixTest, rl.Test, rl.Window)

	healthH := handler.NewHealthHandler(deps.Store)
	authH := handler.NewAuthHandler(authSvc, sessionSvc, cfg.PublicBaseURL, cfg.IsProduction(), now)
	projectH := handler.NewProjectHandler(projectSvc, viewerSvc)
	adminH := handler.NewAdminHandler(viewerSvc, projectSvc)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthH.Check)
	if cfg.MetricsAddr == "" {
		r.Handle("/metrics", promhttp.Handler())
	}

	loadSession := appmiddleware.Session(sessionSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public auth routes ───────────────────────────────────────────
		r.With(appmiddleware.RateLimit(requestRL, appmiddleware.TooManyRequests("Too many requests. Please try again later."))).
			Post("/auth/request", authH.Request)
		r.With(appmiddleware.RateLimit(verifyRL, authH.VerifyRateLimited)).
			Get("/auth/verify", authH.Verify)
		r.With(
			appmiddleware.RequireEnabled(cfg.AuthTestMode, "Test mode not enabled"),
			appmiddleware.RateLimit(testRL, appmiddleware.TooManyRequests("Too many requests")),
		).Post("/auth/test-session", authH.TestSession)
		r.Post("/auth/logout", authH.Logout)
		r.Get("/auth/logout", authH.LogoutRedirect)

		r.With(loadSession).Get("/auth/session", authH.Session)
		r.With(loadSession).Get("/projects/{id}/access", projectH.Access)
	})

	// ── Admin dashboard API ──────────────────────────────────────────────
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(loadSession)
		r.Use(appmiddleware.RequireAdmin)

		r.Post("/approve", adminH.Approve)
		r.Post("/revoke", adminH.Revoke)
		r.Post("/archive", adminH.Archive)
		r.Post("/update-access", adminH.UpdateAccess)
		r.Post("/toggle-lock", adminH.ToggleLock)
		r.Get("/viewers", adminH.Viewers)
		r.Get("/projects", adminH.Projects)
		r.Get("/locked-projects", adminH.LockedProjects)
	})

	return r
}
