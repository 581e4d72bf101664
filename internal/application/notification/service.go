package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/portfolio-gate/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type AlertPublisher interface {
	PublishAlert(ctx context.Context, subject, message string) error
}

type ServiceDeps struct {
	Mailer     Mailer
	Alerts     AlertPublisher // optional
	AdminEmail string
	BaseURL    string
	SiteName   string
	LinkTTL    time.Duration
	SessionTTL time.Duration
}

// Service renders and sends the outbound emails of the access workflow.
type Service interface {
	SendMagicLink(ctx context.Context, email, link string, typ domain.TokenType) error
	NotifyAccessRequest(ctx context.Context, viewerEmail string, requestedProject *string) error
	SendAccessApproved(ctx context.Context, email, link string) error
}

type service struct {
	mailer     Mailer
	alerts     AlertPublisher
	adminEmail string
	baseURL    string
	siteName   string
	linkTTL    time.Duration
	sessionTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		mailer:     deps.Mailer,
		alerts:     deps.Alerts,
		adminEmail: deps.AdminEmail,
		baseURL:    deps.BaseURL,
		siteName:   deps.SiteName,
		linkTTL:    deps.LinkTTL,
		sessionTTL: deps.SessionTTL,
	}
	if s.siteName == "" {
		s.siteName = "Portfolio"
	}
	if s.linkTTL == 0 {
		s.linkTTL = 15 * time.Minute
	}
	if s.sessionTTL == 0 {
		s.sessionTTL = 7 * 24 * time.Hour
	}
	return s
}

type button struct {
	URL   string
	Label string
}

type magicLinkData struct {
	Admin      bool
	SiteName   string
	TTLMinutes int
	Button     button
}

type accessRequestData struct {
	SiteName         string
	ViewerEmail      string
	RequestedProject string
	Button           button
}

type accessApprovedData struct {
	SiteName    string
	TTLMinutes  int
	SessionDays int
	Button      button
}

func (s *service) SendMagicLink(ctx context.Context, email, link string, typ domain.TokenType) error {
	admin := typ == domain.TokenAdmin
	subject := "Access Your " + s.siteName + " Projects"
	if admin {
		subject = "Admin Login - " + s.siteName
	}
	body, err := render("magic_link.html", magicLinkData{
		Admin:      admin,
		SiteName:   s.siteName,
		TTLMinutes: int(s.linkTTL / time.Minute),
		Button:     button{URL: link, Label: "Access " + s.siteName},
	})
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(ctx, email, subject, body)
}

// NotifyAccessRequest emails the admin and, when configured, publishes an alert.
// Alert failures are logged only.
func (s *service) NotifyAccessRequest(ctx context.Context, viewerEmail string, requestedProject *string) error {
	data := accessRequestData{
		SiteName:    s.siteName,
		ViewerEmail: viewerEmail,
		Button:      button{URL: s.baseURL + "/admin", Label: "Review in Admin Dashboard"},
	}
	if requestedProject != nil {
		data.RequestedProject = *requestedProject
	}
	body, err := render("access_request.html", data)
	if err != nil {
		return err
	}
	subject := "Access Request: " + viewerEmail
	if s.alerts != nil {
		if err := s.alerts.PublishAlert(ctx, subject, viewerEmail+" requested access to "+s.siteName); err != nil {
			slog.Warn("publish access request alert", "email", viewerEmail, "err", err)
		}
	}
	return s.mailer.SendEmail(ctx, s.adminEmail, subject, body)
}

func (s *service) SendAccessApproved(ctx context.Context, email, link string) error {
	body, err := render("access_approved.html", accessApprovedData{
		SiteName:    s.siteName,
		TTLMinutes:  int(s.linkTTL / time.Minute),
		SessionDays: int(s.sessionTTL / (24 * time.Hour)),
		Button:      button{URL: link, Label: "View " + s.siteName},
	})
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(ctx, email, "Access Approved - "+s.siteName, body)
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
