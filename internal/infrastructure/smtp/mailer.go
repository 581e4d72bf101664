package smtp

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/portfolio-gate/internal/config"
	"github.com/portfolio-gate/internal/pkg/id"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// Mailer sends HTML emails.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type mailer struct {
	dialer  sender
	from    string
	host    string // right-hand side of generated Message-IDs
	limiter *rate.Limiter
}

// NewMailer dials cfg.SMTPHost for every message. Outbound sends share one
// token bucket of EmailRatePerSec with EmailBurst headroom.
func NewMailer(cfg *config.Config) Mailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return newMailer(d, cfg.SMTPFrom, rate.NewLimiter(rate.Limit(cfg.EmailRatePerSec), cfg.EmailBurst))
}

func newMailer(d sender, from string, limiter *rate.Limiter) *mailer {
	return &mailer{dialer: d, from: from, host: messageIDHost(from), limiter: limiter}
}

func (m *mailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email throttle: %w", err)
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", id.New(), m.host))
	msg.SetBody("text/html", htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func messageIDHost(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "localhost"
	}
	if at := strings.LastIndex(addr.Address, "@"); at >= 0 {
		return addr.Address[at+1:]
	}
	return "localhost"
}
