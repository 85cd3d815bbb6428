// Package mail delivers digest messages over SMTP as multipart
// plain-text/HTML email.
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/dailydigest/digestd/internal/digest"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Notifier implements digest.Notifier over SMTP.
type Notifier struct {
	cfg    Config
	client *gomail.Client
	clock  digest.Clock
}

// New builds a Notifier. Port 465 uses implicit TLS; anything else uses
// STARTTLS.
func New(cfg Config, clock digest.Clock) (*Notifier, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(30 * time.Second),
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("build smtp client: %w", err)
	}
	return &Notifier{cfg: cfg, client: client, clock: clock}, nil
}

// Deliver sends msg as a multipart email with a plain-text part and an
// HTML alternative. Transport and auth errors wrap digest.ErrDeliveryFailed.
func (n *Notifier) Deliver(ctx context.Context, msg digest.Message) error {
	m := gomail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return fmt.Errorf("%w: set from %s: %v", digest.ErrDeliveryFailed, n.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("%w: set recipient %s: %v", digest.ErrDeliveryFailed, msg.To, err)
	}
	m.Subject(msg.Subject)

	date := n.clock.Now().Format("January 2, 2006")
	m.SetBodyString(gomail.TypeTextPlain, renderPlain(msg, date))
	m.AddAlternativeString(gomail.TypeTextHTML, renderHTML(msg, date))

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("%w: send to %s: %v", digest.ErrDeliveryFailed, msg.To, err)
	}
	return nil
}
