// Package mail renders the account emails and hands them to an SMTP relay.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/go-mail/mail/v2"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	TemplateVerifyEmail   = "verify_email.tmpl"
	TemplatePasswordReset = "password_reset.tmpl"
)

// LinkData is the template payload for messages carrying a token link.
type LinkData struct {
	Name      string
	Link      string
	Token     string
	ExpiresIn string
}

type Config struct {
	Server   string
	Port     int
	Username string
	Password string
	Sender   string
	UseTLS   bool
}

// Message is a rendered email.
type Message struct {
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Render executes the subject, plainBody and htmlBody blocks of the named template.
func Render(to, templateName string, data any) (*Message, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateName)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templateName, err)
	}
	msg := &Message{To: to}
	parts := []struct {
		name string
		dst  *string
	}{
		{"subject", &msg.Subject},
		{"plainBody", &msg.PlainBody},
		{"htmlBody", &msg.HTMLBody},
	}
	for _, p := range parts {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, p.name, data); err != nil {
			return nil, fmt.Errorf("render %s/%s: %w", templateName, p.name, err)
		}
		*p.dst = buf.String()
	}
	return msg, nil
}

// Mailer delivers through an SMTP relay. Failures are returned, never retried.
type Mailer struct {
	dialer *gomail.Dialer
	sender string
	logger *zap.SugaredLogger
}

func New(cfg Config, logger *zap.SugaredLogger) *Mailer {
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 10 * time.Second
	if cfg.UseTLS {
		d.StartTLSPolicy = gomail.MandatoryStartTLS
		d.TLSConfig = &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	}
	if cfg.Port == 465 {
		d.SSL = true
	}
	return &Mailer{dialer: d, sender: cfg.Sender, logger: logger}
}

func (m *Mailer) Send(ctx context.Context, to, templateName string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rendered, err := Render(to, templateName, data)
	if err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("To", rendered.To)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.PlainBody)
	msg.AddAlternative("text/html", rendered.HTMLBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	m.logger.Debugw("mail sent", "to", to, "template", templateName)
	return nil
}

// LogMailer renders messages and writes them to the log instead of sending.
// Used when no SMTP server is configured.
type LogMailer struct {
	logger *zap.SugaredLogger
}

func NewLogMailer(logger *zap.SugaredLogger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, templateName string, data any) error {
	rendered, err := Render(to, templateName, data)
	if err != nil {
		return err
	}
	fields := []any{"to", to, "subject", rendered.Subject}
	if ld, ok := data.(LinkData); ok {
		fields = append(fields, "link", ld.Link)
	}
	m.logger.Infow("mail not sent, no smtp server configured", fields...)
	return nil
}
