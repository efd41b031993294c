package infra

import (
	"fmt"
	"net/smtp"

	"tesoreria/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending emails with PDF attachments.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configurado reports whether an SMTP host was given.
func (m *Mailer) Configurado() bool { return m != nil && m.host != "" }

// Enviar sends a plain-text email, attaching adjunto when it is not empty.
func (m *Mailer) Enviar(to, subject, body, adjunto string) error {
	if !m.Configurado() {
		return fmt.Errorf("mailer: SMTP no configurado")
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if adjunto != "" {
		if _, err := e.AttachFile(adjunto); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
