package worker

// email_worker.go
// Processes email jobs from QueueEmail. Closing reports reach the configured
// recipient with their PDF attached.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// Enviador sends one message. *infra.Mailer satisfies it.
type Enviador interface {
	Enviar(to, subject, body, adjunto string) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer Enviador
}

// NewEmailWorker creates an EmailWorker with the provided SMTP mailer.
func NewEmailWorker(mailer Enviador) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends the email. A malformed payload or a send failure is returned
// so the pool can retry it.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	if err := w.mailer.Enviar(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: email sent")
	return nil
}
