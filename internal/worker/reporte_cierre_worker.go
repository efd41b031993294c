package worker

// reporte_cierre_worker.go
// Renders the closing report of a register session to PDF and, when a
// recipient is configured, queues an email carrying it.

import (
	"context"
	"encoding/json"
	"fmt"

	"tesoreria/internal/dto"

	"github.com/rs/zerolog/log"
)

// Renderizador writes the PDF for a closing report and returns its path.
type Renderizador func(job dto.ReporteCierreJob, storagePath string) (string, error)

// ColaEmail queues the follow-up email. *Dispatcher satisfies it.
type ColaEmail interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ReporteCierreWorker struct {
	render      Renderizador
	storagePath string
	destino     string
	emails      ColaEmail
}

// NewReporteCierreWorker wires the closing report worker. An empty destino
// keeps the PDF on disk without mailing it.
func NewReporteCierreWorker(render Renderizador, storagePath, destino string, emails ColaEmail) *ReporteCierreWorker {
	return &ReporteCierreWorker{render: render, storagePath: storagePath, destino: destino, emails: emails}
}

func (w *ReporteCierreWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var job dto.ReporteCierreJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return fmt.Errorf("reporte_cierre: invalid payload: %w", err)
	}

	path, err := w.render(job, w.storagePath)
	if err != nil {
		return fmt.Errorf("reporte_cierre: pdf: %w", err)
	}
	sesion := job.Reporte.Sesion
	log.Info().
		Str("tenant_id", job.TenantID).
		Str("sesion_id", sesion.ID).
		Str("pdf", path).
		Msg("reporte_cierre: pdf generado")

	if w.destino == "" || w.emails == nil {
		return nil
	}
	body := fmt.Sprintf("Cierre de caja del punto de venta %d.\nMonto esperado: %s\n",
		sesion.PuntoDeVenta, job.Reporte.MontoEsperado.StringFixed(2))
	if job.Reporte.MontoDeclarado != nil {
		body += fmt.Sprintf("Monto declarado: %s\n", job.Reporte.MontoDeclarado.StringFixed(2))
	}
	if d := job.Reporte.Desvio; d != nil {
		body += fmt.Sprintf("Desvio: %s (%s)\n", d.Monto.StringFixed(2), d.Clasificacion)
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.destino,
		Subject: fmt.Sprintf("Cierre de caja PDV %d", sesion.PuntoDeVenta),
		Body:    body,
		PDFPath: path,
	})
}
