package infra

// pdf.go: closing report of a register session, rendered with go-pdf/fpdf.
// One A4 page with:
//   - Session header (point of sale, opened/closed times)
//   - Reconciliation figures (opening float, cash sales, manual entries, transfers)
//   - Expected vs. counted cash and the classified deviation
//   - Sales breakdown per payment method
//
// The output file is saved to storagePath/cierre_{sesion_id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"tesoreria/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerarReporteCierrePDF writes the closing report and returns the file path.
func GenerarReporteCierrePDF(job dto.ReporteCierreJob, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	rep := job.Reporte
	filePath := filepath.Join(storagePath, fmt.Sprintf("cierre_%s.pdf", rep.Sesion.ID))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30
	colLabel := contentW * 0.65
	colMonto := contentW * 0.35

	fila := func(label string, monto decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(colLabel, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(colMonto, 6, "$"+monto.StringFixed(2), "", 1, "R", false, 0, "")
	}
	separador := func() {
		pdf.Ln(1)
		pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
		pdf.Ln(2)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr("Cierre de caja"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Punto de venta %d  |  Sesion %s", rep.Sesion.PuntoDeVenta, rep.Sesion.ID), "", 1, "C", false, 0, "")
	cierre := "-"
	if rep.Sesion.ClosedAt != nil {
		cierre = *rep.Sesion.ClosedAt
	}
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Apertura %s  |  Cierre %s", rep.Sesion.OpenedAt, cierre), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Arqueo ───────────────────────────────────────────────────────────────
	fila("Monto inicial", rep.Sesion.MontoInicial, false)
	fila("Ventas en efectivo", rep.VentasEfectivo, false)
	fila("Ingresos manuales", rep.Ingresos, false)
	fila("Egresos manuales", rep.Egresos.Neg(), false)
	fila("Depositos", rep.Depositos, false)
	fila("Retiros", rep.Retiros.Neg(), false)
	separador()
	fila("Efectivo esperado", rep.MontoEsperado, true)
	if rep.MontoDeclarado != nil {
		fila("Efectivo declarado", *rep.MontoDeclarado, true)
	}
	if rep.Desvio != nil {
		fila(fmt.Sprintf("Desvio (%s%%, %s)", rep.Desvio.Porcentaje.StringFixed(2), rep.Desvio.Clasificacion), rep.Desvio.Monto, true)
	}
	pdf.Ln(4)

	// ── Medios de pago ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, tr("Ventas por medio de pago"), "B", 1, "L", false, 0, "")
	metodos := make([]string, 0, len(rep.DesglosePagos))
	for m := range rep.DesglosePagos {
		metodos = append(metodos, m)
	}
	sort.Strings(metodos)
	for _, m := range metodos {
		fila(m, rep.DesglosePagos[m], false)
	}
	separador()
	fila("Total vendido", rep.VentasTotal, true)

	if len(rep.EgresosPorCategoria) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, tr("Egresos por categoria"), "B", 1, "L", false, 0, "")
		cats := make([]string, 0, len(rep.EgresosPorCategoria))
		for c := range rep.EgresosPorCategoria {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			fila(c, rep.EgresosPorCategoria[c], false)
		}
	}

	if rep.Sesion.ObservacionesCierre != nil {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr("Observaciones: "+*rep.Sesion.ObservacionesCierre), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
