package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	PuntoDeVenta int             `json:"punto_de_venta" validate:"omitempty,min=1"`
	MontoInicial decimal.Decimal `json:"monto_inicial"  validate:"min=0"`
	// CuentaTesoreriaID funds the opening balance; defaults to the tenant's cash treasury account.
	CuentaTesoreriaID *string `json:"cuenta_tesoreria_id" validate:"omitempty,uuid"`
	Observaciones     *string `json:"observaciones"       validate:"omitempty,max=500"`
}

type CerrarCajaRequest struct {
	MontoDeclarado decimal.Decimal `json:"monto_declarado" validate:"min=0"`
	Observaciones  *string         `json:"observaciones"   validate:"omitempty,max=500"`
}

type MovimientoManualRequest struct {
	Tipo       string          `json:"tipo"       validate:"required,oneof=ingreso egreso"`
	Monto      decimal.Decimal `json:"monto"      validate:"gt=0"`
	Motivo     string          `json:"motivo"     validate:"required,min=3,max=200"`
	Referencia *string         `json:"referencia" validate:"omitempty,max=100"`
	Categoria  *string         `json:"categoria"  validate:"omitempty,max=60"`
}

type PagoVentaRequest struct {
	Metodo string          `json:"metodo" validate:"required,oneof=efectivo tarjeta_debito tarjeta_credito transferencia qr cuenta_corriente cheque otro"`
	Monto  decimal.Decimal `json:"monto"  validate:"gt=0"`
	// CuentaCorrienteID charges the sale to a customer running account when metodo is cuenta_corriente.
	CuentaCorrienteID *string `json:"cuenta_corriente_id" validate:"omitempty,uuid"`
}

// RegistrarVentaRequest settles an already-priced sale into the register.
type RegistrarVentaRequest struct {
	Referencia string             `json:"referencia" validate:"required,max=100"`
	Pagos      []PagoVentaRequest `json:"pagos"      validate:"required,min=1,dive"`
}

// MovimientoFondosRequest moves cash between an open register and treasury or petty cash.
// Destino applies to retiros, Origen to depositos.
type MovimientoFondosRequest struct {
	Destino  string          `json:"destino"   validate:"omitempty,oneof=tesoreria caja_chica"`
	Origen   string          `json:"origen"    validate:"omitempty,oneof=tesoreria caja_chica"`
	CuentaID *string         `json:"cuenta_id" validate:"omitempty,uuid"`
	Monto    decimal.Decimal `json:"monto"     validate:"gt=0"`
	Notas    *string         `json:"notas"     validate:"omitempty,max=500"`
}

type HistorialCajaFilter struct {
	Limit int `form:"limit,default=30" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DesvioResponse struct {
	Monto         decimal.Decimal `json:"monto"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	Clasificacion string          `json:"clasificacion"` // normal | advertencia | critico
}

// DesglosePagos lists settled sales per tender instrument.
type DesglosePagos map[string]decimal.Decimal

type SesionCajaResponse struct {
	ID                    string           `json:"id"`
	CuentaID              string           `json:"cuenta_id"`
	PuntoDeVenta          int              `json:"punto_de_venta"`
	UsuarioID             string           `json:"usuario_id"`
	Estado                string           `json:"estado"`
	MontoInicial          decimal.Decimal  `json:"monto_inicial"`
	Saldo                 decimal.Decimal  `json:"saldo"`
	CuentaTesoreriaID     string           `json:"cuenta_tesoreria_id"`
	MontoEsperado         *decimal.Decimal `json:"monto_esperado,omitempty"`
	MontoDeclarado        *decimal.Decimal `json:"monto_declarado,omitempty"`
	Desvio                *DesvioResponse  `json:"desvio,omitempty"`
	TransferenciaApertura *string          `json:"transferencia_apertura,omitempty"`
	TransferenciaCierre   *string          `json:"transferencia_cierre,omitempty"`
	Observaciones         *string          `json:"observaciones,omitempty"`
	ObservacionesCierre   *string          `json:"observaciones_cierre,omitempty"`
	OpenedAt              string           `json:"opened_at"`
	ClosedAt              *string          `json:"closed_at,omitempty"`
}

// ReporteCajaResponse is returned by close and by the session report.
type ReporteCajaResponse struct {
	Sesion         SesionCajaResponse `json:"sesion"`
	VentasEfectivo decimal.Decimal    `json:"ventas_efectivo"`
	VentasTotal    decimal.Decimal    `json:"ventas_total"`
	DesglosePagos  DesglosePagos      `json:"desglose_pagos"`
	Ingresos       decimal.Decimal    `json:"ingresos"`
	Egresos        decimal.Decimal    `json:"egresos"`
	Depositos      decimal.Decimal    `json:"depositos"`
	Retiros        decimal.Decimal    `json:"retiros"`
	MontoEsperado  decimal.Decimal    `json:"monto_esperado"`
	MontoDeclarado *decimal.Decimal   `json:"monto_declarado,omitempty"`
	Desvio         *DesvioResponse    `json:"desvio,omitempty"`
	// EgresosPorCategoria groups manual expenses for reporting only.
	EgresosPorCategoria map[string]decimal.Decimal `json:"egresos_por_categoria,omitempty"`
}

type VentaRegistradaResponse struct {
	Referencia  string               `json:"referencia"`
	Movimientos []MovimientoResponse `json:"movimientos"`
	Saldo       decimal.Decimal      `json:"saldo"`
}

// ReporteCierreJob is the payload enqueued after a register closes. The worker
// renders it to PDF and mails it without reading the database again.
type ReporteCierreJob struct {
	TenantID  string              `json:"tenant_id"`
	UsuarioID string              `json:"usuario_id"`
	Reporte   ReporteCajaResponse `json:"reporte"`
}
