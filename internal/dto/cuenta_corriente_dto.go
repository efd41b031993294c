package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearCuentaCorrienteRequest struct {
	TitularTipo string `json:"titular_tipo" validate:"required,oneof=cliente proveedor"`
	TitularID   string `json:"titular_id"   validate:"required,uuid"`
	Nombre      string `json:"nombre"       validate:"required,min=2,max=120"`
}

type RegistrarCargoRequest struct {
	Monto       decimal.Decimal `json:"monto"       validate:"gt=0"`
	Concepto    string          `json:"concepto"    validate:"required,min=3,max=200"`
	Comprobante *string         `json:"comprobante" validate:"omitempty,max=40"`
	Vencimiento *time.Time      `json:"vencimiento"`
}

type PagoInstrumentoRequest struct {
	Metodo            string          `json:"metodo"              validate:"required,oneof=efectivo tarjeta_debito tarjeta_credito transferencia qr cuenta_corriente cheque otro"`
	Monto             decimal.Decimal `json:"monto"               validate:"gt=0"`
	CuentaTesoreriaID *string         `json:"cuenta_tesoreria_id" validate:"omitempty,uuid"`
}

type ImputacionRequest struct {
	CargoID string          `json:"cargo_id" validate:"required,uuid"`
	Monto   decimal.Decimal `json:"monto"    validate:"gt=0"`
}

type RegistrarPagoRequest struct {
	Monto        decimal.Decimal          `json:"monto"        validate:"gt=0"`
	Concepto     string                   `json:"concepto"     validate:"required,min=3,max=200"`
	Referencia   *string                  `json:"referencia"   validate:"omitempty,max=100"`
	FechaPago    *time.Time               `json:"fecha_pago"`
	Pagos        []PagoInstrumentoRequest `json:"pagos"        validate:"omitempty,dive"`
	Imputaciones []ImputacionRequest      `json:"imputaciones" validate:"omitempty,dive"`
}

type AnularCargoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3,max=200"`
}

type DisputaRequest struct {
	EnDisputa *bool `json:"en_disputa" validate:"required"`
}

type CargoFilter struct {
	Pendientes bool `form:"pendientes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CargoResponse struct {
	ID           string          `json:"id"`
	CuentaID     string          `json:"cuenta_id"`
	MovimientoID string          `json:"movimiento_id"`
	Concepto     string          `json:"concepto"`
	Comprobante  *string         `json:"comprobante,omitempty"`
	Monto        decimal.Decimal `json:"monto"`
	MontoPagado  decimal.Decimal `json:"monto_pagado"`
	Saldo        decimal.Decimal `json:"saldo"`
	Pagado       bool            `json:"pagado"`
	Estado       string          `json:"estado"`
	Vencimiento  *string         `json:"vencimiento,omitempty"`
	PagadoAt     *string         `json:"pagado_at,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type ImputacionResponse struct {
	CargoID     string          `json:"cargo_id"`
	Monto       decimal.Decimal `json:"monto"`
	SaldoCargo  decimal.Decimal `json:"saldo_cargo"`
	EstadoCargo string          `json:"estado_cargo"`
}

type PagoResponse struct {
	Movimiento           MovimientoResponse   `json:"movimiento"`
	Imputaciones         []ImputacionResponse `json:"imputaciones"`
	MontoImputado        decimal.Decimal      `json:"monto_imputado"`
	MontoNoImputado      decimal.Decimal      `json:"monto_no_imputado"`
	MovimientosTesoreria []MovimientoResponse `json:"movimientos_tesoreria"`
	SaldoCuenta          decimal.Decimal      `json:"saldo_cuenta"`
}
