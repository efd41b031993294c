package dto

import "github.com/shopspring/decimal"

// MovimientoRequest posts a manual movement on a treasury account, the petty
// cash fund or a running account.
type MovimientoRequest struct {
	Tipo       string          `json:"tipo"       validate:"required,max=30"`
	Monto      decimal.Decimal `json:"monto"      validate:"gt=0"`
	Concepto   string          `json:"concepto"   validate:"required,min=3,max=200"`
	Referencia *string         `json:"referencia" validate:"omitempty,max=100"`
	Categoria  *string         `json:"categoria"  validate:"omitempty,max=60"`
}

type MovimientoResponse struct {
	ID              string          `json:"id"`
	CuentaID        string          `json:"cuenta_id"`
	TipoCuenta      string          `json:"tipo_cuenta"`
	Tipo            string          `json:"tipo"`
	Monto           decimal.Decimal `json:"monto"`
	Concepto        string          `json:"concepto"`
	Referencia      *string         `json:"referencia,omitempty"`
	MetodoPago      *string         `json:"metodo_pago,omitempty"`
	Categoria       *string         `json:"categoria,omitempty"`
	TransferenciaID *string         `json:"transferencia_id,omitempty"`
	ReversionDe     *string         `json:"reversion_de,omitempty"`
	SaldoAnterior   decimal.Decimal `json:"saldo_anterior"`
	SaldoPosterior  decimal.Decimal `json:"saldo_posterior"`
	Secuencia       int64           `json:"secuencia"`
	UsuarioID       string          `json:"usuario_id"`
	CreatedAt       string          `json:"created_at"`
}

type MovimientoFilter struct {
	Limit int `form:"limit,default=100" validate:"min=1,max=1000"`
}

type SaldoResponse struct {
	CuentaID string          `json:"cuenta_id"`
	Tipo     string          `json:"tipo"`
	Estado   string          `json:"estado"`
	Saldo    decimal.Decimal `json:"saldo"`
}

// VerificacionResponse reports whether folding the movement log reproduces the cached balance.
type VerificacionResponse struct {
	CuentaID              string          `json:"cuenta_id"`
	Consistente           bool            `json:"consistente"`
	SaldoCache            decimal.Decimal `json:"saldo_cache"`
	SaldoReconstruido     decimal.Decimal `json:"saldo_reconstruido"`
	Movimientos           int             `json:"movimientos"`
	PrimeraInconsistencia *string         `json:"primera_inconsistencia,omitempty"`
}
