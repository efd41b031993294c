package dto

import "github.com/shopspring/decimal"

type CrearCuentaTesoreriaRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=100"`
	Clase  string `json:"clase"  validate:"required,oneof=efectivo banco operativa"`
	// MetodoPago maps a tender instrument to this account; at most one active account per instrument.
	MetodoPago   *string         `json:"metodo_pago"   validate:"omitempty,oneof=efectivo tarjeta_debito tarjeta_credito transferencia qr cheque otro"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial" validate:"min=0"`
}

type CambiarEstadoRequest struct {
	Activa *bool `json:"activa" validate:"required"`
}

type CuentaResponse struct {
	ID          string          `json:"id"`
	Tipo        string          `json:"tipo"`
	Nombre      string          `json:"nombre"`
	Clase       *string         `json:"clase,omitempty"`
	MetodoPago  *string         `json:"metodo_pago,omitempty"`
	TitularTipo *string         `json:"titular_tipo,omitempty"`
	TitularID   *string         `json:"titular_id,omitempty"`
	Saldo       decimal.Decimal `json:"saldo"`
	Estado      string          `json:"estado"`
	CreatedAt   string          `json:"created_at"`
}

// ResumenTesoreriaResponse aggregates every money-holding ledger of the tenant.
type ResumenTesoreriaResponse struct {
	Cuentas        []CuentaResponse           `json:"cuentas"`
	TotalPorClase  map[string]decimal.Decimal `json:"total_por_clase"`
	TotalTesoreria decimal.Decimal            `json:"total_tesoreria"`
	CajaChica      decimal.Decimal            `json:"caja_chica"`
	CajasAbiertas  decimal.Decimal            `json:"cajas_abiertas"`
	CantidadCajas  int                        `json:"cantidad_cajas_abiertas"`
	TotalGeneral   decimal.Decimal            `json:"total_general"`
}

type MovimientoCajaChicaRequest struct {
	Tipo       string          `json:"tipo"       validate:"required,oneof=ingreso gasto"`
	Monto      decimal.Decimal `json:"monto"      validate:"gt=0"`
	Concepto   string          `json:"concepto"   validate:"required,min=3,max=200"`
	Referencia *string         `json:"referencia" validate:"omitempty,max=100"`
	Categoria  *string         `json:"categoria"  validate:"omitempty,max=60"`
}
