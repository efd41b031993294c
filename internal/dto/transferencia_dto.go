package dto

import "github.com/shopspring/decimal"

type TransferenciaRequest struct {
	OrigenID  string          `json:"origen_id"  validate:"required,uuid"`
	DestinoID string          `json:"destino_id" validate:"required,uuid,nefield=OrigenID"`
	Monto     decimal.Decimal `json:"monto"      validate:"gt=0"`
	Notas     *string         `json:"notas"      validate:"omitempty,max=500"`
}

type TransferenciaResponse struct {
	TransferenciaID   string             `json:"transferencia_id"`
	MovimientoOrigen  MovimientoResponse `json:"movimiento_origen"`
	MovimientoDestino MovimientoResponse `json:"movimiento_destino"`
	SaldoOrigen       decimal.Decimal    `json:"saldo_origen"`
	SaldoDestino      decimal.Decimal    `json:"saldo_destino"`
	// AnuladaPor is the id of the compensating transfer, when there is one.
	AnuladaPor *string `json:"anulada_por,omitempty"`
}
