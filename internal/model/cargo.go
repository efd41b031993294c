package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cargo is an outstanding obligation on a running account: a customer debt line
// or a supplier invoice. MontoPagado only grows, and only through an Imputacion.
// Estado: "pendiente" | "parcial" | "pagado" | "anulado" | "en_disputa"
type Cargo struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CuentaID     uuid.UUID `gorm:"type:uuid;not null;index"`
	MovimientoID uuid.UUID `gorm:"type:uuid;not null"`
	Concepto     string    `gorm:"not null"`
	// Comprobante is the invoice number when the charge mirrors a supplier invoice
	Comprobante *string         `gorm:"type:varchar(40)"`
	Monto       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MontoPagado decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Pagado      bool            `gorm:"not null;default:false"`
	Estado      string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Vencimiento *time.Time
	PagadoAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Cargo) TableName() string { return "cargos" }

// Saldo is what is still owed on the charge.
func (c *Cargo) Saldo() decimal.Decimal {
	return c.Monto.Sub(c.MontoPagado)
}

// Imputacion assigns part of a payment movement to one charge. Immutable.
type Imputacion struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PagoMovimientoID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CargoID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Monto            decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt        time.Time
}

func (Imputacion) TableName() string { return "imputaciones" }
