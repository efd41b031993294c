package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movimiento is an immutable entry on one ledger.
// Monto is always positive; the direction comes from Tipo through ledger.Signo.
// Movements are NEVER modified or deleted; corrections are new movements with ReversionDe set.
type Movimiento struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	CuentaID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Secuencia is the global commit order; folding by it reproduces Cuenta.Saldo
	Secuencia  int64           `gorm:"autoIncrement;not null"`
	UsuarioID  uuid.UUID       `gorm:"type:uuid;not null"`
	TipoCuenta string          `gorm:"type:varchar(20);not null"`
	Tipo       string          `gorm:"type:varchar(30);not null"`
	MetodoPago *string         `gorm:"type:varchar(20)"`
	Categoria  *string         `gorm:"type:varchar(60)"`
	Monto      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Concepto   string          `gorm:"not null"`
	Referencia *string
	// TransferenciaID pairs the two halves of a transfer
	TransferenciaID *string         `gorm:"type:varchar(40);index"`
	ReversionDe     *uuid.UUID      `gorm:"type:uuid;index"`
	SaldoAnterior   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SaldoPosterior  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt       time.Time
}

func (Movimiento) TableName() string { return "movimientos" }
