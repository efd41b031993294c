package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cuenta is a ledger: anything with a running balance that only moves through Movimientos.
// Tipo: "caja" | "tesoreria" | "caja_chica" | "cuenta_corriente"
// Estado: "activa" | "inactiva" for persistent ledgers, "abierta" | "cerrada" for registers.
// Saldo is a cache of SaldoPosterior of the latest movement; it is never written directly.
type Cuenta struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo     string    `gorm:"type:varchar(20);not null"`
	Nombre   string    `gorm:"not null"`
	// Clase applies to tesoreria: "efectivo" | "banco" | "operativa"
	Clase *string `gorm:"type:varchar(20)"`
	// MetodoPago is the tender instrument that settles into this treasury account
	MetodoPago *string `gorm:"type:varchar(20)"`
	// TitularTipo / TitularID identify the customer or supplier of a cuenta_corriente
	TitularTipo *string         `gorm:"type:varchar(20)"`
	TitularID   *uuid.UUID      `gorm:"type:uuid"`
	Saldo       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Estado      string          `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Cuenta) TableName() string { return "cuentas" }
