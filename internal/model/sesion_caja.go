package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SesionCaja represents the lifecycle of a cash register session.
// Estado: "abierta" | "cerrada" (terminal, never reopened)
// CuentaID is the register's own ledger; its movements are the drawer's history.
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CuentaID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	PuntoDeVenta int             `gorm:"not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	// CuentaTesoreriaID funded the opening balance and receives the closing sweep
	CuentaTesoreriaID uuid.UUID `gorm:"type:uuid;not null"`
	// MontoEsperado is computed on close: inicial + ventas efectivo + ingresos - egresos ± transferencias
	MontoEsperado  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	MontoDeclarado *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Desvio         *decimal.Decimal `gorm:"type:decimal(14,2)"`
	DesvioPct      *decimal.Decimal `gorm:"type:decimal(7,2)"`
	Estado         string           `gorm:"type:varchar(20);not null;default:'abierta'"`
	// ClasificacionDesvio: "normal" | "advertencia" | "critico"
	ClasificacionDesvio   *string `gorm:"type:varchar(20)"`
	Observaciones         *string
	ObservacionesCierre   *string
	TransferenciaApertura *string    `gorm:"type:varchar(40)"`
	TransferenciaCierre   *string    `gorm:"type:varchar(40)"`
	UsuarioCierreID       *uuid.UUID `gorm:"type:uuid"`
	OpenedAt              time.Time
	ClosedAt              *time.Time
}

func (SesionCaja) TableName() string { return "sesiones_caja" }
