package repository

import (
	"context"

	"gorm.io/gorm"
)

// Tx groups the repositories that take part in one unit of work. Every
// method of every repository is scoped to a tenant.
type Tx interface {
	Cuentas() CuentaRepository
	Movimientos() MovimientoRepository
	Sesiones() SesionCajaRepository
	Cargos() CargoRepository
}

// UnitOfWork runs fn atomically: either every write made through tx commits,
// or none does. A non-nil error from fn rolls back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}

// Store is what services depend on: reads outside a unit of work through the
// embedded Tx, compound writes through Do.
type Store interface {
	Tx
	UnitOfWork
}

type gormStore struct{ db *gorm.DB }

// NewStore returns the PostgreSQL-backed Store.
func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Cuentas() CuentaRepository         { return &cuentaRepo{db: s.db} }
func (s *gormStore) Movimientos() MovimientoRepository { return &movimientoRepo{db: s.db} }
func (s *gormStore) Sesiones() SesionCajaRepository    { return &sesionCajaRepo{db: s.db} }
func (s *gormStore) Cargos() CargoRepository           { return &cargoRepo{db: s.db} }

// Do opens a database transaction and hands fn repositories bound to it.
func (s *gormStore) Do(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
