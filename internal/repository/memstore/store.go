// Package memstore is an in-memory repository.Store used by service and
// handler tests. A unit of work holds a single store-wide lock and restores a
// snapshot when it fails, so it gives the same all-or-nothing behavior as a
// database transaction.
package memstore

import (
	"context"
	"sync"

	"tesoreria/internal/model"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	cuentas      map[uuid.UUID]model.Cuenta
	movimientos  []model.Movimiento
	sesiones     map[uuid.UUID]model.SesionCaja
	cargos       map[uuid.UUID]model.Cargo
	imputaciones []model.Imputacion
	seq          int64

	// FallarMovimiento, when set, is consulted before every movement insert.
	// Tests use it to break a unit of work half way through.
	FallarMovimiento func(m *model.Movimiento) error
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		cuentas:  make(map[uuid.UUID]model.Cuenta),
		sesiones: make(map[uuid.UUID]model.SesionCaja),
		cargos:   make(map[uuid.UUID]model.Cargo),
	}
}

func (s *Store) Cuentas() repository.CuentaRepository         { return &cuentas{view{s: s}} }
func (s *Store) Movimientos() repository.MovimientoRepository { return &movimientos{view{s: s}} }
func (s *Store) Sesiones() repository.SesionCajaRepository    { return &sesiones{view{s: s}} }
func (s *Store) Cargos() repository.CargoRepository           { return &cargos{view{s: s}} }

// Do serializes every unit of work behind the store lock.
func (s *Store) Do(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&txView{view{s: s, enTx: true}}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	cuentas      map[uuid.UUID]model.Cuenta
	movimientos  []model.Movimiento
	sesiones     map[uuid.UUID]model.SesionCaja
	cargos       map[uuid.UUID]model.Cargo
	imputaciones []model.Imputacion
	seq          int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		cuentas:      make(map[uuid.UUID]model.Cuenta, len(s.cuentas)),
		movimientos:  append([]model.Movimiento(nil), s.movimientos...),
		sesiones:     make(map[uuid.UUID]model.SesionCaja, len(s.sesiones)),
		cargos:       make(map[uuid.UUID]model.Cargo, len(s.cargos)),
		imputaciones: append([]model.Imputacion(nil), s.imputaciones...),
		seq:          s.seq,
	}
	for k, v := range s.cuentas {
		snap.cuentas[k] = v
	}
	for k, v := range s.sesiones {
		snap.sesiones[k] = v
	}
	for k, v := range s.cargos {
		snap.cargos[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.cuentas = snap.cuentas
	s.movimientos = snap.movimientos
	s.sesiones = snap.sesiones
	s.cargos = snap.cargos
	s.imputaciones = snap.imputaciones
	s.seq = snap.seq
}

// view is a handle on the store. Outside a unit of work every call takes the
// lock itself; inside one the lock is already held by Do.
type view struct {
	s    *Store
	enTx bool
}

func (v view) lock() func() {
	if v.enTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

type txView struct{ v view }

func (t *txView) Cuentas() repository.CuentaRepository         { return &cuentas{t.v} }
func (t *txView) Movimientos() repository.MovimientoRepository { return &movimientos{t.v} }
func (t *txView) Sesiones() repository.SesionCajaRepository    { return &sesiones{t.v} }
func (t *txView) Cargos() repository.CargoRepository           { return &cargos{t.v} }

func requiereTenant(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return repository.ErrTenantRequerido
	}
	return nil
}
