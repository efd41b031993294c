package service

import (
	"context"

	"tesoreria/internal/dto"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LibroService exposes the operations every ledger kind shares: balance,
// movement history, manual postings and the reconstruction check.
type LibroService interface {
	Saldo(ctx context.Context, actor Actor, cuentaID uuid.UUID) (*dto.SaldoResponse, error)
	Registrar(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	Movimientos(ctx context.Context, actor Actor, cuentaID uuid.UUID, limit int) ([]dto.MovimientoResponse, error)
	Verificar(ctx context.Context, actor Actor, cuentaID uuid.UUID) (*dto.VerificacionResponse, error)
}

type libroService struct {
	store repository.Store
	reg   registrador
}

func NewLibroService(store repository.Store, reloj Reloj) LibroService {
	return &libroService{store: store, reg: registrador{reloj: reloj}}
}

// tiposManuales are the types a user may post directly. Everything else is
// produced by a dedicated operation (sales, transfers, charges, payments, close).
var tiposManuales = map[ledger.Tipo][]ledger.TipoMovimiento{
	ledger.TipoCaja:            {ledger.MovIngreso, ledger.MovEgreso},
	ledger.TipoTesoreria:       {ledger.MovRecibido, ledger.MovPagado},
	ledger.TipoCajaChica:       {ledger.MovIngreso, ledger.MovGasto},
	ledger.TipoCuentaCorriente: {ledger.MovAjusteDebito, ledger.MovAjusteCredito},
}

// permisoManual is the capability needed to post by hand on each kind.
var permisoManual = map[ledger.Tipo]permiso.Permiso{
	ledger.TipoCaja:            permiso.CajaOperar,
	ledger.TipoTesoreria:       permiso.TesoreriaGestionar,
	ledger.TipoCajaChica:       permiso.CajaChicaOperar,
	ledger.TipoCuentaCorriente: permiso.CuentaCorrienteGestionar,
}

func esManual(t ledger.Tipo, m ledger.TipoMovimiento) bool {
	for _, x := range tiposManuales[t] {
		if x == m {
			return true
		}
	}
	return false
}

func (s *libroService) Saldo(ctx context.Context, actor Actor, cuentaID uuid.UUID) (*dto.SaldoResponse, error) {
	if err := actor.autenticado(); err != nil {
		return nil, err
	}
	c, err := s.store.Cuentas().FindByID(ctx, actor.TenantID, cuentaID)
	if err != nil {
		return nil, err
	}
	return &dto.SaldoResponse{CuentaID: c.ID.String(), Tipo: c.Tipo, Estado: c.Estado, Saldo: c.Saldo}, nil
}

func (s *libroService) Registrar(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	if err := actor.autenticado(); err != nil {
		return nil, err
	}
	if err := ledger.ValidarMonto(req.Monto); err != nil {
		return nil, rechazo(err, "registrar_movimiento", actor)
	}
	var mov *model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		cuentas, err := bloquear(ctx, tx, actor.TenantID, cuentaID)
		if err != nil {
			return err
		}
		c := cuentas[cuentaID]
		tipo := ledger.Tipo(c.Tipo)
		if err := actor.requiere(permisoManual[tipo]); err != nil {
			return err
		}
		if _, err := ledger.Signo(tipo, ledger.TipoMovimiento(req.Tipo)); err != nil {
			return err
		}
		if !esManual(tipo, ledger.TipoMovimiento(req.Tipo)) {
			return ledger.Validacion("el movimiento %s solo se genera por su operacion especifica", req.Tipo)
		}
		mov, err = s.reg.registrar(ctx, tx, actor, c, asiento{
			Tipo:       ledger.TipoMovimiento(req.Tipo),
			Monto:      req.Monto,
			Concepto:   req.Concepto,
			Referencia: req.Referencia,
			Categoria:  req.Categoria,
		})
		return err
	})
	if err != nil {
		return nil, rechazo(err, "registrar_movimiento", actor)
	}
	contar(mov)
	resp := movimientoToResponse(mov)
	return &resp, nil
}

func (s *libroService) Movimientos(ctx context.Context, actor Actor, cuentaID uuid.UUID, limit int) ([]dto.MovimientoResponse, error) {
	if err := actor.autenticado(); err != nil {
		return nil, err
	}
	if _, err := s.store.Cuentas().FindByID(ctx, actor.TenantID, cuentaID); err != nil {
		return nil, err
	}
	movs, err := s.store.Movimientos().ListByCuenta(ctx, actor.TenantID, cuentaID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movimientoToResponse(&movs[i]))
	}
	return out, nil
}

// Verificar folds the movement log in commit order and compares the result
// with the cached balance. Each movement's saldo_anterior must equal the
// previous saldo_posterior, and each saldo_posterior must follow from the sign table.
func (s *libroService) Verificar(ctx context.Context, actor Actor, cuentaID uuid.UUID) (*dto.VerificacionResponse, error) {
	if err := actor.autenticado(); err != nil {
		return nil, err
	}
	c, err := s.store.Cuentas().FindByID(ctx, actor.TenantID, cuentaID)
	if err != nil {
		return nil, err
	}
	movs, err := s.store.Movimientos().ListByCuenta(ctx, actor.TenantID, cuentaID, 0)
	if err != nil {
		return nil, err
	}
	saldo, malo := reconstruir(ledger.Tipo(c.Tipo), movs)
	resp := &dto.VerificacionResponse{
		CuentaID:          c.ID.String(),
		SaldoCache:        c.Saldo,
		SaldoReconstruido: saldo,
		Movimientos:       len(movs),
		Consistente:       malo == nil && saldo.Equal(c.Saldo),
	}
	if malo != nil {
		resp.PrimeraInconsistencia = strPtr(malo.String())
	}
	return resp, nil
}

// reconstruir returns the folded balance and the id of the first movement that
// breaks the chain, if any.
func reconstruir(tipo ledger.Tipo, movs []model.Movimiento) (decimal.Decimal, *uuid.UUID) {
	saldo := decimal.Zero
	for i := range movs {
		m := &movs[i]
		if !m.SaldoAnterior.Equal(saldo) {
			return saldo, &m.ID
		}
		next, err := ledger.Aplicar(tipo, ledger.TipoMovimiento(m.Tipo), saldo, m.Monto)
		if err != nil || !next.Equal(m.SaldoPosterior) {
			return saldo, &m.ID
		}
		saldo = next
	}
	return saldo, nil
}
