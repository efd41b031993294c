package service

import (
	"context"
	"errors"

	"tesoreria/internal/dto"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TesoreriaService manages treasury accounts and the petty cash fund.
type TesoreriaService interface {
	CrearCuenta(ctx context.Context, actor Actor, req dto.CrearCuentaTesoreriaRequest) (*dto.CuentaResponse, error)
	ListarCuentas(ctx context.Context, actor Actor) ([]dto.CuentaResponse, error)
	CambiarEstado(ctx context.Context, actor Actor, cuentaID uuid.UUID, activa bool) (*dto.CuentaResponse, error)
	RegistrarMovimiento(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	Resumen(ctx context.Context, actor Actor) (*dto.ResumenTesoreriaResponse, error)

	CajaChica(ctx context.Context, actor Actor) (*dto.CuentaResponse, error)
	MovimientoCajaChica(ctx context.Context, actor Actor, req dto.MovimientoCajaChicaRequest) (*dto.MovimientoResponse, error)
}

type tesoreriaService struct {
	store repository.Store
	reg   registrador
}

func NewTesoreriaService(store repository.Store, reloj Reloj) TesoreriaService {
	return &tesoreriaService{store: store, reg: registrador{reloj: reloj}}
}

// ── Cuentas de tesoreria ──────────────────────────────────────────────────────

func (s *tesoreriaService) CrearCuenta(ctx context.Context, actor Actor, req dto.CrearCuentaTesoreriaRequest) (*dto.CuentaResponse, error) {
	if err := actor.requiere(permiso.TesoreriaGestionar); err != nil {
		return nil, err
	}
	switch req.Clase {
	case ledger.ClaseEfectivo, ledger.ClaseBanco, ledger.ClaseOperativa:
	default:
		return nil, ledger.Validacion("clase %q invalida", req.Clase)
	}
	if req.MetodoPago != nil && *req.MetodoPago == ledger.MetodoCuentaCorriente {
		return nil, ledger.Validacion("cuenta_corriente no se liquida en tesoreria")
	}
	if err := ledger.ValidarMontoNoNegativo(req.SaldoInicial); err != nil {
		return nil, err
	}

	clase := req.Clase
	cuenta := &model.Cuenta{
		ID:         uuid.New(),
		TenantID:   actor.TenantID,
		Tipo:       string(ledger.TipoTesoreria),
		Nombre:     req.Nombre,
		Clase:      &clase,
		MetodoPago: req.MetodoPago,
		Saldo:      decimal.Zero,
		Estado:     ledger.EstadoActiva,
		CreatedAt:  s.reg.reloj.Ahora(),
	}
	var inicial *model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		if req.MetodoPago != nil {
			_, err := tx.Cuentas().FindTesoreriaPorMetodo(ctx, actor.TenantID, *req.MetodoPago)
			if err == nil {
				return ledger.Validacion("ya existe una cuenta activa para el metodo %s", *req.MetodoPago)
			}
			if !errors.Is(err, ledger.ErrNoEncontrado) {
				return err
			}
		}
		if err := tx.Cuentas().Create(ctx, cuenta); err != nil {
			return err
		}
		if !req.SaldoInicial.IsPositive() {
			return nil
		}
		var err error
		inicial, err = s.reg.registrar(ctx, tx, actor, cuenta, asiento{
			Tipo:     ledger.MovRecibido,
			Monto:    req.SaldoInicial,
			Concepto: "Saldo inicial",
		})
		return err
	})
	if err != nil {
		return nil, rechazo(err, "crear_cuenta_tesoreria", actor)
	}
	contar(inicial)
	resp := cuentaToResponse(cuenta)
	return &resp, nil
}

func (s *tesoreriaService) ListarCuentas(ctx context.Context, actor Actor) ([]dto.CuentaResponse, error) {
	if err := actor.requiere(permiso.TesoreriaVer); err != nil {
		return nil, err
	}
	cuentas, err := s.store.Cuentas().List(ctx, actor.TenantID, ledger.TipoTesoreria)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CuentaResponse, 0, len(cuentas))
	for i := range cuentas {
		out = append(out, cuentaToResponse(&cuentas[i]))
	}
	return out, nil
}

func (s *tesoreriaService) CambiarEstado(ctx context.Context, actor Actor, cuentaID uuid.UUID, activa bool) (*dto.CuentaResponse, error) {
	if err := actor.requiere(permiso.TesoreriaGestionar); err != nil {
		return nil, err
	}
	estado := ledger.EstadoInactiva
	if activa {
		estado = ledger.EstadoActiva
	}
	var cuenta *model.Cuenta
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		cuentas, err := bloquear(ctx, tx, actor.TenantID, cuentaID)
		if err != nil {
			return err
		}
		cuenta = cuentas[cuentaID]
		if cuenta.Tipo != string(ledger.TipoTesoreria) {
			return ledger.ErrNoEncontrado
		}
		if activa && cuenta.MetodoPago != nil {
			otra, err := tx.Cuentas().FindTesoreriaPorMetodo(ctx, actor.TenantID, *cuenta.MetodoPago)
			if err == nil && otra.ID != cuenta.ID {
				return ledger.Validacion("ya existe una cuenta activa para el metodo %s", *cuenta.MetodoPago)
			}
		}
		cuenta.Estado = estado
		return tx.Cuentas().UpdateEstado(ctx, actor.TenantID, cuentaID, estado)
	})
	if err != nil {
		return nil, rechazo(err, "estado_cuenta_tesoreria", actor)
	}
	resp := cuentaToResponse(cuenta)
	return &resp, nil
}

func (s *tesoreriaService) RegistrarMovimiento(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	if err := actor.requiere(permiso.TesoreriaGestionar); err != nil {
		return nil, err
	}
	tipo := ledger.TipoMovimiento(req.Tipo)
	if !esManual(ledger.TipoTesoreria, tipo) {
		return nil, ledger.Validacion("tipo %q invalido para tesoreria", req.Tipo)
	}
	return s.postear(ctx, actor, "movimiento_tesoreria", func(tx repository.Tx) (*model.Cuenta, error) {
		cuentas, err := bloquear(ctx, tx, actor.TenantID, cuentaID)
		if err != nil {
			return nil, err
		}
		if cuentas[cuentaID].Tipo != string(ledger.TipoTesoreria) {
			return nil, ledger.ErrNoEncontrado
		}
		return cuentas[cuentaID], nil
	}, asiento{
		Tipo:       tipo,
		Monto:      req.Monto,
		Concepto:   req.Concepto,
		Referencia: req.Referencia,
		Categoria:  req.Categoria,
	})
}

// ── Resumen ───────────────────────────────────────────────────────────────────

func (s *tesoreriaService) Resumen(ctx context.Context, actor Actor) (*dto.ResumenTesoreriaResponse, error) {
	if err := actor.requiere(permiso.TesoreriaVer); err != nil {
		return nil, err
	}
	tesoreria, err := s.store.Cuentas().List(ctx, actor.TenantID, ledger.TipoTesoreria)
	if err != nil {
		return nil, err
	}
	cajas, err := s.store.Cuentas().List(ctx, actor.TenantID, ledger.TipoCaja)
	if err != nil {
		return nil, err
	}

	resp := &dto.ResumenTesoreriaResponse{
		Cuentas:       make([]dto.CuentaResponse, 0, len(tesoreria)),
		TotalPorClase: map[string]decimal.Decimal{},
	}
	for i := range tesoreria {
		c := &tesoreria[i]
		resp.Cuentas = append(resp.Cuentas, cuentaToResponse(c))
		clase := ledger.ClaseOperativa
		if c.Clase != nil {
			clase = *c.Clase
		}
		resp.TotalPorClase[clase] = resp.TotalPorClase[clase].Add(c.Saldo)
		resp.TotalTesoreria = resp.TotalTesoreria.Add(c.Saldo)
	}
	for i := range cajas {
		if cajas[i].Estado == ledger.EstadoAbierta {
			resp.CajasAbiertas = resp.CajasAbiertas.Add(cajas[i].Saldo)
			resp.CantidadCajas++
		}
	}
	if chica, err := s.store.Cuentas().FindCajaChica(ctx, actor.TenantID); err == nil {
		resp.CajaChica = chica.Saldo
	} else if !errors.Is(err, ledger.ErrNoEncontrado) {
		return nil, err
	}
	resp.TotalGeneral = ledger.Sumar(resp.TotalTesoreria, resp.CajaChica, resp.CajasAbiertas)
	return resp, nil
}

// ── Caja chica ────────────────────────────────────────────────────────────────

// CajaChica returns the tenant's petty cash fund, creating it on first use.
func (s *tesoreriaService) CajaChica(ctx context.Context, actor Actor) (*dto.CuentaResponse, error) {
	if err := actor.autenticado(); err != nil {
		return nil, err
	}
	var fondo *model.Cuenta
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		var err error
		fondo, err = asegurarCajaChica(ctx, tx, actor.TenantID, s.reg.reloj)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := cuentaToResponse(fondo)
	return &resp, nil
}

func (s *tesoreriaService) MovimientoCajaChica(ctx context.Context, actor Actor, req dto.MovimientoCajaChicaRequest) (*dto.MovimientoResponse, error) {
	if err := actor.requiere(permiso.CajaChicaOperar); err != nil {
		return nil, err
	}
	tipo := ledger.TipoMovimiento(req.Tipo)
	if !esManual(ledger.TipoCajaChica, tipo) {
		return nil, ledger.Validacion("tipo %q invalido para caja chica", req.Tipo)
	}
	return s.postear(ctx, actor, "movimiento_caja_chica", func(tx repository.Tx) (*model.Cuenta, error) {
		fondo, err := asegurarCajaChica(ctx, tx, actor.TenantID, s.reg.reloj)
		if err != nil {
			return nil, err
		}
		cuentas, err := bloquear(ctx, tx, actor.TenantID, fondo.ID)
		if err != nil {
			return nil, err
		}
		return cuentas[fondo.ID], nil
	}, asiento{
		Tipo:       tipo,
		Monto:      req.Monto,
		Concepto:   req.Concepto,
		Referencia: req.Referencia,
		Categoria:  req.Categoria,
	})
}

// postear locks the ledger chosen by cuenta and records one movement on it.
func (s *tesoreriaService) postear(ctx context.Context, actor Actor, op string, cuenta func(tx repository.Tx) (*model.Cuenta, error), a asiento) (*dto.MovimientoResponse, error) {
	if err := ledger.ValidarMonto(a.Monto); err != nil {
		return nil, rechazo(err, op, actor)
	}
	var mov *model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		c, err := cuenta(tx)
		if err != nil {
			return err
		}
		mov, err = s.reg.registrar(ctx, tx, actor, c, a)
		return err
	})
	if err != nil {
		return nil, rechazo(err, op, actor)
	}
	contar(mov)
	resp := movimientoToResponse(mov)
	return &resp, nil
}

// asegurarCajaChica finds the tenant's petty cash fund or creates it. The
// partial unique index on cuentas(tenant_id) WHERE tipo = 'caja_chica' keeps it a singleton.
func asegurarCajaChica(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, reloj Reloj) (*model.Cuenta, error) {
	fondo, err := tx.Cuentas().FindCajaChica(ctx, tenantID)
	if err == nil {
		return fondo, nil
	}
	if !errors.Is(err, ledger.ErrNoEncontrado) {
		return nil, err
	}
	fondo = &model.Cuenta{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Tipo:      string(ledger.TipoCajaChica),
		Nombre:    "Caja chica",
		Saldo:     decimal.Zero,
		Estado:    ledger.EstadoActiva,
		CreatedAt: reloj.Ahora(),
	}
	if err := tx.Cuentas().Create(ctx, fondo); err != nil {
		return nil, err
	}
	return fondo, nil
}
