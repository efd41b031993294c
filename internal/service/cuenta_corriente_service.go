package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tesoreria/internal/dto"
	"tesoreria/internal/eventos"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CuentaCorrienteService handles customer and supplier running accounts:
// charges, payments and the allocation of payments to charges.
type CuentaCorrienteService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearCuentaCorrienteRequest) (*dto.CuentaResponse, error)
	CambiarEstado(ctx context.Context, actor Actor, cuentaID uuid.UUID, activa bool) (*dto.CuentaResponse, error)
	RegistrarCargo(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.RegistrarCargoRequest) (*dto.CargoResponse, error)
	RegistrarPago(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error)
	AnularCargo(ctx context.Context, actor Actor, cargoID uuid.UUID, req dto.AnularCargoRequest) (*dto.CargoResponse, error)
	CambiarDisputa(ctx context.Context, actor Actor, cargoID uuid.UUID, enDisputa bool) (*dto.CargoResponse, error)
	ListarCargos(ctx context.Context, actor Actor, cuentaID uuid.UUID, soloPendientes bool) ([]dto.CargoResponse, error)
}

type cuentaCorrienteService struct {
	store   repository.Store
	reg     registrador
	eventos eventos.Publicador
}

func NewCuentaCorrienteService(store repository.Store, pub eventos.Publicador, reloj Reloj) CuentaCorrienteService {
	return &cuentaCorrienteService{store: store, reg: registrador{reloj: reloj}, eventos: pub}
}

// ── Alta y estado ─────────────────────────────────────────────────────────────

func (s *cuentaCorrienteService) Crear(ctx context.Context, actor Actor, req dto.CrearCuentaCorrienteRequest) (*dto.CuentaResponse, error) {
	if err := actor.requiere(permiso.CuentaCorrienteGestionar); err != nil {
		return nil, err
	}
	if req.TitularTipo != ledger.TitularCliente && req.TitularTipo != ledger.TitularProveedor {
		return nil, ledger.Validacion("titular_tipo %q invalido", req.TitularTipo)
	}
	titularID, err := parseID(req.TitularID, "titular_id")
	if err != nil {
		return nil, err
	}
	titularTipo := req.TitularTipo
	cuenta := &model.Cuenta{
		ID:          uuid.New(),
		TenantID:    actor.TenantID,
		Tipo:        string(ledger.TipoCuentaCorriente),
		Nombre:      req.Nombre,
		TitularTipo: &titularTipo,
		TitularID:   &titularID,
		Saldo:       decimal.Zero,
		Estado:      ledger.EstadoActiva,
		CreatedAt:   s.reg.reloj.Ahora(),
	}
	err = s.store.Do(ctx, func(tx repository.Tx) error {
		_, err := tx.Cuentas().FindPorTitular(ctx, actor.TenantID, titularTipo, titularID)
		if err == nil {
			return ledger.Validacion("el %s ya tiene cuenta corriente", titularTipo)
		}
		if !errors.Is(err, ledger.ErrNoEncontrado) {
			return err
		}
		return tx.Cuentas().Create(ctx, cuenta)
	})
	if err != nil {
		return nil, rechazo(err, "crear_cuenta_corriente", actor)
	}
	resp := cuentaToResponse(cuenta)
	return &resp, nil
}

func (s *cuentaCorrienteService) CambiarEstado(ctx context.Context, actor Actor, cuentaID uuid.UUID, activa bool) (*dto.CuentaResponse, error) {
	if err := actor.requiere(permiso.CuentaCorrienteGestionar); err != nil {
		return nil, err
	}
	estado := ledger.EstadoInactiva
	if activa {
		estado = ledger.EstadoActiva
	}
	var cuenta *model.Cuenta
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		var err error
		cuenta, err = s.bloquearCuenta(ctx, tx, actor, cuentaID)
		if err != nil {
			return err
		}
		cuenta.Estado = estado
		return tx.Cuentas().UpdateEstado(ctx, actor.TenantID, cuentaID, estado)
	})
	if err != nil {
		return nil, rechazo(err, "estado_cuenta_corriente", actor)
	}
	resp := cuentaToResponse(cuenta)
	return &resp, nil
}

// ── Cargos ────────────────────────────────────────────────────────────────────

func (s *cuentaCorrienteService) RegistrarCargo(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.RegistrarCargoRequest) (*dto.CargoResponse, error) {
	if err := actor.requiere(permiso.CuentaCorrienteGestionar); err != nil {
		return nil, err
	}
	if err := ledger.ValidarMonto(req.Monto); err != nil {
		return nil, rechazo(err, "registrar_cargo", actor)
	}
	var cargo *model.Cargo
	var mov *model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		cuenta, err := s.bloquearCuenta(ctx, tx, actor, cuentaID)
		if err != nil {
			return err
		}
		cargo, mov, err = cargarCuenta(ctx, tx, s.reg, actor, cuenta, req.Monto, req.Concepto, req.Comprobante)
		if err != nil {
			return err
		}
		cargo.Vencimiento = req.Vencimiento
		return tx.Cargos().Update(ctx, cargo)
	})
	if err != nil {
		return nil, rechazo(err, "registrar_cargo", actor)
	}
	contar(mov)
	emitir(ctx, s.eventos, actor, eventos.CargoRegistrado, map[string]any{
		"cuenta_id": cuentaID.String(),
		"cargo_id":  cargo.ID.String(),
		"monto":     cargo.Monto.StringFixed(ledger.Escala),
	})
	resp := cargoToResponse(cargo)
	return &resp, nil
}

// cargarCuenta posts a CHARGE movement and the charge row it backs. cuenta must be locked.
func cargarCuenta(ctx context.Context, tx repository.Tx, reg registrador, actor Actor, cuenta *model.Cuenta, monto decimal.Decimal, concepto string, comprobante *string) (*model.Cargo, *model.Movimiento, error) {
	mov, err := reg.registrar(ctx, tx, actor, cuenta, asiento{
		Tipo:       ledger.MovCargo,
		Monto:      monto,
		Concepto:   concepto,
		Referencia: comprobante,
	})
	if err != nil {
		return nil, nil, err
	}
	cargo := &model.Cargo{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		CuentaID:     cuenta.ID,
		MovimientoID: mov.ID,
		Concepto:     concepto,
		Comprobante:  comprobante,
		Monto:        monto,
		MontoPagado:  decimal.Zero,
		Estado:       ledger.CargoPendiente,
		CreatedAt:    reg.reloj.Ahora(),
	}
	if err := tx.Cargos().Create(ctx, cargo); err != nil {
		return nil, nil, err
	}
	return cargo, mov, nil
}

// AnularCargo cancels an unpaid charge with a compensating credit adjustment.
// Charges that already received an allocation cannot be cancelled.
func (s *cuentaCorrienteService) AnularCargo(ctx context.Context, actor Actor, cargoID uuid.UUID, req dto.AnularCargoRequest) (*dto.CargoResponse, error) {
	if err := actor.requiere(permiso.CuentaCorrienteGestionar); err != nil {
		return nil, err
	}
	var cargo *model.Cargo
	var mov *model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		previo, err := tx.Cargos().FindByID(ctx, actor.TenantID, cargoID)
		if err != nil {
			return err
		}
		cuenta, err := s.bloquearCuenta(ctx, tx, actor, previo.CuentaID)
		if err != nil {
			return err
		}
		cargos, err := tx.Cargos().FindForUpdate(ctx, actor.TenantID, cuenta.ID, cargoID)
		if err != nil {
			return err
		}
		cargo = cargos[cargoID]
		if cargo.Estado == ledger.CargoAnulado {
			return ledger.ErrCargoNoImputable
		}
		if cargo.MontoPagado.IsPositive() {
			return ledger.ErrCargoConPagos
		}
		origen := cargo.MovimientoID
		mov, err = s.reg.registrar(ctx, tx, actor, cuenta, asiento{
			Tipo:        ledger.MovAjusteCredito,
			Monto:       cargo.Monto,
			Concepto:    fmt.Sprintf("Anulacion de cargo: %s", req.Motivo),
			Referencia:  cargo.Comprobante,
			ReversionDe: &origen,
		})
		if err != nil {
			return err
		}
		cargo.Estado = ledger.CargoAnulado
		return tx.Cargos().Update(ctx, cargo)
	})
	if err != nil {
		return nil, rechazo(err, "anular_cargo", actor)
	}
	contar(mov)
	resp := cargoToResponse(cargo)
	return &resp, nil
}

// CambiarDisputa puts an open charge on hold or releases it. Disputed charges
// do not accept allocations.
func (s *cuentaCorrienteService) CambiarDisputa(ctx context.Context, actor Actor, cargoID uuid.UUID, enDisputa bool) (*dto.CargoResponse, error) {
	if err := actor.requiere(permiso.CuentaCorrienteGestionar); err != nil {
		return nil, err
	}
	var cargo *model.Cargo
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		previo, err := tx.Cargos().FindByID(ctx, actor.TenantID, cargoID)
		if err != nil {
			return err
		}
		cargos, err := tx.Cargos().FindForUpdate(ctx, actor.TenantID, previo.CuentaID, cargoID)
		if err != nil {
			return err
		}
		cargo = cargos[cargoID]
		switch {
		case enDisputa && (cargo.Estado == ledger.CargoPendiente || cargo.Estado == ledger.CargoParcial):
			cargo.Estado = ledger.CargoEnDisputa
		case !enDisputa && cargo.Estado == ledger.CargoEnDisputa:
			cargo.Estado = estadoPorPagos(cargo)
		default:
			return ledger.ErrCargoNoImputable
		}
		return tx.Cargos().Update(ctx, cargo)
	})
	if err != nil {
		return nil, rechazo(err, "disputa_cargo", actor)
	}
	resp := cargoToResponse(cargo)
	return &resp, nil
}

func (s *cuentaCorrienteService) ListarCargos(ctx context.Context, actor Actor, cuentaID uuid.UUID, soloPendientes bool) ([]dto.CargoResponse, error) {
	if err := actor.autenticado(); err != nil {
		return nil, err
	}
	c, err := s.store.Cuentas().FindByID(ctx, actor.TenantID, cuentaID)
	if err != nil {
		return nil, err
	}
	if c.Tipo != string(ledger.TipoCuentaCorriente) {
		return nil, ledger.ErrNoEncontrado
	}
	cargos, err := s.store.Cargos().ListByCuenta(ctx, actor.TenantID, cuentaID, soloPendientes)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CargoResponse, 0, len(cargos))
	for i := range cargos {
		out = append(out, cargoToResponse(&cargos[i]))
	}
	return out, nil
}

// ── RegistrarPago ─────────────────────────────────────────────────────────────
// One unit of work:
//  1. PAGO movement on the running account
//  2. per allocation: bump monto_pagado, recompute pagado/estado, insert imputacion
//  3. per tender instrument: one movement on the treasury account mapped to it
//     (recibido for customers, pagado for suppliers)
// Whatever is not allocated stays as free balance on the account.

type imputacion struct {
	cargoID uuid.UUID
	monto   decimal.Decimal
}

type instrumento struct {
	metodo    string
	monto     decimal.Decimal
	tesoreria *uuid.UUID
}

func (s *cuentaCorrienteService) RegistrarPago(ctx context.Context, actor Actor, cuentaID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error) {
	if err := actor.requiere(permiso.PagoRegistrar); err != nil {
		return nil, err
	}
	imps, instrumentos, err := validarPago(req)
	if err != nil {
		return nil, rechazo(err, "registrar_pago", actor)
	}

	resp := &dto.PagoResponse{
		Imputaciones:         []dto.ImputacionResponse{},
		MovimientosTesoreria: []dto.MovimientoResponse{},
	}
	var posteados []*model.Movimiento
	var cuenta *model.Cuenta
	err = s.store.Do(ctx, func(tx repository.Tx) error {
		previa, err := tx.Cuentas().FindByID(ctx, actor.TenantID, cuentaID)
		if err != nil {
			return err
		}
		if previa.Tipo != string(ledger.TipoCuentaCorriente) {
			return ledger.ErrNoEncontrado
		}
		destinos, err := resolverTesoreria(ctx, tx, actor.TenantID, instrumentos)
		if err != nil {
			return err
		}

		bloqueo := []uuid.UUID{cuentaID}
		for _, id := range destinos {
			bloqueo = append(bloqueo, id)
		}
		cuentas, err := bloquear(ctx, tx, actor.TenantID, bloqueo...)
		if err != nil {
			return err
		}
		cuenta = cuentas[cuentaID]

		var cargos map[uuid.UUID]*model.Cargo
		if len(imps) > 0 {
			cargoIDs := make([]uuid.UUID, 0, len(imps))
			for _, imp := range imps {
				cargoIDs = append(cargoIDs, imp.cargoID)
			}
			cargos, err = tx.Cargos().FindForUpdate(ctx, actor.TenantID, cuentaID, cargoIDs...)
			if err != nil {
				return err
			}
		}

		pago, err := s.reg.registrar(ctx, tx, actor, cuenta, asiento{
			Tipo:       ledger.MovPago,
			Monto:      req.Monto,
			Concepto:   req.Concepto,
			Referencia: req.Referencia,
		})
		if err != nil {
			return err
		}
		posteados = append(posteados, pago)
		resp.Movimiento = movimientoToResponse(pago)

		ahora := s.reg.reloj.Ahora()
		for _, imp := range imps {
			cargo := cargos[imp.cargoID]
			if err := imputar(cargo, imp.monto, ahora); err != nil {
				return err
			}
			if err := tx.Cargos().Update(ctx, cargo); err != nil {
				return err
			}
			if err := tx.Cargos().CreateImputacion(ctx, &model.Imputacion{
				ID:               uuid.New(),
				TenantID:         actor.TenantID,
				PagoMovimientoID: pago.ID,
				CargoID:          cargo.ID,
				Monto:            imp.monto,
				CreatedAt:        ahora,
			}); err != nil {
				return err
			}
			resp.MontoImputado = resp.MontoImputado.Add(imp.monto)
			resp.Imputaciones = append(resp.Imputaciones, dto.ImputacionResponse{
				CargoID:     cargo.ID.String(),
				Monto:       imp.monto,
				SaldoCargo:  cargo.Saldo(),
				EstadoCargo: cargo.Estado,
			})
		}

		tipoTesoreria := ledger.MovRecibido
		if cuenta.TitularTipo != nil && *cuenta.TitularTipo == ledger.TitularProveedor {
			tipoTesoreria = ledger.MovPagado
		}
		for i, inst := range instrumentos {
			destinoID, ok := destinos[i]
			if !ok {
				continue
			}
			destino := cuentas[destinoID]
			metodo := inst.metodo
			mov, err := s.reg.registrar(ctx, tx, actor, destino, asiento{
				Tipo:       tipoTesoreria,
				Monto:      inst.monto,
				Concepto:   fmt.Sprintf("%s: %s", cuenta.Nombre, req.Concepto),
				Referencia: req.Referencia,
				MetodoPago: &metodo,
			})
			if err != nil {
				return err
			}
			posteados = append(posteados, mov)
			resp.MovimientosTesoreria = append(resp.MovimientosTesoreria, movimientoToResponse(mov))
		}
		return nil
	})
	if err != nil {
		return nil, rechazo(err, "registrar_pago", actor)
	}

	resp.MontoNoImputado = req.Monto.Sub(resp.MontoImputado)
	resp.SaldoCuenta = cuenta.Saldo
	contar(posteados...)
	datos := map[string]any{
		"cuenta_id":     cuentaID.String(),
		"movimiento_id": resp.Movimiento.ID,
		"monto":         req.Monto.StringFixed(ledger.Escala),
		"imputado":      resp.MontoImputado.StringFixed(ledger.Escala),
	}
	if req.FechaPago != nil {
		datos["fecha_pago"] = req.FechaPago.Format("2006-01-02")
	}
	emitir(ctx, s.eventos, actor, eventos.PagoRegistrado, datos)
	return resp, nil
}

// validarPago checks everything that does not need stored state, so a bad
// request is rejected before the unit of work starts.
func validarPago(req dto.RegistrarPagoRequest) ([]imputacion, []instrumento, error) {
	if err := ledger.ValidarMonto(req.Monto); err != nil {
		return nil, nil, err
	}
	if req.Concepto == "" {
		return nil, nil, ledger.Validacion("concepto requerido")
	}

	imps := make([]imputacion, 0, len(req.Imputaciones))
	vistos := map[uuid.UUID]bool{}
	total := decimal.Zero
	for _, r := range req.Imputaciones {
		id, err := parseID(r.CargoID, "cargo_id")
		if err != nil {
			return nil, nil, err
		}
		if vistos[id] {
			return nil, nil, ledger.Validacion("cargo %s imputado dos veces", id)
		}
		vistos[id] = true
		if err := ledger.ValidarMonto(r.Monto); err != nil {
			return nil, nil, err
		}
		total = total.Add(r.Monto)
		imps = append(imps, imputacion{cargoID: id, monto: r.Monto})
	}
	if total.GreaterThan(req.Monto) {
		return nil, nil, fmt.Errorf("imputado %s, pago %s: %w",
			total.StringFixed(ledger.Escala), req.Monto.StringFixed(ledger.Escala), ledger.ErrImputacionExcedePago)
	}

	insts := make([]instrumento, 0, len(req.Pagos))
	suma := decimal.Zero
	for _, p := range req.Pagos {
		if !metodoValido(p.Metodo) {
			return nil, nil, ledger.Validacion("metodo de pago %q invalido", p.Metodo)
		}
		if err := ledger.ValidarMonto(p.Monto); err != nil {
			return nil, nil, err
		}
		inst := instrumento{metodo: p.Metodo, monto: p.Monto}
		if p.CuentaTesoreriaID != nil {
			id, err := parseID(*p.CuentaTesoreriaID, "cuenta_tesoreria_id")
			if err != nil {
				return nil, nil, err
			}
			inst.tesoreria = &id
		}
		suma = suma.Add(p.Monto)
		insts = append(insts, inst)
	}
	if len(insts) > 0 && !suma.Equal(req.Monto) {
		return nil, nil, ledger.Validacion("los instrumentos suman %s y el pago es %s",
			suma.StringFixed(ledger.Escala), req.Monto.StringFixed(ledger.Escala))
	}
	return imps, insts, nil
}

// resolverTesoreria maps each instrument index to the treasury account it
// settles into. Running-account tender is never posted to treasury. Cash
// resolves like register funding does; any other instrument without a mapped
// account is left out, as sale settlement does.
func resolverTesoreria(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, insts []instrumento) (map[int]uuid.UUID, error) {
	out := make(map[int]uuid.UUID, len(insts))
	for i, inst := range insts {
		if inst.metodo == ledger.MetodoCuentaCorriente {
			continue
		}
		if inst.tesoreria != nil {
			c, err := tx.Cuentas().FindByID(ctx, tenantID, *inst.tesoreria)
			if err != nil {
				return nil, err
			}
			if c.Tipo != string(ledger.TipoTesoreria) {
				return nil, ledger.Validacion("la cuenta %s no es de tesoreria", c.ID)
			}
			out[i] = c.ID
			continue
		}
		var c *model.Cuenta
		var err error
		if inst.metodo == ledger.MetodoEfectivo {
			c, err = tx.Cuentas().FindTesoreriaEfectivo(ctx, tenantID)
		} else {
			c, err = tx.Cuentas().FindTesoreriaPorMetodo(ctx, tenantID, inst.metodo)
		}
		if errors.Is(err, ledger.ErrNoEncontrado) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[i] = c.ID
	}
	return out, nil
}

// imputar applies one allocation to a locked charge.
func imputar(cargo *model.Cargo, monto decimal.Decimal, ahora time.Time) error {
	if cargo.Estado == ledger.CargoAnulado || cargo.Estado == ledger.CargoEnDisputa {
		return fmt.Errorf("cargo %s %s: %w", cargo.ID, cargo.Estado, ledger.ErrCargoNoImputable)
	}
	if monto.GreaterThan(cargo.Saldo()) {
		return fmt.Errorf("cargo %s saldo %s, imputacion %s: %w",
			cargo.ID, cargo.Saldo().StringFixed(ledger.Escala), monto.StringFixed(ledger.Escala), ledger.ErrImputacionExcedeSaldo)
	}
	cargo.MontoPagado = cargo.MontoPagado.Add(monto)
	eraPagado := cargo.Pagado
	cargo.Pagado = cargo.MontoPagado.GreaterThanOrEqual(cargo.Monto)
	cargo.Estado = estadoPorPagos(cargo)
	if cargo.Pagado && !eraPagado {
		t := ahora
		cargo.PagadoAt = &t
	}
	return nil
}

func estadoPorPagos(c *model.Cargo) string {
	switch {
	case c.MontoPagado.GreaterThanOrEqual(c.Monto):
		return ledger.CargoPagado
	case c.MontoPagado.IsPositive():
		return ledger.CargoParcial
	default:
		return ledger.CargoPendiente
	}
}

func metodoValido(m string) bool {
	for _, x := range ledger.MetodosPago {
		if x == m {
			return true
		}
	}
	return false
}

// bloquearCuenta locks one running account of the tenant.
func (s *cuentaCorrienteService) bloquearCuenta(ctx context.Context, tx repository.Tx, actor Actor, cuentaID uuid.UUID) (*model.Cuenta, error) {
	cuentas, err := bloquear(ctx, tx, actor.TenantID, cuentaID)
	if err != nil {
		return nil, err
	}
	c := cuentas[cuentaID]
	if c.Tipo != string(ledger.TipoCuentaCorriente) {
		return nil, ledger.ErrNoEncontrado
	}
	return c, nil
}
