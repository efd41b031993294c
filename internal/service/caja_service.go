package service

import (
	"context"
	"errors"
	"fmt"

	"tesoreria/internal/dto"
	"tesoreria/internal/eventos"
	"tesoreria/internal/ids"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CajaService interface {
	Abrir(ctx context.Context, actor Actor, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	RegistrarVenta(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaRegistradaResponse, error)
	RegistrarMovimiento(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error)
	Retirar(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoFondosRequest) (*dto.TransferenciaResponse, error)
	Depositar(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoFondosRequest) (*dto.TransferenciaResponse, error)
	Cerrar(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.ReporteCajaResponse, error)
	ObtenerReporte(ctx context.Context, actor Actor, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
	GetActiva(ctx context.Context, actor Actor, puntoDeVenta int) (*dto.SesionCajaResponse, error)
	Historial(ctx context.Context, actor Actor, limit int) ([]dto.SesionCajaResponse, error)
}

// ColaReportes receives the closing report once the close has committed.
type ColaReportes interface {
	EnqueueReporteCierre(ctx context.Context, job dto.ReporteCierreJob) error
}

type cajaService struct {
	store   repository.Store
	reg     registrador
	coord   coordinador
	eventos eventos.Publicador
	cola    ColaReportes
}

// NewCajaService wires the register lifecycle. cola may be nil, in which case
// closing reports are not generated.
func NewCajaService(store repository.Store, pub eventos.Publicador, cola ColaReportes, reloj Reloj) CajaService {
	reg := registrador{reloj: reloj}
	return &cajaService{
		store:   store,
		reg:     reg,
		coord:   coordinador{reg: reg},
		eventos: pub,
		cola:    cola,
	}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// Creates the register ledger and its session, then moves the opening float
// from treasury into the drawer. One open register per punto de venta.

func (s *cajaService) Abrir(ctx context.Context, actor Actor, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if err := actor.requiere(permiso.CajaOperar); err != nil {
		return nil, err
	}
	if err := ledger.ValidarMontoNoNegativo(req.MontoInicial); err != nil {
		return nil, rechazo(err, "abrir_caja", actor)
	}
	pdv := req.PuntoDeVenta
	if pdv == 0 {
		pdv = 1
	}
	var explicita *uuid.UUID
	if req.CuentaTesoreriaID != nil {
		id, err := parseID(*req.CuentaTesoreriaID, "cuenta_tesoreria_id")
		if err != nil {
			return nil, err
		}
		explicita = &id
	}

	var sesion *model.SesionCaja
	var caja *model.Cuenta
	var res *resultadoTransferencia
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		_, err := tx.Sesiones().FindAbiertaPorPDV(ctx, actor.TenantID, pdv)
		if err == nil {
			return ledger.ErrCajaYaAbierta
		}
		if !errors.Is(err, ledger.ErrNoEncontrado) {
			return err
		}
		tes, err := tesoreriaEfectivo(ctx, tx, actor.TenantID, explicita)
		if err != nil {
			return err
		}

		ahora := s.reg.reloj.Ahora()
		caja = &model.Cuenta{
			ID:        uuid.New(),
			TenantID:  actor.TenantID,
			Tipo:      string(ledger.TipoCaja),
			Nombre:    fmt.Sprintf("Caja PDV %d", pdv),
			Saldo:     decimal.Zero,
			Estado:    ledger.EstadoAbierta,
			CreatedAt: ahora,
		}
		if err := tx.Cuentas().Create(ctx, caja); err != nil {
			return err
		}
		sesion = &model.SesionCaja{
			ID:                uuid.New(),
			TenantID:          actor.TenantID,
			CuentaID:          caja.ID,
			PuntoDeVenta:      pdv,
			UsuarioID:         actor.UsuarioID,
			MontoInicial:      req.MontoInicial,
			CuentaTesoreriaID: tes.ID,
			Estado:            ledger.EstadoAbierta,
			Observaciones:     req.Observaciones,
			OpenedAt:          ahora,
		}
		trfID := ids.Transferencia()
		if req.MontoInicial.IsPositive() {
			sesion.TransferenciaApertura = &trfID
		}
		if err := tx.Sesiones().Create(ctx, sesion); err != nil {
			return err
		}
		if !req.MontoInicial.IsPositive() {
			return nil
		}

		cuentas, err := bloquear(ctx, tx, actor.TenantID, tes.ID, caja.ID)
		if err != nil {
			return err
		}
		caja = cuentas[caja.ID]
		res, err = s.coord.transferir(ctx, tx, actor, transferencia{
			ID:       trfID,
			Origen:   cuentas[tes.ID],
			Destino:  caja,
			Monto:    req.MontoInicial,
			Concepto: fmt.Sprintf("Apertura de caja PDV %d", pdv),
		})
		return err
	})
	if err != nil {
		return nil, rechazo(err, "abrir_caja", actor)
	}

	if res != nil {
		contar(res.Salida, res.Entrada)
	}
	emitir(ctx, s.eventos, actor, eventos.CajaAbierta, map[string]any{
		"sesion_id":      sesion.ID.String(),
		"punto_de_venta": pdv,
		"monto_inicial":  req.MontoInicial.StringFixed(ledger.Escala),
	})
	resp := sesionToResponse(sesion, caja.Saldo)
	return &resp, nil
}

// tesoreriaEfectivo resolves the treasury account that funds and receives the
// drawer's cash: the explicit one, else the one mapped to efectivo, else the
// oldest active efectivo-class account.
func tesoreriaEfectivo(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, explicita *uuid.UUID) (*model.Cuenta, error) {
	if explicita != nil {
		c, err := tx.Cuentas().FindByID(ctx, tenantID, *explicita)
		if err != nil {
			return nil, err
		}
		if c.Tipo != string(ledger.TipoTesoreria) {
			return nil, ledger.Validacion("la cuenta %s no es de tesoreria", c.ID)
		}
		return c, nil
	}
	c, err := tx.Cuentas().FindTesoreriaEfectivo(ctx, tenantID)
	if errors.Is(err, ledger.ErrNoEncontrado) {
		return nil, ledger.Validacion("no hay una cuenta de tesoreria de efectivo activa")
	}
	return c, err
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Settles an already-priced sale: one movement per tender on the register.
// Cash moves the drawer; other instruments are informational on the register
// and land immediately in the treasury account mapped to them, if any. Tender
// on a customer running account becomes a charge there.

func (s *cajaService) RegistrarVenta(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaRegistradaResponse, error) {
	if err := actor.requiere(permiso.CajaOperar); err != nil {
		return nil, err
	}
	if req.Referencia == "" {
		return nil, ledger.Validacion("referencia requerida")
	}
	if len(req.Pagos) == 0 {
		return nil, ledger.Validacion("la venta requiere al menos un pago")
	}
	corrientes := make(map[int]uuid.UUID)
	for i, p := range req.Pagos {
		if !metodoValido(p.Metodo) {
			return nil, ledger.Validacion("metodo de pago %q invalido", p.Metodo)
		}
		if err := ledger.ValidarMonto(p.Monto); err != nil {
			return nil, rechazo(err, "registrar_venta", actor)
		}
		if p.Metodo == ledger.MetodoCuentaCorriente && p.CuentaCorrienteID != nil {
			id, err := parseID(*p.CuentaCorrienteID, "cuenta_corriente_id")
			if err != nil {
				return nil, err
			}
			corrientes[i] = id
		}
	}

	ref := req.Referencia
	concepto := fmt.Sprintf("Venta %s", ref)
	resp := &dto.VentaRegistradaResponse{Referencia: ref}
	var posteados []*model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		sesion, err := tx.Sesiones().FindByID(ctx, actor.TenantID, sesionID)
		if err != nil {
			return err
		}
		if sesion.Estado != ledger.EstadoAbierta {
			return ledger.ErrCajaCerrada
		}

		bloqueo := []uuid.UUID{sesion.CuentaID}
		tesoreria := make(map[int]uuid.UUID)
		for i, p := range req.Pagos {
			switch p.Metodo {
			case ledger.MetodoEfectivo:
			case ledger.MetodoCuentaCorriente:
				if id, ok := corrientes[i]; ok {
					bloqueo = append(bloqueo, id)
				}
			default:
				c, err := tx.Cuentas().FindTesoreriaPorMetodo(ctx, actor.TenantID, p.Metodo)
				if errors.Is(err, ledger.ErrNoEncontrado) {
					continue
				}
				if err != nil {
					return err
				}
				tesoreria[i] = c.ID
				bloqueo = append(bloqueo, c.ID)
			}
		}
		cuentas, err := bloquear(ctx, tx, actor.TenantID, bloqueo...)
		if err != nil {
			return err
		}
		caja := cuentas[sesion.CuentaID]

		for i, p := range req.Pagos {
			metodo := p.Metodo
			tipo := ledger.MovVentaNoEfectivo
			if metodo == ledger.MetodoEfectivo {
				tipo = ledger.MovVenta
			}
			mov, err := s.reg.registrar(ctx, tx, actor, caja, asiento{
				Tipo:       tipo,
				Monto:      p.Monto,
				Concepto:   concepto,
				Referencia: &ref,
				MetodoPago: &metodo,
			})
			if err != nil {
				return err
			}
			posteados = append(posteados, mov)

			if id, ok := tesoreria[i]; ok {
				mov, err := s.reg.registrar(ctx, tx, actor, cuentas[id], asiento{
					Tipo:       ledger.MovRecibido,
					Monto:      p.Monto,
					Concepto:   fmt.Sprintf("%s (PDV %d)", concepto, sesion.PuntoDeVenta),
					Referencia: &ref,
					MetodoPago: &metodo,
				})
				if err != nil {
					return err
				}
				posteados = append(posteados, mov)
			}
			if id, ok := corrientes[i]; ok {
				cc := cuentas[id]
				if cc.Tipo != string(ledger.TipoCuentaCorriente) {
					return ledger.Validacion("la cuenta %s no es una cuenta corriente", id)
				}
				_, mov, err := cargarCuenta(ctx, tx, s.reg, actor, cc, p.Monto, concepto, &ref)
				if err != nil {
					return err
				}
				posteados = append(posteados, mov)
			}
		}
		resp.Saldo = caja.Saldo
		return nil
	})
	if err != nil {
		return nil, rechazo(err, "registrar_venta", actor)
	}
	contar(posteados...)
	resp.Movimientos = movimientosToResponse(posteados)
	return resp, nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Manual ingreso / egreso. Movements are immutable: no Update, no Delete.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error) {
	if err := actor.requiere(permiso.CajaOperar); err != nil {
		return nil, err
	}
	tipo := ledger.TipoMovimiento(req.Tipo)
	if !esManual(ledger.TipoCaja, tipo) {
		return nil, ledger.Validacion("tipo %q invalido para caja", req.Tipo)
	}
	if err := ledger.ValidarMonto(req.Monto); err != nil {
		return nil, rechazo(err, "movimiento_caja", actor)
	}
	var mov *model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		caja, err := s.cajaAbierta(ctx, tx, actor, sesionID)
		if err != nil {
			return err
		}
		mov, err = s.reg.registrar(ctx, tx, actor, caja, asiento{
			Tipo:       tipo,
			Monto:      req.Monto,
			Concepto:   req.Motivo,
			Referencia: req.Referencia,
			Categoria:  req.Categoria,
		})
		return err
	})
	if err != nil {
		return nil, rechazo(err, "movimiento_caja", actor)
	}
	contar(mov)
	resp := movimientoToResponse(mov)
	return &resp, nil
}

// cajaAbierta loads the session and locks its register ledger.
func (s *cajaService) cajaAbierta(ctx context.Context, tx repository.Tx, actor Actor, sesionID uuid.UUID) (*model.Cuenta, error) {
	sesion, err := tx.Sesiones().FindByID(ctx, actor.TenantID, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Estado != ledger.EstadoAbierta {
		return nil, ledger.ErrCajaCerrada
	}
	cuentas, err := bloquear(ctx, tx, actor.TenantID, sesion.CuentaID)
	if err != nil {
		return nil, err
	}
	return cuentas[sesion.CuentaID], nil
}

// ── Retirar / Depositar ───────────────────────────────────────────────────────
// Mid-session cash movements between the drawer and treasury or petty cash.
// Both go through the transfer coordinator so they are ordinary transfers.

func (s *cajaService) Retirar(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoFondosRequest) (*dto.TransferenciaResponse, error) {
	return s.moverFondos(ctx, actor, sesionID, req.Destino, req, true)
}

func (s *cajaService) Depositar(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.MovimientoFondosRequest) (*dto.TransferenciaResponse, error) {
	return s.moverFondos(ctx, actor, sesionID, req.Origen, req, false)
}

func (s *cajaService) moverFondos(ctx context.Context, actor Actor, sesionID uuid.UUID, contraparte string, req dto.MovimientoFondosRequest, retiro bool) (*dto.TransferenciaResponse, error) {
	op := "deposito_caja"
	if retiro {
		op = "retiro_caja"
	}
	if err := actor.requiere(permiso.CajaOperar); err != nil {
		return nil, err
	}
	if contraparte == "" {
		contraparte = string(ledger.TipoTesoreria)
	}
	if contraparte != string(ledger.TipoTesoreria) && contraparte != string(ledger.TipoCajaChica) {
		return nil, ledger.Validacion("contraparte %q invalida", contraparte)
	}
	if err := ledger.ValidarMonto(req.Monto); err != nil {
		return nil, rechazo(err, op, actor)
	}
	var explicita *uuid.UUID
	if req.CuentaID != nil {
		id, err := parseID(*req.CuentaID, "cuenta_id")
		if err != nil {
			return nil, err
		}
		explicita = &id
	}

	var res *resultadoTransferencia
	var origen, destino *model.Cuenta
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		sesion, err := tx.Sesiones().FindByID(ctx, actor.TenantID, sesionID)
		if err != nil {
			return err
		}
		if sesion.Estado != ledger.EstadoAbierta {
			return ledger.ErrCajaCerrada
		}

		var otraID uuid.UUID
		if contraparte == string(ledger.TipoCajaChica) {
			fondo, err := asegurarCajaChica(ctx, tx, actor.TenantID, s.reg.reloj)
			if err != nil {
				return err
			}
			otraID = fondo.ID
		} else {
			if explicita == nil {
				explicita = &sesion.CuentaTesoreriaID
			}
			tes, err := tesoreriaEfectivo(ctx, tx, actor.TenantID, explicita)
			if err != nil {
				return err
			}
			otraID = tes.ID
		}

		cuentas, err := bloquear(ctx, tx, actor.TenantID, sesion.CuentaID, otraID)
		if err != nil {
			return err
		}
		origen, destino = cuentas[otraID], cuentas[sesion.CuentaID]
		concepto := fmt.Sprintf("Deposito en caja PDV %d", sesion.PuntoDeVenta)
		if retiro {
			origen, destino = destino, origen
			concepto = fmt.Sprintf("Retiro de caja PDV %d", sesion.PuntoDeVenta)
		}
		if req.Notas != nil && *req.Notas != "" {
			concepto = *req.Notas
		}
		res, err = s.coord.transferir(ctx, tx, actor, transferencia{
			ID:       ids.Transferencia(),
			Origen:   origen,
			Destino:  destino,
			Monto:    req.Monto,
			Concepto: concepto,
		})
		return err
	})
	if err != nil {
		return nil, rechazo(err, op, actor)
	}
	contar(res.Salida, res.Entrada)
	emitir(ctx, s.eventos, actor, eventos.TransferenciaRealizada, map[string]any{
		"transferencia_id": res.ID,
		"origen_id":        origen.ID.String(),
		"destino_id":       destino.ID.String(),
		"monto":            req.Monto.StringFixed(ledger.Escala),
		"sesion_id":        sesionID.String(),
	})
	return transferenciaToResponse(res, origen.Saldo, destino.Saldo, nil), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Blind count: the expected figure is computed only after the declaration is
// received. The difference is recorded and classified, never corrected. The
// drawer ledger is aligned with the counted cash through a sobrante/faltante
// movement, the counted cash is swept to treasury and the register is closed
// for good.

func (s *cajaService) Cerrar(ctx context.Context, actor Actor, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.ReporteCajaResponse, error) {
	if err := actor.requiere(permiso.CajaCerrar); err != nil {
		return nil, err
	}
	declarado := req.MontoDeclarado
	if err := ledger.ValidarMontoNoNegativo(declarado); err != nil {
		return nil, rechazo(err, "cerrar_caja", actor)
	}

	var rep *dto.ReporteCajaResponse
	var sesion *model.SesionCaja
	var posteados []*model.Movimiento
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		var err error
		sesion, err = tx.Sesiones().FindByIDForUpdate(ctx, actor.TenantID, sesionID)
		if err != nil {
			return err
		}
		if sesion.Estado != ledger.EstadoAbierta {
			return ledger.ErrCajaCerrada
		}
		cuentas, err := bloquear(ctx, tx, actor.TenantID, sesion.CuentaID, sesion.CuentaTesoreriaID)
		if err != nil {
			return err
		}
		caja, tes := cuentas[sesion.CuentaID], cuentas[sesion.CuentaTesoreriaID]

		totales, err := tx.Movimientos().Totales(ctx, actor.TenantID, caja.ID)
		if err != nil {
			return err
		}
		rep = resumirCaja(sesion, totales)
		esperado := rep.MontoEsperado
		desvio := declarado.Sub(esperado)
		pct := porcentajeDesvio(desvio, esperado)
		clasificacion := clasificarDesvio(pct)

		ajuste := declarado.Sub(caja.Saldo)
		if !ajuste.IsZero() {
			tipo, concepto := ledger.MovSobrante, "Sobrante de arqueo"
			if ajuste.IsNegative() {
				tipo, concepto = ledger.MovFaltante, "Faltante de arqueo"
			}
			mov, err := s.reg.registrar(ctx, tx, actor, caja, asiento{
				Tipo:     tipo,
				Monto:    ajuste.Abs(),
				Concepto: concepto,
			})
			if err != nil {
				return err
			}
			posteados = append(posteados, mov)
		}
		if declarado.IsPositive() {
			res, err := s.coord.transferir(ctx, tx, actor, transferencia{
				ID:       ids.Transferencia(),
				Origen:   caja,
				Destino:  tes,
				Monto:    declarado,
				Concepto: fmt.Sprintf("Cierre de caja PDV %d", sesion.PuntoDeVenta),
			})
			if err != nil {
				return err
			}
			posteados = append(posteados, res.Salida, res.Entrada)
			sesion.TransferenciaCierre = &res.ID
		}
		if err := tx.Cuentas().UpdateEstado(ctx, actor.TenantID, caja.ID, ledger.EstadoCerrada); err != nil {
			return err
		}
		caja.Estado = ledger.EstadoCerrada

		ahora := s.reg.reloj.Ahora()
		usuario := actor.UsuarioID
		sesion.MontoEsperado = &esperado
		sesion.MontoDeclarado = &declarado
		sesion.Desvio = &desvio
		sesion.DesvioPct = &pct
		sesion.ClasificacionDesvio = &clasificacion
		sesion.ObservacionesCierre = req.Observaciones
		sesion.UsuarioCierreID = &usuario
		sesion.Estado = ledger.EstadoCerrada
		sesion.ClosedAt = &ahora
		if err := tx.Sesiones().Update(ctx, sesion); err != nil {
			return err
		}

		rep.Sesion = sesionToResponse(sesion, caja.Saldo)
		rep.MontoDeclarado = sesion.MontoDeclarado
		rep.Desvio = desvioResponse(sesion)
		return nil
	})
	if err != nil {
		return nil, rechazo(err, "cerrar_caja", actor)
	}

	contar(posteados...)
	if rep.Desvio.Clasificacion == desvioCritico {
		log.Warn().
			Str("tenant_id", actor.TenantID.String()).
			Str("sesion_id", sesionID.String()).
			Str("desvio", rep.Desvio.Monto.StringFixed(ledger.Escala)).
			Msg("cierre de caja con desvio critico")
	}
	emitir(ctx, s.eventos, actor, eventos.CajaCerrada, map[string]any{
		"sesion_id":       sesionID.String(),
		"punto_de_venta":  sesion.PuntoDeVenta,
		"monto_esperado":  rep.MontoEsperado.StringFixed(ledger.Escala),
		"monto_declarado": declarado.StringFixed(ledger.Escala),
		"desvio":          rep.Desvio.Monto.StringFixed(ledger.Escala),
		"clasificacion":   rep.Desvio.Clasificacion,
	})
	if s.cola != nil {
		job := dto.ReporteCierreJob{
			TenantID:  actor.TenantID.String(),
			UsuarioID: actor.UsuarioID.String(),
			Reporte:   *rep,
		}
		if err := s.cola.EnqueueReporteCierre(ctx, job); err != nil {
			log.Error().Err(err).Str("sesion_id", sesionID.String()).Msg("reporte de cierre no encolado")
		}
	}
	return rep, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) ObtenerReporte(ctx context.Context, actor Actor, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	if err := actor.requiere(permiso.CajaOperar); err != nil {
		return nil, err
	}
	sesion, err := s.store.Sesiones().FindByID(ctx, actor.TenantID, sesionID)
	if err != nil {
		return nil, err
	}
	caja, err := s.store.Cuentas().FindByID(ctx, actor.TenantID, sesion.CuentaID)
	if err != nil {
		return nil, err
	}
	totales, err := s.store.Movimientos().Totales(ctx, actor.TenantID, caja.ID)
	if err != nil {
		return nil, err
	}
	rep := resumirCaja(sesion, totales)
	rep.Sesion = sesionToResponse(sesion, caja.Saldo)
	return rep, nil
}

func (s *cajaService) GetActiva(ctx context.Context, actor Actor, puntoDeVenta int) (*dto.SesionCajaResponse, error) {
	if err := actor.requiere(permiso.CajaOperar); err != nil {
		return nil, err
	}
	if puntoDeVenta == 0 {
		puntoDeVenta = 1
	}
	sesion, err := s.store.Sesiones().FindAbiertaPorPDV(ctx, actor.TenantID, puntoDeVenta)
	if err != nil {
		return nil, err
	}
	caja, err := s.store.Cuentas().FindByID(ctx, actor.TenantID, sesion.CuentaID)
	if err != nil {
		return nil, err
	}
	resp := sesionToResponse(sesion, caja.Saldo)
	return &resp, nil
}

func (s *cajaService) Historial(ctx context.Context, actor Actor, limit int) ([]dto.SesionCajaResponse, error) {
	if err := actor.requiere(permiso.CajaOperar); err != nil {
		return nil, err
	}
	sesiones, err := s.store.Sesiones().List(ctx, actor.TenantID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		saldo := decimal.Zero
		if c, err := s.store.Cuentas().FindByID(ctx, actor.TenantID, sesiones[i].CuentaID); err == nil {
			saldo = c.Saldo
		}
		out = append(out, sesionToResponse(&sesiones[i], saldo))
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

const (
	desvioNormal      = "normal"
	desvioAdvertencia = "advertencia"
	desvioCritico     = "critico"
)

// clasificarDesvio returns "normal" | "advertencia" | "critico"
// normal: |desvio| <= 1%, advertencia: <= 5%, critico: > 5%
func clasificarDesvio(pct decimal.Decimal) string {
	abs := pct.Abs()
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case abs.LessThanOrEqual(one):
		return desvioNormal
	case abs.LessThanOrEqual(five):
		return desvioAdvertencia
	default:
		return desvioCritico
	}
}

// porcentajeDesvio is desvio over esperado, in percent. With nothing expected
// any difference counts as 100%.
func porcentajeDesvio(desvio, esperado decimal.Decimal) decimal.Decimal {
	cien := decimal.NewFromInt(100)
	switch {
	case desvio.IsZero():
		return decimal.Zero
	case esperado.IsZero() && desvio.IsNegative():
		return cien.Neg()
	case esperado.IsZero():
		return cien
	}
	return desvio.Div(esperado).Mul(cien).Round(2)
}

// resumirCaja builds the closing figures from the register's movement totals.
// Only ingreso/egreso count as incomes and expenses; transfers in beyond the
// opening float are deposits and transfers out are withdrawals.
func resumirCaja(sesion *model.SesionCaja, totales []repository.TotalMovimiento) *dto.ReporteCajaResponse {
	r := &dto.ReporteCajaResponse{
		DesglosePagos:       dto.DesglosePagos{},
		EgresosPorCategoria: map[string]decimal.Decimal{},
	}
	for _, m := range ledger.MetodosPago {
		r.DesglosePagos[m] = decimal.Zero
	}
	entradas, salidas := decimal.Zero, decimal.Zero
	for _, t := range totales {
		switch ledger.TipoMovimiento(t.Tipo) {
		case ledger.MovVenta, ledger.MovVentaNoEfectivo:
			metodo := t.MetodoPago
			if metodo == "" {
				metodo = ledger.MetodoEfectivo
				if ledger.TipoMovimiento(t.Tipo) == ledger.MovVentaNoEfectivo {
					metodo = ledger.MetodoOtro
				}
			}
			r.DesglosePagos[metodo] = r.DesglosePagos[metodo].Add(t.Monto)
			r.VentasTotal = r.VentasTotal.Add(t.Monto)
		case ledger.MovIngreso:
			r.Ingresos = r.Ingresos.Add(t.Monto)
		case ledger.MovEgreso:
			r.Egresos = r.Egresos.Add(t.Monto)
			if t.Categoria != "" {
				r.EgresosPorCategoria[t.Categoria] = r.EgresosPorCategoria[t.Categoria].Add(t.Monto)
			}
		case ledger.MovTransferenciaEntrada:
			entradas = entradas.Add(t.Monto)
		case ledger.MovTransferenciaSalida:
			salidas = salidas.Add(t.Monto)
		}
	}
	r.VentasEfectivo = r.DesglosePagos[ledger.MetodoEfectivo]
	r.Depositos = entradas.Sub(sesion.MontoInicial)
	r.Retiros = salidas
	if sesion.TransferenciaCierre != nil && sesion.MontoDeclarado != nil {
		r.Retiros = salidas.Sub(*sesion.MontoDeclarado)
	}
	r.MontoEsperado = ledger.Sumar(sesion.MontoInicial, r.VentasEfectivo, r.Ingresos, r.Depositos).
		Sub(r.Egresos).
		Sub(r.Retiros)
	if sesion.MontoEsperado != nil {
		r.MontoEsperado = *sesion.MontoEsperado
	}
	r.MontoDeclarado = sesion.MontoDeclarado
	r.Desvio = desvioResponse(sesion)
	return r
}

func desvioResponse(s *model.SesionCaja) *dto.DesvioResponse {
	if s.Desvio == nil || s.DesvioPct == nil || s.ClasificacionDesvio == nil {
		return nil
	}
	return &dto.DesvioResponse{
		Monto:         *s.Desvio,
		Porcentaje:    *s.DesvioPct,
		Clasificacion: *s.ClasificacionDesvio,
	}
}

func sesionToResponse(s *model.SesionCaja, saldo decimal.Decimal) dto.SesionCajaResponse {
	r := dto.SesionCajaResponse{
		ID:                    s.ID.String(),
		CuentaID:              s.CuentaID.String(),
		PuntoDeVenta:          s.PuntoDeVenta,
		UsuarioID:             s.UsuarioID.String(),
		Estado:                s.Estado,
		MontoInicial:          s.MontoInicial,
		Saldo:                 saldo,
		CuentaTesoreriaID:     s.CuentaTesoreriaID.String(),
		MontoEsperado:         s.MontoEsperado,
		MontoDeclarado:        s.MontoDeclarado,
		Desvio:                desvioResponse(s),
		TransferenciaApertura: s.TransferenciaApertura,
		TransferenciaCierre:   s.TransferenciaCierre,
		Observaciones:         s.Observaciones,
		ObservacionesCierre:   s.ObservacionesCierre,
		OpenedAt:              s.OpenedAt.Format(formatoFecha),
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(formatoFecha)
		r.ClosedAt = &t
	}
	return r
}
