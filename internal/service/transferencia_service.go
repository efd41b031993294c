package service

import (
	"context"
	"fmt"

	"tesoreria/internal/dto"
	"tesoreria/internal/eventos"
	"tesoreria/internal/ids"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferenciaService interface {
	Transferir(ctx context.Context, actor Actor, req dto.TransferenciaRequest) (*dto.TransferenciaResponse, error)
	Anular(ctx context.Context, actor Actor, transferenciaID string) (*dto.TransferenciaResponse, error)
	Obtener(ctx context.Context, actor Actor, transferenciaID string) (*dto.TransferenciaResponse, error)
}

type transferenciaService struct {
	store   repository.Store
	coord   coordinador
	reloj   Reloj
	eventos eventos.Publicador
}

func NewTransferenciaService(store repository.Store, pub eventos.Publicador, reloj Reloj) TransferenciaService {
	return &transferenciaService{
		store:   store,
		coord:   coordinador{reg: registrador{reloj: reloj}},
		reloj:   reloj,
		eventos: pub,
	}
}

// ── Transferir ────────────────────────────────────────────────────────────────

func (s *transferenciaService) Transferir(ctx context.Context, actor Actor, req dto.TransferenciaRequest) (*dto.TransferenciaResponse, error) {
	if err := actor.requiere(permiso.TransferenciaCrear); err != nil {
		return nil, err
	}
	origenID, err := parseID(req.OrigenID, "origen_id")
	if err != nil {
		return nil, err
	}
	destinoID, err := parseID(req.DestinoID, "destino_id")
	if err != nil {
		return nil, err
	}
	monto := req.Monto
	if err := ledger.ValidarMonto(monto); err != nil {
		return nil, err
	}
	concepto := "Transferencia entre cuentas"
	if req.Notas != nil && *req.Notas != "" {
		concepto = *req.Notas
	}

	var res *resultadoTransferencia
	var origen, destino *model.Cuenta
	err = s.store.Do(ctx, func(tx repository.Tx) error {
		cuentas, err := bloquear(ctx, tx, actor.TenantID, origenID, destinoID)
		if err != nil {
			return err
		}
		origen, destino = cuentas[origenID], cuentas[destinoID]
		res, err = s.coord.transferir(ctx, tx, actor, transferencia{
			ID:       ids.Transferencia(),
			Origen:   origen,
			Destino:  destino,
			Monto:    monto,
			Concepto: concepto,
		})
		return err
	})
	if err != nil {
		return nil, rechazo(err, "transferir", actor)
	}

	contar(res.Salida, res.Entrada)
	emitir(ctx, s.eventos, actor, eventos.TransferenciaRealizada, map[string]any{
		"transferencia_id": res.ID,
		"origen_id":        origenID.String(),
		"destino_id":       destinoID.String(),
		"monto":            monto.StringFixed(ledger.Escala),
	})
	return transferenciaToResponse(res, origen.Saldo, destino.Saldo, nil), nil
}

// ── Anular ────────────────────────────────────────────────────────────────────
// A void is a new transfer in the opposite direction, id VOID-<original>, whose
// movements point back at the originals through reversion_de. The original
// pair is never touched.

func (s *transferenciaService) Anular(ctx context.Context, actor Actor, transferenciaID string) (*dto.TransferenciaResponse, error) {
	if err := actor.requiere(permiso.TransferenciaAnular); err != nil {
		return nil, rechazo(err, "anular_transferencia", actor)
	}
	if ids.EsAnulacion(transferenciaID) {
		return nil, rechazo(ledger.ErrTransferenciaAnulada, "anular_transferencia", actor)
	}
	voidID := ids.Anulacion(transferenciaID)

	var res *resultadoTransferencia
	var origen, destino *model.Cuenta
	err := s.store.Do(ctx, func(tx repository.Tx) error {
		salida, entrada, err := parTransferencia(ctx, tx, actor.TenantID, transferenciaID)
		if err != nil {
			return err
		}
		if !s.reloj.MismoDia(salida.CreatedAt, s.reloj.Ahora()) && !actor.Permisos.Tiene(permiso.TransferenciaAnularFueraDePlazo) {
			return ledger.ErrFueraDePlazo
		}

		cuentas, err := bloquear(ctx, tx, actor.TenantID, salida.CuentaID, entrada.CuentaID)
		if err != nil {
			return err
		}
		// Checked after locking both ledgers so two concurrent voids serialize here.
		previas, err := tx.Movimientos().FindByTransferencia(ctx, actor.TenantID, voidID)
		if err != nil {
			return err
		}
		if len(previas) > 0 {
			return ledger.ErrTransferenciaAnulada
		}

		origen, destino = cuentas[entrada.CuentaID], cuentas[salida.CuentaID]
		res, err = s.coord.transferir(ctx, tx, actor, transferencia{
			ID:               voidID,
			Origen:           origen,
			Destino:          destino,
			Monto:            salida.Monto,
			Concepto:         fmt.Sprintf("Anulacion de %s", transferenciaID),
			ReversionSalida:  &entrada.ID,
			ReversionEntrada: &salida.ID,
		})
		return err
	})
	if err != nil {
		return nil, rechazo(err, "anular_transferencia", actor)
	}

	contar(res.Salida, res.Entrada)
	emitir(ctx, s.eventos, actor, eventos.TransferenciaAnulada, map[string]any{
		"transferencia_id": transferenciaID,
		"anulacion_id":     res.ID,
		"monto":            res.Salida.Monto.StringFixed(ledger.Escala),
	})
	return transferenciaToResponse(res, origen.Saldo, destino.Saldo, nil), nil
}

// ── Obtener ───────────────────────────────────────────────────────────────────

func (s *transferenciaService) Obtener(ctx context.Context, actor Actor, transferenciaID string) (*dto.TransferenciaResponse, error) {
	if err := actor.autenticado(); err != nil {
		return nil, err
	}
	tx := s.store
	salida, entrada, err := parTransferencia(ctx, tx, actor.TenantID, transferenciaID)
	if err != nil {
		return nil, err
	}
	var anuladaPor *string
	if !ids.EsAnulacion(transferenciaID) {
		voids, err := tx.Movimientos().FindByTransferencia(ctx, actor.TenantID, ids.Anulacion(transferenciaID))
		if err != nil {
			return nil, err
		}
		if len(voids) > 0 {
			anuladaPor = strPtr(ids.Anulacion(transferenciaID))
		}
	}
	res := &resultadoTransferencia{ID: transferenciaID, Salida: salida, Entrada: entrada}
	return transferenciaToResponse(res, salida.SaldoPosterior, entrada.SaldoPosterior, anuladaPor), nil
}

// parTransferencia loads the two halves of a transfer. Anything other than
// exactly one outbound and one inbound movement is reported as not found.
func parTransferencia(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, transferenciaID string) (salida, entrada *model.Movimiento, err error) {
	movs, err := tx.Movimientos().FindByTransferencia(ctx, tenantID, transferenciaID)
	if err != nil {
		return nil, nil, err
	}
	if len(movs) != 2 {
		return nil, nil, fmt.Errorf("transferencia %s: %w", transferenciaID, ledger.ErrNoEncontrado)
	}
	for i := range movs {
		switch ledger.TipoMovimiento(movs[i].Tipo) {
		case ledger.MovTransferenciaSalida:
			salida = &movs[i]
		case ledger.MovTransferenciaEntrada:
			entrada = &movs[i]
		}
	}
	if salida == nil || entrada == nil {
		return nil, nil, fmt.Errorf("transferencia %s incompleta: %w", transferenciaID, ledger.ErrNoEncontrado)
	}
	return salida, entrada, nil
}

func transferenciaToResponse(res *resultadoTransferencia, saldoOrigen, saldoDestino decimal.Decimal, anuladaPor *string) *dto.TransferenciaResponse {
	return &dto.TransferenciaResponse{
		TransferenciaID:   res.ID,
		MovimientoOrigen:  movimientoToResponse(res.Salida),
		MovimientoDestino: movimientoToResponse(res.Entrada),
		SaldoOrigen:       saldoOrigen,
		SaldoDestino:      saldoDestino,
		AnuladaPor:        anuladaPor,
	}
}
