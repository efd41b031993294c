package service

import (
	"context"
	"fmt"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// asiento is one movement to post on one ledger.
type asiento struct {
	Tipo            ledger.TipoMovimiento
	Monto           decimal.Decimal
	Concepto        string
	Referencia      *string
	MetodoPago      *string
	Categoria       *string
	TransferenciaID *string
	ReversionDe     *uuid.UUID
}

// registrador is the only code path that writes movements and balances.
type registrador struct {
	reloj Reloj
}

// registrar appends one movement to cuenta and moves its cached balance in
// the same unit of work. cuenta must be the row locked by FindForUpdate; its
// Saldo is advanced in place so later postings in the same unit see it.
//
// ── Steps ─────────────────────────────────────────────────────────────────────
//  1. amount > 0 with at most two decimals
//  2. ledger accepting movements (active / open)
//  3. type legal for the ledger kind, sign from ledger.Signo
//  4. non-negativity for every kind except running accounts
//  5. insert movement, update balance cache
func (r registrador) registrar(ctx context.Context, tx repository.Tx, actor Actor, cuenta *model.Cuenta, a asiento) (*model.Movimiento, error) {
	if err := ledger.ValidarMonto(a.Monto); err != nil {
		return nil, err
	}
	if cuenta.TenantID != actor.TenantID {
		return nil, ledger.ErrNoEncontrado
	}
	tipo := ledger.Tipo(cuenta.Tipo)
	if err := ledger.VerificarActiva(tipo, cuenta.Estado); err != nil {
		return nil, err
	}
	if a.Concepto == "" {
		return nil, ledger.Validacion("concepto requerido")
	}

	antes := cuenta.Saldo
	despues, err := ledger.Aplicar(tipo, a.Tipo, antes, a.Monto)
	if err != nil {
		return nil, err
	}
	if despues.IsNegative() && !ledger.PermiteSaldoNegativo(tipo) {
		return nil, fmt.Errorf("%s %s: saldo %s, monto %s: %w",
			cuenta.Tipo, cuenta.Nombre, antes.StringFixed(ledger.Escala), a.Monto.StringFixed(ledger.Escala), ledger.ErrSaldoInsuficiente)
	}

	mov := &model.Movimiento{
		ID:              uuid.New(),
		TenantID:        actor.TenantID,
		CuentaID:        cuenta.ID,
		UsuarioID:       actor.UsuarioID,
		TipoCuenta:      cuenta.Tipo,
		Tipo:            string(a.Tipo),
		MetodoPago:      a.MetodoPago,
		Categoria:       a.Categoria,
		Monto:           a.Monto,
		Concepto:        a.Concepto,
		Referencia:      a.Referencia,
		TransferenciaID: a.TransferenciaID,
		ReversionDe:     a.ReversionDe,
		SaldoAnterior:   antes,
		SaldoPosterior:  despues,
		CreatedAt:       r.reloj.Ahora(),
	}
	if err := tx.Movimientos().Create(ctx, mov); err != nil {
		return nil, fmt.Errorf("insertar movimiento: %w", err)
	}
	if !despues.Equal(antes) {
		if err := tx.Cuentas().UpdateSaldo(ctx, actor.TenantID, cuenta.ID, despues); err != nil {
			return nil, fmt.Errorf("actualizar saldo: %w", err)
		}
	}
	cuenta.Saldo = despues
	return mov, nil
}

// bloquear locks every given ledger of the tenant in ascending id order.
func bloquear(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*model.Cuenta, error) {
	return tx.Cuentas().FindForUpdate(ctx, tenantID, ids...)
}
