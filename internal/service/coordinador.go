package service

import (
	"context"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// transferencia describes a movement of value between two ledgers.
// Both ledgers must already be locked by the caller.
type transferencia struct {
	ID         string
	Origen     *model.Cuenta
	Destino    *model.Cuenta
	Monto      decimal.Decimal
	Concepto   string
	Referencia *string
	// Set only on compensating transfers.
	ReversionSalida  *uuid.UUID
	ReversionEntrada *uuid.UUID
}

type resultadoTransferencia struct {
	ID      string
	Salida  *model.Movimiento
	Entrada *model.Movimiento
}

// coordinador posts the two halves of a transfer through the registrador.
// It never opens its own unit of work: a failure on either side is returned
// and the caller's Do rolls back both.
type coordinador struct {
	reg registrador
}

func (c coordinador) transferir(ctx context.Context, tx repository.Tx, actor Actor, t transferencia) (*resultadoTransferencia, error) {
	if t.Origen.ID == t.Destino.ID {
		return nil, ledger.Validacion("origen y destino deben ser cuentas distintas")
	}
	salida, _, ok := ledger.TiposTransferencia(ledger.Tipo(t.Origen.Tipo))
	if !ok {
		return nil, ledger.Validacion("una cuenta %s no puede transferir fondos", t.Origen.Tipo)
	}
	_, entrada, ok := ledger.TiposTransferencia(ledger.Tipo(t.Destino.Tipo))
	if !ok {
		return nil, ledger.Validacion("una cuenta %s no puede recibir transferencias", t.Destino.Tipo)
	}
	id := t.ID

	out, err := c.reg.registrar(ctx, tx, actor, t.Origen, asiento{
		Tipo:            salida,
		Monto:           t.Monto,
		Concepto:        t.Concepto,
		Referencia:      t.Referencia,
		TransferenciaID: &id,
		ReversionDe:     t.ReversionSalida,
	})
	if err != nil {
		return nil, err
	}
	in, err := c.reg.registrar(ctx, tx, actor, t.Destino, asiento{
		Tipo:            entrada,
		Monto:           t.Monto,
		Concepto:        t.Concepto,
		Referencia:      t.Referencia,
		TransferenciaID: &id,
		ReversionDe:     t.ReversionEntrada,
	})
	if err != nil {
		return nil, err
	}
	return &resultadoTransferencia{ID: id, Salida: out, Entrada: in}, nil
}
