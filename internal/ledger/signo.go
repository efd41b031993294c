package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// signos is the single source of truth for how a movement type moves a
// ledger's balance. 0 marks informational entries (non-cash sale tenders on a
// register) that are logged but leave the drawer balance untouched.
var signos = map[Tipo]map[TipoMovimiento]int{
	TipoCaja: {
		MovVenta:                1,
		MovVentaNoEfectivo:      0,
		MovIngreso:              1,
		MovEgreso:               -1,
		MovTransferenciaEntrada: 1,
		MovTransferenciaSalida:  -1,
		MovSobrante:             1,
		MovFaltante:             -1,
	},
	TipoTesoreria: {
		MovRecibido:             1,
		MovPagado:               -1,
		MovTransferenciaEntrada: 1,
		MovTransferenciaSalida:  -1,
	},
	TipoCajaChica: {
		MovIngreso:              1,
		MovGasto:                -1,
		MovTransferenciaEntrada: 1,
		MovTransferenciaSalida:  -1,
	},
	TipoCuentaCorriente: {
		MovCargo:         1,
		MovAjusteDebito:  1,
		MovPago:          -1,
		MovAjusteCredito: -1,
	},
}

// Signo returns +1, -1 or 0 for the (kind, type) pair, or ErrTipoMovimiento
// when the type is not legal on that kind.
func Signo(t Tipo, m TipoMovimiento) (int, error) {
	tabla, ok := signos[t]
	if !ok {
		return 0, fmt.Errorf("tipo de cuenta %q: %w", t, ErrTipoMovimiento)
	}
	s, ok := tabla[m]
	if !ok {
		return 0, fmt.Errorf("movimiento %q no admitido en %q: %w", m, t, ErrTipoMovimiento)
	}
	return s, nil
}

// Aplicar computes the balance after posting monto with type m on a ledger of
// kind t. monto is always positive; direction comes from the type.
func Aplicar(t Tipo, m TipoMovimiento, saldo, monto decimal.Decimal) (decimal.Decimal, error) {
	s, err := Signo(t, m)
	if err != nil {
		return decimal.Zero, err
	}
	switch s {
	case 1:
		return saldo.Add(monto), nil
	case -1:
		return saldo.Sub(monto), nil
	default:
		return saldo, nil
	}
}

// PermiteSaldoNegativo reports whether a ledger kind may go below zero.
// Running accounts represent debt in either direction; every other kind holds
// real money and must never be overdrawn.
func PermiteSaldoNegativo(t Tipo) bool {
	return t == TipoCuentaCorriente
}

// TiposTransferencia returns the outbound and inbound movement types used when
// kind t takes part in a transfer. Running accounts cannot be transferred to or from.
func TiposTransferencia(t Tipo) (salida, entrada TipoMovimiento, ok bool) {
	switch t {
	case TipoCaja, TipoTesoreria, TipoCajaChica:
		return MovTransferenciaSalida, MovTransferenciaEntrada, true
	}
	return "", "", false
}

// TiposAdmitidos lists the movement types legal on kind t.
func TiposAdmitidos(t Tipo) []TipoMovimiento {
	out := make([]TipoMovimiento, 0, len(signos[t]))
	for m := range signos[t] {
		out = append(out, m)
	}
	return out
}
