package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var todosLosTipos = []TipoMovimiento{
	MovVenta, MovVentaNoEfectivo, MovIngreso, MovEgreso, MovSobrante, MovFaltante,
	MovGasto, MovRecibido, MovPagado, MovTransferenciaEntrada, MovTransferenciaSalida,
	MovCargo, MovPago, MovAjusteDebito, MovAjusteCredito,
}

// Every (kind, type) pair is listed here; pairs not present must be rejected.
var signosEsperados = map[Tipo]map[TipoMovimiento]int{
	TipoCaja: {
		MovVenta: 1, MovVentaNoEfectivo: 0, MovIngreso: 1, MovEgreso: -1,
		MovTransferenciaEntrada: 1, MovTransferenciaSalida: -1, MovSobrante: 1, MovFaltante: -1,
	},
	TipoTesoreria: {
		MovRecibido: 1, MovPagado: -1, MovTransferenciaEntrada: 1, MovTransferenciaSalida: -1,
	},
	TipoCajaChica: {
		MovIngreso: 1, MovGasto: -1, MovTransferenciaEntrada: 1, MovTransferenciaSalida: -1,
	},
	TipoCuentaCorriente: {
		MovCargo: 1, MovAjusteDebito: 1, MovPago: -1, MovAjusteCredito: -1,
	},
}

func TestSigno_TablaCompleta(t *testing.T) {
	for tipo, esperados := range signosEsperados {
		for _, mov := range todosLosTipos {
			s, err := Signo(tipo, mov)
			want, legal := esperados[mov]
			if !legal {
				assert.ErrorIs(t, err, ErrTipoMovimiento, "%s/%s debe rechazarse", tipo, mov)
				continue
			}
			require.NoError(t, err, "%s/%s", tipo, mov)
			assert.Equal(t, want, s, "%s/%s", tipo, mov)
		}
	}
}

func TestSigno_TipoCuentaDesconocido(t *testing.T) {
	_, err := Signo(Tipo("inventario"), MovIngreso)
	assert.True(t, errors.Is(err, ErrTipoMovimiento))
}

func TestAplicar(t *testing.T) {
	saldo := decimal.NewFromInt(1000)
	monto := decimal.NewFromInt(200)

	after, err := Aplicar(TipoCaja, MovVenta, saldo, monto)
	require.NoError(t, err)
	assert.Equal(t, "1200", after.String())

	after, err = Aplicar(TipoCaja, MovVentaNoEfectivo, saldo, monto)
	require.NoError(t, err)
	assert.Equal(t, "1000", after.String())

	after, err = Aplicar(TipoTesoreria, MovPagado, saldo, monto)
	require.NoError(t, err)
	assert.Equal(t, "800", after.String())

	after, err = Aplicar(TipoCuentaCorriente, MovPago, decimal.Zero, monto)
	require.NoError(t, err)
	assert.Equal(t, "-200", after.String())
}

func TestPermiteSaldoNegativo(t *testing.T) {
	assert.True(t, PermiteSaldoNegativo(TipoCuentaCorriente))
	assert.False(t, PermiteSaldoNegativo(TipoCaja))
	assert.False(t, PermiteSaldoNegativo(TipoTesoreria))
	assert.False(t, PermiteSaldoNegativo(TipoCajaChica))
}

func TestTiposTransferencia(t *testing.T) {
	for _, tipo := range []Tipo{TipoCaja, TipoTesoreria, TipoCajaChica} {
		salida, entrada, ok := TiposTransferencia(tipo)
		require.True(t, ok)
		sOut, _ := Signo(tipo, salida)
		sIn, _ := Signo(tipo, entrada)
		assert.Equal(t, -1, sOut)
		assert.Equal(t, 1, sIn)
	}
	_, _, ok := TiposTransferencia(TipoCuentaCorriente)
	assert.False(t, ok)
}

func TestValidarMonto(t *testing.T) {
	assert.NoError(t, ValidarMonto(decimal.RequireFromString("0.01")))
	assert.ErrorIs(t, ValidarMonto(decimal.Zero), ErrMontoInvalido)
	assert.ErrorIs(t, ValidarMonto(decimal.NewFromInt(-5)), ErrMontoInvalido)
	assert.ErrorIs(t, ValidarMonto(decimal.RequireFromString("1.005")), ErrMontoInvalido)

	assert.NoError(t, ValidarMontoNoNegativo(decimal.Zero))
	assert.ErrorIs(t, ValidarMontoNoNegativo(decimal.NewFromInt(-1)), ErrMontoInvalido)
}

func TestVerificarActiva(t *testing.T) {
	assert.NoError(t, VerificarActiva(TipoCaja, EstadoAbierta))
	assert.ErrorIs(t, VerificarActiva(TipoCaja, EstadoCerrada), ErrCajaCerrada)
	assert.NoError(t, VerificarActiva(TipoTesoreria, EstadoActiva))
	assert.ErrorIs(t, VerificarActiva(TipoTesoreria, EstadoInactiva), ErrLibroInactivo)
	assert.ErrorIs(t, VerificarActiva(TipoCuentaCorriente, EstadoInactiva), ErrCuentaInactiva)
}

func TestMotivo(t *testing.T) {
	assert.Equal(t, "saldo_insuficiente", Motivo(ErrSaldoInsuficiente))
	assert.Equal(t, "validacion", Motivo(Validacion("campo %s", "x")))
	assert.Equal(t, "interno", Motivo(errors.New("conexion rechazada")))
	assert.False(t, EsDominio(errors.New("conexion rechazada")))
}
