package service

import (
	"context"
	"testing"

	"tesoreria/internal/dto"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrar_TiposManuales(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "100")
	ctx := context.Background()

	m, err := e.libro.Registrar(ctx, e.admin, tes, dto.MovimientoRequest{Tipo: "pagado", Monto: dec("40"), Concepto: "Alquiler"})
	require.NoError(t, err)
	assertMonto(t, "100", m.SaldoAnterior)
	assertMonto(t, "60", m.SaldoPosterior)

	// Legal on treasury but produced only by transfers
	_, err = e.libro.Registrar(ctx, e.admin, tes, dto.MovimientoRequest{Tipo: "transferencia_entrada", Monto: dec("1"), Concepto: "x"})
	assert.ErrorIs(t, err, ledger.ErrValidacion)
	// Not legal on treasury at all
	_, err = e.libro.Registrar(ctx, e.admin, tes, dto.MovimientoRequest{Tipo: "venta", Monto: dec("1"), Concepto: "x"})
	assert.ErrorIs(t, err, ledger.ErrTipoMovimiento)
	// Over the balance
	_, err = e.libro.Registrar(ctx, e.admin, tes, dto.MovimientoRequest{Tipo: "pagado", Monto: dec("60.01"), Concepto: "x"})
	assert.ErrorIs(t, err, ledger.ErrSaldoInsuficiente)
	// Three decimals
	_, err = e.libro.Registrar(ctx, e.admin, tes, dto.MovimientoRequest{Tipo: "recibido", Monto: dec("1.001"), Concepto: "x"})
	assert.ErrorIs(t, err, ledger.ErrMontoInvalido)
	// Cashiers cannot post on treasury
	_, err = e.libro.Registrar(ctx, e.cajero, tes, dto.MovimientoRequest{Tipo: "recibido", Monto: dec("1"), Concepto: "x"})
	assert.ErrorIs(t, err, ledger.ErrPermisoInsuficiente)

	assertMonto(t, "60", e.saldo(t, tes))
	e.consistente(t, tes)
}

func TestLibroInactivo(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "100")
	ctx := context.Background()
	_, err := e.tes.CambiarEstado(ctx, e.admin, tes, false)
	require.NoError(t, err)

	_, err = e.libro.Registrar(ctx, e.admin, tes, dto.MovimientoRequest{Tipo: "recibido", Monto: dec("1"), Concepto: "x"})
	assert.ErrorIs(t, err, ledger.ErrLibroInactivo)
}

func TestAislamientoPorTenant(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "100")
	ctx := context.Background()
	otro := actorDe(uuid.New(), "administrador")

	_, err := e.libro.Saldo(ctx, otro, tes)
	assert.ErrorIs(t, err, ledger.ErrNoEncontrado)
	_, err = e.libro.Movimientos(ctx, otro, tes, 10)
	assert.ErrorIs(t, err, ledger.ErrNoEncontrado)
	_, err = e.libro.Registrar(ctx, otro, tes, dto.MovimientoRequest{Tipo: "pagado", Monto: dec("1"), Concepto: "x"})
	assert.ErrorIs(t, err, ledger.ErrNoEncontrado)

	// The other tenant's treasury summary does not see it either
	r, err := e.tes.Resumen(ctx, otro)
	require.NoError(t, err)
	assert.Empty(t, r.Cuentas)
	assertMonto(t, "0", r.TotalGeneral)

	sinTenant := Actor{UsuarioID: uuid.New()}
	_, err = e.libro.Saldo(ctx, sinTenant, tes)
	assert.Error(t, err)
}

func TestVerificar_DetectaInconsistencia(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "100")
	ctx := context.Background()
	_, err := e.libro.Registrar(ctx, e.admin, tes, dto.MovimientoRequest{Tipo: "pagado", Monto: dec("30"), Concepto: "Luz"})
	require.NoError(t, err)

	v, err := e.libro.Verificar(ctx, e.admin, tes)
	require.NoError(t, err)
	assert.True(t, v.Consistente)
	assert.Equal(t, 2, v.Movimientos)
	assertMonto(t, "70", v.SaldoReconstruido)

	// Corrupt the cache behind the service's back
	require.NoError(t, e.store.Cuentas().UpdateSaldo(ctx, e.tenant, tes, dec("75")))
	v, err = e.libro.Verificar(ctx, e.admin, tes)
	require.NoError(t, err)
	assert.False(t, v.Consistente)
	assertMonto(t, "75", v.SaldoCache)
	assertMonto(t, "70", v.SaldoReconstruido)
}

func TestReconstruir_Cadena(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	movs := []model.Movimiento{
		{ID: id1, Tipo: "recibido", Monto: dec("100"), SaldoAnterior: decimal.Zero, SaldoPosterior: dec("100")},
		{ID: id2, Tipo: "pagado", Monto: dec("30"), SaldoAnterior: dec("100"), SaldoPosterior: dec("70")},
	}
	saldo, malo := reconstruir(ledger.TipoTesoreria, movs)
	assert.Nil(t, malo)
	assertMonto(t, "70", saldo)

	movs[1].SaldoPosterior = dec("80")
	_, malo = reconstruir(ledger.TipoTesoreria, movs)
	require.NotNil(t, malo)
	assert.Equal(t, id2, *malo)
}

func TestReconstruccion_TrasOperacionesMixtas(t *testing.T) {
	// Every ledger touched by a realistic day stays consistent with its log.
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "5000")
	banco := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTarjetaCredito, "0")
	cc := e.clienteCC(t)
	ctx := context.Background()

	s := e.abrirCaja(t, 1, "1000")
	id := uuid.MustParse(s.ID)
	ccID := cc.String()
	e.venta(t, s.ID, "V-1", efectivo("150"), dto.PagoVentaRequest{Metodo: ledger.MetodoTarjetaCredito, Monto: dec("90")})
	e.venta(t, s.ID, "V-2", dto.PagoVentaRequest{Metodo: ledger.MetodoCuentaCorriente, Monto: dec("60"), CuentaCorrienteID: &ccID})
	_, err := e.caja.Retirar(ctx, e.cajero, id, dto.MovimientoFondosRequest{Destino: "caja_chica", Monto: dec("100")})
	require.NoError(t, err)
	chica, err := e.tes.CajaChica(ctx, e.cajero)
	require.NoError(t, err)
	_, err = e.tes.MovimientoCajaChica(ctx, e.cajero, dto.MovimientoCajaChicaRequest{Tipo: "gasto", Monto: dec("25"), Concepto: "Cafe"})
	require.NoError(t, err)
	_, err = e.caja.Cerrar(ctx, e.cajero, id, dto.CerrarCajaRequest{MontoDeclarado: dec("1040")})
	require.NoError(t, err)

	e.consistente(t, tes, banco, cc, uuid.MustParse(s.CuentaID), uuid.MustParse(chica.ID))
	assertMonto(t, "75", e.saldo(t, uuid.MustParse(chica.ID)))
	assertMonto(t, "90", e.saldo(t, banco))
	// 5000 - 1000 + 1040
	assertMonto(t, "5040", e.saldo(t, tes))
}
