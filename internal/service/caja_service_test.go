package service

import (
	"context"
	"testing"

	"tesoreria/internal/dto"
	"tesoreria/internal/eventos"
	"tesoreria/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Apertura ──────────────────────────────────────────────────────────────────

func TestAbrirCaja_TransfiereDesdeTesoreria(t *testing.T) {
	// Scenario A: treasury 5000, opening 1000 → treasury 4000, register 1000
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "5000")

	s := e.abrirCaja(t, 1, "1000")

	assert.Equal(t, ledger.EstadoAbierta, s.Estado)
	assert.Equal(t, 1, s.PuntoDeVenta)
	assertMonto(t, "1000", s.Saldo)
	require.NotNil(t, s.TransferenciaApertura)
	assert.Equal(t, tes.String(), s.CuentaTesoreriaID)
	assertMonto(t, "4000", e.saldo(t, tes))
	assertMonto(t, "1000", e.saldo(t, uuid.MustParse(s.CuentaID)))
	e.consistente(t, tes, uuid.MustParse(s.CuentaID))
	assert.Contains(t, e.pub.Tipos(), eventos.CajaAbierta)
}

func TestAbrirCaja_MontoCeroSinTransferencia(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "5000")

	s := e.abrirCaja(t, 0, "0")

	assert.Equal(t, 1, s.PuntoDeVenta, "punto de venta por defecto")
	assert.Nil(t, s.TransferenciaApertura)
	assertMonto(t, "5000", e.saldo(t, tes))
}

func TestAbrirCaja_Duplicada(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "5000")
	e.abrirCaja(t, 1, "1000")

	_, err := e.caja.Abrir(context.Background(), e.cajero, dto.AbrirCajaRequest{PuntoDeVenta: 1, MontoInicial: dec("500")})
	assert.ErrorIs(t, err, ledger.ErrCajaYaAbierta)
	assertMonto(t, "4000", e.saldo(t, tes))

	// Another punto de venta is independent
	e.abrirCaja(t, 2, "500")
	assertMonto(t, "3500", e.saldo(t, tes))
}

func TestAbrirCaja_TesoreriaInsuficiente(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "300")

	_, err := e.caja.Abrir(context.Background(), e.cajero, dto.AbrirCajaRequest{PuntoDeVenta: 1, MontoInicial: dec("1000")})
	assert.ErrorIs(t, err, ledger.ErrSaldoInsuficiente)
	assertMonto(t, "300", e.saldo(t, tes))

	// Nothing was left behind: the same punto de venta can still be opened
	_, err = e.caja.GetActiva(context.Background(), e.cajero, 1)
	assert.ErrorIs(t, err, ledger.ErrNoEncontrado)
	e.abrirCaja(t, 1, "300")
}

func TestAbrirCaja_SinTesoreriaEfectivo(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.caja.Abrir(context.Background(), e.cajero, dto.AbrirCajaRequest{PuntoDeVenta: 1, MontoInicial: dec("100")})
	assert.ErrorIs(t, err, ledger.ErrValidacion)
}

// ── Cierre ────────────────────────────────────────────────────────────────────

func TestCerrarCaja_SinDesvio(t *testing.T) {
	// Scenario B: sale 200 cash, counted 1200 → expected 1200, difference 0, treasury 5200
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "1000")
	e.venta(t, s.ID, "V-0001", efectivo("200"))

	rep, err := e.caja.Cerrar(context.Background(), e.cajero, uuid.MustParse(s.ID), dto.CerrarCajaRequest{MontoDeclarado: dec("1200")})
	require.NoError(t, err)

	assertMonto(t, "200", rep.DesglosePagos[ledger.MetodoEfectivo])
	assertMonto(t, "200", rep.VentasEfectivo)
	assertMonto(t, "0", rep.Ingresos)
	assertMonto(t, "0", rep.Egresos)
	assertMonto(t, "1200", rep.MontoEsperado)
	require.NotNil(t, rep.Desvio)
	assertMonto(t, "0", rep.Desvio.Monto)
	assert.Equal(t, "normal", rep.Desvio.Clasificacion)
	assert.Equal(t, ledger.EstadoCerrada, rep.Sesion.Estado)
	require.NotNil(t, rep.Sesion.TransferenciaCierre)

	assertMonto(t, "5200", e.saldo(t, tes))
	assertMonto(t, "0", e.saldo(t, uuid.MustParse(s.CuentaID)))
	e.consistente(t, tes, uuid.MustParse(s.CuentaID))

	require.Len(t, e.cola.jobs, 1)
	assert.Equal(t, s.ID, e.cola.jobs[0].Reporte.Sesion.ID)
	assert.Contains(t, e.pub.Tipos(), eventos.CajaCerrada)
}

func TestCerrarCaja_Faltante(t *testing.T) {
	// Scenario C: expected 1200, counted 1150 → difference -50, sweep 1150
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "1000")
	e.venta(t, s.ID, "V-0001", efectivo("200"))

	rep, err := e.caja.Cerrar(context.Background(), e.cajero, uuid.MustParse(s.ID), dto.CerrarCajaRequest{MontoDeclarado: dec("1150")})
	require.NoError(t, err)

	assertMonto(t, "1200", rep.MontoEsperado)
	assertMonto(t, "-50", rep.Desvio.Monto)
	// -50 / 1200 = -4.17% → advertencia
	assertMonto(t, "-4.17", rep.Desvio.Porcentaje)
	assert.Equal(t, "advertencia", rep.Desvio.Clasificacion)
	assertMonto(t, "5150", e.saldo(t, tes))

	movs, err := e.libro.Movimientos(context.Background(), e.admin, uuid.MustParse(s.CuentaID), 0)
	require.NoError(t, err)
	var faltante *dto.MovimientoResponse
	for i := range movs {
		if movs[i].Tipo == string(ledger.MovFaltante) {
			faltante = &movs[i]
		}
	}
	require.NotNil(t, faltante, "el faltante queda registrado en el libro de la caja")
	assertMonto(t, "50", faltante.Monto)
	e.consistente(t, tes, uuid.MustParse(s.CuentaID))
}

func TestCerrarCaja_SobranteCritico(t *testing.T) {
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "1000")

	// Expected 1000, counted 1100 → +10% → critico, notes are optional
	rep, err := e.caja.Cerrar(context.Background(), e.cajero, uuid.MustParse(s.ID), dto.CerrarCajaRequest{MontoDeclarado: dec("1100")})
	require.NoError(t, err)
	assert.Equal(t, "critico", rep.Desvio.Clasificacion)
	assertMonto(t, "100", rep.Desvio.Monto)
	e.consistente(t, uuid.MustParse(s.CuentaID))
}

func TestCerrarCaja_DeclaradoCero(t *testing.T) {
	e := nuevoEntorno(t)
	tes := e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "0")

	rep, err := e.caja.Cerrar(context.Background(), e.cajero, uuid.MustParse(s.ID), dto.CerrarCajaRequest{MontoDeclarado: decimal.Zero})
	require.NoError(t, err)
	assertMonto(t, "0", rep.Desvio.Monto)
	assertMonto(t, "0", rep.Desvio.Porcentaje)
	assert.Nil(t, rep.Sesion.TransferenciaCierre)
	assertMonto(t, "5000", e.saldo(t, tes))
}

func TestCerrarCaja_FormulaCompleta(t *testing.T) {
	// expected = inicial + ventas efectivo + ingresos - egresos + depositos - retiros
	//          = 1000 + 500 + 100 - 40 + 300 - 200 = 1660
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	debito := e.tesoreriaMetodo(t, "Banco debito", ledger.MetodoTarjetaDebito, "0")
	s := e.abrirCaja(t, 1, "1000")
	id := uuid.MustParse(s.ID)
	ctx := context.Background()

	e.venta(t, s.ID, "V-1", efectivo("500"), dto.PagoVentaRequest{Metodo: ledger.MetodoTarjetaDebito, Monto: dec("800")})
	_, err := e.caja.RegistrarMovimiento(ctx, e.cajero, id, dto.MovimientoManualRequest{Tipo: "ingreso", Monto: dec("100"), Motivo: "Fondo de cambio"})
	require.NoError(t, err)
	cat := "limpieza"
	_, err = e.caja.RegistrarMovimiento(ctx, e.cajero, id, dto.MovimientoManualRequest{Tipo: "egreso", Monto: dec("40"), Motivo: "Articulos de limpieza", Categoria: &cat})
	require.NoError(t, err)
	_, err = e.caja.Depositar(ctx, e.cajero, id, dto.MovimientoFondosRequest{Origen: "tesoreria", Monto: dec("300")})
	require.NoError(t, err)
	_, err = e.caja.Retirar(ctx, e.cajero, id, dto.MovimientoFondosRequest{Destino: "caja_chica", Monto: dec("200")})
	require.NoError(t, err)

	rep, err := e.caja.Cerrar(ctx, e.cajero, id, dto.CerrarCajaRequest{MontoDeclarado: dec("1660")})
	require.NoError(t, err)

	assertMonto(t, "500", rep.VentasEfectivo)
	assertMonto(t, "1300", rep.VentasTotal)
	assertMonto(t, "800", rep.DesglosePagos[ledger.MetodoTarjetaDebito])
	assertMonto(t, "100", rep.Ingresos)
	assertMonto(t, "40", rep.Egresos)
	assertMonto(t, "40", rep.EgresosPorCategoria["limpieza"])
	assertMonto(t, "300", rep.Depositos)
	assertMonto(t, "200", rep.Retiros)
	assertMonto(t, "1660", rep.MontoEsperado)
	assertMonto(t, "0", rep.Desvio.Monto)

	// Non-cash tender landed in its treasury account, not in the drawer
	assertMonto(t, "800", e.saldo(t, debito))

	// The stored report keeps the same figures after the sweep
	again, err := e.caja.ObtenerReporte(ctx, e.cajero, id)
	require.NoError(t, err)
	assertMonto(t, "200", again.Retiros)
	assertMonto(t, "1660", again.MontoEsperado)
}

func TestCajaCerrada_EsTerminal(t *testing.T) {
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "1000")
	id := uuid.MustParse(s.ID)
	ctx := context.Background()

	_, err := e.caja.Cerrar(ctx, e.cajero, id, dto.CerrarCajaRequest{MontoDeclarado: dec("1000")})
	require.NoError(t, err)

	_, err = e.caja.Cerrar(ctx, e.cajero, id, dto.CerrarCajaRequest{MontoDeclarado: dec("1000")})
	assert.ErrorIs(t, err, ledger.ErrCajaCerrada)
	_, err = e.caja.RegistrarVenta(ctx, e.cajero, id, dto.RegistrarVentaRequest{Referencia: "V-9", Pagos: []dto.PagoVentaRequest{efectivo("10")}})
	assert.ErrorIs(t, err, ledger.ErrCajaCerrada)
	_, err = e.caja.RegistrarMovimiento(ctx, e.cajero, id, dto.MovimientoManualRequest{Tipo: "ingreso", Monto: dec("10"), Motivo: "Ajuste"})
	assert.ErrorIs(t, err, ledger.ErrCajaCerrada)
	_, err = e.caja.Depositar(ctx, e.cajero, id, dto.MovimientoFondosRequest{Origen: "tesoreria", Monto: dec("10")})
	assert.ErrorIs(t, err, ledger.ErrCajaCerrada)

	// The ledger itself rejects postings too
	_, err = e.libro.Registrar(ctx, e.cajero, uuid.MustParse(s.CuentaID), dto.MovimientoRequest{Tipo: "ingreso", Monto: dec("10"), Concepto: "Ajuste"})
	assert.ErrorIs(t, err, ledger.ErrCajaCerrada)

	// The punto de venta can be opened again with a fresh register
	nueva := e.abrirCaja(t, 1, "100")
	assert.NotEqual(t, s.CuentaID, nueva.CuentaID)
}

// ── Operacion ─────────────────────────────────────────────────────────────────

func TestRetiro_SaldoInsuficiente(t *testing.T) {
	// Scenario E: register holds 200, withdrawal of 300 to petty cash fails
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "200")
	ctx := context.Background()

	chica, err := e.tes.CajaChica(ctx, e.cajero)
	require.NoError(t, err)

	_, err = e.caja.Retirar(ctx, e.cajero, uuid.MustParse(s.ID), dto.MovimientoFondosRequest{Destino: "caja_chica", Monto: dec("300")})
	assert.ErrorIs(t, err, ledger.ErrSaldoInsuficiente)

	assertMonto(t, "0", e.saldo(t, uuid.MustParse(chica.ID)))
	assertMonto(t, "200", e.saldo(t, uuid.MustParse(s.CuentaID)))
	e.consistente(t, uuid.MustParse(chica.ID), uuid.MustParse(s.CuentaID))
}

func TestRegistrarVenta_CuentaCorriente(t *testing.T) {
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "0")
	cc := e.clienteCC(t)
	ccID := cc.String()

	e.venta(t, s.ID, "V-0002", efectivo("100"), dto.PagoVentaRequest{
		Metodo:            ledger.MetodoCuentaCorriente,
		Monto:             dec("250"),
		CuentaCorrienteID: &ccID,
	})

	assertMonto(t, "100", e.saldo(t, uuid.MustParse(s.CuentaID)))
	assertMonto(t, "250", e.saldo(t, cc))
	cargos, err := e.cc.ListarCargos(context.Background(), e.supervisor, cc, true)
	require.NoError(t, err)
	require.Len(t, cargos, 1)
	assertMonto(t, "250", cargos[0].Saldo)
}

func TestRegistrarMovimiento_TipoInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "100")

	_, err := e.caja.RegistrarMovimiento(context.Background(), e.cajero, uuid.MustParse(s.ID), dto.MovimientoManualRequest{
		Tipo: "venta", Monto: dec("10"), Motivo: "no permitido",
	})
	assert.ErrorIs(t, err, ledger.ErrValidacion)
}

func TestEgreso_NoDejaSaldoNegativo(t *testing.T) {
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	s := e.abrirCaja(t, 1, "100")

	_, err := e.caja.RegistrarMovimiento(context.Background(), e.cajero, uuid.MustParse(s.ID), dto.MovimientoManualRequest{
		Tipo: "egreso", Monto: dec("100.01"), Motivo: "Pago de flete",
	})
	assert.ErrorIs(t, err, ledger.ErrSaldoInsuficiente)
	assertMonto(t, "100", e.saldo(t, uuid.MustParse(s.CuentaID)))
}

func TestHistorialYActiva(t *testing.T) {
	e := nuevoEntorno(t)
	e.tesoreriaEfectivo(t, "5000")
	a := e.abrirCaja(t, 1, "100")
	e.abrirCaja(t, 2, "100")

	activa, err := e.caja.GetActiva(context.Background(), e.cajero, 1)
	require.NoError(t, err)
	assert.Equal(t, a.ID, activa.ID)

	hist, err := e.caja.Historial(context.Background(), e.cajero, 10)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func TestClasificarDesvio(t *testing.T) {
	cases := map[string]string{
		"0":     "normal",
		"1":     "normal",
		"-1":    "normal",
		"1.01":  "advertencia",
		"-5":    "advertencia",
		"5.01":  "critico",
		"-12.5": "critico",
	}
	for pct, want := range cases {
		assert.Equal(t, want, clasificarDesvio(dec(pct)), pct)
	}
}

func TestPorcentajeDesvio_EsperadoCero(t *testing.T) {
	assertMonto(t, "0", porcentajeDesvio(decimal.Zero, decimal.Zero))
	assertMonto(t, "100", porcentajeDesvio(dec("10"), decimal.Zero))
	assertMonto(t, "-100", porcentajeDesvio(dec("-10"), decimal.Zero))
	assertMonto(t, "-4.17", porcentajeDesvio(dec("-50"), dec("1200")))
}
