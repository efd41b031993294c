package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tesoreria/internal/dto"
	"tesoreria/internal/eventos"
	"tesoreria/internal/ledger"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository/memstore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fixture ───────────────────────────────────────────────────────────────────

type colaFake struct {
	mu   sync.Mutex
	jobs []dto.ReporteCierreJob
}

func (c *colaFake) EnqueueReporteCierre(_ context.Context, job dto.ReporteCierreJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return nil
}

type entorno struct {
	store  *memstore.Store
	pub    *eventos.Memoria
	cola   *colaFake
	ahora  time.Time
	tenant uuid.UUID

	admin      Actor
	supervisor Actor
	cajero     Actor

	libro LibroService
	tes   TesoreriaService
	trf   TransferenciaService
	caja  CajaService
	cc    CuentaCorrienteService
}

var zonaBA = time.FixedZone("ART", -3*60*60)

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	e := &entorno{
		store:  memstore.New(),
		pub:    &eventos.Memoria{},
		cola:   &colaFake{},
		ahora:  time.Date(2026, 3, 10, 15, 0, 0, 0, zonaBA),
		tenant: uuid.New(),
	}
	reloj := Reloj{ahora: func() time.Time { return e.ahora }, zona: zonaBA}
	e.admin = actorDe(e.tenant, permiso.RolAdministrador)
	e.supervisor = actorDe(e.tenant, permiso.RolSupervisor)
	e.cajero = actorDe(e.tenant, permiso.RolCajero)
	e.libro = NewLibroService(e.store, reloj)
	e.tes = NewTesoreriaService(e.store, reloj)
	e.trf = NewTransferenciaService(e.store, e.pub, reloj)
	e.caja = NewCajaService(e.store, e.pub, e.cola, reloj)
	e.cc = NewCuentaCorrienteService(e.store, e.pub, reloj)
	return e
}

func actorDe(tenant uuid.UUID, rol string) Actor {
	return Actor{TenantID: tenant, UsuarioID: uuid.New(), Permisos: permiso.DeRol(rol)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMonto(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "esperado %s, obtenido %s", want, got.String())
}

// tesoreriaEfectivo creates the cash treasury account registers draw from.
func (e *entorno) tesoreriaEfectivo(t *testing.T, saldo string) uuid.UUID {
	t.Helper()
	metodo := ledger.MetodoEfectivo
	c, err := e.tes.CrearCuenta(context.Background(), e.admin, dto.CrearCuentaTesoreriaRequest{
		Nombre:       "Caja fuerte",
		Clase:        ledger.ClaseEfectivo,
		MetodoPago:   &metodo,
		SaldoInicial: dec(saldo),
	})
	require.NoError(t, err)
	return uuid.MustParse(c.ID)
}

func (e *entorno) tesoreriaMetodo(t *testing.T, nombre, metodo, saldo string) uuid.UUID {
	t.Helper()
	c, err := e.tes.CrearCuenta(context.Background(), e.admin, dto.CrearCuentaTesoreriaRequest{
		Nombre:       nombre,
		Clase:        ledger.ClaseBanco,
		MetodoPago:   &metodo,
		SaldoInicial: dec(saldo),
	})
	require.NoError(t, err)
	return uuid.MustParse(c.ID)
}

func (e *entorno) abrirCaja(t *testing.T, pdv int, inicial string) dto.SesionCajaResponse {
	t.Helper()
	s, err := e.caja.Abrir(context.Background(), e.cajero, dto.AbrirCajaRequest{
		PuntoDeVenta: pdv,
		MontoInicial: dec(inicial),
	})
	require.NoError(t, err)
	return *s
}

func (e *entorno) venta(t *testing.T, sesionID, ref string, pagos ...dto.PagoVentaRequest) {
	t.Helper()
	_, err := e.caja.RegistrarVenta(context.Background(), e.cajero, uuid.MustParse(sesionID), dto.RegistrarVentaRequest{
		Referencia: ref,
		Pagos:      pagos,
	})
	require.NoError(t, err)
}

func efectivo(monto string) dto.PagoVentaRequest {
	return dto.PagoVentaRequest{Metodo: ledger.MetodoEfectivo, Monto: dec(monto)}
}

func (e *entorno) saldo(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	s, err := e.libro.Saldo(context.Background(), e.admin, id)
	require.NoError(t, err)
	return s.Saldo
}

// consistente asserts that the cached balance of every given ledger equals
// the fold of its movement log.
func (e *entorno) consistente(t *testing.T, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		v, err := e.libro.Verificar(context.Background(), e.admin, id)
		require.NoError(t, err)
		assert.Truef(t, v.Consistente, "cuenta %s: cache %s, reconstruido %s", id, v.SaldoCache, v.SaldoReconstruido)
	}
}

func (e *entorno) clienteCC(t *testing.T) uuid.UUID {
	t.Helper()
	c, err := e.cc.Crear(context.Background(), e.supervisor, dto.CrearCuentaCorrienteRequest{
		TitularTipo: ledger.TitularCliente,
		TitularID:   uuid.NewString(),
		Nombre:      "Almacen Don Jose",
	})
	require.NoError(t, err)
	return uuid.MustParse(c.ID)
}

func (e *entorno) cargo(t *testing.T, cuentaID uuid.UUID, monto string) uuid.UUID {
	t.Helper()
	c, err := e.cc.RegistrarCargo(context.Background(), e.supervisor, cuentaID, dto.RegistrarCargoRequest{
		Monto:    dec(monto),
		Concepto: "Factura B 0001-00000123",
	})
	require.NoError(t, err)
	return uuid.MustParse(c.ID)
}
