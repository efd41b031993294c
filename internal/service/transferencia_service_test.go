package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tesoreria/internal/dto"
	"tesoreria/internal/eventos"
	"tesoreria/internal/ids"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *entorno) transferir(t *testing.T, origen, destino uuid.UUID, monto string) *dto.TransferenciaResponse {
	t.Helper()
	r, err := e.trf.Transferir(context.Background(), e.supervisor, dto.TransferenciaRequest{
		OrigenID:  origen.String(),
		DestinoID: destino.String(),
		Monto:     dec(monto),
	})
	require.NoError(t, err)
	return r
}

func TestTransferir(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")

	r := e.transferir(t, a, b, "250.50")

	assert.Regexp(t, `^TRF-[0-9A-Z]{26}$`, r.TransferenciaID)
	assert.Equal(t, string(ledger.MovTransferenciaSalida), r.MovimientoOrigen.Tipo)
	assert.Equal(t, string(ledger.MovTransferenciaEntrada), r.MovimientoDestino.Tipo)
	assertMonto(t, "749.50", r.SaldoOrigen)
	assertMonto(t, "250.50", r.SaldoDestino)
	assertMonto(t, "749.50", e.saldo(t, a))
	assertMonto(t, "250.50", e.saldo(t, b))
	e.consistente(t, a, b)
	assert.Contains(t, e.pub.Tipos(), eventos.TransferenciaRealizada)
}

func TestTransferir_Rechazos(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "100")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	cc := e.clienteCC(t)
	ctx := context.Background()

	cases := []struct {
		nombre  string
		actor   Actor
		origen  uuid.UUID
		destino uuid.UUID
		monto   string
		want    error
	}{
		{"saldo insuficiente", e.supervisor, a, b, "100.01", ledger.ErrSaldoInsuficiente},
		{"misma cuenta", e.supervisor, a, a, "10", ledger.ErrValidacion},
		{"monto cero", e.supervisor, a, b, "0", ledger.ErrMontoInvalido},
		{"monto negativo", e.supervisor, a, b, "-5", ledger.ErrMontoInvalido},
		{"cuenta corriente", e.supervisor, a, cc, "10", ledger.ErrValidacion},
		{"destino inexistente", e.supervisor, a, uuid.New(), "10", ledger.ErrNoEncontrado},
		{"cajero sin permiso", e.cajero, a, b, "10", ledger.ErrPermisoInsuficiente},
	}
	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := e.trf.Transferir(ctx, tc.actor, dto.TransferenciaRequest{
				OrigenID:  tc.origen.String(),
				DestinoID: tc.destino.String(),
				Monto:     dec(tc.monto),
			})
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assertMonto(t, "100", e.saldo(t, a))
	assertMonto(t, "0", e.saldo(t, b))
	e.consistente(t, a, b)
}

func TestTransferir_Atomica(t *testing.T) {
	// The inbound half fails after the outbound half was written: nothing survives.
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	antes, err := e.libro.Movimientos(context.Background(), e.admin, a, 0)
	require.NoError(t, err)

	e.store.FallarMovimiento = func(m *model.Movimiento) error {
		if m.Tipo == string(ledger.MovTransferenciaEntrada) {
			return errors.New("disco lleno")
		}
		return nil
	}
	_, err = e.trf.Transferir(context.Background(), e.supervisor, dto.TransferenciaRequest{
		OrigenID: a.String(), DestinoID: b.String(), Monto: dec("300"),
	})
	require.Error(t, err)
	e.store.FallarMovimiento = nil

	assertMonto(t, "1000", e.saldo(t, a))
	assertMonto(t, "0", e.saldo(t, b))
	despues, err := e.libro.Movimientos(context.Background(), e.admin, a, 0)
	require.NoError(t, err)
	assert.Len(t, despues, len(antes))
	e.consistente(t, a, b)
}

func TestTransferir_Concurrente(t *testing.T) {
	// 20 opposite transfers between the same two ledgers: no deadlock, no lost update.
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "1000")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		origen, destino := a, b
		if i%2 == 1 {
			origen, destino = b, a
		}
		go func() {
			defer wg.Done()
			_, err := e.trf.Transferir(context.Background(), e.supervisor, dto.TransferenciaRequest{
				OrigenID: origen.String(), DestinoID: destino.String(), Monto: dec("10"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assertMonto(t, "1000", e.saldo(t, a))
	assertMonto(t, "1000", e.saldo(t, b))
	e.consistente(t, a, b)
}

func TestTransferir_ConcurrenteSinSobregiro(t *testing.T) {
	// 10 concurrent withdrawals of 30 from 100: exactly 3 succeed.
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "100")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.trf.Transferir(context.Background(), e.supervisor, dto.TransferenciaRequest{
				OrigenID: a.String(), DestinoID: b.String(), Monto: dec("30"),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ledger.ErrSaldoInsuficiente)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assertMonto(t, "10", e.saldo(t, a))
	assertMonto(t, "90", e.saldo(t, b))
}

// ── Anulacion ─────────────────────────────────────────────────────────────────

func TestAnular(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	r := e.transferir(t, a, b, "300")
	ctx := context.Background()

	v, err := e.trf.Anular(ctx, e.supervisor, r.TransferenciaID)
	require.NoError(t, err)

	assert.Equal(t, ids.Anulacion(r.TransferenciaID), v.TransferenciaID)
	assert.Equal(t, b.String(), v.MovimientoOrigen.CuentaID)
	assert.Equal(t, a.String(), v.MovimientoDestino.CuentaID)
	require.NotNil(t, v.MovimientoOrigen.ReversionDe)
	require.NotNil(t, v.MovimientoDestino.ReversionDe)
	assert.Equal(t, r.MovimientoDestino.ID, *v.MovimientoOrigen.ReversionDe)
	assert.Equal(t, r.MovimientoOrigen.ID, *v.MovimientoDestino.ReversionDe)
	assertMonto(t, "1000", e.saldo(t, a))
	assertMonto(t, "0", e.saldo(t, b))
	e.consistente(t, a, b)

	// The original is still there and now reports its void
	orig, err := e.trf.Obtener(ctx, e.supervisor, r.TransferenciaID)
	require.NoError(t, err)
	require.NotNil(t, orig.AnuladaPor)
	assert.Equal(t, v.TransferenciaID, *orig.AnuladaPor)

	_, err = e.trf.Anular(ctx, e.supervisor, r.TransferenciaID)
	assert.ErrorIs(t, err, ledger.ErrTransferenciaAnulada)
	_, err = e.trf.Anular(ctx, e.supervisor, v.TransferenciaID)
	assert.ErrorIs(t, err, ledger.ErrTransferenciaAnulada)
	assert.Contains(t, e.pub.Tipos(), eventos.TransferenciaAnulada)
}

func TestAnular_DestinoSinFondos(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	c := e.tesoreriaMetodo(t, "Otro banco", ledger.MetodoCheque, "0")
	r := e.transferir(t, a, b, "300")
	e.transferir(t, b, c, "200")

	_, err := e.trf.Anular(context.Background(), e.supervisor, r.TransferenciaID)
	assert.ErrorIs(t, err, ledger.ErrSaldoInsuficiente)
	assertMonto(t, "700", e.saldo(t, a))
	assertMonto(t, "100", e.saldo(t, b))
}

func TestAnular_FueraDePlazo(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	r := e.transferir(t, a, b, "300")
	ctx := context.Background()

	// 15:00 → 23:59 the same local day is still inside the window
	e.ahora = e.ahora.Add(8*time.Hour + 59*time.Minute)
	_, err := e.trf.Obtener(ctx, e.supervisor, r.TransferenciaID)
	require.NoError(t, err)

	// Next local day: supervisors are rejected, administrators may still void
	e.ahora = e.ahora.Add(2 * time.Minute)
	_, err = e.trf.Anular(ctx, e.supervisor, r.TransferenciaID)
	assert.ErrorIs(t, err, ledger.ErrFueraDePlazo)

	_, err = e.trf.Anular(ctx, e.admin, r.TransferenciaID)
	require.NoError(t, err)
	assertMonto(t, "1000", e.saldo(t, a))
}

func TestAnular_MismoDiaEnZonaLocal(t *testing.T) {
	// 23:30 local is 02:30 UTC the next day; the void window follows the local day.
	e := nuevoEntorno(t)
	e.ahora = time.Date(2026, 3, 10, 23, 30, 0, 0, zonaBA)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	r := e.transferir(t, a, b, "300")

	e.ahora = time.Date(2026, 3, 10, 23, 50, 0, 0, zonaBA)
	_, err := e.trf.Anular(context.Background(), e.supervisor, r.TransferenciaID)
	require.NoError(t, err)
}

func TestAnular_Concurrente(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	r := e.transferir(t, a, b, "300")

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.trf.Anular(context.Background(), e.supervisor, r.TransferenciaID)
		}(i)
	}
	wg.Wait()

	exitos := 0
	for _, err := range errs {
		if err == nil {
			exitos++
			continue
		}
		assert.ErrorIs(t, err, ledger.ErrTransferenciaAnulada)
	}
	assert.Equal(t, 1, exitos)
	assertMonto(t, "1000", e.saldo(t, a))
	assertMonto(t, "0", e.saldo(t, b))
}

func TestAnular_PermisoYTenant(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.tesoreriaEfectivo(t, "1000")
	b := e.tesoreriaMetodo(t, "Banco", ledger.MetodoTransferencia, "0")
	r := e.transferir(t, a, b, "300")
	ctx := context.Background()

	_, err := e.trf.Anular(ctx, e.cajero, r.TransferenciaID)
	assert.ErrorIs(t, err, ledger.ErrPermisoInsuficiente)

	otro := actorDe(uuid.New(), "administrador")
	_, err = e.trf.Anular(ctx, otro, r.TransferenciaID)
	assert.ErrorIs(t, err, ledger.ErrNoEncontrado)
	_, err = e.trf.Obtener(ctx, otro, r.TransferenciaID)
	assert.ErrorIs(t, err, ledger.ErrNoEncontrado)
}
