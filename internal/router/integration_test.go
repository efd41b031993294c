//go:build integration

package router

// Integration tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"tesoreria/internal/dto"
	"tesoreria/internal/infra"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"
	"tesoreria/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type entorno struct {
	api *api
	rdb *redis.Client
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("tesoreria_test"),
		tcPostgres.WithUsername("tesoreria"),
		tcPostgres.WithPassword("tesoreria"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	require.NoError(t, infra.Migrar(pgURL))
	v, dirty, err := infra.VersionMigraciones(pgURL)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)

	a := nuevaAPICon(t, Deps{
		Store: repository.NewStore(db),
		DB:    db,
		Redis: rdb,
		Cola:  worker.NewDispatcher(rdb),
	})
	return &entorno{api: a, rdb: rdb}
}

func TestIntegracion(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	e := nuevoEntorno(t)
	a := e.api

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "", nil, nil))
	})

	t.Run("ciclo de caja encola el reporte", func(t *testing.T) {
		tes := a.crearTesoreria("5000")

		var sesion dto.SesionCajaResponse
		require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/cajas/abrir", permiso.RolCajero, map[string]any{
			"monto_inicial": "1000", "cuenta_tesoreria_id": tes.ID, "punto_de_venta": 3,
		}, &sesion))

		// Second open on the same point of sale is rejected by the partial unique index.
		assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/v1/cajas/abrir", permiso.RolCajero, map[string]any{
			"monto_inicial": "0", "cuenta_tesoreria_id": tes.ID, "punto_de_venta": 3,
		}, nil))

		require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/cajas/"+sesion.ID+"/ventas", permiso.RolCajero, map[string]any{
			"referencia": "T-0001",
			"pagos":      []map[string]any{{"metodo": "efectivo", "monto": "200"}},
		}, nil))

		var reporte dto.ReporteCajaResponse
		require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/v1/cajas/"+sesion.ID+"/cerrar", permiso.RolCajero, map[string]any{
			"monto_declarado": "1200",
		}, &reporte))
		assertMonto(t, "1200", reporte.MontoEsperado)
		assertMonto(t, "5200", a.saldo(tes.ID))

		n, err := e.rdb.LLen(context.Background(), worker.QueueReporteCierre).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		var verif dto.VerificacionResponse
		require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/v1/cuentas/"+tes.ID+"/verificacion", permiso.RolCajero, nil, &verif))
		assert.True(t, verif.Consistente)
	})

	t.Run("transferencias concurrentes no sobregiran", func(t *testing.T) {
		origen := a.crearTesoreria("500")
		var chica dto.CuentaResponse
		require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/v1/caja-chica", permiso.RolCajero, nil, &chica))
		inicialChica := a.saldo(chica.ID)

		token := a.token(a.tenant, permiso.RolSupervisor)
		body, err := json.Marshal(map[string]any{"origen_id": origen.ID, "destino_id": chica.ID, "monto": "100"})
		require.NoError(t, err)

		const intentos = 12
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			oks int
		)
		for i := 0; i < intentos; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := httptest.NewRequest(http.MethodPost, "/v1/transferencias", bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer "+token)
				w := httptest.NewRecorder()
				a.r.ServeHTTP(w, req)
				if w.Code == http.StatusCreated {
					mu.Lock()
					oks++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, oks, 5)
		saldo := a.saldo(origen.ID)
		assert.False(t, saldo.IsNegative())
		assertMonto(t, "500", saldo.Add(a.saldo(chica.ID)).Sub(inicialChica))

		var verif dto.VerificacionResponse
		require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/v1/cuentas/"+origen.ID+"/verificacion", permiso.RolCajero, nil, &verif))
		assert.True(t, verif.Consistente)
	})

	t.Run("aperturas concurrentes del mismo punto de venta", func(t *testing.T) {
		tes := a.crearTesoreria("5000")
		token := a.token(a.tenant, permiso.RolCajero)
		body, err := json.Marshal(map[string]any{
			"monto_inicial": "100", "cuenta_tesoreria_id": tes.ID, "punto_de_venta": 7,
		})
		require.NoError(t, err)

		const intentos = 8
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		codigos := map[int]int{}
		for i := 0; i < intentos; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := httptest.NewRequest(http.MethodPost, "/v1/cajas/abrir", bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer "+token)
				w := httptest.NewRecorder()
				a.r.ServeHTTP(w, req)
				mu.Lock()
				codigos[w.Code]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusBadRequest: intentos - 1}, codigos)
		assertMonto(t, "4900", a.saldo(tes.ID))
	})

	t.Run("aislamiento de tenant", func(t *testing.T) {
		tes := a.crearTesoreria("10")
		otro := uuid.NewString()
		assert.Equal(t, http.StatusNotFound, a.doTenant(otro, http.MethodGet, "/v1/cuentas/"+tes.ID+"/saldo", permiso.RolAdministrador, nil, nil))
	})
}
