package router

import (
	"tesoreria/internal/config"
	"tesoreria/internal/eventos"
	"tesoreria/internal/handler"
	"tesoreria/internal/infra"
	"tesoreria/internal/middleware"
	"tesoreria/internal/obs"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"
	"tesoreria/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"
)

// Deps are the collaborators built by main. DB and Redis are only used by the
// health check; all money operations go through Store.
type Deps struct {
	Store   repository.Store
	DB      *gorm.DB
	Redis   *redis.Client
	Eventos eventos.Publicador
	Cola    service.ColaReportes
	Limiter *limiter.Limiter
	// Breaker is the event broker's circuit breaker, reported by /health. May be nil.
	Breaker *infra.CircuitBreaker
	Reloj   service.Reloj
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Store ← DB
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Eventos == nil {
		d.Eventos = eventos.Nop{}
	}
	obs.Init()

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(obs.Middleware())
	r.Use(middleware.CORS(cfg.Origenes()))
	r.Use(middleware.ErrorHandler())

	// ── Services ─────────────────────────────────────────────────────────────
	libroSvc := service.NewLibroService(d.Store, d.Reloj)
	tesoreriaSvc := service.NewTesoreriaService(d.Store, d.Reloj)
	transferenciaSvc := service.NewTransferenciaService(d.Store, d.Eventos, d.Reloj)
	cajaSvc := service.NewCajaService(d.Store, d.Eventos, d.Cola, d.Reloj)
	ccSvc := service.NewCuentaCorrienteService(d.Store, d.Eventos, d.Reloj)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cuentasH := handler.NewCuentasHandler(libroSvc)
	tesoreriaH := handler.NewTesoreriaHandler(tesoreriaSvc)
	transferenciasH := handler.NewTransferenciasHandler(transferenciaSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	ccH := handler.NewCuentasCorrientesHandler(ccSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.Breaker))
	r.GET("/metrics", gin.WrapH(obs.Handler()))

	// Protected routes. The limiter runs after auth so it can key on the tenant.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	if d.Limiter != nil {
		v1.Use(middleware.RateLimiter(d.Limiter))
	}
	{
		cajas := v1.Group("/cajas")
		{
			cajas.GET("", cajaH.Historial)
			cajas.GET("/activa", cajaH.GetActiva)
			cajas.POST("/abrir", cajaH.Abrir)
			cajas.POST("/:id/cerrar", middleware.RequirePermiso(permiso.CajaCerrar), cajaH.Cerrar)
			cajas.GET("/:id/reporte", cajaH.ObtenerReporte)
			cajas.POST("/:id/movimientos", cajaH.RegistrarMovimiento)
			cajas.POST("/:id/ventas", cajaH.RegistrarVenta)
			cajas.POST("/:id/retiros", cajaH.Retirar)
			cajas.POST("/:id/depositos", cajaH.Depositar)
		}

		trf := v1.Group("/transferencias")
		{
			trf.POST("", middleware.RequirePermiso(permiso.TransferenciaCrear), transferenciasH.Transferir)
			trf.GET("/:id", transferenciasH.Obtener)
			// Same-day vs. out-of-window voids are decided by the service.
			trf.POST("/:id/anular", middleware.RequirePermiso(permiso.TransferenciaAnular), transferenciasH.Anular)
		}

		tes := v1.Group("/tesoreria")
		{
			tes.POST("/cuentas", tesoreriaH.CrearCuenta)
			tes.GET("/cuentas", tesoreriaH.ListarCuentas)
			tes.PATCH("/cuentas/:id/estado", tesoreriaH.CambiarEstado)
			tes.POST("/cuentas/:id/movimientos", tesoreriaH.RegistrarMovimiento)
			tes.GET("/resumen", tesoreriaH.Resumen)
		}

		v1.GET("/caja-chica", tesoreriaH.CajaChica)
		v1.POST("/caja-chica/movimientos", tesoreriaH.MovimientoCajaChica)

		cuentas := v1.Group("/cuentas")
		{
			cuentas.GET("/:id/saldo", cuentasH.Saldo)
			cuentas.GET("/:id/movimientos", cuentasH.Movimientos)
			cuentas.POST("/:id/movimientos", cuentasH.Registrar)
			cuentas.GET("/:id/verificacion", cuentasH.Verificar)
		}

		cc := v1.Group("/cuentas-corrientes")
		{
			cc.POST("", ccH.Crear)
			cc.PATCH("/:id/estado", ccH.CambiarEstado)
			cc.POST("/:id/cargos", ccH.RegistrarCargo)
			cc.GET("/:id/cargos", ccH.ListarCargos)
			cc.POST("/:id/pagos", ccH.RegistrarPago)
		}

		cargos := v1.Group("/cargos")
		{
			cargos.POST("/:id/anular", ccH.AnularCargo)
			cargos.POST("/:id/disputa", ccH.CambiarDisputa)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
