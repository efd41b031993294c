package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	movimientosTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tesoreria_movimientos_total",
			Help: "Committed ledger movements by ledger kind and movement type.",
		},
		[]string{"tipo_cuenta", "tipo"},
	)

	rechazosTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tesoreria_operaciones_rechazadas_total",
			Help: "Money operations rejected, by reason.",
		},
		[]string{"motivo"},
	)

	eventosPendientes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tesoreria_eventos_pendientes",
		Help: "Domain events waiting in the outbox for re-publication.",
	})

	breakerEstado = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tesoreria_circuit_breaker_estado",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		},
		[]string{"breaker"},
	)
)

var initOnce sync.Once

// Init registers every collector in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			movimientosTotal, rechazosTotal, eventosPendientes, breakerEstado,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures request count, latency and concurrency. The path label
// is the matched route template, so ids do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpInFlight.Dec()
	}
}

// MovimientoRegistrado counts a committed movement.
func MovimientoRegistrado(tipoCuenta, tipo string) {
	movimientosTotal.WithLabelValues(tipoCuenta, tipo).Inc()
}

// OperacionRechazada counts a rejected operation.
func OperacionRechazada(motivo string) {
	rechazosTotal.WithLabelValues(motivo).Inc()
}

func EventosPendientes(n int64) {
	eventosPendientes.Set(float64(n))
}

// BreakerEstado records a circuit breaker transition.
func BreakerEstado(nombre string, estado int) {
	breakerEstado.WithLabelValues(nombre).Set(float64(estado))
}
