package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CircuitBreaker guards calls to the event broker. After FailureThreshold
// consecutive failures it opens and rejects calls without running them, so a
// dead broker costs the request path nothing: events go to the outbox instead.
// Once OpenTimeout has elapsed a single probe is let through; SuccessThreshold
// good probes close it again, a failed probe reopens it.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	// OnChange, when set, is called after every state transition. It runs
	// under the breaker's lock and must not call back into it.
	OnChange func(nombre string, s CBState)
}

// DefaultCBConfig returns the settings used for the event broker.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

type CircuitBreaker struct {
	nombre string
	cfg    CircuitBreakerConfig

	mu        sync.Mutex
	state     CBState
	fallas    int
	exitos    int
	abiertoEn time.Time
	sondeando bool
}

// NewCircuitBreaker creates a closed breaker. nombre labels logs and metrics.
// Zero config values fall back to 5 failures, 2 successes and 60s.
func NewCircuitBreaker(nombre string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	return &CircuitBreaker{nombre: nombre, cfg: cfg}
}

func (cb *CircuitBreaker) Nombre() string { return cb.nombre }

// State reports the current state, moving open to half-open once the timeout has passed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.vencer()
	return cb.state
}

// Execute runs fn unless the breaker is open or a half-open probe is already
// in flight, in which case it returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.permitir() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.registrar(err)
	return err
}

func (cb *CircuitBreaker) permitir() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.vencer()
	switch cb.state {
	case CBOpen:
		return false
	case CBHalfOpen:
		if cb.sondeando {
			return false
		}
		cb.sondeando = true
	}
	return true
}

func (cb *CircuitBreaker) registrar(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.sondeando = false

	if err != nil {
		cb.exitos = 0
		switch cb.state {
		case CBClosed:
			cb.fallas++
			if cb.fallas >= cb.cfg.FailureThreshold {
				log.Warn().Str("breaker", cb.nombre).Int("fallas", cb.fallas).Err(err).Msg("circuit breaker abierto")
				cb.cambiar(CBOpen)
			}
		case CBHalfOpen:
			log.Warn().Str("breaker", cb.nombre).Err(err).Msg("sonda fallida, circuit breaker reabierto")
			cb.cambiar(CBOpen)
		}
		return
	}

	switch cb.state {
	case CBClosed:
		cb.fallas = 0
	case CBHalfOpen:
		cb.exitos++
		if cb.exitos >= cb.cfg.SuccessThreshold {
			log.Info().Str("breaker", cb.nombre).Msg("circuit breaker cerrado")
			cb.cambiar(CBClosed)
		}
	}
}

// vencer must be called under lock.
func (cb *CircuitBreaker) vencer() {
	if cb.state == CBOpen && time.Since(cb.abiertoEn) >= cb.cfg.OpenTimeout {
		cb.cambiar(CBHalfOpen)
	}
}

// cambiar must be called under lock.
func (cb *CircuitBreaker) cambiar(s CBState) {
	cb.state = s
	cb.fallas = 0
	cb.exitos = 0
	if s == CBOpen {
		cb.abiertoEn = time.Now()
	}
	if cb.cfg.OnChange != nil {
		cb.cfg.OnChange(cb.nombre, s)
	}
}
