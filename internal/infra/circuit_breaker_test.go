package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBroker = errors.New("broker caido")

func TestCircuitBreaker_AbreYSeRecupera(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenTimeout:      20 * time.Millisecond,
	})
	falla := func() error { return errBroker }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(falla), errBroker)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(falla), errBroker)
	assert.Equal(t, CBOpen, cb.State())

	llamado := false
	err := cb.Execute(func() error { llamado = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, llamado)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_SondaFallidaReabre(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})
	_ = cb.Execute(func() error { return errBroker })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errBroker })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCBState_String(t *testing.T) {
	assert.Equal(t, "closed", CBClosed.String())
	assert.Equal(t, "open", CBOpen.String())
	assert.Equal(t, "half-open", CBHalfOpen.String())
}

func TestCircuitBreaker_UnaSolaSondaALaVez(t *testing.T) {
	var cambios []CBState
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
		OnChange:         func(_ string, s CBState) { cambios = append(cambios, s) },
	})
	_ = cb.Execute(func() error { return errBroker })
	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(func() error {
		// While the probe runs, a concurrent call is rejected.
		assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, CBClosed, cb.State())
	assert.Equal(t, []CBState{CBOpen, CBHalfOpen, CBClosed}, cambios)
}
