package infra

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tesoreria/internal/eventos"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type escritorFake struct {
	mu    sync.Mutex
	falla bool
	msgs  []kafka.Message
}

func (e *escritorFake) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.falla {
		return errors.New("kafka no disponible")
	}
	e.msgs = append(e.msgs, msgs...)
	return nil
}

func (e *escritorFake) Close() error { return nil }

// outboxMemoria mirrors OutboxRedis: push left, pop right.
type outboxMemoria struct{ items [][]byte }

func (o *outboxMemoria) Guardar(_ context.Context, p []byte) error {
	o.items = append([][]byte{p}, o.items...)
	return nil
}

func (o *outboxMemoria) Tomar(context.Context) ([]byte, error) {
	if len(o.items) == 0 {
		return nil, nil
	}
	p := o.items[len(o.items)-1]
	o.items = o.items[:len(o.items)-1]
	return p, nil
}

func (o *outboxMemoria) Devolver(_ context.Context, p []byte) error {
	o.items = append(o.items, p)
	return nil
}

func (o *outboxMemoria) Pendientes(context.Context) (int64, error) { return int64(len(o.items)), nil }

func evento(tipo string) eventos.Evento {
	return eventos.Evento{ID: uuid.NewString(), Tipo: tipo, TenantID: uuid.New(), OcurridoAt: time.Now().UTC()}
}

func TestKafkaPublicador_PublicaConClaveDeTenant(t *testing.T) {
	w := &escritorFake{}
	p := newKafkaPublicador(w, nil, &outboxMemoria{})

	ev := evento(eventos.TransferenciaRealizada)
	require.NoError(t, p.Publicar(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, ev.TenantID.String(), string(w.msgs[0].Key))
	var got eventos.Evento
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ev.ID, got.ID)
}

func TestKafkaPublicador_OutboxYReintento(t *testing.T) {
	w := &escritorFake{falla: true}
	outbox := &outboxMemoria{}
	p := newKafkaPublicador(w, NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 100}), outbox)
	ctx := context.Background()

	primero, segundo := evento(eventos.CajaAbierta), evento(eventos.CajaCerrada)
	require.NoError(t, p.Publicar(ctx, primero))
	require.NoError(t, p.Publicar(ctx, segundo))
	assert.Len(t, outbox.items, 2)

	// Still down: nothing leaves the outbox.
	enviados, pendientes, err := p.Reintentar(ctx, 10)
	assert.Error(t, err)
	assert.Equal(t, 0, enviados)
	assert.Equal(t, int64(2), pendientes)

	w.falla = false
	enviados, pendientes, err = p.Reintentar(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, enviados)
	assert.Equal(t, int64(0), pendientes)

	// Oldest first.
	var got eventos.Evento
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, primero.ID, got.ID)
}

func TestKafkaPublicador_SinOutboxDevuelveError(t *testing.T) {
	p := newKafkaPublicador(&escritorFake{falla: true}, nil, nil)
	assert.Error(t, p.Publicar(context.Background(), evento(eventos.PagoRegistrado)))
}
