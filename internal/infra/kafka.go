package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tesoreria/internal/eventos"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// ── Kafka publisher ───────────────────────────────────────────────────────────
// Domain events are keyed by tenant so one tenant's events stay ordered within
// a partition. Publishing goes through the circuit breaker; when the broker is
// unreachable the event is parked in the outbox and the retry loop sends it later.

// escritor is the subset of *kafka.Writer the publisher uses.
type escritor interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Outbox parks events that could not be published.
type Outbox interface {
	Guardar(ctx context.Context, payload []byte) error
	// Tomar returns the oldest parked event, or nil when the outbox is empty.
	Tomar(ctx context.Context) ([]byte, error)
	// Devolver puts an event back at the head so it is retried first.
	Devolver(ctx context.Context, payload []byte) error
	Pendientes(ctx context.Context) (int64, error)
}

type KafkaPublicador struct {
	writer  escritor
	cb      *CircuitBreaker
	outbox  Outbox
	timeout time.Duration
}

// NewKafkaPublicador builds a publisher writing to topic. outbox may be nil, in
// which case a failed publish is only reported.
func NewKafkaPublicador(brokers []string, topic string, cb *CircuitBreaker, outbox Outbox) *KafkaPublicador {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaPublicador(w, cb, outbox)
}

func newKafkaPublicador(w escritor, cb *CircuitBreaker, outbox Outbox) *KafkaPublicador {
	if cb == nil {
		cb = NewCircuitBreaker("kafka", DefaultCBConfig())
	}
	return &KafkaPublicador{writer: w, cb: cb, outbox: outbox, timeout: 5 * time.Second}
}

// Publicar implements eventos.Publicador.
func (p *KafkaPublicador) Publicar(ctx context.Context, e eventos.Evento) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: serializar evento: %w", err)
	}
	err = p.enviar(ctx, payload)
	if err == nil {
		return nil
	}
	if p.outbox == nil {
		return err
	}
	if oErr := p.outbox.Guardar(ctx, payload); oErr != nil {
		return errors.Join(err, fmt.Errorf("outbox: %w", oErr))
	}
	log.Warn().Err(err).Str("evento", e.Tipo).Str("id", e.ID).Msg("kafka: evento guardado en outbox")
	return nil
}

// Reintentar republishes up to max parked events, oldest first. It stops at
// the first failure and leaves that event at the head of the outbox.
func (p *KafkaPublicador) Reintentar(ctx context.Context, max int) (int, int64, error) {
	if p.outbox == nil {
		return 0, 0, nil
	}
	enviados := 0
	for enviados < max {
		payload, err := p.outbox.Tomar(ctx)
		if err != nil {
			return enviados, 0, err
		}
		if payload == nil {
			break
		}
		if err := p.enviar(ctx, payload); err != nil {
			if dErr := p.outbox.Devolver(ctx, payload); dErr != nil {
				log.Error().Err(dErr).Msg("outbox: no se pudo devolver el evento")
			}
			pendientes, _ := p.outbox.Pendientes(ctx)
			return enviados, pendientes, err
		}
		enviados++
	}
	pendientes, err := p.outbox.Pendientes(ctx)
	return enviados, pendientes, err
}

func (p *KafkaPublicador) enviar(ctx context.Context, payload []byte) error {
	var clave struct {
		TenantID string `json:"tenant_id"`
		Tipo     string `json:"tipo"`
	}
	_ = json.Unmarshal(payload, &clave)

	return p.cb.Execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return p.writer.WriteMessages(ctx, kafka.Message{
			Key:     []byte(clave.TenantID),
			Value:   payload,
			Headers: []kafka.Header{{Key: "tipo", Value: []byte(clave.Tipo)}},
		})
	})
}

// CB exposes the breaker so the retry loop can skip ticks while it is open.
func (p *KafkaPublicador) CB() *CircuitBreaker { return p.cb }

func (p *KafkaPublicador) Close() error { return p.writer.Close() }

// ── Redis outbox ──────────────────────────────────────────────────────────────
// A Redis list: new events are pushed on the left, the oldest is popped from
// the right, and a failed retry is pushed back on the right.

const ClaveOutbox = "eventos:outbox"

type OutboxRedis struct {
	rdb   *redis.Client
	clave string
}

func NewOutboxRedis(rdb *redis.Client) *OutboxRedis {
	return &OutboxRedis{rdb: rdb, clave: ClaveOutbox}
}

func (o *OutboxRedis) Guardar(ctx context.Context, payload []byte) error {
	return o.rdb.LPush(ctx, o.clave, payload).Err()
}

func (o *OutboxRedis) Tomar(ctx context.Context) ([]byte, error) {
	b, err := o.rdb.RPop(ctx, o.clave).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (o *OutboxRedis) Devolver(ctx context.Context, payload []byte) error {
	return o.rdb.RPush(ctx, o.clave, payload).Err()
}

func (o *OutboxRedis) Pendientes(ctx context.Context) (int64, error) {
	return o.rdb.LLen(ctx, o.clave).Result()
}
