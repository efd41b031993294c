// Package eventos defines the domain events emitted after a money operation
// commits. Delivery is best effort and happens outside the unit of work.
package eventos

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TransferenciaRealizada = "transferencia.realizada"
	TransferenciaAnulada   = "transferencia.anulada"
	CajaAbierta            = "caja.abierta"
	CajaCerrada            = "caja.cerrada"
	PagoRegistrado         = "pago.registrado"
	CargoRegistrado        = "cargo.registrado"
)

type Evento struct {
	ID         string         `json:"id"`
	Tipo       string         `json:"tipo"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	UsuarioID  uuid.UUID      `json:"usuario_id"`
	Datos      map[string]any `json:"datos"`
	OcurridoAt time.Time      `json:"ocurrido_at"`
}

// Publicador delivers events to whatever bus is configured.
type Publicador interface {
	Publicar(ctx context.Context, e Evento) error
}

// Nop discards every event. Used when no broker is configured and in tests.
type Nop struct{}

func (Nop) Publicar(context.Context, Evento) error { return nil }

// Memoria keeps published events in a slice; tests read them back.
type Memoria struct {
	mu      sync.Mutex
	eventos []Evento
}

func (m *Memoria) Publicar(_ context.Context, e Evento) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventos = append(m.eventos, e)
	return nil
}

func (m *Memoria) Eventos() []Evento {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Evento(nil), m.eventos...)
}

func (m *Memoria) Tipos() []string {
	eventos := m.Eventos()
	out := make([]string, 0, len(eventos))
	for _, e := range eventos {
		out = append(out, e.Tipo)
	}
	return out
}
