package service

import (
	"context"
	"time"

	"tesoreria/internal/dto"
	"tesoreria/internal/eventos"
	"tesoreria/internal/ids"
	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/obs"
	"tesoreria/internal/permiso"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Actor is the caller of an operation: tenant, user and the capabilities
// resolved from the user's role at the HTTP boundary.
type Actor struct {
	TenantID  uuid.UUID
	UsuarioID uuid.UUID
	Permisos  permiso.Conjunto
}

func (a Actor) requiere(p permiso.Permiso) error {
	if a.TenantID == uuid.Nil {
		return repository.ErrTenantRequerido
	}
	if !a.Permisos.Tiene(p) {
		return ledger.ErrPermisoInsuficiente
	}
	return nil
}

func (a Actor) autenticado() error {
	if a.TenantID == uuid.Nil {
		return repository.ErrTenantRequerido
	}
	return nil
}

// Reloj supplies the current time and the business time zone that decides
// what "the same day" means for transfer voids.
type Reloj struct {
	ahora func() time.Time
	zona  *time.Location
}

func NewReloj(zona *time.Location) Reloj {
	if zona == nil {
		zona = time.UTC
	}
	return Reloj{ahora: time.Now, zona: zona}
}

func (r Reloj) Ahora() time.Time {
	if r.ahora == nil {
		return time.Now()
	}
	return r.ahora()
}

func (r Reloj) MismoDia(a, b time.Time) bool {
	zona := r.zona
	if zona == nil {
		zona = time.UTC
	}
	ya, ma, da := a.In(zona).Date()
	yb, mb, db := b.In(zona).Date()
	return ya == yb && ma == mb && da == db
}

// emitir publishes an event after commit. A failed publish is logged and never
// reported to the caller: the money operation already happened.
func emitir(ctx context.Context, pub eventos.Publicador, actor Actor, tipo string, datos map[string]any) {
	if pub == nil {
		return
	}
	ev := eventos.Evento{
		ID:         ids.Nuevo(),
		Tipo:       tipo,
		TenantID:   actor.TenantID,
		UsuarioID:  actor.UsuarioID,
		Datos:      datos,
		OcurridoAt: time.Now().UTC(),
	}
	if err := pub.Publicar(ctx, ev); err != nil {
		log.Warn().Err(err).Str("evento", tipo).Str("tenant_id", actor.TenantID.String()).Msg("evento no publicado")
	}
}

// contar records committed movements in the metrics.
func contar(movs ...*model.Movimiento) {
	for _, m := range movs {
		if m != nil {
			obs.MovimientoRegistrado(m.TipoCuenta, m.Tipo)
		}
	}
}

// rechazo counts a failed operation and logs it at the level its class deserves.
func rechazo(err error, op string, actor Actor) error {
	if err == nil {
		return nil
	}
	obs.OperacionRechazada(ledger.Motivo(err))
	if ledger.EsDominio(err) {
		log.Info().Err(err).Str("op", op).Str("tenant_id", actor.TenantID.String()).Msg("operacion rechazada")
	} else {
		log.Error().Err(err).Str("op", op).Str("tenant_id", actor.TenantID.String()).Msg("operacion fallida")
	}
	return err
}

// ── Mappers ───────────────────────────────────────────────────────────────────

const formatoFecha = "2006-01-02T15:04:05Z07:00"

func movimientoToResponse(m *model.Movimiento) dto.MovimientoResponse {
	r := dto.MovimientoResponse{
		ID:              m.ID.String(),
		CuentaID:        m.CuentaID.String(),
		TipoCuenta:      m.TipoCuenta,
		Tipo:            m.Tipo,
		Monto:           m.Monto,
		Concepto:        m.Concepto,
		Referencia:      m.Referencia,
		MetodoPago:      m.MetodoPago,
		Categoria:       m.Categoria,
		TransferenciaID: m.TransferenciaID,
		SaldoAnterior:   m.SaldoAnterior,
		SaldoPosterior:  m.SaldoPosterior,
		Secuencia:       m.Secuencia,
		UsuarioID:       m.UsuarioID.String(),
		CreatedAt:       m.CreatedAt.Format(formatoFecha),
	}
	if m.ReversionDe != nil {
		s := m.ReversionDe.String()
		r.ReversionDe = &s
	}
	return r
}

func movimientosToResponse(movs []*model.Movimiento) []dto.MovimientoResponse {
	out := make([]dto.MovimientoResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, movimientoToResponse(m))
	}
	return out
}

func cuentaToResponse(c *model.Cuenta) dto.CuentaResponse {
	r := dto.CuentaResponse{
		ID:          c.ID.String(),
		Tipo:        c.Tipo,
		Nombre:      c.Nombre,
		Clase:       c.Clase,
		MetodoPago:  c.MetodoPago,
		TitularTipo: c.TitularTipo,
		Saldo:       c.Saldo,
		Estado:      c.Estado,
		CreatedAt:   c.CreatedAt.Format(formatoFecha),
	}
	if c.TitularID != nil {
		s := c.TitularID.String()
		r.TitularID = &s
	}
	return r
}

func cargoToResponse(c *model.Cargo) dto.CargoResponse {
	r := dto.CargoResponse{
		ID:           c.ID.String(),
		CuentaID:     c.CuentaID.String(),
		MovimientoID: c.MovimientoID.String(),
		Concepto:     c.Concepto,
		Comprobante:  c.Comprobante,
		Monto:        c.Monto,
		MontoPagado:  c.MontoPagado,
		Saldo:        c.Saldo(),
		Pagado:       c.Pagado,
		Estado:       c.Estado,
		CreatedAt:    c.CreatedAt.Format(formatoFecha),
	}
	if c.Vencimiento != nil {
		s := c.Vencimiento.Format("2006-01-02")
		r.Vencimiento = &s
	}
	if c.PagadoAt != nil {
		s := c.PagadoAt.Format(formatoFecha)
		r.PagadoAt = &s
	}
	return r
}

func strPtr(s string) *string { return &s }

func parseID(raw, campo string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ledger.Validacion("%s invalido", campo)
	}
	return id, nil
}
