package memstore

import (
	"context"
	"sort"
	"time"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
)

type sesiones struct{ v view }

// Create enforces the same rule as the partial unique index on
// sesiones_caja(tenant_id, punto_de_venta) WHERE estado = 'abierta'.
func (r *sesiones) Create(_ context.Context, s *model.SesionCaja) error {
	if err := requiereTenant(s.TenantID); err != nil {
		return err
	}
	defer r.v.lock()()
	for _, o := range r.v.s.sesiones {
		if o.TenantID == s.TenantID && o.PuntoDeVenta == s.PuntoDeVenta && o.Estado == ledger.EstadoAbierta {
			return ledger.ErrCajaYaAbierta
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now()
	}
	r.v.s.sesiones[s.ID] = *s
	return nil
}

func (r *sesiones) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.SesionCaja, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	s, ok := r.v.s.sesiones[id]
	if !ok || s.TenantID != tenantID {
		return nil, ledger.ErrNoEncontrado
	}
	return &s, nil
}

func (r *sesiones) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.SesionCaja, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *sesiones) FindAbiertaPorPDV(_ context.Context, tenantID uuid.UUID, puntoDeVenta int) (*model.SesionCaja, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	for _, s := range r.v.s.sesiones {
		if s.TenantID == tenantID && s.PuntoDeVenta == puntoDeVenta && s.Estado == ledger.EstadoAbierta {
			return &s, nil
		}
	}
	return nil, ledger.ErrNoEncontrado
}

func (r *sesiones) Update(_ context.Context, s *model.SesionCaja) error {
	if err := requiereTenant(s.TenantID); err != nil {
		return err
	}
	defer r.v.lock()()
	o, ok := r.v.s.sesiones[s.ID]
	if !ok || o.TenantID != s.TenantID {
		return ledger.ErrNoEncontrado
	}
	r.v.s.sesiones[s.ID] = *s
	return nil
}

func (r *sesiones) List(_ context.Context, tenantID uuid.UUID, limit int) ([]model.SesionCaja, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	var out []model.SesionCaja
	for _, s := range r.v.s.sesiones {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
