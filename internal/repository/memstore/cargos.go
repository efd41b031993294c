package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
)

type cargos struct{ v view }

func (r *cargos) Create(_ context.Context, c *model.Cargo) error {
	if err := requiereTenant(c.TenantID); err != nil {
		return err
	}
	defer r.v.lock()()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.v.s.cargos[c.ID] = *c
	return nil
}

func (r *cargos) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Cargo, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	c, ok := r.v.s.cargos[id]
	if !ok || c.TenantID != tenantID {
		return nil, ledger.ErrCargoNoEncontrado
	}
	return &c, nil
}

func (r *cargos) FindForUpdate(_ context.Context, tenantID, cuentaID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*model.Cargo, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	out := make(map[uuid.UUID]*model.Cargo, len(ids))
	for _, id := range ids {
		c, ok := r.v.s.cargos[id]
		if !ok || c.TenantID != tenantID || c.CuentaID != cuentaID {
			return nil, fmt.Errorf("cargo %s: %w", id, ledger.ErrCargoNoEncontrado)
		}
		out[id] = &c
	}
	return out, nil
}

func (r *cargos) Update(_ context.Context, c *model.Cargo) error {
	if err := requiereTenant(c.TenantID); err != nil {
		return err
	}
	defer r.v.lock()()
	o, ok := r.v.s.cargos[c.ID]
	if !ok || o.TenantID != c.TenantID {
		return ledger.ErrCargoNoEncontrado
	}
	c.UpdatedAt = time.Now()
	r.v.s.cargos[c.ID] = *c
	return nil
}

func (r *cargos) ListByCuenta(_ context.Context, tenantID, cuentaID uuid.UUID, soloPendientes bool) ([]model.Cargo, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	var out []model.Cargo
	for _, c := range r.v.s.cargos {
		if c.TenantID != tenantID || c.CuentaID != cuentaID {
			continue
		}
		if soloPendientes && c.Estado != ledger.CargoPendiente && c.Estado != ledger.CargoParcial {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *cargos) CreateImputacion(_ context.Context, i *model.Imputacion) error {
	if err := requiereTenant(i.TenantID); err != nil {
		return err
	}
	defer r.v.lock()()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	r.v.s.imputaciones = append(r.v.s.imputaciones, *i)
	return nil
}

func (r *cargos) ListImputacionesByCargo(_ context.Context, tenantID, cargoID uuid.UUID) ([]model.Imputacion, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	var out []model.Imputacion
	for _, i := range r.v.s.imputaciones {
		if i.TenantID == tenantID && i.CargoID == cargoID {
			out = append(out, i)
		}
	}
	return out, nil
}
