package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cuentas struct{ v view }

func (r *cuentas) Create(_ context.Context, c *model.Cuenta) error {
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
	r.v.s.cuentas[c.ID] = *c
	return nil
}

func (r *cuentas) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Cuenta, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	c, ok := r.v.s.cuentas[id]
	if !ok || c.TenantID != tenantID {
		return nil, ledger.ErrNoEncontrado
	}
	return &c, nil
}

func (r *cuentas) FindForUpdate(_ context.Context, tenantID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*model.Cuenta, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	out := make(map[uuid.UUID]*model.Cuenta, len(ids))
	for _, id := range ids {
		c, ok := r.v.s.cuentas[id]
		if !ok || c.TenantID != tenantID {
			return nil, fmt.Errorf("cuenta %s: %w", id, ledger.ErrNoEncontrado)
		}
		out[id] = &c
	}
	return out, nil
}

func (r *cuentas) List(_ context.Context, tenantID uuid.UUID, tipo ledger.Tipo) ([]model.Cuenta, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	return r.filtrar(tenantID, func(c model.Cuenta) bool { return c.Tipo == string(tipo) }), nil
}

func (r *cuentas) FindTesoreriaPorMetodo(_ context.Context, tenantID uuid.UUID, metodo string) (*model.Cuenta, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	return primera(r.filtrar(tenantID, func(c model.Cuenta) bool {
		return c.Tipo == string(ledger.TipoTesoreria) && c.Estado == ledger.EstadoActiva &&
			c.MetodoPago != nil && *c.MetodoPago == metodo
	}))
}

func (r *cuentas) FindTesoreriaEfectivo(ctx context.Context, tenantID uuid.UUID) (*model.Cuenta, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	if c, err := r.FindTesoreriaPorMetodo(ctx, tenantID, ledger.MetodoEfectivo); err == nil {
		return c, nil
	}
	defer r.v.lock()()
	return primera(r.filtrar(tenantID, func(c model.Cuenta) bool {
		return c.Tipo == string(ledger.TipoTesoreria) && c.Estado == ledger.EstadoActiva &&
			c.Clase != nil && *c.Clase == ledger.ClaseEfectivo
	}))
}

func (r *cuentas) FindCajaChica(_ context.Context, tenantID uuid.UUID) (*model.Cuenta, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	return primera(r.filtrar(tenantID, func(c model.Cuenta) bool { return c.Tipo == string(ledger.TipoCajaChica) }))
}

func (r *cuentas) FindPorTitular(_ context.Context, tenantID uuid.UUID, titularTipo string, titularID uuid.UUID) (*model.Cuenta, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	return primera(r.filtrar(tenantID, func(c model.Cuenta) bool {
		return c.Tipo == string(ledger.TipoCuentaCorriente) &&
			c.TitularTipo != nil && *c.TitularTipo == titularTipo &&
			c.TitularID != nil && *c.TitularID == titularID
	}))
}

func (r *cuentas) UpdateSaldo(_ context.Context, tenantID, id uuid.UUID, saldo decimal.Decimal) error {
	return r.modificar(tenantID, id, func(c *model.Cuenta) { c.Saldo = saldo })
}

func (r *cuentas) UpdateEstado(_ context.Context, tenantID, id uuid.UUID, estado string) error {
	return r.modificar(tenantID, id, func(c *model.Cuenta) { c.Estado = estado })
}

func (r *cuentas) modificar(tenantID, id uuid.UUID, fn func(c *model.Cuenta)) error {
	if err := requiereTenant(tenantID); err != nil {
		return err
	}
	defer r.v.lock()()
	c, ok := r.v.s.cuentas[id]
	if !ok || c.TenantID != tenantID {
		return ledger.ErrNoEncontrado
	}
	fn(&c)
	c.UpdatedAt = time.Now()
	r.v.s.cuentas[id] = c
	return nil
}

// filtrar must be called with the lock held. Results are ordered by creation time.
func (r *cuentas) filtrar(tenantID uuid.UUID, keep func(model.Cuenta) bool) []model.Cuenta {
	var out []model.Cuenta
	for _, c := range r.v.s.cuentas {
		if c.TenantID == tenantID && keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func primera(cs []model.Cuenta) (*model.Cuenta, error) {
	if len(cs) == 0 {
		return nil, ledger.ErrNoEncontrado
	}
	c := cs[0]
	return &c, nil
}
