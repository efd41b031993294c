package memstore

import (
	"context"
	"time"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"
	"tesoreria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type movimientos struct{ v view }

func (r *movimientos) Create(_ context.Context, m *model.Movimiento) error {
	if err := requiereTenant(m.TenantID); err != nil {
		return err
	}
	defer r.v.lock()()
	if f := r.v.s.FallarMovimiento; f != nil {
		if err := f(m); err != nil {
			return err
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.v.s.seq++
	m.Secuencia = r.v.s.seq
	r.v.s.movimientos = append(r.v.s.movimientos, *m)
	return nil
}

func (r *movimientos) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Movimiento, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	for _, m := range r.v.s.movimientos {
		if m.ID == id && m.TenantID == tenantID {
			return &m, nil
		}
	}
	return nil, ledger.ErrNoEncontrado
}

func (r *movimientos) ListByCuenta(_ context.Context, tenantID, cuentaID uuid.UUID, limit int) ([]model.Movimiento, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	var out []model.Movimiento
	for _, m := range r.v.s.movimientos {
		if m.TenantID == tenantID && m.CuentaID == cuentaID {
			out = append(out, m)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *movimientos) FindByTransferencia(_ context.Context, tenantID uuid.UUID, transferenciaID string) ([]model.Movimiento, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	var out []model.Movimiento
	for _, m := range r.v.s.movimientos {
		if m.TenantID == tenantID && m.TransferenciaID != nil && *m.TransferenciaID == transferenciaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movimientos) Totales(_ context.Context, tenantID, cuentaID uuid.UUID) ([]repository.TotalMovimiento, error) {
	if err := requiereTenant(tenantID); err != nil {
		return nil, err
	}
	defer r.v.lock()()
	type clave struct{ tipo, metodo, categoria string }
	sums := map[clave]decimal.Decimal{}
	var orden []clave
	for _, m := range r.v.s.movimientos {
		if m.TenantID != tenantID || m.CuentaID != cuentaID {
			continue
		}
		k := clave{tipo: m.Tipo}
		if m.MetodoPago != nil {
			k.metodo = *m.MetodoPago
		}
		if m.Categoria != nil {
			k.categoria = *m.Categoria
		}
		if _, ok := sums[k]; !ok {
			orden = append(orden, k)
		}
		sums[k] = sums[k].Add(m.Monto)
	}
	out := make([]repository.TotalMovimiento, 0, len(orden))
	for _, k := range orden {
		out = append(out, repository.TotalMovimiento{Tipo: k.tipo, MetodoPago: k.metodo, Categoria: k.categoria, Monto: sums[k]})
	}
	return out, nil
}
