package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CuentaRepository reads and writes ledgers. Saldo is only written through
// UpdateSaldo, right after the movement that justifies it.
type CuentaRepository interface {
	Create(ctx context.Context, c *model.Cuenta) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Cuenta, error)
	// FindForUpdate locks the rows in ascending id order. Every id must exist for the tenant.
	FindForUpdate(ctx context.Context, tenantID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*model.Cuenta, error)
	List(ctx context.Context, tenantID uuid.UUID, tipo ledger.Tipo) ([]model.Cuenta, error)
	FindTesoreriaPorMetodo(ctx context.Context, tenantID uuid.UUID, metodo string) (*model.Cuenta, error)
	FindTesoreriaEfectivo(ctx context.Context, tenantID uuid.UUID) (*model.Cuenta, error)
	FindCajaChica(ctx context.Context, tenantID uuid.UUID) (*model.Cuenta, error)
	FindPorTitular(ctx context.Context, tenantID uuid.UUID, titularTipo string, titularID uuid.UUID) (*model.Cuenta, error)
	UpdateSaldo(ctx context.Context, tenantID, id uuid.UUID, saldo decimal.Decimal) error
	UpdateEstado(ctx context.Context, tenantID, id uuid.UUID, estado string) error
}

type cuentaRepo struct{ db *gorm.DB }

func NewCuentaRepository(db *gorm.DB) CuentaRepository { return &cuentaRepo{db: db} }

func (r *cuentaRepo) Create(ctx context.Context, c *model.Cuenta) error {
	if err := requiereTenant(c.TenantID); err != nil {
		return err
	}
	return duplicado(r.db.WithContext(ctx).Create(c).Error)
}

func (r *cuentaRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Cuenta, error) {
	var c model.Cuenta
	err := r.db.WithContext(ctx).Scopes(porTenant(tenantID)).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &c, nil
}

func (r *cuentaRepo) FindForUpdate(ctx context.Context, tenantID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*model.Cuenta, error) {
	ids = ordenarIDs(ids)
	var cuentas []model.Cuenta
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&cuentas).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*model.Cuenta, len(cuentas))
	for i := range cuentas {
		out[cuentas[i].ID] = &cuentas[i]
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("cuenta %s: %w", id, ledger.ErrNoEncontrado)
		}
	}
	return out, nil
}

func (r *cuentaRepo) List(ctx context.Context, tenantID uuid.UUID, tipo ledger.Tipo) ([]model.Cuenta, error) {
	var cuentas []model.Cuenta
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("tipo = ?", string(tipo)).
		Order("created_at ASC").
		Find(&cuentas).Error
	return cuentas, err
}

func (r *cuentaRepo) FindTesoreriaPorMetodo(ctx context.Context, tenantID uuid.UUID, metodo string) (*model.Cuenta, error) {
	var c model.Cuenta
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("tipo = ? AND metodo_pago = ? AND estado = ?", string(ledger.TipoTesoreria), metodo, ledger.EstadoActiva).
		Order("created_at ASC").
		First(&c).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &c, nil
}

// FindTesoreriaEfectivo resolves the treasury account that funds registers:
// the one settling cash, else the oldest active cash-class account.
func (r *cuentaRepo) FindTesoreriaEfectivo(ctx context.Context, tenantID uuid.UUID) (*model.Cuenta, error) {
	c, err := r.FindTesoreriaPorMetodo(ctx, tenantID, ledger.MetodoEfectivo)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ledger.ErrNoEncontrado) {
		return nil, err
	}
	var fallback model.Cuenta
	err = r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("tipo = ? AND clase = ? AND estado = ?", string(ledger.TipoTesoreria), ledger.ClaseEfectivo, ledger.EstadoActiva).
		Order("created_at ASC").
		First(&fallback).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &fallback, nil
}

func (r *cuentaRepo) FindCajaChica(ctx context.Context, tenantID uuid.UUID) (*model.Cuenta, error) {
	var c model.Cuenta
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("tipo = ?", string(ledger.TipoCajaChica)).
		First(&c).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &c, nil
}

func (r *cuentaRepo) FindPorTitular(ctx context.Context, tenantID uuid.UUID, titularTipo string, titularID uuid.UUID) (*model.Cuenta, error) {
	var c model.Cuenta
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("tipo = ? AND titular_tipo = ? AND titular_id = ?", string(ledger.TipoCuentaCorriente), titularTipo, titularID).
		First(&c).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &c, nil
}

func (r *cuentaRepo) UpdateSaldo(ctx context.Context, tenantID, id uuid.UUID, saldo decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cuenta{}).
		Scopes(porTenant(tenantID)).
		Where("id = ?", id).
		Updates(map[string]interface{}{"saldo": saldo, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNoEncontrado
	}
	return nil
}

func (r *cuentaRepo) UpdateEstado(ctx context.Context, tenantID, id uuid.UUID, estado string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cuenta{}).
		Scopes(porTenant(tenantID)).
		Where("id = ?", id).
		Updates(map[string]interface{}{"estado": estado, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return duplicado(res.Error)
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNoEncontrado
	}
	return nil
}

// ordenarIDs returns the distinct ids in ascending byte order, the order rows are locked in.
func ordenarIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
