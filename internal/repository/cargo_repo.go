package repository

import (
	"context"
	"fmt"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CargoRepository handles charges and the allocations that settle them.
type CargoRepository interface {
	Create(ctx context.Context, c *model.Cargo) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Cargo, error)
	// FindForUpdate locks charges of one running account in id order.
	// A charge of another account or tenant is reported as ErrCargoNoEncontrado.
	FindForUpdate(ctx context.Context, tenantID, cuentaID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*model.Cargo, error)
	Update(ctx context.Context, c *model.Cargo) error
	ListByCuenta(ctx context.Context, tenantID, cuentaID uuid.UUID, soloPendientes bool) ([]model.Cargo, error)
	CreateImputacion(ctx context.Context, i *model.Imputacion) error
	ListImputacionesByCargo(ctx context.Context, tenantID, cargoID uuid.UUID) ([]model.Imputacion, error)
}

type cargoRepo struct{ db *gorm.DB }

func NewCargoRepository(db *gorm.DB) CargoRepository { return &cargoRepo{db: db} }

func (r *cargoRepo) Create(ctx context.Context, c *model.Cargo) error {
	if err := requiereTenant(c.TenantID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cargoRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Cargo, error) {
	var c model.Cargo
	err := r.db.WithContext(ctx).Scopes(porTenant(tenantID)).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrCargoNoEncontrado)
	}
	return &c, nil
}

func (r *cargoRepo) FindForUpdate(ctx context.Context, tenantID, cuentaID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*model.Cargo, error) {
	ids = ordenarIDs(ids)
	var cargos []model.Cargo
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cuenta_id = ? AND id IN ?", cuentaID, ids).
		Order("id").
		Find(&cargos).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*model.Cargo, len(cargos))
	for i := range cargos {
		out[cargos[i].ID] = &cargos[i]
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("cargo %s: %w", id, ledger.ErrCargoNoEncontrado)
		}
	}
	return out, nil
}

func (r *cargoRepo) Update(ctx context.Context, c *model.Cargo) error {
	if err := requiereTenant(c.TenantID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(c).
		Scopes(porTenant(c.TenantID)).
		Select("*").
		Omit("id", "tenant_id").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNoEncontrado
	}
	return nil
}

func (r *cargoRepo) ListByCuenta(ctx context.Context, tenantID, cuentaID uuid.UUID, soloPendientes bool) ([]model.Cargo, error) {
	var cargos []model.Cargo
	q := r.db.WithContext(ctx).Scopes(porTenant(tenantID)).Where("cuenta_id = ?", cuentaID)
	if soloPendientes {
		q = q.Where("estado IN ?", []string{ledger.CargoPendiente, ledger.CargoParcial})
	}
	err := q.Order("vencimiento ASC NULLS LAST, created_at ASC").Find(&cargos).Error
	return cargos, err
}

func (r *cargoRepo) CreateImputacion(ctx context.Context, i *model.Imputacion) error {
	if err := requiereTenant(i.TenantID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *cargoRepo) ListImputacionesByCargo(ctx context.Context, tenantID, cargoID uuid.UUID) ([]model.Imputacion, error) {
	var imps []model.Imputacion
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("cargo_id = ?", cargoID).
		Order("created_at ASC").
		Find(&imps).Error
	return imps, err
}
