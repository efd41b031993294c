package repository

import (
	"context"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SesionCajaRepository interface {
	Create(ctx context.Context, s *model.SesionCaja) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.SesionCaja, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.SesionCaja, error)
	FindAbiertaPorPDV(ctx context.Context, tenantID uuid.UUID, puntoDeVenta int) (*model.SesionCaja, error)
	Update(ctx context.Context, s *model.SesionCaja) error
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.SesionCaja, error)
}

type sesionCajaRepo struct{ db *gorm.DB }

func NewSesionCajaRepository(db *gorm.DB) SesionCajaRepository { return &sesionCajaRepo{db: db} }

func (r *sesionCajaRepo) Create(ctx context.Context, s *model.SesionCaja) error {
	if err := requiereTenant(s.TenantID); err != nil {
		return err
	}
	return duplicado(r.db.WithContext(ctx).Create(s).Error)
}

func (r *sesionCajaRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Scopes(porTenant(tenantID)).Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &s, nil
}

func (r *sesionCajaRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &s, nil
}

func (r *sesionCajaRepo) FindAbiertaPorPDV(ctx context.Context, tenantID uuid.UUID, puntoDeVenta int) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("punto_de_venta = ? AND estado = ?", puntoDeVenta, ledger.EstadoAbierta).
		First(&s).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &s, nil
}

func (r *sesionCajaRepo) Update(ctx context.Context, s *model.SesionCaja) error {
	if err := requiereTenant(s.TenantID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(s).
		Scopes(porTenant(s.TenantID)).
		Select("*").
		Omit("id", "tenant_id").
		Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNoEncontrado
	}
	return nil
}

func (r *sesionCajaRepo) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.SesionCaja, error) {
	var sesiones []model.SesionCaja
	q := r.db.WithContext(ctx).Scopes(porTenant(tenantID)).Order("opened_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sesiones).Error
	return sesiones, err
}
