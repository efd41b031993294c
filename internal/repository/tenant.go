package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantRequerido is an internal error: a query reached the store without a tenant.
var ErrTenantRequerido = errors.New("tenant_id requerido")

// porTenant is applied to every query. A missing tenant fails the statement
// instead of silently matching every row.
func porTenant(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantRequerido)
			return db
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// noEncontrado maps gorm's not-found to the domain error. Rows owned by
// another tenant never match porTenant, so they land here too.
func noEncontrado(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func requiereTenant(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return ErrTenantRequerido
	}
	return nil
}
