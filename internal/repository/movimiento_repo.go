package repository

import (
	"context"

	"tesoreria/internal/ledger"
	"tesoreria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TotalMovimiento is one GROUP BY (tipo, metodo_pago, categoria) row over a ledger's movements.
type TotalMovimiento struct {
	Tipo       string
	MetodoPago string
	Categoria  string
	Monto      decimal.Decimal
}

// MovimientoRepository is append-only: there is no Update and no Delete.
type MovimientoRepository interface {
	Create(ctx context.Context, m *model.Movimiento) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Movimiento, error)
	// ListByCuenta returns movements in commit order. limit <= 0 returns all of them.
	ListByCuenta(ctx context.Context, tenantID, cuentaID uuid.UUID, limit int) ([]model.Movimiento, error)
	FindByTransferencia(ctx context.Context, tenantID uuid.UUID, transferenciaID string) ([]model.Movimiento, error)
	Totales(ctx context.Context, tenantID, cuentaID uuid.UUID) ([]TotalMovimiento, error)
}

type movimientoRepo struct{ db *gorm.DB }

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository { return &movimientoRepo{db: db} }

func (r *movimientoRepo) Create(ctx context.Context, m *model.Movimiento) error {
	if err := requiereTenant(m.TenantID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimientoRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Movimiento, error) {
	var m model.Movimiento
	err := r.db.WithContext(ctx).Scopes(porTenant(tenantID)).Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, noEncontrado(err, ledger.ErrNoEncontrado)
	}
	return &m, nil
}

func (r *movimientoRepo) ListByCuenta(ctx context.Context, tenantID, cuentaID uuid.UUID, limit int) ([]model.Movimiento, error) {
	var movs []model.Movimiento
	q := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("cuenta_id = ?", cuentaID).
		Order("secuencia ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movs).Error
	return movs, err
}

func (r *movimientoRepo) FindByTransferencia(ctx context.Context, tenantID uuid.UUID, transferenciaID string) ([]model.Movimiento, error) {
	var movs []model.Movimiento
	err := r.db.WithContext(ctx).
		Scopes(porTenant(tenantID)).
		Where("transferencia_id = ?", transferenciaID).
		Order("secuencia ASC").
		Find(&movs).Error
	return movs, err
}

func (r *movimientoRepo) Totales(ctx context.Context, tenantID, cuentaID uuid.UUID) ([]TotalMovimiento, error) {
	var rows []TotalMovimiento
	err := r.db.WithContext(ctx).
		Model(&model.Movimiento{}).
		Scopes(porTenant(tenantID)).
		Select("tipo, COALESCE(metodo_pago, '') AS metodo_pago, COALESCE(categoria, '') AS categoria, SUM(monto) AS monto").
		Where("cuenta_id = ?", cuentaID).
		Group("tipo, metodo_pago, categoria").
		Scan(&rows).Error
	return rows, err
}
