package repository

import (
	"errors"
	"fmt"
	"testing"

	"tesoreria/internal/ledger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDuplicado(t *testing.T) {
	unico := func(restriccion string) error {
		return fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: restriccion})
	}

	assert.ErrorIs(t, duplicado(unico("uq_sesiones_abierta_pdv")), ledger.ErrCajaYaAbierta)
	assert.ErrorIs(t, duplicado(unico("uq_cuentas_titular")), ledger.ErrValidacion)
	assert.ErrorIs(t, duplicado(unico("uq_cuentas_tesoreria_metodo")), ledger.ErrValidacion)

	// Other constraints and other errors pass through untouched
	otro := unico("movimientos_secuencia_key")
	assert.Equal(t, otro, duplicado(otro))
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "uq_sesiones_abierta_pdv"}
	assert.Equal(t, error(fk), duplicado(fk))
	plano := errors.New("conexion cerrada")
	assert.Equal(t, plano, duplicado(plano))
	assert.NoError(t, duplicado(nil))
}
