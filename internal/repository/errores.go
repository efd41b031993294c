package repository

import (
	"errors"

	"tesoreria/internal/ledger"

	"github.com/jackc/pgx/v5/pgconn"
)

const codigoUnicidad = "23505"

// duplicado translates a unique violation raised by a concurrent writer into
// the domain error the read-then-insert check would have produced.
func duplicado(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codigoUnicidad {
		return err
	}
	switch pgErr.ConstraintName {
	case "uq_sesiones_abierta_pdv":
		return ledger.ErrCajaYaAbierta
	case "uq_cuentas_titular":
		return ledger.Validacion("el titular ya tiene cuenta corriente")
	case "uq_cuentas_tesoreria_metodo":
		return ledger.Validacion("ya existe una cuenta activa para el metodo de pago")
	}
	return err
}
