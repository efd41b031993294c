package ledger

import (
	"errors"
	"fmt"
)

// Validation errors: rejected before any state is touched.
var (
	ErrValidacion     = errors.New("datos invalidos")
	ErrMontoInvalido  = errors.New("monto invalido")
	ErrTipoMovimiento = errors.New("tipo de movimiento invalido")
)

// Lookup errors. A row owned by another tenant is reported exactly like a missing one.
var (
	ErrNoEncontrado      = errors.New("recurso no encontrado")
	ErrCargoNoEncontrado = errors.New("cargo no encontrado")
)

// Domain errors: the unit of work is rolled back and nothing is written.
var (
	ErrSaldoInsuficiente     = errors.New("saldo insuficiente")
	ErrLibroInactivo         = errors.New("la cuenta esta inactiva")
	ErrCuentaInactiva        = errors.New("la cuenta corriente esta inactiva")
	ErrCajaYaAbierta         = errors.New("ya existe una caja abierta en este punto de venta")
	ErrCajaCerrada           = errors.New("la caja esta cerrada")
	ErrImputacionExcedePago  = errors.New("las imputaciones superan el monto del pago")
	ErrImputacionExcedeSaldo = errors.New("la imputacion supera el saldo pendiente del cargo")
	ErrCargoNoImputable      = errors.New("el cargo no admite imputaciones")
	ErrCargoConPagos         = errors.New("el cargo tiene pagos imputados")
	ErrTransferenciaAnulada  = errors.New("la transferencia ya fue anulada")
	ErrFueraDePlazo          = errors.New("solo se pueden anular transferencias del dia")
)

// ErrPermisoInsuficiente is returned when the actor lacks a capability the operation needs.
var ErrPermisoInsuficiente = errors.New("permisos insuficientes")

// Validacion wraps a field-level message as ErrValidacion.
func Validacion(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidacion)
}

// EsDominio reports whether err is a business-rule rejection rather than an
// infrastructure failure. Used to pick the log level and the metric label.
func EsDominio(err error) bool {
	for _, e := range []error{
		ErrValidacion, ErrMontoInvalido, ErrTipoMovimiento,
		ErrNoEncontrado, ErrCargoNoEncontrado,
		ErrSaldoInsuficiente, ErrLibroInactivo, ErrCuentaInactiva,
		ErrCajaYaAbierta, ErrCajaCerrada,
		ErrImputacionExcedePago, ErrImputacionExcedeSaldo, ErrCargoNoImputable, ErrCargoConPagos,
		ErrTransferenciaAnulada, ErrFueraDePlazo, ErrPermisoInsuficiente,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Motivo returns a short stable label for err, used as a metric label.
func Motivo(err error) string {
	switch {
	case errors.Is(err, ErrSaldoInsuficiente):
		return "saldo_insuficiente"
	case errors.Is(err, ErrLibroInactivo), errors.Is(err, ErrCuentaInactiva):
		return "cuenta_inactiva"
	case errors.Is(err, ErrCajaCerrada):
		return "caja_cerrada"
	case errors.Is(err, ErrCajaYaAbierta):
		return "caja_ya_abierta"
	case errors.Is(err, ErrImputacionExcedePago), errors.Is(err, ErrImputacionExcedeSaldo):
		return "imputacion_excedida"
	case errors.Is(err, ErrCargoNoEncontrado), errors.Is(err, ErrNoEncontrado):
		return "no_encontrado"
	case errors.Is(err, ErrPermisoInsuficiente), errors.Is(err, ErrFueraDePlazo):
		return "permiso"
	case EsDominio(err):
		return "validacion"
	default:
		return "interno"
	}
}
