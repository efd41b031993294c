package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Escala is the number of decimal places money is stored with (decimal(14,2)).
const Escala int32 = 2

// Normalizar rounds d to the storage scale.
func Normalizar(d decimal.Decimal) decimal.Decimal {
	return d.Round(Escala)
}

// ValidarMonto requires a strictly positive amount with at most two decimals.
// Zero and negative amounts are both reported as ErrMontoInvalido.
func ValidarMonto(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("el monto debe ser mayor a cero: %w", ErrMontoInvalido)
	}
	if !d.Equal(Normalizar(d)) {
		return fmt.Errorf("el monto admite hasta %d decimales: %w", Escala, ErrMontoInvalido)
	}
	return nil
}

// ValidarMontoNoNegativo accepts zero, used for opening and counted cash.
func ValidarMontoNoNegativo(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("el monto no puede ser negativo: %w", ErrMontoInvalido)
	}
	if !d.Equal(Normalizar(d)) {
		return fmt.Errorf("el monto admite hasta %d decimales: %w", Escala, ErrMontoInvalido)
	}
	return nil
}

// Sumar adds a list of amounts.
func Sumar(montos ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, m := range montos {
		total = total.Add(m)
	}
	return total
}
