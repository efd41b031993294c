package ledger

// VerificarActiva rejects postings on a ledger that is not accepting movements.
// Closed registers report ErrCajaCerrada, inactive running accounts
// ErrCuentaInactiva and any other inactive ledger ErrLibroInactivo.
func VerificarActiva(t Tipo, estado string) error {
	switch t {
	case TipoCaja:
		if estado != EstadoAbierta {
			return ErrCajaCerrada
		}
	case TipoCuentaCorriente:
		if estado != EstadoActiva {
			return ErrCuentaInactiva
		}
	default:
		if estado != EstadoActiva {
			return ErrLibroInactivo
		}
	}
	return nil
}
