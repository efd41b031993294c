// Package ledger holds the pure rules shared by every ledger kind: which
// movement types each kind accepts, the sign each type applies to the running
// balance, money normalization and the domain errors. Nothing here touches
// storage; services call into it from inside a unit of work.
package ledger

// Tipo is the ledger kind. It decides the legal movement types and their sign.
type Tipo string

const (
	TipoCaja            Tipo = "caja"             // register session (ephemeral)
	TipoTesoreria       Tipo = "tesoreria"        // named treasury account
	TipoCajaChica       Tipo = "caja_chica"       // petty cash fund, one per tenant
	TipoCuentaCorriente Tipo = "cuenta_corriente" // customer / supplier running account
)

// Valido reports whether t is one of the four ledger kinds.
func (t Tipo) Valido() bool {
	switch t {
	case TipoCaja, TipoTesoreria, TipoCajaChica, TipoCuentaCorriente:
		return true
	}
	return false
}

// TipoMovimiento enumerates every movement type across all ledger kinds.
type TipoMovimiento string

const (
	// caja
	MovVenta           TipoMovimiento = "venta"
	MovVentaNoEfectivo TipoMovimiento = "venta_no_efectivo"
	MovEgreso          TipoMovimiento = "egreso"
	MovSobrante        TipoMovimiento = "sobrante_arqueo"
	MovFaltante        TipoMovimiento = "faltante_arqueo"

	// caja y caja chica
	MovIngreso TipoMovimiento = "ingreso"

	// caja chica
	MovGasto TipoMovimiento = "gasto"

	// tesoreria
	MovRecibido TipoMovimiento = "recibido"
	MovPagado   TipoMovimiento = "pagado"

	// caja, caja chica y tesoreria
	MovTransferenciaEntrada TipoMovimiento = "transferencia_entrada"
	MovTransferenciaSalida  TipoMovimiento = "transferencia_salida"

	// cuenta corriente
	MovCargo         TipoMovimiento = "cargo"
	MovPago          TipoMovimiento = "pago"
	MovAjusteDebito  TipoMovimiento = "ajuste_debito"
	MovAjusteCredito TipoMovimiento = "ajuste_credito"
)

// Ledger status values. Registers use abierta/cerrada, everything else activa/inactiva.
const (
	EstadoActiva   = "activa"
	EstadoInactiva = "inactiva"
	EstadoAbierta  = "abierta"
	EstadoCerrada  = "cerrada"
)

// Treasury account classes.
const (
	ClaseEfectivo  = "efectivo"
	ClaseBanco     = "banco"
	ClaseOperativa = "operativa"
)

// Running account holders.
const (
	TitularCliente   = "cliente"
	TitularProveedor = "proveedor"
)

// Tender instruments accepted by sale settlements and running-account payments.
const (
	MetodoEfectivo        = "efectivo"
	MetodoTarjetaDebito   = "tarjeta_debito"
	MetodoTarjetaCredito  = "tarjeta_credito"
	MetodoTransferencia   = "transferencia"
	MetodoQR              = "qr"
	MetodoCuentaCorriente = "cuenta_corriente"
	MetodoCheque          = "cheque"
	MetodoOtro            = "otro"
)

// MetodosPago lists the instruments in the order they are reported at close.
var MetodosPago = []string{
	MetodoEfectivo,
	MetodoTarjetaDebito,
	MetodoTarjetaCredito,
	MetodoTransferencia,
	MetodoQR,
	MetodoCuentaCorriente,
	MetodoCheque,
	MetodoOtro,
}

// Charge status values.
const (
	CargoPendiente = "pendiente"
	CargoParcial   = "parcial"
	CargoPagado    = "pagado"
	CargoAnulado   = "anulado"
	CargoEnDisputa = "en_disputa"
)
