// Package permiso is the closed set of capabilities the money core checks.
// Roles from the JWT are resolved to a capability set once, at the router
// boundary; services only ever see the resolved set.
package permiso

type Permiso string

const (
	CajaOperar                      Permiso = "caja:operar"
	CajaCerrar                      Permiso = "caja:cerrar"
	TransferenciaCrear              Permiso = "transferencias:crear"
	TransferenciaAnular             Permiso = "transferencias:anular"
	TransferenciaAnularFueraDePlazo Permiso = "transferencias:anular_fuera_de_plazo"
	TesoreriaVer                    Permiso = "tesoreria:ver"
	TesoreriaGestionar              Permiso = "tesoreria:gestionar"
	CajaChicaOperar                 Permiso = "caja_chica:operar"
	CuentaCorrienteGestionar        Permiso = "cuentas_corrientes:gestionar"
	PagoRegistrar                   Permiso = "pagos:registrar"
)

const (
	RolCajero        = "cajero"
	RolSupervisor    = "supervisor"
	RolAdministrador = "administrador"
)

var cajero = []Permiso{CajaOperar, CajaCerrar, CajaChicaOperar, PagoRegistrar}

var supervisor = append(append([]Permiso{}, cajero...),
	TransferenciaCrear, TransferenciaAnular, TesoreriaVer, CuentaCorrienteGestionar)

var administrador = append(append([]Permiso{}, supervisor...),
	TransferenciaAnularFueraDePlazo, TesoreriaGestionar)

var porRol = map[string][]Permiso{
	RolCajero:        cajero,
	RolSupervisor:    supervisor,
	RolAdministrador: administrador,
}

// Conjunto is a resolved capability set.
type Conjunto map[Permiso]struct{}

func (c Conjunto) Tiene(p Permiso) bool {
	_, ok := c[p]
	return ok
}

// DeRol resolves a role name. Unknown roles get an empty set.
func DeRol(rol string) Conjunto {
	out := Conjunto{}
	for _, p := range porRol[rol] {
		out[p] = struct{}{}
	}
	return out
}

// De builds a set from explicit capabilities.
func De(ps ...Permiso) Conjunto {
	out := make(Conjunto, len(ps))
	for _, p := range ps {
		out[p] = struct{}{}
	}
	return out
}

func RolValido(rol string) bool {
	_, ok := porRol[rol]
	return ok
}
