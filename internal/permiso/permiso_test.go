package permiso

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeRol(t *testing.T) {
	c := DeRol(RolCajero)
	assert.True(t, c.Tiene(CajaOperar))
	assert.False(t, c.Tiene(TransferenciaAnular))

	s := DeRol(RolSupervisor)
	assert.True(t, s.Tiene(CajaOperar))
	assert.True(t, s.Tiene(TransferenciaAnular))
	assert.False(t, s.Tiene(TransferenciaAnularFueraDePlazo))

	a := DeRol(RolAdministrador)
	assert.True(t, a.Tiene(TransferenciaAnularFueraDePlazo))
	assert.True(t, a.Tiene(TesoreriaGestionar))
}

func TestDeRol_Desconocido(t *testing.T) {
	assert.Empty(t, DeRol("invitado"))
	assert.False(t, RolValido("invitado"))
}
