package handler

import (
	"net/http"

	"tesoreria/internal/apierror"
	"tesoreria/internal/dto"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

// CuentasHandler exposes the operations shared by every ledger kind.
type CuentasHandler struct{ svc service.LibroService }

func NewCuentasHandler(svc service.LibroService) *CuentasHandler { return &CuentasHandler{svc: svc} }

// Saldo godoc
// @Summary Saldo actual de una cuenta
// @Tags cuentas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Success 200 {object} dto.SaldoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cuentas/{id}/saldo [get]
func (h *CuentasHandler) Saldo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Saldo(c.Request.Context(), actor(c), id)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos godoc
// @Summary Ultimos movimientos de una cuenta, del mas reciente al mas antiguo
// @Tags cuentas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param limit query int false "Cantidad maxima" default(100)
// @Success 200 {array} dto.MovimientoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cuentas/{id}/movimientos [get]
func (h *CuentasHandler) Movimientos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var f dto.MovimientoFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.Movimientos(c.Request.Context(), actor(c), id, f.Limit)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Registrar godoc
// @Summary Registra un movimiento manual admitido por el tipo de la cuenta
// @Tags cuentas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param body body dto.MovimientoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cuentas/{id}/movimientos [post]
func (h *CuentasHandler) Registrar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Verificar godoc
// @Summary Reconstruye el saldo desde los movimientos y lo compara con el cache
// @Tags cuentas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Success 200 {object} dto.VerificacionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cuentas/{id}/verificacion [get]
func (h *CuentasHandler) Verificar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Verificar(c.Request.Context(), actor(c), id)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
