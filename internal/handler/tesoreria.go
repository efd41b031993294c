package handler

import (
	"net/http"

	"tesoreria/internal/apierror"
	"tesoreria/internal/dto"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type TesoreriaHandler struct{ svc service.TesoreriaService }

func NewTesoreriaHandler(svc service.TesoreriaService) *TesoreriaHandler {
	return &TesoreriaHandler{svc: svc}
}

// CrearCuenta godoc
// @Summary Crea una cuenta de tesoreria
// @Tags tesoreria
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearCuentaTesoreriaRequest true "Cuenta"
// @Success 201 {object} dto.CuentaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Router /v1/tesoreria/cuentas [post]
func (h *TesoreriaHandler) CrearCuenta(c *gin.Context) {
	var req dto.CrearCuentaTesoreriaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearCuenta(c.Request.Context(), actor(c), req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarCuentas godoc
// @Summary Lista las cuentas de tesoreria del tenant
// @Tags tesoreria
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CuentaResponse
// @Router /v1/tesoreria/cuentas [get]
func (h *TesoreriaHandler) ListarCuentas(c *gin.Context) {
	resp, err := h.svc.ListarCuentas(c.Request.Context(), actor(c))
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary Activa o desactiva una cuenta de tesoreria
// @Tags tesoreria
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param body body dto.CambiarEstadoRequest true "Estado"
// @Success 200 {object} dto.CuentaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tesoreria/cuentas/{id}/estado [patch]
func (h *TesoreriaHandler) CambiarEstado(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), actor(c), id, *req.Activa)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un cobro o pago directo en una cuenta de tesoreria
// @Tags tesoreria
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param body body dto.MovimientoRequest true "Movimiento (recibido | pagado)"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/tesoreria/cuentas/{id}/movimientos [post]
func (h *TesoreriaHandler) RegistrarMovimiento(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Resumen godoc
// @Summary Saldos de tesoreria, caja chica y cajas abiertas
// @Tags tesoreria
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ResumenTesoreriaResponse
// @Router /v1/tesoreria/resumen [get]
func (h *TesoreriaHandler) Resumen(c *gin.Context) {
	resp, err := h.svc.Resumen(c.Request.Context(), actor(c))
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CajaChica godoc
// @Summary Obtiene la caja chica del tenant, creandola si no existe
// @Tags caja-chica
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CuentaResponse
// @Router /v1/caja-chica [get]
func (h *TesoreriaHandler) CajaChica(c *gin.Context) {
	resp, err := h.svc.CajaChica(c.Request.Context(), actor(c))
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MovimientoCajaChica godoc
// @Summary Registra un ingreso o gasto de caja chica
// @Tags caja-chica
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoCajaChicaRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/caja-chica/movimientos [post]
func (h *TesoreriaHandler) MovimientoCajaChica(c *gin.Context) {
	var req dto.MovimientoCajaChicaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MovimientoCajaChica(c.Request.Context(), actor(c), req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
