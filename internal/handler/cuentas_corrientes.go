package handler

import (
	"net/http"

	"tesoreria/internal/apierror"
	"tesoreria/internal/dto"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type CuentasCorrientesHandler struct {
	svc service.CuentaCorrienteService
}

func NewCuentasCorrientesHandler(svc service.CuentaCorrienteService) *CuentasCorrientesHandler {
	return &CuentasCorrientesHandler{svc: svc}
}

// Crear godoc
// @Summary Abre la cuenta corriente de un cliente o proveedor
// @Tags cuentas-corrientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearCuentaCorrienteRequest true "Titular"
// @Success 201 {object} dto.CuentaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cuentas-corrientes [post]
func (h *CuentasCorrientesHandler) Crear(c *gin.Context) {
	var req dto.CrearCuentaCorrienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), actor(c), req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CambiarEstado godoc
// @Summary Activa o bloquea una cuenta corriente
// @Tags cuentas-corrientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param body body dto.CambiarEstadoRequest true "Estado"
// @Success 200 {object} dto.CuentaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cuentas-corrientes/{id}/estado [patch]
func (h *CuentasCorrientesHandler) CambiarEstado(c *gin.Context) {
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

// RegistrarCargo godoc
// @Summary Registra un cargo (factura) en la cuenta corriente
// @Tags cuentas-corrientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param body body dto.RegistrarCargoRequest true "Cargo"
// @Success 201 {object} dto.CargoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cuentas-corrientes/{id}/cargos [post]
func (h *CuentasCorrientesHandler) RegistrarCargo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarCargoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarCargo(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarCargos godoc
// @Summary Lista los cargos de la cuenta corriente
// @Tags cuentas-corrientes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param pendientes query bool false "Solo cargos con saldo pendiente"
// @Success 200 {array} dto.CargoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cuentas-corrientes/{id}/cargos [get]
func (h *CuentasCorrientesHandler) ListarCargos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var f dto.CargoFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListarCargos(c.Request.Context(), actor(c), id, f.Pendientes)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarPago godoc
// @Summary Registra un pago y lo imputa contra cargos pendientes
// @Tags cuentas-corrientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cuenta"
// @Param body body dto.RegistrarPagoRequest true "Pago"
// @Success 201 {object} dto.PagoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/cuentas-corrientes/{id}/pagos [post]
func (h *CuentasCorrientesHandler) RegistrarPago(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AnularCargo godoc
// @Summary Anula un cargo sin pagos con un ajuste compensatorio
// @Tags cuentas-corrientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cargo"
// @Param body body dto.AnularCargoRequest true "Motivo"
// @Success 200 {object} dto.CargoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cargos/{id}/anular [post]
func (h *CuentasCorrientesHandler) AnularCargo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AnularCargoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AnularCargo(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarDisputa godoc
// @Summary Marca o desmarca un cargo como disputado
// @Tags cuentas-corrientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cargo"
// @Param body body dto.DisputaRequest true "Disputa"
// @Success 200 {object} dto.CargoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cargos/{id}/disputa [post]
func (h *CuentasCorrientesHandler) CambiarDisputa(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.DisputaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarDisputa(c.Request.Context(), actor(c), id, *req.EnDisputa)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
