package handler

import (
	"net/http"
	"strconv"

	"tesoreria/internal/apierror"
	"tesoreria/internal/dto"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre una sesion de caja fondeada desde tesoreria
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.SesionCajaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cajas/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), actor(c), req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary Arquea y cierra la sesion, barriendo el efectivo declarado a tesoreria
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.CerrarCajaRequest true "Efectivo declarado"
// @Success 200 {object} dto.ReporteCajaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un ingreso o egreso manual en la caja
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.MovimientoManualRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cajas/{id}/movimientos [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoManualRequest
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

// RegistrarVenta godoc
// @Summary Registra la liquidacion de una venta con uno o varios medios de pago
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.RegistrarVentaRequest true "Venta"
// @Success 201 {object} dto.VentaRegistradaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cajas/{id}/ventas [post]
func (h *CajaHandler) RegistrarVenta(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Retirar godoc
// @Summary Retira efectivo de la caja hacia tesoreria o caja chica
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.MovimientoFondosRequest true "Retiro"
// @Success 201 {object} dto.TransferenciaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cajas/{id}/retiros [post]
func (h *CajaHandler) Retirar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoFondosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Retirar(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Depositar godoc
// @Summary Ingresa efectivo a la caja desde tesoreria o caja chica
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Param body body dto.MovimientoFondosRequest true "Deposito"
// @Success 201 {object} dto.TransferenciaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cajas/{id}/depositos [post]
func (h *CajaHandler) Depositar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoFondosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Depositar(c.Request.Context(), actor(c), id, req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ObtenerReporte godoc
// @Summary Obtiene el reporte de una sesion de caja
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesion"
// @Success 200 {object} dto.ReporteCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/reporte [get]
func (h *CajaHandler) ObtenerReporte(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerReporte(c.Request.Context(), actor(c), id)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetActiva godoc
// @Summary Obtiene la sesion abierta de un punto de venta
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param punto_de_venta query int false "Punto de venta" default(1)
// @Success 200 {object} dto.SesionCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/activa [get]
func (h *CajaHandler) GetActiva(c *gin.Context) {
	pdv, err := strconv.Atoi(c.DefaultQuery("punto_de_venta", "1"))
	if err != nil || pdv < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("punto_de_venta invalido"))
		return
	}
	resp, err := h.svc.GetActiva(c.Request.Context(), actor(c), pdv)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary Lista las ultimas sesiones de caja del tenant
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Cantidad maxima" default(30)
// @Success 200 {array} dto.SesionCajaResponse
// @Router /v1/cajas [get]
func (h *CajaHandler) Historial(c *gin.Context) {
	var f dto.HistorialCajaFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.Historial(c.Request.Context(), actor(c), f.Limit)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
