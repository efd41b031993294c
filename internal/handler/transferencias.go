package handler

import (
	"net/http"

	"tesoreria/internal/apierror"
	"tesoreria/internal/dto"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
)

type TransferenciasHandler struct{ svc service.TransferenciaService }

func NewTransferenciasHandler(svc service.TransferenciaService) *TransferenciasHandler {
	return &TransferenciasHandler{svc: svc}
}

// Transferir godoc
// @Summary Mueve fondos entre dos cuentas del tenant en una sola operacion
// @Tags transferencias
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.TransferenciaRequest true "Transferencia"
// @Success 201 {object} dto.TransferenciaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/transferencias [post]
func (h *TransferenciasHandler) Transferir(c *gin.Context) {
	var req dto.TransferenciaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Transferir(c.Request.Context(), actor(c), req)
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Anular godoc
// @Summary Anula una transferencia con una transferencia compensatoria
// @Tags transferencias
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de transferencia"
// @Success 201 {object} dto.TransferenciaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Router /v1/transferencias/{id}/anular [post]
func (h *TransferenciasHandler) Anular(c *gin.Context) {
	resp, err := h.svc.Anular(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary Obtiene las dos patas de una transferencia
// @Tags transferencias
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de transferencia"
// @Success 200 {object} dto.TransferenciaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/transferencias/{id} [get]
func (h *TransferenciasHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.Obtener(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		apierror.Responder(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
