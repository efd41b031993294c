// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"tesoreria/internal/ledger"
	"tesoreria/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

const mensajeInterno = "Error interno del servidor"

// Status maps a service error to its HTTP status. Anything that is not a
// known domain error is an infrastructure failure.
func Status(err error) int {
	switch {
	case errors.Is(err, ledger.ErrPermisoInsuficiente):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrTenantRequerido):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNoEncontrado):
		return http.StatusNotFound
	case ledger.EsDominio(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Responder writes err as the API envelope. Domain errors carry their message;
// infrastructure errors are logged with the request context and answered with
// a generic message.
func Responder(c *gin.Context, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("tenant_id", c.GetString("tenant_id")).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("error interno")
		c.AbortWithStatusJSON(status, New(mensajeInterno))
		return
	}
	c.AbortWithStatusJSON(status, New(err.Error()))
}
