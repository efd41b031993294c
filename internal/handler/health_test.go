package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tesoreria/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_SinBaseDeDatos(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cb := infra.NewCircuitBreaker("kafka", infra.CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(func() error { return errors.New("broker caido") })

	r := gin.New()
	r.GET("/health", Health(nil, nil, cb))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["db"])
	assert.Equal(t, "disabled", body["redis"])
	assert.Equal(t, "degraded", body["eventos"])
	assert.Equal(t, false, body["ok"])
}
