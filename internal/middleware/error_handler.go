package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"tesoreria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler answers errors attached with c.Error by a handler that did not
// write a response itself. The status comes from apierror, so domain errors
// keep their 4xx and anything unknown becomes a bare 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		apierror.Responder(c, c.Errors.Last().Err)
	}
}

// Recovery turns a panic into a 500. The stack goes to the log, never to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("tenant_id", c.GetString(TenantIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request. 5xx log at error, 4xx at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		nivel := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			nivel = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			nivel = zerolog.WarnLevel
		}
		log.WithLevel(nivel).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("tenant_id", c.GetString(TenantIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
