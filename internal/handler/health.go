package handler

import (
	"context"
	"net/http"
	"time"

	"tesoreria/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health pings the database and Redis. The database is required. Redis and the
// event broker are optional: nil means "disabled", and an open breaker only
// reports "degraded" because undelivered events wait in the outbox.
//
// @Summary  Health check
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]interface{}
// @Failure  503 {object} map[string]interface{}
// @Router   /health [get]
func Health(db *gorm.DB, rdb *redis.Client, breaker *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		estado := gin.H{
			"db":      pingDB(ctx, db),
			"redis":   pingRedis(ctx, rdb),
			"eventos": estadoEventos(breaker),
		}
		ok := estado["db"] == "connected" && estado["redis"] != "error"
		estado["ok"] = ok

		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, estado)
	}
}

func pingDB(ctx context.Context, db *gorm.DB) string {
	if db == nil {
		return "error"
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return "error"
	}
	return "connected"
}

func pingRedis(ctx context.Context, rdb *redis.Client) string {
	if rdb == nil {
		return "disabled"
	}
	if rdb.Ping(ctx).Err() != nil {
		return "error"
	}
	return "connected"
}

func estadoEventos(cb *infra.CircuitBreaker) string {
	if cb == nil {
		return "disabled"
	}
	if cb.State() == infra.CBOpen {
		return "degraded"
	}
	return "connected"
}
