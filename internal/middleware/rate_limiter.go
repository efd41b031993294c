package middleware

import (
	"net/http"
	"strconv"

	"tesoreria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const prefijoRateLimit = "tesoreria:ratelimit"

// NewLimiter builds a limiter from a formatted rate ("200-M"). Counters live in
// Redis when a client is given so every replica shares them; otherwise in memory.
func NewLimiter(formato string, rdb *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formato)
	if err != nil {
		return nil, err
	}
	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
			Prefix:   prefijoRateLimit,
			MaxRetry: 3,
		})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefijoRateLimit})
	}
	return limiter.New(store, rate), nil
}

// RateLimiter limits requests per tenant once authenticated, per IP before.
// A failing store lets the request through: throttling is not worth an outage.
func RateLimiter(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if t := c.GetString(TenantIDKey); t != "" {
			key = "tenant:" + t
		}

		ctx, err := l.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limiter no disponible")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		if ctx.Reached {
			c.Header("Retry-After", strconv.FormatInt(ctx.Reset, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}
