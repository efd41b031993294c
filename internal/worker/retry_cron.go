package worker

// retry_cron.go
// Background goroutine that periodically republishes domain events parked in
// the outbox while the broker was unreachable. Uses the Circuit Breaker to
// avoid hammering a downed broker.

import (
	"context"
	"time"

	"tesoreria/internal/infra"
	"tesoreria/internal/obs"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 50
)

// Reintentador republishes parked events. *infra.KafkaPublicador satisfies it.
type Reintentador interface {
	Reintentar(ctx context.Context, max int) (enviados int, pendientes int64, err error)
	CB() *infra.CircuitBreaker
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// drains the outbox through the CB. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, r Reintentador) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, r)
			}
		}
	}()
}

// processRetries runs one tick. Returns how many events went out.
func processRetries(ctx context.Context, r Reintentador) int {
	// If CB is open, skip entirely
	if r.CB().State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return 0
	}

	enviados, pendientes, err := r.Reintentar(ctx, retryBatchSize)
	obs.EventosPendientes(pendientes)
	if err != nil {
		log.Warn().Err(err).Int("enviados", enviados).Int64("pendientes", pendientes).Msg("retry_cron: outbox retry interrupted")
		return enviados
	}
	if enviados > 0 {
		log.Info().Int("enviados", enviados).Int64("pendientes", pendientes).Msg("retry_cron: eventos republicados")
	}
	return enviados
}
