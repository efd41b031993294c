package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tesoreria/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReporteCierre = "jobs:reporte_cierre"
	QueueEmail         = "jobs:email"

	TipoReporteCierre = "reporte_cierre"
	TipoEmail         = "email"

	// MaxIntentos is how many times a job runs before it goes to the DLQ.
	MaxIntentos = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Procesador handles one job type. A returned error makes the job retry.
type Procesador interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Handlers routes job types to their processors. A nil entry drops the job with a warning.
type Handlers struct {
	ReporteCierre Procesador
	Email         Procesador
}

var errTipoDesconocido = errors.New("tipo de job desconocido")

func (h *Handlers) despachar(ctx context.Context, job Job) error {
	var p Procesador
	switch job.Type {
	case TipoReporteCierre:
		p = h.ReporteCierre
	case TipoEmail:
		p = h.Email
	default:
		return fmt.Errorf("%w: %q", errTipoDesconocido, job.Type)
	}
	if p == nil {
		log.Warn().Str("type", job.Type).Msg("worker: sin procesador, job descartado")
		return nil
	}
	return p.Process(ctx, job.Payload)
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReporteCierre pushes a closing report job. A dispatcher without Redis
// drops the job.
func (d *Dispatcher) EnqueueReporteCierre(ctx context.Context, job dto.ReporteCierreJob) error {
	return d.enqueue(ctx, QueueReporteCierre, TipoReporteCierre, job)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, TipoEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, h *Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, h, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

const (
	esperaInicial = time.Second
	esperaMaxima  = 30 * time.Second
)

// siguienteEspera doubles the pause after a failed pop, up to esperaMaxima.
func siguienteEspera(actual time.Duration) time.Duration {
	if actual <= 0 {
		return esperaInicial
	}
	if actual >= esperaMaxima/2 {
		return esperaMaxima
	}
	return actual * 2
}

func runWorker(ctx context.Context, rdb *redis.Client, h *Handlers, id int) {
	queues := []string{QueueReporteCierre, QueueEmail}
	var espera time.Duration
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			if err != nil {
				espera = siguienteEspera(espera)
				log.Warn().Err(err).Int("worker", id).Dur("espera", espera).Msg("worker: redis no disponible")
				select {
				case <-ctx.Done():
				case <-time.After(espera):
				}
				continue
			}
			espera = 0
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, h, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, h *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		bruto, _ := json.Marshal(raw)
		enviarADLQ(ctx, rdb, queue, Job{Type: "ilegible", Payload: bruto}, err)
		return
	}

	err := h.despachar(ctx, job)
	if err == nil {
		log.Info().Str("type", job.Type).Str("queue", queue).Int("attempts", job.Attempts+1).Msg("job processed")
		return
	}

	job.Attempts++
	if job.Attempts >= MaxIntentos || errors.Is(err, errTipoDesconocido) {
		enviarADLQ(ctx, rdb, queue, job, err)
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeued")
	if pErr := push(ctx, rdb, queue, job); pErr != nil {
		log.Error().Err(pErr).Str("queue", queue).Msg("requeue failed")
	}
}
