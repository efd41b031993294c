package worker

// dlq.go: dead letter queue.
// Jobs that fail MaxIntentos times, or that no processor understands, end up
// in dlq:{original_queue} for inspection. Reprocesar puts them back.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// enviarADLQ parks job with the error that made it fail. A Redis failure here
// is only logged: the job is lost, which the log line records.
func enviarADLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, causa error) {
	data, err := json.Marshal(DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        causa.Error(),
		FailedAt:      time.Now().UTC(),
		Attempts:      job.Attempts,
	})
	if err == nil {
		err = rdb.LPush(ctx, DLQPrefix+queue, data).Err()
	}
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Str("type", job.Type).Msg("dlq: job perdido")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("type", job.Type).
		Int("attempts", job.Attempts).
		AnErr("causa", causa).
		Msg("dlq: job movido a la cola de fallidos")
}

// DLQLength returns the number of entries parked for queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// Reprocesar moves up to n entries from the DLQ of queue back to it with the
// attempt counter reset. Returns how many were moved.
func Reprocesar(ctx context.Context, rdb *redis.Client, queue string, n int) (int, error) {
	movidos := 0
	for movidos < n {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return movidos, err
		}
		var entry DLQEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("dlq: entrada ilegible descartada")
			continue
		}
		if err := push(ctx, rdb, entry.OriginalQueue, Job{Type: entry.JobType, Payload: entry.Payload}); err != nil {
			_ = rdb.RPush(ctx, DLQPrefix+queue, raw).Err()
			return movidos, err
		}
		movidos++
	}
	return movidos, nil
}
