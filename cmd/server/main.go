package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tesoreria/internal/config"
	"tesoreria/internal/eventos"
	"tesoreria/internal/infra"
	"tesoreria/internal/middleware"
	"tesoreria/internal/obs"
	"tesoreria/internal/repository"
	"tesoreria/internal/router"
	"tesoreria/internal/service"
	"tesoreria/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title           Tesoreria API
// @version         1.0
// @description     Multi-tenant ledgers for registers, treasury, petty cash and running accounts.
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	zona, err := cfg.Zona()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid time zone")
	}

	if cfg.AutoMigrate {
		if err := infra.Migrar(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	obs.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Domain events go to Kafka when brokers are configured. Events that cannot
	// be delivered are parked in the Redis outbox and retried by the cron.
	var pub eventos.Publicador = eventos.Nop{}
	var kafkaPub *infra.KafkaPublicador
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		var outbox infra.Outbox
		if rdb != nil {
			outbox = infra.NewOutboxRedis(rdb)
		}
		cbCfg := infra.DefaultCBConfig()
		cbCfg.OnChange = func(nombre string, s infra.CBState) { obs.BreakerEstado(nombre, int(s)) }
		kafkaPub = infra.NewKafkaPublicador(brokers, cfg.KafkaTopic, infra.NewCircuitBreaker("kafka", cbCfg), outbox)
		pub = kafkaPub
		worker.StartRetryCron(ctx, kafkaPub)
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("event publishing enabled")
	}

	// Closing reports are generated asynchronously. Without Redis there is no
	// queue; the nil interface makes the register service skip them.
	var cola service.ColaReportes
	if rdb != nil {
		dispatcher := worker.NewDispatcher(rdb)
		cola = dispatcher

		mailer := infra.NewMailer(cfg)
		handlers := &worker.Handlers{
			ReporteCierre: worker.NewReporteCierreWorker(infra.GenerarReporteCierrePDF, cfg.PDFStoragePath, cfg.ReporteCierreEmail, dispatcher),
		}
		if mailer.Configurado() {
			handlers.Email = worker.NewEmailWorker(mailer)
		}
		worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
	}

	lim, err := middleware.NewLimiter(cfg.RateLimit, rdb)
	if err != nil {
		log.Fatal().Err(err).Str("rate_limit", cfg.RateLimit).Msg("invalid rate limit")
	}

	var breaker *infra.CircuitBreaker
	if kafkaPub != nil {
		breaker = kafkaPub.CB()
	}

	r := router.New(cfg, router.Deps{
		Store:   repository.NewStore(db),
		DB:      db,
		Redis:   rdb,
		Eventos: pub,
		Cola:    cola,
		Limiter: lim,
		Breaker: breaker,
		Reloj:   service.NewReloj(zona),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("tesoreria listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka writer close")
		}
	}
	log.Info().Msg("server exited")
}
