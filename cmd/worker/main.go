package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/mail"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/queue"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/Proyectos-api/pkg/config"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
	"github.com/jhoicas/Proyectos-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Msg("iniciando worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	metrics.Register()

	publisher := queue.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer publisher.Close()

	mailer := mail.New(cfg.SMTP, log)
	if !cfg.SMTP.Enabled() {
		log.Warn().Msg("SMTP_HOST vacío: los correos solo se registran en el log")
	}

	svc := jobs.NewService(postgres.NewRepos(pool), mailer, publisher, log)

	sched, err := scheduler.NewFromConfig(cfg.Jobs, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("programación de trabajos")
	}
	sched.Start()
	defer sched.Stop()

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, svc.Handle,
		queue.ConsumerOptions{JobTimeout: 2 * time.Minute}, log)
	defer consumer.Close()

	if err := consumer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("consumidor finalizado")
	}
	log.Info().Msg("worker detenido")
}
