package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
	"github.com/jhoicas/Proyectos-api/pkg/metrics"
)

// Reader subconjunto de kafka.Reader que usa el consumidor (inyectable en tests).
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler procesa un envelope. jobs.Service.Handle cumple esta firma.
type Handler func(ctx context.Context, env dto.JobEnvelope) error

// ConsumerOptions ajustes del consumidor.
type ConsumerOptions struct {
	// JobTimeout tiempo máximo por intento.
	JobTimeout time.Duration
	// MaxAttempts intentos por mensaje antes de descartarlo.
	MaxAttempts int
	// Backoff espera entre intentos (se duplica en cada uno).
	Backoff time.Duration
}

func (o ConsumerOptions) withDefaults() ConsumerOptions {
	if o.JobTimeout <= 0 {
		o.JobTimeout = 2 * time.Minute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	return o
}

// Consumer lee el topic de trabajos con un consumer group y despacha cada envelope.
// El offset se confirma solo cuando el trabajo termina bien, cuando el error es permanente
// o cuando se agotan los intentos.
type Consumer struct {
	reader Reader
	handle Handler
	opts   ConsumerOptions
	log    *logger.Logger
}

// NewConsumer crea el consumidor contra Kafka.
func NewConsumer(brokers []string, topic, groupID string, handle Handler, opts ConsumerOptions, log *logger.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return NewConsumerWithReader(r, handle, opts, log)
}

// NewConsumerWithReader permite inyectar un reader (tests).
func NewConsumerWithReader(r Reader, handle Handler, opts ConsumerOptions, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{reader: r, handle: handle, opts: opts.withDefaults(), log: log}
}

// Run procesa mensajes hasta que se cancele ctx.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Msg("consumidor de trabajos iniciado")
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn().Err(err).Msg("error leyendo mensaje")
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		c.process(ctx, m)
		if ctx.Err() != nil {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Error().Err(err).Int64("offset", m.Offset).Msg("no se pudo confirmar el offset")
		}
	}
}

// process ejecuta el trabajo con reintentos. Sale sin error solo si hay que confirmar el mensaje.
func (c *Consumer) process(ctx context.Context, m kafka.Message) {
	var env dto.JobEnvelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.log.Error().Err(err).Int64("offset", m.Offset).Msg("mensaje inválido descartado")
		return
	}
	log := c.log.Job(env.Name, env.Namespace)

	backoff := c.opts.Backoff
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		start := time.Now()
		jobCtx, cancel := context.WithTimeout(ctx, c.opts.JobTimeout)
		err := c.handle(jobCtx, env)
		cancel()
		metrics.ObserveJob(env.Name, start, err)

		if err == nil {
			log.Debug().Str("job_id", env.ID).Dur("elapsed", time.Since(start)).Msg("trabajo completado")
			return
		}
		if IsPermanent(err) {
			log.Error().Err(err).Str("job_id", env.ID).Msg("trabajo descartado")
			return
		}
		log.Warn().Err(err).Str("job_id", env.ID).Int("attempt", attempt).Msg("trabajo falló")
		if attempt == c.opts.MaxAttempts || !sleep(ctx, backoff) {
			break
		}
		backoff *= 2
	}
	if ctx.Err() == nil {
		log.Error().Str("job_id", env.ID).Int("attempts", c.opts.MaxAttempts).Msg("intentos agotados, trabajo descartado")
	}
}

// Close cierra el reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// IsPermanent indica si reintentar el trabajo no puede cambiar el resultado.
func IsPermanent(err error) bool {
	var verr *domain.ValidationError
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, jobs.ErrUnknownJob) ||
		errors.Is(err, jobs.ErrBadPayload) ||
		errors.As(err, &verr)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
