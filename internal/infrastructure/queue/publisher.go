// Package queue adapta la cola de trabajos sobre Kafka (segmentio/kafka-go).
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

var _ ports.JobPublisher = (*Publisher)(nil)

// Writer subconjunto de kafka.Writer que usa el publicador (inyectable en tests).
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implementa ports.JobPublisher escribiendo envelopes JSON en el topic de trabajos.
// La clave del mensaje es el namespace: los trabajos de una misma empresa caen en la misma partición.
type Publisher struct {
	writer Writer
	log    *logger.Logger
}

// NewPublisher crea el publicador contra los brokers y el topic dados.
func NewPublisher(brokers []string, topic string, log *logger.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w, log)
}

// NewPublisherWithWriter permite inyectar un writer (tests).
func NewPublisherWithWriter(w Writer, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{writer: w, log: log}
}

// Publish serializa el envelope y lo escribe en Kafka.
func (p *Publisher) Publish(ctx context.Context, job dto.JobEnvelope) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: serializar %s: %w", job.Name, err)
	}
	msg := kafka.Message{
		Key:   []byte(job.Namespace),
		Value: b,
		Headers: []kafka.Header{
			{Key: "job", Value: []byte(job.Name)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().Err(err).Str("job", job.Name).Str("job_id", job.ID).Msg("kafka write error")
		return fmt.Errorf("queue: publicar %s: %w", job.Name, err)
	}
	p.log.Debug().Str("job", job.Name).Str("job_id", job.ID).Str("schema", job.Namespace).Msg("trabajo encolado")
	return nil
}

// Close cierra el writer subyacente.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
