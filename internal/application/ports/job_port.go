package ports

import (
	"context"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
)

// JobPublisher encola trabajos para el worker. La entrega es al-menos-una-vez:
// la cola externa decide reintentos y dead-letter.
type JobPublisher interface {
	Publish(ctx context.Context, job dto.JobEnvelope) error
}
