// Package mocks dobles de los puertos de salida (correo, cola, PDF) con testify/mock.
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
)

// Mailer mock de ports.Mailer.
type Mailer struct {
	mock.Mock
}

func (m *Mailer) Send(ctx context.Context, msg ports.Email) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// Publisher registra los envelopes publicados. Err, si no es nil, se devuelve en cada Publish.
type Publisher struct {
	mu   sync.Mutex
	Jobs []dto.JobEnvelope
	Err  error
}

func (p *Publisher) Publish(ctx context.Context, job dto.JobEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Jobs = append(p.Jobs, job)
	return nil
}

// Named devuelve los envelopes publicados con ese nombre.
func (p *Publisher) Named(name string) []dto.JobEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []dto.JobEnvelope
	for _, j := range p.Jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

// PDF mock de ports.ReportPDFGenerator.
type PDF struct {
	mock.Mock
}

func (m *PDF) GenerateProjectReportPDF(ctx context.Context, companyName string, report *dto.ProjectReport) ([]byte, error) {
	args := m.Called(ctx, companyName, report)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

var (
	_ ports.Mailer             = (*Mailer)(nil)
	_ ports.JobPublisher       = (*Publisher)(nil)
	_ ports.ReportPDFGenerator = (*PDF)(nil)
)
