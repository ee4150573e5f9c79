// Package scheduler encola los trabajos periódicos (robfig/cron, expresiones con segundos).
package scheduler

import (
	"context"
	"fmt"
	"time"

	cron "gopkg.in/robfig/cron.v2"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/pkg/config"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

// publishTimeout tiempo máximo para encolar un trabajo programado.
const publishTimeout = 10 * time.Second

// Scheduler publica envelopes en la cola según expresiones cron. No ejecuta trabajos.
type Scheduler struct {
	cron      *cron.Cron
	publisher ports.JobPublisher
	log       *logger.Logger
}

// New construye el scheduler sin entradas.
func New(publisher ports.JobPublisher, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{cron: cron.New(), publisher: publisher, log: log}
}

// NewFromConfig registra check_overdue_tasks y cleanup_old_data.
func NewFromConfig(cfg config.JobsConfig, publisher ports.JobPublisher, log *logger.Logger) (*Scheduler, error) {
	s := New(publisher, log)
	if err := s.Add(cfg.OverdueSpec, jobs.CheckOverdue); err != nil {
		return nil, err
	}
	days := cfg.CleanupDays
	if days <= 0 {
		days = jobs.DefaultCleanupDays
	}
	if err := s.Add(cfg.CleanupSpec, func() dto.JobEnvelope { return jobs.Cleanup(days) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Add programa la publicación; build se llama en cada disparo para generar un envelope nuevo.
func (s *Scheduler) Add(spec string, build func() dto.JobEnvelope) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Fire(build()) }); err != nil {
		return fmt.Errorf("scheduler: expresión %q: %w", spec, err)
	}
	return nil
}

// Fire publica el envelope; un fallo solo se registra, el siguiente disparo lo vuelve a intentar.
func (s *Scheduler) Fire(env dto.JobEnvelope) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.log.Error().Err(err).Str("job", env.Name).Msg("no se pudo encolar el trabajo programado")
		return
	}
	s.log.Info().Str("job", env.Name).Str("job_id", env.ID).Msg("trabajo programado encolado")
}

// Entries cantidad de trabajos programados.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Start arranca el cron en su propia goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop detiene el cron; los disparos en curso terminan solos.
func (s *Scheduler) Stop() { s.cron.Stop() }
