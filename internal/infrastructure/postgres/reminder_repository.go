package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

var _ repository.ReminderLogRepository = (*ReminderRepo)(nil)

// ReminderRepo registro de recordatorios enviados (task_reminders), uno por tarea y día UTC.
type ReminderRepo struct {
	q Querier
}

// NewReminderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReminderRepository(q Querier) *ReminderRepo {
	return &ReminderRepo{q: q}
}

// Claim inserta la fila del día; si ya existía no inserta y devuelve false.
func (r *ReminderRepo) Claim(ctx context.Context, ns tenant.Namespace, taskID string, day time.Time) (bool, error) {
	query := `
		INSERT INTO ` + table(ns, "task_reminders") + ` (task_id, day, sent_at)
		VALUES ($1, $2::date, now())
		ON CONFLICT (task_id, day) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, taskID, day.UTC().Format("2006-01-02"))
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release borra la fila del día para permitir un nuevo intento.
func (r *ReminderRepo) Release(ctx context.Context, ns tenant.Namespace, taskID string, day time.Time) error {
	query := `DELETE FROM ` + table(ns, "task_reminders") + ` WHERE task_id = $1 AND day = $2::date`
	if _, err := r.q.Exec(ctx, query, taskID, day.UTC().Format("2006-01-02")); err != nil {
		return fmt.Errorf("release reminder: %w", err)
	}
	return nil
}
