package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// ReminderLogRepository registro de recordatorios enviados, uno por (tarea, día).
type ReminderLogRepository interface {
	// Claim reserva el envío del día; false si ya estaba reservado.
	Claim(ctx context.Context, ns tenant.Namespace, taskID string, day time.Time) (bool, error)
	// Release libera la reserva (el envío falló y debe poder reintentarse).
	Release(ctx context.Context, ns tenant.Namespace, taskID string, day time.Time) error
}
