package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// TaskFilter filtros del listado de tareas. AccessibleTo vacío = sin restricción
// (solo lo usan los trabajos internos; los handlers siempre lo llenan).
type TaskFilter struct {
	AccessibleTo string
	ProjectID    string
	Status       string
	AssignedTo   string
	Limit        int
	Offset       int
}

// TaskStats resultado crudo de los agregados de un proyecto.
// Lo produce la DB; el use case lo convierte en DTO.
type TaskStats struct {
	Total          int
	ByStatus       map[string]int
	ByPriority     map[string]int
	Overdue        int             // due_date < now y status todo|in_progress
	CompletionRate decimal.Decimal // done / total * 100, 2 decimales
}

// TaskRepository puerto de persistencia para tareas.
type TaskRepository interface {
	Create(ctx context.Context, ns tenant.Namespace, t *entity.Task) error
	// GetByID incluye ProjectName. nil, nil si no existe.
	GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.Task, error)
	Update(ctx context.Context, ns tenant.Namespace, t *entity.Task) error
	Delete(ctx context.Context, ns tenant.Namespace, id string) error
	// List más recientes primero.
	List(ctx context.Context, ns tenant.Namespace, f TaskFilter) ([]*entity.Task, error)
	Count(ctx context.Context, ns tenant.Namespace, f TaskFilter) (int, error)
	CountByStatus(ctx context.Context, ns tenant.Namespace, f TaskFilter) (map[string]int, error)
	ProjectStats(ctx context.Context, ns tenant.Namespace, projectID string, now time.Time) (*TaskStats, error)
	// ListOverdue tareas con due_date < now y status distinto de done.
	ListOverdue(ctx context.Context, ns tenant.Namespace, now time.Time) ([]*entity.Task, error)
	// DeleteCompletedBefore borra tareas done con completed_at < cutoff; devuelve cuántas.
	DeleteCompletedBefore(ctx context.Context, ns tenant.Namespace, cutoff time.Time) (int64, error)
}

// CompletionRate done/total*100 con 2 decimales; 0 si no hay tareas.
func CompletionRate(done, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(done)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
