package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

var _ repository.TaskRepository = (*TaskRepo)(nil)

// TaskRepo tareas del schema de la empresa.
type TaskRepo struct {
	q Querier
}

// NewTaskRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTaskRepository(q Querier) *TaskRepo {
	return &TaskRepo{q: q}
}

func selectTask(ns tenant.Namespace) string {
	return `
		SELECT t.id, t.project_id, t.title, t.description, t.priority, t.status,
		       t.assigned_to::text, t.created_by, t.due_date, t.completed_at, t.created_at, t.updated_at,
		       p.name
		FROM ` + table(ns, "tasks") + ` t
		JOIN ` + table(ns, "projects") + ` p ON p.id = t.project_id`
}

// taskWhere traduce el filtro a condiciones; devuelve el WHERE y los argumentos.
func taskWhere(ns tenant.Namespace, f repository.TaskFilter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.AccessibleTo != "" {
		n := arg(f.AccessibleTo)
		conds = append(conds, `(p.owner_id::text = `+n+` OR EXISTS (
			SELECT 1 FROM `+table(ns, "project_members")+` m
			WHERE m.project_id = p.id AND m.user_id::text = `+n+`))`)
	}
	if f.ProjectID != "" {
		conds = append(conds, "t.project_id::text = "+arg(f.ProjectID))
	}
	if f.Status != "" {
		conds = append(conds, "t.status = "+arg(f.Status))
	}
	if f.AssignedTo != "" {
		conds = append(conds, "t.assigned_to::text = "+arg(f.AssignedTo))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Create inserta la tarea.
func (r *TaskRepo) Create(ctx context.Context, ns tenant.Namespace, t *entity.Task) error {
	query := `
		INSERT INTO ` + table(ns, "tasks") + ` (id, project_id, title, description, priority, status,
			assigned_to, created_by, due_date, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.ProjectID, t.Title, t.Description, t.Priority, t.Status,
		t.AssignedTo, t.CreatedBy, t.DueDate, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert task: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID obtiene la tarea con el nombre de su proyecto.
func (r *TaskRepo) GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.Task, error) {
	t, err := scanTask(r.q.QueryRow(ctx, selectTask(ns)+` WHERE t.id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Update persiste todos los campos editables.
func (r *TaskRepo) Update(ctx context.Context, ns tenant.Namespace, t *entity.Task) error {
	query := `
		UPDATE ` + table(ns, "tasks") + `
		SET project_id = $2, title = $3, description = $4, priority = $5, status = $6,
		    assigned_to = $7, due_date = $8, completed_at = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.ProjectID, t.Title, t.Description, t.Priority, t.Status,
		t.AssignedTo, t.DueDate, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		if isInvalidID(err) || isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra la tarea.
func (r *TaskRepo) Delete(ctx context.Context, ns tenant.Namespace, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM `+table(ns, "tasks")+` WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List tareas filtradas, más recientes primero.
func (r *TaskRepo) List(ctx context.Context, ns tenant.Namespace, f repository.TaskFilter) ([]*entity.Task, error) {
	where, args := taskWhere(ns, f)
	args = append(args, f.Limit, f.Offset)
	query := selectTask(ns) + where + fmt.Sprintf(`
		ORDER BY t.created_at DESC, t.id
		LIMIT NULLIF($%d::int, 0) OFFSET $%d`, len(args)-1, len(args))
	return r.list(ctx, "list tasks", query, args...)
}

// Count total con el mismo filtro de List (sin paginar).
func (r *TaskRepo) Count(ctx context.Context, ns tenant.Namespace, f repository.TaskFilter) (int, error) {
	where, args := taskWhere(ns, f)
	query := `SELECT COUNT(*) FROM ` + table(ns, "tasks") + ` t
		JOIN ` + table(ns, "projects") + ` p ON p.id = t.project_id` + where
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// CountByStatus conteo por estado con el filtro dado.
func (r *TaskRepo) CountByStatus(ctx context.Context, ns tenant.Namespace, f repository.TaskFilter) (map[string]int, error) {
	where, args := taskWhere(ns, f)
	query := `SELECT t.status, COUNT(*) FROM ` + table(ns, "tasks") + ` t
		JOIN ` + table(ns, "projects") + ` p ON p.id = t.project_id` + where + `
		GROUP BY t.status`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

// ProjectStats agregados de un proyecto en una sola pasada.
// completion_rate = done / total × 100 redondeado a 2 decimales (NUMERIC → decimal.Decimal).
func (r *TaskRepo) ProjectStats(ctx context.Context, ns tenant.Namespace, projectID string, now time.Time) (*repository.TaskStats, error) {
	const statsQuery = `
	SELECT
	    COUNT(*)                                                          AS total,
	    COUNT(*) FILTER (WHERE status = 'todo')                           AS todo,
	    COUNT(*) FILTER (WHERE status = 'in_progress')                    AS in_progress,
	    COUNT(*) FILTER (WHERE status = 'review')                         AS review,
	    COUNT(*) FILTER (WHERE status = 'done')                           AS done,
	    COUNT(*) FILTER (WHERE priority = 'low')                          AS low,
	    COUNT(*) FILTER (WHERE priority = 'medium')                       AS medium,
	    COUNT(*) FILTER (WHERE priority = 'high')                         AS high,
	    COUNT(*) FILTER (WHERE priority = 'urgent')                       AS urgent,
	    COUNT(*) FILTER (WHERE due_date < $2
	                       AND status IN ('todo', 'in_progress'))         AS overdue,
	    COALESCE(ROUND(COUNT(*) FILTER (WHERE status = 'done') * 100.0
	                   / NULLIF(COUNT(*), 0), 2), 0)                      AS completion_rate
	FROM %s
	WHERE project_id = $1`

	var (
		total, todo, inProgress, review, done int
		low, medium, high, urgent, overdue    int
		rate                                  decimal.Decimal
	)
	err := r.q.QueryRow(ctx, fmt.Sprintf(statsQuery, table(ns, "tasks")), projectID, now).Scan(
		&total, &todo, &inProgress, &review, &done,
		&low, &medium, &high, &urgent, &overdue, &rate,
	)
	if err != nil {
		if isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("project stats: %w", err)
	}
	return &repository.TaskStats{
		Total: total,
		ByStatus: map[string]int{
			entity.TaskTodo:       todo,
			entity.TaskInProgress: inProgress,
			entity.TaskReview:     review,
			entity.TaskDone:       done,
		},
		ByPriority: map[string]int{
			entity.PriorityLow:    low,
			entity.PriorityMedium: medium,
			entity.PriorityHigh:   high,
			entity.PriorityUrgent: urgent,
		},
		Overdue:        overdue,
		CompletionRate: rate,
	}, nil
}

// ListOverdue tareas vencidas y no terminadas.
func (r *TaskRepo) ListOverdue(ctx context.Context, ns tenant.Namespace, now time.Time) ([]*entity.Task, error) {
	query := selectTask(ns) + `
		WHERE t.due_date < $1 AND t.status <> 'done'
		ORDER BY t.due_date, t.id`
	return r.list(ctx, "list overdue tasks", query, now)
}

// DeleteCompletedBefore borra tareas done completadas antes del corte.
func (r *TaskRepo) DeleteCompletedBefore(ctx context.Context, ns tenant.Namespace, cutoff time.Time) (int64, error) {
	query := `DELETE FROM ` + table(ns, "tasks") + ` WHERE status = 'done' AND completed_at < $1`
	tag, err := r.q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TaskRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Task, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*entity.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(row pgxScanner) (*entity.Task, error) {
	var t entity.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.AssignedTo, &t.CreatedBy, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
		&t.ProjectName,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
