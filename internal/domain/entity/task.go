package entity

import "time"

// Prioridades de tarea.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Estados de tarea.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskReview     = "review"
	TaskDone       = "done"
)

// TaskStatuses y TaskPriorities en orden de presentación.
var (
	TaskStatuses   = []string{TaskTodo, TaskInProgress, TaskReview, TaskDone}
	TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
)

// ValidTaskStatus indica si el estado existe.
func ValidTaskStatus(s string) bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ValidPriority indica si la prioridad existe.
func ValidPriority(p string) bool {
	for _, v := range TaskPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// Task unidad de trabajo dentro de un proyecto.
type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Priority    string
	Status      string
	AssignedTo  *string // nil = sin asignar (también tras borrar al usuario)
	CreatedBy   string
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Solo lectura.
	ProjectName string
}

// OwnerID el responsable de una tarea es quien la creó.
func (t *Task) OwnerID() string { return t.CreatedBy }

// IsAssignedTo indica si la tarea está asignada a userID.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// MarkComplete pasa la tarea a done y sella completed_at.
// completed_at nunca queda antes de created_at (relojes desfasados entre nodos).
func (t *Task) MarkComplete(now time.Time) {
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.Status = TaskDone
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// SetStatus cambia el estado manteniendo completed_at coherente.
func (t *Task) SetStatus(status string, now time.Time) {
	if status == TaskDone {
		if t.Status != TaskDone || t.CompletedAt == nil {
			t.MarkComplete(now)
		}
		return
	}
	t.Status = status
	t.CompletedAt = nil
}

// IsOverdue vencida y no terminada.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskDone
}
