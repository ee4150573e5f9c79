package dto

import "time"

// CreateTaskRequest alta de tarea.
type CreateTaskRequest struct {
	ProjectID    string     `json:"project"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	AssignedToID *string    `json:"assigned_to_id"`
	DueDate      *time.Time `json:"due_date"`
}

// UpdateTaskRequest actualización parcial. ClearAssignee permite desasignar (assigned_to_id: null
// no se distingue de "ausente" al decodificar).
type UpdateTaskRequest struct {
	ProjectID     *string    `json:"project"`
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Priority      *string    `json:"priority"`
	Status        *string    `json:"status"`
	AssignedToID  *string    `json:"assigned_to_id"`
	ClearAssignee bool       `json:"clear_assignee"`
	DueDate       *time.Time `json:"due_date"`
}

// TaskListQuery filtros del listado (?project=&status=&assigned_to=).
type TaskListQuery struct {
	ProjectID  string
	Status     string
	AssignedTo string // id o "me"
	Limit      int
	Offset     int
}

// TaskResponse salida de una tarea.
type TaskResponse struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"project"`
	ProjectName string        `json:"project_name"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Priority    string        `json:"priority"`
	Status      string        `json:"status"`
	AssignedTo  *UserResponse `json:"assigned_to"`
	CreatedBy   *UserResponse `json:"created_by"`
	DueDate     *time.Time    `json:"due_date"`
	CompletedAt *time.Time    `json:"completed_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TaskListResponse lista paginada de tareas.
type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
