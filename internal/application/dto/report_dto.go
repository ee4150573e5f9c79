package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectReport resultado del trabajo generate_project_report (y del PDF).
type ProjectReport struct {
	ProjectID       string          `json:"project_id"`
	ProjectName     string          `json:"project_name"`
	Owner           string          `json:"owner"`
	TotalMembers    int             `json:"total_members"`
	TotalTasks      int             `json:"total_tasks"`
	CompletedTasks  int             `json:"completed_tasks"`
	PendingTasks    int             `json:"pending_tasks"`
	OverdueTasks    int             `json:"overdue_tasks"`
	TasksByPriority map[string]int  `json:"tasks_by_priority"`
	CompletionRate  decimal.Decimal `json:"completion_rate"` // porcentaje, 2 decimales
	GeneratedAt     time.Time       `json:"generated_at"`
}

// JobAcceptedResponse respuesta 202 al encolar un trabajo.
type JobAcceptedResponse struct {
	JobID string `json:"job_id"`
	Job   string `json:"job"`
}
