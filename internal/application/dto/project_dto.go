package dto

import "time"

// DateLayout formato de start_date / end_date.
const DateLayout = "2006-01-02"

// CreateProjectRequest alta de proyecto; el dueño es siempre quien llama.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	MemberIDs   []string `json:"member_ids"`
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
}

// UpdateProjectRequest actualización parcial. MemberIDs nil = no cambia la membresía.
type UpdateProjectRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	MemberIDs   *[]string `json:"member_ids"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
}

// MemberRequest cuerpo de add_member / remove_member.
type MemberRequest struct {
	UserID string `json:"user_id"`
}

// ProjectResponse salida de un proyecto.
type ProjectResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Owner       UserResponse   `json:"owner"`
	Members     []UserResponse `json:"members"`
	StartDate   *string        `json:"start_date"`
	EndDate     *string        `json:"end_date"`
	TaskCount   int            `json:"task_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProjectListResponse lista paginada de proyectos.
type ProjectListResponse struct {
	Items []ProjectResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ProjectStatisticsResponse GET /projects/{id}/statistics/.
type ProjectStatisticsResponse struct {
	TotalTasks int            `json:"total_tasks"`
	Todo       int            `json:"todo"`
	InProgress int            `json:"in_progress"`
	Review     int            `json:"review"`
	Done       int            `json:"done"`
	ByPriority map[string]int `json:"by_priority"`
}
