package dto

// DashboardResponse respuesta de GET /dashboard/ para el usuario autenticado.
type DashboardResponse struct {
	TotalProjects int               `json:"total_projects"`
	TotalTasks    int               `json:"total_tasks"`
	MyTasks       MyTasksSummary    `json:"my_tasks"`
	Projects      []ProjectResponse `json:"projects"`     // 5 más recientes accesibles
	RecentTasks   []TaskResponse    `json:"recent_tasks"` // 5 más recientes asignadas a mí
}

// MyTasksSummary desglose por estado de las tareas asignadas al usuario.
type MyTasksSummary struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Review     int `json:"review"`
	Done       int `json:"done"`
}
