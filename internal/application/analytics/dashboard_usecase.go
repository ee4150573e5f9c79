// Package analytics contiene el caso de uso del dashboard del usuario.
package analytics

import (
	"context"
	"fmt"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/access"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

const dashboardRecent = 5 // proyectos y tareas recientes en el widget

// DashboardUseCase genera el resumen de proyectos y tareas del usuario autenticado.
//
// Fuente de datos: ProjectRepository y TaskRepository (consultas read-only).
type DashboardUseCase struct {
	repos repository.Repos
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(repos repository.Repos) *DashboardUseCase {
	return &DashboardUseCase{repos: repos}
}

// GetSummary construye el DashboardResponse del actor.
//
// Cuatro consultas en paralelo:
//  1. CountAccessible + ListAccessible(5) → TotalProjects, Projects
//  2. Count(accesibles)                   → TotalTasks
//  3. CountByStatus(asignadas a mí)       → MyTasks
//  4. List(asignadas a mí, 5)             → RecentTasks
func (uc *DashboardUseCase) GetSummary(ctx context.Context, ns tenant.Namespace, actor *entity.User) (*dto.DashboardResponse, error) {
	if !access.IsAuthenticated(actor) {
		return nil, domain.ErrUnauthorized
	}
	allTasks := repository.TaskFilter{AccessibleTo: actor.ID}
	myTasks := repository.TaskFilter{AccessibleTo: actor.ID, AssignedTo: actor.ID}

	// ── Goroutines para paralelizar las consultas DB ──────────────────────────
	type projectsResult struct {
		total int
		list  []*entity.Project
		err   error
	}
	type countResult struct {
		n   int
		err error
	}
	type statusResult struct {
		byStatus map[string]int
		err      error
	}
	type tasksResult struct {
		list []*entity.Task
		err  error
	}

	projectsCh := make(chan projectsResult, 1)
	totalTasksCh := make(chan countResult, 1)
	statusCh := make(chan statusResult, 1)
	recentCh := make(chan tasksResult, 1)

	go func() {
		total, err := uc.repos.Projects.CountAccessible(ctx, ns, actor.ID)
		if err != nil {
			projectsCh <- projectsResult{err: err}
			return
		}
		list, err := uc.repos.Projects.ListAccessible(ctx, ns, actor.ID, dashboardRecent, 0)
		projectsCh <- projectsResult{total, list, err}
	}()
	go func() {
		n, err := uc.repos.Tasks.Count(ctx, ns, allTasks)
		totalTasksCh <- countResult{n, err}
	}()
	go func() {
		m, err := uc.repos.Tasks.CountByStatus(ctx, ns, myTasks)
		statusCh <- statusResult{m, err}
	}()
	go func() {
		f := myTasks
		f.Limit = dashboardRecent
		list, err := uc.repos.Tasks.List(ctx, ns, f)
		recentCh <- tasksResult{list, err}
	}()

	projects := <-projectsCh
	totalTasks := <-totalTasksCh
	status := <-statusCh
	recent := <-recentCh

	if projects.err != nil {
		return nil, fmt.Errorf("dashboard: proyectos: %w", projects.err)
	}
	if totalTasks.err != nil {
		return nil, fmt.Errorf("dashboard: total de tareas: %w", totalTasks.err)
	}
	if status.err != nil {
		return nil, fmt.Errorf("dashboard: mis tareas por estado: %w", status.err)
	}
	if recent.err != nil {
		return nil, fmt.Errorf("dashboard: tareas recientes: %w", recent.err)
	}

	// ── Construir DTO ──────────────────────────────────────────────────────────
	presenter := usecase.NewPresenter(uc.repos.Users, ns)
	projectItems, err := presenter.Projects(ctx, projects.list)
	if err != nil {
		return nil, err
	}
	taskItems, err := presenter.Tasks(ctx, recent.list)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{
		TotalProjects: projects.total,
		TotalTasks:    totalTasks.n,
		MyTasks:       summarize(status.byStatus),
		Projects:      projectItems,
		RecentTasks:   taskItems,
	}, nil
}

func summarize(byStatus map[string]int) dto.MyTasksSummary {
	s := dto.MyTasksSummary{
		Todo:       byStatus[entity.TaskTodo],
		InProgress: byStatus[entity.TaskInProgress],
		Review:     byStatus[entity.TaskReview],
		Done:       byStatus[entity.TaskDone],
	}
	s.Total = s.Todo + s.InProgress + s.Review + s.Done
	return s
}
