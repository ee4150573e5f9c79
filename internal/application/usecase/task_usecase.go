package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/access"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

const (
	maxTaskTitle = 200
	// AssignedToMe valor especial del filtro assigned_to.
	AssignedToMe = "me"
)

// TaskUseCase casos de uso de tareas. Solo se ven tareas de proyectos accesibles por el actor.
type TaskUseCase struct {
	repos repository.Repos
	now   func() time.Time
}

// NewTaskUseCase construye el caso de uso.
func NewTaskUseCase(repos repository.Repos) *TaskUseCase {
	return &TaskUseCase{repos: repos, now: time.Now}
}

// List tareas accesibles con filtros opcionales (project, status, assigned_to|me).
func (uc *TaskUseCase) List(ctx context.Context, ns tenant.Namespace, actor *entity.User, q dto.TaskListQuery) (*dto.TaskListResponse, error) {
	f, err := taskFilter(actor, q)
	if err != nil {
		return nil, err
	}
	return uc.list(ctx, ns, f)
}

// MyTasks mismos filtros que List, restringido a las tareas asignadas al actor.
func (uc *TaskUseCase) MyTasks(ctx context.Context, ns tenant.Namespace, actor *entity.User, q dto.TaskListQuery) (*dto.TaskListResponse, error) {
	f, err := taskFilter(actor, q)
	if err != nil {
		return nil, err
	}
	f.AssignedTo = actor.ID
	return uc.list(ctx, ns, f)
}

func taskFilter(actor *entity.User, q dto.TaskListQuery) (repository.TaskFilter, error) {
	if !access.IsAuthenticated(actor) {
		return repository.TaskFilter{}, domain.ErrUnauthorized
	}
	if q.Status != "" && !entity.ValidTaskStatus(q.Status) {
		return repository.TaskFilter{}, domain.NewValidationError("status", fmt.Sprintf("estado %q inválido", q.Status))
	}
	limit, offset := ClampPage(q.Limit, q.Offset)
	f := repository.TaskFilter{
		AccessibleTo: actor.ID,
		ProjectID:    q.ProjectID,
		Status:       q.Status,
		AssignedTo:   q.AssignedTo,
		Limit:        limit,
		Offset:       offset,
	}
	if f.AssignedTo == AssignedToMe {
		f.AssignedTo = actor.ID
	}
	return f, nil
}

func (uc *TaskUseCase) list(ctx context.Context, ns tenant.Namespace, f repository.TaskFilter) (*dto.TaskListResponse, error) {
	tasks, err := uc.repos.Tasks.List(ctx, ns, f)
	if err != nil {
		return nil, fmt.Errorf("task: listar: %w", err)
	}
	total, err := uc.repos.Tasks.Count(ctx, ns, f)
	if err != nil {
		return nil, fmt.Errorf("task: contar: %w", err)
	}
	items, err := NewPresenter(uc.repos.Users, ns).Tasks(ctx, tasks)
	if err != nil {
		return nil, err
	}
	return &dto.TaskListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}, nil
}

// Get detalle de una tarea.
func (uc *TaskUseCase) Get(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*dto.TaskResponse, error) {
	t, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	return uc.present(ctx, ns, t)
}

// Create crea una tarea en un proyecto accesible por el actor; created_by = actor.
func (uc *TaskUseCase) Create(ctx context.Context, ns tenant.Namespace, actor *entity.User, in dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if !access.IsAuthenticated(actor) {
		return nil, domain.ErrUnauthorized
	}
	verr := &domain.ValidationError{}
	title := strings.TrimSpace(in.Title)
	validateTaskTitle(title, verr)
	priority := in.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	if !entity.ValidPriority(priority) {
		verr.Add("priority", "prioridad inválida")
	}
	status := in.Status
	if status == "" {
		status = entity.TaskTodo
	}
	if !entity.ValidTaskStatus(status) {
		verr.Add("status", "estado inválido")
	}
	project, err := uc.validateProject(ctx, ns, actor, in.ProjectID, verr)
	if err != nil {
		return nil, err
	}
	assignee, err := uc.validateAssignee(ctx, ns, in.AssignedToID, verr)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	t := &entity.Task{
		ID:          uuid.New().String(),
		ProjectID:   project.ID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		Status:      entity.TaskTodo,
		AssignedTo:  assignee,
		CreatedBy:   actor.ID,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		ProjectName: project.Name,
	}
	t.SetStatus(status, now)
	if err := uc.repos.Tasks.Create(ctx, ns, t); err != nil {
		return nil, fmt.Errorf("task: crear: %w", err)
	}
	return uc.present(ctx, ns, t)
}

// Update actualización parcial (PUT y PATCH). Cambiar a otro proyecto exige que también sea accesible.
func (uc *TaskUseCase) Update(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string, in dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	t, err := uc.loadForWrite(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	verr := &domain.ValidationError{}
	if in.ProjectID != nil && *in.ProjectID != t.ProjectID {
		project, err := uc.validateProject(ctx, ns, actor, *in.ProjectID, verr)
		if err != nil {
			return nil, err
		}
		if project != nil {
			t.ProjectID = project.ID
			t.ProjectName = project.Name
		}
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
		validateTaskTitle(t.Title, verr)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		if !entity.ValidPriority(*in.Priority) {
			verr.Add("priority", "prioridad inválida")
		}
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		if !entity.ValidTaskStatus(*in.Status) {
			verr.Add("status", "estado inválido")
		} else {
			t.SetStatus(*in.Status, now)
		}
	}
	switch {
	case in.ClearAssignee:
		t.AssignedTo = nil
	case in.AssignedToID != nil:
		assignee, err := uc.validateAssignee(ctx, ns, in.AssignedToID, verr)
		if err != nil {
			return nil, err
		}
		t.AssignedTo = assignee
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	t.UpdatedAt = now
	if err := uc.repos.Tasks.Update(ctx, ns, t); err != nil {
		return nil, fmt.Errorf("task: actualizar: %w", err)
	}
	return uc.present(ctx, ns, t)
}

// Delete borra la tarea.
func (uc *TaskUseCase) Delete(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) error {
	t, err := uc.loadForWrite(ctx, ns, actor, id)
	if err != nil {
		return err
	}
	if err := uc.repos.Tasks.Delete(ctx, ns, t.ID); err != nil {
		return fmt.Errorf("task: borrar: %w", err)
	}
	return nil
}

// MarkComplete pasa la tarea a done y sella completed_at.
func (uc *TaskUseCase) MarkComplete(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*dto.TaskResponse, error) {
	t, err := uc.loadForWrite(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	t.MarkComplete(uc.now().UTC())
	if err := uc.repos.Tasks.Update(ctx, ns, t); err != nil {
		return nil, fmt.Errorf("task: completar: %w", err)
	}
	return uc.present(ctx, ns, t)
}

// load trae la tarea si su proyecto es accesible por el actor; si no, ErrNotFound.
func (uc *TaskUseCase) load(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*entity.Task, error) {
	t, _, err := uc.loadWithProject(ctx, ns, actor, id)
	return t, err
}

func (uc *TaskUseCase) loadWithProject(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*entity.Task, *entity.Project, error) {
	if !access.IsAuthenticated(actor) {
		return nil, nil, domain.ErrUnauthorized
	}
	t, err := uc.repos.Tasks.GetByID(ctx, ns, id)
	if err != nil {
		return nil, nil, fmt.Errorf("task: cargar %s: %w", id, err)
	}
	if t == nil {
		return nil, nil, domain.ErrNotFound
	}
	p, err := uc.repos.Projects.GetByID(ctx, ns, t.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("task: cargar proyecto: %w", err)
	}
	if p == nil || !p.IsAccessibleBy(actor.ID) {
		return nil, nil, domain.ErrNotFound
	}
	return t, p, nil
}

func (uc *TaskUseCase) loadForWrite(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*entity.Task, error) {
	t, p, err := uc.loadWithProject(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.TaskProjectMember(actor, p) {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

// validateProject el proyecto debe existir y ser accesible por el actor; si no, error en "project".
func (uc *TaskUseCase) validateProject(ctx context.Context, ns tenant.Namespace, actor *entity.User, projectID string, verr *domain.ValidationError) (*entity.Project, error) {
	if strings.TrimSpace(projectID) == "" {
		verr.Add("project", "este campo es obligatorio")
		return nil, nil
	}
	p, err := uc.repos.Projects.GetByID(ctx, ns, projectID)
	if err != nil {
		return nil, fmt.Errorf("task: validar proyecto: %w", err)
	}
	if p == nil {
		verr.Add("project", "el proyecto no existe")
		return nil, nil
	}
	if !access.TaskProjectMember(actor, p) {
		verr.Add("project", "no tiene permiso para crear tareas en este proyecto")
		return nil, nil
	}
	return p, nil
}

func (uc *TaskUseCase) validateAssignee(ctx context.Context, ns tenant.Namespace, id *string, verr *domain.ValidationError) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	u, err := uc.repos.Users.GetByID(ctx, ns, *id)
	if err != nil {
		return nil, fmt.Errorf("task: validar asignado: %w", err)
	}
	if u == nil {
		verr.Add("assigned_to_id", fmt.Sprintf("usuario %q no existe", *id))
		return nil, nil
	}
	v := u.ID
	return &v, nil
}

func (uc *TaskUseCase) present(ctx context.Context, ns tenant.Namespace, t *entity.Task) (*dto.TaskResponse, error) {
	out, err := NewPresenter(uc.repos.Users, ns).Task(ctx, t)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func validateTaskTitle(title string, verr *domain.ValidationError) {
	switch {
	case title == "":
		verr.Add("title", "este campo es obligatorio")
	case len(title) > maxTaskTitle:
		verr.Add("title", fmt.Sprintf("máximo %d caracteres", maxTaskTitle))
	}
}
