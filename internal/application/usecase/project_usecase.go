package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/access"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

const maxProjectName = 200

// ProjectUseCase casos de uso de proyectos y su membresía.
//
// Visibilidad: un proyecto que el actor no puede leer se reporta como inexistente (404);
// uno que puede leer pero no escribir, como prohibido (403).
type ProjectUseCase struct {
	repos repository.Repos
	tx    repository.TxRunner
	jobs  ports.JobPublisher
	pdf   ports.ReportPDFGenerator
	now   func() time.Time
}

// NewProjectUseCase construye el caso de uso. pdf puede ser nil si no se sirve el PDF.
func NewProjectUseCase(repos repository.Repos, tx repository.TxRunner, jobs ports.JobPublisher, pdf ports.ReportPDFGenerator) *ProjectUseCase {
	return &ProjectUseCase{repos: repos, tx: tx, jobs: jobs, pdf: pdf, now: time.Now}
}

// List proyectos accesibles por el actor, más nuevos primero.
func (uc *ProjectUseCase) List(ctx context.Context, ns tenant.Namespace, actor *entity.User, limit, offset int) (*dto.ProjectListResponse, error) {
	if !access.IsAuthenticated(actor) {
		return nil, domain.ErrUnauthorized
	}
	limit, offset = ClampPage(limit, offset)
	list, err := uc.repos.Projects.ListAccessible(ctx, ns, actor.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("project: listar: %w", err)
	}
	total, err := uc.repos.Projects.CountAccessible(ctx, ns, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("project: contar: %w", err)
	}
	items, err := NewPresenter(uc.repos.Users, ns).Projects(ctx, list)
	if err != nil {
		return nil, err
	}
	return &dto.ProjectListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// Get detalle de un proyecto accesible.
func (uc *ProjectUseCase) Get(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*dto.ProjectResponse, error) {
	p, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	return uc.present(ctx, ns, p)
}

// Create crea un proyecto cuyo dueño es el actor. Respeta max_projects de la empresa.
func (uc *ProjectUseCase) Create(ctx context.Context, ns tenant.Namespace, actor *entity.User, in dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	if !access.IsAuthenticated(actor) {
		return nil, domain.ErrUnauthorized
	}
	verr := &domain.ValidationError{}
	name := strings.TrimSpace(in.Name)
	validateProjectName(name, verr)
	status := in.Status
	if status == "" {
		status = entity.ProjectPlanning
	}
	if !entity.ValidProjectStatus(status) {
		verr.Add("status", "estado inválido")
	}
	start := parseDate("start_date", in.StartDate, verr)
	end := parseDate("end_date", in.EndDate, verr)
	validateDateRange(start, end, verr)
	members := dedupe(in.MemberIDs)
	if err := uc.validateUsers(ctx, ns, "member_ids", members, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	p := &entity.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: in.Description,
		Status:      status,
		OwnerUserID: actor.ID,
		MemberIDs:   members,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := checkProjectLimit(ctx, r, ns); err != nil {
			return err
		}
		if err := r.Projects.Create(ctx, ns, p); err != nil {
			return fmt.Errorf("project: crear: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.present(ctx, ns, p)
}

func checkProjectLimit(ctx context.Context, r repository.Repos, ns tenant.Namespace) error {
	company, err := r.Companies.GetBySchema(ctx, ns.String())
	if err != nil {
		return fmt.Errorf("project: cargar empresa: %w", err)
	}
	if company == nil {
		return domain.ErrNotFound
	}
	count, err := r.Projects.Count(ctx, ns)
	if err != nil {
		return fmt.Errorf("project: contar proyectos: %w", err)
	}
	if count >= company.MaxProjects {
		return fmt.Errorf("%w: máximo %d proyectos", domain.ErrLimitExceeded, company.MaxProjects)
	}
	return nil
}

// Update actualización parcial; solo el dueño.
func (uc *ProjectUseCase) Update(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string, in dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	p, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.ProjectOwnerOrMember(actor, p, access.Write) {
		return nil, domain.ErrForbidden
	}

	verr := &domain.ValidationError{}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		validateProjectName(p.Name, verr)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Status != nil {
		if !entity.ValidProjectStatus(*in.Status) {
			verr.Add("status", "estado inválido")
		}
		p.Status = *in.Status
	}
	if in.StartDate != nil {
		p.StartDate = parseDate("start_date", in.StartDate, verr)
	}
	if in.EndDate != nil {
		p.EndDate = parseDate("end_date", in.EndDate, verr)
	}
	validateDateRange(p.StartDate, p.EndDate, verr)
	var members []string
	if in.MemberIDs != nil {
		members = dedupe(*in.MemberIDs)
		if err := uc.validateUsers(ctx, ns, "member_ids", members, verr); err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	p.UpdatedAt = uc.now().UTC()

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Projects.Update(ctx, ns, p); err != nil {
			return fmt.Errorf("project: actualizar: %w", err)
		}
		if in.MemberIDs != nil {
			if err := r.Projects.SetMembers(ctx, ns, p.ID, members); err != nil {
				return fmt.Errorf("project: miembros: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.reload(ctx, ns, p.ID)
}

// Delete borra el proyecto y sus tareas; solo el dueño.
func (uc *ProjectUseCase) Delete(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) error {
	p, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return err
	}
	if !access.ProjectOwnerOrMember(actor, p, access.Write) {
		return domain.ErrForbidden
	}
	if err := uc.repos.Projects.Delete(ctx, ns, p.ID); err != nil {
		return fmt.Errorf("project: borrar: %w", err)
	}
	return nil
}

// AddMember agrega userID a los miembros; solo el dueño. Usuario inexistente = ErrUserNotFound.
func (uc *ProjectUseCase) AddMember(ctx context.Context, ns tenant.Namespace, actor *entity.User, id, userID string) (*dto.ProjectResponse, error) {
	p, err := uc.loadForMembership(ctx, ns, actor, id, userID)
	if err != nil {
		return nil, err
	}
	if !p.HasMember(userID) {
		if err := uc.repos.Projects.AddMember(ctx, ns, p.ID, userID); err != nil {
			return nil, fmt.Errorf("project: agregar miembro: %w", err)
		}
	}
	return uc.reload(ctx, ns, p.ID)
}

// RemoveMember quita userID de los miembros; solo el dueño.
func (uc *ProjectUseCase) RemoveMember(ctx context.Context, ns tenant.Namespace, actor *entity.User, id, userID string) (*dto.ProjectResponse, error) {
	p, err := uc.loadForMembership(ctx, ns, actor, id, userID)
	if err != nil {
		return nil, err
	}
	if p.HasMember(userID) {
		if err := uc.repos.Projects.RemoveMember(ctx, ns, p.ID, userID); err != nil {
			return nil, fmt.Errorf("project: quitar miembro: %w", err)
		}
	}
	return uc.reload(ctx, ns, p.ID)
}

func (uc *ProjectUseCase) loadForMembership(ctx context.Context, ns tenant.Namespace, actor *entity.User, id, userID string) (*entity.Project, error) {
	p, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerUserID != actor.ID {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "este campo es obligatorio")
	}
	u, err := uc.repos.Users.GetByID(ctx, ns, userID)
	if err != nil {
		return nil, fmt.Errorf("project: cargar usuario: %w", err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return p, nil
}

// Statistics conteo de tareas del proyecto por estado y prioridad.
func (uc *ProjectUseCase) Statistics(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*dto.ProjectStatisticsResponse, error) {
	p, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	stats, err := uc.repos.Tasks.ProjectStats(ctx, ns, p.ID, uc.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("project: estadísticas: %w", err)
	}
	byPriority := make(map[string]int, len(entity.TaskPriorities))
	for _, pr := range entity.TaskPriorities {
		byPriority[pr] = stats.ByPriority[pr]
	}
	return &dto.ProjectStatisticsResponse{
		TotalTasks: stats.Total,
		Todo:       stats.ByStatus[entity.TaskTodo],
		InProgress: stats.ByStatus[entity.TaskInProgress],
		Review:     stats.ByStatus[entity.TaskReview],
		Done:       stats.ByStatus[entity.TaskDone],
		ByPriority: byPriority,
	}, nil
}

// EnqueueReport encola generate_project_report para un proyecto accesible.
func (uc *ProjectUseCase) EnqueueReport(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*dto.JobAcceptedResponse, error) {
	p, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	if uc.jobs == nil {
		return nil, fmt.Errorf("project: cola de trabajos no configurada")
	}
	env := jobs.ProjectReport(ns, p.ID)
	if err := uc.jobs.Publish(ctx, env); err != nil {
		return nil, fmt.Errorf("project: encolar reporte: %w", err)
	}
	return &dto.JobAcceptedResponse{JobID: env.ID, Job: env.Name}, nil
}

// ReportPDF genera el reporte del proyecto como PDF de forma síncrona.
func (uc *ProjectUseCase) ReportPDF(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) ([]byte, error) {
	p, err := uc.load(ctx, ns, actor, id)
	if err != nil {
		return nil, err
	}
	if uc.pdf == nil {
		return nil, fmt.Errorf("project: generador PDF no configurado")
	}
	company, err := uc.repos.Companies.GetBySchema(ctx, ns.String())
	if err != nil {
		return nil, fmt.Errorf("project: cargar empresa: %w", err)
	}
	companyName := ns.String()
	if company != nil {
		companyName = company.Name
	}
	report, err := jobs.BuildProjectReport(ctx, uc.repos, ns, p.ID, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	return uc.pdf.GenerateProjectReportPDF(ctx, companyName, report)
}

// load trae el proyecto si el actor puede leerlo; si no, ErrNotFound.
func (uc *ProjectUseCase) load(ctx context.Context, ns tenant.Namespace, actor *entity.User, id string) (*entity.Project, error) {
	if !access.IsAuthenticated(actor) {
		return nil, domain.ErrUnauthorized
	}
	p, err := uc.repos.Projects.GetByID(ctx, ns, id)
	if err != nil {
		return nil, fmt.Errorf("project: cargar %s: %w", id, err)
	}
	if p == nil || !access.ProjectOwnerOrMember(actor, p, access.Read) {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *ProjectUseCase) reload(ctx context.Context, ns tenant.Namespace, id string) (*dto.ProjectResponse, error) {
	p, err := uc.repos.Projects.GetByID(ctx, ns, id)
	if err != nil {
		return nil, fmt.Errorf("project: recargar %s: %w", id, err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return uc.present(ctx, ns, p)
}

func (uc *ProjectUseCase) present(ctx context.Context, ns tenant.Namespace, p *entity.Project) (*dto.ProjectResponse, error) {
	out, err := NewPresenter(uc.repos.Users, ns).Project(ctx, p)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// validateUsers agrega un error en field por cada id que no existe en el namespace.
func (uc *ProjectUseCase) validateUsers(ctx context.Context, ns tenant.Namespace, field string, ids []string, verr *domain.ValidationError) error {
	for _, id := range ids {
		u, err := uc.repos.Users.GetByID(ctx, ns, id)
		if err != nil {
			return fmt.Errorf("project: validar usuario %s: %w", id, err)
		}
		if u == nil {
			verr.Add(field, fmt.Sprintf("usuario %q no existe", id))
		}
	}
	return nil
}

func validateProjectName(name string, verr *domain.ValidationError) {
	switch {
	case name == "":
		verr.Add("name", "este campo es obligatorio")
	case len(name) > maxProjectName:
		verr.Add("name", fmt.Sprintf("máximo %d caracteres", maxProjectName))
	}
}

func validateDateRange(start, end *time.Time, verr *domain.ValidationError) {
	if start != nil && end != nil && end.Before(*start) {
		verr.Add("end_date", "no puede ser anterior a start_date")
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
