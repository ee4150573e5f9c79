package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// Presenter convierte entidades en DTOs resolviendo los usuarios relacionados
// (dueño, miembros, asignado, creador). Cachea por instancia: crear uno por request.
type Presenter struct {
	users repository.UserRepository
	ns    tenant.Namespace
	cache map[string]*entity.User
}

// NewPresenter construye un presenter para el namespace.
func NewPresenter(users repository.UserRepository, ns tenant.Namespace) *Presenter {
	return &Presenter{users: users, ns: ns, cache: make(map[string]*entity.User)}
}

func (p *Presenter) user(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := p.cache[id]; ok {
		return u, nil
	}
	u, err := p.users.GetByID(ctx, p.ns, id)
	if err != nil {
		return nil, fmt.Errorf("presenter: usuario %s: %w", id, err)
	}
	p.cache[id] = u
	return u, nil
}

// Project arma el DTO de un proyecto con dueño y miembros.
func (p *Presenter) Project(ctx context.Context, pr *entity.Project) (dto.ProjectResponse, error) {
	out := dto.ProjectResponse{
		ID:          pr.ID,
		Name:        pr.Name,
		Description: pr.Description,
		Status:      pr.Status,
		Owner:       dto.UserResponse{ID: pr.OwnerUserID},
		Members:     make([]dto.UserResponse, 0, len(pr.MemberIDs)),
		StartDate:   formatDate(pr.StartDate),
		EndDate:     formatDate(pr.EndDate),
		TaskCount:   pr.TaskCount,
		CreatedAt:   pr.CreatedAt,
		UpdatedAt:   pr.UpdatedAt,
	}
	owner, err := p.user(ctx, pr.OwnerUserID)
	if err != nil {
		return out, err
	}
	if owner != nil {
		out.Owner = ToUserResponse(owner)
	}
	for _, id := range pr.MemberIDs {
		m, err := p.user(ctx, id)
		if err != nil {
			return out, err
		}
		if m != nil {
			out.Members = append(out.Members, ToUserResponse(m))
		}
	}
	return out, nil
}

// Projects arma la lista de DTOs conservando el orden.
func (p *Presenter) Projects(ctx context.Context, list []*entity.Project) ([]dto.ProjectResponse, error) {
	out := make([]dto.ProjectResponse, 0, len(list))
	for _, pr := range list {
		r, err := p.Project(ctx, pr)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Task arma el DTO de una tarea con asignado y creador.
func (p *Presenter) Task(ctx context.Context, t *entity.Task) (dto.TaskResponse, error) {
	out := dto.TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		ProjectName: t.ProjectName,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo != nil {
		u, err := p.user(ctx, *t.AssignedTo)
		if err != nil {
			return out, err
		}
		if u != nil {
			r := ToUserResponse(u)
			out.AssignedTo = &r
		}
	}
	creator, err := p.user(ctx, t.CreatedBy)
	if err != nil {
		return out, err
	}
	if creator != nil {
		r := ToUserResponse(creator)
		out.CreatedBy = &r
	}
	return out, nil
}

// Tasks arma la lista de DTOs conservando el orden.
func (p *Presenter) Tasks(ctx context.Context, list []*entity.Task) ([]dto.TaskResponse, error) {
	out := make([]dto.TaskResponse, 0, len(list))
	for _, t := range list {
		r, err := p.Task(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ToUserResponse identidad pública.
func ToUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// ToProfileResponse perfil con el usuario anidado. u.Profile no debe ser nil.
func ToProfileResponse(u *entity.User) dto.ProfileResponse {
	pr := u.Profile
	return dto.ProfileResponse{
		ID:         pr.ID,
		User:       ToUserResponse(u),
		Role:       pr.Role,
		Phone:      pr.Phone,
		Department: pr.Department,
		IsActive:   pr.IsActive,
		CreatedAt:  pr.CreatedAt,
	}
}
