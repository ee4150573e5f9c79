package repository

import (
	"context"

	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// ProjectRepository puerto de persistencia para proyectos y su membresía.
type ProjectRepository interface {
	// Create inserta el proyecto y sus MemberIDs.
	Create(ctx context.Context, ns tenant.Namespace, p *entity.Project) error
	// GetByID carga MemberIDs y TaskCount. nil, nil si no existe.
	GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.Project, error)
	// ListAccessible proyectos donde userID es dueño o miembro, sin duplicados, más nuevos primero.
	ListAccessible(ctx context.Context, ns tenant.Namespace, userID string, limit, offset int) ([]*entity.Project, error)
	CountAccessible(ctx context.Context, ns tenant.Namespace, userID string) (int, error)
	Count(ctx context.Context, ns tenant.Namespace) (int, error)
	// Update persiste los campos escalares (no toca miembros).
	Update(ctx context.Context, ns tenant.Namespace, p *entity.Project) error
	SetMembers(ctx context.Context, ns tenant.Namespace, projectID string, memberIDs []string) error
	AddMember(ctx context.Context, ns tenant.Namespace, projectID, userID string) error
	RemoveMember(ctx context.Context, ns tenant.Namespace, projectID, userID string) error
	// Delete borra el proyecto y en cascada sus tareas.
	Delete(ctx context.Context, ns tenant.Namespace, id string) error
}
