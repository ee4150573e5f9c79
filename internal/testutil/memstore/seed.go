package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// SeedCompany crea una empresa activa con su schema y un dominio primario "<schema>.test".
func (s *Store) SeedCompany(schema string, maxUsers, maxProjects int) *entity.Company {
	ctx := context.Background()
	now := time.Now().UTC()
	c := &entity.Company{
		ID:               uuid.New().String(),
		Name:             schema,
		SchemaName:       schema,
		SubscriptionPlan: entity.PlanFree,
		IsActive:         true,
		MaxUsers:         maxUsers,
		MaxProjects:      maxProjects,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r := s.Repos()
	must(r.Companies.Create(ctx, c))
	must(r.Domains.Create(ctx, &entity.Domain{
		ID:        uuid.New().String(),
		Domain:    schema + ".test",
		CompanyID: c.ID,
		IsPrimary: true,
		CreatedAt: now,
	}))
	must(r.Schemas.CreateSchema(ctx, tenant.Namespace(schema)))
	return c
}

// SeedUser crea una identidad activa; fuera de public también su perfil con role
// (vacío = member). La contraseña se hashea con bcrypt.MinCost.
func (s *Store) SeedUser(ns tenant.Namespace, username, password, role string) *entity.User {
	ctx := context.Background()
	now := time.Now().UTC()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	must(err)
	u := &entity.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
		DateJoined:   now,
		UpdatedAt:    now,
	}
	if ns.IsPublic() {
		u.IsStaff = true
		u.IsSuperuser = true
	}
	r := s.Repos()
	must(r.Users.Create(ctx, ns, u))
	if !ns.IsPublic() {
		if role == "" {
			role = entity.RoleMember
		}
		p := &entity.Profile{
			ID:        uuid.New().String(),
			UserID:    u.ID,
			Role:      role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		must(r.Users.CreateProfile(ctx, ns, p))
		u.Profile = p
	}
	return u
}

// SeedProject crea un proyecto del dueño con los miembros indicados.
func (s *Store) SeedProject(ns tenant.Namespace, name, ownerID string, memberIDs ...string) *entity.Project {
	now := time.Now().UTC()
	p := &entity.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Status:      entity.ProjectActive,
		OwnerUserID: ownerID,
		MemberIDs:   memberIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	must(s.Repos().Projects.Create(context.Background(), ns, p))
	return p
}

// SeedTask inserta la tarea tal cual (el caller fija estado, fechas y asignado).
func (s *Store) SeedTask(ns tenant.Namespace, t *entity.Task) *entity.Task {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Priority == "" {
		t.Priority = entity.PriorityMedium
	}
	if t.Status == "" {
		t.Status = entity.TaskTodo
	}
	must(s.Repos().Tasks.Create(context.Background(), ns, t))
	return t
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
