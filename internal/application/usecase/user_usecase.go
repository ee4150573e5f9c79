package usecase

import (
	"context"
	"fmt"
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
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

// UserUseCase aplica reglas de negocio para usuarios y perfiles de una empresa.
type UserUseCase struct {
	repos repository.Repos
	tx    repository.TxRunner
	jobs  ports.JobPublisher
	now   func() time.Time
}

// NewUserUseCase construye el caso de uso. jobs puede ser nil (no se encola nada).
func NewUserUseCase(repos repository.Repos, tx repository.TxRunner, jobs ports.JobPublisher) *UserUseCase {
	return &UserUseCase{repos: repos, tx: tx, jobs: jobs, now: time.Now}
}

// Register crea usuario + perfil en el namespace de la empresa, en una sola transacción.
// Requiere un actor autenticado; solo un admin asigna un rol distinto de member.
// Respeta max_users de la empresa y encola el correo de bienvenida tras el commit.
func (uc *UserUseCase) Register(ctx context.Context, ns tenant.Namespace, actor *entity.User, in dto.RegisterUserRequest) (*dto.ProfileResponse, error) {
	if !access.IsAuthenticated(actor) {
		return nil, domain.ErrUnauthorized
	}
	if !access.CanAssignRole(actor, in.Role) {
		return nil, fmt.Errorf("%w: solo un admin asigna el rol %q", domain.ErrForbidden, in.Role)
	}
	identity := IdentityInput{
		Username:   in.Username,
		Email:      in.Email,
		Password:   in.Password,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Role:       in.Role,
		Phone:      in.Phone,
		Department: in.Department,
	}
	var created *entity.User
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := ValidateIdentity(ctx, r.Users, ns, identity, ""); err != nil {
			return err
		}
		if err := checkUserLimit(ctx, r, ns); err != nil {
			return err
		}
		u, err := CreateIdentity(ctx, r.Users, ns, identity, uc.now().UTC())
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	enqueue(ctx, uc.jobs, jobs.WelcomeEmail(ns, created.ID))
	out := ToProfileResponse(created)
	return &out, nil
}

func checkUserLimit(ctx context.Context, r repository.Repos, ns tenant.Namespace) error {
	company, err := r.Companies.GetBySchema(ctx, ns.String())
	if err != nil {
		return fmt.Errorf("user: cargar empresa: %w", err)
	}
	if company == nil {
		return domain.ErrNotFound
	}
	count, err := r.Users.Count(ctx, ns)
	if err != nil {
		return fmt.Errorf("user: contar usuarios: %w", err)
	}
	if count >= company.MaxUsers {
		return fmt.Errorf("%w: máximo %d usuarios", domain.ErrLimitExceeded, company.MaxUsers)
	}
	return nil
}

// Me devuelve el perfil del usuario autenticado y lo crea si aún no existe.
func (uc *UserUseCase) Me(ctx context.Context, ns tenant.Namespace, actor *entity.User) (*dto.ProfileResponse, error) {
	if !access.IsAuthenticated(actor) {
		return nil, domain.ErrUnauthorized
	}
	u, err := uc.repos.Users.GetByID(ctx, ns, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("user: me: %w", err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	if u.Profile == nil {
		now := uc.now().UTC()
		profile := &entity.Profile{
			ID:        uuid.New().String(),
			UserID:    u.ID,
			Role:      entity.RoleMember,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.repos.Users.CreateProfile(ctx, ns, profile); err != nil {
			return nil, fmt.Errorf("user: crear perfil: %w", err)
		}
		u.Profile = profile
	}
	out := ToProfileResponse(u)
	return &out, nil
}

// List perfiles del namespace, paginados.
func (uc *UserUseCase) List(ctx context.Context, ns tenant.Namespace, limit, offset int) (*dto.ProfileListResponse, error) {
	limit, offset = ClampPage(limit, offset)
	users, err := uc.repos.Users.List(ctx, ns, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user: listar: %w", err)
	}
	total, err := uc.repos.Users.CountProfiles(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("user: contar: %w", err)
	}
	items := make([]dto.ProfileResponse, 0, len(users))
	for _, u := range users {
		if u.Profile != nil {
			items = append(items, ToProfileResponse(u))
		}
	}
	return &dto.ProfileListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// Get perfil por ID.
func (uc *UserUseCase) Get(ctx context.Context, ns tenant.Namespace, profileID string) (*dto.ProfileResponse, error) {
	u, err := uc.loadProfile(ctx, ns, profileID)
	if err != nil {
		return nil, err
	}
	out := ToProfileResponse(u)
	return &out, nil
}

// Update actualiza el perfil (admin o el propio usuario). Rol y estado solo los cambia un admin.
func (uc *UserUseCase) Update(ctx context.Context, ns tenant.Namespace, actor *entity.User, profileID string, in dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	u, err := uc.loadProfile(ctx, ns, profileID)
	if err != nil {
		return nil, err
	}
	if !access.AdminOrOwner(actor, u.Profile) {
		return nil, domain.ErrForbidden
	}
	isAdmin := actor.Role() == entity.RoleAdmin
	if (in.Role != nil || in.IsActive != nil) && !isAdmin {
		return nil, domain.ErrForbidden
	}

	verr := &domain.ValidationError{}
	if in.Role != nil && !entity.ValidRole(*in.Role) {
		verr.Add("role", "rol inválido")
	}
	if in.Phone != nil && len(*in.Phone) > 20 {
		verr.Add("phone", "máximo 20 caracteres")
	}
	if in.Department != nil && len(*in.Department) > 100 {
		verr.Add("department", "máximo 100 caracteres")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	p := u.Profile
	if in.Role != nil {
		p.Role = *in.Role
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.Department != nil {
		p.Department = *in.Department
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = now
	nameChanged := in.FirstName != nil || in.LastName != nil
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	u.UpdatedAt = now

	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		if nameChanged {
			if err := r.Users.Update(ctx, ns, u); err != nil {
				return fmt.Errorf("user: actualizar usuario: %w", err)
			}
		}
		if err := r.Users.UpdateProfile(ctx, ns, p); err != nil {
			return fmt.Errorf("user: actualizar perfil: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := ToProfileResponse(u)
	return &out, nil
}

// Delete borra el perfil (admin o el propio usuario). La identidad, sus proyectos y sus
// tareas se conservan; el siguiente Me crea un perfil member.
func (uc *UserUseCase) Delete(ctx context.Context, ns tenant.Namespace, actor *entity.User, profileID string) error {
	u, err := uc.loadProfile(ctx, ns, profileID)
	if err != nil {
		return err
	}
	if !access.AdminOrOwner(actor, u.Profile) {
		return domain.ErrForbidden
	}
	if err := uc.repos.Users.DeleteProfile(ctx, ns, profileID); err != nil {
		return fmt.Errorf("user: borrar perfil: %w", err)
	}
	return nil
}

func (uc *UserUseCase) loadProfile(ctx context.Context, ns tenant.Namespace, profileID string) (*entity.User, error) {
	u, err := uc.repos.Users.GetByProfileID(ctx, ns, profileID)
	if err != nil {
		return nil, fmt.Errorf("user: cargar perfil: %w", err)
	}
	if u == nil || u.Profile == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// enqueue publica un trabajo; si la cola falla solo se registra (la operación ya se confirmó).
func enqueue(ctx context.Context, pub ports.JobPublisher, env dto.JobEnvelope) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, env); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("job", env.Name).
			Str("schema", env.Namespace).
			Str("job_id", env.ID).
			Msg("no se pudo encolar el trabajo")
	}
}
