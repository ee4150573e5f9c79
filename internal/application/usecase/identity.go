package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// MinPasswordLength longitud mínima de contraseña.
const MinPasswordLength = 8

// IdentityInput datos para crear una identidad. Role vacío = member.
type IdentityInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        string
	Phone       string
	Department  string
	IsStaff     bool
	IsSuperuser bool
}

// ValidateIdentity valida formato y unicidad de username/email dentro del namespace.
// fieldPrefix permite reportar "admin_username" en el registro de empresa.
// Con users nil solo se valida el formato (namespace recién creado, sin filas).
func ValidateIdentity(ctx context.Context, users repository.UserRepository, ns tenant.Namespace, in IdentityInput, fieldPrefix string) error {
	verr := &domain.ValidationError{}
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		verr.Add(fieldPrefix+"username", "este campo es obligatorio")
	case len(username) > 150:
		verr.Add(fieldPrefix+"username", "máximo 150 caracteres")
	case users != nil:
		exists, err := users.ExistsUsername(ctx, ns, username)
		if err != nil {
			return fmt.Errorf("identity: verificar username: %w", err)
		}
		if exists {
			verr.Add(fieldPrefix+"username", "el username ya existe en esta organización")
		}
	}

	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); email == "" || err != nil {
		verr.Add(fieldPrefix+"email", "ingrese un email válido")
	} else if users != nil {
		exists, err := users.ExistsEmail(ctx, ns, email)
		if err != nil {
			return fmt.Errorf("identity: verificar email: %w", err)
		}
		if exists {
			verr.Add(fieldPrefix+"email", "el email ya existe en esta organización")
		}
	}

	if len(in.Password) < MinPasswordLength {
		verr.Add(fieldPrefix+"password", fmt.Sprintf("la contraseña debe tener al menos %d caracteres", MinPasswordLength))
	}
	if in.Role != "" && !entity.ValidRole(in.Role) {
		verr.Add("role", "rol inválido")
	}
	return verr.OrNil()
}

// CreateIdentity crea la identidad y, fuera del namespace public, exactamente un perfil.
// Debe llamarse con repositorios atados a la transacción del caller: si falla el perfil,
// el rollback se lleva también al usuario.
func CreateIdentity(ctx context.Context, users repository.UserRepository, ns tenant.Namespace, in IdentityInput, now time.Time) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		DateJoined:   now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, ns, user); err != nil {
		return nil, err
	}
	if ns.IsPublic() {
		return user, nil
	}

	role := in.Role
	if role == "" {
		role = entity.RoleMember
	}
	profile := &entity.Profile{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Role:       role,
		Phone:      in.Phone,
		Department: in.Department,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := users.CreateProfile(ctx, ns, profile); err != nil {
		return nil, err
	}
	user.Profile = profile
	return user, nil
}
