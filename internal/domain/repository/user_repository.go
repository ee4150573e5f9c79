package repository

import (
	"context"

	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// UserRepository define el puerto de persistencia para User y su Profile (DIP).
// Todas las operaciones reciben el namespace explícito.
type UserRepository interface {
	// Create inserta solo la identidad; el perfil lo agrega CreateProfile en la misma transacción.
	Create(ctx context.Context, ns tenant.Namespace, user *entity.User) error
	CreateProfile(ctx context.Context, ns tenant.Namespace, profile *entity.Profile) error
	// GetByID devuelve el usuario con su Profile (nil si no tiene). nil, nil si no existe.
	GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.User, error)
	// GetByProfileID devuelve el usuario dueño del perfil. nil, nil si no existe.
	GetByProfileID(ctx context.Context, ns tenant.Namespace, profileID string) (*entity.User, error)
	GetByUsername(ctx context.Context, ns tenant.Namespace, username string) (*entity.User, error)
	ExistsUsername(ctx context.Context, ns tenant.Namespace, username string) (bool, error)
	ExistsEmail(ctx context.Context, ns tenant.Namespace, email string) (bool, error)
	// Count cuenta identidades (límite max_users); CountProfiles, las que aparecen en List.
	Count(ctx context.Context, ns tenant.Namespace) (int, error)
	CountProfiles(ctx context.Context, ns tenant.Namespace) (int, error)
	// List devuelve los usuarios que tienen perfil, más recientes primero.
	List(ctx context.Context, ns tenant.Namespace, limit, offset int) ([]*entity.User, error)
	Update(ctx context.Context, ns tenant.Namespace, user *entity.User) error
	UpdateProfile(ctx context.Context, ns tenant.Namespace, profile *entity.Profile) error
	// DeleteProfile borra solo el perfil; la identidad sigue existiendo y /users/me/ lo recrea.
	DeleteProfile(ctx context.Context, ns tenant.Namespace, profileID string) error
}
