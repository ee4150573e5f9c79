package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
// En public solo existe la tabla users; en cada empresa también user_profiles.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios. Pasar pool o tx (Querier).
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.is_active, u.is_staff, u.is_superuser, u.date_joined, u.updated_at`

const profileColumns = `
	p.id, p.user_id, p.role, p.phone, p.department, p.is_active, p.created_at, p.updated_at`

// selectUser arma el SELECT del namespace; fuera de public agrega el perfil con LEFT JOIN.
func selectUser(ns tenant.Namespace) string {
	if ns.IsPublic() {
		return `SELECT ` + userColumns + ` FROM ` + table(ns, "users") + ` u`
	}
	return `SELECT ` + userColumns + `,` + profileColumns + `
		FROM ` + table(ns, "users") + ` u
		LEFT JOIN ` + table(ns, "user_profiles") + ` p ON p.user_id = u.id`
}

// Create persiste solo la identidad.
func (r *UserRepo) Create(ctx context.Context, ns tenant.Namespace, u *entity.User) error {
	query := `
		INSERT INTO ` + table(ns, "users") + ` (id, username, email, password_hash, first_name, last_name,
			is_active, is_staff, is_superuser, date_joined, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.IsActive, u.IsStaff, u.IsSuperuser, u.DateJoined, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// CreateProfile persiste el perfil de un usuario de empresa.
func (r *UserRepo) CreateProfile(ctx context.Context, ns tenant.Namespace, p *entity.Profile) error {
	if ns.IsPublic() {
		return fmt.Errorf("insert profile: public no tiene perfiles")
	}
	query := `
		INSERT INTO ` + table(ns, "user_profiles") + ` (id, user_id, role, phone, department, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, p.ID, p.UserID, p.Role, p.Phone, p.Department, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario con su perfil.
func (r *UserRepo) GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.User, error) {
	return r.findOne(ctx, ns, "get user", selectUser(ns)+` WHERE u.id = $1`, id)
}

// GetByProfileID obtiene el usuario dueño del perfil.
func (r *UserRepo) GetByProfileID(ctx context.Context, ns tenant.Namespace, profileID string) (*entity.User, error) {
	if ns.IsPublic() {
		return nil, nil
	}
	return r.findOne(ctx, ns, "get user by profile", selectUser(ns)+` WHERE p.id = $1`, profileID)
}

// GetByUsername obtiene un usuario por username.
func (r *UserRepo) GetByUsername(ctx context.Context, ns tenant.Namespace, username string) (*entity.User, error) {
	return r.findOne(ctx, ns, "get user by username", selectUser(ns)+` WHERE u.username = $1`, username)
}

// ExistsUsername indica si el username ya existe en el namespace.
func (r *UserRepo) ExistsUsername(ctx context.Context, ns tenant.Namespace, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM `+table(ns, "users")+` WHERE username = $1)`, username)
}

// ExistsEmail indica si el email ya existe en el namespace.
func (r *UserRepo) ExistsEmail(ctx context.Context, ns tenant.Namespace, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM `+table(ns, "users")+` WHERE email = $1)`, email)
}

// Count identidades del namespace.
func (r *UserRepo) Count(ctx context.Context, ns tenant.Namespace) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+table(ns, "users")).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountProfiles usuarios con perfil (los que aparecen en List).
func (r *UserRepo) CountProfiles(ctx context.Context, ns tenant.Namespace) (int, error) {
	if ns.IsPublic() {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+table(ns, "user_profiles")).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

// List usuarios con perfil, más recientes primero.
func (r *UserRepo) List(ctx context.Context, ns tenant.Namespace, limit, offset int) ([]*entity.User, error) {
	if ns.IsPublic() {
		return nil, nil
	}
	query := `SELECT ` + userColumns + `,` + profileColumns + `
		FROM ` + table(ns, "users") + ` u
		JOIN ` + table(ns, "user_profiles") + ` p ON p.user_id = u.id
		ORDER BY u.date_joined DESC, u.id
		LIMIT NULLIF($1::int, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update actualiza los datos de la identidad (no el perfil).
func (r *UserRepo) Update(ctx context.Context, ns tenant.Namespace, u *entity.User) error {
	query := `
		UPDATE ` + table(ns, "users") + `
		SET username = $2, email = $3, password_hash = $4, first_name = $5, last_name = $6,
		    is_active = $7, is_staff = $8, is_superuser = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.IsActive, u.IsStaff, u.IsSuperuser, u.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isInvalidID(err):
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateProfile actualiza rol, contacto y estado del perfil.
func (r *UserRepo) UpdateProfile(ctx context.Context, ns tenant.Namespace, p *entity.Profile) error {
	query := `
		UPDATE ` + table(ns, "user_profiles") + `
		SET role = $2, phone = $3, department = $4, is_active = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, p.ID, p.Role, p.Phone, p.Department, p.IsActive, p.UpdatedAt)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteProfile borra solo el perfil; la identidad queda y Me lo vuelve a crear.
func (r *UserRepo) DeleteProfile(ctx context.Context, ns tenant.Namespace, profileID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM `+table(ns, "user_profiles")+` WHERE id = $1`, profileID)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (r *UserRepo) findOne(ctx context.Context, ns tenant.Namespace, op, query string, arg any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, arg), !ns.IsPublic())
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *UserRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// profileRow columnas del LEFT JOIN: todas nulas cuando el usuario no tiene perfil.
type profileRow struct {
	id, userID, role, phone, department *string
	isActive                            *bool
	createdAt, updatedAt                *time.Time
}

func (p profileRow) toEntity() *entity.Profile {
	if p.id == nil {
		return nil
	}
	out := &entity.Profile{ID: *p.id}
	if p.userID != nil {
		out.UserID = *p.userID
	}
	if p.role != nil {
		out.Role = *p.role
	}
	if p.phone != nil {
		out.Phone = *p.phone
	}
	if p.department != nil {
		out.Department = *p.department
	}
	if p.isActive != nil {
		out.IsActive = *p.isActive
	}
	if p.createdAt != nil {
		out.CreatedAt = *p.createdAt
	}
	if p.updatedAt != nil {
		out.UpdatedAt = *p.updatedAt
	}
	return out
}

func scanUser(row pgxScanner, withProfile bool) (*entity.User, error) {
	var u entity.User
	dest := []any{
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.DateJoined, &u.UpdatedAt,
	}
	var p profileRow
	if withProfile {
		dest = append(dest, &p.id, &p.userID, &p.role, &p.phone, &p.department, &p.isActive, &p.createdAt, &p.updatedAt)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.Profile = p.toEntity()
	return &u, nil
}
