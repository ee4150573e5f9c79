package entity

import "time"

// Roles válidos para Profile.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
	RoleViewer  = "viewer"
)

// ValidRole indica si el rol existe.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember, RoleViewer:
		return true
	}
	return false
}

// User identidad autenticable. Vive en la tabla users de un namespace
// (superusuarios de plataforma en public, usuarios de la empresa en su schema).
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	FirstName    string
	LastName     string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
	UpdatedAt    time.Time

	// Profile es nil en el namespace public.
	Profile *Profile
}

// FullName nombre para mostrar; cae al username si no hay nombre.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Role devuelve el rol del perfil ("" si no tiene perfil).
func (u *User) Role() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Role
}

// Profile extensión por usuario dentro de un namespace de empresa.
type Profile struct {
	ID         string
	UserID     string
	Role       string
	Phone      string
	Department string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OwnerID el dueño de un perfil es su propio usuario.
func (p *Profile) OwnerID() string { return p.UserID }
