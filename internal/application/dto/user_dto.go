package dto

import "time"

// UserResponse identidad pública (sin password).
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileResponse perfil con el usuario anidado.
type ProfileResponse struct {
	ID         string       `json:"id"`
	User       UserResponse `json:"user"`
	Role       string       `json:"role"`
	Phone      string       `json:"phone"`
	Department string       `json:"department"`
	IsActive   bool         `json:"is_active"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ProfileListResponse lista paginada de perfiles.
type ProfileListResponse struct {
	Items []ProfileResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// RegisterUserRequest alta de usuario dentro de la empresa.
type RegisterUserRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

// UpdateProfileRequest actualización parcial del perfil.
type UpdateProfileRequest struct {
	Role       *string `json:"role"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"is_active"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
}

// TokenRequest credenciales para /token/.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest cuerpo de /token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// TokenResponse par de tokens (access en /token/refresh/ viene solo).
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
