package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/pkg/jwt"
)

// Locals keys del usuario autenticado.
const (
	LocalUser   = "user"
	LocalClaims = "claims"
)

// TokenAuthenticator valida un access token dentro de un namespace.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, ns tenant.Namespace, token string) (*entity.User, *jwt.Claims, error)
}

// AuthMiddleware valida el Bearer Token JWT contra el namespace de la petición
// y deja el usuario vigente en c.Locals.
func AuthMiddleware(auth TokenAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		user, claims, err := auth.Authenticate(c.UserContext(), GetNamespace(c), tokenString)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(LocalUser, user)
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// RequireSuperuser restringe la ruta a superusuarios de plataforma (403 en otro caso).
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := GetUser(c)
		if u == nil || !u.IsSuperuser {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "se requiere superusuario"})
		}
		return c.Next()
	}
}

// GetUser devuelve el usuario autenticado (nil antes del middleware de auth).
func GetUser(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalUser).(*entity.User)
	return u
}

// GetClaims devuelve los claims del token (nil antes del middleware de auth).
func GetClaims(c *fiber.Ctx) *jwt.Claims {
	cl, _ := c.Locals(LocalClaims).(*jwt.Claims)
	return cl
}

// GetRole rol del perfil del usuario autenticado ("" en public).
func GetRole(c *fiber.Ctx) string {
	if u := GetUser(c); u != nil {
		return u.Role()
	}
	return ""
}
