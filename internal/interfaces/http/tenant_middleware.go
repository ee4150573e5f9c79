package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// Locals keys del tenant resuelto.
const (
	LocalNamespace = "namespace"
	LocalCompany   = "company"
)

// HostResolver resuelve el host de la petición a una empresa (nil = namespace public).
type HostResolver interface {
	ResolveHost(ctx context.Context, host string) (*entity.Company, error)
}

// TenantMiddleware resuelve el header Host contra la tabla de dominios y guarda el namespace.
// Hosts desconocidos quedan en public; una empresa inactiva responde 403.
func TenantMiddleware(resolver HostResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		company, err := resolver.ResolveHost(c.UserContext(), c.Hostname())
		if err != nil {
			return writeError(c, err)
		}
		ns := tenant.Public
		if company != nil {
			ns = tenant.Namespace(company.SchemaName)
			c.Locals(LocalCompany, company)
		}
		c.Locals(LocalNamespace, ns)
		return c.Next()
	}
}

// RequireTenant rutas que solo existen en el schema de una empresa (404 en public).
func RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetNamespace(c).IsPublic() {
			return notFound(c)
		}
		return c.Next()
	}
}

// RequirePublic rutas que solo existen en el namespace public (404 en hosts de empresa).
func RequirePublic() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !GetNamespace(c).IsPublic() {
			return notFound(c)
		}
		return c.Next()
	}
}

// GetNamespace namespace de la petición (public si el middleware no corrió).
func GetNamespace(c *fiber.Ctx) tenant.Namespace {
	if ns, ok := c.Locals(LocalNamespace).(tenant.Namespace); ok && ns != "" {
		return ns
	}
	return tenant.Public
}

// GetCompany empresa resuelta por el host (nil en public).
func GetCompany(c *fiber.Ctx) *entity.Company {
	company, _ := c.Locals(LocalCompany).(*entity.Company)
	return company
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ruta no disponible en este dominio"})
}
