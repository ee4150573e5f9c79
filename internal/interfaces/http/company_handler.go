package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/registry"
)

// CompanyHandler registro público de empresas y CRUD de empresas y dominios (superusuario).
type CompanyHandler struct {
	reg *registry.Registry
}

// NewCompanyHandler construye el handler.
func NewCompanyHandler(reg *registry.Registry) *CompanyHandler {
	return &CompanyHandler{reg: reg}
}

// Register godoc
// @Summary      Registrar empresa
// @Description  Crea empresa, dominio principal, schema y usuario administrador en una sola transacción.
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterCompanyRequest  true  "empresa y administrador"
// @Success      201   {object}  dto.RegisterCompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/register/ [post]
func (h *CompanyHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.reg.RegisterCompany(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/health/ [get]
func (h *CompanyHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "service": "proyectos-api"})
}

// ── Empresas ──────────────────────────────────────────────────────────────────

// List godoc
// @Summary      Listar empresas
// @Tags         companies
// @Produce      json
// @Param        limit   query  int  false  "máximo de resultados"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.CompanyListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/companies/ [get]
// @Security     BearerAuth
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.reg.ListCompanies(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener empresa
// @Tags         companies
// @Produce      json
// @Param        id   path  string  true  "ID de la empresa"
// @Success      200  {object}  dto.CompanyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/companies/{id}/ [get]
// @Security     BearerAuth
func (h *CompanyHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.reg.GetCompany(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear empresa
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCompanyRequest  true  "empresa"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/companies/ [post]
// @Security     BearerAuth
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.reg.CreateCompany(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar empresa
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la empresa"
// @Param        body  body  dto.UpdateCompanyRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/companies/{id}/ [patch]
// @Security     BearerAuth
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.reg.UpdateCompany(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar empresa
// @Tags         companies
// @Param        id   path  string  true  "ID de la empresa"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/companies/{id}/ [delete]
// @Security     BearerAuth
func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	if err := h.reg.DeleteCompany(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Dominios ──────────────────────────────────────────────────────────────────

// ListDomains GET /api/domains/
func (h *CompanyHandler) ListDomains(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.reg.ListDomains(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetDomain GET /api/domains/:id/
func (h *CompanyHandler) GetDomain(c *fiber.Ctx) error {
	out, err := h.reg.GetDomain(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateDomain POST /api/domains/
func (h *CompanyHandler) CreateDomain(c *fiber.Ctx) error {
	var in dto.DomainRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.reg.CreateDomain(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateDomain PUT|PATCH /api/domains/:id/
func (h *CompanyHandler) UpdateDomain(c *fiber.Ctx) error {
	var in dto.DomainRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.reg.UpdateDomain(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteDomain DELETE /api/domains/:id/
func (h *CompanyHandler) DeleteDomain(c *fiber.Ctx) error {
	if err := h.reg.DeleteDomain(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
