package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
)

// ProjectHandler proyectos, membresía, estadísticas y reportes.
type ProjectHandler struct {
	uc *usecase.ProjectUseCase
}

// NewProjectHandler construye el handler.
func NewProjectHandler(uc *usecase.ProjectUseCase) *ProjectHandler {
	return &ProjectHandler{uc: uc}
}

// List godoc
// @Summary      Listar proyectos accesibles
// @Tags         projects
// @Produce      json
// @Param        limit   query  int  false  "máximo de resultados"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.ProjectListResponse
// @Router       /api/projects/ [get]
// @Security     BearerAuth
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.uc.List(c.UserContext(), GetNamespace(c), GetUser(c), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener proyecto
// @Tags         projects
// @Produce      json
// @Param        id   path  string  true  "ID del proyecto"
// @Success      200  {object}  dto.ProjectResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/ [get]
// @Security     BearerAuth
func (h *ProjectHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear proyecto
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProjectRequest  true  "proyecto"
// @Success      201   {object}  dto.ProjectResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/projects/ [post]
// @Security     BearerAuth
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProjectRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetNamespace(c), GetUser(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar proyecto
// @Description  PUT y PATCH son parciales: los campos ausentes no cambian.
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del proyecto"
// @Param        body  body  dto.UpdateProjectRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.ProjectResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/ [patch]
// @Security     BearerAuth
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProjectRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar proyecto
// @Tags         projects
// @Param        id   path  string  true  "ID del proyecto"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/ [delete]
// @Security     BearerAuth
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddMember godoc
// @Summary      Agregar miembro
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del proyecto"
// @Param        body  body  dto.MemberRequest  true  "user_id"
// @Success      200   {object}  dto.ProjectResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/add_member/ [post]
// @Security     BearerAuth
func (h *ProjectHandler) AddMember(c *fiber.Ctx) error {
	var in dto.MemberRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddMember(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"), in.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveMember godoc
// @Summary      Quitar miembro
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del proyecto"
// @Param        body  body  dto.MemberRequest  true  "user_id"
// @Success      200   {object}  dto.ProjectResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/projects/{id}/remove_member/ [post]
// @Security     BearerAuth
func (h *ProjectHandler) RemoveMember(c *fiber.Ctx) error {
	var in dto.MemberRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.RemoveMember(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"), in.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Statistics godoc
// @Summary      Estadísticas del proyecto
// @Tags         projects
// @Produce      json
// @Param        id   path  string  true  "ID del proyecto"
// @Success      200  {object}  dto.ProjectStatisticsResponse
// @Router       /api/projects/{id}/statistics/ [get]
// @Security     BearerAuth
func (h *ProjectHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.uc.Statistics(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// EnqueueReport godoc
// @Summary      Generar reporte en segundo plano
// @Tags         projects
// @Produce      json
// @Param        id   path  string  true  "ID del proyecto"
// @Success      202  {object}  dto.JobAcceptedResponse
// @Router       /api/projects/{id}/report/ [post]
// @Security     BearerAuth
func (h *ProjectHandler) EnqueueReport(c *fiber.Ctx) error {
	out, err := h.uc.EnqueueReport(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// ReportPDF godoc
// @Summary      Reporte del proyecto en PDF
// @Tags         projects
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del proyecto"
// @Success      200  {file}  binary
// @Router       /api/projects/{id}/report/pdf/ [get]
// @Security     BearerAuth
func (h *ProjectHandler) ReportPDF(c *fiber.Ctx) error {
	b, err := h.uc.ReportPDF(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="reporte-`+c.Params("id")+`.pdf"`)
	return c.Send(b)
}
