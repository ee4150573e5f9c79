package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
)

// TaskHandler tareas de los proyectos accesibles.
type TaskHandler struct {
	uc *usecase.TaskUseCase
}

// NewTaskHandler construye el handler.
func NewTaskHandler(uc *usecase.TaskUseCase) *TaskHandler {
	return &TaskHandler{uc: uc}
}

// List godoc
// @Summary      Listar tareas
// @Tags         tasks
// @Produce      json
// @Param        project      query  string  false  "ID del proyecto"
// @Param        status       query  string  false  "todo | in_progress | review | done"
// @Param        assigned_to  query  string  false  "ID de usuario o me"
// @Param        limit        query  int     false  "máximo de resultados"
// @Param        offset       query  int     false  "desplazamiento"
// @Success      200  {object}  dto.TaskListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/tasks/ [get]
// @Security     BearerAuth
func (h *TaskHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetNamespace(c), GetUser(c), taskQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MyTasks godoc
// @Summary      Tareas asignadas al usuario
// @Tags         tasks
// @Produce      json
// @Param        project  query  string  false  "ID del proyecto"
// @Param        status   query  string  false  "todo | in_progress | review | done"
// @Param        limit    query  int     false  "máximo de resultados"
// @Param        offset   query  int     false  "desplazamiento"
// @Success      200  {object}  dto.TaskListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/tasks/my_tasks/ [get]
// @Security     BearerAuth
func (h *TaskHandler) MyTasks(c *fiber.Ctx) error {
	out, err := h.uc.MyTasks(c.UserContext(), GetNamespace(c), GetUser(c), taskQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener tarea
// @Tags         tasks
// @Produce      json
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/ [get]
// @Security     BearerAuth
func (h *TaskHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear tarea
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTaskRequest  true  "tarea"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/tasks/ [post]
// @Security     BearerAuth
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTaskRequest
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
// @Summary      Actualizar tarea
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la tarea"
// @Param        body  body  dto.UpdateTaskRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.TaskResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/ [patch]
// @Security     BearerAuth
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateTaskRequest
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
// @Summary      Eliminar tarea
// @Tags         tasks
// @Param        id   path  string  true  "ID de la tarea"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/ [delete]
// @Security     BearerAuth
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkComplete godoc
// @Summary      Marcar tarea como terminada
// @Tags         tasks
// @Produce      json
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.TaskResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/mark_complete/ [post]
// @Security     BearerAuth
func (h *TaskHandler) MarkComplete(c *fiber.Ctx) error {
	out, err := h.uc.MarkComplete(c.UserContext(), GetNamespace(c), GetUser(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
