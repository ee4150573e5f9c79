package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
)

// pageParams lee ?limit=&offset= y aplica los topes de paginación.
func pageParams(c *fiber.Ctx) (int, int) {
	return usecase.ClampPage(c.QueryInt("limit", 0), c.QueryInt("offset", 0))
}

// taskQuery filtros de listado de tareas desde el query string.
func taskQuery(c *fiber.Ctx) dto.TaskListQuery {
	limit, offset := pageParams(c)
	return dto.TaskListQuery{
		ProjectID:  c.Query("project"),
		Status:     c.Query("status"),
		AssignedTo: c.Query("assigned_to"),
		Limit:      limit,
		Offset:     offset,
	}
}
