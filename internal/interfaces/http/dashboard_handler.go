package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/Proyectos-api/internal/application/analytics"
)

// DashboardHandler maneja el resumen del usuario.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve el resumen del usuario autenticado.
// GET /api/dashboard/
//
// Respuesta: DashboardResponse (total_projects, total_tasks, my_tasks por estado,
// projects[5] más nuevos, recent_tasks[5] asignadas al usuario).
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.UserContext(), GetNamespace(c), GetUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
