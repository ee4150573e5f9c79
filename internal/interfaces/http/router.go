package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appanalytics "github.com/jhoicas/Proyectos-api/internal/application/analytics"
	"github.com/jhoicas/Proyectos-api/internal/application/auth"
	"github.com/jhoicas/Proyectos-api/internal/application/registry"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
	"github.com/jhoicas/Proyectos-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry    *registry.Registry
	AuthUC      *auth.AuthUseCase
	UserUC      *usecase.UserUseCase
	ProjectUC   *usecase.ProjectUseCase
	TaskUC      *usecase.TaskUseCase
	DashboardUC *appanalytics.DashboardUseCase
	Log         *logger.Logger
	ServiceName string
}

// NewApp crea la app Fiber con recover, logging por petición y métricas.
func NewApp(name string, log *logger.Logger) *fiber.App {
	if log == nil {
		log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(RequestLogger(log))
	app.Use(metrics.Middleware(name))
	return app
}

// Router registra las rutas de la API. El namespace sale del Host de cada petición.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api", TenantMiddleware(deps.Registry))
	authn := AuthMiddleware(deps.AuthUC)
	onlyPublic := RequirePublic()
	onlyTenant := RequireTenant()

	// Auth (ambos namespaces)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/token", authHandler.Token)
	api.Post("/token/refresh", authHandler.Refresh)

	// ── Public ────────────────────────────────────────────────────────────────
	companyHandler := NewCompanyHandler(deps.Registry)
	api.Post("/register", onlyPublic, companyHandler.Register)
	api.Get("/health", onlyPublic, companyHandler.Health)

	companies := api.Group("/companies", onlyPublic, authn, RequireSuperuser())
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Put("/:id", companyHandler.Update)
	companies.Patch("/:id", companyHandler.Update)
	companies.Delete("/:id", companyHandler.Delete)

	domains := api.Group("/domains", onlyPublic, authn, RequireSuperuser())
	domains.Get("/", companyHandler.ListDomains)
	domains.Post("/", companyHandler.CreateDomain)
	domains.Get("/:id", companyHandler.GetDomain)
	domains.Put("/:id", companyHandler.UpdateDomain)
	domains.Patch("/:id", companyHandler.UpdateDomain)
	domains.Delete("/:id", companyHandler.DeleteDomain)

	// ── Tenant ────────────────────────────────────────────────────────────────
	userHandler := NewUserHandler(deps.UserUC)
	users := api.Group("/users", onlyTenant, authn)
	users.Post("/register", userHandler.Register)
	users.Get("/", userHandler.List)
	users.Get("/me", userHandler.Me)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Patch("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	projectHandler := NewProjectHandler(deps.ProjectUC)
	projects := api.Group("/projects", onlyTenant, authn)
	projects.Get("/", projectHandler.List)
	projects.Post("/", projectHandler.Create)
	projects.Get("/:id", projectHandler.GetByID)
	projects.Put("/:id", projectHandler.Update)
	projects.Patch("/:id", projectHandler.Update)
	projects.Delete("/:id", projectHandler.Delete)
	projects.Post("/:id/add_member", projectHandler.AddMember)
	projects.Post("/:id/remove_member", projectHandler.RemoveMember)
	projects.Get("/:id/statistics", projectHandler.Statistics)
	projects.Post("/:id/report", projectHandler.EnqueueReport)
	projects.Get("/:id/report/pdf", projectHandler.ReportPDF)

	taskHandler := NewTaskHandler(deps.TaskUC)
	tasks := api.Group("/tasks", onlyTenant, authn)
	tasks.Get("/", taskHandler.List)
	tasks.Post("/", taskHandler.Create)
	tasks.Get("/my_tasks", taskHandler.MyTasks)
	tasks.Get("/:id", taskHandler.GetByID)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Patch("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)
	tasks.Post("/:id/mark_complete", taskHandler.MarkComplete)

	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	api.Get("/dashboard", onlyTenant, authn, dashboardHandler.GetSummary)
}
