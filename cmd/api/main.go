package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"

	appanalytics "github.com/jhoicas/Proyectos-api/internal/application/analytics"
	"github.com/jhoicas/Proyectos-api/internal/application/auth"
	"github.com/jhoicas/Proyectos-api/internal/application/registry"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	infrapdf "github.com/jhoicas/Proyectos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/queue"
	httpRouter "github.com/jhoicas/Proyectos-api/internal/interfaces/http"
	"github.com/jhoicas/Proyectos-api/pkg/config"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.NewSchemaRepository(pool).MigratePublic(ctx); err != nil {
		log.Fatal().Err(err).Msg("migración del schema public")
	}

	repos := postgres.NewRepos(pool)
	txRunner := postgres.NewTxRunner(pool)

	publisher := queue.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer publisher.Close()

	// PDF: reporte de proyecto
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()

	reg := registry.NewRegistry(repos, txRunner, publisher, registry.Options{
		DropSchemaOnDelete: cfg.Tenant.DropSchemaOnDelete,
	})
	authUC := auth.NewAuthUseCase(repos.Users, auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessMinutes:  cfg.JWT.AccessMinutes,
		RefreshMinutes: cfg.JWT.RefreshMinutes,
	})
	userUC := usecase.NewUserUseCase(repos, txRunner, publisher)
	projectUC := usecase.NewProjectUseCase(repos, txRunner, publisher, pdfGenerator)
	taskUC := usecase.NewTaskUseCase(repos)
	dashboardUC := appanalytics.NewDashboardUseCase(repos)

	app := httpRouter.NewApp(cfg.App.Name, log)

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Proyectos API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Registry:    reg,
		AuthUC:      authUC,
		UserUC:      userUC,
		ProjectUC:   projectUC,
		TaskUC:      taskUC,
		DashboardUC: dashboardUC,
		Log:         log,
		ServiceName: cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
