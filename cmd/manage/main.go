// Comandos operativos: migrate, createsuperuser y enqueue.
//
//	manage migrate
//	manage createsuperuser -username root -email root@example.com -password secreto123
//	manage enqueue -job cleanup_old_data -days 30
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Proyectos-api/internal/infrastructure/queue"
	"github.com/jhoicas/Proyectos-api/pkg/config"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "uso: manage <migrate|createsuperuser|enqueue> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		err = migrate(ctx, cfg, log)
	case "createsuperuser":
		err = createSuperuser(ctx, cfg, log, os.Args[2:])
	case "enqueue":
		err = enqueue(ctx, cfg, log, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("comando fallido")
	}
}

// migrate crea las tablas de public y aplica el DDL de empresa a cada schema registrado.
func migrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	schemas := postgres.NewSchemaRepository(pool)
	if err := schemas.MigratePublic(ctx); err != nil {
		return err
	}
	log.Info().Msg("schema public migrado")

	companies, err := postgres.NewCompanyRepository(pool).ListActive(ctx)
	if err != nil {
		return err
	}
	for _, c := range companies {
		if err := schemas.MigrateTenant(ctx, tenant.Namespace(c.SchemaName)); err != nil {
			return err
		}
		log.Info().Str("schema", c.SchemaName).Msg("schema de empresa migrado")
	}
	return nil
}

// createSuperuser crea un superusuario de plataforma en public.
func createSuperuser(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	username := fs.String("username", "", "nombre de usuario")
	email := fs.String("email", "", "email")
	password := fs.String("password", os.Getenv("SUPERUSER_PASSWORD"), "contraseña (o SUPERUSER_PASSWORD)")
	_ = fs.Parse(args)

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	in := usecase.IdentityInput{
		Username:    *username,
		Email:       *email,
		Password:    *password,
		IsStaff:     true,
		IsSuperuser: true,
	}
	var created string
	err = postgres.NewTxRunner(pool).Run(ctx, func(r repository.Repos) error {
		if err := usecase.ValidateIdentity(ctx, r.Users, tenant.Public, in, ""); err != nil {
			return err
		}
		u, err := usecase.CreateIdentity(ctx, r.Users, tenant.Public, in, time.Now().UTC())
		if err != nil {
			return err
		}
		created = u.ID
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("user_id", created).Str("username", *username).Msg("superusuario creado")
	return nil
}

// enqueue publica un trabajo a mano.
func enqueue(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	name := fs.String("job", jobs.JobCheckOverdue, "nombre del trabajo")
	schema := fs.String("schema", "", "schema de la empresa (trabajos por empresa)")
	id := fs.String("id", "", "task_id, project_id o user_id según el trabajo")
	days := fs.Int("days", jobs.DefaultCleanupDays, "antigüedad para cleanup_old_data")
	_ = fs.Parse(args)

	var env dto.JobEnvelope
	ns := tenant.Namespace(*schema)
	switch *name {
	case jobs.JobCheckOverdue:
		env = jobs.CheckOverdue()
	case jobs.JobCleanup:
		env = jobs.Cleanup(*days)
	case jobs.JobTaskReminder:
		env = jobs.TaskReminder(ns, *id)
	case jobs.JobProjectReport:
		env = jobs.ProjectReport(ns, *id)
	case jobs.JobWelcomeEmail:
		env = jobs.WelcomeEmail(ns, *id)
	default:
		return fmt.Errorf("%w: %q", jobs.ErrUnknownJob, *name)
	}

	publisher := queue.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer publisher.Close()
	if err := publisher.Publish(ctx, env); err != nil {
		return err
	}
	log.Info().Str("job", env.Name).Str("job_id", env.ID).Msg("trabajo encolado")
	return nil
}
