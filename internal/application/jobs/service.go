package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

// ErrUnknownJob el envelope trae un nombre que ningún handler atiende.
var ErrUnknownJob = errors.New("jobs: trabajo desconocido")

// Service ejecuta los trabajos en segundo plano. Ningún trabajo lee estado ambiental:
// el namespace llega siempre como argumento.
type Service struct {
	repos     repository.Repos
	mailer    ports.Mailer
	publisher ports.JobPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewService construye el servicio de trabajos.
func NewService(repos repository.Repos, mailer ports.Mailer, publisher ports.JobPublisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repos: repos, mailer: mailer, publisher: publisher, log: log, now: time.Now}
}

// SetClock reemplaza el reloj (tests).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Handle despacha un envelope al trabajo correspondiente.
// Los trabajos por empresa exigen un schema de empresa válido; los globales ignoran el namespace.
func (s *Service) Handle(ctx context.Context, env dto.JobEnvelope) error {
	switch env.Name {
	case JobTaskReminder:
		var p TaskReminderPayload
		ns, err := tenantNamespace(env)
		if err != nil {
			return err
		}
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		return s.SendTaskReminderEmail(ctx, ns, p.TaskID)
	case JobCheckOverdue:
		_, err := s.CheckOverdueTasks(ctx)
		return err
	case JobProjectReport:
		var p ProjectReportPayload
		ns, err := tenantNamespace(env)
		if err != nil {
			return err
		}
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		_, err = s.GenerateProjectReport(ctx, ns, p.ProjectID)
		return err
	case JobCleanup:
		p := CleanupPayload{Days: DefaultCleanupDays}
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		_, err := s.CleanupOldData(ctx, p.Days)
		return err
	case JobWelcomeEmail:
		var p WelcomeEmailPayload
		ns, err := tenantNamespace(env)
		if err != nil {
			return err
		}
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		return s.SendWelcomeEmail(ctx, ns, p.UserID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownJob, env.Name)
}

// tenantNamespace valida el schema del envelope; public o un nombre mal formado es un payload inválido.
func tenantNamespace(env dto.JobEnvelope) (tenant.Namespace, error) {
	ns, err := tenant.NormalizeSchema(env.Namespace)
	if err != nil {
		return "", fmt.Errorf("%w para %s: namespace %q: %v", ErrBadPayload, env.Name, env.Namespace, err)
	}
	return ns, nil
}

// ── send_task_reminder_email ──────────────────────────────────────────────────

// SendTaskReminderEmail envía el recordatorio de una tarea a su asignado.
// No hace nada si la tarea no tiene asignado, si el asignado no tiene email o si ya se
// envió hoy (UTC). Si el envío falla se libera la reserva del día para poder reintentar.
func (s *Service) SendTaskReminderEmail(ctx context.Context, ns tenant.Namespace, taskID string) error {
	log := s.log.Job(JobTaskReminder, ns.String())
	task, err := s.repos.Tasks.GetByID(ctx, ns, taskID)
	if err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("error cargando tarea")
		return fmt.Errorf("reminder: cargar tarea %s: %w", taskID, err)
	}
	if task == nil {
		log.Error().Str("task_id", taskID).Msg("tarea no encontrada")
		return fmt.Errorf("reminder: tarea %s: %w", taskID, domain.ErrNotFound)
	}
	if task.AssignedTo == nil {
		return nil
	}
	assignee, err := s.repos.Users.GetByID(ctx, ns, *task.AssignedTo)
	if err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("error cargando asignado")
		return fmt.Errorf("reminder: cargar asignado: %w", err)
	}
	if assignee == nil || assignee.Email == "" {
		return nil
	}

	day := s.now().UTC()
	claimed, err := s.repos.Reminders.Claim(ctx, ns, task.ID, day)
	if err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("error reservando recordatorio")
		return fmt.Errorf("reminder: reservar: %w", err)
	}
	if !claimed {
		log.Debug().Str("task_id", taskID).Msg("recordatorio ya enviado hoy")
		return nil
	}

	msg := reminderEmail(assignee, task)
	if err := s.mailer.Send(ctx, msg); err != nil {
		if rerr := s.repos.Reminders.Release(ctx, ns, task.ID, day); rerr != nil {
			log.Error().Err(rerr).Str("task_id", taskID).Msg("no se pudo liberar la reserva")
		}
		log.Error().Err(err).Str("task_id", taskID).Str("to", assignee.Email).Msg("error enviando recordatorio")
		return fmt.Errorf("reminder: enviar a %s: %w", assignee.Email, err)
	}
	log.Info().Str("task_id", taskID).Str("to", assignee.Email).Msg("recordatorio enviado")
	return nil
}

func reminderEmail(u *entity.User, t *entity.Task) ports.Email {
	due := "sin fecha"
	if t.DueDate != nil {
		due = t.DueDate.Format("2006-01-02 15:04")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\n", u.FullName())
	b.WriteString("Este es un recordatorio de tu tarea:\n\n")
	fmt.Fprintf(&b, "Tarea: %s\n", t.Title)
	fmt.Fprintf(&b, "Proyecto: %s\n", t.ProjectName)
	fmt.Fprintf(&b, "Prioridad: %s\n", t.Priority)
	fmt.Fprintf(&b, "Vence: %s\n", due)
	fmt.Fprintf(&b, "Estado: %s\n\n", t.Status)
	b.WriteString("Por favor completa esta tarea a tiempo.\n")
	return ports.Email{
		To:      u.Email,
		Subject: "Recordatorio de tarea: " + t.Title,
		Body:    b.String(),
	}
}

// ── check_overdue_tasks ───────────────────────────────────────────────────────

// CheckOverdueTasks recorre las empresas activas y encola un recordatorio por cada tarea
// vencida con asignado. Un namespace que falla se registra y se salta.
// Devuelve la cantidad de recordatorios encolados.
func (s *Service) CheckOverdueTasks(ctx context.Context) (int, error) {
	log := s.log.Job(JobCheckOverdue, "")
	companies, err := s.repos.Companies.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error listando empresas")
		return 0, fmt.Errorf("overdue: listar empresas: %w", err)
	}
	now := s.now().UTC()
	enqueued := 0
	for _, c := range companies {
		ns := tenant.Namespace(c.SchemaName)
		tasks, err := s.repos.Tasks.ListOverdue(ctx, ns, now)
		if err != nil {
			log.Error().Err(err).Str("schema", ns.String()).Msg("error consultando tareas vencidas")
			continue
		}
		for _, t := range tasks {
			if t.AssignedTo == nil {
				continue
			}
			if err := s.publisher.Publish(ctx, TaskReminder(ns, t.ID)); err != nil {
				log.Error().Err(err).Str("schema", ns.String()).Str("task_id", t.ID).Msg("error encolando recordatorio")
				continue
			}
			enqueued++
		}
	}
	log.Info().Int("enqueued", enqueued).Int("companies", len(companies)).Msg("barrido de vencidas terminado")
	return enqueued, nil
}

// ── generate_project_report ───────────────────────────────────────────────────

// GenerateProjectReport construye el reporte del proyecto y lo registra.
func (s *Service) GenerateProjectReport(ctx context.Context, ns tenant.Namespace, projectID string) (*dto.ProjectReport, error) {
	log := s.log.Job(JobProjectReport, ns.String())
	report, err := BuildProjectReport(ctx, s.repos, ns, projectID, s.now().UTC())
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("error generando reporte")
		return nil, err
	}
	log.Info().
		Str("project_id", projectID).
		Int("total_tasks", report.TotalTasks).
		Str("completion_rate", report.CompletionRate.StringFixed(2)).
		Msg("reporte generado")
	return report, nil
}

// BuildProjectReport calcula el reporte; lo comparten el trabajo y el endpoint PDF.
func BuildProjectReport(ctx context.Context, repos repository.Repos, ns tenant.Namespace, projectID string, now time.Time) (*dto.ProjectReport, error) {
	project, err := repos.Projects.GetByID(ctx, ns, projectID)
	if err != nil {
		return nil, fmt.Errorf("report: cargar proyecto %s: %w", projectID, err)
	}
	if project == nil {
		return nil, fmt.Errorf("report: proyecto %s: %w", projectID, domain.ErrNotFound)
	}
	owner, err := repos.Users.GetByID(ctx, ns, project.OwnerUserID)
	if err != nil {
		return nil, fmt.Errorf("report: cargar dueño: %w", err)
	}
	stats, err := repos.Tasks.ProjectStats(ctx, ns, projectID, now)
	if err != nil {
		return nil, fmt.Errorf("report: estadísticas: %w", err)
	}

	ownerName := project.OwnerUserID
	if owner != nil {
		ownerName = owner.Username
	}
	byPriority := make(map[string]int, len(entity.TaskPriorities))
	for _, p := range entity.TaskPriorities {
		byPriority[p] = stats.ByPriority[p]
	}
	return &dto.ProjectReport{
		ProjectID:       project.ID,
		ProjectName:     project.Name,
		Owner:           ownerName,
		TotalMembers:    len(project.MemberIDs),
		TotalTasks:      stats.Total,
		CompletedTasks:  stats.ByStatus[entity.TaskDone],
		PendingTasks:    stats.ByStatus[entity.TaskTodo] + stats.ByStatus[entity.TaskInProgress],
		OverdueTasks:    stats.Overdue,
		TasksByPriority: byPriority,
		CompletionRate:  stats.CompletionRate.Round(2),
		GeneratedAt:     now,
	}, nil
}

// ── cleanup_old_data ──────────────────────────────────────────────────────────

// CleanupOldData borra en cada empresa activa las tareas done con completed_at anterior a
// now - days. Un namespace que falla se registra y se salta. Devuelve el total borrado.
func (s *Service) CleanupOldData(ctx context.Context, days int) (int64, error) {
	log := s.log.Job(JobCleanup, "")
	if days <= 0 {
		return 0, fmt.Errorf("cleanup: days debe ser positivo (%d): %w", days, domain.ErrInvalidInput)
	}
	companies, err := s.repos.Companies.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error listando empresas")
		return 0, fmt.Errorf("cleanup: listar empresas: %w", err)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	var total int64
	for _, c := range companies {
		ns := tenant.Namespace(c.SchemaName)
		n, err := s.repos.Tasks.DeleteCompletedBefore(ctx, ns, cutoff)
		if err != nil {
			log.Error().Err(err).Str("schema", ns.String()).Msg("error limpiando tareas")
			continue
		}
		if n > 0 {
			log.Info().Str("schema", ns.String()).Int64("deleted", n).Msg("tareas antiguas eliminadas")
		}
		total += n
	}
	return total, nil
}

// ── send_welcome_email ────────────────────────────────────────────────────────

// SendWelcomeEmail envía el correo de bienvenida. Sin email no hace nada.
func (s *Service) SendWelcomeEmail(ctx context.Context, ns tenant.Namespace, userID string) error {
	log := s.log.Job(JobWelcomeEmail, ns.String())
	u, err := s.repos.Users.GetByID(ctx, ns, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("error cargando usuario")
		return fmt.Errorf("welcome: cargar usuario %s: %w", userID, err)
	}
	if u == nil {
		log.Error().Str("user_id", userID).Msg("usuario no encontrado")
		return fmt.Errorf("welcome: usuario %s: %w", userID, domain.ErrUserNotFound)
	}
	if u.Email == "" {
		return nil
	}
	body := fmt.Sprintf("Hola %s,\n\n¡Bienvenido a nuestra plataforma de gestión de proyectos!\n\n"+
		"Tu cuenta fue creada con éxito. Ya puedes crear proyectos, administrar tareas y colaborar con tu equipo.\n\n"+
		"Saludos,\nEl equipo\n", u.FullName())
	if err := s.mailer.Send(ctx, ports.Email{To: u.Email, Subject: "¡Bienvenido a la plataforma!", Body: body}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("to", u.Email).Msg("error enviando bienvenida")
		return fmt.Errorf("welcome: enviar a %s: %w", u.Email, err)
	}
	log.Info().Str("user_id", userID).Str("to", u.Email).Msg("bienvenida enviada")
	return nil
}
