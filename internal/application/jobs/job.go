// Package jobs contiene los trabajos en segundo plano.
//
// Cada trabajo es un único intento sin reintentos internos: si falla, registra el error con
// contexto (trabajo, schema, entidad) y lo devuelve para que la cola decida si reentrega.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// Nombres de trabajo (viajan en JobEnvelope.Name).
const (
	JobTaskReminder  = "send_task_reminder_email"
	JobCheckOverdue  = "check_overdue_tasks"
	JobProjectReport = "generate_project_report"
	JobCleanup       = "cleanup_old_data"
	JobWelcomeEmail  = "send_welcome_email"
)

// ErrBadPayload el payload del envelope no se puede decodificar.
var ErrBadPayload = errors.New("jobs: payload inválido")

// DefaultCleanupDays antigüedad por defecto de cleanup_old_data.
const DefaultCleanupDays = 90

// TaskReminderPayload payload de send_task_reminder_email.
type TaskReminderPayload struct {
	TaskID string `json:"task_id"`
}

// ProjectReportPayload payload de generate_project_report.
type ProjectReportPayload struct {
	ProjectID string `json:"project_id"`
}

// CleanupPayload payload de cleanup_old_data.
type CleanupPayload struct {
	Days int `json:"days"`
}

// WelcomeEmailPayload payload de send_welcome_email.
type WelcomeEmailPayload struct {
	UserID string `json:"user_id"`
}

func newEnvelope(name string, ns tenant.Namespace, payload interface{}) dto.JobEnvelope {
	env := dto.JobEnvelope{
		ID:         uuid.New().String(),
		Name:       name,
		Namespace:  string(ns),
		EnqueuedAt: time.Now().UTC(),
	}
	if payload != nil {
		// los payloads son structs planos de strings/ints: Marshal no falla
		b, _ := json.Marshal(payload)
		env.Payload = b
	}
	return env
}

// TaskReminder construye el envelope de un recordatorio.
func TaskReminder(ns tenant.Namespace, taskID string) dto.JobEnvelope {
	return newEnvelope(JobTaskReminder, ns, TaskReminderPayload{TaskID: taskID})
}

// ProjectReport construye el envelope del reporte de proyecto.
func ProjectReport(ns tenant.Namespace, projectID string) dto.JobEnvelope {
	return newEnvelope(JobProjectReport, ns, ProjectReportPayload{ProjectID: projectID})
}

// WelcomeEmail construye el envelope del correo de bienvenida.
func WelcomeEmail(ns tenant.Namespace, userID string) dto.JobEnvelope {
	return newEnvelope(JobWelcomeEmail, ns, WelcomeEmailPayload{UserID: userID})
}

// CheckOverdue construye el envelope del barrido de tareas vencidas (todas las empresas).
func CheckOverdue() dto.JobEnvelope {
	return newEnvelope(JobCheckOverdue, "", nil)
}

// Cleanup construye el envelope de limpieza (todas las empresas).
func Cleanup(days int) dto.JobEnvelope {
	return newEnvelope(JobCleanup, "", CleanupPayload{Days: days})
}

// decodePayload decodifica el payload; un payload vacío deja v con sus valores por defecto.
func decodePayload(env dto.JobEnvelope, v interface{}) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w para %s: %v", ErrBadPayload, env.Name, err)
	}
	return nil
}
