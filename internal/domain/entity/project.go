package entity

import "time"

// Estados de proyecto.
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// ValidProjectStatus indica si el estado existe.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Owned lo implementa toda entidad con un usuario responsable (dueño, creador o titular).
type Owned interface {
	OwnerID() string
}

// Project agrupa tareas; tiene un dueño y un conjunto de miembros.
type Project struct {
	ID          string
	Name        string
	Description string
	Status      string
	OwnerUserID string
	MemberIDs   []string
	StartDate   *time.Time // solo fecha
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Solo lectura: calculado por el repositorio.
	TaskCount int
}

// OwnerID implementa Owned.
func (p *Project) OwnerID() string { return p.OwnerUserID }

// HasMember indica si userID está en la lista de miembros.
func (p *Project) HasMember(userID string) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAccessibleBy dueño o miembro.
func (p *Project) IsAccessibleBy(userID string) bool {
	return userID != "" && (p.OwnerUserID == userID || p.HasMember(userID))
}
