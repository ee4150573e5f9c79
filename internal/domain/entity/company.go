package entity

import "time"

// Planes de suscripción.
const (
	PlanFree         = "free"
	PlanBasic        = "basic"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Límites por defecto de una empresa nueva.
const (
	DefaultMaxUsers    = 5
	DefaultMaxProjects = 3
)

// ValidPlan indica si el plan existe.
func ValidPlan(p string) bool {
	switch p {
	case PlanFree, PlanBasic, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

// Company representa una organización/tenant. Cada empresa vive en su propio schema (SchemaName),
// que se asigna al crearla y no cambia nunca.
type Company struct {
	ID                    string
	Name                  string
	SchemaName            string
	SubscriptionPlan      string
	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time
	IsActive              bool
	MaxUsers              int
	MaxProjects           int
	ContactEmail          string
	ContactPhone          string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Domain asocia un hostname con una empresa (acme.example.com -> schema acme).
// Solo un dominio por empresa puede ser primario.
type Domain struct {
	ID        string
	Domain    string
	CompanyID string
	IsPrimary bool
	CreatedAt time.Time
}
