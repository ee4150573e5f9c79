package dto

import "time"

// RegisterCompanyRequest alta pública de empresa + dominio + admin.
type RegisterCompanyRequest struct {
	CompanyName      string `json:"company_name"`
	SchemaName       string `json:"schema_name"`
	DomainURL        string `json:"domain_url"`
	AdminUsername    string `json:"admin_username"`
	AdminEmail       string `json:"admin_email"`
	AdminPassword    string `json:"admin_password"`
	SubscriptionPlan string `json:"subscription_plan"`
}

// RegisterCompanyResponse salida del registro.
type RegisterCompanyResponse struct {
	Message       string            `json:"message"`
	Company       RegisteredCompany `json:"company"`
	Domain        string            `json:"domain"`
	AdminUsername string            `json:"admin_username"`
}

// RegisteredCompany resumen de la empresa creada.
type RegisteredCompany struct {
	Name       string `json:"name"`
	SchemaName string `json:"schema_name"`
}

// CreateCompanyRequest alta de empresa por un superusuario (sin admin).
type CreateCompanyRequest struct {
	Name                  string     `json:"name"`
	SchemaName            string     `json:"schema_name"`
	SubscriptionPlan      string     `json:"subscription_plan"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date"`
	IsActive              *bool      `json:"is_active"`
	MaxUsers              *int       `json:"max_users"`
	MaxProjects           *int       `json:"max_projects"`
	ContactEmail          string     `json:"contact_email"`
	ContactPhone          string     `json:"contact_phone"`
}

// UpdateCompanyRequest actualización parcial; schema_name es inmutable y se ignora.
type UpdateCompanyRequest struct {
	Name                  *string    `json:"name"`
	SubscriptionPlan      *string    `json:"subscription_plan"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date"`
	IsActive              *bool      `json:"is_active"`
	MaxUsers              *int       `json:"max_users"`
	MaxProjects           *int       `json:"max_projects"`
	ContactEmail          *string    `json:"contact_email"`
	ContactPhone          *string    `json:"contact_phone"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	SchemaName            string     `json:"schema_name"`
	SubscriptionPlan      string     `json:"subscription_plan"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date"`
	IsActive              bool       `json:"is_active"`
	MaxUsers              int        `json:"max_users"`
	MaxProjects           int        `json:"max_projects"`
	ContactEmail          string     `json:"contact_email"`
	ContactPhone          string     `json:"contact_phone"`
	CreatedAt             time.Time  `json:"created_at"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// DomainRequest alta/edición de dominio. En edición los campos nil no cambian.
type DomainRequest struct {
	Domain    *string `json:"domain"`
	CompanyID *string `json:"tenant"`
	IsPrimary *bool   `json:"is_primary"`
}

// DomainResponse salida de un dominio.
type DomainResponse struct {
	ID        string `json:"id"`
	Domain    string `json:"domain"`
	IsPrimary bool   `json:"is_primary"`
	CompanyID string `json:"tenant"`
}

// DomainListResponse lista paginada de dominios.
type DomainListResponse struct {
	Items []DomainResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
