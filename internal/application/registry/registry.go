// Package registry administra el registro público de empresas y sus dominios.
//
// El alta de una empresa es una única transacción: fila en companies, dominio primario,
// CREATE SCHEMA con las tablas del tenant y el usuario administrador con su perfil.
// Si cualquier paso falla no queda nada de los anteriores.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/pkg/logger"
)

const maxCompanyName = 100

// Options comportamiento configurable del registro.
type Options struct {
	// DropSchemaOnDelete borra el schema (y todos sus datos) al borrar la empresa.
	DropSchemaOnDelete bool
}

// Registry casos de uso del namespace public: registro, empresas, dominios y resolución de host.
type Registry struct {
	repos repository.Repos
	tx    repository.TxRunner
	jobs  ports.JobPublisher
	opts  Options
	now   func() time.Time
}

// NewRegistry construye el registro. jobs puede ser nil.
func NewRegistry(repos repository.Repos, tx repository.TxRunner, jobs ports.JobPublisher, opts Options) *Registry {
	return &Registry{repos: repos, tx: tx, jobs: jobs, opts: opts, now: time.Now}
}

// ── Registro público ─────────────────────────────────────────────────────────

// RegisterCompany crea empresa, dominio primario, schema y administrador de forma atómica.
func (r *Registry) RegisterCompany(ctx context.Context, in dto.RegisterCompanyRequest) (*dto.RegisterCompanyResponse, error) {
	verr := &domain.ValidationError{}
	name := strings.TrimSpace(in.CompanyName)
	validateCompanyName("company_name", name, verr)
	plan := planOrDefault(in.SubscriptionPlan, verr)

	ns, err := tenant.NormalizeSchema(in.SchemaName)
	if err != nil {
		verr.Add("schema_name", err.Error())
	} else if err := r.checkSchemaFree(ctx, ns, verr); err != nil {
		return nil, err
	}
	host, err := tenant.NormalizeDomain(in.DomainURL)
	if err != nil {
		verr.Add("domain_url", err.Error())
	} else if err := r.checkHostFree(ctx, "domain_url", host, verr); err != nil {
		return nil, err
	}

	admin := usecase.IdentityInput{
		Username:    in.AdminUsername,
		Email:       in.AdminEmail,
		Password:    in.AdminPassword,
		Role:        entity.RoleAdmin,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := usecase.ValidateIdentity(ctx, nil, ns, admin, "admin_"); err != nil {
		var fields *domain.ValidationError
		if !errors.As(err, &fields) {
			return nil, err
		}
		for f, msgs := range fields.Fields {
			for _, m := range msgs {
				verr.Add(f, m)
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	company := newCompany(name, ns, plan, now)
	var adminUser *entity.User
	err = r.tx.Run(ctx, func(tx repository.Repos) error {
		if err := tx.Companies.Create(ctx, company); err != nil {
			return duplicateAs(err, "schema_name", "ya existe una empresa con este schema")
		}
		d := &entity.Domain{
			ID:        uuid.New().String(),
			Domain:    host,
			CompanyID: company.ID,
			IsPrimary: true,
			CreatedAt: now,
		}
		if err := tx.Domains.Create(ctx, d); err != nil {
			return duplicateAs(err, "domain_url", "el dominio ya está registrado")
		}
		if err := tx.Schemas.CreateSchema(ctx, ns); err != nil {
			return fmt.Errorf("registry: crear schema %s: %w", ns, err)
		}
		u, err := usecase.CreateIdentity(ctx, tx.Users, ns, admin, now)
		if err != nil {
			return duplicateAs(err, "admin_username", "el username ya existe en esta organización")
		}
		adminUser = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("schema", ns.String()).
		Str("domain", host).
		Str("company_id", company.ID).
		Msg("empresa registrada")
	enqueueJob(ctx, r.jobs, jobs.WelcomeEmail(ns, adminUser.ID))

	return &dto.RegisterCompanyResponse{
		Message:       "Empresa registrada correctamente",
		Company:       dto.RegisteredCompany{Name: company.Name, SchemaName: company.SchemaName},
		Domain:        host,
		AdminUsername: adminUser.Username,
	}, nil
}

// ResolveHost devuelve la empresa dueña del host, o nil si el host no está registrado
// (namespace public). Una empresa inactiva devuelve ErrForbidden.
func (r *Registry) ResolveHost(ctx context.Context, rawHost string) (*entity.Company, error) {
	host, err := tenant.NormalizeDomain(rawHost)
	if err != nil {
		return nil, nil
	}
	d, err := r.repos.Domains.GetByHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("registry: resolver host %s: %w", host, err)
	}
	if d == nil {
		return nil, nil
	}
	c, err := r.repos.Companies.GetByID(ctx, d.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("registry: cargar empresa de %s: %w", host, err)
	}
	if c == nil {
		return nil, nil
	}
	if !c.IsActive {
		return nil, fmt.Errorf("%w: empresa inactiva", domain.ErrForbidden)
	}
	return c, nil
}

// ── Empresas (superusuario) ──────────────────────────────────────────────────

// ListCompanies lista paginada de empresas.
func (r *Registry) ListCompanies(ctx context.Context, limit, offset int) (*dto.CompanyListResponse, error) {
	limit, offset = usecase.ClampPage(limit, offset)
	list, err := r.repos.Companies.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("registry: listar empresas: %w", err)
	}
	total, err := r.repos.Companies.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: contar empresas: %w", err)
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, toCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// GetCompany detalle de una empresa.
func (r *Registry) GetCompany(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	c, err := r.loadCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toCompanyResponse(c)
	return &out, nil
}

// CreateCompany alta de empresa con su schema, sin dominio ni administrador.
func (r *Registry) CreateCompany(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	verr := &domain.ValidationError{}
	name := strings.TrimSpace(in.Name)
	validateCompanyName("name", name, verr)
	plan := planOrDefault(in.SubscriptionPlan, verr)
	ns, err := tenant.NormalizeSchema(in.SchemaName)
	if err != nil {
		verr.Add("schema_name", err.Error())
	} else if err := r.checkSchemaFree(ctx, ns, verr); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	c := newCompany(name, ns, plan, now)
	c.SubscriptionStartDate = in.SubscriptionStartDate
	c.SubscriptionEndDate = in.SubscriptionEndDate
	c.ContactEmail = in.ContactEmail
	c.ContactPhone = in.ContactPhone
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.MaxUsers != nil {
		c.MaxUsers = *in.MaxUsers
	}
	if in.MaxProjects != nil {
		c.MaxProjects = *in.MaxProjects
	}
	validateCompanyFields(c, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	err = r.tx.Run(ctx, func(tx repository.Repos) error {
		if err := tx.Companies.Create(ctx, c); err != nil {
			return duplicateAs(err, "schema_name", "ya existe una empresa con este schema")
		}
		if err := tx.Schemas.CreateSchema(ctx, ns); err != nil {
			return fmt.Errorf("registry: crear schema %s: %w", ns, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := toCompanyResponse(c)
	return &out, nil
}

// UpdateCompany actualización parcial; schema_name no cambia nunca.
func (r *Registry) UpdateCompany(ctx context.Context, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	c, err := r.loadCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	verr := &domain.ValidationError{}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
		validateCompanyName("name", c.Name, verr)
	}
	if in.SubscriptionPlan != nil {
		c.SubscriptionPlan = *in.SubscriptionPlan
	}
	if in.SubscriptionStartDate != nil {
		c.SubscriptionStartDate = in.SubscriptionStartDate
	}
	if in.SubscriptionEndDate != nil {
		c.SubscriptionEndDate = in.SubscriptionEndDate
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.MaxUsers != nil {
		c.MaxUsers = *in.MaxUsers
	}
	if in.MaxProjects != nil {
		c.MaxProjects = *in.MaxProjects
	}
	if in.ContactEmail != nil {
		c.ContactEmail = *in.ContactEmail
	}
	if in.ContactPhone != nil {
		c.ContactPhone = *in.ContactPhone
	}
	validateCompanyFields(c, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	c.UpdatedAt = r.now().UTC()
	if err := r.repos.Companies.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("registry: actualizar empresa: %w", err)
	}
	out := toCompanyResponse(c)
	return &out, nil
}

// DeleteCompany borra la empresa y sus dominios. El schema solo se elimina si
// Options.DropSchemaOnDelete está activo.
func (r *Registry) DeleteCompany(ctx context.Context, id string) error {
	c, err := r.loadCompany(ctx, id)
	if err != nil {
		return err
	}
	err = r.tx.Run(ctx, func(tx repository.Repos) error {
		if err := tx.Companies.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("registry: borrar empresa: %w", err)
		}
		if r.opts.DropSchemaOnDelete {
			if err := tx.Schemas.DropSchema(ctx, tenant.Namespace(c.SchemaName)); err != nil {
				return fmt.Errorf("registry: borrar schema %s: %w", c.SchemaName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info().
		Str("schema", c.SchemaName).
		Bool("schema_dropped", r.opts.DropSchemaOnDelete).
		Msg("empresa eliminada")
	return nil
}

// ── Dominios (superusuario) ──────────────────────────────────────────────────

// ListDomains lista paginada de dominios.
func (r *Registry) ListDomains(ctx context.Context, limit, offset int) (*dto.DomainListResponse, error) {
	limit, offset = usecase.ClampPage(limit, offset)
	list, err := r.repos.Domains.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("registry: listar dominios: %w", err)
	}
	total, err := r.repos.Domains.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: contar dominios: %w", err)
	}
	items := make([]dto.DomainResponse, 0, len(list))
	for _, d := range list {
		items = append(items, toDomainResponse(d))
	}
	return &dto.DomainListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// GetDomain detalle de un dominio.
func (r *Registry) GetDomain(ctx context.Context, id string) (*dto.DomainResponse, error) {
	d, err := r.loadDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toDomainResponse(d)
	return &out, nil
}

// CreateDomain agrega un hostname a una empresa.
func (r *Registry) CreateDomain(ctx context.Context, in dto.DomainRequest) (*dto.DomainResponse, error) {
	d := &entity.Domain{ID: uuid.New().String(), CreatedAt: r.now().UTC()}
	verr := &domain.ValidationError{}
	if in.Domain == nil {
		verr.Add("domain", "este campo es obligatorio")
	}
	if in.CompanyID == nil {
		verr.Add("tenant", "este campo es obligatorio")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := r.applyDomain(ctx, d, in, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := r.repos.Domains.Create(ctx, d); err != nil {
		return nil, duplicateAs(err, "domain", "el dominio ya está registrado")
	}
	out := toDomainResponse(d)
	return &out, nil
}

// UpdateDomain actualización parcial de un dominio.
func (r *Registry) UpdateDomain(ctx context.Context, id string, in dto.DomainRequest) (*dto.DomainResponse, error) {
	d, err := r.loadDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	verr := &domain.ValidationError{}
	if err := r.applyDomain(ctx, d, in, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := r.repos.Domains.Update(ctx, d); err != nil {
		return nil, duplicateAs(err, "domain", "el dominio ya está registrado")
	}
	out := toDomainResponse(d)
	return &out, nil
}

// DeleteDomain borra un dominio.
func (r *Registry) DeleteDomain(ctx context.Context, id string) error {
	d, err := r.loadDomain(ctx, id)
	if err != nil {
		return err
	}
	if err := r.repos.Domains.Delete(ctx, d.ID); err != nil {
		return fmt.Errorf("registry: borrar dominio: %w", err)
	}
	return nil
}

// applyDomain valida y copia los campos presentes; verifica unicidad del host y del primario.
func (r *Registry) applyDomain(ctx context.Context, d *entity.Domain, in dto.DomainRequest, verr *domain.ValidationError) error {
	if in.Domain != nil {
		host, err := tenant.NormalizeDomain(*in.Domain)
		if err != nil {
			verr.Add("domain", err.Error())
		} else if host != d.Domain {
			if err := r.checkHostFree(ctx, "domain", host, verr); err != nil {
				return err
			}
			d.Domain = host
		}
	}
	if in.CompanyID != nil {
		c, err := r.repos.Companies.GetByID(ctx, *in.CompanyID)
		if err != nil {
			return fmt.Errorf("registry: cargar empresa: %w", err)
		}
		if c == nil {
			verr.Add("tenant", "la empresa no existe")
		} else {
			d.CompanyID = c.ID
		}
	}
	if in.IsPrimary != nil {
		d.IsPrimary = *in.IsPrimary
	}
	if d.IsPrimary && d.CompanyID != "" {
		taken, err := r.repos.Domains.HasPrimary(ctx, d.CompanyID, d.ID)
		if err != nil {
			return fmt.Errorf("registry: verificar primario: %w", err)
		}
		if taken {
			verr.Add("is_primary", "la empresa ya tiene un dominio primario")
		}
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *Registry) checkSchemaFree(ctx context.Context, ns tenant.Namespace, verr *domain.ValidationError) error {
	exists, err := r.repos.Companies.ExistsSchema(ctx, ns.String())
	if err != nil {
		return fmt.Errorf("registry: verificar schema: %w", err)
	}
	if exists {
		verr.Add("schema_name", "ya existe una empresa con este schema")
	}
	return nil
}

func (r *Registry) checkHostFree(ctx context.Context, field, host string, verr *domain.ValidationError) error {
	exists, err := r.repos.Domains.ExistsHost(ctx, host)
	if err != nil {
		return fmt.Errorf("registry: verificar dominio: %w", err)
	}
	if exists {
		verr.Add(field, "el dominio ya está registrado")
	}
	return nil
}

func (r *Registry) loadCompany(ctx context.Context, id string) (*entity.Company, error) {
	c, err := r.repos.Companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("registry: cargar empresa %s: %w", id, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *Registry) loadDomain(ctx context.Context, id string) (*entity.Domain, error) {
	d, err := r.repos.Domains.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("registry: cargar dominio %s: %w", id, err)
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func newCompany(name string, ns tenant.Namespace, plan string, now time.Time) *entity.Company {
	return &entity.Company{
		ID:               uuid.New().String(),
		Name:             name,
		SchemaName:       ns.String(),
		SubscriptionPlan: plan,
		IsActive:         true,
		MaxUsers:         entity.DefaultMaxUsers,
		MaxProjects:      entity.DefaultMaxProjects,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func planOrDefault(plan string, verr *domain.ValidationError) string {
	if plan == "" {
		return entity.PlanFree
	}
	if !entity.ValidPlan(plan) {
		verr.Add("subscription_plan", "plan inválido")
	}
	return plan
}

func validateCompanyName(field, name string, verr *domain.ValidationError) {
	switch {
	case name == "":
		verr.Add(field, "este campo es obligatorio")
	case len(name) > maxCompanyName:
		verr.Add(field, fmt.Sprintf("máximo %d caracteres", maxCompanyName))
	}
}

func validateCompanyFields(c *entity.Company, verr *domain.ValidationError) {
	if !entity.ValidPlan(c.SubscriptionPlan) {
		verr.Add("subscription_plan", "plan inválido")
	}
	if c.MaxUsers < 1 {
		verr.Add("max_users", "debe ser al menos 1")
	}
	if c.MaxProjects < 1 {
		verr.Add("max_projects", "debe ser al menos 1")
	}
	if c.SubscriptionStartDate != nil && c.SubscriptionEndDate != nil &&
		c.SubscriptionEndDate.Before(*c.SubscriptionStartDate) {
		verr.Add("subscription_end_date", "no puede ser anterior a subscription_start_date")
	}
}

// duplicateAs convierte un ErrDuplicate de la base en error de validación sobre field.
func duplicateAs(err error, field, msg string) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return domain.NewValidationError(field, msg)
	}
	return err
}

func enqueueJob(ctx context.Context, pub ports.JobPublisher, env dto.JobEnvelope) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, env); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("job", env.Name).
			Str("schema", env.Namespace).
			Msg("no se pudo encolar el trabajo")
	}
}

func toCompanyResponse(c *entity.Company) dto.CompanyResponse {
	return dto.CompanyResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		SchemaName:            c.SchemaName,
		SubscriptionPlan:      c.SubscriptionPlan,
		SubscriptionStartDate: c.SubscriptionStartDate,
		SubscriptionEndDate:   c.SubscriptionEndDate,
		IsActive:              c.IsActive,
		MaxUsers:              c.MaxUsers,
		MaxProjects:           c.MaxProjects,
		ContactEmail:          c.ContactEmail,
		ContactPhone:          c.ContactPhone,
		CreatedAt:             c.CreatedAt,
	}
}

func toDomainResponse(d *entity.Domain) dto.DomainResponse {
	return dto.DomainResponse{
		ID:        d.ID,
		Domain:    d.Domain,
		IsPrimary: d.IsPrimary,
		CompanyID: d.CompanyID,
	}
}
