package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL (tabla public.companies).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `
	id, name, schema_name, subscription_plan, subscription_start_date, subscription_end_date,
	is_active, max_users, max_projects, contact_email, contact_phone, created_at, updated_at`

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO public.companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.SchemaName, c.SubscriptionPlan, c.SubscriptionStartDate, c.SubscriptionEndDate,
		c.IsActive, c.MaxUsers, c.MaxProjects, c.ContactEmail, c.ContactPhone, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM public.companies WHERE id = $1`
	c, err := scanCompany(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetBySchema obtiene una empresa por nombre de schema.
func (r *CompanyRepo) GetBySchema(ctx context.Context, schema string) (*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM public.companies WHERE schema_name = $1`
	c, err := scanCompany(r.q.QueryRow(ctx, query, schema))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by schema: %w", err)
	}
	return c, nil
}

// ExistsSchema indica si algún registro ya usa ese schema.
func (r *CompanyRepo) ExistsSchema(ctx context.Context, schema string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM public.companies WHERE schema_name = $1)`, schema).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists schema: %w", err)
	}
	return exists, nil
}

// Update actualiza los campos editables (schema_name no cambia nunca).
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	query := `
		UPDATE public.companies
		SET name = $2, subscription_plan = $3, subscription_start_date = $4, subscription_end_date = $5,
		    is_active = $6, max_users = $7, max_projects = $8, contact_email = $9, contact_phone = $10,
		    updated_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.SubscriptionPlan, c.SubscriptionStartDate, c.SubscriptionEndDate,
		c.IsActive, c.MaxUsers, c.MaxProjects, c.ContactEmail, c.ContactPhone, c.UpdatedAt,
	)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List empresas más recientes primero.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM public.companies ORDER BY created_at DESC, id LIMIT NULLIF($1::int, 0) OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

// Count total de empresas.
func (r *CompanyRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM public.companies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return n, nil
}

// ListActive todas las empresas activas, ordenadas por schema.
func (r *CompanyRepo) ListActive(ctx context.Context) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM public.companies WHERE is_active ORDER BY schema_name`
	return r.list(ctx, query)
}

// Delete elimina la empresa; sus dominios caen por ON DELETE CASCADE.
func (r *CompanyRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM public.companies WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CompanyRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Company, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCompany(row pgxScanner) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.SchemaName, &c.SubscriptionPlan, &c.SubscriptionStartDate, &c.SubscriptionEndDate,
		&c.IsActive, &c.MaxUsers, &c.MaxProjects, &c.ContactEmail, &c.ContactPhone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
