package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
)

var _ repository.DomainRepository = (*DomainRepo)(nil)

// DomainRepo hostnames de empresa sobre public.domains.
type DomainRepo struct {
	q Querier
}

// NewDomainRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDomainRepository(q Querier) *DomainRepo {
	return &DomainRepo{q: q}
}

const domainColumns = `id, domain, company_id, is_primary, created_at`

// Create persiste un dominio. Host repetido o segundo primario de la empresa → ErrDuplicate.
func (r *DomainRepo) Create(ctx context.Context, d *entity.Domain) error {
	query := `INSERT INTO public.domains (` + domainColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, d.ID, d.Domain, d.CompanyID, d.IsPrimary, d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) || isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert domain: %w", err)
	}
	return nil
}

// GetByID obtiene un dominio por ID.
func (r *DomainRepo) GetByID(ctx context.Context, id string) (*entity.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM public.domains WHERE id = $1`
	d, err := scanDomain(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get domain: %w", err)
	}
	return d, nil
}

// GetByHost resuelve un hostname ya normalizado.
func (r *DomainRepo) GetByHost(ctx context.Context, host string) (*entity.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM public.domains WHERE domain = $1`
	d, err := scanDomain(r.q.QueryRow(ctx, query, host))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get domain by host: %w", err)
	}
	return d, nil
}

// ExistsHost indica si el hostname ya está registrado.
func (r *DomainRepo) ExistsHost(ctx context.Context, host string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM public.domains WHERE domain = $1)`, host).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists host: %w", err)
	}
	return exists, nil
}

// HasPrimary informa si la empresa ya tiene un primario distinto de excludeID.
func (r *DomainRepo) HasPrimary(ctx context.Context, companyID, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM public.domains
			WHERE company_id = $1 AND is_primary AND ($2 = '' OR id::text <> $2)
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, companyID, excludeID).Scan(&exists); err != nil {
		if isInvalidID(err) {
			return false, nil
		}
		return false, fmt.Errorf("has primary domain: %w", err)
	}
	return exists, nil
}

// Update actualiza host, empresa y marca de primario.
func (r *DomainRepo) Update(ctx context.Context, d *entity.Domain) error {
	query := `UPDATE public.domains SET domain = $2, company_id = $3, is_primary = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, d.ID, d.Domain, d.CompanyID, d.IsPrimary)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isInvalidID(err):
			return domain.ErrNotFound
		}
		return fmt.Errorf("update domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List dominios más recientes primero.
func (r *DomainRepo) List(ctx context.Context, limit, offset int) ([]*entity.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM public.domains
		ORDER BY created_at DESC, id LIMIT NULLIF($1::int, 0) OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var out []*entity.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count total de dominios.
func (r *DomainRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM public.domains`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count domains: %w", err)
	}
	return n, nil
}

// Delete elimina un dominio.
func (r *DomainRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM public.domains WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDomain(row pgxScanner) (*entity.Domain, error) {
	var d entity.Domain
	if err := row.Scan(&d.ID, &d.Domain, &d.CompanyID, &d.IsPrimary, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
