package repository

import (
	"context"

	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
)

// DomainRepository puerto de persistencia para los hostnames de cada empresa.
type DomainRepository interface {
	Create(ctx context.Context, d *entity.Domain) error
	GetByID(ctx context.Context, id string) (*entity.Domain, error)
	GetByHost(ctx context.Context, host string) (*entity.Domain, error)
	ExistsHost(ctx context.Context, host string) (bool, error)
	// HasPrimary informa si la empresa ya tiene un dominio primario distinto de excludeID.
	HasPrimary(ctx context.Context, companyID, excludeID string) (bool, error)
	Update(ctx context.Context, d *entity.Domain) error
	List(ctx context.Context, limit, offset int) ([]*entity.Domain, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}
