package repository

import (
	"context"

	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// Las empresas viven siempre en el namespace public.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetBySchema(ctx context.Context, schema string) (*entity.Company, error)
	ExistsSchema(ctx context.Context, schema string) (bool, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
	Count(ctx context.Context) (int, error)
	// ListActive devuelve todas las empresas activas (para los trabajos que recorren tenants).
	ListActive(ctx context.Context) ([]*entity.Company, error)
	Delete(ctx context.Context, id string) error
}
