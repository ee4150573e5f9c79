package repository

import (
	"context"

	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// SchemaProvisioner crea y elimina el namespace aislado de una empresa.
// Debe poder ejecutarse dentro de la misma transacción que el alta de la empresa.
type SchemaProvisioner interface {
	CreateSchema(ctx context.Context, ns tenant.Namespace) error
	DropSchema(ctx context.Context, ns tenant.Namespace) error
}
