package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

var _ repository.SchemaProvisioner = (*SchemaRepo)(nil)

// ── DDL ───────────────────────────────────────────────────────────────────────

// publicDDL registro de empresas, dominios y superusuarios de plataforma.
const publicDDL = `
CREATE TABLE IF NOT EXISTS public.companies (
    id                      UUID PRIMARY KEY,
    name                    VARCHAR(200) NOT NULL,
    schema_name             VARCHAR(63)  NOT NULL UNIQUE,
    subscription_plan       VARCHAR(20)  NOT NULL DEFAULT 'free',
    subscription_start_date TIMESTAMPTZ,
    subscription_end_date   TIMESTAMPTZ,
    is_active               BOOLEAN      NOT NULL DEFAULT TRUE,
    max_users               INTEGER      NOT NULL DEFAULT 5,
    max_projects            INTEGER      NOT NULL DEFAULT 3,
    contact_email           VARCHAR(254) NOT NULL DEFAULT '',
    contact_phone           VARCHAR(20)  NOT NULL DEFAULT '',
    created_at              TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at              TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS public.domains (
    id         UUID PRIMARY KEY,
    domain     VARCHAR(253) NOT NULL UNIQUE,
    company_id UUID         NOT NULL REFERENCES public.companies(id) ON DELETE CASCADE,
    is_primary BOOLEAN      NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS domains_one_primary_per_company
    ON public.domains (company_id) WHERE is_primary;

CREATE TABLE IF NOT EXISTS public.users (
    id            UUID PRIMARY KEY,
    username      VARCHAR(150) NOT NULL UNIQUE,
    email         VARCHAR(254) NOT NULL UNIQUE,
    password_hash VARCHAR(128) NOT NULL,
    first_name    VARCHAR(150) NOT NULL DEFAULT '',
    last_name     VARCHAR(150) NOT NULL DEFAULT '',
    is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
    is_staff      BOOLEAN      NOT NULL DEFAULT FALSE,
    is_superuser  BOOLEAN      NOT NULL DEFAULT FALSE,
    date_joined   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// tenantDDL tablas de cada empresa. {{schema}} se reemplaza por el identificador escapado.
const tenantDDL = `
CREATE TABLE IF NOT EXISTS {{schema}}.users (
    id            UUID PRIMARY KEY,
    username      VARCHAR(150) NOT NULL UNIQUE,
    email         VARCHAR(254) NOT NULL UNIQUE,
    password_hash VARCHAR(128) NOT NULL,
    first_name    VARCHAR(150) NOT NULL DEFAULT '',
    last_name     VARCHAR(150) NOT NULL DEFAULT '',
    is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
    is_staff      BOOLEAN      NOT NULL DEFAULT FALSE,
    is_superuser  BOOLEAN      NOT NULL DEFAULT FALSE,
    date_joined   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS {{schema}}.user_profiles (
    id         UUID PRIMARY KEY,
    user_id    UUID         NOT NULL UNIQUE REFERENCES {{schema}}.users(id) ON DELETE CASCADE,
    role       VARCHAR(20)  NOT NULL DEFAULT 'member',
    phone      VARCHAR(20)  NOT NULL DEFAULT '',
    department VARCHAR(100) NOT NULL DEFAULT '',
    is_active  BOOLEAN      NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS {{schema}}.projects (
    id          UUID PRIMARY KEY,
    name        VARCHAR(200) NOT NULL,
    description TEXT         NOT NULL DEFAULT '',
    status      VARCHAR(20)  NOT NULL DEFAULT 'planning',
    owner_id    UUID         NOT NULL REFERENCES {{schema}}.users(id) ON DELETE CASCADE,
    start_date  DATE,
    end_date    DATE,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS {{schema}}.project_members (
    project_id UUID NOT NULL REFERENCES {{schema}}.projects(id) ON DELETE CASCADE,
    user_id    UUID NOT NULL REFERENCES {{schema}}.users(id) ON DELETE CASCADE,
    PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS {{schema}}.tasks (
    id           UUID PRIMARY KEY,
    project_id   UUID         NOT NULL REFERENCES {{schema}}.projects(id) ON DELETE CASCADE,
    title        VARCHAR(200) NOT NULL,
    description  TEXT         NOT NULL DEFAULT '',
    priority     VARCHAR(10)  NOT NULL DEFAULT 'medium',
    status       VARCHAR(20)  NOT NULL DEFAULT 'todo',
    assigned_to  UUID         REFERENCES {{schema}}.users(id) ON DELETE SET NULL,
    created_by   UUID         NOT NULL REFERENCES {{schema}}.users(id) ON DELETE CASCADE,
    due_date     TIMESTAMPTZ,
    completed_at TIMESTAMPTZ,
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS tasks_project_idx  ON {{schema}}.tasks (project_id);
CREATE INDEX IF NOT EXISTS tasks_assigned_idx ON {{schema}}.tasks (assigned_to);
CREATE INDEX IF NOT EXISTS tasks_overdue_idx  ON {{schema}}.tasks (due_date) WHERE status <> 'done';

CREATE TABLE IF NOT EXISTS {{schema}}.task_reminders (
    task_id UUID        NOT NULL REFERENCES {{schema}}.tasks(id) ON DELETE CASCADE,
    day     DATE        NOT NULL,
    sent_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (task_id, day)
);
`

// ── SchemaRepo ────────────────────────────────────────────────────────────────

// SchemaRepo crea y elimina schemas de empresa. Con un pgx.Tx el DDL queda dentro de la
// transacción del alta: si algo falla después, el schema también se revierte.
type SchemaRepo struct {
	q Querier
}

// NewSchemaRepository construye el provisionador. Pasar pool o tx (Querier).
func NewSchemaRepository(q Querier) *SchemaRepo {
	return &SchemaRepo{q: q}
}

// CreateSchema crea el schema y todas las tablas de empresa.
func (r *SchemaRepo) CreateSchema(ctx context.Context, ns tenant.Namespace) error {
	if ns.IsPublic() || ns == "" {
		return fmt.Errorf("create schema: namespace %q no es de empresa", ns)
	}
	ident := pgx.Identifier{ns.String()}.Sanitize()
	if _, err := r.q.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		if isDuplicateSchema(err) {
			return fmt.Errorf("create schema %s: %w", ns, domain.ErrDuplicate)
		}
		return fmt.Errorf("create schema %s: %w", ns, err)
	}
	if err := r.migrateTenant(ctx, ns); err != nil {
		return err
	}
	return nil
}

// DropSchema elimina el schema con todos sus datos.
func (r *SchemaRepo) DropSchema(ctx context.Context, ns tenant.Namespace) error {
	if ns.IsPublic() || ns == "" {
		return fmt.Errorf("drop schema: namespace %q no es de empresa", ns)
	}
	ident := pgx.Identifier{ns.String()}.Sanitize()
	if _, err := r.q.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident+" CASCADE"); err != nil {
		return fmt.Errorf("drop schema %s: %w", ns, err)
	}
	return nil
}

// MigratePublic crea (si faltan) las tablas de public.
func (r *SchemaRepo) MigratePublic(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, publicDDL); err != nil {
		return fmt.Errorf("migrate public: %w", err)
	}
	return nil
}

// MigrateTenant aplica el DDL de empresa sobre un schema existente (idempotente).
func (r *SchemaRepo) MigrateTenant(ctx context.Context, ns tenant.Namespace) error {
	return r.migrateTenant(ctx, ns)
}

func (r *SchemaRepo) migrateTenant(ctx context.Context, ns tenant.Namespace) error {
	ddl := strings.ReplaceAll(tenantDDL, "{{schema}}", pgx.Identifier{ns.String()}.Sanitize())
	if _, err := r.q.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate tenant %s: %w", ns, err)
	}
	return nil
}
