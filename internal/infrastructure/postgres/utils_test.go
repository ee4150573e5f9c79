package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

func TestTable_EscapaIdentificadores(t *testing.T) {
	assert.Equal(t, `"acme"."tasks"`, table("acme", "tasks"))
	assert.Equal(t, `"public"."companies"`, table(tenant.Public, "companies"))
	assert.Equal(t, `"a""b"."users"`, table(`a"b`, "users"))
}

func TestClasificacionDeErrores(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	badUUID := &pgconn.PgError{Code: "22P02"}
	fk := &pgconn.PgError{Code: "23503"}
	dupSchema := &pgconn.PgError{Code: "42P06"}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isUniqueViolation(badUUID))
	assert.True(t, isInvalidID(badUUID))
	assert.True(t, isMissing(badUUID))
	assert.True(t, isMissing(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, isMissing(errors.New("conexión rechazada")))
	assert.True(t, isForeignKeyViolation(fk))
	assert.True(t, isDuplicateSchema(dupSchema))
}

func TestTenantDDL_UsaElSchema(t *testing.T) {
	assert.Contains(t, tenantDDL, "{{schema}}.task_reminders")
	assert.Contains(t, tenantDDL, "{{schema}}.user_profiles (")
	assert.NotContains(t, tenantDDL, "{{schema}}.profiles")
	assert.Contains(t, tenantDDL, "ON DELETE SET NULL")
	assert.Contains(t, publicDDL, "WHERE is_primary")
}
