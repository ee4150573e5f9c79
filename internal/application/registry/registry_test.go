package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/registry"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/internal/testutil/memstore"
	"github.com/jhoicas/Proyectos-api/internal/testutil/mocks"
)

func newRegistry(opts registry.Options) (*registry.Registry, *memstore.Store, *mocks.Publisher) {
	store := memstore.New()
	pub := &mocks.Publisher{}
	return registry.NewRegistry(store.Repos(), store, pub, opts), store, pub
}

func acmeRequest() dto.RegisterCompanyRequest {
	return dto.RegisterCompanyRequest{
		CompanyName:   "Acme",
		SchemaName:    "acme",
		DomainURL:     "acme.example.com",
		AdminUsername: "alice",
		AdminEmail:    "alice@acme.com",
		AdminPassword: "supersecret",
	}
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "se esperaba ValidationError, llegó %v", err)
	return verr.Fields
}

func TestRegisterCompany_CreaTodo(t *testing.T) {
	ctx := context.Background()
	reg, store, pub := newRegistry(registry.Options{})

	out, err := reg.RegisterCompany(ctx, acmeRequest())
	require.NoError(t, err)
	assert.Equal(t, "acme", out.Company.SchemaName)
	assert.Equal(t, "acme.example.com", out.Domain)
	assert.Equal(t, "alice", out.AdminUsername)

	repos := store.Repos()
	c, err := repos.Companies.GetBySchema(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, entity.PlanFree, c.SubscriptionPlan)
	assert.Equal(t, entity.DefaultMaxUsers, c.MaxUsers)
	assert.True(t, store.HasSchema("acme"))

	d, err := repos.Domains.GetByHost(ctx, "acme.example.com")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.IsPrimary)

	admin, err := repos.Users.GetByUsername(ctx, "acme", "alice")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsSuperuser)
	require.NotNil(t, admin.Profile, "el admin de empresa debe tener perfil")
	assert.Equal(t, entity.RoleAdmin, admin.Profile.Role)

	welcome := pub.Named(jobs.JobWelcomeEmail)
	require.Len(t, welcome, 1)
	assert.Equal(t, "acme", welcome[0].Namespace)
}

func TestRegisterCompany_SchemaConGuionRechazado(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newRegistry(registry.Options{})

	req := acmeRequest()
	req.SchemaName = "acme-corp"
	_, err := reg.RegisterCompany(ctx, req)
	require.Error(t, err)
	assert.Contains(t, fieldErrors(t, err), "schema_name")

	n, _ := store.Repos().Companies.Count(ctx)
	assert.Zero(t, n)
	assert.False(t, store.HasSchema("acme-corp"))
}

func TestRegisterCompany_ErroresPorCampo(t *testing.T) {
	reg, _, _ := newRegistry(registry.Options{})
	_, err := reg.RegisterCompany(context.Background(), dto.RegisterCompanyRequest{
		SchemaName:       "public",
		DomainURL:        "no valido",
		AdminEmail:       "x",
		AdminPassword:    "corta",
		SubscriptionPlan: "gold",
	})
	fields := fieldErrors(t, err)
	for _, f := range []string{"company_name", "schema_name", "domain_url", "admin_username", "admin_email", "admin_password", "subscription_plan"} {
		assert.Contains(t, fields, f)
	}
}

func TestRegisterCompany_DuplicadosDejanSoloLaPrimera(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newRegistry(registry.Options{})
	_, err := reg.RegisterCompany(ctx, acmeRequest())
	require.NoError(t, err)

	// mismo schema, otro dominio
	dupSchema := acmeRequest()
	dupSchema.CompanyName = "Acme 2"
	dupSchema.DomainURL = "acme2.example.com"
	_, err = reg.RegisterCompany(ctx, dupSchema)
	assert.Contains(t, fieldErrors(t, err), "schema_name")

	// mismo dominio, otro schema
	dupDomain := acmeRequest()
	dupDomain.CompanyName = "Globex"
	dupDomain.SchemaName = "globex"
	dupDomain.DomainURL = "ACME.example.com"
	_, err = reg.RegisterCompany(ctx, dupDomain)
	assert.Contains(t, fieldErrors(t, err), "domain_url")

	n, _ := store.Repos().Companies.Count(ctx)
	assert.Equal(t, 1, n)
	assert.False(t, store.HasSchema("globex"))
	ok, _ := store.Repos().Domains.ExistsHost(ctx, "acme2.example.com")
	assert.False(t, ok)
}

func TestRegisterCompany_FallaDDLRevierteTodo(t *testing.T) {
	ctx := context.Background()
	reg, store, pub := newRegistry(registry.Options{})
	store.FailOn("CreateSchema", errors.New("ddl roto"))

	_, err := reg.RegisterCompany(ctx, acmeRequest())
	require.Error(t, err)

	repos := store.Repos()
	n, _ := repos.Companies.Count(ctx)
	assert.Zero(t, n, "la empresa no debe quedar")
	ok, _ := repos.Domains.ExistsHost(ctx, "acme.example.com")
	assert.False(t, ok, "el dominio no debe quedar")
	assert.Empty(t, pub.Jobs, "no se encola bienvenida si falló")
}

func TestRegisterCompany_FallaAdminRevierteSchema(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newRegistry(registry.Options{})
	store.FailOn("Users.CreateProfile", errors.New("perfil roto"))

	_, err := reg.RegisterCompany(ctx, acmeRequest())
	require.Error(t, err)
	assert.False(t, store.HasSchema("acme"))
	n, _ := store.Repos().Companies.Count(ctx)
	assert.Zero(t, n)
}

func TestRegisterCompany_ColaCaidaNoFallaElRegistro(t *testing.T) {
	reg, _, pub := newRegistry(registry.Options{})
	pub.Err = errors.New("kafka caído")
	_, err := reg.RegisterCompany(context.Background(), acmeRequest())
	assert.NoError(t, err)
}

func TestResolveHost(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newRegistry(registry.Options{})
	_, err := reg.RegisterCompany(ctx, acmeRequest())
	require.NoError(t, err)

	c, err := reg.ResolveHost(ctx, "Acme.Example.com:8080")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "acme", c.SchemaName)

	c, err = reg.ResolveHost(ctx, "desconocido.example.com")
	require.NoError(t, err)
	assert.Nil(t, c, "host desconocido resuelve a public")

	acme, _ := store.Repos().Companies.GetBySchema(ctx, "acme")
	inactive := false
	_, err = reg.UpdateCompany(ctx, acme.ID, dto.UpdateCompanyRequest{IsActive: &inactive})
	require.NoError(t, err)
	_, err = reg.ResolveHost(ctx, "acme.example.com")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCompanyCRUD(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newRegistry(registry.Options{DropSchemaOnDelete: true})

	maxUsers := 10
	created, err := reg.CreateCompany(ctx, dto.CreateCompanyRequest{
		Name:       "Globex",
		SchemaName: "Globex",
		MaxUsers:   &maxUsers,
	})
	require.NoError(t, err)
	assert.Equal(t, "globex", created.SchemaName)
	assert.Equal(t, 10, created.MaxUsers)
	assert.True(t, store.HasSchema("globex"))

	plan := entity.PlanEnterprise
	updated, err := reg.UpdateCompany(ctx, created.ID, dto.UpdateCompanyRequest{SubscriptionPlan: &plan})
	require.NoError(t, err)
	assert.Equal(t, entity.PlanEnterprise, updated.SubscriptionPlan)
	assert.Equal(t, "globex", updated.SchemaName)

	bad := "gold"
	_, err = reg.UpdateCompany(ctx, created.ID, dto.UpdateCompanyRequest{SubscriptionPlan: &bad})
	assert.Contains(t, fieldErrors(t, err), "subscription_plan")

	list, err := reg.ListCompanies(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page.Total)
	assert.Equal(t, 20, list.Page.Limit)

	require.NoError(t, reg.DeleteCompany(ctx, created.ID))
	assert.False(t, store.HasSchema("globex"))
	_, err = reg.GetCompany(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCompany_ConservaSchemaPorDefecto(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newRegistry(registry.Options{})
	_, err := reg.RegisterCompany(ctx, acmeRequest())
	require.NoError(t, err)
	c, _ := store.Repos().Companies.GetBySchema(ctx, "acme")

	require.NoError(t, reg.DeleteCompany(ctx, c.ID))
	assert.True(t, store.HasSchema(tenant.Namespace("acme")))
	ok, _ := store.Repos().Domains.ExistsHost(ctx, "acme.example.com")
	assert.False(t, ok, "los dominios se borran con la empresa")
}

func TestDomains_UnSoloPrimarioPorEmpresa(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newRegistry(registry.Options{})
	_, err := reg.RegisterCompany(ctx, acmeRequest())
	require.NoError(t, err)
	c, _ := store.Repos().Companies.GetBySchema(ctx, "acme")

	host := "www.acme.com"
	yes := true
	_, err = reg.CreateDomain(ctx, dto.DomainRequest{Domain: &host, CompanyID: &c.ID, IsPrimary: &yes})
	assert.Contains(t, fieldErrors(t, err), "is_primary")

	no := false
	d, err := reg.CreateDomain(ctx, dto.DomainRequest{Domain: &host, CompanyID: &c.ID, IsPrimary: &no})
	require.NoError(t, err)
	assert.Equal(t, "www.acme.com", d.Domain)

	_, err = reg.UpdateDomain(ctx, d.ID, dto.DomainRequest{IsPrimary: &yes})
	assert.Contains(t, fieldErrors(t, err), "is_primary")

	dup := "ACME.example.com"
	_, err = reg.CreateDomain(ctx, dto.DomainRequest{Domain: &dup, CompanyID: &c.ID})
	assert.Contains(t, fieldErrors(t, err), "domain")

	missing := "no-existe"
	other := "otro.example.com"
	_, err = reg.CreateDomain(ctx, dto.DomainRequest{Domain: &other, CompanyID: &missing})
	assert.Contains(t, fieldErrors(t, err), "tenant")

	require.NoError(t, reg.DeleteDomain(ctx, d.ID))
	_, err = reg.GetDomain(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
