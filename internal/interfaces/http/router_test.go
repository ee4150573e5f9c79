package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/Proyectos-api/internal/application/analytics"
	"github.com/jhoicas/Proyectos-api/internal/application/auth"
	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/registry"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/internal/testutil/memstore"
	"github.com/jhoicas/Proyectos-api/internal/testutil/mocks"
	apphttp "github.com/jhoicas/Proyectos-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testPassword  = "password123"
	acme          = tenant.Namespace("acme")
)

type testEnv struct {
	app   *fiber.App
	store *memstore.Store
	pub   *mocks.Publisher
	pdf   *mocks.PDF
}

// newTestEnv arma la API completa sobre memstore con dos empresas (acme, globex)
// y un superusuario de plataforma ("root").
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	pub := &mocks.Publisher{}
	pdf := &mocks.PDF{}
	repos := store.Repos()

	store.SeedCompany("acme", 10, 10)
	store.SeedCompany("globex", 10, 10)
	store.SeedUser(tenant.Public, "root", testPassword, "")

	app := apphttp.NewApp("proyectos-api-test", nil)
	apphttp.Router(app, apphttp.RouterDeps{
		Registry: registry.NewRegistry(repos, store, pub, registry.Options{}),
		AuthUC: auth.NewAuthUseCase(repos.Users, auth.JWTConfig{
			Secret: testJWTSecret, Issuer: "test", AccessMinutes: 60, RefreshMinutes: 120,
		}),
		UserUC:      usecase.NewUserUseCase(repos, store, pub),
		ProjectUC:   usecase.NewProjectUseCase(repos, store, pub, pdf),
		TaskUC:      usecase.NewTaskUseCase(repos),
		DashboardUC: appanalytics.NewDashboardUseCase(repos),
	})
	return &testEnv{app: app, store: store, pub: pub, pdf: pdf}
}

// do lanza la petición contra host; body se serializa como JSON si no es nil.
func (e *testEnv) do(t *testing.T, method, host, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "http://"+host+path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// login obtiene el access token de username en host.
func (e *testEnv) login(t *testing.T, host, username string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, host, "/api/token/", "", dto.TokenRequest{Username: username, Password: testPassword})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Access)
	require.NotEmpty(t, out.Refresh)
	return out.Access
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Tenancy y autenticación
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth_SoloEnPublic(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "api.example.com", "/api/health/", "", nil)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderRequestID))

	resp = e.do(t, http.MethodGet, "acme.test", "/api/health/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRutasDeEmpresa_404EnPublic(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "api.example.com", "root")

	resp := e.do(t, http.MethodGet, "api.example.com", "/api/projects/", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthMiddleware_SinTokenYTokenInvalido(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "acme.test", "/api/projects/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")

	resp = e.do(t, http.MethodGet, "acme.test", "/api/projects/", "token.invalido.aqui", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestToken_AtadoAlNamespace(t *testing.T) {
	e := newTestEnv(t)
	e.store.SeedUser(acme, "ana", testPassword, entity.RoleAdmin)
	token := e.login(t, "acme.test", "ana")

	resp := e.do(t, http.MethodGet, "acme.test", "/api/users/me/", token, nil)
	me := decode[dto.ProfileResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana", me.User.Username)
	assert.Equal(t, entity.RoleAdmin, me.Role)

	resp = e.do(t, http.MethodGet, "globex.test", "/api/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUsersRegister_RequiereTokenYRolAdmin(t *testing.T) {
	e := newTestEnv(t)
	e.store.SeedUser(acme, "ana", testPassword, entity.RoleAdmin)
	e.store.SeedUser(acme, "beto", testPassword, entity.RoleMember)
	in := dto.RegisterUserRequest{
		Username: "mallory", Email: "mallory@acme.com", Password: "password123", Role: entity.RoleAdmin,
	}

	resp := e.do(t, http.MethodPost, "acme.test", "/api/users/register/", "", in)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	memberTok := e.login(t, "acme.test", "beto")
	resp = e.do(t, http.MethodPost, "acme.test", "/api/users/register/", memberTok, in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	u, err := e.store.Repos().Users.GetByUsername(context.Background(), acme, "mallory")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, e.pub.Named(jobs.JobWelcomeEmail))

	adminTok := e.login(t, "acme.test", "ana")
	resp = e.do(t, http.MethodPost, "acme.test", "/api/users/register/", adminTok, in)
	created := decode[dto.ProfileResponse](t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.RoleAdmin, created.Role)
	assert.Len(t, e.pub.Named(jobs.JobWelcomeEmail), 1)
}

func TestToken_CredencialesInvalidas(t *testing.T) {
	e := newTestEnv(t)
	e.store.SeedUser(acme, "ana", testPassword, "")

	resp := e.do(t, http.MethodPost, "acme.test", "/api/token/", "", dto.TokenRequest{Username: "ana", Password: "otra-clave"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "acme.test", "/api/token/", "", dto.TokenRequest{})
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Fields, "username")
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro y superusuario
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_CreaEmpresaYResuelveHost(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "api.example.com", "/api/register/", "", dto.RegisterCompanyRequest{
		CompanyName:   "Initech",
		SchemaName:    "initech",
		DomainURL:     "initech.example.com",
		AdminUsername: "bill",
		AdminEmail:    "bill@initech.com",
		AdminPassword: testPassword,
	})
	out := decode[dto.RegisterCompanyResponse](t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "initech", out.Company.SchemaName)
	assert.Len(t, e.pub.Named(jobs.JobWelcomeEmail), 1)

	token := e.login(t, "initech.example.com", "bill")
	resp = e.do(t, http.MethodGet, "initech.example.com", "/api/dashboard/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_ErroresPorCampo(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "api.example.com", "/api/register/", "", dto.RegisterCompanyRequest{
		CompanyName:   "Otra Acme",
		SchemaName:    "acme",
		DomainURL:     "acme.test",
		AdminUsername: "x",
		AdminEmail:    "no-es-email",
		AdminPassword: "corta",
	})
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Fields, "schema_name")
	assert.Contains(t, body.Fields, "domain_url")
	assert.Contains(t, body.Fields, "admin_password")
}

func TestCompanies_SoloSuperusuario(t *testing.T) {
	e := newTestEnv(t)
	root := e.login(t, "api.example.com", "root")

	resp := e.do(t, http.MethodGet, "api.example.com", "/api/companies/", root, nil)
	list := decode[dto.CompanyListResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, list.Page.Total)

	resp = e.do(t, http.MethodGet, "api.example.com", "/api/companies/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Proyectos y tareas
// ──────────────────────────────────────────────────────────────────────────────

func TestProyectos_FlujoCompleto(t *testing.T) {
	e := newTestEnv(t)
	owner := e.store.SeedUser(acme, "ana", testPassword, entity.RoleManager)
	member := e.store.SeedUser(acme, "beto", testPassword, "")
	ownerTok := e.login(t, "acme.test", "ana")
	memberTok := e.login(t, "acme.test", "beto")

	resp := e.do(t, http.MethodPost, "acme.test", "/api/projects/", ownerTok, dto.CreateProjectRequest{
		Name: "Launch", MemberIDs: []string{member.ID},
	})
	project := decode[dto.ProjectResponse](t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, owner.ID, project.Owner.ID)
	require.Len(t, project.Members, 1)

	// un miembro puede leer pero no modificar
	resp = e.do(t, http.MethodGet, "acme.test", "/api/projects/"+project.ID+"/", memberTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	name := "Otro nombre"
	resp = e.do(t, http.MethodPatch, "acme.test", "/api/projects/"+project.ID+"/", memberTok, dto.UpdateProjectRequest{Name: &name})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assignee := member.ID
	resp = e.do(t, http.MethodPost, "acme.test", "/api/tasks/", memberTok, dto.CreateTaskRequest{
		ProjectID: project.ID, Title: "Write spec", Priority: entity.PriorityHigh, AssignedToID: &assignee,
	})
	task := decode[dto.TaskResponse](t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "acme.test", "/api/tasks/my_tasks/", memberTok, nil)
	mine := decode[dto.TaskListResponse](t, resp)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, task.ID, mine.Items[0].ID)

	resp = e.do(t, http.MethodPost, "acme.test", "/api/tasks/"+task.ID+"/mark_complete/", memberTok, nil)
	done := decode[dto.TaskResponse](t, resp)
	assert.Equal(t, entity.TaskDone, done.Status)
	require.NotNil(t, done.CompletedAt)

	resp = e.do(t, http.MethodGet, "acme.test", "/api/tasks/my_tasks/?status=todo", memberTok, nil)
	assert.Empty(t, decode[dto.TaskListResponse](t, resp).Items)
	resp = e.do(t, http.MethodGet, "acme.test", "/api/tasks/my_tasks/?status=done", memberTok, nil)
	assert.Len(t, decode[dto.TaskListResponse](t, resp).Items, 1)

	resp = e.do(t, http.MethodGet, "acme.test", "/api/projects/"+project.ID+"/statistics/", ownerTok, nil)
	stats := decode[dto.ProjectStatisticsResponse](t, resp)
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.Done)
	assert.Equal(t, 1, stats.ByPriority[entity.PriorityHigh])

	resp = e.do(t, http.MethodPost, "acme.test", "/api/projects/"+project.ID+"/report/", ownerTok, nil)
	accepted := decode[dto.JobAcceptedResponse](t, resp)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, jobs.JobProjectReport, accepted.Job)

	resp = e.do(t, http.MethodGet, "acme.test", "/api/tasks/?status=bogus", ownerTok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProyectos_AjenoEs404YMiembroDesconocido(t *testing.T) {
	e := newTestEnv(t)
	owner := e.store.SeedUser(acme, "ana", testPassword, "")
	e.store.SeedUser(acme, "carla", testPassword, "")
	p := e.store.SeedProject(acme, "Privado", owner.ID)

	outsider := e.login(t, "acme.test", "carla")
	resp := e.do(t, http.MethodGet, "acme.test", "/api/projects/"+p.ID+"/", outsider, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ownerTok := e.login(t, "acme.test", "ana")
	resp = e.do(t, http.MethodPost, "acme.test", "/api/projects/"+p.ID+"/add_member/", ownerTok,
		dto.MemberRequest{UserID: "00000000-0000-0000-0000-000000000099"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportPDF_DevuelvePDF(t *testing.T) {
	e := newTestEnv(t)
	owner := e.store.SeedUser(acme, "ana", testPassword, "")
	p := e.store.SeedProject(acme, "Launch", owner.ID)
	e.pdf.On("GenerateProjectReportPDF", mock.Anything, "acme", mock.Anything).Return([]byte("%PDF-1.4"), nil)

	token := e.login(t, "acme.test", "ana")
	resp := e.do(t, http.MethodGet, "acme.test", "/api/projects/"+p.ID+"/report/pdf/", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.4", string(b))
}
