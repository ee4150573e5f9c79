package analytics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/analytics"
	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/registry"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/internal/testutil/memstore"
	"github.com/jhoicas/Proyectos-api/internal/testutil/mocks"
)

// Escenario completo: registro de Acme, proyecto, tarea y dashboard del admin.
func TestGetSummary_EscenarioAcme(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	pub := &mocks.Publisher{}
	reg := registry.NewRegistry(store.Repos(), store, pub, registry.Options{})

	_, err := reg.RegisterCompany(ctx, dto.RegisterCompanyRequest{
		CompanyName:   "Acme",
		SchemaName:    "acme",
		DomainURL:     "acme.example.com",
		AdminUsername: "admin",
		AdminEmail:    "admin@acme.example.com",
		AdminPassword: "supersecret",
	})
	require.NoError(t, err)

	company, err := reg.ResolveHost(ctx, "acme.example.com")
	require.NoError(t, err)
	require.NotNil(t, company)
	ns := tenant.Namespace(company.SchemaName)

	admin, err := store.Repos().Users.GetByUsername(ctx, ns, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)

	projects := usecase.NewProjectUseCase(store.Repos(), store, pub, nil)
	tasks := usecase.NewTaskUseCase(store.Repos())
	dashboard := analytics.NewDashboardUseCase(store.Repos())

	launch, err := projects.Create(ctx, ns, admin, dto.CreateProjectRequest{Name: "Launch"})
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectPlanning, launch.Status)

	task, err := tasks.Create(ctx, ns, admin, dto.CreateTaskRequest{
		ProjectID: launch.ID,
		Title:     "Write spec",
		Priority:  entity.PriorityHigh,
		Status:    entity.TaskTodo,
	})
	require.NoError(t, err)

	summary, err := dashboard.GetSummary(ctx, ns, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalProjects)
	assert.Equal(t, 1, summary.TotalTasks)
	assert.Zero(t, summary.MyTasks.Total, "sin asignar todavía")

	_, err = tasks.Update(ctx, ns, admin, task.ID, dto.UpdateTaskRequest{AssignedToID: &admin.ID})
	require.NoError(t, err)

	summary, err = dashboard.GetSummary(ctx, ns, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalProjects)
	assert.Equal(t, 1, summary.TotalTasks)
	assert.Equal(t, 1, summary.MyTasks.Todo)
	assert.Equal(t, 1, summary.MyTasks.Total)
	require.Len(t, summary.Projects, 1)
	assert.Equal(t, "Launch", summary.Projects[0].Name)
	require.Len(t, summary.RecentTasks, 1)
	assert.Equal(t, "Write spec", summary.RecentTasks[0].Title)
}

func TestGetSummary_SoloLoAccesible(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 10, 10)
	ns := tenant.Namespace("acme")
	alice := store.SeedUser(ns, "alice", "password123", entity.RoleAdmin)
	bob := store.SeedUser(ns, "bob", "password123", "")

	mine := store.SeedProject(ns, "Mío", alice.ID)
	store.SeedProject(ns, "De Bob", bob.ID)
	store.SeedTask(ns, &entity.Task{ProjectID: mine.ID, Title: "a", AssignedTo: &alice.ID, Status: entity.TaskInProgress, CreatedBy: alice.ID})
	store.SeedTask(ns, &entity.Task{ProjectID: mine.ID, Title: "b", AssignedTo: &alice.ID, Status: entity.TaskDone, CreatedBy: alice.ID})
	for i := 0; i < 6; i++ {
		store.SeedTask(ns, &entity.Task{ProjectID: mine.ID, Title: "c", AssignedTo: &alice.ID, CreatedBy: alice.ID})
	}

	summary, err := analytics.NewDashboardUseCase(store.Repos()).GetSummary(ctx, ns, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalProjects)
	assert.Equal(t, 8, summary.TotalTasks)
	assert.Equal(t, dto.MyTasksSummary{Total: 8, Todo: 6, InProgress: 1, Done: 1}, summary.MyTasks)
	assert.Len(t, summary.RecentTasks, 5, "las recientes se limitan a cinco")

	_, err = analytics.NewDashboardUseCase(store.Repos()).GetSummary(ctx, ns, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
