package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/testutil/memstore"
	"github.com/jhoicas/Proyectos-api/internal/testutil/mocks"
)

type projectFixture struct {
	store  *memstore.Store
	uc     *usecase.ProjectUseCase
	pub    *mocks.Publisher
	pdf    *mocks.PDF
	owner  *entity.User
	member *entity.User
	other  *entity.User
}

func newProjectFixture(maxProjects int) *projectFixture {
	store := memstore.New()
	store.SeedCompany("acme", 10, maxProjects)
	pub := &mocks.Publisher{}
	pdf := &mocks.PDF{}
	return &projectFixture{
		store:  store,
		uc:     usecase.NewProjectUseCase(store.Repos(), store, pub, pdf),
		pub:    pub,
		pdf:    pdf,
		owner:  store.SeedUser(acme, "alice", "password123", entity.RoleAdmin),
		member: store.SeedUser(acme, "bob", "password123", ""),
		other:  store.SeedUser(acme, "carol", "password123", ""),
	}
}

func TestProjectCreate_DueñoEsQuienLlama(t *testing.T) {
	f := newProjectFixture(3)
	start := "2026-01-01"
	out, err := f.uc.Create(context.Background(), acme, f.owner, dto.CreateProjectRequest{
		Name:      "Website",
		MemberIDs: []string{f.member.ID, f.member.ID},
		StartDate: &start,
	})
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, out.Owner.ID)
	assert.Equal(t, entity.ProjectPlanning, out.Status)
	require.Len(t, out.Members, 1, "los ids repetidos se ignoran")
	assert.Equal(t, "bob", out.Members[0].Username)
	require.NotNil(t, out.StartDate)
	assert.Equal(t, "2026-01-01", *out.StartDate)
}

func TestProjectCreate_Validaciones(t *testing.T) {
	f := newProjectFixture(3)
	start, end := "2026-02-01", "2026-01-01"
	_, err := f.uc.Create(context.Background(), acme, f.owner, dto.CreateProjectRequest{
		Status:    "archived",
		MemberIDs: []string{"no-existe"},
		StartDate: &start,
		EndDate:   &end,
	})
	fields := fieldErrors(t, err)
	for _, k := range []string{"name", "status", "member_ids", "end_date"} {
		assert.Contains(t, fields, k)
	}
}

func TestProjectCreate_LimiteDelPlan(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture(1)
	_, err := f.uc.Create(ctx, acme, f.owner, dto.CreateProjectRequest{Name: "Uno"})
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, acme, f.owner, dto.CreateProjectRequest{Name: "Dos"})
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	n, _ := f.store.Repos().Projects.Count(ctx, acme)
	assert.Equal(t, 1, n)
}

func TestProjectVisibilidad(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture(3)
	p := f.store.SeedProject(acme, "Website", f.owner.ID, f.member.ID)

	_, err := f.uc.Get(ctx, acme, f.member, p.ID)
	assert.NoError(t, err)
	_, err = f.uc.Get(ctx, acme, f.other, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "quien no es miembro no ve el proyecto")

	list, err := f.uc.List(ctx, acme, f.member, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page.Total)
	list, err = f.uc.List(ctx, acme, f.other, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestProjectUpdateDelete_SoloDueño(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture(3)
	p := f.store.SeedProject(acme, "Website", f.owner.ID, f.member.ID)

	name := "Nuevo"
	_, err := f.uc.Update(ctx, acme, f.member, p.ID, dto.UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.uc.Delete(ctx, acme, f.member, p.ID), domain.ErrForbidden)

	members := []string{f.other.ID}
	out, err := f.uc.Update(ctx, acme, f.owner, p.ID, dto.UpdateProjectRequest{Name: &name, MemberIDs: &members})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", out.Name)
	require.Len(t, out.Members, 1)
	assert.Equal(t, f.other.ID, out.Members[0].ID)

	f.store.SeedTask(acme, &entity.Task{ProjectID: p.ID, Title: "t", CreatedBy: f.owner.ID})
	require.NoError(t, f.uc.Delete(ctx, acme, f.owner, p.ID))
	n, _ := f.store.Repos().Tasks.Count(ctx, acme, repositoryFilterAll())
	assert.Zero(t, n, "borrar el proyecto borra sus tareas")
}

func TestProjectMembership(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture(3)
	p := f.store.SeedProject(acme, "Website", f.owner.ID, f.member.ID)

	// un miembro que no es dueño recibe 403 y la membresía no cambia
	_, err := f.uc.AddMember(ctx, acme, f.member, p.ID, f.other.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.uc.RemoveMember(ctx, acme, f.member, p.ID, f.member.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	stored, _ := f.store.Repos().Projects.GetByID(ctx, acme, p.ID)
	assert.Equal(t, []string{f.member.ID}, stored.MemberIDs)

	out, err := f.uc.AddMember(ctx, acme, f.owner, p.ID, f.other.ID)
	require.NoError(t, err)
	assert.Len(t, out.Members, 2)

	out, err = f.uc.RemoveMember(ctx, acme, f.owner, p.ID, f.member.ID)
	require.NoError(t, err)
	require.Len(t, out.Members, 1)
	assert.Equal(t, f.other.ID, out.Members[0].ID)

	_, err = f.uc.AddMember(ctx, acme, f.owner, p.ID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestProjectStatistics(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture(3)
	p := f.store.SeedProject(acme, "Website", f.owner.ID)
	for _, s := range []string{entity.TaskTodo, entity.TaskTodo, entity.TaskReview, entity.TaskDone} {
		f.store.SeedTask(acme, &entity.Task{ProjectID: p.ID, Title: s, Status: s, Priority: entity.PriorityHigh, CreatedBy: f.owner.ID})
	}

	stats, err := f.uc.Statistics(ctx, acme, f.owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 2, stats.Todo)
	assert.Equal(t, 1, stats.Review)
	assert.Equal(t, 1, stats.Done)
	assert.Equal(t, 4, stats.ByPriority[entity.PriorityHigh])
	assert.Equal(t, 0, stats.ByPriority[entity.PriorityUrgent])
	assert.Len(t, stats.ByPriority, 4)
}

func TestProjectReport(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture(3)
	p := f.store.SeedProject(acme, "Website", f.owner.ID, f.member.ID)

	accepted, err := f.uc.EnqueueReport(ctx, acme, f.member, p.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobProjectReport, accepted.Job)
	require.Len(t, f.pub.Jobs, 1)
	assert.Equal(t, "acme", f.pub.Jobs[0].Namespace)

	f.pdf.On("GenerateProjectReportPDF", mock.Anything, "acme", mock.MatchedBy(func(r *dto.ProjectReport) bool {
		return r.ProjectID == p.ID && r.TotalMembers == 1
	})).Return([]byte("%PDF"), nil)
	b, err := f.uc.ReportPDF(ctx, acme, f.owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), b)
	f.pdf.AssertExpectations(t)

	f.pub.Err = errors.New("kafka caído")
	_, err = f.uc.EnqueueReport(ctx, acme, f.owner, p.ID)
	assert.Error(t, err)
}
