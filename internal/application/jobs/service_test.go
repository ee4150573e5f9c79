package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/ports"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/internal/testutil/memstore"
	"github.com/jhoicas/Proyectos-api/internal/testutil/mocks"
)

const acme = tenant.Namespace("acme")

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memstore.Store
	svc    *jobs.Service
	mailer *mocks.Mailer
	pub    *mocks.Publisher
	owner  *entity.User
	member *entity.User
	proj   *entity.Project
}

func newFixture() *fixture {
	store := memstore.New()
	store.SeedCompany("acme", 10, 10)
	mailer := &mocks.Mailer{}
	pub := &mocks.Publisher{}
	svc := jobs.NewService(store.Repos(), mailer, pub, nil)
	svc.SetClock(func() time.Time { return fixedNow })
	f := &fixture{store: store, svc: svc, mailer: mailer, pub: pub}
	f.owner = store.SeedUser(acme, "alice", "password123", entity.RoleAdmin)
	f.member = store.SeedUser(acme, "bob", "password123", "")
	f.proj = store.SeedProject(acme, "Website", f.owner.ID, f.member.ID)
	return f
}

func (f *fixture) task(status string, due *time.Time, assignee *string) *entity.Task {
	return f.store.SeedTask(acme, &entity.Task{
		ProjectID:  f.proj.ID,
		Title:      "Tarea " + status,
		Status:     status,
		DueDate:    due,
		AssignedTo: assignee,
		CreatedBy:  f.owner.ID,
		CreatedAt:  fixedNow.AddDate(0, 0, -200),
	})
}

func ago(days int) *time.Time {
	t := fixedNow.AddDate(0, 0, -days)
	return &t
}

func TestSendTaskReminderEmail_UnaVezPorDia(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	task := f.task(entity.TaskTodo, ago(1), &f.member.ID)
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(e ports.Email) bool {
		return e.To == "bob@example.com" && e.Subject == "Recordatorio de tarea: "+task.Title
	})).Return(nil).Once()

	require.NoError(t, f.svc.SendTaskReminderEmail(ctx, acme, task.ID))
	require.NoError(t, f.svc.SendTaskReminderEmail(ctx, acme, task.ID), "segundo envío del día es no-op")
	f.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestSendTaskReminderEmail_SinAsignadoNoEnvia(t *testing.T) {
	f := newFixture()
	task := f.task(entity.TaskTodo, ago(1), nil)
	require.NoError(t, f.svc.SendTaskReminderEmail(context.Background(), acme, task.ID))
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendTaskReminderEmail_FalloLiberaLaReserva(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	task := f.task(entity.TaskTodo, ago(1), &f.member.ID)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp caído")).Once()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	assert.Error(t, f.svc.SendTaskReminderEmail(ctx, acme, task.ID))
	assert.NoError(t, f.svc.SendTaskReminderEmail(ctx, acme, task.ID), "el reintento vuelve a enviar")
	f.mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestSendTaskReminderEmail_TareaInexistente(t *testing.T) {
	f := newFixture()
	err := f.svc.SendTaskReminderEmail(context.Background(), acme, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckOverdueTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	overdue := f.task(entity.TaskTodo, ago(2), &f.member.ID)
	// sin asignado, terminada y no vencida no generan recordatorio
	f.task(entity.TaskInProgress, ago(2), nil)
	f.task(entity.TaskDone, ago(2), &f.member.ID)
	future := fixedNow.Add(48 * time.Hour)
	f.task(entity.TaskTodo, &future, &f.member.ID)

	// una empresa cuyo namespace falla no detiene el barrido
	f.store.SeedCompany("broken", 5, 5)
	f.store.FailOn("Tasks.ListOverdue:broken", errors.New("relation does not exist"))

	n, err := f.svc.CheckOverdueTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	reminders := f.pub.Named(jobs.JobTaskReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, "acme", reminders[0].Namespace)
	assert.Contains(t, string(reminders[0].Payload), overdue.ID)
}

func TestGenerateProjectReport(t *testing.T) {
	f := newFixture()
	f.task(entity.TaskTodo, ago(1), nil)
	f.task(entity.TaskInProgress, nil, nil)
	// en review no cuenta como vencida para el reporte
	f.task(entity.TaskReview, ago(1), nil)
	f.task(entity.TaskDone, nil, nil)

	r, err := f.svc.GenerateProjectReport(context.Background(), acme, f.proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "Website", r.ProjectName)
	assert.Equal(t, "alice", r.Owner)
	assert.Equal(t, 1, r.TotalMembers)
	assert.Equal(t, 4, r.TotalTasks)
	assert.Equal(t, 1, r.CompletedTasks)
	assert.Equal(t, 2, r.PendingTasks)
	assert.Equal(t, 1, r.OverdueTasks)
	assert.Equal(t, 4, r.TasksByPriority[entity.PriorityMedium])
	assert.True(t, decimal.NewFromInt(25).Equal(r.CompletionRate), "got %s", r.CompletionRate)
	assert.Equal(t, fixedNow, r.GeneratedAt)

	_, err = f.svc.GenerateProjectReport(context.Background(), acme, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCleanupOldData(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	old := f.task(entity.TaskDone, nil, nil)
	old.CompletedAt = ago(91)
	require.NoError(t, f.store.Repos().Tasks.Update(ctx, acme, old))
	recent := f.task(entity.TaskDone, nil, nil)
	recent.CompletedAt = ago(89)
	require.NoError(t, f.store.Repos().Tasks.Update(ctx, acme, recent))
	open := f.task(entity.TaskTodo, nil, nil)

	n, err := f.svc.CleanupOldData(ctx, jobs.DefaultCleanupDays)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	repos := f.store.Repos()
	gone, _ := repos.Tasks.GetByID(ctx, acme, old.ID)
	assert.Nil(t, gone)
	kept, _ := repos.Tasks.GetByID(ctx, acme, recent.ID)
	assert.NotNil(t, kept)
	stillOpen, _ := repos.Tasks.GetByID(ctx, acme, open.ID)
	assert.NotNil(t, stillOpen)

	_, err = f.svc.CleanupOldData(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSendWelcomeEmail(t *testing.T) {
	f := newFixture()
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(e ports.Email) bool {
		return e.To == "bob@example.com"
	})).Return(nil).Once()
	require.NoError(t, f.svc.SendWelcomeEmail(context.Background(), acme, f.member.ID))
	f.mailer.AssertExpectations(t)

	err := f.svc.SendWelcomeEmail(context.Background(), acme, "no-existe")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestHandle_Despacho(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Handle(ctx, jobs.WelcomeEmail(acme, f.member.ID)))
	require.NoError(t, f.svc.Handle(ctx, jobs.CheckOverdue()))
	require.NoError(t, f.svc.Handle(ctx, jobs.Cleanup(30)))
	require.NoError(t, f.svc.Handle(ctx, jobs.ProjectReport(acme, f.proj.ID)))

	err := f.svc.Handle(ctx, dto.JobEnvelope{Name: "desconocido"})
	assert.ErrorIs(t, err, jobs.ErrUnknownJob)

	bad := jobs.WelcomeEmail(acme, f.member.ID)
	bad.Payload = []byte("{")
	assert.ErrorIs(t, f.svc.Handle(ctx, bad), jobs.ErrBadPayload)
}

func TestHandle_NamespaceInvalidoEsPayloadInvalido(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, ns := range []string{"", "public", "acme;drop", "pg_catalog"} {
		env := jobs.TaskReminder(tenant.Namespace(ns), "t1")
		assert.ErrorIs(t, f.svc.Handle(ctx, env), jobs.ErrBadPayload, "namespace %q", ns)
		env = jobs.WelcomeEmail(tenant.Namespace(ns), f.member.ID)
		assert.ErrorIs(t, f.svc.Handle(ctx, env), jobs.ErrBadPayload, "namespace %q", ns)
	}
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	// los trabajos globales no usan namespace
	require.NoError(t, f.svc.Handle(ctx, jobs.Cleanup(30)))
}

func TestCompletionRate(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(repository.CompletionRate(0, 0)))
	assert.Equal(t, "33.33", repository.CompletionRate(1, 3).StringFixed(2))
	assert.Equal(t, "100.00", repository.CompletionRate(4, 4).StringFixed(2))
}
