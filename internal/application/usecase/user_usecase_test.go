package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/application/jobs"
	"github.com/jhoicas/Proyectos-api/internal/application/usecase"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/internal/testutil/memstore"
	"github.com/jhoicas/Proyectos-api/internal/testutil/mocks"
)

const acme = tenant.Namespace("acme")

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "se esperaba ValidationError, llegó %v", err)
	return verr.Fields
}

func bob() dto.RegisterUserRequest {
	return dto.RegisterUserRequest{
		Username: "bob",
		Email:    "bob@acme.com",
		Password: "password123",
		Role:     entity.RoleManager,
	}
}

func TestCreateIdentity_PerfilSoloFueraDePublic(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	repos := store.Repos()
	in := usecase.IdentityInput{Username: "carol", Email: "carol@x.com", Password: "password123"}

	tenantUser, err := usecase.CreateIdentity(ctx, repos.Users, acme, in, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, tenantUser.Profile)
	assert.Equal(t, entity.RoleMember, tenantUser.Profile.Role)

	publicUser, err := usecase.CreateIdentity(ctx, repos.Users, tenant.Public, in, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, publicUser.Profile)
	loaded, err := repos.Users.GetByID(ctx, tenant.Public, publicUser.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Profile)
	assert.NotEqual(t, "password123", loaded.PasswordHash)
}

func TestUserRegister_CreaUsuarioYPerfil(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	admin := store.SeedUser(acme, "alice", "password123", entity.RoleAdmin)
	pub := &mocks.Publisher{}
	uc := usecase.NewUserUseCase(store.Repos(), store, pub)

	out, err := uc.Register(ctx, acme, admin, bob())
	require.NoError(t, err)
	assert.Equal(t, "bob", out.User.Username)
	assert.Equal(t, entity.RoleManager, out.Role)

	u, err := store.Repos().Users.GetByUsername(ctx, acme, "bob")
	require.NoError(t, err)
	require.NotNil(t, u.Profile)
	assert.Equal(t, out.ID, u.Profile.ID)
	assert.Len(t, pub.Named(jobs.JobWelcomeEmail), 1)
}

func TestUserRegister_Duplicados(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	admin := store.SeedUser(acme, "alice", "password123", entity.RoleAdmin)
	uc := usecase.NewUserUseCase(store.Repos(), store, nil)
	_, err := uc.Register(ctx, acme, admin, bob())
	require.NoError(t, err)

	_, err = uc.Register(ctx, acme, admin, bob())
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")

	n, _ := store.Repos().Users.Count(ctx, acme)
	assert.Equal(t, 2, n)
}

func TestUserRegister_Validaciones(t *testing.T) {
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	admin := store.SeedUser(acme, "alice", "password123", entity.RoleAdmin)
	uc := usecase.NewUserUseCase(store.Repos(), store, nil)
	_, err := uc.Register(context.Background(), acme, admin, dto.RegisterUserRequest{
		Username: "x", Email: "no-es-email", Password: "1234567", Role: "owner",
	})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "role")
}

func TestUserRegister_LimiteDeUsuarios(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 1, 3)
	admin := store.SeedUser(acme, "alice", "password123", entity.RoleAdmin)
	uc := usecase.NewUserUseCase(store.Repos(), store, nil)

	_, err := uc.Register(ctx, acme, admin, bob())
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
}

func TestUserRegister_SoloAdminAsignaRoles(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	member := store.SeedUser(acme, "mario", "password123", entity.RoleMember)
	uc := usecase.NewUserUseCase(store.Repos(), store, nil)

	_, err := uc.Register(ctx, acme, nil, bob())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	in := bob()
	in.Role = entity.RoleAdmin
	_, err = uc.Register(ctx, acme, member, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	u, err := store.Repos().Users.GetByUsername(ctx, acme, "bob")
	require.NoError(t, err)
	assert.Nil(t, u, "un rechazo no crea el usuario")

	in.Role = ""
	out, err := uc.Register(ctx, acme, member, in)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, out.Role)
}

func TestUserMe_CreaPerfilFaltante(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	u := store.SeedUser(acme, "alice", "password123", "")
	uc := usecase.NewUserUseCase(store.Repos(), store, nil)

	require.NoError(t, store.Repos().Users.DeleteProfile(ctx, acme, u.Profile.ID))
	out, err := uc.Me(ctx, acme, u)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, out.Role)
	assert.NotEqual(t, u.Profile.ID, out.ID)

	again, err := uc.Me(ctx, acme, u)
	require.NoError(t, err)
	assert.Equal(t, out.ID, again.ID, "la segunda llamada no crea otro perfil")
}

func TestUserUpdate_AdminOPropietario(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	admin := store.SeedUser(acme, "alice", "password123", entity.RoleAdmin)
	member := store.SeedUser(acme, "bob", "password123", "")
	other := store.SeedUser(acme, "carol", "password123", "")
	uc := usecase.NewUserUseCase(store.Repos(), store, nil)

	phone := "555-1234"
	out, err := uc.Update(ctx, acme, member, member.Profile.ID, dto.UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, out.Phone)

	_, err = uc.Update(ctx, acme, other, member.Profile.ID, dto.UpdateProfileRequest{Phone: &phone})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	role := entity.RoleAdmin
	_, err = uc.Update(ctx, acme, member, member.Profile.ID, dto.UpdateProfileRequest{Role: &role})
	assert.ErrorIs(t, err, domain.ErrForbidden, "un miembro no puede cambiarse el rol")

	manager := entity.RoleManager
	out, err = uc.Update(ctx, acme, admin, member.Profile.ID, dto.UpdateProfileRequest{Role: &manager})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, out.Role)

	assert.ErrorIs(t, uc.Delete(ctx, acme, other, member.Profile.ID), domain.ErrForbidden)
	require.NoError(t, uc.Delete(ctx, acme, admin, member.Profile.ID))
	_, err = uc.Get(ctx, acme, member.Profile.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// la identidad sobrevive al perfil y Me lo recrea como member
	u, err := store.Repos().Users.GetByID(ctx, acme, member.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Nil(t, u.Profile)
	me, err := uc.Me(ctx, acme, member)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, me.Role)
	assert.NotEqual(t, member.Profile.ID, me.ID)
}

func TestUserList(t *testing.T) {
	store := memstore.New()
	store.SeedCompany("acme", 5, 3)
	store.SeedUser(acme, "alice", "password123", entity.RoleAdmin)
	store.SeedUser(acme, "bob", "password123", "")
	uc := usecase.NewUserUseCase(store.Repos(), store, nil)

	list, err := uc.List(context.Background(), acme, 1, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Page.Total)
}
