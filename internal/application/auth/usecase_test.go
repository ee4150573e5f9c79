package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Proyectos-api/internal/application/auth"
	"github.com/jhoicas/Proyectos-api/internal/application/dto"
	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
	"github.com/jhoicas/Proyectos-api/internal/testutil/memstore"
	"github.com/jhoicas/Proyectos-api/pkg/jwt"
)

var cfg = auth.JWTConfig{Secret: "test-secret", Issuer: "proyectos-test", AccessMinutes: 5, RefreshMinutes: 60}

func setup() (*auth.AuthUseCase, *memstore.Store, *entity.User) {
	store := memstore.New()
	store.SeedCompany("acme", 10, 10)
	store.SeedCompany("globex", 10, 10)
	u := store.SeedUser("acme", "alice", "password123", entity.RoleManager)
	return auth.NewAuthUseCase(store.Repos().Users, cfg), store, u
}

func TestLogin_EmiteTokensDelNamespace(t *testing.T) {
	ctx := context.Background()
	uc, _, alice := setup()

	tok, err := uc.Login(ctx, "acme", dto.TokenRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, tok.Access)
	require.NotEmpty(t, tok.Refresh)

	claims, err := jwt.Parse(cfg.Secret, tok.Access, jwt.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.UserID)
	assert.Equal(t, "acme", claims.Schema)
	assert.Equal(t, entity.RoleManager, claims.Role)

	u, _, err := uc.Authenticate(ctx, "acme", tok.Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	ctx := context.Background()
	uc, store, alice := setup()

	_, err := uc.Login(ctx, "acme", dto.TokenRequest{Username: "alice", Password: "mala"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, "acme", dto.TokenRequest{Username: "nadie", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, "globex", dto.TokenRequest{Username: "alice", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "la identidad vive en otro namespace")

	_, err = uc.Login(ctx, "acme", dto.TokenRequest{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "password")

	alice.IsActive = false
	require.NoError(t, store.Repos().Users.Update(ctx, "acme", alice))
	_, err = uc.Login(ctx, "acme", dto.TokenRequest{Username: "alice", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_TokenDeOtroNamespace(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := setup()
	tok, err := uc.Login(ctx, "acme", dto.TokenRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, _, err = uc.Authenticate(ctx, tenant.Namespace("globex"), tok.Access)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = uc.Authenticate(ctx, tenant.Public, tok.Access)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_TipoDeToken(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := setup()
	tok, err := uc.Login(ctx, "acme", dto.TokenRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, _, err = uc.Authenticate(ctx, "acme", tok.Refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "un refresh no sirve como access")

	_, _, err = uc.Authenticate(ctx, "acme", "no.es.token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := setup()
	tok, err := uc.Login(ctx, "acme", dto.TokenRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	out, err := uc.Refresh(ctx, "acme", dto.RefreshRequest{Refresh: tok.Refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Access)
	assert.Empty(t, out.Refresh)
	_, _, err = uc.Authenticate(ctx, "acme", out.Access)
	assert.NoError(t, err)

	_, err = uc.Refresh(ctx, "acme", dto.RefreshRequest{Refresh: tok.Access})
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "un access no sirve como refresh")

	_, err = uc.Refresh(ctx, "globex", dto.RefreshRequest{Refresh: tok.Refresh})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Refresh(ctx, "acme", dto.RefreshRequest{})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
