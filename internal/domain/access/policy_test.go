package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Proyectos-api/internal/domain/access"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
)

func user(id, role string) *entity.User {
	u := &entity.User{ID: id, Username: id, IsActive: true}
	if role != "" {
		u.Profile = &entity.Profile{UserID: id, Role: role}
	}
	return u
}

func TestIsAuthenticated(t *testing.T) {
	assert.False(t, access.IsAuthenticated(nil))
	assert.False(t, access.IsAuthenticated(&entity.User{ID: "u1", IsActive: false}))
	assert.True(t, access.IsAuthenticated(user("u1", "")))
}

func TestProjectOwnerOrMember(t *testing.T) {
	p := &entity.Project{OwnerUserID: "owner", MemberIDs: []string{"m1"}}

	assert.True(t, access.ProjectOwnerOrMember(user("owner", ""), p, access.Read))
	assert.True(t, access.ProjectOwnerOrMember(user("owner", ""), p, access.Write))
	assert.True(t, access.ProjectOwnerOrMember(user("m1", ""), p, access.Read))
	assert.False(t, access.ProjectOwnerOrMember(user("m1", ""), p, access.Write),
		"un miembro no puede escribir")
	assert.False(t, access.ProjectOwnerOrMember(user("otro", ""), p, access.Read))

	inactive := user("owner", "")
	inactive.IsActive = false
	assert.False(t, access.ProjectOwnerOrMember(inactive, p, access.Read))
}

func TestTaskProjectMember(t *testing.T) {
	p := &entity.Project{OwnerUserID: "owner", MemberIDs: []string{"m1"}}
	assert.True(t, access.TaskProjectMember(user("owner", ""), p))
	assert.True(t, access.TaskProjectMember(user("m1", ""), p))
	assert.False(t, access.TaskProjectMember(user("otro", ""), p))
	assert.False(t, access.TaskProjectMember(user("m1", ""), nil))
}

func TestAdminOrOwner(t *testing.T) {
	project := &entity.Project{OwnerUserID: "owner"}
	task := &entity.Task{CreatedBy: "creator"}
	profile := &entity.Profile{UserID: "self"}

	assert.True(t, access.AdminOrOwner(user("cualquiera", entity.RoleAdmin), project), "admin pasa siempre")
	assert.True(t, access.AdminOrOwner(user("owner", entity.RoleMember), project))
	assert.False(t, access.AdminOrOwner(user("creator", entity.RoleMember), project))
	assert.True(t, access.AdminOrOwner(user("creator", entity.RoleMember), task))
	assert.True(t, access.AdminOrOwner(user("self", entity.RoleViewer), profile))
	assert.False(t, access.AdminOrOwner(user("otro", entity.RoleManager), profile))
	assert.False(t, access.AdminOrOwner(user("otro", ""), nil))
}

func TestCanAssignRole(t *testing.T) {
	assert.True(t, access.CanAssignRole(user("m1", entity.RoleMember), ""))
	assert.True(t, access.CanAssignRole(user("m1", entity.RoleMember), entity.RoleMember))
	assert.False(t, access.CanAssignRole(user("m1", entity.RoleMember), entity.RoleAdmin))
	assert.False(t, access.CanAssignRole(user("g1", entity.RoleManager), entity.RoleViewer))
	assert.False(t, access.CanAssignRole(nil, entity.RoleAdmin))
	assert.True(t, access.CanAssignRole(user("a1", entity.RoleAdmin), entity.RoleAdmin))
}

func TestActionForMethod(t *testing.T) {
	assert.Equal(t, access.Read, access.ActionForMethod("GET"))
	assert.Equal(t, access.Write, access.ActionForMethod("PATCH"))
	assert.Equal(t, access.Write, access.ActionForMethod("DELETE"))
}
