// Package access contiene los predicados de autorización a nivel de objeto.
//
// Son funciones puras de (actor, objeto, acción). Los listados y las altas no pasan por aquí:
// se filtran en la consulta (proyectos accesibles, tareas de proyectos accesibles).
package access

import "github.com/jhoicas/Proyectos-api/internal/domain/entity"

// Action tipo de operación sobre el objeto.
type Action int

const (
	Read Action = iota
	Write
)

// ActionForMethod GET/HEAD/OPTIONS son lectura; el resto escritura.
func ActionForMethod(method string) Action {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return Read
	}
	return Write
}

// IsAuthenticated identidad presente y activa. Es la puerta base de todos los demás predicados.
func IsAuthenticated(actor *entity.User) bool {
	return actor != nil && actor.ID != "" && actor.IsActive
}

// ProjectOwnerOrMember lectura para dueño o miembros; escritura solo para el dueño.
func ProjectOwnerOrMember(actor *entity.User, p *entity.Project, a Action) bool {
	if !IsAuthenticated(actor) || p == nil {
		return false
	}
	if a == Read {
		return p.IsAccessibleBy(actor.ID)
	}
	return p.OwnerUserID == actor.ID
}

// TaskProjectMember lectura y escritura si el actor es dueño o miembro del proyecto de la tarea.
func TaskProjectMember(actor *entity.User, project *entity.Project) bool {
	if !IsAuthenticated(actor) || project == nil {
		return false
	}
	return project.IsAccessibleBy(actor.ID)
}

// AdminOrOwner el rol admin del perfil pasa siempre; si no, el actor debe ser el responsable del objeto.
func AdminOrOwner(actor *entity.User, obj entity.Owned) bool {
	if !IsAuthenticated(actor) {
		return false
	}
	if actor.Role() == entity.RoleAdmin {
		return true
	}
	if obj == nil {
		return false
	}
	return obj.OwnerID() == actor.ID
}

// CanAssignRole indica si actor puede dar el rol a un usuario nuevo. Vacío o member
// siempre; cualquier otro solo un admin.
func CanAssignRole(actor *entity.User, role string) bool {
	if role == "" || role == entity.RoleMember {
		return true
	}
	return IsAuthenticated(actor) && actor.Role() == entity.RoleAdmin
}
