package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

var _ repository.ProjectRepository = (*ProjectRepo)(nil)

// ProjectRepo proyectos y membresía (tablas projects y project_members del schema de la empresa).
type ProjectRepo struct {
	q Querier
}

// NewProjectRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProjectRepository(q Querier) *ProjectRepo {
	return &ProjectRepo{q: q}
}

// selectProject proyecto + miembros (array) + cantidad de tareas.
func selectProject(ns tenant.Namespace) string {
	return `
		SELECT p.id, p.name, p.description, p.status, p.owner_id, p.start_date, p.end_date,
		       p.created_at, p.updated_at,
		       ARRAY(SELECT m.user_id::text FROM ` + table(ns, "project_members") + ` m
		             WHERE m.project_id = p.id ORDER BY m.user_id) AS member_ids,
		       (SELECT COUNT(*) FROM ` + table(ns, "tasks") + ` t WHERE t.project_id = p.id) AS task_count
		FROM ` + table(ns, "projects") + ` p`
}

// accessibleWhere dueño o miembro; $1 es el usuario.
func accessibleWhere(ns tenant.Namespace) string {
	return ` WHERE (p.owner_id::text = $1 OR EXISTS (
		SELECT 1 FROM ` + table(ns, "project_members") + ` m
		WHERE m.project_id = p.id AND m.user_id::text = $1))`
}

// Create inserta el proyecto y sus miembros.
func (r *ProjectRepo) Create(ctx context.Context, ns tenant.Namespace, p *entity.Project) error {
	query := `
		INSERT INTO ` + table(ns, "projects") + ` (id, name, description, status, owner_id, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Status, p.OwnerUserID, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	if err := r.insertMembers(ctx, ns, p.ID, p.MemberIDs); err != nil {
		return err
	}
	return nil
}

// GetByID obtiene el proyecto con MemberIDs y TaskCount.
func (r *ProjectRepo) GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx, selectProject(ns)+` WHERE p.id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListAccessible proyectos del usuario (dueño o miembro), más nuevos primero.
func (r *ProjectRepo) ListAccessible(ctx context.Context, ns tenant.Namespace, userID string, limit, offset int) ([]*entity.Project, error) {
	query := selectProject(ns) + accessibleWhere(ns) + `
		ORDER BY p.created_at DESC, p.id
		LIMIT NULLIF($2::int, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*entity.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountAccessible total de proyectos accesibles.
func (r *ProjectRepo) CountAccessible(ctx context.Context, ns tenant.Namespace, userID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM ` + table(ns, "projects") + ` p` + accessibleWhere(ns)
	if err := r.q.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accessible projects: %w", err)
	}
	return n, nil
}

// Count total de proyectos de la empresa (límite max_projects).
func (r *ProjectRepo) Count(ctx context.Context, ns tenant.Namespace) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+table(ns, "projects")).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

// Update persiste los campos escalares.
func (r *ProjectRepo) Update(ctx context.Context, ns tenant.Namespace, p *entity.Project) error {
	query := `
		UPDATE ` + table(ns, "projects") + `
		SET name = $2, description = $3, status = $4, owner_id = $5, start_date = $6, end_date = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Status, p.OwnerUserID, p.StartDate, p.EndDate, p.UpdatedAt,
	)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetMembers reemplaza la membresía completa.
func (r *ProjectRepo) SetMembers(ctx context.Context, ns tenant.Namespace, projectID string, memberIDs []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM `+table(ns, "project_members")+` WHERE project_id = $1`, projectID); err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("clear members: %w", err)
	}
	return r.insertMembers(ctx, ns, projectID, memberIDs)
}

// AddMember agrega un miembro (idempotente).
func (r *ProjectRepo) AddMember(ctx context.Context, ns tenant.Namespace, projectID, userID string) error {
	query := `INSERT INTO ` + table(ns, "project_members") + ` (project_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := r.q.Exec(ctx, query, projectID, userID); err != nil {
		if isForeignKeyViolation(err) || isInvalidID(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember quita un miembro; si no lo era no hace nada.
func (r *ProjectRepo) RemoveMember(ctx context.Context, ns tenant.Namespace, projectID, userID string) error {
	query := `DELETE FROM ` + table(ns, "project_members") + ` WHERE project_id = $1 AND user_id = $2`
	if _, err := r.q.Exec(ctx, query, projectID, userID); err != nil {
		if isInvalidID(err) {
			return nil
		}
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// Delete borra el proyecto; tareas y membresías caen por ON DELETE CASCADE.
func (r *ProjectRepo) Delete(ctx context.Context, ns tenant.Namespace, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM `+table(ns, "projects")+` WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) insertMembers(ctx context.Context, ns tenant.Namespace, projectID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO ` + table(ns, "project_members") + ` (project_id, user_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`
	if _, err := r.q.Exec(ctx, query, projectID, memberIDs); err != nil {
		if isForeignKeyViolation(err) || isInvalidID(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert members: %w", err)
	}
	return nil
}

func scanProject(row pgxScanner) (*entity.Project, error) {
	var p entity.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Status, &p.OwnerUserID, &p.StartDate, &p.EndDate,
		&p.CreatedAt, &p.UpdatedAt, &p.MemberIDs, &p.TaskCount,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
