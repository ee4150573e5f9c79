package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

// ── users ────────────────────────────────────────────────────────────────────

type userRepo struct{ s *Store }

func (r userRepo) withProfile(d *nsData, u *entity.User) *entity.User {
	out := copyUser(u)
	out.Profile = nil
	for _, p := range d.profiles {
		if p.UserID == u.ID {
			cp := *p
			out.Profile = &cp
			break
		}
	}
	return out
}

func (r userRepo) Create(ctx context.Context, ns tenant.Namespace, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.Create"); err != nil {
		return err
	}
	d, err := r.s.ns(ns)
	if err != nil {
		return err
	}
	for _, existing := range d.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	cp := copyUser(u)
	cp.Profile = nil
	d.users[u.ID] = cp
	r.s.stamp(u.ID)
	return nil
}

func (r userRepo) CreateProfile(ctx context.Context, ns tenant.Namespace, p *entity.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.CreateProfile"); err != nil {
		return err
	}
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.users[p.UserID]; !ok {
		return fmt.Errorf("memstore: usuario %q no existe", p.UserID)
	}
	for _, existing := range d.profiles {
		if existing.UserID == p.UserID {
			return domain.ErrDuplicate
		}
	}
	cp := *p
	d.profiles[p.ID] = &cp
	return nil
}

func (r userRepo) GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.ns(ns)
	if err != nil {
		return nil, err
	}
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	return r.withProfile(d, u), nil
}

func (r userRepo) GetByProfileID(ctx context.Context, ns tenant.Namespace, profileID string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	p, ok := d.profiles[profileID]
	if !ok {
		return nil, nil
	}
	u, ok := d.users[p.UserID]
	if !ok {
		return nil, nil
	}
	return r.withProfile(d, u), nil
}

func (r userRepo) GetByUsername(ctx context.Context, ns tenant.Namespace, username string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.ns(ns)
	if err != nil {
		return nil, err
	}
	for _, u := range d.users {
		if u.Username == username {
			return r.withProfile(d, u), nil
		}
	}
	return nil, nil
}

func (r userRepo) ExistsUsername(ctx context.Context, ns tenant.Namespace, username string) (bool, error) {
	u, err := r.GetByUsername(ctx, ns, username)
	return u != nil, err
}

func (r userRepo) ExistsEmail(ctx context.Context, ns tenant.Namespace, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.ns(ns)
	if err != nil {
		return false, err
	}
	for _, u := range d.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r userRepo) Count(ctx context.Context, ns tenant.Namespace) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.ns(ns)
	if err != nil {
		return 0, err
	}
	return len(d.users), nil
}

func (r userRepo) CountProfiles(ctx context.Context, ns tenant.Namespace) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return 0, err
	}
	return len(d.profiles), nil
}

func (r userRepo) List(ctx context.Context, ns tenant.Namespace, limit, offset int) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(d.profiles))
	for _, p := range d.profiles {
		ids = append(ids, p.UserID)
	}
	r.s.newerFirst(ids, func(id string) time.Time { return d.users[id].DateJoined })
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.withProfile(d, d.users[id]))
	}
	return page(out, limit, offset), nil
}

func (r userRepo) Update(ctx context.Context, ns tenant.Namespace, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.ns(ns)
	if err != nil {
		return err
	}
	if _, ok := d.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := copyUser(u)
	cp.Profile = nil
	d.users[u.ID] = cp
	return nil
}

func (r userRepo) UpdateProfile(ctx context.Context, ns tenant.Namespace, p *entity.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.profiles[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	d.profiles[p.ID] = &cp
	return nil
}

func (r userRepo) DeleteProfile(ctx context.Context, ns tenant.Namespace, profileID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.profiles[profileID]; !ok {
		return domain.ErrNotFound
	}
	delete(d.profiles, profileID)
	return nil
}

// DeleteUser borra una identidad aplicando las reglas de las FKs: cascada en proyectos propios
// (y sus tareas) y en tareas creadas; SET NULL en tareas asignadas.
func (s *Store) DeleteUser(ns tenant.Namespace, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.ns(ns)
	if err != nil {
		return err
	}
	delete(d.users, userID)
	for id, p := range d.profiles {
		if p.UserID == userID {
			delete(d.profiles, id)
		}
	}
	for id, p := range d.projects {
		if p.OwnerUserID == userID {
			deleteProject(d, id)
			continue
		}
		members := p.MemberIDs[:0]
		for _, m := range p.MemberIDs {
			if m != userID {
				members = append(members, m)
			}
		}
		p.MemberIDs = members
	}
	for id, t := range d.tasks {
		if t.CreatedBy == userID {
			delete(d.tasks, id)
			continue
		}
		if t.IsAssignedTo(userID) {
			t.AssignedTo = nil
		}
	}
	return nil
}

// ── projects ─────────────────────────────────────────────────────────────────

type projectRepo struct{ s *Store }

func (r projectRepo) load(d *nsData, p *entity.Project) *entity.Project {
	out := copyProject(p)
	out.TaskCount = 0
	for _, t := range d.tasks {
		if t.ProjectID == p.ID {
			out.TaskCount++
		}
	}
	return out
}

func (r projectRepo) Create(ctx context.Context, ns tenant.Namespace, p *entity.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Projects.Create"); err != nil {
		return err
	}
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.users[p.OwnerUserID]; !ok {
		return fmt.Errorf("memstore: dueño %q no existe", p.OwnerUserID)
	}
	d.projects[p.ID] = copyProject(p)
	r.s.stamp(p.ID)
	return nil
}

func (r projectRepo) GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	p, ok := d.projects[id]
	if !ok {
		return nil, nil
	}
	return r.load(d, p), nil
}

func (r projectRepo) accessible(d *nsData, userID string) []*entity.Project {
	ids := make([]string, 0, len(d.projects))
	for id, p := range d.projects {
		if p.IsAccessibleBy(userID) {
			ids = append(ids, id)
		}
	}
	r.s.newerFirst(ids, func(id string) time.Time { return d.projects[id].CreatedAt })
	out := make([]*entity.Project, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.load(d, d.projects[id]))
	}
	return out
}

func (r projectRepo) ListAccessible(ctx context.Context, ns tenant.Namespace, userID string, limit, offset int) ([]*entity.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	return page(r.accessible(d, userID), limit, offset), nil
}

func (r projectRepo) CountAccessible(ctx context.Context, ns tenant.Namespace, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return 0, err
	}
	return len(r.accessible(d, userID)), nil
}

func (r projectRepo) Count(ctx context.Context, ns tenant.Namespace) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return 0, err
	}
	return len(d.projects), nil
}

func (r projectRepo) Update(ctx context.Context, ns tenant.Namespace, p *entity.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	existing, ok := d.projects[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := copyProject(p)
	cp.MemberIDs = existing.MemberIDs
	d.projects[p.ID] = cp
	return nil
}

func (r projectRepo) SetMembers(ctx context.Context, ns tenant.Namespace, projectID string, memberIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	p, ok := d.projects[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	p.MemberIDs = append([]string(nil), memberIDs...)
	return nil
}

func (r projectRepo) AddMember(ctx context.Context, ns tenant.Namespace, projectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	p, ok := d.projects[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := d.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	if !p.HasMember(userID) {
		p.MemberIDs = append(p.MemberIDs, userID)
	}
	return nil
}

func (r projectRepo) RemoveMember(ctx context.Context, ns tenant.Namespace, projectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	p, ok := d.projects[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	members := make([]string, 0, len(p.MemberIDs))
	for _, m := range p.MemberIDs {
		if m != userID {
			members = append(members, m)
		}
	}
	p.MemberIDs = members
	return nil
}

func (r projectRepo) Delete(ctx context.Context, ns tenant.Namespace, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.projects[id]; !ok {
		return domain.ErrNotFound
	}
	deleteProject(d, id)
	return nil
}

func deleteProject(d *nsData, id string) {
	delete(d.projects, id)
	for tid, t := range d.tasks {
		if t.ProjectID == id {
			delete(d.tasks, tid)
		}
	}
}

// ── tasks ────────────────────────────────────────────────────────────────────

type taskRepo struct{ s *Store }

func (r taskRepo) load(d *nsData, t *entity.Task) *entity.Task {
	out := copyTask(t)
	if p, ok := d.projects[t.ProjectID]; ok {
		out.ProjectName = p.Name
	}
	return out
}

func (r taskRepo) Create(ctx context.Context, ns tenant.Namespace, t *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.projects[t.ProjectID]; !ok {
		return fmt.Errorf("memstore: proyecto %q no existe", t.ProjectID)
	}
	d.tasks[t.ID] = copyTask(t)
	r.s.stamp(t.ID)
	return nil
}

func (r taskRepo) GetByID(ctx context.Context, ns tenant.Namespace, id string) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	t, ok := d.tasks[id]
	if !ok {
		return nil, nil
	}
	return r.load(d, t), nil
}

func (r taskRepo) Update(ctx context.Context, ns tenant.Namespace, t *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.tasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	d.tasks[t.ID] = copyTask(t)
	return nil
}

func (r taskRepo) Delete(ctx context.Context, ns tenant.Namespace, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	if _, ok := d.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(d.tasks, id)
	return nil
}

func (r taskRepo) filtered(d *nsData, f repository.TaskFilter) []*entity.Task {
	ids := make([]string, 0, len(d.tasks))
	for id, t := range d.tasks {
		if f.AccessibleTo != "" {
			p, ok := d.projects[t.ProjectID]
			if !ok || !p.IsAccessibleBy(f.AccessibleTo) {
				continue
			}
		}
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.AssignedTo != "" && !t.IsAssignedTo(f.AssignedTo) {
			continue
		}
		ids = append(ids, id)
	}
	r.s.newerFirst(ids, func(id string) time.Time { return d.tasks[id].CreatedAt })
	out := make([]*entity.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.load(d, d.tasks[id]))
	}
	return out
}

func (r taskRepo) List(ctx context.Context, ns tenant.Namespace, f repository.TaskFilter) ([]*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	return page(r.filtered(d, f), f.Limit, f.Offset), nil
}

func (r taskRepo) Count(ctx context.Context, ns tenant.Namespace, f repository.TaskFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return 0, err
	}
	return len(r.filtered(d, f)), nil
}

func (r taskRepo) CountByStatus(ctx context.Context, ns tenant.Namespace, f repository.TaskFilter) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, t := range r.filtered(d, f) {
		out[t.Status]++
	}
	return out, nil
}

func (r taskRepo) ProjectStats(ctx context.Context, ns tenant.Namespace, projectID string, now time.Time) (*repository.TaskStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	st := &repository.TaskStats{ByStatus: map[string]int{}, ByPriority: map[string]int{}}
	for _, t := range d.tasks {
		if t.ProjectID != projectID {
			continue
		}
		st.Total++
		st.ByStatus[t.Status]++
		st.ByPriority[t.Priority]++
		if t.DueDate != nil && t.DueDate.Before(now) &&
			(t.Status == entity.TaskTodo || t.Status == entity.TaskInProgress) {
			st.Overdue++
		}
	}
	st.CompletionRate = repository.CompletionRate(st.ByStatus[entity.TaskDone], st.Total)
	return st, nil
}

func (r taskRepo) ListOverdue(ctx context.Context, ns tenant.Namespace, now time.Time) ([]*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Tasks.ListOverdue:" + ns.String()); err != nil {
		return nil, err
	}
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return nil, err
	}
	var out []*entity.Task
	for _, t := range r.filtered(d, repository.TaskFilter{}) {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r taskRepo) DeleteCompletedBefore(ctx context.Context, ns tenant.Namespace, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Tasks.DeleteCompletedBefore:" + ns.String()); err != nil {
		return 0, err
	}
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return 0, err
	}
	var n int64
	for id, t := range d.tasks {
		if t.Status == entity.TaskDone && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(d.tasks, id)
			n++
		}
	}
	return n, nil
}

// ── reminders ────────────────────────────────────────────────────────────────

type reminderRepo struct{ s *Store }

func reminderKey(taskID string, day time.Time) string {
	return taskID + "|" + day.UTC().Format("2006-01-02")
}

func (r reminderRepo) Claim(ctx context.Context, ns tenant.Namespace, taskID string, day time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return false, err
	}
	k := reminderKey(taskID, day)
	if d.reminders[k] {
		return false, nil
	}
	d.reminders[k] = true
	return true, nil
}

func (r reminderRepo) Release(ctx context.Context, ns tenant.Namespace, taskID string, day time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, err := r.s.tenantNS(ns)
	if err != nil {
		return err
	}
	delete(d.reminders, reminderKey(taskID, day))
	return nil
}

var (
	_ repository.CompanyRepository     = companyRepo{}
	_ repository.DomainRepository      = domainRepo{}
	_ repository.SchemaProvisioner     = schemaRepo{}
	_ repository.UserRepository        = userRepo{}
	_ repository.ProjectRepository     = projectRepo{}
	_ repository.TaskRepository        = taskRepo{}
	_ repository.ReminderLogRepository = reminderRepo{}
)
