// Package memstore implementa todos los puertos de repositorio en memoria para tests.
//
// Imita lo que importa de PostgreSQL: unicidad (ErrDuplicate), schemas que hay que crear
// antes de usarlos, cascadas y transacciones con rollback (Run restaura una copia del estado
// si fn devuelve error).
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Proyectos-api/internal/domain"
	"github.com/jhoicas/Proyectos-api/internal/domain/entity"
	"github.com/jhoicas/Proyectos-api/internal/domain/repository"
	"github.com/jhoicas/Proyectos-api/internal/domain/tenant"
)

type nsData struct {
	users     map[string]*entity.User    // sin Profile
	profiles  map[string]*entity.Profile // por profile.ID
	projects  map[string]*entity.Project
	tasks     map[string]*entity.Task
	reminders map[string]bool // task_id|YYYY-MM-DD
}

func newNSData() *nsData {
	return &nsData{
		users:     map[string]*entity.User{},
		profiles:  map[string]*entity.Profile{},
		projects:  map[string]*entity.Project{},
		tasks:     map[string]*entity.Task{},
		reminders: map[string]bool{},
	}
}

type state struct {
	companies  map[string]*entity.Company
	domains    map[string]*entity.Domain
	namespaces map[tenant.Namespace]*nsData
	seq        map[string]int64
	next       int64
}

// Store base de datos en memoria. El valor cero no sirve: usar New.
type Store struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	st    *state
	fails map[string]error
}

// New crea un store con el namespace public ya creado.
func New() *Store {
	s := &Store{
		st: &state{
			companies:  map[string]*entity.Company{},
			domains:    map[string]*entity.Domain{},
			namespaces: map[tenant.Namespace]*nsData{tenant.Public: newNSData()},
			seq:        map[string]int64{},
		},
		fails: map[string]error{},
	}
	return s
}

// FailOn hace que la operación op (p.ej. "CreateSchema", "Users.Create") devuelva err
// hasta que se llame ClearFailures.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[op] = err
}

// ClearFailures elimina todas las fallas inyectadas.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails = map[string]error{}
}

// HasSchema indica si el namespace existe.
func (s *Store) HasSchema(ns tenant.Namespace) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.namespaces[ns]
	return ok
}

// Repos devuelve los repositorios respaldados por este store.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Companies: companyRepo{s},
		Domains:   domainRepo{s},
		Schemas:   schemaRepo{s},
		Users:     userRepo{s},
		Projects:  projectRepo{s},
		Tasks:     taskRepo{s},
		Reminders: reminderRepo{s},
	}
}

// Run implementa repository.TxRunner: si fn falla, el estado vuelve a la copia previa.
// Las transacciones se serializan entre sí.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(s.Repos()); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

var _ repository.TxRunner = (*Store)(nil)

func (s *Store) fail(op string) error {
	return s.fails[op]
}

func (s *Store) ns(ns tenant.Namespace) (*nsData, error) {
	d, ok := s.st.namespaces[ns]
	if !ok {
		return nil, fmt.Errorf("memstore: schema %q no existe", ns)
	}
	return d, nil
}

func (s *Store) tenantNS(ns tenant.Namespace) (*nsData, error) {
	if ns.IsPublic() {
		return nil, fmt.Errorf("memstore: la tabla no existe en public")
	}
	return s.ns(ns)
}

func (s *Store) stamp(id string) {
	s.st.next++
	s.st.seq[id] = s.st.next
}

// newerFirst ordena por created_at desc y, a igual fecha, por orden de inserción desc.
func (s *Store) newerFirst(ids []string, created func(id string) time.Time) {
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := created(ids[i]), created(ids[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return s.st.seq[ids[i]] > s.st.seq[ids[j]]
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ── clonado ──────────────────────────────────────────────────────────────────

func (st *state) clone() *state {
	out := &state{
		companies:  make(map[string]*entity.Company, len(st.companies)),
		domains:    make(map[string]*entity.Domain, len(st.domains)),
		namespaces: make(map[tenant.Namespace]*nsData, len(st.namespaces)),
		seq:        make(map[string]int64, len(st.seq)),
		next:       st.next,
	}
	for k, v := range st.companies {
		out.companies[k] = copyCompany(v)
	}
	for k, v := range st.domains {
		d := *v
		out.domains[k] = &d
	}
	for k, v := range st.seq {
		out.seq[k] = v
	}
	for ns, d := range st.namespaces {
		nd := newNSData()
		for k, v := range d.users {
			nd.users[k] = copyUser(v)
		}
		for k, v := range d.profiles {
			p := *v
			nd.profiles[k] = &p
		}
		for k, v := range d.projects {
			nd.projects[k] = copyProject(v)
		}
		for k, v := range d.tasks {
			nd.tasks[k] = copyTask(v)
		}
		for k, v := range d.reminders {
			nd.reminders[k] = v
		}
		out.namespaces[ns] = nd
	}
	return out
}

func copyCompany(c *entity.Company) *entity.Company {
	out := *c
	return &out
}

func copyUser(u *entity.User) *entity.User {
	out := *u
	if u.Profile != nil {
		p := *u.Profile
		out.Profile = &p
	}
	return &out
}

func copyProject(p *entity.Project) *entity.Project {
	out := *p
	out.MemberIDs = append([]string(nil), p.MemberIDs...)
	return &out
}

func copyTask(t *entity.Task) *entity.Task {
	out := *t
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		out.AssignedTo = &v
	}
	return &out
}

// ── schemas ──────────────────────────────────────────────────────────────────

type schemaRepo struct{ s *Store }

func (r schemaRepo) CreateSchema(ctx context.Context, ns tenant.Namespace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CreateSchema"); err != nil {
		return err
	}
	if _, ok := r.s.st.namespaces[ns]; ok {
		return fmt.Errorf("memstore: schema %q ya existe", ns)
	}
	r.s.st.namespaces[ns] = newNSData()
	return nil
}

func (r schemaRepo) DropSchema(ctx context.Context, ns tenant.Namespace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("DropSchema"); err != nil {
		return err
	}
	if ns.IsPublic() {
		return fmt.Errorf("memstore: no se puede borrar public")
	}
	delete(r.s.st.namespaces, ns)
	return nil
}

// ── companies ────────────────────────────────────────────────────────────────

type companyRepo struct{ s *Store }

func (r companyRepo) Create(ctx context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Companies.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.st.companies {
		if existing.SchemaName == c.SchemaName {
			return domain.ErrDuplicate
		}
	}
	r.s.st.companies[c.ID] = copyCompany(c)
	r.s.stamp(c.ID)
	return nil
}

func (r companyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.companies[id]
	if !ok {
		return nil, nil
	}
	return copyCompany(c), nil
}

func (r companyRepo) GetBySchema(ctx context.Context, schema string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.st.companies {
		if c.SchemaName == schema {
			return copyCompany(c), nil
		}
	}
	return nil, nil
}

func (r companyRepo) ExistsSchema(ctx context.Context, schema string) (bool, error) {
	c, err := r.GetBySchema(ctx, schema)
	return c != nil, err
}

func (r companyRepo) Update(ctx context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.companies[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.companies[c.ID] = copyCompany(c)
	return nil
}

func (r companyRepo) sorted() []*entity.Company {
	ids := make([]string, 0, len(r.s.st.companies))
	for id := range r.s.st.companies {
		ids = append(ids, id)
	}
	r.s.newerFirst(ids, func(id string) time.Time { return r.s.st.companies[id].CreatedAt })
	out := make([]*entity.Company, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyCompany(r.s.st.companies[id]))
	}
	return out
}

func (r companyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.sorted(), limit, offset), nil
}

func (r companyRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.st.companies), nil
}

func (r companyRepo) ListActive(ctx context.Context) ([]*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Companies.ListActive"); err != nil {
		return nil, err
	}
	var out []*entity.Company
	for _, c := range r.s.sortedCompaniesByName() {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) sortedCompaniesByName() []*entity.Company {
	out := make([]*entity.Company, 0, len(s.st.companies))
	for _, c := range s.st.companies {
		out = append(out, copyCompany(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaName < out[j].SchemaName })
	return out
}

func (r companyRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.companies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.companies, id)
	for did, d := range r.s.st.domains {
		if d.CompanyID == id {
			delete(r.s.st.domains, did)
		}
	}
	return nil
}

// ── domains ──────────────────────────────────────────────────────────────────

type domainRepo struct{ s *Store }

func (r domainRepo) checkUnique(d *entity.Domain) error {
	for _, existing := range r.s.st.domains {
		if existing.ID == d.ID {
			continue
		}
		if existing.Domain == d.Domain {
			return domain.ErrDuplicate
		}
		if d.IsPrimary && existing.IsPrimary && existing.CompanyID == d.CompanyID {
			return domain.ErrDuplicate
		}
	}
	if _, ok := r.s.st.companies[d.CompanyID]; !ok {
		return fmt.Errorf("memstore: empresa %q no existe", d.CompanyID)
	}
	return nil
}

func (r domainRepo) Create(ctx context.Context, d *entity.Domain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Domains.Create"); err != nil {
		return err
	}
	if err := r.checkUnique(d); err != nil {
		return err
	}
	cp := *d
	r.s.st.domains[d.ID] = &cp
	r.s.stamp(d.ID)
	return nil
}

func (r domainRepo) GetByID(ctx context.Context, id string) (*entity.Domain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.st.domains[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r domainRepo) GetByHost(ctx context.Context, host string) (*entity.Domain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.st.domains {
		if d.Domain == host {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r domainRepo) ExistsHost(ctx context.Context, host string) (bool, error) {
	d, err := r.GetByHost(ctx, host)
	return d != nil, err
}

func (r domainRepo) HasPrimary(ctx context.Context, companyID, excludeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.st.domains {
		if d.CompanyID == companyID && d.IsPrimary && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r domainRepo) Update(ctx context.Context, d *entity.Domain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.domains[d.ID]; !ok {
		return domain.ErrNotFound
	}
	if err := r.checkUnique(d); err != nil {
		return err
	}
	cp := *d
	r.s.st.domains[d.ID] = &cp
	return nil
}

func (r domainRepo) List(ctx context.Context, limit, offset int) ([]*entity.Domain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Domain, 0, len(r.s.st.domains))
	for _, d := range r.s.st.domains {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return page(out, limit, offset), nil
}

func (r domainRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.st.domains), nil
}

func (r domainRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.domains[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.domains, id)
	return nil
}
