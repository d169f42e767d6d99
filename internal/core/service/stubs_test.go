package service

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/policy"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	return cloneUser(u), nil
}

// stubStore backs the workspace, project and task ports with one mutex so
// budget updates are serialized like a row lock.
type stubStore struct {
	mu         sync.Mutex
	workspaces map[string]*domain.Workspace
	projects   map[string]*domain.Project
	tasks      map[string]*domain.Task
}

func newStubStore() *stubStore {
	return &stubStore{
		workspaces: make(map[string]*domain.Workspace),
		projects:   make(map[string]*domain.Project),
		tasks:      make(map[string]*domain.Task),
	}
}

func (s *stubStore) workspaceRepo() stubWorkspaceRepo { return stubWorkspaceRepo{s} }
func (s *stubStore) projectRepo() stubProjectRepo     { return stubProjectRepo{s} }
func (s *stubStore) taskRepo() stubTaskRepo           { return stubTaskRepo{s} }

func (s *stubStore) putWorkspace(ws *domain.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *ws
	c.MemberIDs = slices.Clone(ws.MemberIDs)
	s.workspaces[ws.ID] = &c
}

func (s *stubStore) putProject(p *domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.projects[p.ID] = &c
}

func (s *stubStore) putTask(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	s.tasks[t.ID] = &c
}

func (s *stubStore) project(id string) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.projects[id]
}

func (s *stubStore) taskCount(projectID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

type stubWorkspaceRepo struct{ s *stubStore }

func (r stubWorkspaceRepo) Create(_ context.Context, ws *domain.Workspace) error {
	r.s.putWorkspace(ws)
	return nil
}

func (r stubWorkspaceRepo) FindByID(_ context.Context, id string) (*domain.Workspace, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ws, ok := r.s.workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	c := *ws
	c.MemberIDs = slices.Clone(ws.MemberIDs)
	return &c, nil
}

func (r stubWorkspaceRepo) ListForUser(_ context.Context, userID string) ([]*domain.Workspace, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Workspace
	for _, ws := range r.s.workspaces {
		if ws.IsOwner(userID) || ws.HasMember(userID) {
			c := *ws
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r stubWorkspaceRepo) Rename(ctx context.Context, id, name string) (*domain.Workspace, error) {
	r.s.mu.Lock()
	ws, ok := r.s.workspaces[id]
	if ok {
		ws.Name = name
	}
	r.s.mu.Unlock()
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return r.FindByID(ctx, id)
}

func (r stubWorkspaceRepo) DeleteIfEmpty(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workspaces[id]; !ok {
		return domain.ErrWorkspaceNotFound
	}
	for _, p := range r.s.projects {
		if p.WorkspaceID == id {
			return domain.ErrWorkspaceNotEmpty
		}
	}
	delete(r.s.workspaces, id)
	return nil
}

func (r stubWorkspaceRepo) AddMember(_ context.Context, workspaceID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ws, ok := r.s.workspaces[workspaceID]
	if !ok {
		return domain.ErrWorkspaceNotFound
	}
	if ws.HasMember(userID) {
		return domain.ErrAlreadyMember
	}
	ws.MemberIDs = append(ws.MemberIDs, userID)
	return nil
}

func (r stubWorkspaceRepo) RemoveMember(_ context.Context, workspaceID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ws, ok := r.s.workspaces[workspaceID]
	if !ok {
		return domain.ErrWorkspaceNotFound
	}
	i := slices.Index(ws.MemberIDs, userID)
	if i < 0 {
		return domain.ErrNotMember
	}
	ws.MemberIDs = slices.Delete(ws.MemberIDs, i, i+1)
	return nil
}

type stubProjectRepo struct{ s *stubStore }

func (r stubProjectRepo) Create(_ context.Context, p *domain.Project) error {
	r.s.putProject(p)
	return nil
}

func (r stubProjectRepo) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	c := *p
	return &c, nil
}

func (r stubProjectRepo) ListByWorkspace(_ context.Context, workspaceID string) ([]*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Project
	for _, p := range r.s.projects {
		if p.WorkspaceID == workspaceID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r stubProjectRepo) Update(_ context.Context, id string, upd domain.ProjectUpdate) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	if upd.Budget != nil && upd.Budget.LessThan(p.Cost) {
		return nil, domain.ErrBudgetBelowCost
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Budget != nil {
		p.Budget = *upd.Budget
	}
	c := *p
	return &c, nil
}

func (r stubProjectRepo) DeleteIfEmpty(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tasks {
		if t.ProjectID == id {
			return domain.ErrProjectNotEmpty
		}
	}
	delete(r.s.projects, id)
	return nil
}

type stubTaskRepo struct{ s *stubStore }

func (r stubTaskRepo) CreateWithinBudget(_ context.Context, task *domain.Task) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[task.ProjectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	if !p.CanAfford(task.Cost) {
		return nil, domain.ErrOutOfBudget
	}
	p.Cost = p.Cost.Add(task.Cost)
	c := *task
	r.s.tasks[task.ID] = &c
	out := *p
	return &out, nil
}

func (r stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	c := *t
	return &c, nil
}

func (r stubTaskRepo) ListByProject(_ context.Context, projectID string) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Task
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r stubTaskRepo) Update(_ context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	c := *t
	return &c, nil
}

func (r stubTaskRepo) DeleteAndRelease(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	p := r.s.projects[t.ProjectID]
	p.Cost = p.Cost.Sub(t.Cost)
	delete(r.s.tasks, id)
	c := *p
	return &c, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *recordingSink) Publish(ev domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Action)
	}
	return out
}

func (s *recordingSink) has(action domain.AuditAction) bool {
	return slices.Contains(s.actions(), action)
}

func newEngine(sink *recordingSink) *policy.Engine {
	return policy.NewEngine(nil, sink, zerolog.Nop())
}

func principal(id string, role domain.Role) domain.Principal {
	return domain.Principal{UserID: id, Email: id + "@example.com", Role: role, Authorities: []string{role.Authority()}}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
