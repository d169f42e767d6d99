// Package memory is a process-local implementation of the repository ports.
// It backs the "memory" store driver used for development and tests. All
// repositories share one lock so multi-record updates are atomic.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// Store holds every collection behind a single RWMutex.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	emails     map[string]string
	workspaces map[string]*domain.Workspace
	projects   map[string]*domain.Project
	tasks      map[string]*domain.Task
	audit      []domain.AuditEvent
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]*domain.User),
		emails:     make(map[string]string),
		workspaces: make(map[string]*domain.Workspace),
		projects:   make(map[string]*domain.Project),
		tasks:      make(map[string]*domain.Task),
	}
}

func (s *Store) Users() ports.UserRepository           { return userRepo{s} }
func (s *Store) Workspaces() ports.WorkspaceRepository { return workspaceRepo{s} }
func (s *Store) Projects() ports.ProjectRepository     { return projectRepo{s} }
func (s *Store) Tasks() ports.TaskRepository           { return taskRepo{s} }
func (s *Store) Audit() ports.AuditRepository          { return auditRepo{s} }

// Ping always succeeds; it satisfies the readiness checker signature.
func (s *Store) Ping(context.Context) error { return nil }

// AuditEvents returns a copy of the stored audit trail, oldest first.
func (s *Store) AuditEvents() []domain.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyWorkspace(ws *domain.Workspace) *domain.Workspace {
	c := *ws
	c.MemberIDs = slices.Clone(ws.MemberIDs)
	if c.MemberIDs == nil {
		c.MemberIDs = []string{}
	}
	return &c
}

func copyProject(p *domain.Project) *domain.Project {
	c := *p
	return &c
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	return &c
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, taken := r.s.emails[key]; taken {
		return domain.ErrUserExists
	}
	r.s.users[user.ID] = copyUser(user)
	r.s.emails[key] = user.ID
	return nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(r.s.users[id]), nil
}

func (r userRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r userRepo) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r userRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = now()
	return copyUser(u), nil
}

type workspaceRepo struct{ s *Store }

func (r workspaceRepo) Create(_ context.Context, ws *domain.Workspace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.workspaces[ws.ID] = copyWorkspace(ws)
	return nil
}

func (r workspaceRepo) FindByID(_ context.Context, id string) (*domain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ws, ok := r.s.workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return copyWorkspace(ws), nil
}

func (r workspaceRepo) ListForUser(_ context.Context, userID string) ([]*domain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Workspace{}
	for _, ws := range r.s.workspaces {
		if ws.IsOwner(userID) || ws.HasMember(userID) {
			out = append(out, copyWorkspace(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r workspaceRepo) Rename(_ context.Context, id, name string) (*domain.Workspace, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ws, ok := r.s.workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	ws.Name = name
	ws.UpdatedAt = now()
	return copyWorkspace(ws), nil
}

func (r workspaceRepo) DeleteIfEmpty(_ context.Context, id string) error {
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

func (r workspaceRepo) AddMember(_ context.Context, workspaceID, userID string) error {
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
	ws.UpdatedAt = now()
	return nil
}

func (r workspaceRepo) RemoveMember(_ context.Context, workspaceID, userID string) error {
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
	ws.UpdatedAt = now()
	return nil
}

type projectRepo struct{ s *Store }

func (r projectRepo) Create(_ context.Context, p *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workspaces[p.WorkspaceID]; !ok {
		return domain.ErrWorkspaceNotFound
	}
	r.s.projects[p.ID] = copyProject(p)
	return nil
}

func (r projectRepo) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return copyProject(p), nil
}

func (r projectRepo) ListByWorkspace(_ context.Context, workspaceID string) ([]*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Project{}
	for _, p := range r.s.projects {
		if p.WorkspaceID == workspaceID {
			out = append(out, copyProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r projectRepo) Update(_ context.Context, id string, upd domain.ProjectUpdate) (*domain.Project, error) {
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
	p.UpdatedAt = now()
	return copyProject(p), nil
}

func (r projectRepo) DeleteIfEmpty(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	for _, t := range r.s.tasks {
		if t.ProjectID == id {
			return domain.ErrProjectNotEmpty
		}
	}
	delete(r.s.projects, id)
	return nil
}

type taskRepo struct{ s *Store }

// CreateWithinBudget checks and charges the budget under the write lock, so
// the check always sees the latest cost.
func (r taskRepo) CreateWithinBudget(_ context.Context, task *domain.Task) (*domain.Project, error) {
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
	p.UpdatedAt = now()
	r.s.tasks[task.ID] = copyTask(task)
	return copyProject(p), nil
}

func (r taskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (r taskRepo) ListByProject(_ context.Context, projectID string) ([]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Task{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r taskRepo) Update(_ context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
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
	t.UpdatedAt = now()
	return copyTask(t), nil
}

func (r taskRepo) DeleteAndRelease(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	p, ok := r.s.projects[t.ProjectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	p.Cost = p.Cost.Sub(t.Cost)
	p.UpdatedAt = now()
	delete(r.s.tasks, id)
	return copyProject(p), nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Insert(_ context.Context, ev *domain.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *ev)
	return nil
}
