// Package policy implements the resource-level access gate. Every domain
// service loads the target resource first, then asks the Engine whether the
// current principal may perform an action on it.
//
// Decisions are driven by a fixed table mapping (resource, action) to the set
// of relations that grant it. A principal's relations to a resource are
// derived only from ownership and membership fields, never from its role.
package policy

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// Resource names the kind of object being accessed.
type Resource string

const (
	ResourceWorkspace Resource = "workspace"
	ResourceProject   Resource = "project"
	ResourceTask      Resource = "task"
)

// Action is an operation requested on a resource.
type Action string

const (
	ActionRead          Action = "read"
	ActionContribute    Action = "contribute"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
)

// verbs are used in denial messages.
var verbs = map[Action]string{
	ActionRead:          "access",
	ActionContribute:    "add items to",
	ActionUpdate:        "modify",
	ActionDelete:        "delete",
	ActionManageMembers: "manage members of",
}

// Relation is a bit set describing how a principal relates to a resource.
type Relation uint8

const (
	RelOwner Relation = 1 << iota
	RelProjectOwner
	RelWorkspaceOwner
	RelWorkspaceMember
)

// Has reports whether any bit of want is present in r.
func (r Relation) Has(want Relation) bool {
	return r&want != 0
}

// Table lists, per resource and action, the relations that grant access.
// Missing entries deny.
type Table map[Resource]map[Action]Relation

// DefaultTable is the access policy of the API.
//
// Workspace members can read everything inside the workspace and create their
// own projects. Only owners (of the resource, or of the enclosing workspace)
// may change or remove things.
var DefaultTable = Table{
	ResourceWorkspace: {
		ActionRead:          RelWorkspaceOwner | RelWorkspaceMember,
		ActionContribute:    RelWorkspaceOwner | RelWorkspaceMember,
		ActionUpdate:        RelWorkspaceOwner,
		ActionDelete:        RelWorkspaceOwner,
		ActionManageMembers: RelWorkspaceOwner,
	},
	ResourceProject: {
		ActionRead:       RelOwner | RelWorkspaceOwner | RelWorkspaceMember,
		ActionContribute: RelOwner | RelWorkspaceOwner,
		ActionUpdate:     RelOwner | RelWorkspaceOwner,
		ActionDelete:     RelOwner | RelWorkspaceOwner,
	},
	ResourceTask: {
		ActionRead:   RelOwner | RelProjectOwner | RelWorkspaceOwner | RelWorkspaceMember,
		ActionUpdate: RelOwner | RelProjectOwner | RelWorkspaceOwner,
		ActionDelete: RelOwner | RelProjectOwner | RelWorkspaceOwner,
	},
}

// Engine evaluates the policy table.
type Engine struct {
	table Table
	audit ports.AuditSink
	log   zerolog.Logger
	now   func() time.Time
}

// NewEngine returns an Engine over table. audit may be nil.
func NewEngine(table Table, audit ports.AuditSink, log zerolog.Logger) *Engine {
	if table == nil {
		table = DefaultTable
	}
	return &Engine{table: table, audit: audit, log: log, now: time.Now}
}

// WorkspaceRelations derives the principal's relations to ws.
func WorkspaceRelations(p domain.Principal, ws *domain.Workspace) Relation {
	var rel Relation
	if ws == nil {
		return rel
	}
	if ws.IsOwner(p.UserID) {
		rel |= RelWorkspaceOwner
	}
	if ws.HasMember(p.UserID) {
		rel |= RelWorkspaceMember
	}
	return rel
}

// Allowed reports whether rel grants action on resource.
func (e *Engine) Allowed(resource Resource, action Action, rel Relation) bool {
	grants, ok := e.table[resource][action]
	if !ok {
		return false
	}
	return rel.Has(grants)
}

// Workspace authorizes action on ws.
func (e *Engine) Workspace(p domain.Principal, ws *domain.Workspace, action Action) error {
	return e.decide(p, ResourceWorkspace, ws.ID, action, WorkspaceRelations(p, ws))
}

// Project authorizes action on proj, which lives in ws.
func (e *Engine) Project(p domain.Principal, proj *domain.Project, ws *domain.Workspace, action Action) error {
	rel := WorkspaceRelations(p, ws)
	if proj.OwnerID == p.UserID {
		rel |= RelOwner
	}
	return e.decide(p, ResourceProject, proj.ID, action, rel)
}

// Task authorizes action on task, which lives in proj inside ws.
func (e *Engine) Task(p domain.Principal, task *domain.Task, proj *domain.Project, ws *domain.Workspace, action Action) error {
	rel := WorkspaceRelations(p, ws)
	if proj != nil && proj.OwnerID == p.UserID {
		rel |= RelProjectOwner
	}
	if task.OwnerID == p.UserID {
		rel |= RelOwner
	}
	return e.decide(p, ResourceTask, task.ID, action, rel)
}

func (e *Engine) decide(p domain.Principal, resource Resource, id string, action Action, rel Relation) error {
	if p.UserID != "" && e.Allowed(resource, action, rel) {
		return nil
	}

	e.log.Info().
		Str("user_id", p.UserID).
		Str("resource", string(resource)).
		Str("resource_id", id).
		Str("action", string(action)).
		Msg("access denied")

	if e.audit != nil {
		e.audit.Publish(domain.AuditEvent{
			ActorID:    p.UserID,
			Action:     domain.AuditAccessDenied,
			Resource:   string(resource),
			ResourceID: id,
			Details:    map[string]string{"action": string(action)},
			OccurredAt: e.now().UTC(),
		})
	}

	return &domain.AccessDeniedError{Resource: string(resource), Action: verbs[action]}
}
