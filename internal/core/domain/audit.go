package domain

import "time"

// AuditAction names a security-relevant event.
type AuditAction string

const (
	AuditLoginSucceeded  AuditAction = "login_succeeded"
	AuditLoginFailed     AuditAction = "login_failed"
	AuditUserRegistered  AuditAction = "user_registered"
	AuditRoleChanged     AuditAction = "role_changed"
	AuditAccessDenied    AuditAction = "access_denied"
	AuditBudgetRejected  AuditAction = "budget_rejected"
	AuditMemberAdded     AuditAction = "member_added"
	AuditMemberRemoved   AuditAction = "member_removed"
	AuditWorkspaceDelete AuditAction = "workspace_deleted"
)

// AuditEvent records who did what to which resource.
type AuditEvent struct {
	ID         string            `json:"id" bson:"_id"`
	ActorID    string            `json:"actor_id" bson:"actor_id"`
	Action     AuditAction       `json:"action" bson:"action"`
	Resource   string            `json:"resource" bson:"resource"`
	ResourceID string            `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Details    map[string]string `json:"details,omitempty" bson:"details,omitempty"`
	OccurredAt time.Time         `json:"occurred_at" bson:"occurred_at"`
}
