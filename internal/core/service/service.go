package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/policy"
	"github.com/workboard/workboard-api/internal/core/ports"
)

var tracer = otel.Tracer("github.com/workboard/workboard-api/internal/core/service")

const maxNameLength = 120

// AccessPolicy is the resource-level gate consulted after a resource is loaded.
type AccessPolicy interface {
	Workspace(p domain.Principal, ws *domain.Workspace, action policy.Action) error
	Project(p domain.Principal, proj *domain.Project, ws *domain.Workspace, action policy.Action) error
	Task(p domain.Principal, task *domain.Task, proj *domain.Project, ws *domain.Workspace, action policy.Action) error
}

func newID() string {
	return uuid.NewString()
}

func startSpan(ctx context.Context, name string, actor domain.Principal, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("workboard.user_id", actor.UserID))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func validName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError(field, field+" is required")
	}
	if len(name) > maxNameLength {
		return "", domain.NewValidationError(field, fmt.Sprintf("%s must be at most %d characters", field, maxNameLength))
	}
	return name, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// publish hands ev to sink when one is configured.
func publish(sink ports.AuditSink, ev domain.AuditEvent) {
	if sink == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	sink.Publish(ev)
}

// loadProjectScope fetches a project with its enclosing workspace.
func loadProjectScope(ctx context.Context, projects ports.ProjectRepository, workspaces ports.WorkspaceRepository, projectID string) (*domain.Project, *domain.Workspace, error) {
	proj, err := projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	ws, err := workspaces.FindByID(ctx, proj.WorkspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return nil, nil, fmt.Errorf("project %s references a missing workspace: %w", proj.ID, err)
		}
		return nil, nil, err
	}
	return proj, ws, nil
}
