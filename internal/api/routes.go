package api

import (
	"net/http"

	"github.com/workboard/workboard-api/internal/api/middleware"
	"github.com/workboard/workboard-api/internal/core/domain"
)

var (
	adminOnly = middleware.Roles(domain.RoleAdmin)
	anyRole   = middleware.Roles(domain.AllRoles...)
	readers   = middleware.Roles(domain.RoleWriteRead, domain.RoleReadOnly)
	writers   = middleware.Roles(domain.RoleWriteRead)
)

// RouteTable is the static role gate. Every mounted route must appear here;
// administrators manage accounts and do not reach resource routes.
func RouteTable() map[string]middleware.Rule {
	key := middleware.RouteKey
	return map[string]middleware.Rule{
		key(http.MethodGet, "/health"):       middleware.Public(),
		key(http.MethodGet, "/health/ready"): middleware.Public(),
		key(http.MethodGet, "/metrics"):      middleware.Public(),
		key(http.MethodGet, "/swagger/*"):    middleware.Public(),

		key(http.MethodPost, "/auth/login"):      middleware.Public(),
		key(http.MethodPost, "/auth/register"):   adminOnly,
		key(http.MethodGet, "/auth/me"):          anyRole,
		key(http.MethodGet, "/users"):            adminOnly,
		key(http.MethodPatch, "/users/:id/role"): adminOnly,

		key(http.MethodPost, "/workspaces"):       writers,
		key(http.MethodGet, "/workspaces"):        readers,
		key(http.MethodGet, "/workspaces/:id"):    readers,
		key(http.MethodPatch, "/workspaces/:id"):  writers,
		key(http.MethodDelete, "/workspaces/:id"): writers,

		key(http.MethodPost, "/workspaces/:id/members"):           writers,
		key(http.MethodGet, "/workspaces/:id/members"):            readers,
		key(http.MethodDelete, "/workspaces/:id/members/:userId"): writers,

		key(http.MethodPost, "/workspaces/:id/projects"): writers,
		key(http.MethodGet, "/workspaces/:id/projects"):  readers,
		key(http.MethodGet, "/projects/:id"):             readers,
		key(http.MethodPatch, "/projects/:id"):           writers,
		key(http.MethodDelete, "/projects/:id"):          writers,

		key(http.MethodPost, "/projects/:id/tasks"): writers,
		key(http.MethodGet, "/projects/:id/tasks"):  readers,
		key(http.MethodGet, "/tasks/:id"):           readers,
		key(http.MethodPatch, "/tasks/:id"):         writers,
		key(http.MethodDelete, "/tasks/:id"):        writers,
	}
}
