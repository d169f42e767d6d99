package middleware

import (
	"fmt"
	"slices"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/workboard/workboard-api/internal/api/metrics"
	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// Rule is the static requirement of one route. A public route skips the gate;
// otherwise the principal's role must be listed in Roles.
type Rule struct {
	Public bool
	Roles  []domain.Role
}

// Public marks a route that needs no principal.
func Public() Rule {
	return Rule{Public: true}
}

// Roles requires one of roles.
func Roles(roles ...domain.Role) Rule {
	return Rule{Roles: roles}
}

// RouteKey identifies a route in a gate table.
func RouteKey(method, path string) string {
	return method + " " + path
}

// RouteGate enforces role-based access per route. The table is fixed at
// construction and a route without an entry cannot be registered.
type RouteGate struct {
	rules map[string]Rule
	audit ports.AuditSink
	log   zerolog.Logger
}

// NewRouteGate copies rules, keyed by RouteKey. audit may be nil.
func NewRouteGate(rules map[string]Rule, audit ports.AuditSink, log zerolog.Logger) *RouteGate {
	copied := make(map[string]Rule, len(rules))
	for k, r := range rules {
		copied[k] = Rule{Public: r.Public, Roles: slices.Clone(r.Roles)}
	}
	return &RouteGate{rules: copied, audit: audit, log: log}
}

// Routes lists the table keys in sorted order.
func (g *RouteGate) Routes() []string {
	keys := make([]string, 0, len(g.rules))
	for k := range g.rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// For returns the gate for one route. It panics when the route has no rule so
// a handler can never be mounted without a decision.
func (g *RouteGate) For(method, path string) echo.MiddlewareFunc {
	rule, ok := g.rules[RouteKey(method, path)]
	if !ok {
		panic(fmt.Sprintf("route gate: no rule for %s %s", method, path))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if rule.Public {
			return next
		}
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if !p.HasRole(rule.Roles...) {
				g.deny(p, method, path)
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

func (g *RouteGate) deny(p *domain.Principal, method, path string) {
	metrics.AccessDeniedTotal.WithLabelValues("route").Inc()
	g.log.Info().
		Str("user_id", p.UserID).
		Str("role", string(p.Role)).
		Str("route", RouteKey(method, path)).
		Msg("route access denied")
	if g.audit != nil {
		g.audit.Publish(domain.AuditEvent{
			ActorID:  p.UserID,
			Action:   domain.AuditAccessDenied,
			Resource: "route",
			Details: map[string]string{
				"method": method,
				"path":   path,
				"role":   string(p.Role),
			},
		})
	}
}
