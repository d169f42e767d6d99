package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/workboard/workboard-api/docs"
	"github.com/workboard/workboard-api/internal/api/handler"
	"github.com/workboard/workboard-api/internal/api/middleware"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// Services groups the domain services mounted by the router.
type Services struct {
	Auth       ports.AuthService
	Users      ports.UserService
	Workspaces ports.WorkspaceService
	Members    ports.MemberService
	Projects   ports.ProjectService
	Tasks      ports.TaskService
}

// Deps is everything NewRouter needs. Registerer and Gatherer default to the
// global Prometheus registry; Audit may be nil.
type Deps struct {
	Tokens         ports.TokenCodec
	Resolver       ports.PrincipalResolver
	Services       Services
	Audit          ports.AuditSink
	Checkers       []handler.Checker
	RequestTimeout time.Duration
	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "workboard",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	if d.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeoutWithConfig(echomiddleware.ContextTimeoutConfig{
			Timeout: d.RequestTimeout,
		}))
	}
	e.Use(middleware.Authenticate(d.Tokens, d.Resolver, d.Log))

	r := router{e: e, gate: middleware.NewRouteGate(RouteTable(), d.Audit, d.Log)}

	// --- Probes and tooling (public) ---
	health := handler.NewHealthHandler(d.Checkers...)
	r.add(http.MethodGet, "/health", health.Liveness)
	r.add(http.MethodGet, "/health/ready", health.Readiness)
	r.add(http.MethodGet, "/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	r.add(http.MethodGet, "/swagger/*", echoSwagger.WrapHandler)

	// --- Auth and accounts ---
	auth := handler.NewAuthHandler(d.Services.Auth)
	users := handler.NewUserHandler(d.Services.Users)
	r.add(http.MethodPost, "/auth/login", auth.Login)
	r.add(http.MethodPost, "/auth/register", auth.Register)
	r.add(http.MethodGet, "/auth/me", auth.Me)
	r.add(http.MethodGet, "/users", users.List)
	r.add(http.MethodPatch, "/users/:id/role", users.ChangeRole)

	// --- Workspaces and members ---
	ws := handler.NewWorkspaceHandler(d.Services.Workspaces, d.Services.Members)
	r.add(http.MethodPost, "/workspaces", ws.Create)
	r.add(http.MethodGet, "/workspaces", ws.List)
	r.add(http.MethodGet, "/workspaces/:id", ws.Get)
	r.add(http.MethodPatch, "/workspaces/:id", ws.Rename)
	r.add(http.MethodDelete, "/workspaces/:id", ws.Delete)
	r.add(http.MethodPost, "/workspaces/:id/members", ws.AddMember)
	r.add(http.MethodGet, "/workspaces/:id/members", ws.ListMembers)
	r.add(http.MethodDelete, "/workspaces/:id/members/:userId", ws.RemoveMember)

	// --- Projects ---
	projects := handler.NewProjectHandler(d.Services.Projects)
	r.add(http.MethodPost, "/workspaces/:id/projects", projects.Create)
	r.add(http.MethodGet, "/workspaces/:id/projects", projects.ListByWorkspace)
	r.add(http.MethodGet, "/projects/:id", projects.Get)
	r.add(http.MethodPatch, "/projects/:id", projects.Update)
	r.add(http.MethodDelete, "/projects/:id", projects.Delete)

	// --- Tasks ---
	tasks := handler.NewTaskHandler(d.Services.Tasks)
	r.add(http.MethodPost, "/projects/:id/tasks", tasks.Create)
	r.add(http.MethodGet, "/projects/:id/tasks", tasks.ListByProject)
	r.add(http.MethodGet, "/tasks/:id", tasks.Get)
	r.add(http.MethodPatch, "/tasks/:id", tasks.Update)
	r.add(http.MethodDelete, "/tasks/:id", tasks.Delete)

	return e
}

// router mounts each handler behind its route-gate entry.
type router struct {
	e    *echo.Echo
	gate *middleware.RouteGate
}

func (r router) add(method, path string, h echo.HandlerFunc) {
	r.e.Add(method, path, h, r.gate.For(method, path))
}
