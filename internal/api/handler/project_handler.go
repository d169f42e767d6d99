package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workboard/workboard-api/internal/core/ports"
)

// ProjectHandler serves project routes.
type ProjectHandler struct {
	service ports.ProjectService
}

func NewProjectHandler(service ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// Create handles POST /workspaces/:id/projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Workspace ID"
// @Param        body  body      createProjectRequest  true  "Project"
// @Success      201   {object}  projectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /workspaces/{id}/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req createProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	budget, err := parseMoney("budget", req.Budget)
	if err != nil {
		return err
	}

	proj, err := h.service.Create(c.Request().Context(), p, ports.CreateProjectInput{
		WorkspaceID: c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Budget:      budget,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProjectResponse(proj))
}

// ListByWorkspace handles GET /workspaces/:id/projects.
//
// @Summary      List projects in a workspace
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {array}   projectResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /workspaces/{id}/projects [get]
func (h *ProjectHandler) ListByWorkspace(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListByWorkspace(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponses(items))
}

// Get handles GET /projects/:id.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  projectResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	proj, err := h.service.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(proj))
}

// Update handles PATCH /projects/:id. The budget may not drop below the
// current cost.
//
// @Summary      Update a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Project ID"
// @Param        body  body      updateProjectRequest  true  "Fields to change"
// @Success      200   {object}  projectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /projects/{id} [patch]
func (h *ProjectHandler) Update(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req updateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	upd, err := toProjectUpdate(req)
	if err != nil {
		return err
	}

	proj, err := h.service.Update(c.Request().Context(), p, c.Param("id"), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(proj))
}

// Delete handles DELETE /projects/:id. Rejected while tasks remain.
//
// @Summary      Delete a project
// @Tags         projects
// @Security     BearerAuth
// @Param        id   path  string  true  "Project ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
