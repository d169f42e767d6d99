package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workboard/workboard-api/internal/core/ports"
)

// WorkspaceHandler serves workspace and membership routes.
type WorkspaceHandler struct {
	workspaces ports.WorkspaceService
	members    ports.MemberService
}

func NewWorkspaceHandler(workspaces ports.WorkspaceService, members ports.MemberService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, members: members}
}

// Create handles POST /workspaces. The caller becomes the owner.
//
// @Summary      Create a workspace
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      workspaceRequest  true  "Workspace"
// @Success      201   {object}  workspaceResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /workspaces [post]
func (h *WorkspaceHandler) Create(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req workspaceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ws, err := h.workspaces.Create(c.Request().Context(), p, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toWorkspaceResponse(ws))
}

// List handles GET /workspaces: those the caller owns or belongs to.
//
// @Summary      List workspaces
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   workspaceResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /workspaces [get]
func (h *WorkspaceHandler) List(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	items, err := h.workspaces.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWorkspaceResponses(items))
}

// Get handles GET /workspaces/:id.
//
// @Summary      Get a workspace
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  workspaceResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /workspaces/{id} [get]
func (h *WorkspaceHandler) Get(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	ws, err := h.workspaces.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWorkspaceResponse(ws))
}

// Rename handles PATCH /workspaces/:id. Owner only.
//
// @Summary      Rename a workspace
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Workspace ID"
// @Param        body  body      workspaceRequest  true  "New name"
// @Success      200   {object}  workspaceResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /workspaces/{id} [patch]
func (h *WorkspaceHandler) Rename(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req workspaceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ws, err := h.workspaces.Rename(c.Request().Context(), p, c.Param("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWorkspaceResponse(ws))
}

// Delete handles DELETE /workspaces/:id. Rejected while projects remain.
//
// @Summary      Delete a workspace
// @Tags         workspaces
// @Security     BearerAuth
// @Param        id   path  string  true  "Workspace ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /workspaces/{id} [delete]
func (h *WorkspaceHandler) Delete(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.workspaces.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddMember handles POST /workspaces/:id/members.
//
// @Summary      Add a workspace member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Workspace ID"
// @Param        body  body      addMemberRequest  true  "Member email"
// @Success      201   {object}  workspaceResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /workspaces/{id}/members [post]
func (h *WorkspaceHandler) AddMember(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req addMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ws, err := h.members.Add(c.Request().Context(), p, c.Param("id"), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toWorkspaceResponse(ws))
}

// ListMembers handles GET /workspaces/:id/members.
//
// @Summary      List workspace members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {array}   domain.UserSummary
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /workspaces/{id}/members [get]
func (h *WorkspaceHandler) ListMembers(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	members, err := h.members.List(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

// RemoveMember handles DELETE /workspaces/:id/members/:userId. Members may
// remove themselves; anyone else needs the owner.
//
// @Summary      Remove a workspace member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Workspace ID"
// @Param        userId  path      string  true  "Member user ID"
// @Success      200     {object}  workspaceResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /workspaces/{id}/members/{userId} [delete]
func (h *WorkspaceHandler) RemoveMember(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	ws, err := h.members.Remove(c.Request().Context(), p, c.Param("id"), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWorkspaceResponse(ws))
}
