package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workboard/workboard-api/internal/core/domain"
	"github.com/workboard/workboard-api/internal/core/ports"
)

// TaskHandler serves task routes.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create handles POST /projects/:id/tasks. The cost is charged to the
// project only if it fits the remaining budget.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Project ID"
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  taskChangeResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /projects/{id}/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cost, err := parseMoney("cost", req.Cost)
	if err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), p, ports.CreateTaskInput{
		ProjectID:   c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Cost:        cost,
	})
	if err != nil {
		return err
	}

	task := toTaskResponse(res.Task)
	return c.JSON(http.StatusCreated, taskChangeResponse{Task: &task, Project: toProjectResponse(res.Project)})
}

// ListByProject handles GET /projects/:id/tasks.
//
// @Summary      List tasks in a project
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {array}   taskResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /projects/{id}/tasks [get]
func (h *TaskHandler) ListByProject(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListByProject(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponses(items))
}

// Get handles GET /tasks/:id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  taskResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	task, err := h.service.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Update handles PATCH /tasks/:id. Cost is fixed at creation.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), p, c.Param("id"), domain.TaskUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete handles DELETE /tasks/:id and returns the project with the task
// cost released.
//
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  taskChangeResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	proj, err := h.service.Delete(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskChangeResponse{Project: toProjectResponse(proj)})
}
