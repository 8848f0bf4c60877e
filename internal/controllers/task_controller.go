package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard-be/internal/apperr"
	"taskboard-be/internal/middleware"
	"taskboard-be/internal/models"
	"taskboard-be/internal/service"
)

// errNoCaller means a protected handler was mounted without the auth middleware.
var errNoCaller = apperr.Unauthorized("Please authenticate using a valid token")

type TaskController struct {
	taskService service.TaskService
}

func NewTaskController(taskService service.TaskService) *TaskController {
	RegisterValidators()
	return &TaskController{
		taskService: taskService,
	}
}

// ListTasks handles GET /tasks
func (tc *TaskController) ListTasks(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		respondError(c, errNoCaller)
		return
	}

	tasks, err := tc.taskService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// CreateTask handles POST /tasks
func (tc *TaskController) CreateTask(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		respondError(c, errNoCaller)
		return
	}

	var req models.CreateTaskRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	task, err := tc.taskService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PUT /tasks/:id - applies only the fields present in the body
func (tc *TaskController) UpdateTask(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		respondError(c, errNoCaller)
		return
	}

	var patch models.TaskPatch
	if err := bindJSON(c, &patch, true); err != nil {
		respondError(c, err)
		return
	}

	task, err := tc.taskService.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/:id
func (tc *TaskController) DeleteTask(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		respondError(c, errNoCaller)
		return
	}

	if err := tc.taskService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": "Task has been deleted",
	})
}
