package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTask adds a task to a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		ProjectID   string `json:"project_id" binding:"required"`
		AssigneeID  string `json:"assignee_id"`
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListProjectTasks returns the tasks of a project in creation order
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	tasks, err := h.taskService.ListTasksForProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// UpdateTaskStatus lets the assignee move a task through its lifecycle
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	type UpdateStatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ReassignTask moves a task to another participant; a null or empty assignee unassigns it
func (h *TaskHandler) ReassignTask(c *gin.Context) {
	type ReassignRequest struct {
		AssigneeID *string `json:"assignee_id"`
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	assigneeID := ""
	if req.AssigneeID != nil {
		assigneeID = *req.AssigneeID
	}

	task, err := h.taskService.ReassignTask(c.Request.Context(), actor, c.Param("id"), assigneeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// SuggestTasks generates task suggestions from text using AI
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	type SuggestTasksRequest struct {
		ProjectID string `json:"project_id" binding:"required"`
		Text      string `json:"text" binding:"required"`
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), actor, services.SuggestTasksInput{
		ProjectID: req.ProjectID,
		Text:      req.Text,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggestions,
	})
}
