package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/repositories"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	AssigneeID  *uint  `json:"assignee_id"`
}

// UpdateTaskRequest carries the original board's partial-update semantics:
// title/description/status apply only when non-empty, so callers cannot clear
// them through this path. Only assignee_id is keyed on presence and may be
// explicitly nulled.
type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AssigneeID  *uint  `json:"assignee_id"`
}

type TaskResponse struct {
	ID          uint                `json:"id"`
	ProjectID   uint                `json:"project_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	AssigneeID  *uint               `json:"assignee_id"`
	Assignee    *types.UserResponse `json:"assignee"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Realtime payload shapes, one per event.
type TaskCreatedPayload struct {
	NewTask TaskResponse `json:"newTask"`
}

type TaskUpdatedPayload struct {
	TaskID      uint         `json:"taskId"`
	UpdatedTask TaskResponse `json:"updatedTask"`
}

type TaskDeletedPayload struct {
	TaskID uint `json:"taskId"`
}

func newTaskResponse(task models.Task) TaskResponse {
	response := TaskResponse{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		AssigneeID:  task.AssigneeID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.Assignee != nil {
		response.Assignee = &types.UserResponse{
			ID:    task.Assignee.ID,
			Name:  task.Assignee.Name,
			Email: task.Assignee.Email,
		}
	}

	return response
}

// requireProjectAccess loads the project with its members and enforces the
// owner-or-member predicate. A missing project and an inaccessible one both
// answer Forbidden. Writes the error response itself when ok is false.
func requireProjectAccess(ctx *gin.Context) (models.Project, uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Project{}, 0, false
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Project{}, 0, false
	}

	project, err := repositories.NewProjectRepository().FindWithMembers(projectID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		} else {
			log.Printf("Failed to retrieve project: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return models.Project{}, 0, false
	}

	if !authz.CanAccess(userID, project) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return models.Project{}, 0, false
	}

	return project, userID, true
}

// ListTasks returns the project's tasks in creation order. Owner or member.
func ListTasks(ctx *gin.Context) {
	project, _, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	tasks, err := repositories.NewTaskRepository().FindByProject(project.ID)

	if err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, newTaskResponse(task))
	}

	ctx.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	ctx.JSON(http.StatusOK, response)
}

// CreateTask adds a task to the board. Any project member may create; the
// assignee defaults to the creator and must be the owner or a current member.
func CreateTask(ctx *gin.Context) {
	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	project, userID, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	assigneeID := userID

	if req.AssigneeID != nil {
		if !authz.ValidAssignee(*req.AssigneeID, project) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee"})
			return
		}
		assigneeID = *req.AssigneeID
	}

	task := models.Task{
		ProjectID:   project.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusTodo,
		AssigneeID:  &assigneeID,
	}

	taskRepo := repositories.NewTaskRepository()

	if err := taskRepo.Create(&task); err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if err := taskRepo.Reload(&task); err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	response := newTaskResponse(task)

	realtime.Broadcast(project.ID, realtime.EventTaskCreated, TaskCreatedPayload{NewTask: response})

	ctx.JSON(http.StatusCreated, response)
}

// GetTask is the direct-fetch path: any authenticated user with the id gets
// the task or a 404. No project access check here, matching the board's
// original contract.
func GetTask(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := repositories.NewTaskRepository().FindByID(taskID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	ctx.JSON(http.StatusOK, newTaskResponse(task))
}

// UpdateTask applies a partial update. assignee_id is detected by key
// presence in the raw body so an explicit null clears the assignment.
func UpdateTask(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var req UpdateTaskRequest

	if err := json.Unmarshal(body, &req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var rawFields map[string]json.RawMessage

	if err := json.Unmarshal(body, &rawFields); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, _, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskRepo := repositories.NewTaskRepository()

	task, err := taskRepo.FindInProject(taskID, project.ID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	updates := make(map[string]interface{})

	if req.Title != "" {
		updates["title"] = req.Title
	}

	if req.Description != "" {
		updates["description"] = req.Description
	}

	if req.Status != "" {
		if !models.ValidTaskStatus(req.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		updates["status"] = req.Status
	}

	if _, present := rawFields["assignee_id"]; present {
		if req.AssigneeID != nil && !authz.ValidAssignee(*req.AssigneeID, project) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee"})
			return
		}
		updates["assignee_id"] = req.AssigneeID
	}

	if len(updates) > 0 {
		if err := taskRepo.Updates(&task, updates); err != nil {
			log.Printf("Failed to update task %d: %v", task.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
			return
		}
	} else if err := taskRepo.Reload(&task); err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	response := newTaskResponse(task)

	realtime.Broadcast(project.ID, realtime.EventTaskUpdated, TaskUpdatedPayload{
		TaskID:      task.ID,
		UpdatedTask: response,
	})

	ctx.JSON(http.StatusOK, response)
}

// DeleteTask removes the task. Any project member.
func DeleteTask(ctx *gin.Context) {
	project, _, ok := requireProjectAccess(ctx)

	if !ok {
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskRepo := repositories.NewTaskRepository()

	task, err := taskRepo.FindInProject(taskID, project.ID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if err := taskRepo.Delete(task.ID); err != nil {
		log.Printf("Failed to delete task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	realtime.Broadcast(project.ID, realtime.EventTaskDeleted, TaskDeletedPayload{TaskID: task.ID})

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
