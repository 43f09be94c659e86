package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repositories"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

type ProjectResponse struct {
	ID        uint                 `json:"id"`
	Name      string               `json:"name"`
	OwnerID   uint                 `json:"owner_id"`
	Owner     types.UserResponse   `json:"owner"`
	Members   []types.UserResponse `json:"members"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type ExportUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type ExportDocument struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Owner     ExportUser     `json:"owner"`
	Members   []ExportUser   `json:"members"`
	Tasks     []TaskResponse `json:"tasks"`
}

func newProjectResponse(project models.Project) ProjectResponse {
	members := make([]types.UserResponse, 0, len(project.Members))

	for _, member := range project.Members {
		members = append(members, types.UserResponse{
			ID:    member.User.ID,
			Name:  member.User.Name,
			Email: member.User.Email,
		})
	}

	return ProjectResponse{
		ID:      project.ID,
		Name:    project.Name,
		OwnerID: project.OwnerID,
		Owner: types.UserResponse{
			ID:    project.Owner.ID,
			Name:  project.Owner.Name,
			Email: project.Owner.Email,
		},
		Members:   members,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Project name is required"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:    body.Name,
		OwnerID: currentUser.ID,
	}

	if err := repositories.NewProjectRepository().Create(&project); err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	project.Owner = models.User{
		Model: gorm.Model{ID: currentUser.ID},
		Name:  currentUser.Name,
		Email: currentUser.Email,
	}

	ctx.JSON(http.StatusCreated, newProjectResponse(project))
}

// ListProjects returns every project the caller owns or was invited to.
func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projects, err := repositories.NewProjectRepository().FindAccessible(userID)

	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response = append(response, newProjectResponse(project))
	}

	ctx.JSON(http.StatusOK, response)
}

// DeleteProject is owner-only. A project that does not exist and a project the
// caller cannot manage both come back Forbidden so callers cannot probe for
// project ids.
func DeleteProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectRepo := repositories.NewProjectRepository()

	project, err := projectRepo.FindWithMembers(projectID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		} else {
			log.Printf("Failed to retrieve project: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	if !authz.CanManage(userID, project) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := projectRepo.Delete(project.ID); err != nil {
		log.Printf("Failed to delete project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// ExportProject streams the full project graph as a downloadable JSON
// document. Owner or member.
func ExportProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := repositories.NewProjectRepository().FindGraph(projectID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		} else {
			log.Printf("Failed to retrieve project: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	if !authz.CanAccess(userID, project) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	document := ExportDocument{
		ID:        project.ID,
		Name:      project.Name,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
		Owner: ExportUser{
			ID:    project.Owner.ID,
			Email: project.Owner.Email,
		},
		Members: make([]ExportUser, 0, len(project.Members)),
		Tasks:   make([]TaskResponse, 0, len(project.Tasks)),
	}

	for _, member := range project.Members {
		document.Members = append(document.Members, ExportUser{
			ID:    member.User.ID,
			Email: member.User.Email,
		})
	}

	for _, task := range project.Tasks {
		document.Tasks = append(document.Tasks, newTaskResponse(task))
	}

	payload, err := json.MarshalIndent(document, "", "  ")

	if err != nil {
		log.Printf("Failed to marshal export for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export project"})
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("project-%d.json", project.ID)))
	ctx.Data(http.StatusOK, "application/json", payload)
}
