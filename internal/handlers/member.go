package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repositories"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"gorm.io/gorm"
)

const (
	RoleOwner  = "Owner"
	RoleMember = "Member"
)

type InviteRequest struct {
	Email string `json:"email"`
}

type MemberResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	ProjectID uint      `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ProjectUserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteMember resolves the invitee by email and adds a Member row.
// Owner-only.
func InviteMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body InviteRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	if body.Email == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email cannot be empty"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := repositories.NewProjectRepository().FindWithMembers(projectID)

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

	invitee, err := repositories.NewUserRepository().FindByEmail(body.Email)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to look up invitee: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if invitee.ID == project.OwnerID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User already a member"})
		return
	}

	memberRepo := repositories.NewMemberRepository()

	exists, err := memberRepo.Exists(invitee.ID, project.ID)

	if err != nil {
		log.Printf("Failed to check membership: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if exists {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User already a member"})
		return
	}

	member := models.Member{
		UserID:    invitee.ID,
		ProjectID: project.ID,
	}

	if err := memberRepo.Create(&member); err != nil {
		log.Printf("Failed to create member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, MemberResponse{
		ID:        member.ID,
		UserID:    member.UserID,
		ProjectID: member.ProjectID,
		CreatedAt: member.CreatedAt,
	})
}

// ListMembers returns the project's users with their roles, owner first.
// Owner or member.
func ListMembers(ctx *gin.Context) {
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

	project, err := repositories.NewProjectRepository().FindWithUsers(projectID)

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

	users := []ProjectUserResponse{
		{
			ID:    project.Owner.ID,
			Email: project.Owner.Email,
			Role:  RoleOwner,
		},
	}

	for _, member := range project.Members {
		users = append(users, ProjectUserResponse{
			ID:    member.User.ID,
			Email: member.User.Email,
			Role:  RoleMember,
		})
	}

	ctx.JSON(http.StatusOK, users)
}
