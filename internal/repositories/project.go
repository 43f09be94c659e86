package repositories

import (
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct{}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{}
}

func (r *ProjectRepository) Create(project *models.Project) error {
	return db.DB.Create(project).Error
}

// FindWithMembers loads a project with its member rows, enough for the
// authorization predicates.
func (r *ProjectRepository) FindWithMembers(id uint) (models.Project, error) {
	var project models.Project
	result := db.DB.Preload("Members").First(&project, id)
	return project, result.Error
}

// FindAccessible returns every project the user owns or belongs to, newest
// first, with owner and member users embedded.
func (r *ProjectRepository) FindAccessible(userID uint) ([]models.Project, error) {
	var projects []models.Project
	result := db.DB.
		Preload("Owner").
		Preload("Members.User").
		Where("owner_id = ? OR id IN (?)",
			userID,
			db.DB.Model(&models.Member{}).Select("project_id").Where("user_id = ?", userID),
		).
		Order("created_at DESC").
		Find(&projects)
	return projects, result.Error
}

// FindWithUsers loads a project with owner and member users embedded, for
// the members listing.
func (r *ProjectRepository) FindWithUsers(id uint) (models.Project, error) {
	var project models.Project
	result := db.DB.
		Preload("Owner").
		Preload("Members.User").
		First(&project, id)
	return project, result.Error
}

// FindGraph loads the full project graph (owner, member users, tasks with
// assignees) for the export document.
func (r *ProjectRepository) FindGraph(id uint) (models.Project, error) {
	var project models.Project
	result := db.DB.
		Preload("Owner").
		Preload("Members.User").
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("tasks.created_at ASC")
		}).
		Preload("Tasks.Assignee").
		First(&project, id)
	return project, result.Error
}

// Delete removes the project and everything under it. Members and tasks go
// first so a partial failure cannot leave orphaned rows.
func (r *ProjectRepository) Delete(id uint) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&models.Member{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.Project{}, id).Error
	})
}
