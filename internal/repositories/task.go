package repositories

import (
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
)

// TaskRepository handles database operations for tasks
type TaskRepository struct{}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{}
}

func (r *TaskRepository) Create(task *models.Task) error {
	return db.DB.Create(task).Error
}

func (r *TaskRepository) FindByID(id uint) (models.Task, error) {
	var task models.Task
	result := db.DB.First(&task, id)
	return task, result.Error
}

// FindInProject scopes the lookup to one project so a task id from another
// board cannot be reached through it.
func (r *TaskRepository) FindInProject(id, projectID uint) (models.Task, error) {
	var task models.Task
	result := db.DB.Where("id = ? AND project_id = ?", id, projectID).First(&task)
	return task, result.Error
}

// FindByProject returns the project's tasks in creation order with assignee
// summaries preloaded.
func (r *TaskRepository) FindByProject(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	result := db.DB.
		Preload("Assignee").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tasks)
	return tasks, result.Error
}

// Updates applies a partial column map and reloads the row with its assignee.
func (r *TaskRepository) Updates(task *models.Task, fields map[string]interface{}) error {
	if err := db.DB.Model(task).Updates(fields).Error; err != nil {
		return err
	}

	return db.DB.Preload("Assignee").First(task, task.ID).Error
}

// Reload refreshes the task with its assignee preloaded.
func (r *TaskRepository) Reload(task *models.Task) error {
	return db.DB.Preload("Assignee").First(task, task.ID).Error
}

func (r *TaskRepository) Delete(id uint) error {
	return db.DB.Unscoped().Delete(&models.Task{}, id).Error
}

func (r *TaskRepository) CountByProject(projectID uint) (int64, error) {
	var count int64
	err := db.DB.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}
