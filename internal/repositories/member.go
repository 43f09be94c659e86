package repositories

import (
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
)

// MemberRepository handles database operations for project memberships
type MemberRepository struct{}

func NewMemberRepository() *MemberRepository {
	return &MemberRepository{}
}

func (r *MemberRepository) Create(member *models.Member) error {
	return db.DB.Create(member).Error
}

func (r *MemberRepository) Exists(userID, projectID uint) (bool, error) {
	var count int64
	err := db.DB.Model(&models.Member{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *MemberRepository) CountByProject(projectID uint) (int64, error) {
	var count int64
	err := db.DB.Model(&models.Member{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}
