package repositories

import (
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) FindByID(id uint) (models.User, error) {
	var user models.User
	result := db.DB.First(&user, id)
	return user, result.Error
}

func (r *UserRepository) FindByEmail(email string) (models.User, error) {
	var user models.User
	result := db.DB.Where("email = ?", email).First(&user)
	return user, result.Error
}

func (r *UserRepository) Create(user *models.User) error {
	return db.DB.Create(user).Error
}
