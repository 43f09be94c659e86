package models

import "gorm.io/gorm"

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
)

// ValidTaskStatus reports whether s is one of the fixed workflow states.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type Task struct {
	gorm.Model

	ProjectID   uint   `gorm:"not null;index"` // never changes after creation
	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:'todo'"`
	AssigneeID  *uint  `gorm:"index"`

	// Relationships
	Project  Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User   `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
