package models

import "gorm.io/gorm"

// Member links a User to a Project without ownership rights.
// Unique per (user_id, project_id) so duplicate invites fail at the database
// even if the handler-level check races.
type Member struct {
	gorm.Model

	UserID    uint `gorm:"not null;uniqueIndex:idx_member_user_project"`
	ProjectID uint `gorm:"not null;uniqueIndex:idx_member_user_project"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
