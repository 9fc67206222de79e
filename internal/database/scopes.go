package database

import (
	"gorm.io/gorm"
)

// VisibleTo limits a project query to projects the user owns or is a member of.
func VisibleTo(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("projects.owner_id = ? OR projects.id IN (?)", userID, memberProjects(db, userID))
	}
}

// MemberOf limits a project query to projects the user is a member of.
func MemberOf(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("projects.id IN (?)", memberProjects(db, userID))
	}
}

func memberProjects(db *gorm.DB, userID string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Table("project_members").
		Select("project_id").
		Where("user_id = ?", userID)
}
