package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LogAction string

const (
	ActionLogin          LogAction = "login"
	ActionUserCreated    LogAction = "user_created"
	ActionUserUpdated    LogAction = "user_updated"
	ActionUserDeleted    LogAction = "user_deleted"
	ActionProjectCreated LogAction = "project_created"
	ActionProjectUpdated LogAction = "project_updated"
	ActionProjectDeleted LogAction = "project_deleted"
	ActionTaskCreated    LogAction = "task_created"
	ActionTaskUpdated    LogAction = "task_updated"
	ActionMemberAdded    LogAction = "member_added"
	ActionMemberRemoved  LogAction = "member_removed"
)

// Log is an append-only audit record.
type Log struct {
	ID           string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Action       LogAction      `gorm:"type:varchar(50);not null;index" json:"action"`
	UserID       *string        `gorm:"type:varchar(36);index" json:"user_id"`
	ResourceType *string        `gorm:"type:varchar(50)" json:"resource_type"`
	ResourceID   *string        `gorm:"type:varchar(36)" json:"resource_id"`
	Details      datatypes.JSON `json:"details"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
