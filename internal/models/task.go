package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending              TaskStatus = "pending"
	TaskStatusInProgress           TaskStatus = "in_progress"
	TaskStatusDone                 TaskStatus = "done"
	TaskStatusAwaitingReassignment TaskStatus = "awaiting_reassignment"
)

// ParseTaskStatus converts untrusted input into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusAwaitingReassignment:
		return st, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

type Task struct {
	ID          string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:varchar(500)" json:"description"`
	Status      TaskStatus     `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	ProjectID   string         `gorm:"type:varchar(36);not null;index" json:"project_id"`
	AssigneeID  *string        `gorm:"type:varchar(36);index" json:"assignee_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	return nil
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
