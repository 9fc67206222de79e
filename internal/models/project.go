package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusPlanned    ProjectStatus = "planned"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// ParseProjectStatus converts untrusted input into a ProjectStatus.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch st := ProjectStatus(s); st {
	case ProjectStatusPlanned, ProjectStatusInProgress, ProjectStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

type Project struct {
	ID          string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(160);not null" json:"name"`
	Description string         `gorm:"type:varchar(500)" json:"description"`
	Status      ProjectStatus  `gorm:"type:varchar(20);not null;default:'planned'" json:"status"`
	OwnerID     *string        `gorm:"type:varchar(36);index" json:"owner_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []User `gorm:"many2many:project_members" json:"members,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = ProjectStatusPlanned
	}
	return nil
}

// IsOwnedBy reports whether userID is the project's owner. Ownerless projects have no owner.
func (p *Project) IsOwnedBy(userID string) bool {
	return p.OwnerID != nil && *p.OwnerID == userID
}

// HasMember reports whether userID is in the member set.
func (p *Project) HasMember(userID string) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of all members.
func (p *Project) MemberIDs() []string {
	ids := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
