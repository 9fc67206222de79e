package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleMember  UserRole = "member"
)

// ParseUserRole converts untrusted input into a UserRole.
func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(s); r {
	case RoleAdmin, RoleManager, RoleMember:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	ID           string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(120);not null" json:"name"`
	Email        string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole       `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}
