package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// ProjectDTO represents a project in API responses. Members are listed by id.
type ProjectDTO struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	OwnerID     *string              `json:"owner_id"`
	Members     []string             `json:"members"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ToProjectDTO converts a project model to DTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		OwnerID:     project.OwnerID,
		Members:     project.MemberIDs(),
		CreatedAt:   project.CreatedAt,
	}
}

// ToProjectDTOs converts a list of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, ToProjectDTO(p))
	}
	return dtos
}
