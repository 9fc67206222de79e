package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/project-management-api/internal/audit"
	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/models"
)

const (
	maxProjectNameLength        = 160
	maxProjectDescriptionLength = 500
)

// ProjectService handles projects and their member sets.
type ProjectService struct {
	Deps
}

// NewProjectService creates a new ProjectService
func NewProjectService(deps Deps) *ProjectService {
	return &ProjectService{Deps: deps.withDefaults()}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description string
}

// UpdateProjectInput holds the fields to change; nil leaves a field untouched.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *string
}

// CreateProject creates a planned project owned by the actor.
func (s *ProjectService) CreateProject(ctx context.Context, actor authz.Actor, input CreateProjectInput) (*models.Project, error) {
	if !authz.CanCreateProject(actor) {
		return nil, ErrProjectCreateDenied
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if tooLong(name, maxProjectNameLength) || tooLong(input.Description, maxProjectDescriptionLength) {
		return nil, ErrFieldTooLong
	}

	ownerID := actor.ID
	project := &models.Project{
		Name:        name,
		Description: input.Description,
		Status:      models.ProjectStatusPlanned,
		OwnerID:     &ownerID,
	}
	if err := s.Store.Projects().Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.invalidateProject(ctx, project)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionProjectCreated,
		UserID:       actor.ID,
		ResourceType: "project",
		ResourceID:   project.ID,
		Details:      map[string]any{"name": project.Name},
	})
	return project, nil
}

// GetProject returns a project with its members.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.Store.Projects().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// ListProjectsForUser returns the projects the actor owns or is a member of.
func (s *ProjectService) ListProjectsForUser(ctx context.Context, actor authz.Actor) ([]models.Project, error) {
	key := cache.ProjectsKey(actor.ID)

	var projects []models.Project
	if s.cached(ctx, key, &projects) {
		return projects, nil
	}

	projects, err := s.Store.Projects().ListVisibleTo(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	s.remember(ctx, key, projects)
	return projects, nil
}

// UpdateProject edits a project. Completed projects reject every edit, and
// that check comes before the ownership check.
func (s *ProjectService) UpdateProject(ctx context.Context, actor authz.Actor, id string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusCompleted {
		return nil, ErrProjectCompleted
	}
	if !authz.CanManageProject(actor, project) {
		return nil, ErrNotProjectOwner
	}

	changed := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if tooLong(name, maxProjectNameLength) {
			return nil, ErrFieldTooLong
		}
		project.Name = name
		changed["name"] = name
	}
	if input.Description != nil {
		if tooLong(*input.Description, maxProjectDescriptionLength) {
			return nil, ErrFieldTooLong
		}
		project.Description = *input.Description
		changed["description"] = *input.Description
	}
	if input.Status != nil {
		status, err := models.ParseProjectStatus(*input.Status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		project.Status = status
		changed["status"] = status
	}

	if err := s.Store.Projects().Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.invalidateProject(ctx, project)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionProjectUpdated,
		UserID:       actor.ID,
		ResourceType: "project",
		ResourceID:   project.ID,
		Details:      changed,
	})
	return project, nil
}

// DeleteProject soft deletes a project owned by the actor.
func (s *ProjectService) DeleteProject(ctx context.Context, actor authz.Actor, id string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanManageProject(actor, project) {
		return ErrNotProjectOwner
	}

	if err := s.Store.Projects().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.invalidateProject(ctx, project)
	s.invalidate(ctx, cache.TasksKey(id))
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionProjectDeleted,
		UserID:       actor.ID,
		ResourceType: "project",
		ResourceID:   id,
	})
	return nil
}

// AddMember adds a user to the project. Adding an existing member changes nothing.
func (s *ProjectService) AddMember(ctx context.Context, actor authz.Actor, projectID, userID string) (*models.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusCompleted {
		return nil, ErrProjectCompleted
	}
	if !authz.CanManageProject(actor, project) {
		return nil, ErrNotProjectOwner
	}

	user, err := s.Store.Users().FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if project.HasMember(userID) {
		return project, nil
	}

	if err := s.Store.Projects().AddMember(ctx, projectID, user); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	project.Members = append(project.Members, *user)

	s.invalidateProject(ctx, project)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionMemberAdded,
		UserID:       actor.ID,
		ResourceType: "project",
		ResourceID:   projectID,
		Details:      map[string]any{"member_id": userID},
	})
	return project, nil
}

// RemoveMember removes a user from the project. Removing a non-member changes nothing.
func (s *ProjectService) RemoveMember(ctx context.Context, actor authz.Actor, projectID, userID string) (*models.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageProject(actor, project) {
		return nil, ErrNotProjectOwner
	}

	if !project.HasMember(userID) {
		return project, nil
	}

	if err := s.Store.Projects().RemoveMember(ctx, projectID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	members := project.Members[:0]
	for _, m := range project.Members {
		if m.ID != userID {
			members = append(members, m)
		}
	}
	project.Members = members

	s.invalidateProject(ctx, project, userID)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionMemberRemoved,
		UserID:       actor.ID,
		ResourceType: "project",
		ResourceID:   projectID,
		Details:      map[string]any{"member_id": userID},
	})
	return project, nil
}
