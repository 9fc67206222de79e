package repository

import (
	"context"

	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Members.*").Create(project).Error
}

// FindByID finds a project by ID with members preloaded
func (r *GormProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id = ?", id).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByName finds a project by name
func (r *GormProjectRepository) FindByName(ctx context.Context, name string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Where("name = ?", name).
		Order("created_at ASC").
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListVisibleTo lists projects the user owns or belongs to
func (r *GormProjectRepository) ListVisibleTo(ctx context.Context, userID string) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Scopes(database.VisibleTo(userID)).
		Preload("Members").
		Order("projects.created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ListOwnedBy lists projects owned by the user
func (r *GormProjectRepository) ListOwnedBy(ctx context.Context, ownerID string) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Where("owner_id = ?", ownerID).
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ListMemberOf lists projects the user is a member of
func (r *GormProjectRepository) ListMemberOf(ctx context.Context, userID string) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Scopes(database.MemberOf(userID)).
		Preload("Members").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update updates the scalar columns of a project
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).
		Model(project).
		Select("Name", "Description", "Status", "OwnerID").
		Updates(project).Error
}

// UpdateStatus sets the project status
func (r *GormProjectRepository) UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ClearOwner makes every project owned by the user ownerless
func (r *GormProjectRepository) ClearOwner(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("owner_id = ?", ownerID).
		Update("owner_id", nil).Error
}

// Delete soft deletes a project
func (r *GormProjectRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{}).Error
}

// AddMember adds a user to the project's member set
func (r *GormProjectRepository) AddMember(ctx context.Context, projectID string, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{ID: projectID}).
		Association("Members").
		Append(user)
}

// RemoveMember removes a user from the project's member set
func (r *GormProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{ID: projectID}).
		Association("Members").
		Delete(&models.User{ID: userID})
}
