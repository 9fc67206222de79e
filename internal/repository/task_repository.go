package repository

import (
	"context"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByProject lists the tasks of a project
func (r *GormTaskRepository) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAssignedTo lists the tasks assigned to a user
func (r *GormTaskRepository) ListAssignedTo(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("assignee_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).
		Model(task).
		Select("Title", "Description", "Status", "AssigneeID").
		Updates(task).Error
}

// ReleaseAssignee unassigns the user from all tasks and marks them awaiting reassignment
func (r *GormTaskRepository) ReleaseAssignee(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("assignee_id = ?", userID).
		Updates(map[string]interface{}{
			"status":      models.TaskStatusAwaitingReassignment,
			"assignee_id": nil,
		}).Error
}

// CountByStatus counts the tasks of a project and the done ones among them
func (r *GormTaskRepository) CountByStatus(ctx context.Context, projectID string) (int64, int64, error) {
	var total, done int64
	base := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Session(&gorm.Session{})

	if err := base.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := base.Where("status = ?", models.TaskStatusDone).Count(&done).Error; err != nil {
		return 0, 0, err
	}
	return total, done, nil
}
