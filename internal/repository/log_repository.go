package repository

import (
	"context"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
)

// GormLogRepository is a GORM implementation of LogRepository
type GormLogRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new LogRepository
func NewLogRepository(db *gorm.DB) LogRepository {
	return &GormLogRepository{db: db}
}

// Create appends an audit record
func (r *GormLogRepository) Create(ctx context.Context, entry *models.Log) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByResource lists the audit records of one resource
func (r *GormLogRepository) ListByResource(ctx context.Context, resourceType, resourceID string) ([]models.Log, error) {
	var logs []models.Log
	if err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
