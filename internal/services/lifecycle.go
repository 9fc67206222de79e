package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
)

// ProjectProgress returns the percentage of done tasks, truncated. A project
// without tasks is at 0.
func ProjectProgress(ctx context.Context, tasks repository.TaskRepository, projectID string) (int, error) {
	total, done, err := tasks.CountByStatus(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return percent(total, done), nil
}

func percent(total, done int64) int {
	if total == 0 {
		return 0
	}
	return int(done * 100 / total)
}

// RecomputeCompletion marks the project completed when it has at least one task
// and every task is done. It never moves a project out of completed and reports
// whether it changed the status.
func RecomputeCompletion(ctx context.Context, store repository.Store, projectID string) (bool, error) {
	project, err := store.Projects().FindByID(ctx, projectID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find project: %w", err)
	}

	total, done, err := store.Tasks().CountByStatus(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("failed to count tasks: %w", err)
	}
	if total == 0 || done != total || project.Status == models.ProjectStatusCompleted {
		return false, nil
	}

	if err := store.Projects().UpdateStatus(ctx, projectID, models.ProjectStatusCompleted); err != nil {
		return false, fmt.Errorf("failed to complete project: %w", err)
	}
	return true, nil
}
