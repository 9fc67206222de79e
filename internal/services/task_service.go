package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/project-management-api/internal/audit"
	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"go.uber.org/zap"
)

const (
	maxTaskTitleLength       = 200
	maxTaskDescriptionLength = 500
)

// TaskService handles task business logic
type TaskService struct {
	Deps
	aiService *AIService
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(deps Deps, aiService *AIService) *TaskService {
	return &TaskService{
		Deps:      deps.withDefaults(),
		aiService: aiService,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   string
	AssigneeID  string
}

// SuggestTasksInput represents input for AI task suggestions
type SuggestTasksInput struct {
	ProjectID string
	Text      string
}

// CreateTask adds a pending task to a project that is not completed.
func (s *TaskService) CreateTask(ctx context.Context, actor authz.Actor, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if tooLong(title, maxTaskTitleLength) || tooLong(input.Description, maxTaskDescriptionLength) {
		return nil, ErrFieldTooLong
	}

	project, err := s.findProject(ctx, s.Store, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusCompleted {
		return nil, ErrProjectCompleted
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      models.TaskStatusPending,
		ProjectID:   project.ID,
	}
	if input.AssigneeID != "" {
		if _, err := s.Store.Users().FindByID(ctx, input.AssigneeID); err != nil {
			if isNotFound(err) {
				return nil, ErrAssigneeNotFound
			}
			return nil, fmt.Errorf("failed to find assignee: %w", err)
		}
		assignee := input.AssigneeID
		task.AssigneeID = &assignee
	}

	if err := s.Store.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidate(ctx, cache.TasksKey(project.ID))
	s.publishProgress(ctx, project.ID)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionTaskCreated,
		UserID:       actor.ID,
		ResourceType: "task",
		ResourceID:   task.ID,
		Details:      map[string]any{"project_id": project.ID, "title": task.Title},
	})
	return task, nil
}

// ListTasksForProject returns the tasks of an existing project.
func (s *TaskService) ListTasksForProject(ctx context.Context, projectID string) ([]models.Task, error) {
	if _, err := s.findProject(ctx, s.Store, projectID); err != nil {
		return nil, err
	}

	key := cache.TasksKey(projectID)
	var tasks []models.Task
	if s.cached(ctx, key, &tasks) {
		return tasks, nil
	}

	tasks, err := s.Store.Tasks().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	s.remember(ctx, key, tasks)
	return tasks, nil
}

// UpdateTaskStatus lets the assignee set any status. Moving a task to
// awaiting_reassignment also clears its assignee. The project is completed in
// the same transaction once every task is done.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actor authz.Actor, taskID, status string) (*models.Task, error) {
	var task *models.Task
	var completed bool

	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if task, err = s.findTask(ctx, tx, taskID); err != nil {
			return err
		}
		if !authz.CanUpdateTaskStatus(actor, task) {
			return ErrNotTaskAssignee
		}

		next, err := models.ParseTaskStatus(status)
		if err != nil {
			return ErrInvalidStatus
		}
		task.Status = next
		if next == models.TaskStatusAwaitingReassignment {
			task.AssigneeID = nil
		}

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		completed, err = RecomputeCompletion(ctx, tx, task.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.TasksKey(task.ProjectID))
	if completed {
		s.Metrics.ProjectAutoCompleted()
		s.Logger.Info("project auto-completed", zap.String("project_id", task.ProjectID))
		if project, err := s.Store.Projects().FindByID(ctx, task.ProjectID); err == nil {
			s.invalidateProject(ctx, project)
		}
	}
	s.publishProgress(ctx, task.ProjectID)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionTaskUpdated,
		UserID:       actor.ID,
		ResourceType: "task",
		ResourceID:   task.ID,
		Details:      map[string]any{"status": task.Status},
	})
	return task, nil
}

// ReassignTask changes the assignee. An empty assigneeID unassigns the task
// and leaves its status alone; a real assignee moves an awaiting task back to
// pending. The new assignee must be the project owner or a member.
func (s *TaskService) ReassignTask(ctx context.Context, actor authz.Actor, taskID, assigneeID string) (*models.Task, error) {
	var task *models.Task

	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if task, err = s.findTask(ctx, tx, taskID); err != nil {
			return err
		}
		project, err := s.findProject(ctx, tx, task.ProjectID)
		if err != nil {
			return err
		}
		if !authz.CanReassignTask(actor, project) {
			return ErrReassignDenied
		}

		if assigneeID == "" {
			task.AssigneeID = nil
		} else {
			if !authz.IsParticipant(project, assigneeID) {
				return ErrInvalidAssignee
			}
			if task.Status == models.TaskStatusAwaitingReassignment {
				task.Status = models.TaskStatusPending
			}
			assignee := assigneeID
			task.AssigneeID = &assignee
		}

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.TasksKey(task.ProjectID))
	s.publishProgress(ctx, task.ProjectID)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionTaskUpdated,
		UserID:       actor.ID,
		ResourceType: "task",
		ResourceID:   task.ID,
		Details:      map[string]any{"assignee_id": assigneeID, "status": task.Status},
	})
	return task, nil
}

// SuggestTasks asks the AI service for task ideas for a project the actor takes part in.
// Suggestions are returned, not stored.
func (s *TaskService) SuggestTasks(ctx context.Context, actor authz.Actor, input SuggestTasksInput) ([]SuggestedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrNoSuggestionInput
	}

	project, err := s.findProject(ctx, s.Store, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !authz.IsParticipant(project, actor.ID) {
		return nil, ErrNotProjectMember
	}

	suggestions, err := s.aiService.SuggestTasks(ctx, project, input.Text)
	if err != nil {
		return nil, err
	}

	valid := make([]SuggestedTask, 0, len(suggestions))
	for _, st := range suggestions {
		st.Title = strings.TrimSpace(st.Title)
		if st.Title == "" || tooLong(st.Title, maxTaskTitleLength) {
			continue
		}
		st.Description = truncate(st.Description, maxTaskDescriptionLength)
		valid = append(valid, st)
		if len(valid) == constants.MaxSuggestedTasks {
			break
		}
	}
	return valid, nil
}

func (s *TaskService) findTask(ctx context.Context, store repository.Store, id string) (*models.Task, error) {
	task, err := store.Tasks().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findProject(ctx context.Context, store repository.Store, id string) (*models.Project, error) {
	project, err := store.Projects().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
