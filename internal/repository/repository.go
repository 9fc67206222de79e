package repository

import (
	"context"

	"github.com/yukikurage/project-management-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a non-deleted user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a non-deleted user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns every non-deleted user, newest first
	List(ctx context.Context) ([]models.User, error)

	// Update writes name, email, role and password hash
	Update(ctx context.Context, user *models.User) error

	// Delete soft deletes a user
	Delete(ctx context.Context, id string) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project together with its initial members
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a non-deleted project with its members loaded
	FindByID(ctx context.Context, id string) (*models.Project, error)

	// FindByName finds the oldest non-deleted project with the given name
	FindByName(ctx context.Context, name string) (*models.Project, error)

	// ListVisibleTo lists projects the user owns or is a member of
	ListVisibleTo(ctx context.Context, userID string) ([]models.Project, error)

	// ListOwnedBy lists projects owned by the user, members loaded
	ListOwnedBy(ctx context.Context, ownerID string) ([]models.Project, error)
	// ListMemberOf lists projects the user is a member of, members loaded
	ListMemberOf(ctx context.Context, userID string) ([]models.Project, error)

	// Update writes the scalar columns of a project
	Update(ctx context.Context, project *models.Project) error

	// UpdateStatus sets only the status column
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error

	// ClearOwner unsets the owner of every project owned by the user
	ClearOwner(ctx context.Context, ownerID string) error

	// Delete soft deletes a project
	Delete(ctx context.Context, id string) error

	// AddMember adds a user to the member set
	AddMember(ctx context.Context, projectID string, user *models.User) error

	// RemoveMember removes a user from the member set
	RemoveMember(ctx context.Context, projectID, userID string) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a non-deleted task by ID
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// ListByProject lists the non-deleted tasks of a project, oldest first
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)

	// ListAssignedTo lists the non-deleted tasks assigned to the user
	ListAssignedTo(ctx context.Context, userID string) ([]models.Task, error)

	// Update writes title, description, status and assignee
	Update(ctx context.Context, task *models.Task) error

	// ReleaseAssignee moves every task assigned to the user to awaiting_reassignment
	ReleaseAssignee(ctx context.Context, userID string) error

	// CountByStatus returns the number of non-deleted tasks and how many of them are done
	CountByStatus(ctx context.Context, projectID string) (total, done int64, err error)
}

// LogRepository defines the interface for the audit trail
type LogRepository interface {
	// Create appends an audit record
	Create(ctx context.Context, entry *models.Log) error

	// ListByResource returns the records for one resource, newest first
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]models.Log, error)
}

// Store groups the repositories that share one database handle.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Logs() LogRepository

	// Transaction runs fn against repositories bound to a single transaction.
	// Returning an error from fn rolls the transaction back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
