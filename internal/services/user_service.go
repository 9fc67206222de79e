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
	"golang.org/x/crypto/bcrypt"
)

const (
	maxUserNameLength = 120
	maxEmailLength    = 120
)

// UserService handles user accounts and the deletion cascade.
type UserService struct {
	Deps
}

// NewUserService creates a new UserService
func NewUserService(deps Deps) *UserService {
	return &UserService{Deps: deps.withDefaults()}
}

// CreateUserInput represents input for registering a user
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput holds the fields to change; nil leaves a field untouched.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *string
}

// CreateUser registers a new user on behalf of an admin or manager.
func (s *UserService) CreateUser(ctx context.Context, actor authz.Actor, input CreateUserInput) (*models.User, error) {
	if !authz.CanRegisterUsers(actor) {
		return nil, ErrRegistrationDenied
	}

	user, err := NewUser(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.Store.Users().FindByEmail(ctx, user.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if err := s.Store.Users().Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.invalidate(ctx, cache.UsersAllKey)
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionUserCreated,
		UserID:       actor.ID,
		ResourceType: "user",
		ResourceID:   user.ID,
		Details:      map[string]any{"email": user.Email, "role": user.Role},
	})
	return user, nil
}

// NewUser validates input and builds a user with a hashed password. It does not persist anything.
func NewUser(input CreateUserInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if tooLong(name, maxUserNameLength) || tooLong(email, maxEmailLength) {
		return nil, ErrFieldTooLong
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := models.RoleMember
	if input.Role != "" {
		r, err := models.ParseUserRole(input.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = r
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}, nil
}

// GetUser returns one user. Users may always read themselves.
func (s *UserService) GetUser(ctx context.Context, actor authz.Actor, id string) (*models.User, error) {
	if !authz.CanViewUser(actor, id) {
		return nil, ErrUserListDenied
	}
	return s.findUser(ctx, id)
}

func (s *UserService) findUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if s.cached(ctx, cache.UserKey(id), &user) {
		return &user, nil
	}

	found, err := s.Store.Users().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	s.remember(ctx, cache.UserKey(id), found)
	return found, nil
}

// ListUsers returns every active user, newest first.
func (s *UserService) ListUsers(ctx context.Context, actor authz.Actor) ([]models.User, error) {
	if !authz.CanListUsers(actor) {
		return nil, ErrUserListDenied
	}

	var users []models.User
	if s.cached(ctx, cache.UsersAllKey, &users) {
		return users, nil
	}

	users, err := s.Store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	s.remember(ctx, cache.UsersAllKey, users)
	return users, nil
}

// UpdateUser changes name, email or role. Editing someone else is checked
// before the role change and before the target is looked up.
func (s *UserService) UpdateUser(ctx context.Context, actor authz.Actor, id string, input UpdateUserInput) (*models.User, error) {
	if !authz.CanUpdateUser(actor, id) {
		return nil, ErrUserUpdateDenied
	}

	var role models.UserRole
	if input.Role != nil {
		if !authz.CanChangeRole(actor) {
			return nil, ErrRoleChangeDenied
		}
		r, err := models.ParseUserRole(*input.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = r
	}

	user, err := s.Store.Users().FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	changed := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if tooLong(name, maxUserNameLength) {
			return nil, ErrFieldTooLong
		}
		user.Name = name
		changed["name"] = name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, ErrEmailRequired
		}
		if tooLong(email, maxEmailLength) {
			return nil, ErrFieldTooLong
		}
		if email != user.Email {
			if other, err := s.Store.Users().FindByEmail(ctx, email); err == nil && other.ID != user.ID {
				return nil, ErrEmailTaken
			} else if err != nil && !isNotFound(err) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		user.Email = email
		changed["email"] = email
	}
	if input.Role != nil {
		user.Role = role
		changed["role"] = role
	}

	if err := s.Store.Users().Update(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.invalidate(ctx, cache.UserKey(id), cache.UsersAllKey, cache.ProjectsKey(id))
	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionUserUpdated,
		UserID:       actor.ID,
		ResourceType: "user",
		ResourceID:   id,
		Details:      changed,
	})
	return user, nil
}

// DeleteUser soft deletes a user. In the same transaction every project the
// user owns becomes ownerless and every task assigned to the user is released
// to awaiting_reassignment.
func (s *UserService) DeleteUser(ctx context.Context, actor authz.Actor, id string) error {
	if !authz.CanDeleteUser(actor) {
		return ErrUserDeleteDenied
	}

	var owned, joined []models.Project
	var released []models.Task
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().FindByID(ctx, id); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		var err error
		if owned, err = tx.Projects().ListOwnedBy(ctx, id); err != nil {
			return fmt.Errorf("failed to list owned projects: %w", err)
		}
		if joined, err = tx.Projects().ListMemberOf(ctx, id); err != nil {
			return fmt.Errorf("failed to list member projects: %w", err)
		}
		if released, err = tx.Tasks().ListAssignedTo(ctx, id); err != nil {
			return fmt.Errorf("failed to list assigned tasks: %w", err)
		}

		if err := tx.Projects().ClearOwner(ctx, id); err != nil {
			return fmt.Errorf("failed to clear project owner: %w", err)
		}
		if err := tx.Tasks().ReleaseAssignee(ctx, id); err != nil {
			return fmt.Errorf("failed to release tasks: %w", err)
		}
		if err := tx.Users().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, cache.UserKey(id), cache.UsersAllKey, cache.ProjectsKey(id))
	for i := range owned {
		s.invalidateProject(ctx, &owned[i])
	}
	// member lists shrink once the user is gone
	for i := range joined {
		s.invalidateProject(ctx, &joined[i])
	}
	touched := map[string]struct{}{}
	for _, t := range released {
		touched[t.ProjectID] = struct{}{}
	}
	for projectID := range touched {
		s.invalidate(ctx, cache.TasksKey(projectID))
		s.publishProgress(ctx, projectID)
	}

	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionUserDeleted,
		UserID:       actor.ID,
		ResourceType: "user",
		ResourceID:   id,
		Details: map[string]any{
			"orphaned_projects": len(owned),
			"released_tasks":    len(released),
		},
	})
	return nil
}
