package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps at most one of them.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
)

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrTaskNotFound    = fmt.Errorf("task %w", ErrNotFound)

	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrProjectCompleted  = fmt.Errorf("%w: project is completed", ErrInvalidOperation)
	ErrInvalidAssignee   = fmt.Errorf("%w: assignee must be the project owner or a member", ErrInvalidOperation)
	ErrAssigneeNotFound  = fmt.Errorf("%w: assignee does not exist", ErrInvalidOperation)
	ErrInvalidRole       = fmt.Errorf("%w: unknown role", ErrInvalidOperation)
	ErrInvalidStatus     = fmt.Errorf("%w: unknown status", ErrInvalidOperation)
	ErrNameRequired      = fmt.Errorf("%w: name is required", ErrInvalidOperation)
	ErrEmailRequired     = fmt.Errorf("%w: email is required", ErrInvalidOperation)
	ErrTitleRequired     = fmt.Errorf("%w: title is required", ErrInvalidOperation)
	ErrFieldTooLong      = fmt.Errorf("%w: field too long", ErrInvalidOperation)
	ErrPasswordTooShort  = fmt.Errorf("%w: password too short", ErrInvalidOperation)
	ErrNoSuggestionInput = fmt.Errorf("%w: text is required", ErrInvalidOperation)

	ErrRegistrationDenied  = fmt.Errorf("%w: only admins and managers can register users", ErrPermissionDenied)
	ErrUserListDenied      = fmt.Errorf("%w: only admins and managers can view users", ErrPermissionDenied)
	ErrUserUpdateDenied    = fmt.Errorf("%w: cannot update another user", ErrPermissionDenied)
	ErrRoleChangeDenied    = fmt.Errorf("%w: only admins can change roles", ErrPermissionDenied)
	ErrUserDeleteDenied    = fmt.Errorf("%w: only admins can delete users", ErrPermissionDenied)
	ErrProjectCreateDenied = fmt.Errorf("%w: only managers and admins can create projects", ErrPermissionDenied)
	ErrNotProjectOwner     = fmt.Errorf("%w: only the project owner can do this", ErrPermissionDenied)
	ErrNotProjectMember    = fmt.Errorf("%w: not a member of this project", ErrPermissionDenied)
	ErrNotTaskAssignee     = fmt.Errorf("%w: only the assignee can change the task status", ErrPermissionDenied)
	ErrReassignDenied      = fmt.Errorf("%w: cannot reassign this task", ErrPermissionDenied)
)
