// Package authz holds the permission rules. Every function is a pure
// predicate over the acting user and the target; none of them touch storage.
package authz

import "github.com/yukikurage/project-management-api/internal/models"

// Actor is the identity and role resolved from a bearer token.
type Actor struct {
	ID   string
	Role models.UserRole
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...models.UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// CanRegisterUsers gates user creation.
func CanRegisterUsers(a Actor) bool {
	return a.HasRole(models.RoleAdmin, models.RoleManager)
}

// CanListUsers gates listing and reading other users.
func CanListUsers(a Actor) bool {
	return a.HasRole(models.RoleAdmin, models.RoleManager)
}

// CanViewUser lets list-capable roles read anyone and every user read themselves.
func CanViewUser(a Actor, targetID string) bool {
	return a.ID == targetID || CanListUsers(a)
}

// CanUpdateUser allows self-service profile edits and admin edits.
func CanUpdateUser(a Actor, targetID string) bool {
	return a.ID == targetID || a.Role == models.RoleAdmin
}

// CanChangeRole gates role changes on any user, including oneself.
func CanChangeRole(a Actor) bool {
	return a.Role == models.RoleAdmin
}

func CanDeleteUser(a Actor) bool {
	return a.Role == models.RoleAdmin
}

func CanCreateProject(a Actor) bool {
	return a.HasRole(models.RoleManager, models.RoleAdmin)
}

// CanManageProject covers update, delete and member changes. Only the owner
// qualifies; role is irrelevant and ownerless projects are unmanageable.
func CanManageProject(a Actor, p *models.Project) bool {
	return p.IsOwnedBy(a.ID)
}

// IsParticipant reports whether userID is the owner or a member of p.
func IsParticipant(p *models.Project, userID string) bool {
	return p.IsOwnedBy(userID) || p.HasMember(userID)
}

// CanUpdateTaskStatus lets only the assignee move a task.
func CanUpdateTaskStatus(a Actor, t *models.Task) bool {
	return t.IsAssignedTo(a.ID)
}

// CanReassignTask allows admins, managers and the owner of the task's project.
func CanReassignTask(a Actor, p *models.Project) bool {
	return a.HasRole(models.RoleAdmin, models.RoleManager) || p.IsOwnedBy(a.ID)
}
