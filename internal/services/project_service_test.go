package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/models"
)

func TestProjectService_CreateProject(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	manager, managerActor := env.createUser(t, "manager", models.RoleManager)
	_, member := env.createUser(t, "member", models.RoleMember)

	p, err := env.projects.CreateProject(ctx, managerActor, CreateProjectInput{Name: "P1", Description: "D1"})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusPlanned, p.Status)
	require.NotNil(t, p.OwnerID)
	assert.Equal(t, manager.ID, *p.OwnerID)

	_, err = env.projects.CreateProject(ctx, member, CreateProjectInput{Name: "nope"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.projects.CreateProject(ctx, managerActor, CreateProjectInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	var count int64
	require.NoError(t, env.db.Model(&models.Log{}).Where("action = ?", models.ActionProjectCreated).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProjectService_UpdatePermissionMatrix(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	_, owner := env.createUser(t, "owner", models.RoleManager)
	_, otherManager := env.createUser(t, "other", models.RoleManager)
	_, admin := env.createUser(t, "admin", models.RoleAdmin)
	p := env.createProject(t, owner, "P")

	_, err := env.projects.UpdateProject(ctx, otherManager, p.ID, UpdateProjectInput{Name: strptr("X")})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.projects.UpdateProject(ctx, admin, p.ID, UpdateProjectInput{Name: strptr("X")})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.projects.UpdateProject(ctx, owner, "missing", UpdateProjectInput{Name: strptr("X")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.projects.UpdateProject(ctx, owner, p.ID, UpdateProjectInput{Status: strptr("archived")})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := env.projects.UpdateProject(ctx, owner, p.ID, UpdateProjectInput{
		Name:   strptr("Renamed"),
		Status: strptr("in_progress"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, models.ProjectStatusInProgress, updated.Status)
	assert.Equal(t, "D", updated.Description)

	// owner may complete it by hand, after which it is read-only
	_, err = env.projects.UpdateProject(ctx, owner, p.ID, UpdateProjectInput{Status: strptr("completed")})
	require.NoError(t, err)

	_, err = env.projects.UpdateProject(ctx, owner, p.ID, UpdateProjectInput{Name: strptr("X")})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	// completed is checked before ownership
	_, err = env.projects.UpdateProject(ctx, otherManager, p.ID, UpdateProjectInput{Name: strptr("X")})
	assert.ErrorIs(t, err, ErrProjectCompleted)
}

func TestProjectService_Members(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	_, owner := env.createUser(t, "owner", models.RoleManager)
	u2, u2Actor := env.createUser(t, "u2", models.RoleMember)
	p := env.createProject(t, owner, "P")

	_, err := env.projects.AddMember(ctx, u2Actor, p.ID, u2.ID)
	assert.ErrorIs(t, err, ErrNotProjectOwner)

	_, err = env.projects.AddMember(ctx, owner, p.ID, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := env.projects.AddMember(ctx, owner, p.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u2.ID}, got.MemberIDs())

	got, err = env.projects.AddMember(ctx, owner, p.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u2.ID}, got.MemberIDs())
	assert.Len(t, env.reloadProject(t, p.ID).Members, 1)

	_, err = env.projects.RemoveMember(ctx, u2Actor, p.ID, u2.ID)
	assert.ErrorIs(t, err, ErrNotProjectOwner)

	got, err = env.projects.RemoveMember(ctx, owner, p.ID, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Members)

	// removing a non-member is a no-op
	_, err = env.projects.RemoveMember(ctx, owner, p.ID, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, env.reloadProject(t, p.ID).Members)
}

func TestProjectService_CompletedProjectRejectsMembers(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	_, owner := env.createUser(t, "owner", models.RoleManager)
	u2, _ := env.createUser(t, "u2", models.RoleMember)
	p := env.createProject(t, owner, "P")

	_, err := env.projects.UpdateProject(ctx, owner, p.ID, UpdateProjectInput{Status: strptr("completed")})
	require.NoError(t, err)

	_, err = env.projects.AddMember(ctx, owner, p.ID, u2.ID)
	assert.ErrorIs(t, err, ErrProjectCompleted)
}

func TestProjectService_ListProjectsForUser(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	_, owner := env.createUser(t, "owner", models.RoleManager)
	u2, u2Actor := env.createUser(t, "u2", models.RoleMember)
	p1 := env.createProject(t, owner, "P1")
	env.createProject(t, owner, "P2")

	mine, err := env.projects.ListProjectsForUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := env.projects.ListProjectsForUser(ctx, u2Actor)
	require.NoError(t, err)
	assert.Empty(t, theirs)
	assert.True(t, env.cache.Get(ctx, cache.ProjectsKey(u2.ID)).Hit)

	_, err = env.projects.AddMember(ctx, owner, p1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, env.cache.Get(ctx, cache.ProjectsKey(u2.ID)).Hit)

	theirs, err = env.projects.ListProjectsForUser(ctx, u2Actor)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, p1.ID, theirs[0].ID)
	assert.Equal(t, []string{u2.ID}, theirs[0].MemberIDs())

	// served from cache with members intact
	cached, err := env.projects.ListProjectsForUser(ctx, u2Actor)
	require.NoError(t, err)
	assert.Equal(t, []string{u2.ID}, cached[0].MemberIDs())
}

func TestProjectService_DeleteProject(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	_, owner := env.createUser(t, "owner", models.RoleManager)
	_, admin := env.createUser(t, "admin", models.RoleAdmin)
	p := env.createProject(t, owner, "P")

	assert.ErrorIs(t, env.projects.DeleteProject(ctx, admin, p.ID), ErrNotProjectOwner)
	require.NoError(t, env.projects.DeleteProject(ctx, owner, p.ID))
	assert.True(t, env.reloadProject(t, p.ID).DeletedAt.Valid)

	_, err := env.projects.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.projects.DeleteProject(ctx, owner, p.ID), ErrNotFound)

	list, err := env.projects.ListProjectsForUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}
