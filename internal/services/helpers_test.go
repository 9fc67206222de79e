package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/audit"
	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notify"
	"github.com/yukikurage/project-management-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db       *gorm.DB
	store    repository.Store
	cache    *cache.Memory
	notifier *recordingNotifier
	users    *UserService
	projects *ProjectService
	tasks    *TaskService
}

func setupServiceTestEnv(t *testing.T) serviceTestEnv {
	t.Helper()
	return setupServiceTestEnvWith(t, nil)
}

// setupServiceTestEnvWith builds the services; c replaces the in-memory cache when set.
func setupServiceTestEnvWith(t *testing.T, c cache.Cache) serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, database.Migrate(db))

	store := repository.NewStore(db)
	mem := cache.NewMemory()
	if c == nil {
		c = mem
	}
	notifier := &recordingNotifier{}
	deps := Deps{
		Store:    store,
		Cache:    c,
		CacheTTL: time.Minute,
		Notifier: notifier,
		Audit:    audit.NewRecorder(store.Logs(), zap.NewNop(), nil),
		Logger:   zap.NewNop(),
	}

	return serviceTestEnv{
		db:       db,
		store:    store,
		cache:    mem,
		notifier: notifier,
		users:    NewUserService(deps),
		projects: NewProjectService(deps),
		tasks:    NewTaskService(deps, nil),
	}
}

func (env serviceTestEnv) createUser(t *testing.T, name string, role models.UserRole) (*models.User, authz.Actor) {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         role,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user, authz.Actor{ID: user.ID, Role: role}
}

func (env serviceTestEnv) createProject(t *testing.T, owner authz.Actor, name string) *models.Project {
	t.Helper()
	p, err := env.projects.CreateProject(context.Background(), owner, CreateProjectInput{Name: name, Description: "D"})
	require.NoError(t, err)
	return p
}

func (env serviceTestEnv) createTask(t *testing.T, actor authz.Actor, projectID, title, assigneeID string) *models.Task {
	t.Helper()
	task, err := env.tasks.CreateTask(context.Background(), actor, CreateTaskInput{
		Title:      title,
		ProjectID:  projectID,
		AssigneeID: assigneeID,
	})
	require.NoError(t, err)
	return task
}

func (env serviceTestEnv) reloadProject(t *testing.T, id string) *models.Project {
	t.Helper()
	var p models.Project
	require.NoError(t, env.db.Unscoped().Preload("Members").Where("id = ?", id).First(&p).Error)
	return &p
}

func (env serviceTestEnv) reloadTask(t *testing.T, id string) *models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, env.db.Unscoped().Where("id = ?", id).First(&task).Error)
	return &task
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Progress
}

func (n *recordingNotifier) PublishProgress(p notify.Progress) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, p)
}

func (n *recordingNotifier) last() notify.Progress {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return notify.Progress{}
	}
	return n.events[len(n.events)-1]
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PublishProgress(p notify.Progress) {
	m.Called(p)
}

// brokenCache fails every operation, like an unreachable Redis.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string) cache.Result { return cache.Failed(errCacheDown) }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (brokenCache) Delete(context.Context, ...string) error { return errCacheDown }

func strptr(s string) *string { return &s }
