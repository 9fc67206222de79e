package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/audit"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/notify"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "supersecret"

// apiSuite spins up the full router over an in-memory database.
type apiSuite struct {
	suite.Suite
	db      *gorm.DB
	tokens  *auth.TokenManager
	hub     *notify.Hub
	metrics *metrics.Metrics
	router  *gin.Engine
}

func (s *apiSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(database.Migrate(db))
	s.db = db

	logger := zap.NewNop()
	s.metrics = metrics.New()
	s.hub = notify.NewHub(logger, s.metrics)
	s.tokens = auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour)

	store := repository.NewStore(db)
	deps := services.Deps{
		Store:    store,
		Cache:    cache.NewMemory(),
		CacheTTL: time.Minute,
		Notifier: s.hub,
		Audit:    audit.NewRecorder(store.Logs(), logger, s.metrics),
		Logger:   logger,
		Metrics:  s.metrics,
	}
	users := services.NewUserService(deps)

	s.router = NewRouter(RouterConfig{
		Logger:       logger,
		Metrics:      s.metrics,
		Tokens:       s.tokens,
		LoginLimiter: middleware.NewRateLimiter(1, 3),
		Progress:     s.hub,
		Auth:         NewAuthHandler(services.NewAuthService(deps, s.tokens), users),
		Users:        NewUserHandler(users),
		Projects:     NewProjectHandler(services.NewProjectService(deps)),
		Tasks:        NewTaskHandler(services.NewTaskService(deps, nil)),
		Health:       NewHealthHandler(sqlDB, "test"),
	})
}

func (s *apiSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

// createUser stores a user with testPassword and returns it with an access token.
func (s *apiSuite) createUser(name string, role models.UserRole) (*models.User, string) {
	user, err := services.NewUser(services.CreateUserInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: testPassword,
		Role:     string(role),
	})
	s.Require().NoError(err)
	s.Require().NoError(s.db.Create(user).Error)

	pair, err := s.tokens.Issue(user)
	s.Require().NoError(err)
	return user, pair.AccessToken
}

func (s *apiSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *apiSuite) decode(w *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dst))
}

// errorCode returns the "code" field of an error response.
func (s *apiSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	s.decode(w, &body)
	return body.Code
}
