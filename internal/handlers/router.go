package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"go.uber.org/zap"
)

// RouterConfig collects everything NewRouter wires together.
type RouterConfig struct {
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Tokens       *auth.TokenManager
	LoginLimiter *middleware.RateLimiter
	// Progress serves the websocket progress channel; nil disables GET /ws.
	Progress http.Handler
	// Extra middleware installed after recovery, e.g. error reporting.
	Middleware []gin.HandlerFunc

	Auth     *AuthHandler
	Users    *UserHandler
	Projects *ProjectHandler
	Tasks    *TaskHandler
	Health   *HealthHandler
}

// NewRouter builds the gin engine with every API route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cfg.Middleware...)
	r.Use(middleware.RequestID(), middleware.GinZap(logger), middleware.Metrics(cfg.Metrics))

	if cfg.Health != nil {
		r.GET("/health", cfg.Health.CheckHealth)
		r.GET("/ready", cfg.Health.CheckReady)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.Progress != nil {
		r.GET("/ws", middleware.RequireAuth(cfg.Tokens), gin.WrapH(cfg.Progress))
	}

	requireAuth := middleware.RequireAuth(cfg.Tokens)

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			login := []gin.HandlerFunc{cfg.Auth.Login}
			if cfg.LoginLimiter != nil {
				login = append([]gin.HandlerFunc{cfg.LoginLimiter.Middleware()}, login...)
			}
			authRoutes.POST("/login", login...)
			authRoutes.POST("/refresh", cfg.Auth.Refresh)
			authRoutes.POST("/register", requireAuth, cfg.Auth.Register)
			authRoutes.GET("/me", requireAuth, cfg.Auth.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", cfg.Users.ListUsers)
			users.GET("/:id", cfg.Users.GetUser)
			users.PATCH("/:id", cfg.Users.UpdateUser)
			users.DELETE("/:id", cfg.Users.DeleteUser)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.POST("", cfg.Projects.CreateProject)
			projects.GET("", cfg.Projects.ListProjects)
			projects.GET("/:id", cfg.Projects.GetProject)
			projects.PATCH("/:id", cfg.Projects.UpdateProject)
			projects.DELETE("/:id", cfg.Projects.DeleteProject)
			projects.POST("/:id/members", cfg.Projects.AddMember)
			projects.DELETE("/:id/members/:user_id", cfg.Projects.RemoveMember)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.POST("", cfg.Tasks.CreateTask)
			tasks.POST("/suggest", cfg.Tasks.SuggestTasks)
			tasks.GET("/project/:project_id", cfg.Tasks.ListProjectTasks)
			tasks.PATCH("/:id/status", cfg.Tasks.UpdateTaskStatus)
			tasks.PATCH("/:id/assignee", cfg.Tasks.ReassignTask)
		}
	}

	return r
}
