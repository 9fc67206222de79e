package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusOk        = "ok"
	StatusDown      = "down"
	healthDBTimeout = 2 * time.Second
)

// Pinger is anything the readiness probe can check
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthBasic struct {
	AppName           string `json:"app_name"`
	AppVersion        string `json:"app_version"`
	CurrentSystemTime string `json:"current_system_time"`
	Message           string `json:"message"`
}

type HealthServices struct {
	Database string `json:"database"`
}

type HealthReady struct {
	Status   string         `json:"status"`
	Services HealthServices `json:"services"`
}

type HealthHandler struct {
	db      Pinger
	version string
}

func NewHealthHandler(db *sql.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// CheckHealth reports that the process is up
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthBasic{
		AppName:           "project-management-api",
		AppVersion:        h.version,
		CurrentSystemTime: time.Now().Format("2006-01-02 15:04:05"),
		Message:           StatusOk,
	})
}

// CheckReady reports whether the store answers within healthDBTimeout
func (h *HealthHandler) CheckReady(c *gin.Context) {
	status := StatusOk
	code := http.StatusOK
	dbStatus := StatusOk
	if !h.checkConnectionToDatabase(c.Request.Context()) {
		status, dbStatus = StatusDown, StatusDown
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthReady{
		Status:   status,
		Services: HealthServices{Database: dbStatus},
	})
}

func (h *HealthHandler) checkConnectionToDatabase(ctx context.Context) bool {
	if h.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthDBTimeout)
	defer cancel()
	return h.db.PingContext(ctx) == nil
}
