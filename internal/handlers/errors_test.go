package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/project-management-api/internal/services"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrTaskNotFound, http.StatusNotFound},
		{"invalid operation", services.ErrProjectCompleted, http.StatusUnprocessableEntity},
		{"permission denied", services.ErrNotProjectOwner, http.StatusForbidden},
		{"conflict", services.ErrEmailTaken, http.StatusConflict},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"token", services.ErrInvalidToken, http.StatusUnauthorized},
		{"ai not configured", services.ErrAIServiceNotConfigured, http.StatusServiceUnavailable},
		{"wrapped kind", fmt.Errorf("lookup: %w", services.ErrUserNotFound), http.StatusNotFound},
		{"store failure", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondServiceError(c, tt.err)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRespondServiceError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondServiceError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "pq:")
}
