package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/audit"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles authentication related business logic.
type AuthService struct {
	Deps
	tokens *auth.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(deps Deps, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		Deps:   deps.withDefaults(),
		tokens: tokens,
	}
}

// LoginResult is returned by Login.
type LoginResult struct {
	User   *models.User
	Tokens auth.TokenPair
}

// AuthenticateUser verifies credentials and returns the user.
func (s *AuthService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		Action:       models.ActionLogin,
		UserID:       user.ID,
		ResourceType: "user",
		ResourceID:   user.ID,
	})
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new access token carrying the user's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.Store.Users().FindByID(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	access, exp, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:   user,
		Tokens: auth.TokenPair{AccessToken: access, ExpiresAt: exp},
	}, nil
}

// Me returns the user behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Store.Users().FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
