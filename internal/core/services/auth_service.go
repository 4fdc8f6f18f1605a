package services

import (
	"context"
	"errors"
	"strings"

	"bursary-portal/internal/config"
	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/jwt"
	"bursary-portal/internal/pkg/password"

	"go.uber.org/zap"
)

// AuthService handles authentication business logic
type AuthService struct {
	users domain.UserStore
	cfg   config.JWTConfig
	log   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users domain.UserStore, cfg config.JWTConfig, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, cfg: cfg, log: log}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
}

// Login authenticates a user and issues an access token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	token, err := jwt.GenerateAccessToken(user.ID, user.Username, string(user.Role), s.cfg.Secret, s.cfg.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))

	return &AuthResponse{
		User:        &user,
		AccessToken: token,
		ExpiresIn:   s.cfg.AccessTokenMins * 60,
	}, nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.Secret)
}

// Me returns the account behind an access token
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
