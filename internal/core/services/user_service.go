package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles portal account management
type UserService struct {
	users domain.UserStore
	log   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users domain.UserStore, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, log: log}
}

// CreateUserInput represents create user input
type CreateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// CreateUser creates a portal account
func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input *CreateUserInput) (*domain.User, error) {
	if err := domain.Require(actor.Role, domain.CapManageUsers); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if len(username) < 3 {
		return nil, &domain.PreconditionFailedError{Field: "username", Reason: "must be at least 3 characters"}
	}
	if !password.ValidatePassword(input.Password) {
		return nil, &domain.PreconditionFailedError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", password.MinLength),
		}
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, &domain.PreconditionFailedError{Field: "role", Reason: fmt.Sprintf("unknown role %q", input.Role)}
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.String("created_by", actor.ID),
	)
	return &user, nil
}

// ListUsers lists every account
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := domain.Require(actor.Role, domain.CapManageUsers); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

// SetActive enables or disables an account
func (s *UserService) SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*domain.User, error) {
	if err := domain.Require(actor.Role, domain.CapManageUsers); err != nil {
		return nil, err
	}
	if id == actor.ID && !active {
		return nil, &domain.PreconditionFailedError{Field: "id", Reason: "cannot deactivate your own account"}
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	user.UpdatedAt = time.Now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user status changed", zap.String("user_id", id), zap.Bool("is_active", active))
	return &user, nil
}
