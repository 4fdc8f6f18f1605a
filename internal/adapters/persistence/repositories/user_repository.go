package repositories

import (
	"context"
	"errors"

	"bursary-portal/internal/adapters/persistence/models"
	"bursary-portal/internal/core/domain"

	"gorm.io/gorm"
)

// CreateUser creates a new user
func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := models.UserFromDomain(user)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

// GetUserByID gets a user by ID
func (s *Store) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var row models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return domain.User{}, translate(err, "user", id)
	}
	return row.ToDomain(), nil
}

// GetUserByUsername gets a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var row models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return domain.User{}, translate(err, "user", username)
	}
	return row.ToDomain(), nil
}

// ListUsers lists every user ordered by username
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// UpdateUser saves a user
func (s *Store) UpdateUser(ctx context.Context, user domain.User) error {
	row := models.UserFromDomain(user)
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Select("full_name", "role", "is_active", "password_hash", "updated_at").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: "user", ID: user.ID}
	}
	return nil
}
