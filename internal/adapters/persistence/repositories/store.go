package repositories

import (
	"context"
	"errors"

	"bursary-portal/internal/adapters/persistence/models"
	"bursary-portal/internal/core/domain"

	"gorm.io/gorm"
)

// Store is the MySQL implementation of domain.Store
type Store struct {
	db *gorm.DB
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a new GORM backed store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates every table
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(models.All()...)
}

// translate maps GORM errors onto domain errors
func translate(err error, kind, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &domain.NotFoundError{Kind: kind, ID: id}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &domain.PreconditionFailedError{Field: "id", Reason: kind + " already exists"}
	}
	return err
}
