package repositories

import (
	"context"

	"bursary-portal/internal/adapters/persistence/models"
	"bursary-portal/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateApplication inserts an application with its documents
func (s *Store) CreateApplication(ctx context.Context, app domain.Application) error {
	row, docs := models.ApplicationFromDomain(app)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return translate(err, "application", app.ID)
		}
		if len(docs) > 0 {
			if err := tx.Create(&docs).Error; err != nil {
				return translate(err, "document", app.ID)
			}
		}
		return nil
	})
}

// GetApplication gets an application by ID with its documents
func (s *Store) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	return s.loadApplication(s.db.WithContext(ctx), id, false)
}

// ListApplications lists every application ordered by ID
func (s *Store) ListApplications(ctx context.Context) ([]domain.Application, error) {
	db := s.db.WithContext(ctx)

	var rows []models.Application
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	var docs []models.ApplicationDocument
	if err := db.Order("application_id ASC, position ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	byApp := make(map[string][]models.ApplicationDocument, len(rows))
	for _, d := range docs {
		byApp[d.ApplicationID] = append(byApp[d.ApplicationID], d)
	}

	out := make([]domain.Application, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain(byApp[rows[i].ID]))
	}
	return out, nil
}

// ApplyTransition locks the application row, runs fn and writes the result
// in one transaction. Fund changes made through the ledger share the
// transaction and roll back with it.
func (s *Store) ApplyTransition(ctx context.Context, id string, fn domain.MutateFunc) (domain.Application, error) {
	var out domain.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadApplication(tx, id, true)
		if err != nil {
			return err
		}

		next, err := fn(current.Clone(), &txLedger{tx: tx})
		if err != nil {
			return err
		}
		if next.ID != id || next.StudentID != current.StudentID {
			return &domain.PreconditionFailedError{Field: "id", Reason: "identity fields are immutable"}
		}

		row, docs := models.ApplicationFromDomain(next)
		if err := tx.Model(&models.Application{}).
			Where("id = ?", id).
			Select("*").
			Omit("id", "student_id", "created_at").
			Updates(&row).Error; err != nil {
			return err
		}

		if err := tx.Where("application_id = ?", id).Delete(&models.ApplicationDocument{}).Error; err != nil {
			return err
		}
		if len(docs) > 0 {
			if err := tx.Create(&docs).Error; err != nil {
				return translate(err, "document", id)
			}
		}

		out = next
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return out, nil
}

func (s *Store) loadApplication(db *gorm.DB, id string, forUpdate bool) (domain.Application, error) {
	q := db
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row models.Application
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		return domain.Application{}, translate(err, "application", id)
	}

	var docs []models.ApplicationDocument
	if err := db.Where("application_id = ?", id).Order("position ASC").Find(&docs).Error; err != nil {
		return domain.Application{}, err
	}
	return row.ToDomain(docs), nil
}
