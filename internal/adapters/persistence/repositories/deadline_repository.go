package repositories

import (
	"context"

	"bursary-portal/internal/adapters/persistence/models"
	"bursary-portal/internal/core/domain"

	"gorm.io/gorm/clause"
)

// UpsertDeadline creates or replaces the window of an academic year
func (s *Store) UpsertDeadline(ctx context.Context, deadline domain.Deadline) error {
	row := models.DeadlineFromDomain(deadline)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// GetDeadline gets the window of an academic year
func (s *Store) GetDeadline(ctx context.Context, academicYear string) (domain.Deadline, error) {
	var row models.Deadline
	if err := s.db.WithContext(ctx).Where("academic_year = ?", academicYear).First(&row).Error; err != nil {
		return domain.Deadline{}, translate(err, "deadline", academicYear)
	}
	return row.ToDomain(), nil
}

// ListDeadlines lists every window ordered by academic year
func (s *Store) ListDeadlines(ctx context.Context) ([]domain.Deadline, error) {
	var rows []models.Deadline
	if err := s.db.WithContext(ctx).Order("academic_year ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Deadline, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
