package repositories

import (
	"context"

	"bursary-portal/internal/adapters/persistence/models"
	"bursary-portal/internal/core/domain"
)

// AppendEvent inserts a lifecycle event
func (s *Store) AppendEvent(ctx context.Context, event domain.LifecycleEvent) error {
	row := models.LifecycleEventFromDomain(event)
	return s.db.WithContext(ctx).Create(&row).Error
}

// ListEvents lists the history of an application, oldest first
func (s *Store) ListEvents(ctx context.Context, applicationID string) ([]domain.LifecycleEvent, error) {
	var rows []models.LifecycleEvent
	err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.LifecycleEvent, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
