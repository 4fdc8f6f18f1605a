package services

import (
	"context"
	"strings"
	"time"

	"bursary-portal/internal/core/domain"

	"go.uber.org/zap"
)

// DeadlineService manages submission windows
type DeadlineService struct {
	store domain.DeadlineStore
	log   *zap.Logger
}

// NewDeadlineService creates a new deadline service
func NewDeadlineService(store domain.DeadlineStore, log *zap.Logger) *DeadlineService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeadlineService{store: store, log: log}
}

// SetDeadlineInput represents set deadline input
type SetDeadlineInput struct {
	AcademicYear string     `json:"academicYear"`
	OpensAt      *time.Time `json:"opensAt"`
	ClosesAt     *time.Time `json:"closesAt"`
}

// SetDeadline creates or replaces the window of an academic year
func (s *DeadlineService) SetDeadline(ctx context.Context, actor domain.Actor, input SetDeadlineInput) (*domain.Deadline, error) {
	if err := domain.Require(actor.Role, domain.CapManageDeadlines); err != nil {
		return nil, err
	}
	year := strings.TrimSpace(input.AcademicYear)
	if year == "" {
		return nil, &domain.PreconditionFailedError{Field: "academicYear", Reason: "required"}
	}
	if input.ClosesAt == nil {
		return nil, &domain.PreconditionFailedError{Field: "closesAt", Reason: "required"}
	}
	if input.OpensAt != nil && !input.OpensAt.Before(*input.ClosesAt) {
		return nil, &domain.PreconditionFailedError{Field: "opensAt", Reason: "must be before closesAt"}
	}

	d := domain.Deadline{
		AcademicYear: year,
		OpensAt:      input.OpensAt,
		ClosesAt:     *input.ClosesAt,
		UpdatedBy:    actor.ID,
		UpdatedAt:    time.Now(),
	}
	if err := s.store.UpsertDeadline(ctx, d); err != nil {
		return nil, err
	}
	s.log.Info("deadline set",
		zap.String("academic_year", year),
		zap.Time("closes_at", d.ClosesAt),
	)
	return &d, nil
}

// ListDeadlines returns every configured window
func (s *DeadlineService) ListDeadlines(ctx context.Context) ([]domain.Deadline, error) {
	return s.store.ListDeadlines(ctx)
}
