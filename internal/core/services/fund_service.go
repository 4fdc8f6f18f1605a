package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FundService manages bursary funds
type FundService struct {
	store domain.FundStore
	log   *zap.Logger
}

// NewFundService creates a new fund service
func NewFundService(store domain.FundStore, log *zap.Logger) *FundService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FundService{store: store, log: log}
}

// CreateFundInput represents create fund input
type CreateFundInput struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	AcademicYear string            `json:"academicYear"`
	Amount       *decimal.Decimal  `json:"amount"`
	Status       domain.FundStatus `json:"status"`
}

// FundView is a fund together with its derived remaining balance
type FundView struct {
	domain.Fund
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
}

func viewOf(f domain.Fund) FundView {
	return FundView{Fund: f, RemainingAmount: f.Remaining()}
}

// CreateFund registers a new fund
func (s *FundService) CreateFund(ctx context.Context, actor domain.Actor, input CreateFundInput) (*FundView, error) {
	if err := domain.Require(actor.Role, domain.CapManageFunds); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &domain.PreconditionFailedError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(input.AcademicYear) == "" {
		return nil, &domain.PreconditionFailedError{Field: "academicYear", Reason: "required"}
	}
	if input.Amount == nil || !input.Amount.IsPositive() {
		return nil, &domain.PreconditionFailedError{Field: "amount", Reason: "must be greater than zero"}
	}
	if err := domain.CheckAmount("amount", *input.Amount); err != nil {
		return nil, err
	}

	status := input.Status
	switch status {
	case "":
		status = domain.FundActive
	case domain.FundActive, domain.FundPending:
	default:
		return nil, &domain.PreconditionFailedError{Field: "status", Reason: fmt.Sprintf("cannot create a %s fund", status)}
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = "FUND-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}

	now := time.Now()
	fund := domain.Fund{
		ID:              id,
		Name:            name,
		AcademicYear:    strings.TrimSpace(input.AcademicYear),
		Amount:          *input.Amount,
		AllocatedAmount: decimal.Zero,
		DisbursedAmount: decimal.Zero,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateFund(ctx, fund); err != nil {
		return nil, err
	}

	metrics.FundRemaining.WithLabelValues(fund.ID).Set(fund.Remaining().InexactFloat64())
	s.log.Info("fund created",
		zap.String("fund_id", fund.ID),
		zap.String("academic_year", fund.AcademicYear),
		zap.String("amount", fund.Amount.StringFixed(2)),
	)
	v := viewOf(fund)
	return &v, nil
}

// ListFunds returns every fund
func (s *FundService) ListFunds(ctx context.Context, actor domain.Actor) ([]FundView, error) {
	if err := domain.Require(actor.Role, domain.CapViewAll); err != nil {
		return nil, err
	}
	funds, err := s.store.ListFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	out := make([]FundView, 0, len(funds))
	for _, f := range funds {
		out = append(out, viewOf(f))
	}
	return out, nil
}

// GetFund returns one fund
func (s *FundService) GetFund(ctx context.Context, actor domain.Actor, id string) (*FundView, error) {
	if err := domain.Require(actor.Role, domain.CapViewAll); err != nil {
		return nil, err
	}
	f, err := s.store.GetFund(ctx, id)
	if err != nil {
		return nil, err
	}
	v := viewOf(f)
	return &v, nil
}

// CloseFund stops further allocations from a fund
func (s *FundService) CloseFund(ctx context.Context, actor domain.Actor, id string) (*FundView, error) {
	if err := domain.Require(actor.Role, domain.CapManageFunds); err != nil {
		return nil, err
	}
	f, err := s.store.SetFundStatus(ctx, id, domain.FundClosed)
	if err != nil {
		return nil, err
	}
	s.log.Info("fund closed", zap.String("fund_id", id), zap.String("actor_id", actor.ID))
	v := viewOf(f)
	return &v, nil
}

// RefreshGauges publishes the remaining balance of every fund
func (s *FundService) RefreshGauges(ctx context.Context) error {
	funds, err := s.store.ListFunds(ctx)
	if err != nil {
		return err
	}
	for _, f := range funds {
		metrics.FundRemaining.WithLabelValues(f.ID).Set(f.Remaining().InexactFloat64())
	}
	return nil
}
