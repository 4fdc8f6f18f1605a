package repositories

import (
	"context"
	"time"

	"bursary-portal/internal/adapters/persistence/models"
	"bursary-portal/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateFund inserts a fund
func (s *Store) CreateFund(ctx context.Context, fund domain.Fund) error {
	row := models.FundFromDomain(fund)
	return translate(s.db.WithContext(ctx).Create(&row).Error, "fund", fund.ID)
}

// GetFund gets a fund by ID
func (s *Store) GetFund(ctx context.Context, id string) (domain.Fund, error) {
	var row models.Fund
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return domain.Fund{}, translate(err, "fund", id)
	}
	return row.ToDomain(), nil
}

// ListFunds lists every fund ordered by ID
func (s *Store) ListFunds(ctx context.Context) ([]domain.Fund, error) {
	var rows []models.Fund
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Fund, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// SetFundStatus changes the status of a fund
func (s *Store) SetFundStatus(ctx context.Context, id string, status domain.FundStatus) (domain.Fund, error) {
	res := s.db.WithContext(ctx).Model(&models.Fund{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "updated_at": time.Now()})
	if res.Error != nil {
		return domain.Fund{}, res.Error
	}
	return s.GetFund(ctx, id)
}

// ListDisbursements lists the payouts of an application, oldest first
func (s *Store) ListDisbursements(ctx context.Context, applicationID string) ([]domain.Disbursement, error) {
	var rows []models.Disbursement
	err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("disbursed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Disbursement, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// txLedger applies fund changes inside an ApplyTransition transaction.
// Each change is a conditional UPDATE so concurrent reservations cannot
// overcommit a fund.
type txLedger struct {
	tx *gorm.DB
}

func (l *txLedger) Reserve(fundID string, amount decimal.Decimal) (domain.Fund, error) {
	res := l.tx.Model(&models.Fund{}).
		Where("id = ? AND status = ? AND amount - allocated_amount >= ?", fundID, string(domain.FundActive), amount).
		Updates(map[string]interface{}{
			"allocated_amount": gorm.Expr("allocated_amount + ?", amount),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return domain.Fund{}, res.Error
	}

	fund, err := l.fund(fundID)
	if err != nil {
		return domain.Fund{}, err
	}

	if res.RowsAffected == 0 {
		// Report why the guarded update matched nothing
		if _, err := domain.ReserveFrom(fund, amount); err != nil {
			return domain.Fund{}, err
		}
		return domain.Fund{}, &domain.FundExhaustedError{FundID: fundID, Requested: amount, Remaining: fund.Remaining()}
	}

	if fund.Remaining().IsZero() && fund.Status == domain.FundActive {
		if err := l.tx.Model(&models.Fund{}).Where("id = ?", fundID).
			Update("status", string(domain.FundDepleted)).Error; err != nil {
			return domain.Fund{}, err
		}
		fund.Status = domain.FundDepleted
	}
	return fund, nil
}

func (l *txLedger) Disburse(fundID string, record domain.Disbursement) (domain.Fund, error) {
	res := l.tx.Model(&models.Fund{}).
		Where("id = ? AND disbursed_amount + ? <= allocated_amount", fundID, record.Amount).
		Updates(map[string]interface{}{
			"disbursed_amount": gorm.Expr("disbursed_amount + ?", record.Amount),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return domain.Fund{}, res.Error
	}

	fund, err := l.fund(fundID)
	if err != nil {
		return domain.Fund{}, err
	}
	if res.RowsAffected == 0 {
		return domain.Fund{}, &domain.PreconditionFailedError{Field: "amount", Reason: "disbursement exceeds allocated funds"}
	}

	row, err := models.DisbursementFromDomain(record)
	if err != nil {
		return domain.Fund{}, err
	}
	if err := l.tx.Create(&row).Error; err != nil {
		return domain.Fund{}, err
	}
	return fund, nil
}

func (l *txLedger) fund(id string) (domain.Fund, error) {
	var row models.Fund
	if err := l.tx.Where("id = ?", id).First(&row).Error; err != nil {
		return domain.Fund{}, translate(err, "fund", id)
	}
	return row.ToDomain(), nil
}
