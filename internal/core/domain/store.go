package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// FundLedger adjusts fund balances inside the scope of ApplyTransition.
// Changes made through the ledger commit together with the application and
// are discarded when the mutation fails.
type FundLedger interface {
	// Reserve atomically checks remaining >= amount and moves amount into allocated.
	Reserve(fundID string, amount decimal.Decimal) (Fund, error)
	// Disburse records a payout against previously allocated money.
	Disburse(fundID string, record Disbursement) (Fund, error)
}

// MutateFunc computes the next state of an application from its current state
type MutateFunc func(current Application, ledger FundLedger) (Application, error)

// ApplicationStore is the single authority over application records.
// ApplyTransition must linearize concurrent calls for the same id.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app Application) error
	GetApplication(ctx context.Context, id string) (Application, error)
	ListApplications(ctx context.Context) ([]Application, error)
	ApplyTransition(ctx context.Context, id string, fn MutateFunc) (Application, error)
}

// FundStore manages funds and their disbursement records
type FundStore interface {
	CreateFund(ctx context.Context, fund Fund) error
	GetFund(ctx context.Context, id string) (Fund, error)
	ListFunds(ctx context.Context) ([]Fund, error)
	SetFundStatus(ctx context.Context, id string, status FundStatus) (Fund, error)
	ListDisbursements(ctx context.Context, applicationID string) ([]Disbursement, error)
}

// EventStore keeps the lifecycle history of applications
type EventStore interface {
	AppendEvent(ctx context.Context, event LifecycleEvent) error
	ListEvents(ctx context.Context, applicationID string) ([]LifecycleEvent, error)
}

// DeadlineStore keeps submission windows per academic year
type DeadlineStore interface {
	UpsertDeadline(ctx context.Context, deadline Deadline) error
	GetDeadline(ctx context.Context, academicYear string) (Deadline, error)
	ListDeadlines(ctx context.Context) ([]Deadline, error)
}

// UserStore keeps portal accounts
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user User) error
}

// Store bundles every store the services depend on
type Store interface {
	ApplicationStore
	FundStore
	EventStore
	DeadlineStore
	UserStore
}

// ReserveFrom applies a reservation to a fund value. Stores share it so the
// in-memory and SQL implementations reject the same requests.
func ReserveFrom(f Fund, amount decimal.Decimal) (Fund, error) {
	switch f.Status {
	case FundActive:
	case FundDepleted:
		return Fund{}, &FundExhaustedError{FundID: f.ID, Requested: amount, Remaining: f.Remaining()}
	default:
		return Fund{}, precondition("fundId", "fund is "+string(f.Status))
	}
	if f.Remaining().LessThan(amount) {
		return Fund{}, &FundExhaustedError{FundID: f.ID, Requested: amount, Remaining: f.Remaining()}
	}
	f.AllocatedAmount = f.AllocatedAmount.Add(amount)
	if f.Remaining().IsZero() {
		f.Status = FundDepleted
	}
	return f, nil
}

// DisburseFrom applies a payout to a fund value
func DisburseFrom(f Fund, amount decimal.Decimal) (Fund, error) {
	if f.DisbursedAmount.Add(amount).GreaterThan(f.AllocatedAmount) {
		return Fund{}, precondition("amount", "disbursement exceeds allocated funds")
	}
	f.DisbursedAmount = f.DisbursedAmount.Add(amount)
	return f, nil
}
