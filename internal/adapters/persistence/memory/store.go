// Package memory provides a process-wide in-memory implementation of the
// domain stores. It is the default store in development and the store used by
// service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bursary-portal/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Store is safe for concurrent use. All writes take the single write lock,
// which linearizes transitions and fund reservations.
type Store struct {
	mu            sync.RWMutex
	applications  map[string]domain.Application
	funds         map[string]domain.Fund
	disbursements map[string][]domain.Disbursement
	events        map[string][]domain.LifecycleEvent
	deadlines     map[string]domain.Deadline
	users         map[string]domain.User
	usernames     map[string]string
}

var _ domain.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		applications:  make(map[string]domain.Application),
		funds:         make(map[string]domain.Fund),
		disbursements: make(map[string][]domain.Disbursement),
		events:        make(map[string][]domain.LifecycleEvent),
		deadlines:     make(map[string]domain.Deadline),
		users:         make(map[string]domain.User),
		usernames:     make(map[string]string),
	}
}

// Applications ---------------------------------------------------------------

func (s *Store) CreateApplication(_ context.Context, app domain.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.applications[app.ID]; exists {
		return &domain.PreconditionFailedError{Field: "id", Reason: "application already exists"}
	}
	s.applications[app.ID] = app.Clone()
	return nil
}

func (s *Store) GetApplication(_ context.Context, id string) (domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return domain.Application{}, &domain.NotFoundError{Kind: "application", ID: id}
	}
	return app.Clone(), nil
}

func (s *Store) ListApplications(_ context.Context) ([]domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Application, 0, len(s.applications))
	for _, app := range s.applications {
		out = append(out, app.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ApplyTransition runs fn under the write lock. Fund changes made through the
// ledger are staged and only committed when fn succeeds.
func (s *Store) ApplyTransition(_ context.Context, id string, fn domain.MutateFunc) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.applications[id]
	if !ok {
		return domain.Application{}, &domain.NotFoundError{Kind: "application", ID: id}
	}

	ledger := &stagedLedger{store: s, funds: make(map[string]domain.Fund)}
	next, err := fn(current.Clone(), ledger)
	if err != nil {
		return domain.Application{}, err
	}
	if next.ID != id || next.StudentID != current.StudentID {
		return domain.Application{}, &domain.PreconditionFailedError{Field: "id", Reason: "identity fields are immutable"}
	}

	for fundID, fund := range ledger.funds {
		s.funds[fundID] = fund
	}
	for _, d := range ledger.disbursements {
		s.disbursements[d.ApplicationID] = append(s.disbursements[d.ApplicationID], d)
	}
	s.applications[id] = next.Clone()
	return next, nil
}

// stagedLedger is only used while Store.mu is held for writing
type stagedLedger struct {
	store         *Store
	funds         map[string]domain.Fund
	disbursements []domain.Disbursement
}

func (l *stagedLedger) fund(id string) (domain.Fund, error) {
	if f, ok := l.funds[id]; ok {
		return f, nil
	}
	f, ok := l.store.funds[id]
	if !ok {
		return domain.Fund{}, &domain.NotFoundError{Kind: "fund", ID: id}
	}
	return f, nil
}

func (l *stagedLedger) Reserve(fundID string, amount decimal.Decimal) (domain.Fund, error) {
	f, err := l.fund(fundID)
	if err != nil {
		return domain.Fund{}, err
	}
	f, err = domain.ReserveFrom(f, amount)
	if err != nil {
		return domain.Fund{}, err
	}
	l.funds[fundID] = f
	return f, nil
}

func (l *stagedLedger) Disburse(fundID string, record domain.Disbursement) (domain.Fund, error) {
	f, err := l.fund(fundID)
	if err != nil {
		return domain.Fund{}, err
	}
	f, err = domain.DisburseFrom(f, record.Amount)
	if err != nil {
		return domain.Fund{}, err
	}
	l.funds[fundID] = f
	l.disbursements = append(l.disbursements, record)
	return f, nil
}

// Funds ----------------------------------------------------------------------

func (s *Store) CreateFund(_ context.Context, fund domain.Fund) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.funds[fund.ID]; exists {
		return &domain.PreconditionFailedError{Field: "id", Reason: "fund already exists"}
	}
	s.funds[fund.ID] = fund
	return nil
}

func (s *Store) GetFund(_ context.Context, id string) (domain.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.funds[id]
	if !ok {
		return domain.Fund{}, &domain.NotFoundError{Kind: "fund", ID: id}
	}
	return f, nil
}

func (s *Store) ListFunds(_ context.Context) ([]domain.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Fund, 0, len(s.funds))
	for _, f := range s.funds {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetFundStatus(_ context.Context, id string, status domain.FundStatus) (domain.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.funds[id]
	if !ok {
		return domain.Fund{}, &domain.NotFoundError{Kind: "fund", ID: id}
	}
	f.Status = status
	s.funds[id] = f
	return f, nil
}

func (s *Store) ListDisbursements(_ context.Context, applicationID string) ([]domain.Disbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Disbursement{}, s.disbursements[applicationID]...), nil
}

// Events ---------------------------------------------------------------------

func (s *Store) AppendEvent(_ context.Context, event domain.LifecycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[event.ApplicationID] = append(s.events[event.ApplicationID], event)
	return nil
}

func (s *Store) ListEvents(_ context.Context, applicationID string) ([]domain.LifecycleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.LifecycleEvent{}, s.events[applicationID]...), nil
}

// Deadlines ------------------------------------------------------------------

func (s *Store) UpsertDeadline(_ context.Context, deadline domain.Deadline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deadlines[deadline.AcademicYear] = deadline
	return nil
}

func (s *Store) GetDeadline(_ context.Context, academicYear string) (domain.Deadline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deadlines[academicYear]
	if !ok {
		return domain.Deadline{}, &domain.NotFoundError{Kind: "deadline", ID: academicYear}
	}
	return d, nil
}

func (s *Store) ListDeadlines(_ context.Context) ([]domain.Deadline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Deadline, 0, len(s.deadlines))
	for _, d := range s.deadlines {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AcademicYear < out[j].AcademicYear })
	return out, nil
}

// Users ----------------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, exists := s.usernames[key]; exists {
		return domain.ErrUserAlreadyExists
	}
	if _, exists := s.users[user.ID]; exists {
		return domain.ErrUserAlreadyExists
	}
	s.users[user.ID] = user
	s.usernames[key] = user.ID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, &domain.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[strings.ToLower(username)]
	if !ok {
		return domain.User{}, &domain.NotFoundError{Kind: "user", ID: username}
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return &domain.NotFoundError{Kind: "user", ID: user.ID}
	}
	s.users[user.ID] = user
	return nil
}
