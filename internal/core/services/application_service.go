package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/metrics"
	"bursary-portal/internal/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Review decisions accepted by ApplicationService.Review
const (
	DecisionUnderReview       = "under-review"
	DecisionCorrectionsNeeded = "corrections-needed"
	DecisionApproved          = "approved"
	DecisionRejected          = "rejected"
)

// ApplicationService is the single entry point for application lifecycle operations
type ApplicationService struct {
	store  domain.Store
	engine *domain.Engine
	events *EventDispatcher
	log    *zap.Logger
	now    func() time.Time
}

// NewApplicationService creates a new application service
func NewApplicationService(
	store domain.Store,
	engine *domain.Engine,
	events *EventDispatcher,
	log *zap.Logger,
) *ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = NewEventDispatcher(log)
	}
	return &ApplicationService{
		store:  store,
		engine: engine,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// WithClock replaces the time source
func (s *ApplicationService) WithClock(now func() time.Time) *ApplicationService {
	s.now = now
	return s
}

// ReviewInput represents an ARO review decision
type ReviewInput struct {
	Decision       string           `json:"decision"`
	Comments       string           `json:"comments"`
	ApprovedAmount *decimal.Decimal `json:"approvedAmount"`
	ForwardToFAO   bool             `json:"forwardToFAO"`
}

// AllocateInput represents an FAO allocation
type AllocateInput struct {
	Amount *decimal.Decimal `json:"amount"`
	FundID string           `json:"fundId"`
	Notes  string           `json:"notes"`
}

// ListApplicationsInput represents list applications input
type ListApplicationsInput struct {
	Query domain.Query
	Page  int
	Limit int
}

// ListApplicationsOutput represents list applications output
type ListApplicationsOutput struct {
	Applications []domain.Application `json:"applications"`
	Meta         *pagination.Meta     `json:"meta"`
}

// CreateDraft creates a draft application owned by the calling student
func (s *ApplicationService) CreateDraft(ctx context.Context, actor domain.Actor, input domain.DraftInput) (*domain.Application, error) {
	// Document IDs are always server assigned; they are primary keys in the MySQL store
	docs := make([]domain.Document, len(input.Documents))
	for i, d := range input.Documents {
		d.ID = newDocumentID()
		docs[i] = d
	}
	input.Documents = docs

	app, err := s.engine.NewDraft(newApplicationID(), actor, input, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.log.Info("draft created",
		zap.String("application_id", app.ID),
		zap.String("student_id", app.StudentID),
	)
	return &app, nil
}

// UpdateDraft edits the fields of a draft
func (s *ApplicationService) UpdateDraft(ctx context.Context, actor domain.Actor, id string, input domain.DraftInput) (*domain.Application, error) {
	app, err := s.store.ApplyTransition(ctx, id, func(current domain.Application, _ domain.FundLedger) (domain.Application, error) {
		return s.engine.UpdateDraft(current, actor, input, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// AttachDocument adds or replaces a supporting document
func (s *ApplicationService) AttachDocument(ctx context.Context, actor domain.Actor, id string, doc domain.Document) (*domain.Application, error) {
	// A document with the same name keeps its existing ID
	doc.ID = newDocumentID()
	app, err := s.store.ApplyTransition(ctx, id, func(current domain.Application, _ domain.FundLedger) (domain.Application, error) {
		return s.engine.AttachDocument(current, actor, doc, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// SubmitApplication moves a draft into the review queue. Submissions outside
// the academic year's deadline window are rejected.
func (s *ApplicationService) SubmitApplication(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error) {
	deadlines, err := s.store.ListDeadlines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}
	windows := make(map[string]domain.Deadline, len(deadlines))
	for _, d := range deadlines {
		windows[d.AcademicYear] = d
	}

	return s.transition(ctx, actor, id, domain.ActionSubmit, domain.Payload{}, func(current domain.Application) error {
		if d, ok := windows[current.AcademicYear]; ok && !d.Accepts(s.now()) {
			return &domain.PreconditionFailedError{
				Field:  "deadline",
				Reason: fmt.Sprintf("submissions for %s are closed", current.AcademicYear),
			}
		}
		return nil
	})
}

// Review applies an ARO decision
func (s *ApplicationService) Review(ctx context.Context, actor domain.Actor, id string, input ReviewInput) (*domain.Application, error) {
	var action domain.Action
	switch input.Decision {
	case DecisionUnderReview:
		action = domain.ActionStartReview
	case DecisionCorrectionsNeeded:
		action = domain.ActionRequestCorrections
	case DecisionApproved:
		action = domain.ActionApprove
		if input.ForwardToFAO {
			action = domain.ActionApproveAndForward
		}
	case DecisionRejected:
		action = domain.ActionReject
	default:
		return nil, &domain.PreconditionFailedError{Field: "decision", Reason: fmt.Sprintf("unknown decision %q", input.Decision)}
	}

	return s.transition(ctx, actor, id, action, domain.Payload{
		Comments:       input.Comments,
		ApprovedAmount: input.ApprovedAmount,
	}, nil)
}

// ForwardToFAO sends an approved application to the allocation queue
func (s *ApplicationService) ForwardToFAO(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error) {
	return s.transition(ctx, actor, id, domain.ActionForwardToFAO, domain.Payload{}, nil)
}

// RequestCorrections returns an application to the student listing the missing documents
func (s *ApplicationService) RequestCorrections(ctx context.Context, actor domain.Actor, id string, missing []string) (*domain.Application, error) {
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		if m = strings.TrimSpace(m); m != "" {
			names = append(names, m)
		}
	}
	if len(names) == 0 {
		return nil, &domain.PreconditionFailedError{Field: "missingDocuments", Reason: "at least one document is required"}
	}

	return s.transition(ctx, actor, id, domain.ActionRequestCorrections, domain.Payload{
		Comments:         "Please provide the following documents: " + strings.Join(names, ", "),
		MissingDocuments: names,
	}, nil)
}

// Allocate reserves money from a fund for an application
func (s *ApplicationService) Allocate(ctx context.Context, actor domain.Actor, id string, input AllocateInput) (*domain.Application, error) {
	return s.transition(ctx, actor, id, domain.ActionAllocate, domain.Payload{
		AllocationAmount: input.Amount,
		FundID:           input.FundID,
		Notes:            input.Notes,
	}, nil)
}

// Disburse pays out an allocated application
func (s *ApplicationService) Disburse(ctx context.Context, actor domain.Actor, id string, input domain.DisbursementDetails) (*domain.Application, error) {
	return s.transition(ctx, actor, id, domain.ActionDisburse, domain.Payload{
		Disbursement: &input,
	}, nil)
}

// VerifyDocuments records document verification results
func (s *ApplicationService) VerifyDocuments(ctx context.Context, actor domain.Actor, id string, results []domain.DocumentResult) (*domain.Application, error) {
	start := time.Now()
	app, err := s.store.ApplyTransition(ctx, id, func(current domain.Application, _ domain.FundLedger) (domain.Application, error) {
		return s.engine.VerifyDocuments(current, actor, results, s.now())
	})
	metrics.TransitionDuration.WithLabelValues(string(domain.ActionVerifyDocuments)).Observe(time.Since(start).Seconds())
	if err != nil {
		s.rejected(domain.ActionVerifyDocuments, id, actor, err)
		return nil, err
	}

	s.log.Info("documents verified",
		zap.String("application_id", id),
		zap.Bool("documents_verified", app.DocumentsVerified),
		zap.String("actor_id", actor.ID),
	)
	return &app, nil
}

// transition runs action through the engine inside the store's serialized
// mutation, applies fund side effects, and dispatches the resulting event.
func (s *ApplicationService) transition(
	ctx context.Context,
	actor domain.Actor,
	id string,
	action domain.Action,
	payload domain.Payload,
	guard func(current domain.Application) error,
) (*domain.Application, error) {
	start := time.Now()
	defer func() {
		metrics.TransitionDuration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	}()

	var (
		from domain.Status
		fund *domain.Fund
	)
	app, err := s.store.ApplyTransition(ctx, id, func(current domain.Application, ledger domain.FundLedger) (domain.Application, error) {
		from = current.Status
		next, err := s.engine.Transition(current, action, actor, payload, s.now())
		if err != nil {
			return domain.Application{}, err
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return domain.Application{}, err
			}
		}

		switch action {
		case domain.ActionAllocate:
			f, err := ledger.Reserve(next.FundID, *next.AllocationAmount)
			if err != nil {
				return domain.Application{}, err
			}
			fund = &f
		case domain.ActionDisburse:
			d := payload.Disbursement
			f, err := ledger.Disburse(next.FundID, domain.Disbursement{
				ID:            uuid.NewString(),
				ApplicationID: next.ID,
				FundID:        next.FundID,
				Amount:        *next.DisbursedAmount,
				Method:        d.Method,
				Reference:     strings.TrimSpace(d.Reference),
				Details:       d.Details,
				DisbursedBy:   actor.ID,
				DisbursedAt:   *next.DisbursedAt,
			})
			if err != nil {
				return domain.Application{}, err
			}
			fund = &f
		}
		return next, nil
	})
	if err != nil {
		s.rejected(action, id, actor, err)
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(action), string(from), string(app.Status)).Inc()
	if fund != nil {
		metrics.FundRemaining.WithLabelValues(fund.ID).Set(fund.Remaining().InexactFloat64())
	}

	s.events.Dispatch(ctx, domain.LifecycleEvent{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Action:        action,
		FromStatus:    from,
		ToStatus:      app.Status,
		ActorRole:     actor.Role,
		ActorID:       actor.ID,
		Comments:      strings.TrimSpace(payload.Comments),
		Amount:        eventAmount(action, app),
		Timestamp:     app.LastUpdated,
	})
	return &app, nil
}

func (s *ApplicationService) rejected(action domain.Action, id string, actor domain.Actor, err error) {
	reason := rejectionReason(err)
	metrics.TransitionsRejected.WithLabelValues(string(action), reason).Inc()
	if reason == "internal" {
		s.log.Error("lifecycle operation failed",
			zap.String("application_id", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("lifecycle operation rejected",
		zap.String("application_id", id),
		zap.String("action", string(action)),
		zap.String("actor_role", string(actor.Role)),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, domain.ErrFundExhausted):
		return "fund_exhausted"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "internal"
}

func eventAmount(action domain.Action, app domain.Application) *decimal.Decimal {
	switch action {
	case domain.ActionApprove, domain.ActionApproveAndForward:
		return app.ApprovedAmount
	case domain.ActionAllocate:
		return app.AllocationAmount
	case domain.ActionDisburse:
		return app.DisbursedAmount
	}
	return nil
}

// Get returns one application visible to actor
func (s *ApplicationService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(domain.VisibleTo([]domain.Application{app}, actor)) == 0 {
		return nil, &domain.PermissionDeniedError{Role: actor.Role, Capability: domain.CapViewAll}
	}
	return &app, nil
}

// List searches the applications visible to actor with pagination
func (s *ApplicationService) List(ctx context.Context, actor domain.Actor, input *ListApplicationsInput) (*ListApplicationsOutput, error) {
	params := pagination.Normalize(input.Page, input.Limit)

	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	found := domain.Search(domain.VisibleTo(apps, actor), input.Query)
	start, end := params.Bounds(len(found))

	return &ListApplicationsOutput{
		Applications: found[start:end],
		Meta:         pagination.GetMeta(params, int64(len(found))),
	}, nil
}

// CountsByStatus returns the number of applications per status
func (s *ApplicationService) CountsByStatus(ctx context.Context, actor domain.Actor) (map[domain.Status]int, error) {
	if err := domain.Require(actor.Role, domain.CapViewAll); err != nil {
		return nil, err
	}
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return domain.CountsByStatus(apps), nil
}

// PendingForRole returns the queue of role. An empty role means the actor's own role.
func (s *ApplicationService) PendingForRole(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.Application, error) {
	if err := domain.Require(actor.Role, domain.CapViewAll); err != nil {
		return nil, err
	}
	if role == "" {
		role = actor.Role
	}
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return domain.PendingForRole(apps, role), nil
}

// History returns the lifecycle events of an application, oldest first
func (s *ApplicationService) History(ctx context.Context, actor domain.Actor, id string) ([]domain.LifecycleEvent, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

// Disbursements returns the payouts recorded against an application
func (s *ApplicationService) Disbursements(ctx context.Context, actor domain.Actor, id string) ([]domain.Disbursement, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.ListDisbursements(ctx, id)
}

func newApplicationID() string {
	return "APP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func newDocumentID() string {
	return "DOC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
