package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bursary-portal/internal/adapters/persistence/memory"
	"bursary-portal/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	testNow    = time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	student    = domain.Actor{ID: "stu-1", Role: domain.RoleStudent}
	aro        = domain.Actor{ID: "aro-1", Role: domain.RoleARO}
	fao        = domain.Actor{ID: "fao-1", Role: domain.RoleFAO}
	fdo        = domain.Actor{ID: "fdo-1", Role: domain.RoleFDO}
	superadmin = domain.Actor{ID: "admin-1", Role: domain.RoleSuperadmin}
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// recordingObserver captures dispatched events
type recordingObserver struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (r *recordingObserver) Name() string { return "recorder" }

func (r *recordingObserver) Notify(_ context.Context, e domain.LifecycleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type failingObserver struct{}

func (failingObserver) Name() string { return "failing" }

func (failingObserver) Notify(context.Context, domain.LifecycleEvent) error {
	return errors.New("broker unavailable")
}

type fixture struct {
	store    *memory.Store
	svc      *ApplicationService
	recorder *recordingObserver
}

func newFixture(t *testing.T, observers ...EventObserver) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.New()
	recorder := &recordingObserver{}

	dispatcher := NewEventDispatcher(log, append([]EventObserver{NewHistoryRecorder(store), recorder}, observers...)...)
	svc := NewApplicationService(store, domain.NewEngine(false), dispatcher, log).
		WithClock(func() time.Time { return testNow })

	require.NoError(t, store.CreateFund(context.Background(), domain.Fund{
		ID: "F1", Name: "General", AcademicYear: "2026", Amount: decimal.NewFromInt(100000), Status: domain.FundActive,
	}))
	return &fixture{store: store, svc: svc, recorder: recorder}
}

func draftInput() domain.DraftInput {
	return domain.DraftInput{
		StudentName:     "Amina Njoroge",
		InstitutionType: "university",
		InstitutionName: "Kenyatta University",
		CourseOfStudy:   "Nursing",
		FundCategory:    "tuition",
		AcademicYear:    "2026",
		EducationLevel:  "undergraduate",
		RequestedAmount: amount(50000),
		Documents: []domain.Document{
			{Name: "Admission letter", Required: true, URL: "https://files/admission.pdf"},
		},
	}
}

func (f *fixture) submitted(t *testing.T) *domain.Application {
	t.Helper()
	ctx := context.Background()
	draft, err := f.svc.CreateDraft(ctx, student, draftInput())
	require.NoError(t, err)
	app, err := f.svc.SubmitApplication(ctx, student, draft.ID)
	require.NoError(t, err)
	return app
}

func TestCreateDraft_AssignsIDs(t *testing.T) {
	f := newFixture(t)

	draft, err := f.svc.CreateDraft(context.Background(), student, draftInput())
	require.NoError(t, err)

	assert.Regexp(t, `^APP-[0-9A-F]{10}$`, draft.ID)
	assert.Regexp(t, `^DOC-[0-9A-F]{8}$`, draft.Documents[0].ID)
	assert.Equal(t, domain.StatusDraft, draft.Status)
	assert.Equal(t, testNow, draft.CreatedAt)
	assert.Empty(t, f.recorder.events)
}

func TestDocumentIDsAreServerAssigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	input := draftInput()
	input.Documents[0].ID = "DOC-1"

	first, err := f.svc.CreateDraft(ctx, student, input)
	require.NoError(t, err)
	second, err := f.svc.CreateDraft(ctx, domain.Actor{ID: "stu-2", Role: domain.RoleStudent}, input)
	require.NoError(t, err)

	assert.Regexp(t, `^DOC-[0-9A-F]{8}$`, first.Documents[0].ID)
	assert.Regexp(t, `^DOC-[0-9A-F]{8}$`, second.Documents[0].ID)
	assert.NotEqual(t, first.Documents[0].ID, second.Documents[0].ID)
	assert.Equal(t, "DOC-1", input.Documents[0].ID)

	updated, err := f.svc.AttachDocument(ctx, student, first.ID, domain.Document{
		ID: second.Documents[0].ID, Name: "Fee structure", URL: "https://files/fees.pdf",
	})
	require.NoError(t, err)
	require.Len(t, updated.Documents, 2)
	assert.NotEqual(t, second.Documents[0].ID, updated.Documents[1].ID)

	replaced, err := f.svc.AttachDocument(ctx, student, first.ID, domain.Document{
		Name: "admission letter", URL: "https://files/admission-v2.pdf",
	})
	require.NoError(t, err)
	require.Len(t, replaced.Documents, 2)
	assert.Equal(t, first.Documents[0].ID, replaced.Documents[0].ID)
	assert.Equal(t, "https://files/admission-v2.pdf", replaced.Documents[0].URL)
}

func TestFullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	app := f.submitted(t)

	app, err := f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: DecisionUnderReview})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, app.Status)

	app, err = f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: DecisionApproved, ApprovedAmount: amount(45000), ForwardToFAO: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingAllocation, app.Status)

	app, err = f.svc.Allocate(ctx, fao, app.ID, AllocateInput{Amount: amount(40000), FundID: "F1", Notes: "semester one"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAllocated, app.Status)

	app, err = f.svc.Disburse(ctx, fdo, app.ID, domain.DisbursementDetails{
		Method:    domain.MethodMobileMoney,
		Reference: " MP-7781 ",
		Details:   domain.MethodDetails{MobileMoney: &domain.MobileMoneyDetails{Provider: "M-Pesa", PhoneNumber: "+254700000001"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisbursed, app.Status)
	assert.True(t, app.DisbursedAmount.Equal(decimal.NewFromInt(40000)))

	fund, err := f.store.GetFund(ctx, "F1")
	require.NoError(t, err)
	assert.True(t, fund.AllocatedAmount.Equal(decimal.NewFromInt(40000)))
	assert.True(t, fund.DisbursedAmount.Equal(decimal.NewFromInt(40000)))

	history, err := f.svc.History(ctx, aro, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	actions := make([]domain.Action, 0, len(history))
	for _, e := range history {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []domain.Action{
		domain.ActionSubmit, domain.ActionStartReview, domain.ActionApproveAndForward,
		domain.ActionAllocate, domain.ActionDisburse,
	}, actions)
	assert.Equal(t, domain.StatusUnderReview, history[2].FromStatus)
	assert.Equal(t, domain.StatusPendingAllocation, history[2].ToStatus)
	assert.True(t, history[3].Amount.Equal(decimal.NewFromInt(40000)))

	records, err := f.svc.Disbursements(ctx, fdo, app.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "MP-7781", records[0].Reference)
	assert.Equal(t, fdo.ID, records[0].DisbursedBy)
}

func TestReview_InvalidPayloadLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	app := f.submitted(t)
	before := len(f.recorder.events)

	_, err := f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: DecisionCorrectionsNeeded, Comments: ""})
	var pf *domain.PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "comments", pf.Field)

	_, err = f.svc.Review(ctx, student, app.ID, ReviewInput{Decision: DecisionApproved, ApprovedAmount: amount(100)})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: "maybe"})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	stored, err := f.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, stored.Status)
	assert.Len(t, f.recorder.events, before)
}

func TestAllocate_FundExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.CreateFund(ctx, domain.Fund{
		ID: "F-SMALL", Amount: decimal.NewFromInt(30000), Status: domain.FundActive,
	}))

	app := f.submitted(t)
	app, err := f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: DecisionApproved, ApprovedAmount: amount(45000), ForwardToFAO: true})
	require.NoError(t, err)
	events := len(f.recorder.events)

	_, err = f.svc.Allocate(ctx, fao, app.ID, AllocateInput{Amount: amount(45000), FundID: "F-SMALL"})
	var fe *domain.FundExhaustedError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Remaining.Equal(decimal.NewFromInt(30000)))

	fund, err := f.store.GetFund(ctx, "F-SMALL")
	require.NoError(t, err)
	assert.True(t, fund.AllocatedAmount.IsZero())

	stored, err := f.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingAllocation, stored.Status)
	assert.Nil(t, stored.AllocationAmount)
	assert.Empty(t, stored.FundID)
	assert.Len(t, f.recorder.events, events)

	_, err = f.svc.Allocate(ctx, fao, app.ID, AllocateInput{Amount: amount(45000), FundID: "F-404"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit_DeadlineWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	closed := testNow.Add(-24 * time.Hour)
	require.NoError(t, f.store.UpsertDeadline(ctx, domain.Deadline{AcademicYear: "2026", ClosesAt: closed}))

	draft, err := f.svc.CreateDraft(ctx, student, draftInput())
	require.NoError(t, err)

	_, err = f.svc.SubmitApplication(ctx, student, draft.ID)
	var pf *domain.PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "deadline", pf.Field)

	require.NoError(t, f.store.UpsertDeadline(ctx, domain.Deadline{AcademicYear: "2026", ClosesAt: testNow.Add(time.Hour)}))
	app, err := f.svc.SubmitApplication(ctx, student, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, app.Status)
}

func TestRequestCorrections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	app := f.submitted(t)

	_, err := f.svc.RequestCorrections(ctx, aro, app.ID, []string{" ", ""})
	var pf *domain.PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "missingDocuments", pf.Field)

	app, err = f.svc.RequestCorrections(ctx, aro, app.ID, []string{"Admission letter"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCorrectionsNeeded, app.Status)
	assert.Equal(t, "Please provide the following documents: Admission letter", app.ReviewComments)
	assert.Equal(t, domain.DocumentRejected, app.Documents[0].Status)

	last := f.recorder.events[len(f.recorder.events)-1]
	assert.Equal(t, app.ReviewComments, last.Comments)
}

func TestVerifyThenForward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	app := f.submitted(t)

	app, err := f.svc.VerifyDocuments(ctx, aro, app.ID, []domain.DocumentResult{
		{DocumentID: app.Documents[0].ID, Status: domain.DocumentVerified, Remarks: "original seen"},
	})
	require.NoError(t, err)
	assert.True(t, app.DocumentsVerified)
	assert.Equal(t, domain.StatusSubmitted, app.Status)

	app, err = f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: DecisionApproved, ApprovedAmount: amount(20000)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, app.Status)

	app, err = f.svc.ForwardToFAO(ctx, aro, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingAllocation, app.Status)
}

func TestObserverFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t, failingObserver{})

	app := f.submitted(t)
	assert.Equal(t, domain.StatusSubmitted, app.Status)
	assert.Len(t, f.recorder.events, 1)

	history, err := f.svc.History(context.Background(), aro, app.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestConcurrentAllocationsOfSameApplication(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	app := f.submitted(t)
	_, err := f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: DecisionApproved, ApprovedAmount: amount(10000), ForwardToFAO: true})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Allocate(ctx, fao, app.ID, AllocateInput{Amount: amount(10000), FundID: "F1"}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	fund, err := f.store.GetFund(ctx, "F1")
	require.NoError(t, err)
	assert.True(t, fund.AllocatedAmount.Equal(decimal.NewFromInt(10000)))
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mine := f.submitted(t)

	other := domain.Actor{ID: "stu-2", Role: domain.RoleStudent}
	draft, err := f.svc.CreateDraft(ctx, other, draftInput())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, other, mine.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = f.svc.Get(ctx, aro, "APP-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.svc.Get(ctx, student, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	list, err := f.svc.List(ctx, other, &ListApplicationsInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Applications, 1)
	assert.Equal(t, draft.ID, list.Applications[0].ID)
	assert.Equal(t, int64(1), list.Meta.Total)

	list, err = f.svc.List(ctx, aro, &ListApplicationsInput{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list.Applications, 1)
	assert.Equal(t, 2, list.Meta.TotalPages)
	assert.True(t, list.Meta.HasPrev)

	list, err = f.svc.List(ctx, aro, &ListApplicationsInput{Query: domain.Query{Statuses: []domain.Status{domain.StatusSubmitted}}})
	require.NoError(t, err)
	require.Len(t, list.Applications, 1)
	assert.Equal(t, mine.ID, list.Applications[0].ID)

	counts, err := f.svc.CountsByStatus(ctx, aro)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusSubmitted])
	assert.Equal(t, 1, counts[domain.StatusDraft])

	_, err = f.svc.CountsByStatus(ctx, student)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	pending, err := f.svc.PendingForRole(ctx, aro, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, mine.ID, pending[0].ID)

	pending, err = f.svc.PendingForRole(ctx, superadmin, domain.RoleFAO)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.History(ctx, other, mine.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}
