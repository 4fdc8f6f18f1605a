package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func completeApp(status Status) Application {
	return Application{
		ID:              "APP-1",
		StudentID:       "stu-1",
		StudentName:     "Amina Njoroge",
		InstitutionType: "university",
		InstitutionName: "Kenyatta University",
		CourseOfStudy:   "Nursing",
		FundCategory:    "tuition",
		AcademicYear:    "2026",
		EducationLevel:  "undergraduate",

		RequestedAmount:  decimal.NewFromInt(50000),
		ApprovedAmount:   dec(45000),
		AllocationAmount: dec(45000),

		Status:    status,
		Documents: []Document{
			{ID: "DOC-1", Name: "Admission letter", Required: true, Status: DocumentPending, URL: "https://files/admission.pdf"},
			{ID: "DOC-2", Name: "Fee structure", Required: false, Status: DocumentPending, URL: "https://files/fees.pdf"},
		},
		CreatedAt:   now.Add(-time.Hour),
		LastUpdated: now.Add(-time.Hour),
	}
}

func bankDisbursement() *DisbursementDetails {
	return &DisbursementDetails{
		Method:    MethodBank,
		Reference: "TRX-001",
		Details: MethodDetails{
			Bank: &BankDetails{BankName: "KCB", AccountName: "Kenyatta University", AccountNumber: "1100223344"},
		},
	}
}

func validPayload() Payload {
	return Payload{
		Comments:         "looks fine",
		ApprovedAmount:   dec(45000),
		AllocationAmount: dec(45000),
		FundID:           "F1",
		Disbursement:     bankDisbursement(),
	}
}

var (
	student    = Actor{ID: "stu-1", Role: RoleStudent}
	aro        = Actor{ID: "aro-1", Role: RoleARO}
	fao        = Actor{ID: "fao-1", Role: RoleFAO}
	fdo        = Actor{ID: "fdo-1", Role: RoleFDO}
	superadmin = Actor{ID: "admin", Role: RoleSuperadmin}
)

func TestTransition_TableCoversEveryStatus(t *testing.T) {
	engine := NewEngine(false)

	for _, edge := range Edges() {
		for _, from := range Statuses {
			app := completeApp(from)
			next, err := engine.Transition(app, edge.Action, superadmin, validPayload(), now)

			if edge.Allows(from) {
				require.NoError(t, err, "%s from %s", edge.Action, from)
				assert.Equal(t, edge.To, next.Status, "%s from %s", edge.Action, from)
				assert.Equal(t, now, next.LastUpdated)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", edge.Action, from)
		}
	}
}

func TestTransition_TerminalStatusesHaveNoExit(t *testing.T) {
	engine := NewEngine(false)

	for _, status := range []Status{StatusRejected, StatusDisbursed} {
		assert.True(t, status.IsTerminal())
		for _, edge := range Edges() {
			_, err := engine.Transition(completeApp(status), edge.Action, superadmin, validPayload(), now)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", edge.Action, status)
		}
	}
}

func TestTransition_UnknownAction(t *testing.T) {
	_, err := NewEngine(false).Transition(completeApp(StatusSubmitted), "archive", superadmin, validPayload(), now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_DoesNotModifyInput(t *testing.T) {
	app := completeApp(StatusSubmitted)
	app.ApprovedAmount = nil

	next, err := NewEngine(false).Transition(app, ActionApprove, aro, Payload{ApprovedAmount: dec(40000)}, now)
	require.NoError(t, err)

	assert.Equal(t, StatusSubmitted, app.Status)
	assert.Nil(t, app.ApprovedAmount)
	assert.Equal(t, StatusApproved, next.Status)
	assert.True(t, next.ApprovedAmount.Equal(decimal.NewFromInt(40000)))
}

func TestTransition_CommentsRequired(t *testing.T) {
	engine := NewEngine(false)

	for _, action := range []Action{ActionReject, ActionRequestCorrections} {
		for _, comments := range []string{"", "   "} {
			app := completeApp(StatusUnderReview)
			_, err := engine.Transition(app, action, aro, Payload{Comments: comments}, now)

			var pf *PreconditionFailedError
			require.ErrorAs(t, err, &pf, "%s with %q", action, comments)
			assert.Equal(t, "comments", pf.Field)
			assert.Equal(t, StatusUnderReview, app.Status)
		}
	}
}

func TestTransition_ApprovedAmountBoundedByRequested(t *testing.T) {
	engine := NewEngine(false)
	app := completeApp(StatusUnderReview)

	_, err := engine.Transition(app, ActionApprove, aro, Payload{ApprovedAmount: dec(50001)}, now)
	var pf *PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "approvedAmount", pf.Field)

	_, err = engine.Transition(app, ActionApprove, aro, Payload{ApprovedAmount: dec(0)}, now)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = engine.Transition(app, ActionApprove, aro, Payload{}, now)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	next, err := engine.Transition(app, ActionApprove, aro, Payload{ApprovedAmount: dec(50000)}, now)
	require.NoError(t, err)
	assert.True(t, next.ApprovedAmount.Equal(next.RequestedAmount))
	assert.Equal(t, aro.ID, next.ReviewedBy)
	require.NotNil(t, next.ApprovedAt)
}

func TestTransition_ApproveAndForwardScenario(t *testing.T) {
	app := completeApp(StatusSubmitted)
	app.ApprovedAmount = nil

	next, err := NewEngine(false).Transition(app, ActionApproveAndForward, aro, Payload{ApprovedAmount: dec(45000)}, now)
	require.NoError(t, err)

	assert.Equal(t, StatusPendingAllocation, next.Status)
	assert.True(t, next.ApprovedAmount.Equal(decimal.NewFromInt(45000)))
}

func TestTransition_CorrectionsWithoutCommentScenario(t *testing.T) {
	app := completeApp(StatusSubmitted)

	_, err := NewEngine(false).Transition(app, ActionRequestCorrections, aro, Payload{Comments: ""}, now)

	var pf *PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "comments", pf.Field)
	assert.Equal(t, StatusSubmitted, app.Status)
}

func TestTransition_StudentCannotReviewScenario(t *testing.T) {
	app := completeApp(StatusSubmitted)

	_, err := NewEngine(false).Transition(app, ActionApprove, student, Payload{ApprovedAmount: dec(100)}, now)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StatusSubmitted, app.Status)
}

func TestTransition_CapabilityCheckedBeforeFromState(t *testing.T) {
	_, err := NewEngine(false).Transition(completeApp(StatusDraft), ActionAllocate, aro, validPayload(), now)

	var pd *PermissionDeniedError
	require.ErrorAs(t, err, &pd)
	assert.Equal(t, CapAllocate, pd.Capability)
}

func TestTransition_SubmitRequiresOwnership(t *testing.T) {
	app := completeApp(StatusDraft)

	_, err := NewEngine(false).Transition(app, ActionSubmit, Actor{ID: "stu-2", Role: RoleStudent}, Payload{}, now)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	next, err := NewEngine(false).Transition(app, ActionSubmit, student, Payload{}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, next.Status)
	require.NotNil(t, next.SubmittedAt)
	assert.Equal(t, now, *next.SubmittedAt)
}

func TestTransition_SubmitChecksCompleteness(t *testing.T) {
	engine := NewEngine(false)

	app := completeApp(StatusDraft)
	app.CourseOfStudy = " "
	_, err := engine.Transition(app, ActionSubmit, student, Payload{}, now)
	var pf *PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "courseOfStudy", pf.Field)

	app = completeApp(StatusDraft)
	app.Documents[0].URL = ""
	_, err = engine.Transition(app, ActionSubmit, student, Payload{}, now)
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "documents", pf.Field)
	assert.Contains(t, pf.Reason, "Admission letter")

	app = completeApp(StatusDraft)
	app.Documents[1].URL = ""
	_, err = engine.Transition(app, ActionSubmit, student, Payload{}, now)
	assert.NoError(t, err, "optional documents may be missing")
}

func TestTransition_Allocation(t *testing.T) {
	engine := NewEngine(false)
	app := completeApp(StatusPendingAllocation)

	next, err := engine.Transition(app, ActionAllocate, fao, Payload{AllocationAmount: dec(30000), FundID: "F1", Notes: " first tranche "}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusAllocated, next.Status)
	assert.True(t, next.AllocationAmount.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, "F1", next.FundID)
	assert.Equal(t, "first tranche", next.AllocationNotes)
	assert.Equal(t, fao.ID, next.AllocatedBy)

	_, err = engine.Transition(app, ActionAllocate, fao, Payload{AllocationAmount: dec(45001), FundID: "F1"}, now)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = engine.Transition(app, ActionAllocate, fao, Payload{AllocationAmount: dec(100)}, now)
	var pf *PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "fundId", pf.Field)
}

func TestTransition_DisbursementDetails(t *testing.T) {
	engine := NewEngine(false)
	app := completeApp(StatusAllocated)

	tests := []struct {
		name    string
		details *DisbursementDetails
		field   string
	}{
		{"missing payload", nil, "method"},
		{"missing reference", &DisbursementDetails{Method: MethodBank, Details: bankDisbursement().Details}, "reference"},
		{"unknown method", &DisbursementDetails{Method: "crypto", Reference: "R1"}, "method"},
		{"incomplete cheque", &DisbursementDetails{
			Method: MethodCheque, Reference: "R1",
			Details: MethodDetails{Cheque: &ChequeDetails{ChequeNumber: "000123"}},
		}, "methodDetails"},
		{"two payloads", &DisbursementDetails{
			Method: MethodMobileMoney, Reference: "R1",
			Details: MethodDetails{
				MobileMoney: &MobileMoneyDetails{Provider: "M-Pesa", PhoneNumber: "+254700000000"},
				Cheque:      &ChequeDetails{ChequeNumber: "1", Payee: "X"},
			},
		}, "methodDetails"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Transition(app, ActionDisburse, fdo, Payload{Disbursement: tt.details}, now)
			var pf *PreconditionFailedError
			require.ErrorAs(t, err, &pf)
			assert.Equal(t, tt.field, pf.Field)
		})
	}

	next, err := engine.Transition(app, ActionDisburse, fdo, Payload{Disbursement: bankDisbursement()}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDisbursed, next.Status)
	assert.True(t, next.DisbursedAmount.Equal(*app.AllocationAmount))
}

func TestTransition_DocumentVerificationGate(t *testing.T) {
	app := completeApp(StatusApproved)

	_, err := NewEngine(true).Transition(app, ActionForwardToFAO, aro, Payload{}, now)
	var pf *PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "documentsVerified", pf.Field)

	_, err = NewEngine(false).Transition(app, ActionForwardToFAO, aro, Payload{}, now)
	assert.NoError(t, err)

	app.DocumentsVerified = true
	next, err := NewEngine(true).Transition(app, ActionForwardToFAO, aro, Payload{}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingAllocation, next.Status)
}

func TestTransition_RequestCorrectionsMarksDocuments(t *testing.T) {
	app := completeApp(StatusUnderReview)

	next, err := NewEngine(false).Transition(app, ActionRequestCorrections, aro, Payload{
		Comments:         "Please provide the following documents: admission letter",
		MissingDocuments: []string{"admission letter"},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, StatusCorrectionsNeeded, next.Status)
	assert.Equal(t, DocumentRejected, next.Documents[0].Status)
	assert.Equal(t, DocumentPending, next.Documents[1].Status)
	assert.False(t, next.DocumentsVerified)

	next, err = NewEngine(false).Transition(app, ActionRequestCorrections, aro, Payload{
		Comments:         "Please provide the following documents: passport",
		MissingDocuments: []string{"passport"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusCorrectionsNeeded, next.Status)
	assert.Equal(t, DocumentPending, next.Documents[0].Status)
	assert.Contains(t, next.ReviewComments, "passport")
}

func TestCorrectionsNeededOnlyLoopsBack(t *testing.T) {
	for action, edge := range transitions {
		if action == ActionRequestCorrections {
			assert.True(t, edge.Allows(StatusCorrectionsNeeded))
			assert.Equal(t, StatusCorrectionsNeeded, edge.To)
			continue
		}
		assert.False(t, edge.Allows(StatusCorrectionsNeeded), string(action))
	}

	_, err := NewEngine(false).Transition(completeApp(StatusCorrectionsNeeded), ActionSubmit, student, Payload{}, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAmountsLimitedToTwoDecimalPlaces(t *testing.T) {
	engine := NewEngine(false)
	fine := decimal.RequireFromString("45000.50")
	tooPrecise := decimal.RequireFromString("45000.005")

	assert.NoError(t, CheckAmount("amount", fine))
	assert.NoError(t, CheckAmount("amount", decimal.RequireFromString("1.100")))

	_, err := engine.NewDraft("APP-9", student, DraftInput{RequestedAmount: &tooPrecise}, now)
	var pf *PreconditionFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "requestedAmount", pf.Field)

	_, err = engine.UpdateDraft(completeApp(StatusDraft), student, DraftInput{RequestedAmount: &tooPrecise}, now)
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "requestedAmount", pf.Field)

	_, err = engine.Transition(completeApp(StatusUnderReview), ActionApprove, aro, Payload{ApprovedAmount: &tooPrecise}, now)
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "approvedAmount", pf.Field)

	next, err := engine.Transition(completeApp(StatusUnderReview), ActionApprove, aro, Payload{ApprovedAmount: &fine}, now)
	require.NoError(t, err)
	assert.True(t, next.ApprovedAmount.Equal(fine))

	small := decimal.RequireFromString("100.001")
	_, err = engine.Transition(completeApp(StatusPendingAllocation), ActionAllocate, fao, Payload{
		AllocationAmount: &small, FundID: "F1",
	}, now)
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "amount", pf.Field)
}

func TestVerifyDocuments(t *testing.T) {
	engine := NewEngine(false)
	app := completeApp(StatusUnderReview)

	next, err := engine.VerifyDocuments(app, aro, []DocumentResult{{DocumentID: "DOC-1", Status: DocumentVerified}}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, next.Status)
	assert.True(t, next.DocumentsVerified)
	assert.Equal(t, DocumentPending, app.Documents[0].Status)

	_, err = engine.VerifyDocuments(app, fao, []DocumentResult{{DocumentID: "DOC-1", Status: DocumentVerified}}, now)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = engine.VerifyDocuments(completeApp(StatusApproved), aro, []DocumentResult{{DocumentID: "DOC-1", Status: DocumentVerified}}, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = engine.VerifyDocuments(app, aro, []DocumentResult{{DocumentID: "DOC-9", Status: DocumentVerified}}, now)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = engine.VerifyDocuments(app, aro, nil, now)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestDrafts(t *testing.T) {
	engine := NewEngine(false)

	_, err := engine.NewDraft("APP-2", aro, DraftInput{RequestedAmount: dec(100)}, now)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = engine.NewDraft("APP-2", student, DraftInput{}, now)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	draft, err := engine.NewDraft("APP-2", student, DraftInput{
		StudentName:     " Amina ",
		RequestedAmount: dec(1000),
		Documents:       []Document{{ID: "DOC-A", Name: "ID card", Required: true, URL: "u", Status: DocumentVerified}},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, draft.Status)
	assert.Equal(t, "Amina", draft.StudentName)
	assert.Equal(t, student.ID, draft.StudentID)
	assert.Equal(t, DocumentPending, draft.Documents[0].Status)

	updated, err := engine.UpdateDraft(draft, student, DraftInput{InstitutionName: "Moi University"}, now)
	require.NoError(t, err)
	assert.Equal(t, "Amina", updated.StudentName)
	assert.Equal(t, "Moi University", updated.InstitutionName)

	_, err = engine.UpdateDraft(draft, Actor{ID: "stu-2", Role: RoleStudent}, DraftInput{}, now)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	submitted := draft
	submitted.Status = StatusSubmitted
	_, err = engine.UpdateDraft(submitted, student, DraftInput{}, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAttachDocument(t *testing.T) {
	engine := NewEngine(false)
	app := completeApp(StatusCorrectionsNeeded)
	app.Documents[0].Status = DocumentRejected

	next, err := engine.AttachDocument(app, student, Document{Name: "admission letter", URL: "https://files/new.pdf"}, now)
	require.NoError(t, err)
	require.Len(t, next.Documents, 2)
	assert.Equal(t, "DOC-1", next.Documents[0].ID)
	assert.True(t, next.Documents[0].Required)
	assert.Equal(t, DocumentPending, next.Documents[0].Status)
	assert.Equal(t, "https://files/new.pdf", next.Documents[0].URL)

	next, err = engine.AttachDocument(app, student, Document{ID: "DOC-3", Name: "Birth certificate", URL: "u"}, now)
	require.NoError(t, err)
	assert.Len(t, next.Documents, 3)

	next, err = engine.AttachDocument(app, student, Document{ID: "DOC-1", Name: "Transcript", URL: "u"}, now)
	require.NoError(t, err)
	require.Len(t, next.Documents, 3)
	assert.Equal(t, "Admission letter", next.Documents[0].Name)
	assert.Equal(t, "Transcript", next.Documents[2].Name)

	_, err = engine.AttachDocument(completeApp(StatusSubmitted), student, Document{Name: "x", URL: "u"}, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = engine.AttachDocument(app, student, Document{Name: "x"}, now)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}
