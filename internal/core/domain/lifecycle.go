package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is a lifecycle operation requested by an actor
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionStartReview        Action = "start-review"
	ActionRequestCorrections Action = "request-corrections"
	ActionApprove            Action = "approve"
	ActionApproveAndForward  Action = "approve-and-forward"
	ActionForwardToFAO       Action = "forward-to-fao"
	ActionReject             Action = "reject"
	ActionAllocate           Action = "allocate"
	ActionDisburse           Action = "disburse"

	// ActionVerifyDocuments updates document state without moving the status
	ActionVerifyDocuments Action = "verify-documents"
)

// Edge is one row of the transition table
type Edge struct {
	Action       Action
	From         []Status
	To           Status
	Capabilities []string
}

// Allows reports whether the edge may fire from status s
func (e Edge) Allows(s Status) bool {
	for _, f := range e.From {
		if f == s {
			return true
		}
	}
	return false
}

// transitions is the complete lifecycle graph. Rejected and disbursed have no
// outgoing edges.
var transitions = map[Action]Edge{
	ActionSubmit: {
		Action:       ActionSubmit,
		From:         []Status{StatusDraft},
		To:           StatusSubmitted,
		Capabilities: []string{CapSubmitApplication},
	},
	ActionStartReview: {
		Action:       ActionStartReview,
		From:         []Status{StatusSubmitted, StatusUnderReview},
		To:           StatusUnderReview,
		Capabilities: []string{CapReview},
	},
	ActionRequestCorrections: {
		Action:       ActionRequestCorrections,
		From:         []Status{StatusSubmitted, StatusUnderReview, StatusCorrectionsNeeded},
		To:           StatusCorrectionsNeeded,
		Capabilities: []string{CapReview},
	},
	ActionApprove: {
		Action:       ActionApprove,
		From:         []Status{StatusSubmitted, StatusUnderReview},
		To:           StatusApproved,
		Capabilities: []string{CapApprove},
	},
	ActionApproveAndForward: {
		Action:       ActionApproveAndForward,
		From:         []Status{StatusSubmitted, StatusUnderReview},
		To:           StatusPendingAllocation,
		Capabilities: []string{CapApprove, CapSubmitToFAO},
	},
	ActionForwardToFAO: {
		Action:       ActionForwardToFAO,
		From:         []Status{StatusApproved},
		To:           StatusPendingAllocation,
		Capabilities: []string{CapSubmitToFAO},
	},
	ActionReject: {
		Action:       ActionReject,
		From:         []Status{StatusSubmitted, StatusUnderReview},
		To:           StatusRejected,
		Capabilities: []string{CapReject},
	},
	ActionAllocate: {
		Action:       ActionAllocate,
		From:         []Status{StatusPendingAllocation},
		To:           StatusAllocated,
		Capabilities: []string{CapAllocate},
	},
	ActionDisburse: {
		Action:       ActionDisburse,
		From:         []Status{StatusAllocated},
		To:           StatusDisbursed,
		Capabilities: []string{CapDisburse},
	},
}

// Edges returns a copy of the transition table
func Edges() []Edge {
	out := make([]Edge, 0, len(transitions))
	for _, a := range []Action{
		ActionSubmit, ActionStartReview, ActionRequestCorrections, ActionApprove,
		ActionApproveAndForward, ActionForwardToFAO, ActionReject, ActionAllocate, ActionDisburse,
	} {
		e := transitions[a]
		e.From = append([]Status(nil), e.From...)
		e.Capabilities = append([]string(nil), e.Capabilities...)
		out = append(out, e)
	}
	return out
}

// Target returns the status an action moves an application into
func Target(action Action) (Status, bool) {
	e, ok := transitions[action]
	return e.To, ok
}

// Payload carries the action-specific inputs of a transition
type Payload struct {
	Comments         string
	ApprovedAmount   *decimal.Decimal
	AllocationAmount *decimal.Decimal
	FundID           string
	Notes            string
	MissingDocuments []string
	Disbursement     *DisbursementDetails
}

// Engine validates and applies status transitions. It holds no state beyond
// its policy and performs no I/O.
type Engine struct {
	requireVerifiedDocuments bool
}

// NewEngine creates a transition engine. When requireVerifiedDocuments is set,
// forwarding an application to the FAO requires documentsVerified.
func NewEngine(requireVerifiedDocuments bool) *Engine {
	return &Engine{requireVerifiedDocuments: requireVerifiedDocuments}
}

// Transition validates action against app and returns the resulting record.
// app is never modified.
func (e *Engine) Transition(app Application, action Action, actor Actor, p Payload, now time.Time) (Application, error) {
	edge, ok := transitions[action]
	if !ok {
		return Application{}, &InvalidTransitionError{Action: action, From: app.Status, Role: actor.Role}
	}

	if err := Require(actor.Role, edge.Capabilities...); err != nil {
		return Application{}, err
	}

	if !edge.Allows(app.Status) {
		return Application{}, &InvalidTransitionError{Action: action, From: app.Status, To: edge.To, Role: actor.Role}
	}

	next := app.Clone()
	comments := strings.TrimSpace(p.Comments)

	switch action {
	case ActionSubmit:
		if err := checkOwner(app, actor); err != nil {
			return Application{}, err
		}
		if err := checkSubmittable(app); err != nil {
			return Application{}, err
		}
		next.SubmittedAt = &now

	case ActionStartReview:
		markReviewed(&next, actor, comments, now)

	case ActionRequestCorrections:
		if comments == "" {
			return Application{}, precondition("comments", "required when requesting corrections")
		}
		markMissing(&next, p.MissingDocuments)
		markReviewed(&next, actor, comments, now)

	case ActionApprove, ActionApproveAndForward:
		amount, err := checkApprovedAmount(app, p.ApprovedAmount)
		if err != nil {
			return Application{}, err
		}
		if action == ActionApproveAndForward {
			if err := e.checkForwardable(app); err != nil {
				return Application{}, err
			}
		}
		next.ApprovedAmount = &amount
		next.ApprovedAt = &now
		markReviewed(&next, actor, comments, now)

	case ActionForwardToFAO:
		if err := e.checkForwardable(app); err != nil {
			return Application{}, err
		}

	case ActionReject:
		if comments == "" {
			return Application{}, precondition("comments", "required when rejecting")
		}
		markReviewed(&next, actor, comments, now)

	case ActionAllocate:
		amount, err := checkAllocation(app, actor, p)
		if err != nil {
			return Application{}, err
		}
		next.AllocationAmount = &amount
		next.FundID = strings.TrimSpace(p.FundID)
		next.AllocationNotes = strings.TrimSpace(p.Notes)
		next.AllocatedBy = actor.ID
		next.AllocatedAt = &now

	case ActionDisburse:
		if err := checkDisbursement(p.Disbursement); err != nil {
			return Application{}, err
		}
		if app.AllocationAmount == nil {
			return Application{}, precondition("allocationAmount", "application has no allocation")
		}
		amount := *app.AllocationAmount
		next.DisbursedAmount = &amount
		next.DisbursedBy = actor.ID
		next.DisbursedAt = &now
	}

	next.Status = edge.To
	next.LastUpdated = now
	return next, nil
}

func (e *Engine) checkForwardable(app Application) error {
	if e.requireVerifiedDocuments && !app.DocumentsVerified {
		return precondition("documentsVerified", "documents must be verified before forwarding to FAO")
	}
	return nil
}

func markReviewed(app *Application, actor Actor, comments string, now time.Time) {
	if comments != "" {
		app.ReviewComments = comments
	}
	app.ReviewedBy = actor.ID
	app.ReviewedAt = &now
}

func checkOwner(app Application, actor Actor) error {
	if actor.Role == RoleStudent && app.StudentID != actor.ID {
		return denied(actor.Role, "ownership")
	}
	return nil
}

func checkSubmittable(app Application) error {
	fields := []struct {
		name  string
		value string
	}{
		{"studentName", app.StudentName},
		{"institutionType", app.InstitutionType},
		{"institutionName", app.InstitutionName},
		{"courseOfStudy", app.CourseOfStudy},
		{"fundCategory", app.FundCategory},
		{"academicYear", app.AcademicYear},
		{"educationLevel", app.EducationLevel},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return precondition(f.name, "required")
		}
	}
	if !app.RequestedAmount.IsPositive() {
		return precondition("requestedAmount", "must be greater than zero")
	}

	var missing []string
	for _, d := range app.Documents {
		if d.Required && !d.Present() {
			missing = append(missing, d.Name)
		}
	}
	if len(missing) > 0 {
		return precondition("documents", "missing required documents: "+strings.Join(missing, ", "))
	}
	return nil
}

// MoneyScale is the number of decimal places kept for every money amount
const MoneyScale = 2

// CheckAmount rejects amounts more precise than MoneyScale
func CheckAmount(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return precondition(field, fmt.Sprintf("at most %d decimal places", MoneyScale))
	}
	return nil
}

func checkApprovedAmount(app Application, amount *decimal.Decimal) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Decimal{}, precondition("approvedAmount", "required")
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, precondition("approvedAmount", "must be greater than zero")
	}
	if err := CheckAmount("approvedAmount", *amount); err != nil {
		return decimal.Decimal{}, err
	}
	if amount.GreaterThan(app.RequestedAmount) {
		return decimal.Decimal{}, precondition("approvedAmount",
			fmt.Sprintf("exceeds requested amount %s", app.RequestedAmount))
	}
	return *amount, nil
}

func checkAllocation(app Application, actor Actor, p Payload) (decimal.Decimal, error) {
	if p.AllocationAmount == nil {
		return decimal.Decimal{}, precondition("amount", "required")
	}
	amount := *p.AllocationAmount
	if !amount.IsPositive() {
		return decimal.Decimal{}, precondition("amount", "must be greater than zero")
	}
	if err := CheckAmount("amount", amount); err != nil {
		return decimal.Decimal{}, err
	}
	if strings.TrimSpace(p.FundID) == "" {
		return decimal.Decimal{}, precondition("fundId", "required")
	}
	if app.ApprovedAmount == nil {
		return decimal.Decimal{}, precondition("approvedAmount", "application has no approved amount")
	}
	if amount.GreaterThan(*app.ApprovedAmount) {
		return decimal.Decimal{}, precondition("amount",
			fmt.Sprintf("exceeds approved amount %s", app.ApprovedAmount))
	}
	if !CapabilitiesFor(actor.Role).CanEditAllocationAmount && !amount.Equal(*app.ApprovedAmount) {
		return decimal.Decimal{}, precondition("amount", "must equal approved amount")
	}
	return amount, nil
}

func checkDisbursement(d *DisbursementDetails) error {
	if d == nil {
		return precondition("method", "required")
	}
	if strings.TrimSpace(d.Reference) == "" {
		return precondition("reference", "required")
	}
	switch d.Method {
	case MethodBank:
		b := d.Details.Bank
		if b == nil || b.BankName == "" || b.AccountName == "" || b.AccountNumber == "" {
			return precondition("methodDetails", "bank name, account name and account number are required")
		}
	case MethodCheque:
		c := d.Details.Cheque
		if c == nil || c.ChequeNumber == "" || c.Payee == "" {
			return precondition("methodDetails", "cheque number and payee are required")
		}
	case MethodMobileMoney:
		m := d.Details.MobileMoney
		if m == nil || m.Provider == "" || m.PhoneNumber == "" {
			return precondition("methodDetails", "provider and phone number are required")
		}
	case "":
		return precondition("method", "required")
	default:
		return precondition("method", fmt.Sprintf("unsupported method %q", d.Method))
	}
	if n := d.Details.count(); n != 1 {
		return precondition("methodDetails", "exactly one method payload must be supplied")
	}
	return nil
}

func (m MethodDetails) count() int {
	n := 0
	if m.Bank != nil {
		n++
	}
	if m.Cheque != nil {
		n++
	}
	if m.MobileMoney != nil {
		n++
	}
	return n
}

// markMissing rejects the attached documents named in names. Names with no
// attached document stay in the review comment only.
func markMissing(app *Application, names []string) {
	for _, name := range names {
		for i := range app.Documents {
			if strings.EqualFold(app.Documents[i].Name, strings.TrimSpace(name)) {
				app.Documents[i].Status = DocumentRejected
			}
		}
	}
	app.DocumentsVerified = app.RequiredDocumentsVerified()
}

// DocumentResult is the verification outcome of one document
type DocumentResult struct {
	DocumentID string         `json:"documentId"`
	Status     DocumentStatus `json:"status"`
	Remarks    string         `json:"remarks,omitempty"`
}

// VerifyDocuments records verification results without changing the status
func (e *Engine) VerifyDocuments(app Application, actor Actor, results []DocumentResult, now time.Time) (Application, error) {
	if err := Require(actor.Role, CapVerifyDocuments); err != nil {
		return Application{}, err
	}
	switch app.Status {
	case StatusSubmitted, StatusUnderReview, StatusCorrectionsNeeded:
	default:
		return Application{}, &InvalidTransitionError{
			Action: ActionVerifyDocuments, From: app.Status, To: app.Status, Role: actor.Role,
		}
	}
	if len(results) == 0 {
		return Application{}, precondition("results", "at least one result is required")
	}

	next := app.Clone()
	for _, r := range results {
		switch r.Status {
		case DocumentVerified, DocumentRejected, DocumentPending:
		default:
			return Application{}, precondition("status", fmt.Sprintf("unknown document status %q", r.Status))
		}
		idx := -1
		for i := range next.Documents {
			if next.Documents[i].ID == r.DocumentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Application{}, precondition("documents", fmt.Sprintf("unknown document %q", r.DocumentID))
		}
		next.Documents[idx].Status = r.Status
		next.Documents[idx].Remarks = strings.TrimSpace(r.Remarks)
	}
	next.DocumentsVerified = next.RequiredDocumentsVerified()
	next.ReviewedBy = actor.ID
	next.LastUpdated = now
	return next, nil
}

// DraftInput holds the student-editable fields of an application
type DraftInput struct {
	StudentName     string           `json:"studentName"`
	InstitutionType string           `json:"institutionType"`
	InstitutionName string           `json:"institutionName"`
	CourseOfStudy   string           `json:"courseOfStudy"`
	FundCategory    string           `json:"fundCategory"`
	AcademicYear    string           `json:"academicYear"`
	EducationLevel  string           `json:"educationLevel"`
	RequestedAmount *decimal.Decimal `json:"requestedAmount"`
	Documents       []Document       `json:"documents"`
}

// NewDraft creates a draft application owned by the actor
func (e *Engine) NewDraft(id string, actor Actor, in DraftInput, now time.Time) (Application, error) {
	if err := Require(actor.Role, CapSubmitApplication); err != nil {
		return Application{}, err
	}
	if in.RequestedAmount == nil || !in.RequestedAmount.IsPositive() {
		return Application{}, precondition("requestedAmount", "must be greater than zero")
	}
	if err := CheckAmount("requestedAmount", *in.RequestedAmount); err != nil {
		return Application{}, err
	}

	app := Application{
		ID:              id,
		StudentID:       actor.ID,
		RequestedAmount: *in.RequestedAmount,
		Status:          StatusDraft,
		Documents:       []Document{},
		CreatedAt:       now,
		LastUpdated:     now,
	}
	applyDraftFields(&app, in)
	for _, d := range in.Documents {
		app.Documents = append(app.Documents, normalizeDocument(d))
	}
	app.DocumentsVerified = false
	return app, nil
}

// UpdateDraft replaces the non-empty fields of a draft
func (e *Engine) UpdateDraft(app Application, actor Actor, in DraftInput, now time.Time) (Application, error) {
	if err := Require(actor.Role, CapSubmitApplication); err != nil {
		return Application{}, err
	}
	if err := checkOwner(app, actor); err != nil {
		return Application{}, err
	}
	if app.Status != StatusDraft {
		return Application{}, &InvalidTransitionError{Action: "update-draft", From: app.Status, To: app.Status, Role: actor.Role}
	}

	next := app.Clone()
	applyDraftFields(&next, in)
	if in.RequestedAmount != nil {
		if !in.RequestedAmount.IsPositive() {
			return Application{}, precondition("requestedAmount", "must be greater than zero")
		}
		if err := CheckAmount("requestedAmount", *in.RequestedAmount); err != nil {
			return Application{}, err
		}
		next.RequestedAmount = *in.RequestedAmount
	}
	next.LastUpdated = now
	return next, nil
}

// AttachDocument adds or replaces a document on a draft or a returned application
func (e *Engine) AttachDocument(app Application, actor Actor, doc Document, now time.Time) (Application, error) {
	if err := Require(actor.Role, CapSubmitApplication); err != nil {
		return Application{}, err
	}
	if err := checkOwner(app, actor); err != nil {
		return Application{}, err
	}
	if app.Status != StatusDraft && app.Status != StatusCorrectionsNeeded {
		return Application{}, &InvalidTransitionError{Action: "attach-document", From: app.Status, To: app.Status, Role: actor.Role}
	}
	if strings.TrimSpace(doc.Name) == "" {
		return Application{}, precondition("name", "required")
	}
	if strings.TrimSpace(doc.URL) == "" {
		return Application{}, precondition("url", "required")
	}

	next := app.Clone()
	doc = normalizeDocument(doc)
	replaced := false
	for i := range next.Documents {
		if strings.EqualFold(next.Documents[i].Name, doc.Name) {
			doc.ID = next.Documents[i].ID
			doc.Required = doc.Required || next.Documents[i].Required
			next.Documents[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		next.Documents = append(next.Documents, doc)
	}
	next.DocumentsVerified = false
	next.LastUpdated = now
	return next, nil
}

func applyDraftFields(app *Application, in DraftInput) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&app.StudentName, in.StudentName)
	set(&app.InstitutionType, in.InstitutionType)
	set(&app.InstitutionName, in.InstitutionName)
	set(&app.CourseOfStudy, in.CourseOfStudy)
	set(&app.FundCategory, in.FundCategory)
	set(&app.AcademicYear, in.AcademicYear)
	set(&app.EducationLevel, in.EducationLevel)
}

func normalizeDocument(d Document) Document {
	d.Name = strings.TrimSpace(d.Name)
	d.URL = strings.TrimSpace(d.URL)
	d.Status = DocumentPending
	d.Remarks = ""
	return d
}
