package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role represents an actor role in the bursary portal
type Role string

const (
	RoleStudent    Role = "student"
	RoleARO        Role = "ARO"
	RoleFAO        Role = "FAO"
	RoleFDO        Role = "FDO"
	RoleSuperadmin Role = "superadmin"
)

// Roles lists every known role
var Roles = []Role{RoleStudent, RoleARO, RoleFAO, RoleFDO, RoleSuperadmin}

// ParseRole converts a raw string into a known Role
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// IsStaff reports whether the role belongs to a bursary officer or admin
func (r Role) IsStaff() bool {
	switch r {
	case RoleARO, RoleFAO, RoleFDO, RoleSuperadmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of a lifecycle operation
type Actor struct {
	ID   string
	Role Role
}

// Status is the lifecycle status of an application
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSubmitted         Status = "submitted"
	StatusUnderReview       Status = "under-review"
	StatusCorrectionsNeeded Status = "corrections-needed"
	StatusApproved          Status = "approved"
	StatusPendingAllocation Status = "pending-allocation"
	StatusAllocated         Status = "allocated"
	StatusDisbursed         Status = "disbursed"
	StatusRejected          Status = "rejected"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusCorrectionsNeeded,
	StatusApproved,
	StatusPendingAllocation,
	StatusAllocated,
	StatusDisbursed,
	StatusRejected,
}

// ParseStatus converts a raw string into a known Status
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are permitted
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusDisbursed
}

// DocumentStatus is the verification state of a supporting document
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

// Document is a supporting document attached to an application
type Document struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Required bool           `json:"required"`
	Status   DocumentStatus `json:"status"`
	URL      string         `json:"url"`
	Remarks  string         `json:"remarks,omitempty"`
}

// Present reports whether the student has supplied the document
func (d Document) Present() bool {
	return d.URL != ""
}

// Application is a student's bursary funding application
type Application struct {
	ID              string `json:"id"`
	StudentID       string `json:"studentId"`
	StudentName     string `json:"studentName"`
	InstitutionType string `json:"institutionType"`
	InstitutionName string `json:"institutionName"`
	CourseOfStudy   string `json:"courseOfStudy"`
	FundCategory    string `json:"fundCategory"`
	AcademicYear    string `json:"academicYear"`
	EducationLevel  string `json:"educationLevel"`

	RequestedAmount  decimal.Decimal  `json:"requestedAmount"`
	ApprovedAmount   *decimal.Decimal `json:"approvedAmount,omitempty"`
	AllocationAmount *decimal.Decimal `json:"allocationAmount,omitempty"`
	DisbursedAmount  *decimal.Decimal `json:"disbursedAmount,omitempty"`
	FundID           string           `json:"fundId,omitempty"`

	Status            Status     `json:"status"`
	Documents         []Document `json:"documents"`
	DocumentsVerified bool       `json:"documentsVerified"`

	ReviewComments  string `json:"reviewComments,omitempty"`
	ReviewedBy      string `json:"reviewedBy,omitempty"`
	AllocationNotes string `json:"allocationNotes,omitempty"`
	AllocatedBy     string `json:"allocatedBy,omitempty"`
	DisbursedBy     string `json:"disbursedBy,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	AllocatedAt *time.Time `json:"allocatedAt,omitempty"`
	DisbursedAt *time.Time `json:"disbursedAt,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// Clone returns a copy that shares no mutable state with the receiver
func (a Application) Clone() Application {
	out := a
	if a.Documents != nil {
		out.Documents = make([]Document, len(a.Documents))
		copy(out.Documents, a.Documents)
	}
	out.ApprovedAmount = cloneDecimal(a.ApprovedAmount)
	out.AllocationAmount = cloneDecimal(a.AllocationAmount)
	out.DisbursedAmount = cloneDecimal(a.DisbursedAmount)
	out.SubmittedAt = cloneTime(a.SubmittedAt)
	out.ReviewedAt = cloneTime(a.ReviewedAt)
	out.ApprovedAt = cloneTime(a.ApprovedAt)
	out.AllocatedAt = cloneTime(a.AllocatedAt)
	out.DisbursedAt = cloneTime(a.DisbursedAt)
	return out
}

// SortDate is the date used when ordering applications by date
func (a Application) SortDate() time.Time {
	if a.SubmittedAt != nil {
		return *a.SubmittedAt
	}
	return a.CreatedAt
}

// RequiredDocumentsVerified reports whether every required document is verified
func (a Application) RequiredDocumentsVerified() bool {
	for _, d := range a.Documents {
		if d.Required && d.Status != DocumentVerified {
			return false
		}
	}
	return true
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// FundStatus is the lifecycle state of a fund
type FundStatus string

const (
	FundActive   FundStatus = "active"
	FundClosed   FundStatus = "closed"
	FundPending  FundStatus = "pending"
	FundDepleted FundStatus = "depleted"
)

// Fund is a budget pool scoped to an academic year
type Fund struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	AcademicYear    string          `json:"academicYear"`
	Amount          decimal.Decimal `json:"amount"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	DisbursedAmount decimal.Decimal `json:"disbursedAmount"`
	Status          FundStatus      `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Remaining is the unallocated balance of the fund
func (f Fund) Remaining() decimal.Decimal {
	return f.Amount.Sub(f.AllocatedAmount)
}

// DisbursementMethod is the payment channel used to pay out
type DisbursementMethod string

const (
	MethodBank        DisbursementMethod = "bank"
	MethodCheque      DisbursementMethod = "cheque"
	MethodMobileMoney DisbursementMethod = "mobile-money"
)

// BankDetails holds bank transfer details
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	Branch        string `json:"branch,omitempty"`
}

// ChequeDetails holds cheque details
type ChequeDetails struct {
	ChequeNumber string `json:"chequeNumber"`
	Payee        string `json:"payee"`
}

// MobileMoneyDetails holds mobile money details
type MobileMoneyDetails struct {
	Provider    string `json:"provider"`
	PhoneNumber string `json:"phoneNumber"`
}

// MethodDetails carries exactly one method-specific payload
type MethodDetails struct {
	Bank        *BankDetails        `json:"bank,omitempty"`
	Cheque      *ChequeDetails      `json:"cheque,omitempty"`
	MobileMoney *MobileMoneyDetails `json:"mobileMoney,omitempty"`
}

// DisbursementDetails is the payload of a disburse action
type DisbursementDetails struct {
	Method    DisbursementMethod `json:"method"`
	Reference string             `json:"reference"`
	Details   MethodDetails      `json:"methodDetails"`
}

// Disbursement records a payout of an allocated application
type Disbursement struct {
	ID            string             `json:"id"`
	ApplicationID string             `json:"applicationId"`
	FundID        string             `json:"fundId"`
	Amount        decimal.Decimal    `json:"amount"`
	Method        DisbursementMethod `json:"method"`
	Reference     string             `json:"reference"`
	Details       MethodDetails      `json:"methodDetails"`
	DisbursedBy   string             `json:"disbursedBy"`
	DisbursedAt   time.Time          `json:"disbursedAt"`
}

// LifecycleEvent is emitted after every successful transition
type LifecycleEvent struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"applicationId"`
	Action        Action           `json:"action"`
	FromStatus    Status           `json:"fromStatus"`
	ToStatus      Status           `json:"toStatus"`
	ActorRole     Role             `json:"actorRole"`
	ActorID       string           `json:"actorId"`
	Comments      string           `json:"comments,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Deadline is the submission window of an academic year
type Deadline struct {
	AcademicYear string     `json:"academicYear"`
	OpensAt      *time.Time `json:"opensAt,omitempty"`
	ClosesAt     time.Time  `json:"closesAt"`
	UpdatedBy    string     `json:"updatedBy,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Accepts reports whether a submission at t falls inside the window
func (d Deadline) Accepts(t time.Time) bool {
	if d.OpensAt != nil && t.Before(*d.OpensAt) {
		return false
	}
	return !t.After(d.ClosesAt)
}

// User is a portal account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
