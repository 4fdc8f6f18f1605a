package models

import (
	"encoding/json"
	"time"

	"bursary-portal/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ============================================================
// Accounts
// ============================================================

// User represents users table
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	FullName     string    `gorm:"size:150"`
	Role         string    `gorm:"size:20;index;not null"`
	IsActive     bool      `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) ToDomain() domain.User {
	return domain.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Role:         domain.Role(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func UserFromDomain(u domain.User) User {
	return User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ============================================================
// Applications
// ============================================================

// Application represents applications table
type Application struct {
	ID              string `gorm:"primaryKey;size:32"`
	StudentID       string `gorm:"size:36;index;not null"`
	StudentName     string `gorm:"size:150"`
	InstitutionType string `gorm:"size:50"`
	InstitutionName string `gorm:"size:150"`
	CourseOfStudy   string `gorm:"size:150"`
	FundCategory    string `gorm:"size:50;index"`
	AcademicYear    string `gorm:"size:20;index"`
	EducationLevel  string `gorm:"size:50"`

	RequestedAmount  decimal.Decimal     `gorm:"type:decimal(15,2);not null"`
	ApprovedAmount   decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	AllocationAmount decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	DisbursedAmount  decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	FundID           string              `gorm:"size:36;index"`

	Status            string `gorm:"size:30;index;not null"`
	DocumentsVerified bool   `gorm:"default:false"`

	ReviewComments  string `gorm:"type:text"`
	ReviewedBy      string `gorm:"size:36"`
	AllocationNotes string `gorm:"type:text"`
	AllocatedBy     string `gorm:"size:36"`
	DisbursedBy     string `gorm:"size:36"`

	CreatedAt   time.Time
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	ApprovedAt  *time.Time
	AllocatedAt *time.Time
	DisbursedAt *time.Time
	LastUpdated time.Time
}

func (Application) TableName() string {
	return "applications"
}

// ApplicationDocument represents application_documents table
type ApplicationDocument struct {
	ID            string `gorm:"primaryKey;size:36"`
	ApplicationID string `gorm:"size:32;index;not null"`
	Position      int    `gorm:"not null"`
	Name          string `gorm:"size:150;not null"`
	Required      bool
	Status        string `gorm:"size:20;not null"`
	URL           string `gorm:"size:500"`
	Remarks       string `gorm:"type:text"`
}

func (ApplicationDocument) TableName() string {
	return "application_documents"
}

func (a *Application) ToDomain(docs []ApplicationDocument) domain.Application {
	out := domain.Application{
		ID:                a.ID,
		StudentID:         a.StudentID,
		StudentName:       a.StudentName,
		InstitutionType:   a.InstitutionType,
		InstitutionName:   a.InstitutionName,
		CourseOfStudy:     a.CourseOfStudy,
		FundCategory:      a.FundCategory,
		AcademicYear:      a.AcademicYear,
		EducationLevel:    a.EducationLevel,
		RequestedAmount:   a.RequestedAmount,
		ApprovedAmount:    fromNull(a.ApprovedAmount),
		AllocationAmount:  fromNull(a.AllocationAmount),
		DisbursedAmount:   fromNull(a.DisbursedAmount),
		FundID:            a.FundID,
		Status:            domain.Status(a.Status),
		Documents:         make([]domain.Document, 0, len(docs)),
		DocumentsVerified: a.DocumentsVerified,
		ReviewComments:    a.ReviewComments,
		ReviewedBy:        a.ReviewedBy,
		AllocationNotes:   a.AllocationNotes,
		AllocatedBy:       a.AllocatedBy,
		DisbursedBy:       a.DisbursedBy,
		CreatedAt:         a.CreatedAt,
		SubmittedAt:       a.SubmittedAt,
		ReviewedAt:        a.ReviewedAt,
		ApprovedAt:        a.ApprovedAt,
		AllocatedAt:       a.AllocatedAt,
		DisbursedAt:       a.DisbursedAt,
		LastUpdated:       a.LastUpdated,
	}
	for _, d := range docs {
		out.Documents = append(out.Documents, domain.Document{
			ID:       d.ID,
			Name:     d.Name,
			Required: d.Required,
			Status:   domain.DocumentStatus(d.Status),
			URL:      d.URL,
			Remarks:  d.Remarks,
		})
	}
	return out
}

// ApplicationFromDomain splits a domain application into its row and document rows
func ApplicationFromDomain(a domain.Application) (Application, []ApplicationDocument) {
	row := Application{
		ID:                a.ID,
		StudentID:         a.StudentID,
		StudentName:       a.StudentName,
		InstitutionType:   a.InstitutionType,
		InstitutionName:   a.InstitutionName,
		CourseOfStudy:     a.CourseOfStudy,
		FundCategory:      a.FundCategory,
		AcademicYear:      a.AcademicYear,
		EducationLevel:    a.EducationLevel,
		RequestedAmount:   a.RequestedAmount,
		ApprovedAmount:    toNull(a.ApprovedAmount),
		AllocationAmount:  toNull(a.AllocationAmount),
		DisbursedAmount:   toNull(a.DisbursedAmount),
		FundID:            a.FundID,
		Status:            string(a.Status),
		DocumentsVerified: a.DocumentsVerified,
		ReviewComments:    a.ReviewComments,
		ReviewedBy:        a.ReviewedBy,
		AllocationNotes:   a.AllocationNotes,
		AllocatedBy:       a.AllocatedBy,
		DisbursedBy:       a.DisbursedBy,
		CreatedAt:         a.CreatedAt,
		SubmittedAt:       a.SubmittedAt,
		ReviewedAt:        a.ReviewedAt,
		ApprovedAt:        a.ApprovedAt,
		AllocatedAt:       a.AllocatedAt,
		DisbursedAt:       a.DisbursedAt,
		LastUpdated:       a.LastUpdated,
	}
	docs := make([]ApplicationDocument, 0, len(a.Documents))
	for i, d := range a.Documents {
		docs = append(docs, ApplicationDocument{
			ID:            d.ID,
			ApplicationID: a.ID,
			Position:      i,
			Name:          d.Name,
			Required:      d.Required,
			Status:        string(d.Status),
			URL:           d.URL,
			Remarks:       d.Remarks,
		})
	}
	return row, docs
}

// ============================================================
// Funds
// ============================================================

// Fund represents funds table
type Fund struct {
	ID              string          `gorm:"primaryKey;size:36"`
	Name            string          `gorm:"size:150;not null"`
	AcademicYear    string          `gorm:"size:20;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	DisbursedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Status          string          `gorm:"size:20;index;not null"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

func (Fund) TableName() string {
	return "funds"
}

func (f *Fund) ToDomain() domain.Fund {
	return domain.Fund{
		ID:              f.ID,
		Name:            f.Name,
		AcademicYear:    f.AcademicYear,
		Amount:          f.Amount,
		AllocatedAmount: f.AllocatedAmount,
		DisbursedAmount: f.DisbursedAmount,
		Status:          domain.FundStatus(f.Status),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func FundFromDomain(f domain.Fund) Fund {
	return Fund{
		ID:              f.ID,
		Name:            f.Name,
		AcademicYear:    f.AcademicYear,
		Amount:          f.Amount,
		AllocatedAmount: f.AllocatedAmount,
		DisbursedAmount: f.DisbursedAmount,
		Status:          string(f.Status),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Disbursement represents disbursements table. Method details are stored as JSON.
type Disbursement struct {
	ID            string          `gorm:"primaryKey;size:36"`
	ApplicationID string          `gorm:"size:32;index;not null"`
	FundID        string          `gorm:"size:36;index;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Method        string          `gorm:"size:20;not null"`
	Reference     string          `gorm:"size:100;not null"`
	Details       string          `gorm:"type:text"`
	DisbursedBy   string          `gorm:"size:36"`
	DisbursedAt   time.Time
}

func (Disbursement) TableName() string {
	return "disbursements"
}

func (d *Disbursement) ToDomain() domain.Disbursement {
	var details domain.MethodDetails
	_ = json.Unmarshal([]byte(d.Details), &details)
	return domain.Disbursement{
		ID:            d.ID,
		ApplicationID: d.ApplicationID,
		FundID:        d.FundID,
		Amount:        d.Amount,
		Method:        domain.DisbursementMethod(d.Method),
		Reference:     d.Reference,
		Details:       details,
		DisbursedBy:   d.DisbursedBy,
		DisbursedAt:   d.DisbursedAt,
	}
}

func DisbursementFromDomain(d domain.Disbursement) (Disbursement, error) {
	details, err := json.Marshal(d.Details)
	if err != nil {
		return Disbursement{}, err
	}
	return Disbursement{
		ID:            d.ID,
		ApplicationID: d.ApplicationID,
		FundID:        d.FundID,
		Amount:        d.Amount,
		Method:        string(d.Method),
		Reference:     d.Reference,
		Details:       string(details),
		DisbursedBy:   d.DisbursedBy,
		DisbursedAt:   d.DisbursedAt,
	}, nil
}

// ============================================================
// History & deadlines
// ============================================================

// LifecycleEvent represents lifecycle_events table
type LifecycleEvent struct {
	ID            string              `gorm:"primaryKey;size:36"`
	ApplicationID string              `gorm:"size:32;index;not null"`
	Action        string              `gorm:"size:30;not null"`
	FromStatus    string              `gorm:"size:30"`
	ToStatus      string              `gorm:"size:30"`
	ActorRole     string              `gorm:"size:20"`
	ActorID       string              `gorm:"size:36"`
	Comments      string              `gorm:"type:text"`
	Amount        decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	Timestamp     time.Time           `gorm:"index"`
}

func (LifecycleEvent) TableName() string {
	return "lifecycle_events"
}

func (e *LifecycleEvent) ToDomain() domain.LifecycleEvent {
	return domain.LifecycleEvent{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		Action:        domain.Action(e.Action),
		FromStatus:    domain.Status(e.FromStatus),
		ToStatus:      domain.Status(e.ToStatus),
		ActorRole:     domain.Role(e.ActorRole),
		ActorID:       e.ActorID,
		Comments:      e.Comments,
		Amount:        fromNull(e.Amount),
		Timestamp:     e.Timestamp,
	}
}

func LifecycleEventFromDomain(e domain.LifecycleEvent) LifecycleEvent {
	return LifecycleEvent{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		Action:        string(e.Action),
		FromStatus:    string(e.FromStatus),
		ToStatus:      string(e.ToStatus),
		ActorRole:     string(e.ActorRole),
		ActorID:       e.ActorID,
		Comments:      e.Comments,
		Amount:        toNull(e.Amount),
		Timestamp:     e.Timestamp,
	}
}

// Deadline represents deadlines table
type Deadline struct {
	AcademicYear string     `gorm:"primaryKey;size:20"`
	OpensAt      *time.Time `gorm:"column:opens_at"`
	ClosesAt     time.Time  `gorm:"not null"`
	UpdatedBy    string     `gorm:"size:36"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (Deadline) TableName() string {
	return "deadlines"
}

func (d *Deadline) ToDomain() domain.Deadline {
	return domain.Deadline{
		AcademicYear: d.AcademicYear,
		OpensAt:      d.OpensAt,
		ClosesAt:     d.ClosesAt,
		UpdatedBy:    d.UpdatedBy,
		UpdatedAt:    d.UpdatedAt,
	}
}

func DeadlineFromDomain(d domain.Deadline) Deadline {
	return Deadline{
		AcademicYear: d.AcademicYear,
		OpensAt:      d.OpensAt,
		ClosesAt:     d.ClosesAt,
		UpdatedBy:    d.UpdatedBy,
		UpdatedAt:    d.UpdatedAt,
	}
}

// All lists every table managed by AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&Application{},
		&ApplicationDocument{},
		&Fund{},
		&Disbursement{},
		&LifecycleEvent{},
		&Deadline{},
	}
}

func fromNull(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func toNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
