package services

import (
	"context"

	"bursary-portal/internal/core/domain"
)

// Lifecycle is the application lifecycle API consumed by the HTTP layer.
// ApplicationService is the only implementation.
type Lifecycle interface {
	CreateDraft(ctx context.Context, actor domain.Actor, input domain.DraftInput) (*domain.Application, error)
	UpdateDraft(ctx context.Context, actor domain.Actor, id string, input domain.DraftInput) (*domain.Application, error)
	AttachDocument(ctx context.Context, actor domain.Actor, id string, doc domain.Document) (*domain.Application, error)
	SubmitApplication(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error)
	Review(ctx context.Context, actor domain.Actor, id string, input ReviewInput) (*domain.Application, error)
	ForwardToFAO(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error)
	RequestCorrections(ctx context.Context, actor domain.Actor, id string, missing []string) (*domain.Application, error)
	Allocate(ctx context.Context, actor domain.Actor, id string, input AllocateInput) (*domain.Application, error)
	Disburse(ctx context.Context, actor domain.Actor, id string, input domain.DisbursementDetails) (*domain.Application, error)
	VerifyDocuments(ctx context.Context, actor domain.Actor, id string, results []domain.DocumentResult) (*domain.Application, error)

	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error)
	List(ctx context.Context, actor domain.Actor, input *ListApplicationsInput) (*ListApplicationsOutput, error)
	CountsByStatus(ctx context.Context, actor domain.Actor) (map[domain.Status]int, error)
	PendingForRole(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.Application, error)
	History(ctx context.Context, actor domain.Actor, id string) ([]domain.LifecycleEvent, error)
	Disbursements(ctx context.Context, actor domain.Actor, id string) ([]domain.Disbursement, error)
}

var (
	_ Lifecycle     = (*ApplicationService)(nil)
	_ EventObserver = (*HistoryRecorder)(nil)
	_ EventObserver = (*TransitionLogger)(nil)
	_ EventObserver = (*NotificationService)(nil)
)
