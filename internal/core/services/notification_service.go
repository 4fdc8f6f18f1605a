package services

import (
	"context"
	"encoding/json"
	"fmt"

	"bursary-portal/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

// Publisher is the subset of the redis client used for notifications
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Notification is the message published for each lifecycle event
type Notification struct {
	Event   domain.LifecycleEvent `json:"event"`
	Message string                `json:"message"`
	// Audience is the role whose queue the application just entered, or
	// "student" when the outcome concerns the applicant.
	Audience domain.Role `json:"audience"`
}

// NotificationService publishes lifecycle events to a Redis pub/sub channel
type NotificationService struct {
	client  Publisher
	channel string
}

// NewNotificationService creates a new notification service. A nil client
// disables publishing.
func NewNotificationService(client Publisher, channel string) *NotificationService {
	return &NotificationService{client: client, channel: channel}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.client != nil
}

func (s *NotificationService) Name() string { return "redis" }

// Notify publishes event. It implements EventObserver.
func (s *NotificationService) Notify(ctx context.Context, event domain.LifecycleEvent) error {
	if !s.IsEnabled() {
		return nil
	}

	payload, err := json.Marshal(Notification{
		Event:    event,
		Message:  describe(event),
		Audience: audience(event.ToStatus),
	})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

func audience(status domain.Status) domain.Role {
	switch status {
	case domain.StatusSubmitted, domain.StatusUnderReview:
		return domain.RoleARO
	case domain.StatusPendingAllocation:
		return domain.RoleFAO
	case domain.StatusAllocated:
		return domain.RoleFDO
	}
	return domain.RoleStudent
}

func describe(e domain.LifecycleEvent) string {
	amount := ""
	if e.Amount != nil {
		amount = e.Amount.StringFixed(2)
	}

	switch e.ToStatus {
	case domain.StatusSubmitted:
		return fmt.Sprintf("New application %s submitted for review", e.ApplicationID)
	case domain.StatusUnderReview:
		return fmt.Sprintf("Application %s is under review", e.ApplicationID)
	case domain.StatusCorrectionsNeeded:
		return fmt.Sprintf("Application %s needs corrections: %s", e.ApplicationID, e.Comments)
	case domain.StatusApproved:
		return fmt.Sprintf("Application %s approved for %s", e.ApplicationID, amount)
	case domain.StatusPendingAllocation:
		return fmt.Sprintf("Application %s is awaiting fund allocation", e.ApplicationID)
	case domain.StatusAllocated:
		return fmt.Sprintf("Application %s allocated %s, ready for disbursement", e.ApplicationID, amount)
	case domain.StatusDisbursed:
		return fmt.Sprintf("Application %s disbursed %s", e.ApplicationID, amount)
	case domain.StatusRejected:
		return fmt.Sprintf("Application %s rejected: %s", e.ApplicationID, e.Comments)
	}
	return fmt.Sprintf("Application %s moved to %s", e.ApplicationID, e.ToStatus)
}
