package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bursary-portal/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotificationService_Publishes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "bursary:events")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	svc := NewNotificationService(rdb, "bursary:events")
	require.True(t, svc.IsEnabled())

	require.NoError(t, svc.Notify(ctx, domain.LifecycleEvent{
		ApplicationID: "APP-1",
		Action:        domain.ActionAllocate,
		FromStatus:    domain.StatusPendingAllocation,
		ToStatus:      domain.StatusAllocated,
		ActorRole:     domain.RoleFAO,
		Amount:        amount(40000),
	}))

	select {
	case msg := <-sub.Channel():
		var n Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &n))
		assert.Equal(t, domain.RoleFDO, n.Audience)
		assert.Equal(t, "Application APP-1 allocated 40000.00, ready for disbursement", n.Message)
		assert.Equal(t, "APP-1", n.Event.ApplicationID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not received")
	}
}

func TestNotificationService_DisabledWithoutClient(t *testing.T) {
	svc := NewNotificationService(nil, "bursary:events")
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.Notify(context.Background(), domain.LifecycleEvent{ApplicationID: "APP-1"}))
}

func TestAudience(t *testing.T) {
	cases := map[domain.Status]domain.Role{
		domain.StatusSubmitted:         domain.RoleARO,
		domain.StatusUnderReview:       domain.RoleARO,
		domain.StatusPendingAllocation: domain.RoleFAO,
		domain.StatusAllocated:         domain.RoleFDO,
		domain.StatusDisbursed:         domain.RoleStudent,
		domain.StatusRejected:          domain.RoleStudent,
		domain.StatusCorrectionsNeeded: domain.RoleStudent,
	}
	for status, want := range cases {
		assert.Equal(t, want, audience(status), string(status))
	}
}

func TestEventDispatcher_ContinuesAfterFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	recorder := &recordingObserver{}

	d := NewEventDispatcher(log, failingObserver{})
	d.Register(NewTransitionLogger(log))
	d.Register(recorder)

	d.Dispatch(context.Background(), domain.LifecycleEvent{
		ApplicationID: "APP-9",
		Action:        domain.ActionReject,
		FromStatus:    domain.StatusUnderReview,
		ToStatus:      domain.StatusRejected,
	})

	require.Len(t, recorder.events, 1)
	assert.Equal(t, 1, logs.FilterMessage("lifecycle observer failed").Len())

	transitions := logs.FilterMessage("application transitioned").All()
	require.Len(t, transitions, 1)
	assert.Equal(t, "APP-9", transitions[0].ContextMap()["application_id"])
}
