package services

import (
	"context"

	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/metrics"

	"go.uber.org/zap"
)

// EventObserver consumes lifecycle events after a transition has committed
type EventObserver interface {
	Name() string
	Notify(ctx context.Context, event domain.LifecycleEvent) error
}

// EventDispatcher fans lifecycle events out to every registered observer.
// Observer failures are logged and counted, never returned to the caller.
type EventDispatcher struct {
	observers []EventObserver
	log       *zap.Logger
}

// NewEventDispatcher creates a dispatcher with the given observers
func NewEventDispatcher(log *zap.Logger, observers ...EventObserver) *EventDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventDispatcher{observers: observers, log: log}
}

// Register adds an observer
func (d *EventDispatcher) Register(o EventObserver) {
	d.observers = append(d.observers, o)
}

// Dispatch delivers event to each observer in registration order
func (d *EventDispatcher) Dispatch(ctx context.Context, event domain.LifecycleEvent) {
	for _, o := range d.observers {
		if err := o.Notify(ctx, event); err != nil {
			metrics.EventPublishFailures.WithLabelValues(o.Name()).Inc()
			d.log.Warn("lifecycle observer failed",
				zap.String("observer", o.Name()),
				zap.String("application_id", event.ApplicationID),
				zap.String("action", string(event.Action)),
				zap.Error(err),
			)
		}
	}
}

// HistoryRecorder appends every event to the application's history
type HistoryRecorder struct {
	store domain.EventStore
}

// NewHistoryRecorder creates a history observer
func NewHistoryRecorder(store domain.EventStore) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

func (h *HistoryRecorder) Name() string { return "history" }

func (h *HistoryRecorder) Notify(ctx context.Context, event domain.LifecycleEvent) error {
	return h.store.AppendEvent(ctx, event)
}

// TransitionLogger writes one structured log line per event
type TransitionLogger struct {
	log *zap.Logger
}

// NewTransitionLogger creates a logging observer
func NewTransitionLogger(log *zap.Logger) *TransitionLogger {
	return &TransitionLogger{log: log}
}

func (t *TransitionLogger) Name() string { return "log" }

func (t *TransitionLogger) Notify(_ context.Context, event domain.LifecycleEvent) error {
	fields := []zap.Field{
		zap.String("application_id", event.ApplicationID),
		zap.String("action", string(event.Action)),
		zap.String("from", string(event.FromStatus)),
		zap.String("to", string(event.ToStatus)),
		zap.String("actor_role", string(event.ActorRole)),
		zap.String("actor_id", event.ActorID),
	}
	if event.Amount != nil {
		fields = append(fields, zap.String("amount", event.Amount.StringFixed(2)))
	}
	t.log.Info("application transitioned", fields...)
	return nil
}
