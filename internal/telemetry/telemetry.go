package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ldelorme/crm-backoffice/pkg/logger"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// Sink receives one record per attempted domain operation.
type Sink interface {
	Record(ctx context.Context, action string, outcome Outcome, fields map[string]interface{})
}

// Recorder publishes operation records onto the bus. Record never
// returns an error and never panics outward; telemetry must not be able
// to take a business operation down with it.
type Recorder struct {
	bus    *Bus
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(bus *Bus, logger *slog.Logger) *Recorder {
	return &Recorder{
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

func (r *Recorder) Record(ctx context.Context, action string, outcome Outcome, fields map[string]interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("telemetry record panicked", "action", action, "panic", rec)
		}
	}()

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["outcome"] = string(outcome)

	r.bus.Publish(ctx, BaseEvent{
		ID:        uuid.NewString(),
		Type:      action,
		Timestamp: r.now().UTC(),
		Data:      fields,
	})
}

// RegisterLogSink subscribes a handler that mirrors every record of the
// given actions into the structured log. The handler logs through the
// context so command-scoped fields set with logger.With come along.
func RegisterLogSink(bus *Bus, actions ...string) {
	for _, action := range actions {
		bus.Subscribe(action, func(ctx context.Context, event Event) error {
			logger.From(ctx).InfoContext(ctx, "domain operation",
				"action", event.EventType(),
				"event_id", event.EventID(),
				"occurred_at", event.OccurredAt(),
				"fields", event.Payload())
			return nil
		})
	}
}
