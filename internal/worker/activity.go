package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/event"
	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/boardpulse/boardpulse/internal/repository"
	"github.com/boardpulse/boardpulse/internal/service/activity"
)

// ActivityWorker is the handler behind the activity service's subscriptions:
// classify the event, append the ledger record, mirror it to ClickHouse.
type ActivityWorker struct {
	Ledger    *activity.Service
	Analytics repository.AnalyticsRepository // nil disables the mirror
	Registry  *event.Registry
	Log       *zap.Logger
}

func NewActivityWorker(ledger *activity.Service, analytics repository.AnalyticsRepository, reg *event.Registry, log *zap.Logger) *ActivityWorker {
	return &ActivityWorker{Ledger: ledger, Analytics: analytics, Registry: reg, Log: log}
}

func (w *ActivityWorker) Handle(ctx context.Context, ev model.DomainEvent) error {
	kind, err := w.Registry.Classify(ev.EventType())
	if err != nil {
		return err
	}

	stored, err := w.Ledger.Append(ctx, activity.FromEvent(ev, kind))
	if err != nil {
		return err
	}

	// Analytics is a best-effort mirror: a ClickHouse outage must not turn an
	// appended record into a dropped message.
	if w.Analytics != nil {
		if err := w.Analytics.InsertActivity(ctx, stored); err != nil {
			w.Log.Warn("analytics mirror failed",
				zap.String("activity", stored.ID),
				zap.Error(err))
		}
	}
	return nil
}
