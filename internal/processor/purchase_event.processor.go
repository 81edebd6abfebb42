package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gateway "github.com/nimasrn/classroom-points/internal/gateways"
	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/internal/queue"
	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/nimasrn/classroom-points/pkg/prom"
)

var ErrInvalidEvent = errors.New("invalid purchase event")

type Notifier interface {
	Deliver(ctx context.Context, d *gateway.Delivery) (*gateway.Receipt, error)
}

type NotificationReportRepository interface {
	Create(ctx context.Context, nr *model.NotificationReport) (*model.NotificationReport, error)
}

// PurchaseEventProcessor forwards purchase events to the webhook endpoints
// and records one notification report per event.
type PurchaseEventProcessor struct {
	notifier    Notifier
	reports     NotificationReportRepository
	idempotency *IdempotencyService
}

func NewPurchaseEventProcessor(notifier Notifier, reports NotificationReportRepository, idempotency *IdempotencyService) *PurchaseEventProcessor {
	return &PurchaseEventProcessor{
		notifier:    notifier,
		reports:     reports,
		idempotency: idempotency,
	}
}

func (p *PurchaseEventProcessor) GetType() string {
	return "purchase_event"
}

func (p *PurchaseEventProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var event model.PurchaseEvent
	if err := msg.Decode(&event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.EventID == "" || event.Type == "" {
		return fmt.Errorf("%w: missing event id or type in message %s", ErrInvalidEvent, msg.ID)
	}

	pc, err := p.idempotency.AcquireProcessingLock(ctx, event.EventID)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		logger.Debug("event already delivered, skipping", "event_id", event.EventID)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		logger.Error("giving up on event", "event_id", event.EventID, "purchase_id", event.Purchase.ID)
		p.report(ctx, &event, model.NotificationFailed, "", nil)
		prom.IncNotificationDelivery(string(event.Type), string(model.NotificationFailed))
		return nil
	case err != nil:
		return err
	}
	defer func() {
		_ = p.idempotency.ReleaseLock(ctx, pc)
	}()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	receipt, err := p.notifier.Deliver(ctx, &gateway.Delivery{
		EventID: event.EventID,
		Type:    string(event.Type),
		Payload: payload,
	})
	if err != nil {
		if markErr := p.idempotency.MarkFailure(ctx, pc, err); markErr != nil {
			logger.Error("failed to mark failure", "event_id", event.EventID, "error", markErr)
		}
		return err
	}

	deliveredAt := receipt.ReceivedAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now().UTC()
	}
	p.report(ctx, &event, model.NotificationDelivered, receipt.Endpoint, &deliveredAt)
	prom.IncNotificationDelivery(string(event.Type), string(model.NotificationDelivered))
	prom.AddNotificationDeliveryDuration(deliveredAt.Sub(event.OccurredAt).Seconds(), string(event.Type))

	if err := p.idempotency.MarkSuccess(ctx, pc); err != nil {
		logger.Error("failed to mark success", "event_id", event.EventID, "error", err)
	}

	logger.Info("purchase event delivered",
		"event_id", event.EventID,
		"type", event.Type,
		"purchase_id", event.Purchase.ID,
		"endpoint", receipt.Endpoint,
		"retry_count", pc.RetryCount)
	return nil
}

// report stores the outcome. A failed write is logged and never retried, so
// the webhook is not sent twice because of it.
func (p *PurchaseEventProcessor) report(ctx context.Context, event *model.PurchaseEvent, status model.NotificationStatus, endpoint string, at *time.Time) {
	_, err := p.reports.Create(ctx, &model.NotificationReport{
		EventID:     event.EventID,
		PurchaseID:  event.Purchase.ID,
		EventType:   event.Type,
		Status:      status,
		Endpoint:    endpoint,
		DeliveredAt: at,
	})
	if err != nil {
		logger.Error("failed to save notification report", "event_id", event.EventID, "status", status, "error", err)
	}
}
