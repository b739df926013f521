package service

import (
	"context"
	"log/slog"

	"github.com/iyhunko/product-manager/internal/metrics"
	"github.com/iyhunko/product-manager/internal/model"
)

// NotificationService reacts to product change events consumed from the broker.
type NotificationService struct {
	logger *slog.Logger
}

func NewNotificationService(logger *slog.Logger) *NotificationService {
	return &NotificationService{logger: logger}
}

// HandleProductEvent logs the event. Events with an unknown action are logged and
// dropped so they are not redelivered forever.
func (ns *NotificationService) HandleProductEvent(ctx context.Context, event model.ProductEvent) error {
	switch event.Action {
	case model.ProductActionCreated, model.ProductActionUpdated, model.ProductActionDeleted:
	default:
		ns.logger.WarnContext(ctx, "Dropping product event with unknown action",
			slog.String("action", string(event.Action)),
			slog.Int64("product_id", event.ProductID),
		)
		return nil
	}

	metrics.ProductEventsConsumed.WithLabelValues(string(event.Action)).Inc()

	ns.logger.InfoContext(ctx, "Received product notification",
		slog.String("action", string(event.Action)),
		slog.Int64("product_id", event.ProductID),
		slog.String("name", event.Name),
		slog.Time("occurred_at", event.OccurredAt),
	)

	return nil
}
