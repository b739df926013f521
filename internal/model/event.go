package model

import (
	"context"
	"time"
)

// ProductAction describes what happened to a product.
type ProductAction string

const (
	// ProductActionCreated is emitted after a product has been inserted.
	ProductActionCreated ProductAction = "created"
	// ProductActionUpdated is emitted after a product's name or description changed.
	ProductActionUpdated ProductAction = "updated"
	// ProductActionDeleted is emitted after a product has been removed.
	ProductActionDeleted ProductAction = "deleted"
)

// ProductEvent is the change notification published to the message broker.
type ProductEvent struct {
	Action      ProductAction `json:"action"`
	ProductID   int64         `json:"product_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// NewProductEvent builds an event for the given product, stamped with the current time.
func NewProductEvent(action ProductAction, product *Product) ProductEvent {
	return ProductEvent{
		Action:      action,
		ProductID:   product.ID,
		Name:        product.Name,
		Description: product.Description,
		OccurredAt:  time.Now().UTC(),
	}
}

// ProductEventHandler processes one product event received from a broker.
// A non-nil error leaves the message on the queue for redelivery.
type ProductEventHandler func(ctx context.Context, event ProductEvent) error
