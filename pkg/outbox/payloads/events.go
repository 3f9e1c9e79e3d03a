// Package payloads defines the event data carried inside outbox envelopes.
package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// OrderCreatedEvent signals that settlement produced one or more orders.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	OrderType   enums.OrderType `json:"order_type"`
	SellerID    uuid.UUID       `json:"seller_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// OrderStatusChangedEvent is emitted whenever the derived aggregate status
// of an order moves.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	OldStatus enums.OrderStatus `json:"old_status"`
	NewStatus enums.OrderStatus `json:"new_status"`
	ChangedAt time.Time         `json:"changed_at"`
}

// ItemStatusChangedEvent reports a single fulfillment transition on an
// order item.
type ItemStatusChangedEvent struct {
	OrderID   uuid.UUID             `json:"order_id"`
	ItemID    uuid.UUID             `json:"item_id"`
	OldStatus enums.OrderItemStatus `json:"old_status"`
	NewStatus enums.OrderItemStatus `json:"new_status"`
	ChangedAt time.Time             `json:"changed_at"`
}
