package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the processing state of an order.
//
// Declared lifecycle: initial -> enqueued -> in-progress -> completed, with an
// in-progress -> failed branch. Transitions are NOT enforced: SetStatus
// overwrites any value with any other, so the queue consumer (or an operator
// fixing a stuck order) can always move the record.
type OrderStatus string

const (
	// OrderInitial is the status right after the durable insert.
	OrderInitial OrderStatus = "initial"
	// OrderEnqueued means the creation event reached the broker.
	OrderEnqueued OrderStatus = "enqueued"
	// OrderInProgress means a consumer picked the order up.
	OrderInProgress OrderStatus = "in-progress"
	// OrderCompleted is the terminal success status.
	OrderCompleted OrderStatus = "completed"
	// OrderFailed is the terminal failure status.
	OrderFailed OrderStatus = "failed"
)

// ValidOrderStatus reports whether s is one of the five known statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderInitial, OrderEnqueued, OrderInProgress, OrderCompleted, OrderFailed:
		return true
	}
	return false
}

// Order is a transactional record linking a customer, an agent, and a catalog item.
type Order struct {
	ID            uuid.UUID      `json:"id"`
	CustomerID    string         `json:"customer_id"`
	AgentID       uuid.UUID      `json:"agent_id"`
	CatalogItemID uuid.UUID      `json:"catalog_item_id"`
	Quantity      int            `json:"quantity"`
	Status        OrderStatus    `json:"status"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// OrderPatch is a partial update: only non-nil fields are written.
type OrderPatch struct {
	Quantity   *int
	Status     *OrderStatus
	Attributes *map[string]any
}

// IsEmpty reports whether the patch carries no fields.
func (p OrderPatch) IsEmpty() bool {
	return p.Quantity == nil && p.Status == nil && p.Attributes == nil
}

// QueueStats is a snapshot of the order queue. Nil at the service boundary
// means the broker is unavailable.
type QueueStats struct {
	MessageCount  int `json:"message_count"`
	ConsumerCount int `json:"consumer_count"`
}
