package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Repository defines the storage contract for orders.
type Repository interface {
	Create(ctx context.Context, customerID string, agentID, catalogItemID uuid.UUID, quantity int, attributes map[string]any) (domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Order, error)
	Update(ctx context.Context, id uuid.UUID, p domain.OrderPatch) (domain.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error)
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Publisher pushes order events to the queue and inspects its depth.
type Publisher interface {
	PublishOrder(ctx context.Context, o domain.Order) error
	QueueStats(ctx context.Context) (domain.QueueStats, error)
}
