package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fleetdex/internal/domain"
	"github.com/kailas-cloud/fleetdex/internal/metrics"
)

// Publish outcomes reported to the order_publish_total counter.
const (
	outcomePublished   = "published"
	outcomeUnavailable = "unavailable"
	outcomeFailed      = "failed"
)

// Service handles order CRUD and the create-then-publish flow.
type Service struct {
	repo   Repository
	pub    Publisher
	logger *zap.Logger
}

// New creates an order service. pub can be nil when the broker is not
// configured or was unreachable at startup; orders then stay in their
// initial status.
func New(repo Repository, pub Publisher, logger *zap.Logger) *Service {
	return &Service{repo: repo, pub: pub, logger: logger}
}

// Create validates and inserts the order, then publishes a creation event to
// the queue. The insert alone defines success: a publish failure is logged
// and the row is returned in its initial status with no error. Only a
// successful publish promotes the status to enqueued.
func (s *Service) Create(
	ctx context.Context, customerID string, agentID, catalogItemID uuid.UUID,
	quantity int, attributes map[string]any,
) (domain.Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.Order{}, fmt.Errorf("%w: customer_id is required", domain.ErrValidation)
	}
	if agentID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("%w: agent_id is required", domain.ErrValidation)
	}
	if catalogItemID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("%w: catalog_item_id is required", domain.ErrValidation)
	}
	if quantity <= 0 {
		return domain.Order{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	o, err := s.repo.Create(ctx, customerID, agentID, catalogItemID, quantity, attributes)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	return s.publishCreated(ctx, o), nil
}

// publishCreated attempts the best-effort queue publish for a freshly
// inserted order and returns the row the caller should see.
func (s *Service) publishCreated(ctx context.Context, o domain.Order) domain.Order {
	if s.pub == nil {
		metrics.OrderPublishTotal.WithLabelValues(outcomeUnavailable).Inc()
		return o
	}

	if err := s.pub.PublishOrder(ctx, o); err != nil {
		outcome := outcomeFailed
		if errors.Is(err, domain.ErrBrokerUnavailable) {
			outcome = outcomeUnavailable
		}
		metrics.OrderPublishTotal.WithLabelValues(outcome).Inc()
		s.logger.Warn("Order event publish failed, order stays in initial status",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return o
	}

	metrics.OrderPublishTotal.WithLabelValues(outcomePublished).Inc()

	promoted, err := s.repo.SetStatus(ctx, o.ID, domain.OrderEnqueued)
	if err != nil {
		// The event is already on the queue; the consumer will move the
		// status forward regardless.
		s.logger.Warn("Failed to promote published order to enqueued",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return o
	}
	return promoted
}

// List returns orders newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	if status != nil && !domain.ValidOrderStatus(*status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *status)
	}

	orders, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get retrieves one order by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// Update writes only the fields present in the patch and refreshes the
// updated timestamp.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p domain.OrderPatch) (domain.Order, error) {
	if p.Quantity != nil && *p.Quantity <= 0 {
		return domain.Order{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if p.Status != nil && !domain.ValidOrderStatus(*p.Status) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *p.Status)
	}
	if p.IsEmpty() {
		return s.Get(ctx, id)
	}

	o, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// SetStatus overwrites the status unconditionally. The lifecycle
// initial -> enqueued -> in-progress -> completed (or failed) is driven by
// the queue consumer; no transition is rejected here, so an operator can
// always reset a stuck order.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	o, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("set order status: %w", err)
	}
	return o, nil
}

// Delete removes an order, returning its id for confirmation.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	deletedID, err := s.repo.Delete(ctx, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("delete order: %w", err)
	}
	return deletedID, nil
}

// QueueStats reports queue depth, or nil when the broker is unavailable.
func (s *Service) QueueStats(ctx context.Context) (*domain.QueueStats, error) {
	if s.pub == nil {
		return nil, nil
	}

	stats, err := s.pub.QueueStats(ctx)
	if err != nil {
		s.logger.Warn("Queue stats unavailable", zap.Error(err))
		return nil, nil
	}
	return &stats, nil
}
