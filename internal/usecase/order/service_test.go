package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	createCalls    int
	setStatusCalls int
	lastSetStatus  domain.OrderStatus

	order   domain.Order
	orders  []domain.Order
	repoErr error

	setStatusErr error
}

func (m *mockRepo) Create(_ context.Context, customerID string, agentID, catalogItemID uuid.UUID, quantity int, _ map[string]any) (domain.Order, error) {
	m.createCalls++
	if m.repoErr != nil {
		return domain.Order{}, m.repoErr
	}
	o := m.order
	o.CustomerID = customerID
	o.AgentID = agentID
	o.CatalogItemID = catalogItemID
	o.Quantity = quantity
	o.Status = domain.OrderInitial
	return o, nil
}

func (m *mockRepo) List(_ context.Context, _ *domain.OrderStatus) ([]domain.Order, error) {
	return m.orders, m.repoErr
}

func (m *mockRepo) Get(_ context.Context, _ uuid.UUID) (domain.Order, error) {
	return m.order, m.repoErr
}

func (m *mockRepo) Update(_ context.Context, _ uuid.UUID, _ domain.OrderPatch) (domain.Order, error) {
	return m.order, m.repoErr
}

func (m *mockRepo) SetStatus(_ context.Context, _ uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	m.setStatusCalls++
	m.lastSetStatus = status
	if m.setStatusErr != nil {
		return domain.Order{}, m.setStatusErr
	}
	o := m.order
	o.Status = status
	return o, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	return id, m.repoErr
}

type mockPublisher struct {
	publishErr error
	statsErr   error
	stats      domain.QueueStats
	published  []domain.Order
}

func (m *mockPublisher) PublishOrder(_ context.Context, o domain.Order) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, o)
	return nil
}

func (m *mockPublisher) QueueStats(_ context.Context) (domain.QueueStats, error) {
	return m.stats, m.statsErr
}

func newService(repo *mockRepo, pub Publisher) *Service {
	return New(repo, pub, zap.NewNop())
}

func createArgs() (string, uuid.UUID, uuid.UUID, int) {
	return "cust-42", uuid.New(), uuid.New(), 2
}

// --- Tests ---

func TestCreate_ZeroQuantityFailsBeforeInsert(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockPublisher{})

	customer, agentID, itemID, _ := createArgs()
	_, err := svc.Create(context.Background(), customer, agentID, itemID, 0, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("expected no insert, got %d", repo.createCalls)
	}
}

func TestCreate_EmptyCustomerFails(t *testing.T) {
	svc := newService(&mockRepo{}, &mockPublisher{})

	_, agentID, itemID, qty := createArgs()
	_, err := svc.Create(context.Background(), "  ", agentID, itemID, qty, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreate_NilAgentIDFails(t *testing.T) {
	svc := newService(&mockRepo{}, &mockPublisher{})

	customer, _, itemID, qty := createArgs()
	_, err := svc.Create(context.Background(), customer, uuid.Nil, itemID, qty, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreate_PublishSuccessPromotesToEnqueued(t *testing.T) {
	repo := &mockRepo{order: domain.Order{ID: uuid.New()}}
	pub := &mockPublisher{}
	svc := newService(repo, pub)

	customer, agentID, itemID, qty := createArgs()
	o, err := svc.Create(context.Background(), customer, agentID, itemID, qty, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != domain.OrderEnqueued {
		t.Fatalf("expected enqueued, got %q", o.Status)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.published))
	}
	if pub.published[0].Status != domain.OrderInitial {
		t.Fatalf("published snapshot must carry the inserted row, got %q", pub.published[0].Status)
	}
	if repo.lastSetStatus != domain.OrderEnqueued {
		t.Fatalf("expected promotion to enqueued, got %q", repo.lastSetStatus)
	}
}

func TestCreate_BrokerUnavailableReturnsInitialRowWithoutError(t *testing.T) {
	repo := &mockRepo{order: domain.Order{ID: uuid.New()}}
	pub := &mockPublisher{publishErr: domain.ErrBrokerUnavailable}
	svc := newService(repo, pub)

	customer, agentID, itemID, qty := createArgs()
	o, err := svc.Create(context.Background(), customer, agentID, itemID, qty, nil)
	if err != nil {
		t.Fatalf("broker outage must not fail order creation: %v", err)
	}
	if o.Status != domain.OrderInitial {
		t.Fatalf("expected initial status, got %q", o.Status)
	}
	if repo.setStatusCalls != 0 {
		t.Fatalf("expected no promotion, got %d SetStatus calls", repo.setStatusCalls)
	}
}

func TestCreate_NilPublisherReturnsInitialRow(t *testing.T) {
	repo := &mockRepo{order: domain.Order{ID: uuid.New()}}
	svc := newService(repo, nil)

	customer, agentID, itemID, qty := createArgs()
	o, err := svc.Create(context.Background(), customer, agentID, itemID, qty, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != domain.OrderInitial {
		t.Fatalf("expected initial status, got %q", o.Status)
	}
}

func TestCreate_PromotionFailureStillSucceeds(t *testing.T) {
	repo := &mockRepo{
		order:        domain.Order{ID: uuid.New()},
		setStatusErr: errors.New("connection reset"),
	}
	svc := newService(repo, &mockPublisher{})

	customer, agentID, itemID, qty := createArgs()
	o, err := svc.Create(context.Background(), customer, agentID, itemID, qty, nil)
	if err != nil {
		t.Fatalf("promotion failure must not fail order creation: %v", err)
	}
	if o.Status != domain.OrderInitial {
		t.Fatalf("expected inserted row back, got %q", o.Status)
	}
}

func TestSetStatus_AcceptsAnyKnownStatus(t *testing.T) {
	repo := &mockRepo{order: domain.Order{ID: uuid.New(), Status: domain.OrderCompleted}}
	svc := newService(repo, nil)

	// completed -> initial is deliberately accepted.
	o, err := svc.SetStatus(context.Background(), repo.order.ID, domain.OrderInitial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != domain.OrderInitial {
		t.Fatalf("expected overwrite to initial, got %q", o.Status)
	}
}

func TestSetStatus_UnknownStatusFails(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	_, err := svc.SetStatus(context.Background(), uuid.New(), "shipped")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdate_NonPositiveQuantityFails(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	qty := -1
	_, err := svc.Update(context.Background(), uuid.New(), domain.OrderPatch{Quantity: &qty})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestList_UnknownStatusFilterFails(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	status := domain.OrderStatus("shipped")
	_, err := svc.List(context.Background(), &status)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestQueueStats_NilPublisherReturnsNil(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	stats, err := svc.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats, got %+v", stats)
	}
}

func TestQueueStats_BrokerErrorReturnsNil(t *testing.T) {
	pub := &mockPublisher{statsErr: domain.ErrBrokerUnavailable}
	svc := newService(&mockRepo{}, pub)

	stats, err := svc.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("broker outage must not fail queue stats: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats, got %+v", stats)
	}
}

func TestQueueStats_ReportsDepth(t *testing.T) {
	pub := &mockPublisher{stats: domain.QueueStats{MessageCount: 7, ConsumerCount: 2}}
	svc := newService(&mockRepo{}, pub)

	stats, err := svc.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats == nil || stats.MessageCount != 7 || stats.ConsumerCount != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
