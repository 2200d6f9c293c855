package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	createdName      string
	createdEmbedding []float32

	item    domain.CatalogItem
	items   []domain.CatalogItem
	scored  []domain.ScoredCatalogItem
	repoErr error

	keywordCalls int
	hybridCalls  int
	lastLimit    int
}

func (m *mockRepo) Create(_ context.Context, name, _ string, _ map[string]any, embedding []float32) (domain.CatalogItem, error) {
	m.createdName = name
	m.createdEmbedding = embedding
	return m.item, m.repoErr
}

func (m *mockRepo) List(_ context.Context, limit, _ int) ([]domain.CatalogItem, error) {
	m.lastLimit = limit
	return m.items, m.repoErr
}

func (m *mockRepo) Get(_ context.Context, _ uuid.UUID) (domain.CatalogItem, error) {
	return m.item, m.repoErr
}

func (m *mockRepo) Update(_ context.Context, _ uuid.UUID, _ domain.CatalogPatch) (domain.CatalogItem, error) {
	return m.item, m.repoErr
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (uuid.UUID, string, error) {
	return id, m.item.Name, m.repoErr
}

func (m *mockRepo) SearchKeyword(_ context.Context, _ string, limit int) ([]domain.ScoredCatalogItem, error) {
	m.keywordCalls++
	m.lastLimit = limit
	return m.scored, m.repoErr
}

func (m *mockRepo) SearchFuzzy(_ context.Context, _ string, _ int) ([]domain.ScoredCatalogItem, error) {
	return m.scored, m.repoErr
}

func (m *mockRepo) SearchHybrid(_ context.Context, _ string, _ []float32, _ int) ([]domain.ScoredCatalogItem, error) {
	m.hybridCalls++
	return m.scored, m.repoErr
}

type mockEmbedder struct {
	vector []float32
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector, TotalTokens: 5}, nil
}

func newService(repo *mockRepo, embed Embedder) *Service {
	return New(repo, embed, 20, zap.NewNop())
}

// --- Tests ---

func TestCreate_EmptyNameFails(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	_, err := svc.Create(context.Background(), "   ", "", nil, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreate_ComputesEmbeddingWhenConfigured(t *testing.T) {
	repo := &mockRepo{item: domain.CatalogItem{Name: "Wireless Headphones"}}
	svc := newService(repo, &mockEmbedder{vector: []float32{0.1, 0.2}})

	_, err := svc.Create(context.Background(), "Wireless Headphones", "over-ear", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.createdEmbedding) != 2 {
		t.Fatalf("expected computed embedding, got %v", repo.createdEmbedding)
	}
}

func TestCreate_EmbedderFailureDegradesToNoVector(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{err: errors.New("provider down")})

	_, err := svc.Create(context.Background(), "Wireless Headphones", "", nil, nil)
	if err != nil {
		t.Fatalf("embedder failure must not fail create: %v", err)
	}
	if repo.createdEmbedding != nil {
		t.Fatalf("expected nil embedding, got %v", repo.createdEmbedding)
	}
}

func TestCreate_CallerEmbeddingWins(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{vector: []float32{0.9}})

	_, err := svc.Create(context.Background(), "Item", "", nil, []float32{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.createdEmbedding) != 3 {
		t.Fatalf("expected caller embedding preserved, got %v", repo.createdEmbedding)
	}
}

func TestList_DefaultsLimit(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, nil)

	if _, err := svc.List(context.Background(), 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != 20 {
		t.Fatalf("expected default limit 20, got %d", repo.lastLimit)
	}
}

func TestList_NegativeOffsetFails(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	_, err := svc.List(context.Background(), 10, -1)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdate_EmptyPatchIsRead(t *testing.T) {
	want := domain.CatalogItem{ID: uuid.New(), Name: "Keyboard", CreatedAt: time.Now()}
	repo := &mockRepo{item: want}
	svc := newService(repo, nil)

	got, err := svc.Update(context.Background(), want.ID, domain.CatalogPatch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != want.Name {
		t.Fatalf("expected current row back, got %+v", got)
	}
}

func TestUpdate_EmptyNameInPatchFails(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	empty := ""
	_, err := svc.Update(context.Background(), uuid.New(), domain.CatalogPatch{Name: &empty})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdate_NotFoundPropagates(t *testing.T) {
	repo := &mockRepo{repoErr: domain.ErrNotFound}
	svc := newService(repo, nil)

	name := "New Name"
	_, err := svc.Update(context.Background(), uuid.New(), domain.CatalogPatch{Name: &name})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchKeyword_EmptyQueryFails(t *testing.T) {
	svc := newService(&mockRepo{}, nil)

	_, err := svc.SearchKeyword(context.Background(), "", 10)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearchHybrid_NoEmbedderFallsBackToKeyword(t *testing.T) {
	repo := &mockRepo{scored: []domain.ScoredCatalogItem{{Score: 0.5}}}
	svc := newService(repo, nil)

	results, err := svc.SearchHybrid(context.Background(), "headphones", nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.keywordCalls != 1 || repo.hybridCalls != 0 {
		t.Fatalf("expected keyword path, got keyword=%d hybrid=%d", repo.keywordCalls, repo.hybridCalls)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSearchHybrid_EmbedderFailureFallsBackToKeyword(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{err: errors.New("provider down")})

	if _, err := svc.SearchHybrid(context.Background(), "headphones", nil, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.keywordCalls != 1 || repo.hybridCalls != 0 {
		t.Fatalf("expected keyword fallback, got keyword=%d hybrid=%d", repo.keywordCalls, repo.hybridCalls)
	}
}

func TestSearchHybrid_WithVectorUsesHybridQuery(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, nil)

	if _, err := svc.SearchHybrid(context.Background(), "headphones", []float32{0.1}, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.hybridCalls != 1 {
		t.Fatalf("expected hybrid path, got %d calls", repo.hybridCalls)
	}
}

func TestSearchHybrid_EmbedderSuppliesVector(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{vector: []float32{0.1, 0.2}})

	if _, err := svc.SearchHybrid(context.Background(), "headphones", nil, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.hybridCalls != 1 || repo.keywordCalls != 0 {
		t.Fatalf("expected hybrid path via embedder, got keyword=%d hybrid=%d", repo.keywordCalls, repo.hybridCalls)
	}
}
