package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Service handles catalog item CRUD and search.
type Service struct {
	repo         Repository
	embed        Embedder
	defaultLimit int
	logger       *zap.Logger
}

// New creates a catalog service. embed can be nil; hybrid search then scores
// by keyword relevance only.
func New(repo Repository, embed Embedder, defaultLimit int, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, defaultLimit: defaultLimit, logger: logger}
}

// Create validates and stores a new catalog item. When no embedding is
// supplied and an embedder is configured, one is computed from the name and
// description; an embedder failure degrades to storing the item without a
// vector.
func (s *Service) Create(
	ctx context.Context, name, description string, attributes map[string]any, embedding []float32,
) (domain.CatalogItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CatalogItem{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	if embedding == nil && s.embed != nil {
		embedding = s.embedText(ctx, name, description)
	}

	item, err := s.repo.Create(ctx, name, description, attributes, embedding)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("create catalog item: %w", err)
	}
	return item, nil
}

// List returns items newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.CatalogItem, error) {
	limit, offset, err := s.pagination(limit, offset)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	return items, nil
}

// Get retrieves one item by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.CatalogItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("get catalog item: %w", err)
	}
	return item, nil
}

// Update writes only the fields present in the patch. An empty patch is a
// no-op read.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p domain.CatalogPatch) (domain.CatalogItem, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.CatalogItem{}, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
	}
	if p.IsEmpty() {
		return s.Get(ctx, id)
	}

	item, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("update catalog item: %w", err)
	}
	return item, nil
}

// Delete removes an item, returning its id and name for confirmation.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
	deletedID, name, err := s.repo.Delete(ctx, id)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("delete catalog item: %w", err)
	}
	return deletedID, name, nil
}

// SearchKeyword runs ranked full-text search with a substring fallback match.
func (s *Service) SearchKeyword(ctx context.Context, query string, limit int) ([]domain.ScoredCatalogItem, error) {
	query, limit, err := s.searchInput(query, limit)
	if err != nil {
		return nil, err
	}

	results, err := s.repo.SearchKeyword(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return results, nil
}

// SearchFuzzy returns items whose name trigram-similarity to the query
// exceeds the repository threshold.
func (s *Service) SearchFuzzy(ctx context.Context, query string, limit int) ([]domain.ScoredCatalogItem, error) {
	query, limit, err := s.searchInput(query, limit)
	if err != nil {
		return nil, err
	}

	results, err := s.repo.SearchFuzzy(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	return results, nil
}

// SearchHybrid combines keyword relevance with vector similarity. The query
// vector comes from the caller, or from the configured embedder when absent.
// Without either, results are identical to SearchKeyword.
func (s *Service) SearchHybrid(
	ctx context.Context, query string, embedding []float32, limit int,
) ([]domain.ScoredCatalogItem, error) {
	query, limit, err := s.searchInput(query, limit)
	if err != nil {
		return nil, err
	}

	if embedding == nil && s.embed != nil {
		embedding = s.embedText(ctx, query, "")
	}
	if embedding == nil {
		results, err := s.repo.SearchKeyword(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		return results, nil
	}

	results, err := s.repo.SearchHybrid(ctx, query, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	return results, nil
}

// embedText vectorizes text, returning nil on failure. Search and storage
// must keep working without a vector.
func (s *Service) embedText(ctx context.Context, name, description string) []float32 {
	text := name
	if description != "" {
		text = name + "\n" + description
	}

	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("Embedding unavailable, continuing without vector", zap.Error(err))
		return nil
	}
	return result.Embedding
}

func (s *Service) searchInput(query string, limit int) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if limit < 0 {
		return "", 0, fmt.Errorf("%w: limit must be non-negative", domain.ErrValidation)
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	return query, limit, nil
}

func (s *Service) pagination(limit, offset int) (int, int, error) {
	if limit < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("%w: limit and offset must be non-negative", domain.ErrValidation)
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	return limit, offset, nil
}
