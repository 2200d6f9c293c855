package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Repository defines the storage contract for catalog items.
type Repository interface {
	Create(ctx context.Context, name, description string, attributes map[string]any, embedding []float32) (domain.CatalogItem, error)
	List(ctx context.Context, limit, offset int) ([]domain.CatalogItem, error)
	Get(ctx context.Context, id uuid.UUID) (domain.CatalogItem, error)
	Update(ctx context.Context, id uuid.UUID, p domain.CatalogPatch) (domain.CatalogItem, error)
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error)
	SearchKeyword(ctx context.Context, query string, limit int) ([]domain.ScoredCatalogItem, error)
	SearchFuzzy(ctx context.Context, query string, limit int) ([]domain.ScoredCatalogItem, error)
	SearchHybrid(ctx context.Context, query string, embedding []float32, limit int) ([]domain.ScoredCatalogItem, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
