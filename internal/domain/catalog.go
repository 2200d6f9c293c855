package domain

import (
	"time"

	"github.com/google/uuid"
)

// CatalogItem is a searchable product record.
type CatalogItem struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Embedding   []float32      `json:"-"` // not exposed to clients
	CreatedAt   time.Time      `json:"created_at"`
}

// CatalogPatch is a partial update: only non-nil fields are written.
type CatalogPatch struct {
	Name        *string
	Description *string
	Attributes  *map[string]any
	Embedding   *[]float32
}

// IsEmpty reports whether the patch carries no fields.
func (p CatalogPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Attributes == nil && p.Embedding == nil
}

// ScoredCatalogItem is a search hit with its relevance score.
type ScoredCatalogItem struct {
	CatalogItem
	Score float64 `json:"score"`
}
