// Package catalog persists catalog items and runs the search queries.
// Ranking, trigram similarity, and vector distance are computed by the
// database (tsvector, pg_trgm, pgvector); this layer only shapes the SQL.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Similarity threshold for fuzzy name search.
const fuzzyThreshold = 0.2

// Hybrid score weights: 0.4 keyword relevance + 0.6 vector proximity.
const (
	keywordWeight = 0.4
	vectorWeight  = 0.6
)

// store is the consumer interface for the catalog repository (ISP).
type store interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo implements usecase/catalog.Repository.
type Repo struct {
	store store
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

const itemColumns = "id, name, description, attributes, created_at"

// Create inserts an item and returns the stored row.
func (r *Repo) Create(ctx context.Context, name, description string, attributes map[string]any, embedding []float32) (domain.CatalogItem, error) {
	var emb *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		emb = &v
	}

	row := r.store.QueryRow(ctx, `
		INSERT INTO catalog_items (name, description, attributes, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING `+itemColumns,
		name, description, attributes, emb,
	)
	item, err := scanItem(row)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("insert catalog item: %w", err)
	}
	return item, nil
}

// List returns items newest first.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]domain.CatalogItem, error) {
	rows, err := r.store.Query(ctx, `
		SELECT `+itemColumns+`
		FROM catalog_items
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// Get returns one item by id.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (domain.CatalogItem, error) {
	row := r.store.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM catalog_items
		WHERE id = $1`,
		id,
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CatalogItem{}, domain.ErrNotFound
		}
		return domain.CatalogItem{}, fmt.Errorf("get catalog item %s: %w", id, err)
	}
	return item, nil
}

// Update writes only the fields present in the patch.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, p domain.CatalogPatch) (domain.CatalogItem, error) {
	sql, args := buildUpdate(id, p)

	row := r.store.QueryRow(ctx, sql, args...)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CatalogItem{}, domain.ErrNotFound
		}
		return domain.CatalogItem{}, fmt.Errorf("update catalog item %s: %w", id, err)
	}
	return item, nil
}

// Delete hard-deletes an item and returns its id and name for confirmation.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
	var (
		deletedID uuid.UUID
		name      string
	)
	err := r.store.QueryRow(ctx, `
		DELETE FROM catalog_items
		WHERE id = $1
		RETURNING id, name`,
		id,
	).Scan(&deletedID, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", domain.ErrNotFound
		}
		return uuid.Nil, "", fmt.Errorf("delete catalog item %s: %w", id, err)
	}
	return deletedID, name, nil
}

// SearchKeyword runs the combined ranked-text-match OR substring-match query.
// Substring-only hits rank with score 0, after every full-text hit.
func (r *Repo) SearchKeyword(ctx context.Context, query string, limit int) ([]domain.ScoredCatalogItem, error) {
	rows, err := r.store.Query(ctx, `
		SELECT `+itemColumns+`,
		       ts_rank(search_tsv, q)::float8 AS score
		FROM catalog_items, plainto_tsquery('english', $1) AS q
		WHERE search_tsv @@ q OR name ILIKE '%' || $1 || '%'
		ORDER BY score DESC
		LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	return collectScored(rows)
}

// SearchFuzzy returns items whose trigram name similarity exceeds the threshold.
func (r *Repo) SearchFuzzy(ctx context.Context, query string, limit int) ([]domain.ScoredCatalogItem, error) {
	rows, err := r.store.Query(ctx, fmt.Sprintf(`
		SELECT `+itemColumns+`,
		       similarity(name, $1)::float8 AS score
		FROM catalog_items
		WHERE similarity(name, $1) > %g
		ORDER BY score DESC
		LIMIT $2`, fuzzyThreshold),
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	defer rows.Close()

	return collectScored(rows)
}

// SearchHybrid scores the union of keyword matches and embedded items with a
// weighted sum; a row missing one signal contributes 0 for that signal.
func (r *Repo) SearchHybrid(ctx context.Context, query string, embedding []float32, limit int) ([]domain.ScoredCatalogItem, error) {
	vec := pgvector.NewVector(embedding)

	rows, err := r.store.Query(ctx, fmt.Sprintf(`
		SELECT `+itemColumns+`,
		       (COALESCE(ts_rank(search_tsv, q), 0) * %g +
		        COALESCE(1 - (embedding <=> $2), 0) * %g)::float8 AS score
		FROM catalog_items, plainto_tsquery('english', $1) AS q
		WHERE search_tsv @@ q OR embedding IS NOT NULL
		ORDER BY score DESC
		LIMIT $3`, keywordWeight, vectorWeight),
		query, vec, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	defer rows.Close()

	return collectScored(rows)
}

// buildUpdate assembles an UPDATE statement from the present patch fields.
// The caller guarantees the patch is non-empty.
func buildUpdate(id uuid.UUID, p domain.CatalogPatch) (string, []any) {
	sets := make([]string, 0, 4)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Attributes != nil {
		add("attributes", *p.Attributes)
	}
	if p.Embedding != nil {
		v := pgvector.NewVector(*p.Embedding)
		add("embedding", v)
	}

	sql := fmt.Sprintf(
		"UPDATE catalog_items SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "), itemColumns,
	)
	return sql, args
}

func scanItem(row pgx.Row) (domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Attributes, &item.CreatedAt)
	if err != nil {
		return domain.CatalogItem{}, err //nolint:wrapcheck // callers add context
	}
	return item, nil
}

func collectItems(rows pgx.Rows) ([]domain.CatalogItem, error) {
	items := make([]domain.CatalogItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog items: %w", err)
	}
	return items, nil
}

func collectScored(rows pgx.Rows) ([]domain.ScoredCatalogItem, error) {
	items := make([]domain.ScoredCatalogItem, 0)
	for rows.Next() {
		var s domain.ScoredCatalogItem
		err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Attributes, &s.CreatedAt, &s.Score)
		if err != nil {
			return nil, fmt.Errorf("scan scored item: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scored items: %w", err)
	}
	return items, nil
}
