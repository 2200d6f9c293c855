package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultVectorDim is the embedding column width when no dimension is configured.
const DefaultVectorDim = 1536

// Migrate applies the schema: extensions, tables, indexes, hypertable.
// Every statement is idempotent; Migrate runs at every startup.
func Migrate(ctx context.Context, pool *Pool, vectorDim int, logger *zap.Logger) error {
	if vectorDim <= 0 {
		vectorDim = DefaultVectorDim
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		`CREATE EXTENSION IF NOT EXISTS timescaledb`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS catalog_items (
			id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name        text NOT NULL,
			description text NOT NULL DEFAULT '',
			attributes  jsonb,
			embedding   vector(%d),
			search_tsv  tsvector GENERATED ALWAYS AS (to_tsvector('english', name || ' ' || description)) STORED,
			created_at  timestamptz NOT NULL DEFAULT now()
		)`, vectorDim),
		`CREATE INDEX IF NOT EXISTS catalog_items_tsv_idx ON catalog_items USING gin (search_tsv)`,
		`CREATE INDEX IF NOT EXISTS catalog_items_name_trgm_idx ON catalog_items USING gin (name gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS catalog_items_embedding_idx
			ON catalog_items USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,

		`CREATE TABLE IF NOT EXISTS agents (
			id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name       text NOT NULL,
			status     text NOT NULL DEFAULT 'offline',
			location   geography(Point, 4326),
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS agents_location_idx ON agents USING gist (location)`,
		`CREATE INDEX IF NOT EXISTS agents_name_trgm_idx ON agents USING gin (name gin_trgm_ops)`,

		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id          bigint GENERATED BY DEFAULT AS IDENTITY,
			time        timestamptz NOT NULL,
			source_id   text NOT NULL,
			temperature double precision,
			humidity    double precision,
			battery     double precision,
			location    geography(Point, 4326)
		)`,
		`SELECT create_hypertable('sensor_readings', 'time', if_not_exists => TRUE)`,
		`CREATE INDEX IF NOT EXISTS sensor_readings_source_time_idx
			ON sensor_readings (source_id, time DESC)`,
		`ALTER TABLE sensor_readings SET (
			timescaledb.compress,
			timescaledb.compress_segmentby = 'source_id'
		)`,
		`SELECT add_compression_policy('sensor_readings', INTERVAL '7 days', if_not_exists => TRUE)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			customer_id     text NOT NULL,
			agent_id        uuid NOT NULL,
			catalog_item_id uuid NOT NULL,
			quantity        integer NOT NULL CHECK (quantity > 0),
			status          text NOT NULL DEFAULT 'initial',
			attributes      jsonb,
			created_at      timestamptz NOT NULL DEFAULT now(),
			updated_at      timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status)`,
		`CREATE INDEX IF NOT EXISTS orders_created_idx ON orders (created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	logger.Info("Schema migration applied", zap.Int("vector_dim", vectorDim))
	return nil
}
