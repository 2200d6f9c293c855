// Package reading persists sensor readings in a TimescaleDB hypertable.
// The package exposes no update or delete: readings are append-only, and
// bucketing/compression are computed by the database.
package reading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// store is the consumer interface for the reading repository (ISP).
type store interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo implements usecase/reading.Repository.
type Repo struct {
	store store
}

// New creates a reading repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

const readingColumns = "id, time, source_id, temperature, humidity, battery, " +
	"ST_X(location::geometry), ST_Y(location::geometry)"

// Insert appends one reading.
func (r *Repo) Insert(ctx context.Context, reading domain.SensorReading) (domain.SensorReading, error) {
	var lon, lat *float64
	if reading.Location != nil {
		lon, lat = &reading.Location.Lon, &reading.Location.Lat
	}

	row := r.store.QueryRow(ctx, `
		INSERT INTO sensor_readings (time, source_id, temperature, humidity, battery, location)
		VALUES ($1, $2, $3, $4, $5, CASE
			WHEN $6::float8 IS NULL THEN NULL
			ELSE ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography
		END)
		RETURNING `+readingColumns,
		reading.Time, reading.SourceID, reading.Temperature, reading.Humidity, reading.Battery, lon, lat,
	)
	stored, err := scanReading(row)
	if err != nil {
		return domain.SensorReading{}, fmt.Errorf("insert reading: %w", err)
	}
	return stored, nil
}

// List returns readings newest first, optionally filtered by source.
func (r *Repo) List(ctx context.Context, sourceID *string, limit, offset int) ([]domain.SensorReading, error) {
	rows, err := r.store.Query(ctx, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE ($1::text IS NULL OR source_id = $1)
		ORDER BY time DESC
		LIMIT $2 OFFSET $3`,
		sourceID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	return collectReadings(rows)
}

// Latest returns the single most recent reading for one source.
func (r *Repo) Latest(ctx context.Context, sourceID string) (domain.SensorReading, error) {
	row := r.store.QueryRow(ctx, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE source_id = $1
		ORDER BY time DESC
		LIMIT 1`,
		sourceID,
	)
	reading, err := scanReading(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SensorReading{}, domain.ErrNotFound
		}
		return domain.SensorReading{}, fmt.Errorf("latest reading for %s: %w", sourceID, err)
	}
	return reading, nil
}

// Aggregate groups one source's readings into fixed-width time buckets over
// [from, to), newest bucket first.
func (r *Repo) Aggregate(ctx context.Context, sourceID string, bucket time.Duration, from, to time.Time) ([]domain.ReadingBucket, error) {
	rows, err := r.store.Query(ctx, `
		SELECT time_bucket($2::interval, time) AS bucket,
		       avg(temperature), avg(humidity), avg(battery), count(*)
		FROM sensor_readings
		WHERE source_id = $1 AND time >= $3 AND time < $4
		GROUP BY bucket
		ORDER BY bucket DESC`,
		sourceID, bucket, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate readings for %s: %w", sourceID, err)
	}
	defer rows.Close()

	buckets := make([]domain.ReadingBucket, 0)
	for rows.Next() {
		var b domain.ReadingBucket
		if err := rows.Scan(&b.Bucket, &b.AvgTemperature, &b.AvgHumidity, &b.AvgBattery, &b.Count); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}
	return buckets, nil
}

// FleetSummary returns the newest reading per source active within the
// trailing windowHours, newest first.
func (r *Repo) FleetSummary(ctx context.Context, windowHours int) ([]domain.SensorReading, error) {
	rows, err := r.store.Query(ctx, `
		SELECT id, time, source_id, temperature, humidity, battery, lon, lat
		FROM (
			SELECT DISTINCT ON (source_id)
			       id, time, source_id, temperature, humidity, battery,
			       ST_X(location::geometry) AS lon, ST_Y(location::geometry) AS lat
			FROM sensor_readings
			WHERE time > now() - make_interval(hours => $1)
			ORDER BY source_id, time DESC
		) latest
		ORDER BY time DESC`,
		windowHours,
	)
	if err != nil {
		return nil, fmt.Errorf("fleet summary: %w", err)
	}
	defer rows.Close()

	return collectReadings(rows)
}

// StorageStats reads chunk count and the compression ratio from the
// hypertable catalog views. A never-compressed table reports ratio 1.
func (r *Repo) StorageStats(ctx context.Context) (domain.StorageStats, error) {
	var stats domain.StorageStats

	err := r.store.QueryRow(ctx, `
		SELECT count(*)
		FROM timescaledb_information.chunks
		WHERE hypertable_name = 'sensor_readings'`,
	).Scan(&stats.Chunks)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("chunk count: %w", err)
	}

	var ratio *float64
	err = r.store.QueryRow(ctx, `
		SELECT before_compression_total_bytes::float8 / nullif(after_compression_total_bytes, 0)
		FROM hypertable_compression_stats('sensor_readings')`,
	).Scan(&ratio)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.StorageStats{}, fmt.Errorf("compression stats: %w", err)
	}

	stats.CompressionRatio = 1
	if ratio != nil {
		stats.CompressionRatio = *ratio
	}
	return stats, nil
}

func scanReading(row pgx.Row) (domain.SensorReading, error) {
	var (
		reading  domain.SensorReading
		lon, lat *float64
	)
	err := row.Scan(
		&reading.ID, &reading.Time, &reading.SourceID,
		&reading.Temperature, &reading.Humidity, &reading.Battery,
		&lon, &lat,
	)
	if err != nil {
		return domain.SensorReading{}, err //nolint:wrapcheck // callers add context
	}
	if lon != nil && lat != nil {
		reading.Location = &domain.Point{Lon: *lon, Lat: *lat}
	}
	return reading, nil
}

func collectReadings(rows pgx.Rows) ([]domain.SensorReading, error) {
	readings := make([]domain.SensorReading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}
