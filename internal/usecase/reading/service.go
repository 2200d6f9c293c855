package reading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

const (
	defaultBucket      = time.Hour
	defaultWindowHours = 24
)

// Service handles telemetry ingest and time-series queries.
type Service struct {
	repo         Repository
	defaultLimit int
	now          func() time.Time
}

// New creates a sensor reading service.
func New(repo Repository, defaultLimit int) *Service {
	return &Service{repo: repo, defaultLimit: defaultLimit, now: time.Now}
}

// Ingest appends one immutable reading. Time defaults to the ingest moment.
func (s *Service) Ingest(ctx context.Context, r domain.SensorReading) (domain.SensorReading, error) {
	r.SourceID = strings.TrimSpace(r.SourceID)
	if r.SourceID == "" {
		return domain.SensorReading{}, fmt.Errorf("%w: source_id is required", domain.ErrValidation)
	}
	if r.Location != nil && !domain.ValidCoordinates(r.Location.Lat, r.Location.Lon) {
		return domain.SensorReading{}, fmt.Errorf("%w: invalid coordinates", domain.ErrValidation)
	}
	if r.Time.IsZero() {
		r.Time = s.now().UTC()
	}

	stored, err := s.repo.Insert(ctx, r)
	if err != nil {
		return domain.SensorReading{}, fmt.Errorf("ingest reading: %w", err)
	}
	return stored, nil
}

// List returns readings newest first, optionally filtered by source.
func (s *Service) List(ctx context.Context, sourceID *string, limit, offset int) ([]domain.SensorReading, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be non-negative", domain.ErrValidation)
	}
	if limit == 0 {
		limit = s.defaultLimit
	}

	readings, err := s.repo.List(ctx, sourceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return readings, nil
}

// Latest returns the single most recent reading for one source.
func (s *Service) Latest(ctx context.Context, sourceID string) (domain.SensorReading, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return domain.SensorReading{}, fmt.Errorf("%w: source_id is required", domain.ErrValidation)
	}

	r, err := s.repo.Latest(ctx, sourceID)
	if err != nil {
		return domain.SensorReading{}, fmt.Errorf("latest reading: %w", err)
	}
	return r, nil
}

// Aggregate buckets one source's readings over [from, to), defaulting to the
// trailing 24 hours in 1 hour buckets.
func (s *Service) Aggregate(
	ctx context.Context, sourceID string, bucket time.Duration, from, to *time.Time,
) ([]domain.ReadingBucket, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, fmt.Errorf("%w: source_id is required", domain.ErrValidation)
	}
	if bucket <= 0 {
		bucket = defaultBucket
	}

	end := s.now().UTC()
	if to != nil {
		end = *to
	}
	start := end.Add(-defaultWindowHours * time.Hour)
	if from != nil {
		start = *from
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: from must precede to", domain.ErrValidation)
	}

	buckets, err := s.repo.Aggregate(ctx, sourceID, bucket, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregate readings: %w", err)
	}
	return buckets, nil
}

// FleetSummary returns the most recent reading per source active within the
// trailing window.
func (s *Service) FleetSummary(ctx context.Context, windowHours int) ([]domain.SensorReading, error) {
	if windowHours <= 0 {
		windowHours = defaultWindowHours
	}

	readings, err := s.repo.FleetSummary(ctx, windowHours)
	if err != nil {
		return nil, fmt.Errorf("fleet summary: %w", err)
	}
	return readings, nil
}

// StorageStats reports hypertable chunk and compression state.
func (s *Service) StorageStats(ctx context.Context) (domain.StorageStats, error) {
	stats, err := s.repo.StorageStats(ctx)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("storage stats: %w", err)
	}
	return stats, nil
}
