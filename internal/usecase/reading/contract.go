package reading

import (
	"context"
	"time"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Repository defines the storage contract for sensor readings. There is no
// update or delete; readings are append-only.
type Repository interface {
	Insert(ctx context.Context, reading domain.SensorReading) (domain.SensorReading, error)
	List(ctx context.Context, sourceID *string, limit, offset int) ([]domain.SensorReading, error)
	Latest(ctx context.Context, sourceID string) (domain.SensorReading, error)
	Aggregate(ctx context.Context, sourceID string, bucket time.Duration, from, to time.Time) ([]domain.ReadingBucket, error)
	FleetSummary(ctx context.Context, windowHours int) ([]domain.SensorReading, error)
	StorageStats(ctx context.Context) (domain.StorageStats, error)
}
