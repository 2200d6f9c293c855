package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Repository defines the storage contract for agents.
type Repository interface {
	Create(ctx context.Context, name string, status domain.AgentStatus, location *domain.Point) (domain.Agent, error)
	List(ctx context.Context, limit, offset int) ([]domain.Agent, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Agent, error)
	Update(ctx context.Context, id uuid.UUID, p domain.AgentPatch) (domain.Agent, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, lat, lon float64) (domain.Agent, error)
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error)
	FindNearby(ctx context.Context, lat, lon, radiusM float64, status *domain.AgentStatus) ([]domain.NearbyAgent, error)
	Distance(ctx context.Context, a, b uuid.UUID) (float64, error)
	SearchByName(ctx context.Context, query string, limit int) ([]domain.ScoredAgent, error)
}
