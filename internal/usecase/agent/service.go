package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Service handles agent CRUD, proximity queries, and name search.
type Service struct {
	repo           Repository
	defaultLimit   int
	defaultRadiusM float64
}

// New creates an agent service.
func New(repo Repository, defaultLimit int, defaultRadiusM float64) *Service {
	return &Service{repo: repo, defaultLimit: defaultLimit, defaultRadiusM: defaultRadiusM}
}

// Create validates and stores a new agent. Status defaults to available.
func (s *Service) Create(
	ctx context.Context, name string, status domain.AgentStatus, location *domain.Point,
) (domain.Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Agent{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if status == "" {
		status = domain.AgentAvailable
	}
	if !domain.ValidAgentStatus(status) {
		return domain.Agent{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if location != nil && !domain.ValidCoordinates(location.Lat, location.Lon) {
		return domain.Agent{}, fmt.Errorf("%w: invalid coordinates", domain.ErrValidation)
	}

	a, err := s.repo.Create(ctx, name, status, location)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return a, nil
}

// List returns agents newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Agent, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be non-negative", domain.ErrValidation)
	}
	if limit == 0 {
		limit = s.defaultLimit
	}

	agents, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// Get retrieves one agent by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// Update writes only the fields present in the patch. Location is excluded
// here; it has its own ping path.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p domain.AgentPatch) (domain.Agent, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.Agent{}, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
	}
	if p.Status != nil && !domain.ValidAgentStatus(*p.Status) {
		return domain.Agent{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *p.Status)
	}
	if p.IsEmpty() {
		return s.Get(ctx, id)
	}

	a, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("update agent: %w", err)
	}
	return a, nil
}

// UpdateLocation writes only the location column. Called at ping frequency,
// so it must not touch any other field.
func (s *Service) UpdateLocation(ctx context.Context, id uuid.UUID, lat, lon float64) (domain.Agent, error) {
	if !domain.ValidCoordinates(lat, lon) {
		return domain.Agent{}, fmt.Errorf("%w: invalid coordinates", domain.ErrValidation)
	}

	a, err := s.repo.UpdateLocation(ctx, id, lat, lon)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("update agent location: %w", err)
	}
	return a, nil
}

// Delete removes an agent, returning its id and name for confirmation.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
	deletedID, name, err := s.repo.Delete(ctx, id)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("delete agent: %w", err)
	}
	return deletedID, name, nil
}

// FindNearby returns agents within radiusM meters of the point, closest
// first. Agents without a location never appear. Radius defaults when
// unspecified.
func (s *Service) FindNearby(
	ctx context.Context, lat, lon, radiusM float64, status *domain.AgentStatus,
) ([]domain.NearbyAgent, error) {
	if !domain.ValidCoordinates(lat, lon) {
		return nil, fmt.Errorf("%w: invalid coordinates", domain.ErrValidation)
	}
	if status != nil && !domain.ValidAgentStatus(*status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *status)
	}
	if radiusM <= 0 {
		radiusM = s.defaultRadiusM
	}

	agents, err := s.repo.FindNearby(ctx, lat, lon, radiusM, status)
	if err != nil {
		return nil, fmt.Errorf("find nearby agents: %w", err)
	}
	return agents, nil
}

// Distance returns the geodesic distance in meters between two agents'
// current locations. Missing agents or missing locations surface as not
// found.
func (s *Service) Distance(ctx context.Context, a, b uuid.UUID) (float64, error) {
	d, err := s.repo.Distance(ctx, a, b)
	if err != nil {
		return 0, fmt.Errorf("agent distance: %w", err)
	}
	return d, nil
}

// SearchByName returns agents by trigram similarity to the query.
func (s *Service) SearchByName(ctx context.Context, query string, limit int) ([]domain.ScoredAgent, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	agents, err := s.repo.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search agents by name: %w", err)
	}
	return agents, nil
}
