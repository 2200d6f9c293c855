// Package agent persists agents and runs the geospatial queries.
// Geodesic distance and containment are computed by PostGIS on the geography
// type; ST_DWithin lets the planner prune candidates through the GIST index
// before exact distances are computed.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

// Similarity threshold for fuzzy name search. Looser than catalog search:
// agent names are short.
const fuzzyThreshold = 0.15

// store is the consumer interface for the agent repository (ISP).
type store interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo implements usecase/agent.Repository.
type Repo struct {
	store store
}

// New creates an agent repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

const agentColumns = "id, name, status, ST_X(location::geometry), ST_Y(location::geometry), created_at"

// Create inserts an agent, optionally with an initial location.
func (r *Repo) Create(ctx context.Context, name string, status domain.AgentStatus, location *domain.Point) (domain.Agent, error) {
	var lon, lat *float64
	if location != nil {
		lon, lat = &location.Lon, &location.Lat
	}

	row := r.store.QueryRow(ctx, `
		INSERT INTO agents (name, status, location)
		VALUES ($1, $2, CASE
			WHEN $3::float8 IS NULL THEN NULL
			ELSE ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography
		END)
		RETURNING `+agentColumns,
		name, status, lon, lat,
	)
	a, err := scanAgent(row)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("insert agent: %w", err)
	}
	return a, nil
}

// List returns agents newest first.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]domain.Agent, error) {
	rows, err := r.store.Query(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := make([]domain.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// Get returns one agent by id.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	row := r.store.QueryRow(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		WHERE id = $1`,
		id,
	)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Agent{}, domain.ErrNotFound
		}
		return domain.Agent{}, fmt.Errorf("get agent %s: %w", id, err)
	}
	return a, nil
}

// Update writes only the fields present in the patch.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, p domain.AgentPatch) (domain.Agent, error) {
	sql, args := buildUpdate(id, p)

	row := r.store.QueryRow(ctx, sql, args...)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Agent{}, domain.ErrNotFound
		}
		return domain.Agent{}, fmt.Errorf("update agent %s: %w", id, err)
	}
	return a, nil
}

// UpdateLocation writes only the location column. This is the high-frequency
// ping path: no other field is touched.
func (r *Repo) UpdateLocation(ctx context.Context, id uuid.UUID, lat, lon float64) (domain.Agent, error) {
	row := r.store.QueryRow(ctx, `
		UPDATE agents
		SET location = ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography
		WHERE id = $1
		RETURNING `+agentColumns,
		id, lon, lat,
	)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Agent{}, domain.ErrNotFound
		}
		return domain.Agent{}, fmt.Errorf("update agent %s location: %w", id, err)
	}
	return a, nil
}

// Delete hard-deletes an agent and returns its id and name for confirmation.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
	var (
		deletedID uuid.UUID
		name      string
	)
	err := r.store.QueryRow(ctx, `
		DELETE FROM agents
		WHERE id = $1
		RETURNING id, name`,
		id,
	).Scan(&deletedID, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", domain.ErrNotFound
		}
		return uuid.Nil, "", fmt.Errorf("delete agent %s: %w", id, err)
	}
	return deletedID, name, nil
}

// FindNearby returns located agents within radiusM meters of (lat, lon),
// closest first. Unlocated agents are excluded by the IS NOT NULL guard.
func (r *Repo) FindNearby(ctx context.Context, lat, lon, radiusM float64, status *domain.AgentStatus) ([]domain.NearbyAgent, error) {
	rows, err := r.store.Query(ctx, `
		SELECT `+agentColumns+`,
		       ST_Distance(location, ref.g)::float8 AS distance_m
		FROM agents,
		     (SELECT ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography AS g) AS ref
		WHERE location IS NOT NULL
		  AND ST_DWithin(location, ref.g, $3)
		  AND ($4::text IS NULL OR status = $4)
		ORDER BY distance_m`,
		lat, lon, radiusM, status,
	)
	if err != nil {
		return nil, fmt.Errorf("find nearby agents: %w", err)
	}
	defer rows.Close()

	agents := make([]domain.NearbyAgent, 0)
	for rows.Next() {
		var (
			n        domain.NearbyAgent
			lonN, latN *float64
		)
		if err := rows.Scan(&n.ID, &n.Name, &n.Status, &lonN, &latN, &n.CreatedAt, &n.DistanceM); err != nil {
			return nil, fmt.Errorf("scan nearby agent: %w", err)
		}
		n.Location = pointFrom(lonN, latN)
		agents = append(agents, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearby agents: %w", err)
	}
	return agents, nil
}

// Distance returns the geodesic distance in meters between two agents.
// Returns domain.ErrNotFound when either agent is missing or unlocated.
func (r *Repo) Distance(ctx context.Context, a, b uuid.UUID) (float64, error) {
	var dist *float64
	err := r.store.QueryRow(ctx, `
		SELECT ST_Distance(x.location, y.location)::float8
		FROM agents x, agents y
		WHERE x.id = $1 AND y.id = $2`,
		a, b,
	).Scan(&dist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("distance %s-%s: %w", a, b, err)
	}
	// ST_Distance is NULL when either location is unset.
	if dist == nil {
		return 0, domain.ErrNotFound
	}
	return *dist, nil
}

// SearchByName returns agents whose trigram name similarity exceeds the threshold.
func (r *Repo) SearchByName(ctx context.Context, query string, limit int) ([]domain.ScoredAgent, error) {
	rows, err := r.store.Query(ctx, fmt.Sprintf(`
		SELECT `+agentColumns+`,
		       similarity(name, $1)::float8 AS score
		FROM agents
		WHERE similarity(name, $1) > %g
		ORDER BY score DESC
		LIMIT $2`, fuzzyThreshold),
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("agent name search: %w", err)
	}
	defer rows.Close()

	agents := make([]domain.ScoredAgent, 0)
	for rows.Next() {
		var (
			s        domain.ScoredAgent
			lon, lat *float64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Status, &lon, &lat, &s.CreatedAt, &s.Similarity); err != nil {
			return nil, fmt.Errorf("scan scored agent: %w", err)
		}
		s.Location = pointFrom(lon, lat)
		agents = append(agents, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scored agents: %w", err)
	}
	return agents, nil
}

// buildUpdate assembles an UPDATE statement from the present patch fields.
// The caller guarantees the patch is non-empty.
func buildUpdate(id uuid.UUID, p domain.AgentPatch) (string, []any) {
	sets := make([]string, 0, 2)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}

	sql := fmt.Sprintf(
		"UPDATE agents SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "), agentColumns,
	)
	return sql, args
}

func scanAgent(row pgx.Row) (domain.Agent, error) {
	var (
		a        domain.Agent
		lon, lat *float64
	)
	err := row.Scan(&a.ID, &a.Name, &a.Status, &lon, &lat, &a.CreatedAt)
	if err != nil {
		return domain.Agent{}, err //nolint:wrapcheck // callers add context
	}
	a.Location = pointFrom(lon, lat)
	return a, nil
}

func pointFrom(lon, lat *float64) *domain.Point {
	if lon == nil || lat == nil {
		return nil
	}
	return &domain.Point{Lon: *lon, Lat: *lat}
}
