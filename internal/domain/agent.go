package domain

import (
	"time"

	"github.com/google/uuid"
)

// AgentStatus is the availability state of an agent.
type AgentStatus string

const (
	// AgentAvailable means the agent can take work.
	AgentAvailable AgentStatus = "available"
	// AgentBusy means the agent is on a job.
	AgentBusy AgentStatus = "busy"
	// AgentOffline means the agent is not reachable.
	AgentOffline AgentStatus = "offline"
)

// ValidAgentStatus reports whether s is one of the known statuses.
func ValidAgentStatus(s AgentStatus) bool {
	switch s {
	case AgentAvailable, AgentBusy, AgentOffline:
		return true
	}
	return false
}

// Agent is a geolocated mobile entity. Location is nil until the first ping;
// unlocated agents are excluded from proximity queries.
type Agent struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Status    AgentStatus `json:"status"`
	Location  *Point      `json:"location,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AgentPatch is a partial update: only non-nil fields are written.
// Location has its own write path (UpdateLocation) and is not patchable here.
type AgentPatch struct {
	Name   *string
	Status *AgentStatus
}

// IsEmpty reports whether the patch carries no fields.
func (p AgentPatch) IsEmpty() bool {
	return p.Name == nil && p.Status == nil
}

// NearbyAgent is a proximity hit with the geodesic distance in meters.
type NearbyAgent struct {
	Agent
	DistanceM float64 `json:"distance_m"`
}

// ScoredAgent is a name-search hit with its trigram similarity.
type ScoredAgent struct {
	Agent
	Similarity float64 `json:"similarity"`
}
