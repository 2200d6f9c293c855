package chi

import (
	"encoding/json"
	"net/http"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

type createAgentRequest struct {
	Name     string             `json:"name"`
	Status   domain.AgentStatus `json:"status"`
	Location *domain.Point      `json:"location"`
}

type updateAgentRequest struct {
	Name   *string             `json:"name"`
	Status *domain.AgentStatus `json:"status"`
}

type distanceResponse struct {
	A         string  `json:"a"`
	B         string  `json:"b"`
	DistanceM float64 `json:"distance_m"`
}

// CreateAgent handles POST /agents.
func (s *Server) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	a, err := s.agents.Create(r.Context(), req.Name, req.Status, req.Location)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

// ListAgents handles GET /agents.
func (s *Server) ListAgents(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := s.pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	agents, err := s.agents.List(r.Context(), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(agents))
}

// GetAgent handles GET /agents/{id}.
func (s *Server) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	a, err := s.agents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// UpdateAgent handles PATCH /agents/{id}. Location is not patchable here;
// it has its own ping endpoint.
func (s *Server) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var req updateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	a, err := s.agents.Update(r.Context(), id, domain.AgentPatch{Name: req.Name, Status: req.Status})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// UpdateAgentLocation handles PATCH /agents/{id}/location.
func (s *Server) UpdateAgentLocation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	lat, latOK, err := queryFloat(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	lon, lonOK, err := queryFloat(r, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if !latOK || !lonOK {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "lat and lon are required")
		return
	}

	a, err := s.agents.UpdateLocation(r.Context(), id, lat, lon)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// DeleteAgent handles DELETE /agents/{id}.
func (s *Server) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	deletedID, name, err := s.agents.Delete(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse{ID: deletedID.String(), Name: name})
}

// FindNearbyAgents handles GET /agents/nearby.
func (s *Server) FindNearbyAgents(w http.ResponseWriter, r *http.Request) {
	lat, latOK, err := queryFloat(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	lon, lonOK, err := queryFloat(r, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if !latOK || !lonOK {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "lat and lon are required")
		return
	}

	radius, _, err := queryFloat(r, "radius_m")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var status *domain.AgentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.AgentStatus(raw)
		status = &st
	}

	agents, err := s.agents.FindNearby(r.Context(), lat, lon, radius, status)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(agents))
}

// AgentDistance handles GET /agents/distance/{a}/{b}.
func (s *Server) AgentDistance(w http.ResponseWriter, r *http.Request) {
	a, err := idParam(r, "a")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	b, err := idParam(r, "b")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	d, err := s.agents.Distance(r.Context(), a, b)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, distanceResponse{A: a.String(), B: b.String(), DistanceM: d})
}

// SearchAgents handles GET /agents/search.
func (s *Server) SearchAgents(w http.ResponseWriter, r *http.Request) {
	limit, _, err := s.pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	agents, err := s.agents.SearchByName(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(agents))
}
