package chi

import (
	"encoding/json"
	"net/http"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

type createCatalogItemRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes"`
	Embedding   []float32      `json:"embedding"`
}

type updateCatalogItemRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Attributes  *map[string]any `json:"attributes"`
	Embedding   *[]float32      `json:"embedding"`
}

type deletedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

// CreateCatalogItem handles POST /catalog.
func (s *Server) CreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req createCatalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	item, err := s.catalog.Create(r.Context(), req.Name, req.Description, req.Attributes, req.Embedding)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// ListCatalogItems handles GET /catalog.
func (s *Server) ListCatalogItems(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := s.pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	items, err := s.catalog.List(r.Context(), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(items))
}

// GetCatalogItem handles GET /catalog/{id}.
func (s *Server) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	item, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// UpdateCatalogItem handles PUT and PATCH /catalog/{id}.
func (s *Server) UpdateCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var req updateCatalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	patch := domain.CatalogPatch{
		Name:        req.Name,
		Description: req.Description,
		Attributes:  req.Attributes,
		Embedding:   req.Embedding,
	}

	item, err := s.catalog.Update(r.Context(), id, patch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// DeleteCatalogItem handles DELETE /catalog/{id}.
func (s *Server) DeleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	deletedID, name, err := s.catalog.Delete(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse{ID: deletedID.String(), Name: name})
}

// SearchCatalog handles GET /catalog/search. Scoring is hybrid when an
// embedding signal is available and keyword-only otherwise.
func (s *Server) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	limit, _, err := s.pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	results, err := s.catalog.SearchHybrid(r.Context(), r.URL.Query().Get("q"), nil, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}

// FuzzySearchCatalog handles GET /catalog/fuzzy.
func (s *Server) FuzzySearchCatalog(w http.ResponseWriter, r *http.Request) {
	limit, _, err := s.pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	results, err := s.catalog.SearchFuzzy(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(results))
}
