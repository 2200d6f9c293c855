package chi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

type createOrderRequest struct {
	CustomerID    string         `json:"customer_id"`
	AgentID       uuid.UUID      `json:"agent_id"`
	CatalogItemID uuid.UUID      `json:"catalog_item_id"`
	Quantity      int            `json:"quantity"`
	Attributes    map[string]any `json:"attributes"`
}

type updateOrderRequest struct {
	Quantity   *int                `json:"quantity"`
	Status     *domain.OrderStatus `json:"status"`
	Attributes *map[string]any     `json:"attributes"`
}

// CreateOrder handles POST /orders. The response status is "enqueued" when
// the creation event reached the queue and "initial" when the broker was
// unavailable; both are 201.
func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	o, err := s.orders.Create(r.Context(), req.CustomerID, req.AgentID, req.CatalogItemID, req.Quantity, req.Attributes)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

// ListOrders handles GET /orders.
func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.OrderStatus(raw)
		status = &st
	}

	orders, err := s.orders.List(r.Context(), status)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(orders))
}

// GetOrder handles GET /orders/{id}.
func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	o, err := s.orders.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// UpdateOrder handles PATCH /orders/{id}.
func (s *Server) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	patch := domain.OrderPatch{
		Quantity:   req.Quantity,
		Status:     req.Status,
		Attributes: req.Attributes,
	}

	o, err := s.orders.Update(r.Context(), id, patch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// SetOrderStatus handles PATCH /orders/{id}/status. Any of the five statuses
// may overwrite any other; the queue consumer owns the lifecycle.
func (s *Server) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	value := r.URL.Query().Get("value")
	if value == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "value query parameter is required")
		return
	}

	o, err := s.orders.SetStatus(r.Context(), id, domain.OrderStatus(value))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// DeleteOrder handles DELETE /orders/{id}.
func (s *Server) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	deletedID, err := s.orders.Delete(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": deletedID.String()})
}

// QueueStats handles GET /orders/queue-stats. The body is JSON null when the
// broker is unavailable.
func (s *Server) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.orders.QueueStats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
