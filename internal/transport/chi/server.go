package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fleetdex/internal/domain"
	agentuc "github.com/kailas-cloud/fleetdex/internal/usecase/agent"
	cataloguc "github.com/kailas-cloud/fleetdex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/fleetdex/internal/usecase/health"
	orderuc "github.com/kailas-cloud/fleetdex/internal/usecase/order"
	readinguc "github.com/kailas-cloud/fleetdex/internal/usecase/reading"
)

// Server wires the resource services to the HTTP surface.
type Server struct {
	catalog  *cataloguc.Service
	agents   *agentuc.Service
	readings *readinguc.Service
	orders   *orderuc.Service
	health   *healthuc.Service

	maxPageSize   int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxPageSize caps the limit query
// parameter on every list and search endpoint.
func NewServer(
	catalog *cataloguc.Service,
	agents *agentuc.Service,
	readings *readinguc.Service,
	orders *orderuc.Service,
	health *healthuc.Service,
	maxPageSize int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog:     catalog,
		agents:      agents,
		readings:    readings,
		orders:      orders,
		health:      health,
		maxPageSize: maxPageSize,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)

	r.Route("/catalog", func(r chi.Router) {
		r.Post("/", s.CreateCatalogItem)
		r.Get("/", s.ListCatalogItems)
		r.Get("/search", s.SearchCatalog)
		r.Get("/fuzzy", s.FuzzySearchCatalog)
		r.Get("/{id}", s.GetCatalogItem)
		r.Put("/{id}", s.UpdateCatalogItem)
		r.Patch("/{id}", s.UpdateCatalogItem)
		r.Delete("/{id}", s.DeleteCatalogItem)
	})

	r.Route("/agents", func(r chi.Router) {
		r.Post("/", s.CreateAgent)
		r.Get("/", s.ListAgents)
		r.Get("/nearby", s.FindNearbyAgents)
		r.Get("/search", s.SearchAgents)
		r.Get("/distance/{a}/{b}", s.AgentDistance)
		r.Get("/{id}", s.GetAgent)
		r.Patch("/{id}", s.UpdateAgent)
		r.Patch("/{id}/location", s.UpdateAgentLocation)
		r.Delete("/{id}", s.DeleteAgent)
	})

	r.Route("/readings", func(r chi.Router) {
		r.Post("/", s.IngestReading)
		r.Get("/", s.ListReadings)
		r.Get("/fleet", s.FleetSummary)
		r.Get("/stats", s.StorageStats)
		r.Get("/{source_id}/latest", s.LatestReading)
		r.Get("/{source_id}/aggregate", s.AggregateReadings)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.CreateOrder)
		r.Get("/", s.ListOrders)
		r.Get("/queue-stats", s.QueueStats)
		r.Get("/{id}", s.GetOrder)
		r.Patch("/{id}", s.UpdateOrder)
		r.Patch("/{id}/status", s.SetOrderStatus)
		r.Delete("/{id}", s.DeleteOrder)
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Checks["database"] == healthuc.CheckError {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
