package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

type ingestReadingRequest struct {
	SourceID    string        `json:"source_id"`
	Time        *time.Time    `json:"time"`
	Temperature *float64      `json:"temperature"`
	Humidity    *float64      `json:"humidity"`
	Battery     *float64      `json:"battery"`
	Location    *domain.Point `json:"location"`
}

// IngestReading handles POST /readings.
func (s *Server) IngestReading(w http.ResponseWriter, r *http.Request) {
	var req ingestReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reading := domain.SensorReading{
		SourceID:    req.SourceID,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		Battery:     req.Battery,
		Location:    req.Location,
	}
	if req.Time != nil {
		reading.Time = *req.Time
	}

	stored, err := s.readings.Ingest(r.Context(), reading)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

// ListReadings handles GET /readings.
func (s *Server) ListReadings(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := s.pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var sourceID *string
	if raw := r.URL.Query().Get("source_id"); raw != "" {
		sourceID = &raw
	}

	readings, err := s.readings.List(r.Context(), sourceID, limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(readings))
}

// LatestReading handles GET /readings/{source_id}/latest.
func (s *Server) LatestReading(w http.ResponseWriter, r *http.Request) {
	reading, err := s.readings.Latest(r.Context(), chi.URLParam(r, "source_id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reading)
}

// AggregateReadings handles GET /readings/{source_id}/aggregate. The bucket
// parameter is a Go duration string ("15m", "1h"); from/to are RFC 3339 and
// default to the trailing 24 hours.
func (s *Server) AggregateReadings(w http.ResponseWriter, r *http.Request) {
	var bucket time.Duration
	if raw := r.URL.Query().Get("bucket"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid bucket: "+err.Error())
			return
		}
		bucket = d
	}

	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	buckets, err := s.readings.Aggregate(r.Context(), chi.URLParam(r, "source_id"), bucket, from, to)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(buckets))
}

// FleetSummary handles GET /readings/fleet.
func (s *Server) FleetSummary(w http.ResponseWriter, r *http.Request) {
	windowHours, err := queryInt(r, "window_hours", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	readings, err := s.readings.FleetSummary(r.Context(), windowHours)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(readings))
}

// StorageStats handles GET /readings/stats.
func (s *Server) StorageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.readings.StorageStats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
