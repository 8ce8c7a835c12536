package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
	"github.com/Basim108/galactic-delivery-system.backend/internal/service"
)

// CreateTripRequest is the body for POST /trips.
// TripID is optional; the server generates one when it is omitted.
type CreateTripRequest struct {
	TripID           *domain.TripID   `json:"trip_id,omitempty"`
	DriverID         domain.DriverID  `json:"driver_id"`
	VehicleID        domain.VehicleID `json:"vehicle_id"`
	RouteID          domain.RouteID   `json:"route_id"`
	CargoRequirement int              `json:"cargo_requirement"`
}

// StartTripRequest is the body for POST /trips/{tripID}/start.
// RequestID is the optional idempotency key.
type StartTripRequest struct {
	RequestID string `json:"request_id,omitempty"`
}

// ReachCheckpointRequest is the body for POST /trips/{tripID}/checkpoints.
type ReachCheckpointRequest struct {
	CheckpointName string `json:"checkpoint_name"`
}

// ReportIncidentRequest is the body for POST /trips/{tripID}/incidents.
type ReportIncidentRequest struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description,omitempty"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	tripID := domain.NewTripID()
	if req.TripID != nil {
		tripID = *req.TripID
	}

	view, err := s.trips.Create(r.Context(), service.CreateTripParams{
		TripID:           tripID,
		DriverID:         req.DriverID,
		VehicleID:        req.VehicleID,
		RouteID:          req.RouteID,
		CargoRequirement: req.CargoRequirement,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// StartTrip handles POST /trips/{tripID}/start.
// An empty body is accepted; the idempotency key is optional.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDFromURL(w, r)
	if !ok {
		return
	}

	var req StartTripRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
	}

	view, err := s.trips.Start(r.Context(), tripID, req.RequestID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ReachCheckpoint handles POST /trips/{tripID}/checkpoints.
func (s *Server) ReachCheckpoint(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDFromURL(w, r)
	if !ok {
		return
	}

	var req ReachCheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	view, err := s.trips.ReachCheckpoint(r.Context(), tripID, req.CheckpointName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ReportIncident handles POST /trips/{tripID}/incidents.
func (s *Server) ReportIncident(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDFromURL(w, r)
	if !ok {
		return
	}

	var req ReportIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	severity, err := domain.ParseIncidentSeverity(req.Severity)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := s.trips.ReportIncident(r.Context(), tripID, domain.Incident{
		Type:        req.Type,
		Severity:    severity,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// CompleteTrip handles POST /trips/{tripID}/complete.
func (s *Server) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDFromURL(w, r)
	if !ok {
		return
	}

	summary, err := s.trips.Complete(r.Context(), tripID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDFromURL(w, r)
	if !ok {
		return
	}

	view, err := s.trips.Get(r.Context(), tripID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// GetTripSummary handles GET /trips/{tripID}/summary.
func (s *Server) GetTripSummary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := tripIDFromURL(w, r)
	if !ok {
		return
	}

	summary, err := s.trips.GetSummary(r.Context(), tripID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// tripIDFromURL parses the {tripID} path parameter, writing a 400 on failure.
func tripIDFromURL(w http.ResponseWriter, r *http.Request) (domain.TripID, bool) {
	tripID, err := domain.ParseTripID(chi.URLParam(r, "tripID"))
	if err != nil {
		badRequest(w, "invalid trip id")
		return domain.TripID{}, false
	}
	return tripID, true
}
