package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// CreateDriverRequest is the body for POST /drivers.
type CreateDriverRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// DriverResponse is the body returned for a created driver.
type DriverResponse struct {
	ID     domain.DriverID       `json:"id"`
	Name   string                `json:"name"`
	Status domain.ResourceStatus `json:"status"`
}

// CreateVehicleRequest is the body for POST /vehicles.
type CreateVehicleRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	CargoCapacity int    `json:"cargo_capacity"`
	Status        string `json:"status"`
}

// VehicleResponse is the body returned for a created vehicle.
type VehicleResponse struct {
	ID            domain.VehicleID      `json:"id"`
	Name          string                `json:"name"`
	Type          string                `json:"type"`
	CargoCapacity int                   `json:"cargo_capacity"`
	Status        domain.ResourceStatus `json:"status"`
}

// CreateRouteRequest is the body for POST /routes.
type CreateRouteRequest struct {
	Name        string   `json:"name"`
	Checkpoints []string `json:"checkpoints"`
}

// RouteCheckpointResponse is one checkpoint in a RouteResponse.
type RouteCheckpointResponse struct {
	ID       domain.CheckpointID `json:"id"`
	Sequence int                 `json:"sequence"`
	Name     string              `json:"name"`
}

// RouteResponse is the body returned for a created route.
type RouteResponse struct {
	ID          domain.RouteID            `json:"id"`
	Name        string                    `json:"name"`
	Checkpoints []RouteCheckpointResponse `json:"checkpoints"`
}

// CreateDriver handles POST /drivers.
func (s *Server) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req CreateDriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	status, err := domain.ParseResourceStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	driver, err := s.resources.CreateDriver(r.Context(), req.Name, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, DriverResponse{
		ID:     driver.ID,
		Name:   driver.Name,
		Status: driver.Status,
	})
}

// CreateVehicle handles POST /vehicles.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	status, err := domain.ParseResourceStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	vehicle, err := s.resources.CreateVehicle(r.Context(), req.Name, req.Type, req.CargoCapacity, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, VehicleResponse{
		ID:            vehicle.ID,
		Name:          vehicle.Name,
		Type:          vehicle.Type,
		CargoCapacity: vehicle.CargoCapacity,
		Status:        vehicle.Status,
	})
}

// CreateRoute handles POST /routes.
func (s *Server) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req CreateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	route, err := s.resources.CreateRoute(r.Context(), req.Name, req.Checkpoints)
	if err != nil {
		writeError(w, err)
		return
	}

	checkpoints := make([]RouteCheckpointResponse, len(route.Checkpoints))
	for i, cp := range route.Checkpoints {
		checkpoints[i] = RouteCheckpointResponse{ID: cp.ID, Sequence: cp.Sequence, Name: cp.Name}
	}

	writeJSON(w, http.StatusCreated, RouteResponse{
		ID:          route.ID,
		Name:        route.Name,
		Checkpoints: checkpoints,
	})
}
