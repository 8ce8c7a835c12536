// Package handler implements the HTTP surface of the Galactic Delivery
// System. All handlers are methods on Server; methods are split into
// domain-specific files (trip.go, resources.go, health.go) but share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
	"github.com/Basim108/galactic-delivery-system.backend/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the store or service layer.
type TripServicer interface {
	Create(ctx context.Context, p service.CreateTripParams) (service.TripView, error)
	Start(ctx context.Context, tripID domain.TripID, requestID string) (service.TripView, error)
	ReachCheckpoint(ctx context.Context, tripID domain.TripID, checkpointName string) (service.TripView, error)
	ReportIncident(ctx context.Context, tripID domain.TripID, incident domain.Incident) (service.TripView, error)
	Complete(ctx context.Context, tripID domain.TripID) (service.TripSummary, error)
	Get(ctx context.Context, tripID domain.TripID) (service.TripView, error)
	GetSummary(ctx context.Context, tripID domain.TripID) (service.TripSummary, error)
}

// ResourceServicer defines the resource registration operations the handlers
// depend on.
type ResourceServicer interface {
	CreateDriver(ctx context.Context, name string, status domain.ResourceStatus) (domain.Driver, error)
	CreateVehicle(ctx context.Context, name, vehicleType string, cargoCapacity int, status domain.ResourceStatus) (domain.Vehicle, error)
	CreateRoute(ctx context.Context, name string, checkpointNames []string) (domain.Route, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	trips     TripServicer
	resources ResourceServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, resources ResourceServicer) *Server {
	return &Server{trips: trips, resources: resources}
}

// Routes registers every endpoint on a fresh chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)

	r.Post("/drivers", s.CreateDriver)
	r.Post("/vehicles", s.CreateVehicle)
	r.Post("/routes", s.CreateRoute)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Get("/summary", s.GetTripSummary)
			r.Post("/start", s.StartTrip)
			r.Post("/checkpoints", s.ReachCheckpoint)
			r.Post("/incidents", s.ReportIncident)
			r.Post("/complete", s.CompleteTrip)
		})
	})

	return r
}
