// Package service contains the command orchestrators for the Galactic
// Delivery System. An orchestrator loads state, invokes one aggregate
// transition, persists the result under the optimistic-concurrency contract,
// coordinates the booking ledger where the lifecycle demands it, and
// republishes newly recorded events. No SQL lives here — services depend on
// repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
	"github.com/Basim108/galactic-delivery-system.backend/internal/repo"
)

// TripView is the projection returned by every trip command.
type TripView struct {
	TripID                domain.TripID     `json:"trip_id"`
	DriverID              domain.DriverID   `json:"driver_id"`
	VehicleID             domain.VehicleID  `json:"vehicle_id"`
	RouteID               domain.RouteID    `json:"route_id"`
	Status                domain.TripStatus `json:"status"`
	Version               int64             `json:"version"`
	LastReachedCheckpoint string            `json:"last_reached_checkpoint,omitempty"`
}

// TripSummary is derived by scanning the trip's full recorded event history.
type TripSummary struct {
	TripID                domain.TripID     `json:"trip_id"`
	Status                domain.TripStatus `json:"status"`
	TotalEvents           int               `json:"total_events"`
	TotalIncidents        int               `json:"total_incidents"`
	LastReachedCheckpoint string            `json:"last_reached_checkpoint,omitempty"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	AbortedAt             *time.Time        `json:"aborted_at,omitempty"`
}

// CreateTripParams carries the caller-supplied inputs for trip creation.
type CreateTripParams struct {
	TripID           domain.TripID
	DriverID         domain.DriverID
	VehicleID        domain.VehicleID
	RouteID          domain.RouteID
	CargoRequirement int
}

// TripService implements the trip command orchestrations.
type TripService struct {
	trips     repo.TripStore
	drivers   repo.DriverRepo
	vehicles  repo.VehicleRepo
	routes    repo.RouteRepo
	ledger    repo.BookingLedger
	clock     Clock
	publisher EventPublisher
	log       *slog.Logger
}

// NewTripService constructs a TripService wired to the provided stores and
// collaborators.
func NewTripService(
	trips repo.TripStore,
	drivers repo.DriverRepo,
	vehicles repo.VehicleRepo,
	routes repo.RouteRepo,
	ledger repo.BookingLedger,
	clock Clock,
	publisher EventPublisher,
	log *slog.Logger,
) *TripService {
	return &TripService{
		trips:     trips,
		drivers:   drivers,
		vehicles:  vehicles,
		routes:    routes,
		ledger:    ledger,
		clock:     clock,
		publisher: publisher,
		log:       log,
	}
}

// Create plans a new trip: it validates the driver, vehicle, and route,
// reserves the driver and vehicle slots, and only then persists the trip.
// A failed insert releases the reservation before the error propagates.
func (s *TripService) Create(ctx context.Context, p CreateTripParams) (TripView, error) {
	driver, err := s.drivers.GetByID(ctx, p.DriverID)
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	if driver.Status != domain.StatusAvailable {
		return TripView{}, fmt.Errorf("service.TripService.Create: %w",
			domain.NewRuleViolation(domain.CodeDriverUnavailable, "driver %s is unavailable", p.DriverID))
	}

	vehicle, err := s.vehicles.GetByID(ctx, p.VehicleID)
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	if vehicle.Status != domain.StatusAvailable {
		return TripView{}, fmt.Errorf("service.TripService.Create: %w",
			domain.NewRuleViolation(domain.CodeVehicleUnavailable, "vehicle %s is unavailable", p.VehicleID))
	}

	route, err := s.routes.GetByID(ctx, p.RouteID)
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	checkpoints := tripCheckpointsFromRoute(route)

	trip, err := domain.NewTrip(p.TripID, p.DriverID, p.VehicleID, p.RouteID,
		p.CargoRequirement, checkpoints, s.clock.Now())
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	// Reserve shared resources before persisting the trip.
	if err := s.ledger.Reserve(ctx, p.DriverID, p.VehicleID, p.TripID); err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	if err := s.trips.Insert(ctx, trip); err != nil {
		// Compensate the reservation; the insert failure is the caller's error.
		if relErr := s.ledger.Release(ctx, p.DriverID, p.VehicleID, p.TripID); relErr != nil {
			s.log.ErrorContext(ctx, "failed to release reservation after insert failure",
				"trip_id", p.TripID, "error", relErr)
		}
		return TripView{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	s.publish(ctx, trip.DrainUncommittedEvents())

	return viewOf(trip), nil
}

// Start activates a planned trip. requestID ("" for none) is the caller's
// idempotency key; a replay returns the current state without a new event.
func (s *TripService) Start(ctx context.Context, tripID domain.TripID, requestID string) (TripView, error) {
	trip, err := s.trips.Load(ctx, tripID)
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Start: %w", err)
	}
	expectedVersion := trip.Version()

	vehicle, err := s.vehicles.GetByID(ctx, trip.VehicleID())
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Start: %w", err)
	}

	if err := trip.Start(vehicle.CargoCapacity, s.clock.Now(), requestID); err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Start: %w", err)
	}

	if err := s.trips.Update(ctx, trip, expectedVersion); err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Start: %w", err)
	}

	s.publish(ctx, trip.DrainUncommittedEvents())

	return viewOf(trip), nil
}

// ReachCheckpoint advances an active trip to the named checkpoint.
func (s *TripService) ReachCheckpoint(ctx context.Context, tripID domain.TripID, checkpointName string) (TripView, error) {
	trip, err := s.trips.Load(ctx, tripID)
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.ReachCheckpoint: %w", err)
	}
	expectedVersion := trip.Version()

	if err := trip.ReachCheckpoint(checkpointName, s.clock.Now()); err != nil {
		return TripView{}, fmt.Errorf("service.TripService.ReachCheckpoint: %w", err)
	}

	if err := s.trips.Update(ctx, trip, expectedVersion); err != nil {
		return TripView{}, fmt.Errorf("service.TripService.ReachCheckpoint: %w", err)
	}

	s.publish(ctx, trip.DrainUncommittedEvents())

	return viewOf(trip), nil
}

// ReportIncident records an incident; a catastrophic one aborts the trip and
// frees its driver and vehicle slots.
func (s *TripService) ReportIncident(ctx context.Context, tripID domain.TripID, incident domain.Incident) (TripView, error) {
	trip, err := s.trips.Load(ctx, tripID)
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.ReportIncident: %w", err)
	}
	expectedVersion := trip.Version()

	if err := trip.ReportIncident(incident, s.clock.Now()); err != nil {
		return TripView{}, fmt.Errorf("service.TripService.ReportIncident: %w", err)
	}

	if err := s.trips.Update(ctx, trip, expectedVersion); err != nil {
		return TripView{}, fmt.Errorf("service.TripService.ReportIncident: %w", err)
	}

	if trip.Status() == domain.TripStatusAborted {
		if err := s.ledger.Release(ctx, trip.DriverID(), trip.VehicleID(), trip.ID()); err != nil {
			return TripView{}, fmt.Errorf("service.TripService.ReportIncident: %w", err)
		}
	}

	s.publish(ctx, trip.DrainUncommittedEvents())

	return viewOf(trip), nil
}

// Complete finishes a trip at its destination and frees its driver and
// vehicle slots.
func (s *TripService) Complete(ctx context.Context, tripID domain.TripID) (TripSummary, error) {
	trip, err := s.trips.Load(ctx, tripID)
	if err != nil {
		return TripSummary{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}
	expectedVersion := trip.Version()

	if err := trip.Complete(s.clock.Now()); err != nil {
		return TripSummary{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}

	if err := s.trips.Update(ctx, trip, expectedVersion); err != nil {
		return TripSummary{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}

	if err := s.ledger.Release(ctx, trip.DriverID(), trip.VehicleID(), trip.ID()); err != nil {
		return TripSummary{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}

	s.publish(ctx, trip.DrainUncommittedEvents())

	return summaryOf(trip), nil
}

// Get returns the current projection of a trip.
func (s *TripService) Get(ctx context.Context, tripID domain.TripID) (TripView, error) {
	trip, err := s.trips.Load(ctx, tripID)
	if err != nil {
		return TripView{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return viewOf(trip), nil
}

// GetSummary returns the event-derived summary projection of a trip.
func (s *TripService) GetSummary(ctx context.Context, tripID domain.TripID) (TripSummary, error) {
	trip, err := s.trips.Load(ctx, tripID)
	if err != nil {
		return TripSummary{}, fmt.Errorf("service.TripService.GetSummary: %w", err)
	}
	return summaryOf(trip), nil
}

// publish fans out newly recorded events in order. Failures are logged and
// swallowed: the mutation is already durable and subscribers are expected to
// tolerate at-least-once delivery.
func (s *TripService) publish(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events); err != nil {
		s.log.ErrorContext(ctx, "failed to publish trip events",
			"count", len(events), "error", err)
	}
}

func viewOf(trip *domain.Trip) TripView {
	return TripView{
		TripID:                trip.ID(),
		DriverID:              trip.DriverID(),
		VehicleID:             trip.VehicleID(),
		RouteID:               trip.RouteID(),
		Status:                trip.Status(),
		Version:               trip.Version(),
		LastReachedCheckpoint: trip.LastReachedCheckpointName(),
	}
}

// summaryOf scans the full recorded history: incident count from
// IncidentReported events, terminal timestamps from TripCompleted/TripAborted.
func summaryOf(trip *domain.Trip) TripSummary {
	events := trip.RecordedEvents()

	summary := TripSummary{
		TripID:                trip.ID(),
		Status:                trip.Status(),
		TotalEvents:           len(events),
		LastReachedCheckpoint: trip.LastReachedCheckpointName(),
	}

	for _, event := range events {
		switch e := event.(type) {
		case domain.IncidentReported:
			summary.TotalIncidents++
		case domain.TripCompleted:
			at := e.OccurredAt
			summary.CompletedAt = &at
		case domain.TripAborted:
			at := e.OccurredAt
			summary.AbortedAt = &at
		}
	}

	return summary
}

// tripCheckpointsFromRoute copies the route's checkpoints onto the trip in
// sequence order.
func tripCheckpointsFromRoute(route domain.Route) []domain.TripCheckpoint {
	checkpoints := make([]domain.TripCheckpoint, len(route.Checkpoints))
	for i, cp := range route.Checkpoints {
		checkpoints[i] = domain.TripCheckpoint{ID: cp.ID, Sequence: cp.Sequence, Name: cp.Name}
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Sequence < checkpoints[j].Sequence
	})
	return checkpoints
}
