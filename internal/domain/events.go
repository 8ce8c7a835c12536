package domain

import "time"

// EventKind names a domain event type. Kinds are stable strings used as the
// discriminator column in the trip event journal and as message routing keys.
type EventKind string

const (
	KindTripCreated       EventKind = "TripCreated"
	KindTripStarted       EventKind = "TripStarted"
	KindCheckpointReached EventKind = "CheckpointReached"
	KindIncidentReported  EventKind = "IncidentReported"
	KindTripCompleted     EventKind = "TripCompleted"
	KindTripAborted       EventKind = "TripAborted"
)

// Event is implemented by every trip domain event.
type Event interface {
	Kind() EventKind
	Trip() TripID
	Time() time.Time
}

// TripCreated is emitted once, when the trip aggregate is constructed.
type TripCreated struct {
	TripID     TripID    `json:"trip_id"`
	DriverID   DriverID  `json:"driver_id"`
	VehicleID  VehicleID `json:"vehicle_id"`
	RouteID    RouteID   `json:"route_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e TripCreated) Kind() EventKind { return KindTripCreated }
func (e TripCreated) Trip() TripID    { return e.TripID }
func (e TripCreated) Time() time.Time { return e.OccurredAt }

// TripStarted is emitted when a planned trip becomes active.
type TripStarted struct {
	TripID     TripID    `json:"trip_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e TripStarted) Kind() EventKind { return KindTripStarted }
func (e TripStarted) Trip() TripID    { return e.TripID }
func (e TripStarted) Time() time.Time { return e.OccurredAt }

// CheckpointReached is emitted each time the trip advances to a checkpoint,
// including the origin checkpoint reached implicitly by Start.
type CheckpointReached struct {
	TripID         TripID       `json:"trip_id"`
	CheckpointID   CheckpointID `json:"checkpoint_id"`
	CheckpointName string       `json:"checkpoint_name"`
	Sequence       int          `json:"sequence"`
	OccurredAt     time.Time    `json:"occurred_at"`
}

func (e CheckpointReached) Kind() EventKind { return KindCheckpointReached }
func (e CheckpointReached) Trip() TripID    { return e.TripID }
func (e CheckpointReached) Time() time.Time { return e.OccurredAt }

// IncidentReported is emitted for every accepted incident report.
type IncidentReported struct {
	TripID      TripID           `json:"trip_id"`
	Type        string           `json:"type"`
	Severity    IncidentSeverity `json:"severity"`
	Description string           `json:"description,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

func (e IncidentReported) Kind() EventKind { return KindIncidentReported }
func (e IncidentReported) Trip() TripID    { return e.TripID }
func (e IncidentReported) Time() time.Time { return e.OccurredAt }

// TripCompleted is emitted when an active trip at its destination completes.
type TripCompleted struct {
	TripID     TripID    `json:"trip_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e TripCompleted) Kind() EventKind { return KindTripCompleted }
func (e TripCompleted) Trip() TripID    { return e.TripID }
func (e TripCompleted) Time() time.Time { return e.OccurredAt }

// TripAborted is emitted when a catastrophic incident terminates the trip.
type TripAborted struct {
	TripID     TripID    `json:"trip_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e TripAborted) Kind() EventKind { return KindTripAborted }
func (e TripAborted) Trip() TripID    { return e.TripID }
func (e TripAborted) Time() time.Time { return e.OccurredAt }
