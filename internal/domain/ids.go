package domain

import "github.com/google/uuid"

// Strongly typed identifiers for the core entities. Each wraps uuid.UUID in
// a distinct type so a DriverID cannot be passed where a VehicleID is
// expected. Equality is value equality on the underlying UUID bytes.
//
// Every ID implements encoding.TextMarshaler/TextUnmarshaler so it renders
// as the canonical UUID string in JSON and in the event journal payloads.

// TripID identifies a single cargo trip.
type TripID uuid.UUID

// NewTripID returns a random TripID.
func NewTripID() TripID { return TripID(uuid.New()) }

// ParseTripID parses the canonical UUID string form of a TripID.
func ParseTripID(s string) (TripID, error) {
	u, err := uuid.Parse(s)
	return TripID(u), err
}

func (id TripID) String() string { return uuid.UUID(id).String() }

// UUID returns the underlying uuid.UUID, for persistence and wire layers.
func (id TripID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id TripID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *TripID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = TripID(u)
	return nil
}

// DriverID identifies a driver resource.
type DriverID uuid.UUID

// NewDriverID returns a random DriverID.
func NewDriverID() DriverID { return DriverID(uuid.New()) }

// ParseDriverID parses the canonical UUID string form of a DriverID.
func ParseDriverID(s string) (DriverID, error) {
	u, err := uuid.Parse(s)
	return DriverID(u), err
}

func (id DriverID) String() string  { return uuid.UUID(id).String() }
func (id DriverID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id DriverID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *DriverID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = DriverID(u)
	return nil
}

// VehicleID identifies a vehicle resource.
type VehicleID uuid.UUID

// NewVehicleID returns a random VehicleID.
func NewVehicleID() VehicleID { return VehicleID(uuid.New()) }

// ParseVehicleID parses the canonical UUID string form of a VehicleID.
func ParseVehicleID(s string) (VehicleID, error) {
	u, err := uuid.Parse(s)
	return VehicleID(u), err
}

func (id VehicleID) String() string  { return uuid.UUID(id).String() }
func (id VehicleID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id VehicleID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *VehicleID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = VehicleID(u)
	return nil
}

// RouteID identifies a delivery route.
type RouteID uuid.UUID

// NewRouteID returns a random RouteID.
func NewRouteID() RouteID { return RouteID(uuid.New()) }

// ParseRouteID parses the canonical UUID string form of a RouteID.
func ParseRouteID(s string) (RouteID, error) {
	u, err := uuid.Parse(s)
	return RouteID(u), err
}

func (id RouteID) String() string  { return uuid.UUID(id).String() }
func (id RouteID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id RouteID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *RouteID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = RouteID(u)
	return nil
}

// CheckpointID identifies a checkpoint on a route.
type CheckpointID uuid.UUID

// NewCheckpointID returns a random CheckpointID.
func NewCheckpointID() CheckpointID { return CheckpointID(uuid.New()) }

func (id CheckpointID) String() string  { return uuid.UUID(id).String() }
func (id CheckpointID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id CheckpointID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CheckpointID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = CheckpointID(u)
	return nil
}
