package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
	"github.com/Basim108/galactic-delivery-system.backend/internal/repo"
	"github.com/Basim108/galactic-delivery-system.backend/internal/service"
)

// ---- test doubles ----------------------------------------------------------

// Each mock is a hand-written test double with one function field per method.
// Set only the fields your test needs; an unset field panics, which makes an
// unexpected call fail loudly.

type mockTripStore struct {
	load   func(ctx context.Context, id domain.TripID) (*domain.Trip, error)
	insert func(ctx context.Context, trip *domain.Trip) error
	update func(ctx context.Context, trip *domain.Trip, expectedVersion int64) error
}

func (m *mockTripStore) Load(ctx context.Context, id domain.TripID) (*domain.Trip, error) {
	return m.load(ctx, id)
}
func (m *mockTripStore) Insert(ctx context.Context, trip *domain.Trip) error {
	return m.insert(ctx, trip)
}
func (m *mockTripStore) Update(ctx context.Context, trip *domain.Trip, expectedVersion int64) error {
	return m.update(ctx, trip, expectedVersion)
}

var _ repo.TripStore = (*mockTripStore)(nil)

type mockDriverRepo struct {
	getByID func(ctx context.Context, id domain.DriverID) (domain.Driver, error)
}

func (m *mockDriverRepo) Insert(context.Context, domain.Driver) error { return nil }
func (m *mockDriverRepo) GetByID(ctx context.Context, id domain.DriverID) (domain.Driver, error) {
	return m.getByID(ctx, id)
}

type mockVehicleRepo struct {
	getByID func(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error)
}

func (m *mockVehicleRepo) Insert(context.Context, domain.Vehicle) error { return nil }
func (m *mockVehicleRepo) GetByID(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error) {
	return m.getByID(ctx, id)
}

type mockRouteRepo struct {
	getByID func(ctx context.Context, id domain.RouteID) (domain.Route, error)
}

func (m *mockRouteRepo) Insert(context.Context, domain.Route) error { return nil }
func (m *mockRouteRepo) GetByID(ctx context.Context, id domain.RouteID) (domain.Route, error) {
	return m.getByID(ctx, id)
}

// mockLedger records every Reserve/Release call and optionally fails Reserve.
type mockLedger struct {
	reserveErr error
	reserved   int
	released   int
}

func (m *mockLedger) Reserve(context.Context, domain.DriverID, domain.VehicleID, domain.TripID) error {
	if m.reserveErr != nil {
		return m.reserveErr
	}
	m.reserved++
	return nil
}
func (m *mockLedger) Release(context.Context, domain.DriverID, domain.VehicleID, domain.TripID) error {
	m.released++
	return nil
}

var _ repo.BookingLedger = (*mockLedger)(nil)

// recordingPublisher captures every published batch.
type recordingPublisher struct {
	batches [][]domain.Event
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, events []domain.Event) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, events)
	return nil
}

// fixedClock pins Now for deterministic event timestamps.
type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// ---- fixtures --------------------------------------------------------------

var (
	svcTime    = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	driverID   = domain.NewDriverID()
	vehicleID  = domain.NewVehicleID()
	routeID    = domain.NewRouteID()
	testDriver = domain.Driver{ID: driverID, Name: "R. Stanton", Status: domain.StatusAvailable}
)

func testVehicle(capacity int) domain.Vehicle {
	return domain.Vehicle{ID: vehicleID, Name: "Hauler IV", Type: "freighter",
		CargoCapacity: capacity, Status: domain.StatusAvailable}
}

func testRoute(t *testing.T) domain.Route {
	t.Helper()
	route, err := domain.NewRoute(routeID, "Inner System Run",
		[]string{"Earth", "Luna Gate", "Mars Station"})
	require.NoError(t, err)
	return route
}

// fixture bundles a service wired to an in-memory trip store plus the mocks
// the assertions need to inspect.
type fixture struct {
	svc       *service.TripService
	trips     repo.TripStore
	ledger    *mockLedger
	publisher *recordingPublisher
	vehicle   domain.Vehicle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		trips:     repo.NewMemoryTripStore(),
		ledger:    &mockLedger{},
		publisher: &recordingPublisher{},
		vehicle:   testVehicle(1000),
	}
	f.svc = service.NewTripService(
		f.trips,
		&mockDriverRepo{getByID: func(_ context.Context, id domain.DriverID) (domain.Driver, error) {
			if id != driverID {
				return domain.Driver{}, domain.ErrNotFound
			}
			return testDriver, nil
		}},
		&mockVehicleRepo{getByID: func(_ context.Context, id domain.VehicleID) (domain.Vehicle, error) {
			if id != vehicleID {
				return domain.Vehicle{}, domain.ErrNotFound
			}
			return f.vehicle, nil
		}},
		&mockRouteRepo{getByID: func(_ context.Context, id domain.RouteID) (domain.Route, error) {
			if id != routeID {
				return domain.Route{}, domain.ErrNotFound
			}
			return testRoute(t), nil
		}},
		f.ledger,
		fixedClock{at: svcTime},
		f.publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func createParams() service.CreateTripParams {
	return service.CreateTripParams{
		TripID:           domain.NewTripID(),
		DriverID:         driverID,
		VehicleID:        vehicleID,
		RouteID:          routeID,
		CargoRequirement: 10,
	}
}

func (f *fixture) createTrip(t *testing.T) service.TripView {
	t.Helper()
	view, err := f.svc.Create(context.Background(), createParams())
	require.NoError(t, err)
	return view
}

func (f *fixture) startTrip(t *testing.T, id domain.TripID) service.TripView {
	t.Helper()
	view, err := f.svc.Start(context.Background(), id, "")
	require.NoError(t, err)
	return view
}

// ---- Create ----------------------------------------------------------------

func TestTripService_Create_ReservesThenPersists(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Create(context.Background(), createParams())

	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusPlanned, view.Status)
	assert.EqualValues(t, 0, view.Version)
	assert.Empty(t, view.LastReachedCheckpoint)
	assert.Equal(t, 1, f.ledger.reserved)

	require.Len(t, f.publisher.batches, 1)
	require.Len(t, f.publisher.batches[0], 1)
	assert.Equal(t, domain.KindTripCreated, f.publisher.batches[0][0].Kind())
}

func TestTripService_Create_UnknownDriver(t *testing.T) {
	f := newFixture(t)

	p := createParams()
	p.DriverID = domain.NewDriverID()
	_, err := f.svc.Create(context.Background(), p)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.ledger.reserved)
}

func TestTripService_Create_UnavailableDriver(t *testing.T) {
	f := newFixture(t)
	busy := testDriver
	busy.Status = domain.StatusUnavailable
	f.svc = service.NewTripService(
		f.trips,
		&mockDriverRepo{getByID: func(context.Context, domain.DriverID) (domain.Driver, error) {
			return busy, nil
		}},
		&mockVehicleRepo{}, &mockRouteRepo{}, f.ledger,
		fixedClock{at: svcTime}, f.publisher, slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := f.svc.Create(context.Background(), createParams())

	assert.Equal(t, domain.CodeDriverUnavailable, domain.RuleCodeOf(err))
	assert.Zero(t, f.ledger.reserved)
}

func TestTripService_Create_VehicleInMaintenance(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Status = domain.StatusMaintenance

	_, err := f.svc.Create(context.Background(), createParams())

	assert.Equal(t, domain.CodeVehicleUnavailable, domain.RuleCodeOf(err))
	assert.Zero(t, f.ledger.reserved)
}

func TestTripService_Create_ReserveConflict(t *testing.T) {
	f := newFixture(t)
	f.ledger.reserveErr = domain.ErrResourceConflict

	_, err := f.svc.Create(context.Background(), createParams())

	assert.ErrorIs(t, err, domain.ErrResourceConflict)
	assert.Empty(t, f.publisher.batches)
}

// TestTripService_Create_InsertFailureReleasesReservation pins the
// compensation path: when the trip cannot be persisted, the driver and
// vehicle slots claimed a moment earlier must be freed again.
func TestTripService_Create_InsertFailureReleasesReservation(t *testing.T) {
	f := newFixture(t)
	insertErr := errors.New("connection reset")
	f.svc = service.NewTripService(
		&mockTripStore{insert: func(context.Context, *domain.Trip) error { return insertErr }},
		&mockDriverRepo{getByID: func(context.Context, domain.DriverID) (domain.Driver, error) {
			return testDriver, nil
		}},
		&mockVehicleRepo{getByID: func(context.Context, domain.VehicleID) (domain.Vehicle, error) {
			return testVehicle(1000), nil
		}},
		&mockRouteRepo{getByID: func(context.Context, domain.RouteID) (domain.Route, error) {
			return testRoute(t), nil
		}},
		f.ledger,
		fixedClock{at: svcTime}, f.publisher, slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := f.svc.Create(context.Background(), createParams())

	assert.ErrorIs(t, err, insertErr)
	assert.Equal(t, 1, f.ledger.reserved)
	assert.Equal(t, 1, f.ledger.released)
	assert.Empty(t, f.publisher.batches)
}

func TestTripService_Create_PublishFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker unavailable")

	view, err := f.svc.Create(context.Background(), createParams())

	// The mutation is durable; event delivery is best-effort.
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusPlanned, view.Status)
}

// ---- Start -----------------------------------------------------------------

func TestTripService_Start_ActivatesTrip(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)

	view, err := f.svc.Start(context.Background(), created.TripID, "launch-1")

	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusActive, view.Status)
	assert.EqualValues(t, 1, view.Version)
	assert.Equal(t, "Earth", view.LastReachedCheckpoint)

	// Second batch carries TripStarted plus the origin CheckpointReached.
	require.Len(t, f.publisher.batches, 2)
	require.Len(t, f.publisher.batches[1], 2)
	assert.Equal(t, domain.KindTripStarted, f.publisher.batches[1][0].Kind())
	assert.Equal(t, domain.KindCheckpointReached, f.publisher.batches[1][1].Kind())
}

func TestTripService_Start_ReplayedRequestIDReturnsCurrentState(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)

	first, err := f.svc.Start(context.Background(), created.TripID, "launch-1")
	require.NoError(t, err)
	batchesAfterFirst := len(f.publisher.batches)

	second, err := f.svc.Start(context.Background(), created.TripID, "launch-1")

	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)
	assert.Len(t, f.publisher.batches, batchesAfterFirst)
}

func TestTripService_Start_InsufficientCapacity(t *testing.T) {
	f := newFixture(t)
	f.vehicle = testVehicle(5)
	created := f.createTrip(t)

	_, err := f.svc.Start(context.Background(), created.TripID, "")

	assert.Equal(t, domain.CodeInsufficientCargoCapacity, domain.RuleCodeOf(err))

	view, err := f.svc.Get(context.Background(), created.TripID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusPlanned, view.Status)
}

func TestTripService_Start_UnknownTrip(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Start(context.Background(), domain.NewTripID(), "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- ReachCheckpoint -------------------------------------------------------

func TestTripService_ReachCheckpoint_Advances(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)
	f.startTrip(t, created.TripID)

	view, err := f.svc.ReachCheckpoint(context.Background(), created.TripID, "Luna Gate")

	require.NoError(t, err)
	assert.EqualValues(t, 2, view.Version)
	assert.Equal(t, "Luna Gate", view.LastReachedCheckpoint)
}

func TestTripService_ReachCheckpoint_OutOfOrderIsNotPersisted(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)
	f.startTrip(t, created.TripID)

	_, err := f.svc.ReachCheckpoint(context.Background(), created.TripID, "Mars Station")

	assert.Equal(t, domain.CodeCheckpointOutOfOrder, domain.RuleCodeOf(err))

	view, getErr := f.svc.Get(context.Background(), created.TripID)
	require.NoError(t, getErr)
	assert.EqualValues(t, 1, view.Version)
}

// ---- ReportIncident --------------------------------------------------------

func TestTripService_ReportIncident_Warning(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)
	f.startTrip(t, created.TripID)

	view, err := f.svc.ReportIncident(context.Background(), created.TripID,
		domain.Incident{Type: "MinorHullBreach", Severity: domain.SeverityWarning})

	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusActive, view.Status)
	assert.EqualValues(t, 2, view.Version)
	assert.Zero(t, f.ledger.released)
}

func TestTripService_ReportIncident_CatastrophicAbortsAndReleases(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)
	f.startTrip(t, created.TripID)

	view, err := f.svc.ReportIncident(context.Background(), created.TripID,
		domain.Incident{Type: "ReactorMeltdown", Severity: domain.SeverityCatastrophic})

	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusAborted, view.Status)
	assert.EqualValues(t, 3, view.Version)
	assert.Equal(t, 1, f.ledger.released)

	last := f.publisher.batches[len(f.publisher.batches)-1]
	require.Len(t, last, 2)
	assert.Equal(t, domain.KindIncidentReported, last[0].Kind())
	assert.Equal(t, domain.KindTripAborted, last[1].Kind())
}

// ---- Complete --------------------------------------------------------------

func TestTripService_Complete_AtDestination(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)
	f.startTrip(t, created.TripID)
	_, err := f.svc.ReachCheckpoint(context.Background(), created.TripID, "Luna Gate")
	require.NoError(t, err)
	_, err = f.svc.ReachCheckpoint(context.Background(), created.TripID, "Mars Station")
	require.NoError(t, err)

	summary, err := f.svc.Complete(context.Background(), created.TripID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCompleted, summary.Status)
	assert.Equal(t, "Mars Station", summary.LastReachedCheckpoint)
	assert.Equal(t, 6, summary.TotalEvents)
	assert.Zero(t, summary.TotalIncidents)
	require.NotNil(t, summary.CompletedAt)
	assert.Equal(t, svcTime, *summary.CompletedAt)
	assert.Nil(t, summary.AbortedAt)
	assert.Equal(t, 1, f.ledger.released)
}

func TestTripService_Complete_BeforeDestination(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)
	f.startTrip(t, created.TripID)

	_, err := f.svc.Complete(context.Background(), created.TripID)

	assert.Equal(t, domain.CodeTripNotAtDestination, domain.RuleCodeOf(err))
	assert.Zero(t, f.ledger.released)
}

// ---- projections -----------------------------------------------------------

func TestTripService_GetSummary_CountsIncidents(t *testing.T) {
	f := newFixture(t)
	created := f.createTrip(t)
	f.startTrip(t, created.TripID)
	_, err := f.svc.ReportIncident(context.Background(), created.TripID,
		domain.Incident{Type: "MinorHullBreach", Severity: domain.SeverityWarning})
	require.NoError(t, err)
	_, err = f.svc.ReportIncident(context.Background(), created.TripID,
		domain.Incident{Type: "ReactorMeltdown", Severity: domain.SeverityCatastrophic})
	require.NoError(t, err)

	summary, err := f.svc.GetSummary(context.Background(), created.TripID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusAborted, summary.Status)
	assert.Equal(t, 2, summary.TotalIncidents)
	// created, started, origin reached, warning, catastrophic, aborted
	assert.Equal(t, 6, summary.TotalEvents)
	require.NotNil(t, summary.AbortedAt)
	assert.Nil(t, summary.CompletedAt)
}

func TestTripService_Get_UnknownTrip(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), domain.NewTripID())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
