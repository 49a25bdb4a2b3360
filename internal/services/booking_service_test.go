package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/internal/validators"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/maps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type bookingFixture struct {
	svc      *bookingService
	rides    *fakeRideRepo
	users    *fakeUserRepo
	drivers  *fakeDriverRepo
	cache    *fakeCache
	maps     *fakeMaps
	notifier *recordingNotifier
	user     *models.User
}

func testBookingConfig() *config.BookingConfig {
	return &config.BookingConfig{
		BaseFare:           10,
		PerMile:            2,
		PerExtraPassenger:  2,
		PerStop:            1,
		NightFee:           5,
		NightStartHour:     23,
		NightEndHour:       6,
		MaxPassengers:      4,
		MaxStops:           3,
		DefaultTip:         5,
		DriverDashboardURL: "https://drivers.example.com/dashboard",
	}
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	user := &models.User{Name: "Ana Rolle", Email: "ana@example.com", PhotoURL: "https://cdn.example.com/ana.jpg"}
	f := &bookingFixture{
		rides:    newFakeRideRepo(),
		users:    newFakeUserRepo(user),
		drivers:  newFakeDriverRepo(),
		cache:    newFakeCache(),
		maps:     &fakeMaps{meters: 8046.7},
		notifier: &recordingNotifier{},
		user:     user,
	}

	cfg := testBookingConfig()
	fares := NewFareCalculator(cfg)
	routes := NewRouteService(f.maps, fares, cfg.MaxStops, time.UTC, logger.NewNop())
	svc := NewBookingService(f.rides, f.users, f.drivers, f.cache, routes, fares, f.notifier, cfg, time.UTC, logger.NewNop())

	f.svc = svc.(*bookingService)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC) }
	return f
}

func location(address string, lat, lng float64) validators.LocationInput {
	return validators.LocationInput{Lat: lat, Lng: lng, Address: address}
}

func rideRequest(stops int) *CreateRideRequest {
	req := &CreateRideRequest{
		Pickup:        location("Cable Beach, Nassau", 25.0700, -77.3900),
		Dropoff:       location("Paradise Island", 25.0850, -77.3200),
		Passengers:    2,
		PaymentMethod: models.PaymentMethodCash,
	}
	for i := 0; i < stops; i++ {
		req.Stops = append(req.Stops, location("Bay Street", 25.0780+float64(i)/1000, -77.3400))
	}
	return req
}

func TestCreateRideEndToEnd(t *testing.T) {
	f := newBookingFixture(t)

	ride, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(1))
	require.NoError(t, err)

	assert.Equal(t, models.RideStatusRequested, ride.Status)
	assert.Equal(t, "23.00", ride.Fare)
	assert.Equal(t, 2, ride.PassengerCount)
	assert.Len(t, ride.Stops, 1)
	assert.Equal(t, 5.0, ride.Tip)
	assert.Equal(t, models.PaymentStatusPending, ride.PaymentStatus)
	assert.False(t, ride.IsAccepted)
	assert.Nil(t, ride.DriverID)

	stored, err := f.rides.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.Fare, stored.Fare)

	require.Len(t, f.notifier.broadcasts, 1)
	alert := f.notifier.broadcasts[0]
	assert.Equal(t, "New Ride Alert", alert.subject)
	assert.Contains(t, alert.body, "New ride request from Ana Rolle.")
	assert.Contains(t, alert.body, "Pickup: Cable Beach, Nassau.")
	assert.Contains(t, alert.body, "Stops: Bay Street.")
	assert.Contains(t, alert.body, "Passengers: 2.")
	assert.True(t, strings.HasSuffix(alert.body, "?rideId="+ride.ID.Hex()))
}

func TestCreateRideStopLimit(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(3))
	require.NoError(t, err)

	_, err = f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(4))
	assert.ErrorIs(t, err, ErrTooManyStops)
	assert.Equal(t, 1, f.rides.creates)
}

func TestCreateRideRequiresPhoto(t *testing.T) {
	f := newBookingFixture(t)
	f.user.PhotoURL = ""

	_, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	assert.ErrorIs(t, err, ErrProfileIncomplete)
	assert.Zero(t, f.rides.creates)
	assert.Empty(t, f.notifier.broadcasts)
}

func TestCreateRidePhotoCheckComesBeforeRideFields(t *testing.T) {
	f := newBookingFixture(t)
	f.user.PhotoURL = ""

	_, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(4))
	assert.ErrorIs(t, err, ErrProfileIncomplete)

	req := rideRequest(0)
	req.Passengers = 0
	_, err = f.svc.CreateRide(context.Background(), f.user.ID, req)
	assert.ErrorIs(t, err, ErrProfileIncomplete)
	assert.Zero(t, f.rides.creates)
}

func TestCreateRideSurvivesFailedDriverEmail(t *testing.T) {
	f := newBookingFixture(t)
	drivers := newFakeDriverRepo(
		&models.Driver{Name: "A", Email: "a@x.com", Active: true},
		&models.Driver{Name: "B", Email: "b@x.com", Active: true},
	)
	mailer := &fakeMailer{failFor: map[string]bool{"a@x.com": true}}
	notifier := NewNotificationService(drivers, nil, mailer, nil, testNotificationConfig(), logger.NewNop())

	cfg := testBookingConfig()
	fares := NewFareCalculator(cfg)
	routes := NewRouteService(f.maps, fares, cfg.MaxStops, time.UTC, logger.NewNop())
	svc := NewBookingService(f.rides, f.users, drivers, f.cache, routes, fares, notifier, cfg, time.UTC, logger.NewNop())

	ride, err := svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusRequested, ride.Status)
	assert.Equal(t, 1, f.rides.creates)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "b@x.com", mailer.sent[0].To)
	assert.Equal(t, rideAlertSubject, mailer.sent[0].Subject)
}

func TestCreateRideRequiresVerificationWhenEnabled(t *testing.T) {
	f := newBookingFixture(t)
	f.svc.cfg.RequireVerified = true

	_, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.ErrorIs(t, err, ErrProfileIncomplete)
}

func TestCreateRideRejectsAnonymousAndUnknownUsers(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.CreateRide(context.Background(), primitive.NilObjectID, rideRequest(0))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.CreateRide(context.Background(), primitive.NewObjectID(), rideRequest(0))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRideInvalidInput(t *testing.T) {
	f := newBookingFixture(t)

	req := rideRequest(0)
	req.Passengers = 5
	_, err := f.svc.CreateRide(context.Background(), f.user.ID, req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = rideRequest(0)
	req.PaymentMethod = "bitcoin"
	_, err = f.svc.CreateRide(context.Background(), f.user.ID, req)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Fields, "PaymentMethod")
}

func TestCreateRideRouteUnavailable(t *testing.T) {
	f := newBookingFixture(t)
	f.maps.status = maps.StatusNoRoute

	_, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	assert.ErrorIs(t, err, ErrRouteUnavailable)
	assert.Zero(t, f.rides.creates)
}

func TestCreateRideIdempotent(t *testing.T) {
	f := newBookingFixture(t)

	req := rideRequest(0)
	req.IdempotencyKey = "tap-1"
	first, err := f.svc.CreateRide(context.Background(), f.user.ID, req)
	require.NoError(t, err)

	again := rideRequest(0)
	again.IdempotencyKey = "tap-1"
	second, err := f.svc.CreateRide(context.Background(), f.user.ID, again)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.rides.creates)
	assert.Len(t, f.notifier.broadcasts, 1)
}

func TestCreateRideInFlightDuplicate(t *testing.T) {
	f := newBookingFixture(t)
	_, err := f.cache.SetNX(context.Background(), idempotencyCacheKey(f.user.ID, "tap-2"), idempotencyPending, time.Minute)
	require.NoError(t, err)

	req := rideRequest(0)
	req.IdempotencyKey = "tap-2"
	_, err = f.svc.CreateRide(context.Background(), f.user.ID, req)
	assert.ErrorIs(t, err, ErrRequestInFlight)
	assert.Zero(t, f.rides.creates)
}

func TestScheduleRideConflicts(t *testing.T) {
	f := newBookingFixture(t)
	pickup := time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)

	req := &ScheduleRideRequest{CreateRideRequest: *rideRequest(0), ScheduledPickupTime: pickup}
	ride, err := f.svc.ScheduleRide(context.Background(), f.user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusScheduled, ride.Status)
	assert.True(t, ride.IsScheduled)
	require.NotNil(t, ride.ScheduledPickupTime)
	assert.True(t, ride.ScheduledPickupTime.Equal(pickup))

	require.Len(t, f.notifier.broadcasts, 1)
	assert.Contains(t, f.notifier.broadcasts[0].body, "Ana Rolle scheduled a ride for Thu Mar 12, 9:30 AM.")

	same := &ScheduleRideRequest{CreateRideRequest: *rideRequest(0), ScheduledPickupTime: pickup}
	_, err = f.svc.ScheduleRide(context.Background(), f.user.ID, same)
	assert.ErrorIs(t, err, ErrScheduleConflict)

	later := &ScheduleRideRequest{CreateRideRequest: *rideRequest(0), ScheduledPickupTime: pickup.Add(time.Second)}
	_, err = f.svc.ScheduleRide(context.Background(), f.user.ID, later)
	assert.NoError(t, err)
	assert.Equal(t, 2, f.rides.creates)
}

func TestScheduleRideRejectsPastPickup(t *testing.T) {
	f := newBookingFixture(t)

	req := &ScheduleRideRequest{CreateRideRequest: *rideRequest(0), ScheduledPickupTime: f.svc.now().Add(-time.Hour)}
	_, err := f.svc.ScheduleRide(context.Background(), f.user.ID, req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScheduleRidePricesAtPickupHour(t *testing.T) {
	f := newBookingFixture(t)

	night := time.Date(2026, 3, 12, 23, 15, 0, 0, time.UTC)
	req := &ScheduleRideRequest{CreateRideRequest: *rideRequest(0), ScheduledPickupTime: night}
	ride, err := f.svc.ScheduleRide(context.Background(), f.user.ID, req)
	require.NoError(t, err)
	// 10 base + 10 distance + 2 extra rider + 5 night
	assert.Equal(t, "27.00", ride.Fare)
}

func TestCancelRideNotifiesDriverOnce(t *testing.T) {
	f := newBookingFixture(t)
	driver := &models.Driver{Name: "Dwayne", Phone: "+12425550100", Active: true}
	f.drivers = newFakeDriverRepo(driver)
	f.svc.driverRepo = f.drivers

	ride, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	require.NoError(t, err)
	f.rides.set(ride.ID, func(r *models.Ride) {
		r.DriverID = &driver.ID
		r.IsAccepted = true
	})

	cancelled, err := f.svc.CancelRide(context.Background(), f.user.ID, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	again, err := f.svc.CancelRide(context.Background(), f.user.ID, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCancelled, again.Status)

	require.Len(t, f.notifier.direct, 1)
	assert.Equal(t, "Ride with Dwayne has been cancelled.", f.notifier.direct[0].body)
	assert.Equal(t, driver.ID, f.notifier.direct[0].driver.ID)
}

func TestCancelRideWithoutDriverSendsNothing(t *testing.T) {
	f := newBookingFixture(t)
	ride, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	require.NoError(t, err)

	_, err = f.svc.CancelRide(context.Background(), f.user.ID, ride.ID)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.direct)
}

func TestCancelRideGuards(t *testing.T) {
	f := newBookingFixture(t)
	ride, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	require.NoError(t, err)

	_, err = f.svc.CancelRide(context.Background(), primitive.NewObjectID(), ride.ID)
	assert.ErrorIs(t, err, ErrRideNotFound)

	_, err = f.svc.CancelRide(context.Background(), f.user.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrRideNotFound)

	f.rides.set(ride.ID, func(r *models.Ride) { r.Status = models.RideStatusCompleted })
	_, err = f.svc.CancelRide(context.Background(), f.user.ID, ride.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetRideIncludesDriver(t *testing.T) {
	f := newBookingFixture(t)
	driver := &models.Driver{Name: "Dwayne", CarType: "Sedan", Active: true}
	f.drivers = newFakeDriverRepo(driver)
	f.svc.driverRepo = f.drivers

	ride, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	require.NoError(t, err)

	details, err := f.svc.GetRide(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Nil(t, details.Driver)

	f.rides.set(ride.ID, func(r *models.Ride) { r.DriverID = &driver.ID })
	details, err = f.svc.GetRide(context.Background(), ride.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Driver)
	assert.Equal(t, "Sedan", details.Driver.CarType)

	_, err = f.svc.GetRide(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrRideNotFound)
}

func TestListRidesAndActiveCheck(t *testing.T) {
	f := newBookingFixture(t)

	active, err := f.svc.CheckActiveRide(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.False(t, active)

	ride, err := f.svc.CreateRide(context.Background(), f.user.ID, rideRequest(0))
	require.NoError(t, err)

	active, err = f.svc.CheckActiveRide(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.True(t, active)

	rides, err := f.svc.ListRidesForUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, ride.ID, rides[0].ID)
	assert.Equal(t, "Ana Rolle", rides[0].User.Name)

	_, err = f.svc.CancelRide(context.Background(), f.user.ID, ride.ID)
	require.NoError(t, err)
	active, err = f.svc.CheckActiveRide(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.False(t, active)
}
