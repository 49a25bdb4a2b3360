package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/internal/utils"
	"oneridetho/internal/validators"
	"oneridetho/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	idempotencyTTL       = 24 * time.Hour
	idempotencyPending   = "pending"
	scheduleTimeLayout   = "Mon Jan 2, 3:04 PM"
	rideAlertSubject     = "New Ride Alert"
	rideCancelledSubject = "Ride Cancelled"
)

type BookingService interface {
	CreateRide(ctx context.Context, userID primitive.ObjectID, request *CreateRideRequest) (*models.Ride, error)
	ScheduleRide(ctx context.Context, userID primitive.ObjectID, request *ScheduleRideRequest) (*models.Ride, error)
	CheckOverlap(ctx context.Context, userID primitive.ObjectID, scheduledPickupTime time.Time) (bool, error)
	CancelRide(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error)
	GetRide(ctx context.Context, rideID primitive.ObjectID) (*RideDetails, error)
	ListRidesForUser(ctx context.Context, userID primitive.ObjectID) ([]*RideWithUser, error)
	CheckActiveRide(ctx context.Context, userID primitive.ObjectID) (bool, error)
}

type CreateRideRequest struct {
	Pickup        validators.LocationInput   `json:"pickup" validate:"required"`
	Dropoff       validators.LocationInput   `json:"dropoff" validate:"required"`
	Stops         []validators.LocationInput `json:"stops" validate:"max_stops,dive"`
	Passengers    int                        `json:"passengers" validate:"passenger_count"`
	PaymentMethod models.PaymentMethod       `json:"payment_method" validate:"required,oneof=cash card"`

	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-" validate:"omitempty,max=128"`
}

type ScheduleRideRequest struct {
	CreateRideRequest
	ScheduledPickupTime time.Time `json:"scheduled_pickup_time" validate:"required"`
}

type RideDetails struct {
	*models.Ride
	Driver *models.Driver `json:"driver,omitempty"`
}

type RideWithUser struct {
	*models.Ride
	User *models.User `json:"user,omitempty"`
}

type bookingService struct {
	rideRepo   interfaces.RideRepository
	userRepo   interfaces.UserRepository
	driverRepo interfaces.DriverRepository
	cache      interfaces.Cache
	routes     RouteService
	fares      *FareCalculator
	notifier   NotificationService
	cfg        config.BookingConfig
	location   *time.Location
	now        func() time.Time
	logger     *logger.Logger
}

func NewBookingService(
	rideRepo interfaces.RideRepository,
	userRepo interfaces.UserRepository,
	driverRepo interfaces.DriverRepository,
	cache interfaces.Cache,
	routes RouteService,
	fares *FareCalculator,
	notifier NotificationService,
	cfg *config.BookingConfig,
	tz *time.Location,
	logger *logger.Logger,
) BookingService {
	if tz == nil {
		tz = time.UTC
	}
	return &bookingService{
		rideRepo:   rideRepo,
		userRepo:   userRepo,
		driverRepo: driverRepo,
		cache:      cache,
		routes:     routes,
		fares:      fares,
		notifier:   notifier,
		cfg:        *cfg,
		location:   tz,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *bookingService) CreateRide(ctx context.Context, userID primitive.ObjectID, request *CreateRideRequest) (*models.Ride, error) {
	if userID.IsZero() {
		return nil, ErrUnauthenticated
	}

	// profile gates come before any ride field is looked at
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if !user.HasPhoto() {
		return nil, ErrProfileIncomplete
	}
	if s.cfg.RequireVerified && !user.Verified {
		return nil, ErrNotVerified
	}
	if err := s.validateRequest(request); err != nil {
		return nil, err
	}

	if request.IdempotencyKey != "" {
		existing, err := s.claimIdempotencyKey(ctx, userID, request.IdempotencyKey)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	now := s.now()
	fare, err := s.quote(ctx, request, now)
	if err != nil {
		s.releaseIdempotencyKey(ctx, userID, request.IdempotencyKey)
		return nil, err
	}

	ride := s.newRide(userID, request, fare, now)
	ride.Status = models.RideStatusRequested
	ride.PickupTime = now.UTC().Truncate(time.Millisecond)

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) && request.IdempotencyKey != "" {
			return s.rideRepo.GetByIdempotencyKey(ctx, userID, request.IdempotencyKey)
		}
		s.releaseIdempotencyKey(ctx, userID, request.IdempotencyKey)
		s.logger.WithError(err).WithUserID(userID).Error("Failed to create ride")
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}

	if request.IdempotencyKey != "" {
		if err := s.cache.Set(ctx, idempotencyCacheKey(userID, request.IdempotencyKey), ride.ID.Hex(), idempotencyTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to record idempotency key")
		}
	}

	s.logger.LogRideEvent(ride.ID, utils.EventRideRequested, map[string]interface{}{
		"user_id": userID.Hex(),
		"fare":    ride.Fare,
	})

	s.alertDrivers(ctx, ride, s.bookingMessage(user, ride))
	return ride, nil
}

func (s *bookingService) ScheduleRide(ctx context.Context, userID primitive.ObjectID, request *ScheduleRideRequest) (*models.Ride, error) {
	if userID.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := s.validateRequest(&request.CreateRideRequest); err != nil {
		return nil, err
	}

	now := s.now()
	if errs := validators.ValidateScheduledTime(request.ScheduledPickupTime, now); errs != nil {
		return nil, &InputError{Fields: errs.Details()}
	}
	pickup := request.ScheduledPickupTime.UTC().Truncate(time.Millisecond)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	overlap, err := s.CheckOverlap(ctx, userID, pickup)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrScheduleConflict
	}

	fare, err := s.quote(ctx, &request.CreateRideRequest, pickup)
	if err != nil {
		return nil, err
	}

	ride := s.newRide(userID, &request.CreateRideRequest, fare, now)
	ride.Status = models.RideStatusScheduled
	ride.IsScheduled = true
	ride.PickupTime = pickup
	ride.ScheduledPickupTime = &pickup

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) && request.IdempotencyKey != "" {
			return s.rideRepo.GetByIdempotencyKey(ctx, userID, request.IdempotencyKey)
		}
		s.logger.WithError(err).WithUserID(userID).Error("Failed to schedule ride")
		return nil, fmt.Errorf("failed to schedule ride: %w", err)
	}

	s.logger.LogRideEvent(ride.ID, utils.EventRideScheduled, map[string]interface{}{
		"user_id":     userID.Hex(),
		"pickup_time": pickup,
	})

	message := fmt.Sprintf("%s scheduled a ride for %s. Pickup: %s. Drop-off: %s.",
		user.Name, pickup.In(s.location).Format(scheduleTimeLayout), ride.PickupLocation, ride.DropoffLocation)
	s.alertDrivers(ctx, ride, message)
	return ride, nil
}

// CheckOverlap only catches rides booked for the exact same instant.
func (s *bookingService) CheckOverlap(ctx context.Context, userID primitive.ObjectID, scheduledPickupTime time.Time) (bool, error) {
	if scheduledPickupTime.IsZero() {
		return false, invalidInput("scheduled_pickup_time", "scheduled_pickup_time is required")
	}
	exists, err := s.rideRepo.ExistsScheduledAt(ctx, userID, scheduledPickupTime.UTC().Truncate(time.Millisecond))
	if err != nil {
		return false, fmt.Errorf("failed to check schedule overlap: %w", err)
	}
	return exists, nil
}

func (s *bookingService) CancelRide(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}
	if ride.UserID != userID {
		return nil, ErrRideNotFound
	}

	switch ride.Status {
	case models.RideStatusCancelled:
		return ride, nil
	case models.RideStatusCompleted:
		return nil, ErrInvalidTransition
	}

	cancelled, err := s.rideRepo.MarkCancelled(ctx, rideID, s.now().UTC())
	if errors.Is(err, interfaces.ErrConflict) {
		// lost a race with another writer; report whatever won
		current, getErr := s.rideRepo.GetByID(ctx, rideID)
		if getErr != nil {
			return nil, notFound(getErr, ErrRideNotFound)
		}
		if current.Status == models.RideStatusCancelled {
			return current, nil
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel ride: %w", err)
	}

	s.logger.LogRideEvent(rideID, utils.EventRideCancelled, map[string]interface{}{"user_id": userID.Hex()})

	if cancelled.HasDriver() {
		driver, err := s.driverRepo.GetByID(ctx, *cancelled.DriverID)
		if err != nil {
			s.logger.WithError(err).WithRideID(rideID).Warn("Cancelled ride has no loadable driver")
			return cancelled, nil
		}
		message := fmt.Sprintf("Ride with %s has been cancelled.", driver.Name)
		s.notifier.NotifyDriver(ctx, driver, rideCancelledSubject, message, map[string]string{"ride_id": rideID.Hex()})
	}
	return cancelled, nil
}

func (s *bookingService) GetRide(ctx context.Context, rideID primitive.ObjectID) (*RideDetails, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}

	details := &RideDetails{Ride: ride}
	if ride.HasDriver() {
		driver, err := s.driverRepo.GetByID(ctx, *ride.DriverID)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("failed to load driver: %w", err)
		}
		details.Driver = driver
	}
	return details, nil
}

func (s *bookingService) ListRidesForUser(ctx context.Context, userID primitive.ObjectID) ([]*RideWithUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	rides, err := s.rideRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}

	result := make([]*RideWithUser, 0, len(rides))
	for _, ride := range rides {
		result = append(result, &RideWithUser{Ride: ride, User: user})
	}
	return result, nil
}

func (s *bookingService) CheckActiveRide(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	active, err := s.rideRepo.ExistsWithStatus(ctx, userID, models.RideStatusRequested, models.RideStatusInProgress)
	if err != nil {
		return false, fmt.Errorf("failed to check active ride: %w", err)
	}
	return active, nil
}

func (s *bookingService) validateRequest(request *CreateRideRequest) error {
	if request == nil {
		return invalidInput("request", "request body is required")
	}
	if len(request.Stops) > s.cfg.MaxStops {
		return ErrTooManyStops
	}
	if errs := validators.ValidateStruct(request); errs != nil {
		if errs.HasTag("max_stops") {
			return ErrTooManyStops
		}
		return &InputError{Fields: errs.Details()}
	}
	locations := append([]validators.LocationInput{request.Pickup, request.Dropoff}, request.Stops...)
	if errs := validators.ValidateLocations(locations...); errs != nil {
		return &InputError{Fields: errs.Details()}
	}
	return nil
}

// quote prices the ride at the hour it starts, in local time.
func (s *bookingService) quote(ctx context.Context, request *CreateRideRequest, at time.Time) (string, error) {
	route, err := s.routes.RouteDistance(ctx, request.Pickup.ToModel(), request.Dropoff.ToModel(), validators.ToModels(request.Stops), false)
	if err != nil {
		return "", err
	}
	return s.fares.CalculateFare(route.Miles, request.Passengers, len(request.Stops), at.In(s.location).Hour())
}

func (s *bookingService) newRide(userID primitive.ObjectID, request *CreateRideRequest, fare string, now time.Time) *models.Ride {
	now = now.UTC().Truncate(time.Millisecond)
	return &models.Ride{
		UserID:          userID,
		PickupLocation:  request.Pickup.ToModel(),
		DropoffLocation: request.Dropoff.ToModel(),
		Stops:           validators.ToModels(request.Stops),
		Fare:            fare,
		Tip:             s.cfg.DefaultTip,
		ExtraCharges:    0,
		PassengerCount:  request.Passengers,
		PaymentMethod:   request.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		IdempotencyKey:  request.IdempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// claimIdempotencyKey returns the ride a previous request with the same key
// created, or nil when this request owns the key.
func (s *bookingService) claimIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Ride, error) {
	existing, err := s.rideRepo.GetByIdempotencyKey(ctx, userID, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	cacheKey := idempotencyCacheKey(userID, key)
	claimed, err := s.cache.SetNX(ctx, cacheKey, idempotencyPending, idempotencyTTL)
	if err != nil {
		// the unique index still collapses duplicates
		s.logger.WithError(err).Warn("Idempotency cache unavailable")
		return nil, nil
	}
	if claimed {
		return nil, nil
	}

	var rideID string
	if err := s.cache.Get(ctx, cacheKey, &rideID); err == nil {
		if id, err := primitive.ObjectIDFromHex(rideID); err == nil {
			return s.rideRepo.GetByID(ctx, id)
		}
	}
	return nil, ErrRequestInFlight
}

func (s *bookingService) releaseIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) {
	if key == "" {
		return
	}
	if err := s.cache.Delete(ctx, idempotencyCacheKey(userID, key)); err != nil {
		s.logger.WithError(err).Warn("Failed to release idempotency key")
	}
}

func (s *bookingService) bookingMessage(user *models.User, ride *models.Ride) string {
	stops := "None"
	if len(ride.Stops) > 0 {
		names := make([]string, 0, len(ride.Stops))
		for _, stop := range ride.Stops {
			names = append(names, stop.String())
		}
		stops = strings.Join(names, "; ")
	}
	return fmt.Sprintf("New ride request from %s. Pickup: %s. Drop-off: %s. Stops: %s. Passengers: %d. View: %s?rideId=%s",
		user.Name, ride.PickupLocation, ride.DropoffLocation, stops, ride.PassengerCount, s.cfg.DriverDashboardURL, ride.ID.Hex())
}

func (s *bookingService) alertDrivers(ctx context.Context, ride *models.Ride, message string) {
	result, err := s.notifier.NotifyDrivers(ctx, rideAlertSubject, message, map[string]string{"ride_id": ride.ID.Hex()})
	if err != nil {
		s.logger.WithError(err).WithRideID(ride.ID).Warn("Driver alert skipped")
		return
	}
	if result.Failed() > 0 {
		s.logger.WithRideID(ride.ID).Warnf("Driver alert reached %d of %d recipients", result.Sent(), len(result.Deliveries))
	}
}

func idempotencyCacheKey(userID primitive.ObjectID, key string) string {
	return fmt.Sprintf("%s%s:%s", utils.CacheIdempotencyPrefix, userID.Hex(), key)
}
