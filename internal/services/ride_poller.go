package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RidePhase string

const (
	PhaseSearching RidePhase = "searching"
	PhaseTracking  RidePhase = "tracking"
	PhaseRating    RidePhase = "rating"
	PhaseCancelled RidePhase = "cancelled"
	PhaseScheduled RidePhase = "scheduled"
)

type RideSnapshot struct {
	RideID         primitive.ObjectID     `json:"ride_id"`
	UserID         primitive.ObjectID     `json:"-"`
	Status         models.RideStatus      `json:"status"`
	Phase          RidePhase              `json:"phase"`
	IsAccepted     bool                   `json:"is_accepted"`
	DriverID       *primitive.ObjectID    `json:"driver_id,omitempty"`
	DriverLocation *models.DriverLocation `json:"driver_location,omitempty"`
	PromptRating   bool                   `json:"prompt_rating"`
	SearchExpired  bool                   `json:"search_expired"`
	Message        string                 `json:"message"`
	Version        string                 `json:"version"`
	ObservedAt     time.Time              `json:"observed_at"`
}

func (s *RideSnapshot) Terminal() bool {
	return s.Status.IsTerminal()
}

// RidePoller turns ride state in the database into a stream of snapshots for
// the rider app.
type RidePoller interface {
	Current(ctx context.Context, rideID primitive.ObjectID) (*RideSnapshot, error)
	// Poll emits a snapshot whenever the ride changes and closes the channel
	// when the ride ends or ctx is done.
	Poll(ctx context.Context, rideID primitive.ObjectID, interval time.Duration) <-chan RideSnapshot
	// Wait blocks until the snapshot version differs from since or the
	// long-poll timeout passes, then returns the latest snapshot.
	Wait(ctx context.Context, rideID primitive.ObjectID, since string) (*RideSnapshot, error)
}

type ridePoller struct {
	rideRepo     interfaces.RideRepository
	locationRepo interfaces.DriverLocationRepository
	cfg          config.TrackingConfig
	now          func() time.Time
	logger       *logger.Logger
}

func NewRidePoller(
	rideRepo interfaces.RideRepository,
	locationRepo interfaces.DriverLocationRepository,
	cfg *config.TrackingConfig,
	logger *logger.Logger,
) RidePoller {
	return &ridePoller{
		rideRepo:     rideRepo,
		locationRepo: locationRepo,
		cfg:          *cfg,
		now:          time.Now,
		logger:       logger,
	}
}

func (p *ridePoller) Current(ctx context.Context, rideID primitive.ObjectID) (*RideSnapshot, error) {
	ride, err := p.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}

	snap := &RideSnapshot{
		RideID:     ride.ID,
		UserID:     ride.UserID,
		Status:     ride.Status,
		IsAccepted: ride.IsAccepted,
		DriverID:   ride.DriverID,
		ObservedAt: p.now().UTC(),
	}

	if ride.HasDriver() && !ride.Status.IsTerminal() {
		loc, err := p.locationRepo.GetByDriverID(ctx, *ride.DriverID)
		switch {
		case err == nil:
			snap.DriverLocation = loc
		case !errors.Is(err, interfaces.ErrNotFound):
			p.logger.WithError(err).WithRideID(rideID).Debug("Driver location unavailable")
		}
	}

	p.describe(snap, ride)
	return snap, nil
}

func (p *ridePoller) describe(snap *RideSnapshot, ride *models.Ride) {
	switch {
	case ride.Status == models.RideStatusCancelled:
		snap.Phase = PhaseCancelled
		snap.Message = "Your ride has been cancelled."
	case ride.Status == models.RideStatusCompleted:
		snap.Phase = PhaseRating
		snap.PromptRating = true
		snap.Message = "You have arrived. How was your ride?"
	case ride.Status == models.RideStatusScheduled && !ride.IsAccepted:
		snap.Phase = PhaseScheduled
		snap.Message = "Your ride is scheduled."
	case ride.IsAccepted || ride.Status == models.RideStatusInProgress:
		snap.Phase = PhaseTracking
		snap.Message = "Your driver is on the way."
	default:
		snap.Phase = PhaseSearching
		snap.SearchExpired = p.cfg.SearchCountdown > 0 && p.now().Sub(ride.CreatedAt) >= p.cfg.SearchCountdown
		if snap.SearchExpired {
			snap.Message = "Still looking for a driver..."
		} else {
			snap.Message = "Looking for a driver..."
		}
	}

	var lat, lng float64
	if snap.DriverLocation != nil {
		lat, lng = snap.DriverLocation.Lat, snap.DriverLocation.Lng
	}
	driver := ""
	if snap.DriverID != nil {
		driver = snap.DriverID.Hex()
	}
	snap.Version = fmt.Sprintf("%s|%t|%s|%.6f|%.6f|%t", snap.Status, snap.IsAccepted, driver, lat, lng, snap.SearchExpired)
}

func (p *ridePoller) Poll(ctx context.Context, rideID primitive.ObjectID, interval time.Duration) <-chan RideSnapshot {
	out := make(chan RideSnapshot)
	interval = p.clampInterval(interval)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := ""
		for {
			snap, err := p.Current(ctx, rideID)
			switch {
			case errors.Is(err, ErrNotFound):
				return
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				p.logger.WithError(err).WithRideID(rideID).Warn("Ride status poll failed")
			case snap.Version != last:
				last = snap.Version
				select {
				case out <- *snap:
				case <-ctx.Done():
					return
				}
				if snap.Terminal() {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

func (p *ridePoller) Wait(ctx context.Context, rideID primitive.ObjectID, since string) (*RideSnapshot, error) {
	current, err := p.Current(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if since == "" || current.Version != since || current.Terminal() {
		return current, nil
	}

	timeout := p.cfg.LongPollTimeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	latest := current
	for snap := range p.Poll(waitCtx, rideID, p.cfg.DefaultPollInterval) {
		s := snap
		latest = &s
		if s.Version != since {
			return latest, nil
		}
	}
	return latest, nil
}

func (p *ridePoller) clampInterval(interval time.Duration) time.Duration {
	if interval <= 0 {
		interval = p.cfg.DefaultPollInterval
	}
	if p.cfg.MinPollInterval > 0 && interval < p.cfg.MinPollInterval {
		interval = p.cfg.MinPollInterval
	}
	if p.cfg.MaxPollInterval > 0 && interval > p.cfg.MaxPollInterval {
		interval = p.cfg.MaxPollInterval
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return interval
}
