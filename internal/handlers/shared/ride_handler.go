package handlers

import (
	"context"
	"time"

	"oneridetho/internal/middleware"
	"oneridetho/internal/services"
	"oneridetho/internal/utils"
	"oneridetho/internal/validators"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type RideHandler struct {
	bookingService services.BookingService
	ratingService  services.RatingService
	poller         services.RidePoller
	streamer       *websocket.Streamer
	pollInterval   time.Duration
	logger         *logger.Logger
}

func NewRideHandler(
	bookingService services.BookingService,
	ratingService services.RatingService,
	poller services.RidePoller,
	streamer *websocket.Streamer,
	pollInterval time.Duration,
	logger *logger.Logger,
) *RideHandler {
	return &RideHandler{
		bookingService: bookingService,
		ratingService:  ratingService,
		poller:         poller,
		streamer:       streamer,
		pollInterval:   pollInterval,
		logger:         logger,
	}
}

// CreateBooking books an immediate ride and alerts every driver.
func (h *RideHandler) CreateBooking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request services.CreateRideRequest
	if !bindJSON(c, &request) {
		return
	}
	request.IdempotencyKey = c.GetString(middleware.ContextIdempotencyKey)

	ride, err := h.bookingService.CreateRide(c.Request.Context(), userID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride booked successfully", gin.H{"rideId": ride.ID.Hex(), "ride": ride})
}

func (h *RideHandler) ScheduleRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request services.ScheduleRideRequest
	if !bindJSON(c, &request) {
		return
	}
	request.IdempotencyKey = c.GetString(middleware.ContextIdempotencyKey)

	ride, err := h.bookingService.ScheduleRide(c.Request.Context(), userID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride scheduled successfully", gin.H{"rideId": ride.ID.Hex(), "ride": ride})
}

type overlapRequest struct {
	ScheduledPickupTime time.Time `json:"scheduled_pickup_time"`
}

func (h *RideHandler) CheckOverlap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request overlapRequest
	if !bindJSON(c, &request) {
		return
	}

	overlap, err := h.bookingService.CheckOverlap(c.Request.Context(), userID, request.ScheduledPickupTime)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Overlap checked", gin.H{"hasOverlap": overlap})
}

func (h *RideHandler) CheckActiveRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	active, err := h.bookingService.CheckActiveRide(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Active ride checked", gin.H{"hasActiveRide": active})
}

func (h *RideHandler) ListRides(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rides, err := h.bookingService.ListRidesForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, &utils.Meta{Count: len(rides)})
}

func (h *RideHandler) GetRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return
	}

	details, err := h.bookingService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if details.UserID != userID {
		respondError(c, h.logger, services.ErrRideNotFound)
		return
	}
	utils.SuccessResponse(c, "Ride retrieved successfully", details)
}

func (h *RideHandler) CancelRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return
	}

	ride, err := h.bookingService.CancelRide(c.Request.Context(), userID, rideID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Ride cancelled", ride)
}

func (h *RideHandler) Status(c *gin.Context) {
	snap, ok := h.ownSnapshot(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, "Ride status retrieved", snap)
}

// WaitStatus long-polls until the ride differs from the ?since version.
func (h *RideHandler) WaitStatus(c *gin.Context) {
	current, ok := h.ownSnapshot(c)
	if !ok {
		return
	}
	rideID := current.RideID

	snap, err := h.poller.Wait(c.Request.Context(), rideID, c.Query("since"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Ride status retrieved", snap)
}

// Stream pushes ride snapshots over a websocket until the ride ends or the
// client disconnects.
func (h *RideHandler) Stream(c *gin.Context) {
	current, ok := h.ownSnapshot(c)
	if !ok {
		return
	}
	rideID := current.RideID

	source := func(ctx context.Context) <-chan websocket.Message {
		out := make(chan websocket.Message)
		go func() {
			defer close(out)
			for snap := range h.poller.Poll(ctx, rideID, h.pollInterval) {
				msg := websocket.Message{
					Type:      utils.EventRideUpdate,
					RideID:    rideID.Hex(),
					Timestamp: snap.ObservedAt.Unix(),
					Data:      snap,
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}

	if err := h.streamer.Serve(c.Writer, c.Request, source); err != nil {
		h.logger.WithError(err).WithRideID(rideID).Warn("Ride stream upgrade failed")
	}
}

type ratingRequest struct {
	Value   float64 `json:"value" validate:"rating_value"`
	Comment string  `json:"comment"`
}

func (h *RideHandler) SubmitRating(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return
	}

	var request ratingRequest
	if !bindJSON(c, &request) {
		return
	}
	if errs := validators.ValidateStruct(&request); errs != nil {
		respondError(c, h.logger, &services.InputError{Fields: errs.Details()})
		return
	}

	rating, err := h.ratingService.SubmitRating(c.Request.Context(), userID, rideID, request.Value, request.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.CreatedResponse(c, "Thanks for rating your driver", rating)
}

// ownSnapshot loads the current snapshot and hides rides owned by someone
// else behind a 404.
func (h *RideHandler) ownSnapshot(c *gin.Context) (*services.RideSnapshot, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return nil, false
	}

	snap, err := h.poller.Current(c.Request.Context(), rideID)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	if snap.UserID != userID {
		respondError(c, h.logger, services.ErrRideNotFound)
		return nil, false
	}
	return snap, true
}
