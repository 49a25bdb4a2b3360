package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCommentLength = 1000

type RatingService interface {
	SubmitRating(ctx context.Context, userID, rideID primitive.ObjectID, value float64, comment string) (*models.Rating, error)
}

type ratingService struct {
	rideRepo   interfaces.RideRepository
	driverRepo interfaces.DriverRepository
	ratingRepo interfaces.RatingRepository
	tx         interfaces.Transactor
	now        func() time.Time
	logger     *logger.Logger
}

func NewRatingService(
	rideRepo interfaces.RideRepository,
	driverRepo interfaces.DriverRepository,
	ratingRepo interfaces.RatingRepository,
	tx interfaces.Transactor,
	logger *logger.Logger,
) RatingService {
	return &ratingService{
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		ratingRepo: ratingRepo,
		tx:         tx,
		now:        time.Now,
		logger:     logger,
	}
}

// SubmitRating folds the value into the driver's running average and stores
// the rating row. Both writes commit together or not at all.
func (s *ratingService) SubmitRating(ctx context.Context, userID, rideID primitive.ObjectID, value float64, comment string) (*models.Rating, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 1 || value > 5 {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, invalidInput("comment", fmt.Sprintf("comment must be at most %d characters", maxCommentLength))
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}
	if ride.UserID != userID {
		return nil, ErrRideNotFound
	}
	if !ride.HasDriver() {
		return nil, ErrDriverNotFound
	}
	driverID := *ride.DriverID

	if _, err := s.ratingRepo.GetByRideID(ctx, rideID); err == nil {
		return nil, ErrAlreadyRated
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing rating: %w", err)
	}

	rating := &models.Rating{
		Value:     value,
		Comment:   comment,
		DriverID:  driverID,
		RideID:    rideID,
		CreatedAt: s.now().UTC(),
	}

	var newAverage float64
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		driver, err := s.driverRepo.GetByID(txCtx, driverID)
		if err != nil {
			return notFound(err, ErrDriverNotFound)
		}

		newAverage = models.NextAverage(driver.Rating, driver.NumberOfRatings, value)
		if err := s.driverRepo.UpdateRating(txCtx, driverID, newAverage, driver.NumberOfRatings+1); err != nil {
			return err
		}

		if err := s.ratingRepo.Create(txCtx, rating); err != nil {
			if errors.Is(err, interfaces.ErrDuplicateKey) {
				return ErrAlreadyRated
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyRated) {
			return nil, err
		}
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to record rating")
		return nil, fmt.Errorf("failed to record rating: %w", err)
	}

	s.logger.LogRideEvent(rideID, utils.EventRideRated, map[string]interface{}{
		"driver_id":   driverID.Hex(),
		"value":       value,
		"new_average": newAverage,
	})
	return rating, nil
}
