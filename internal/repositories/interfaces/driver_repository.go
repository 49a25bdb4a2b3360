package interfaces

import (
	"context"

	"oneridetho/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error)
	ListActive(ctx context.Context) ([]*models.Driver, error)
	UpdateRating(ctx context.Context, id primitive.ObjectID, rating float64, numberOfRatings int64) error
}

// DriverLocationRepository is read-only here. Positions are written by the
// driver app.
type DriverLocationRepository interface {
	GetByDriverID(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error)
}

type RatingRepository interface {
	// Create returns ErrDuplicateKey when the ride was already rated.
	Create(ctx context.Context, rating *models.Rating) error
	GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.Rating, error)
}

// Transactor runs fn in one database transaction. Repository calls made with
// the context handed to fn take part in it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
