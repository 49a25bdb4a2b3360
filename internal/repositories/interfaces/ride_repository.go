package interfaces

import (
	"context"
	"time"

	"oneridetho/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRepository interface {
	// Create returns ErrDuplicateKey when the idempotency key was already used.
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	GetByIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Ride, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error)

	// ExistsScheduledAt matches Scheduled rides with no dropoff whose pickup
	// time is exactly pickupTime.
	ExistsScheduledAt(ctx context.Context, userID primitive.ObjectID, pickupTime time.Time) (bool, error)
	ExistsWithStatus(ctx context.Context, userID primitive.ObjectID, statuses ...models.RideStatus) (bool, error)

	// MarkCancelled only moves non-terminal rides and returns ErrConflict otherwise.
	MarkCancelled(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Ride, error)
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error
}
