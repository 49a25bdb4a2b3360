package mongodb

import (
	"context"
	"fmt"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Rides are not cached: the driver app updates status directly in the
// database and the status poller must see those writes.
type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection("rides"),
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	now := time.Now()
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = now
	ride.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, ride)
	return translateError(err, "create ride")
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	var ride models.Ride
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride); err != nil {
		return nil, translateError(err, "get ride")
	}
	return &ride, nil
}

func (r *rideRepository) GetByIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "idempotency_key": key}).Decode(&ride)
	if err != nil {
		return nil, translateError(err, "get ride by idempotency key")
	}
	return &ride, nil
}

func (r *rideRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}
	defer cursor.Close(ctx)

	rides := make([]*models.Ride, 0)
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode rides: %w", err)
	}
	return rides, nil
}

func (r *rideRepository) ExistsScheduledAt(ctx context.Context, userID primitive.ObjectID, pickupTime time.Time) (bool, error) {
	filter := bson.M{
		"user_id":      userID,
		"status":       models.RideStatusScheduled,
		"dropoff_time": nil,
		"pickup_time":  pickupTime.UTC().Truncate(time.Millisecond),
	}
	return r.exists(ctx, filter)
}

func (r *rideRepository) ExistsWithStatus(ctx context.Context, userID primitive.ObjectID, statuses ...models.RideStatus) (bool, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": statuses},
	}
	return r.exists(ctx, filter)
}

func (r *rideRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count rides: %w", err)
	}
	return count > 0, nil
}

func (r *rideRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Ride, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$nin": []models.RideStatus{models.RideStatusCancelled, models.RideStatusCompleted}},
	}
	update := bson.M{"$set": bson.M{
		"status":       models.RideStatusCancelled,
		"cancelled_at": at,
		"updated_at":   at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride models.Ride
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to cancel ride: %w", interfaces.ErrConflict)
	}
	if err != nil {
		return nil, translateError(err, "cancel ride")
	}
	return &ride, nil
}

func (r *rideRepository) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return translateError(err, "update payment status")
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update payment status: %w", interfaces.ErrNotFound)
	}
	return nil
}
