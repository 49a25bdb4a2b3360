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
)

type driverRepository struct {
	collection *mongo.Collection
}

func NewDriverRepository(db *mongo.Database) interfaces.DriverRepository {
	return &driverRepository{
		collection: db.Collection("drivers"),
	}
}

func (r *driverRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	var driver models.Driver
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&driver); err != nil {
		return nil, translateError(err, "get driver")
	}
	return &driver, nil
}

func (r *driverRepository) ListActive(ctx context.Context) ([]*models.Driver, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer cursor.Close(ctx)

	drivers := make([]*models.Driver, 0)
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("failed to decode drivers: %w", err)
	}
	return drivers, nil
}

func (r *driverRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, rating float64, numberOfRatings int64) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"rating":            rating,
			"number_of_ratings": numberOfRatings,
			"updated_at":        time.Now(),
		}},
	)
	if err != nil {
		return translateError(err, "update driver rating")
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update driver rating: %w", interfaces.ErrNotFound)
	}
	return nil
}
