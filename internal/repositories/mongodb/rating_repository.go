package mongodb

import (
	"context"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ratingRepository struct {
	collection *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) interfaces.RatingRepository {
	return &ratingRepository{
		collection: db.Collection("ratings"),
	}
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	rating.ID = primitive.NewObjectID()
	rating.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, rating)
	return translateError(err, "create rating")
}

func (r *ratingRepository) GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.Rating, error) {
	var rating models.Rating
	if err := r.collection.FindOne(ctx, bson.M{"ride_id": rideID}).Decode(&rating); err != nil {
		return nil, translateError(err, "get rating")
	}
	return &rating, nil
}
