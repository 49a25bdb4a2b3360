package mongodb

import (
	"context"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const driverLocationCacheTTL = 5 * time.Second

type driverLocationRepository struct {
	collection *mongo.Collection
	cache      interfaces.Cache
}

func NewDriverLocationRepository(db *mongo.Database, cache interfaces.Cache) interfaces.DriverLocationRepository {
	return &driverLocationRepository{
		collection: db.Collection("driver_locations"),
		cache:      cache,
	}
}

func (r *driverLocationRepository) GetByDriverID(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	cacheKey := utils.CacheDriverLocationPrefix + driverID.Hex()
	if r.cache != nil {
		var location models.DriverLocation
		if err := r.cache.Get(ctx, cacheKey, &location); err == nil {
			return &location, nil
		}
	}

	var location models.DriverLocation
	if err := r.collection.FindOne(ctx, bson.M{"driver_id": driverID}).Decode(&location); err != nil {
		return nil, translateError(err, "get driver location")
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, location, driverLocationCacheTTL)
	}
	return &location, nil
}
