package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Rating struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Value     float64            `json:"value" bson:"value" validate:"required,rating_value"`
	Comment   string             `json:"comment" bson:"comment"`
	DriverID  primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	RideID    primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// NextAverage folds one more rating into a running average.
func NextAverage(average float64, count int64, value float64) float64 {
	return (average*float64(count) + value) / float64(count+1)
}
