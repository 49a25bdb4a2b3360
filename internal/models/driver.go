package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Driver struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Email           string             `json:"email" bson:"email"`
	Phone           string             `json:"phone" bson:"phone"`
	Rating          float64            `json:"rating" bson:"rating"`
	NumberOfRatings int64              `json:"number_of_ratings" bson:"number_of_ratings"`
	CarImageURL     string             `json:"car_image_url" bson:"car_image_url"`
	CarType         string             `json:"car_type" bson:"car_type"`
	LicensePlate    string             `json:"license_plate" bson:"license_plate"`
	PhotoURL        string             `json:"photo_url" bson:"photo_url"`
	DeviceToken     string             `json:"-" bson:"device_token,omitempty"`
	DevicePlatform  string             `json:"-" bson:"device_platform,omitempty"`
	Active          bool               `json:"active" bson:"active"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// DriverLocation is written by the driver app and only read here.
type DriverLocation struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	DriverID  primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	Lat       float64            `json:"lat" bson:"lat"`
	Lng       float64            `json:"lng" bson:"lng"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
