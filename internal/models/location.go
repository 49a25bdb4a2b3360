package models

import (
	"errors"
	"math"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Location is a GeoJSON point ([lng, lat]) with the formatted address it was
// resolved from. Every pickup, dropoff and stop is stored this way.
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
	Address     string    `json:"address" bson:"address"`
	PlaceID     string    `json:"place_id,omitempty" bson:"place_id,omitempty"`
}

func NewLocation(lat, lng float64, address string) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
		Address:     address,
	}
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

func (l Location) Validate() error {
	if len(l.Coordinates) != 2 {
		return ErrInvalidCoordinates
	}
	lat, lng := l.Latitude(), l.Longitude()
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// String prefers the formatted address.
func (l Location) String() string {
	if l.Address != "" {
		return l.Address
	}
	return formatLatLng(l.Latitude(), l.Longitude())
}
