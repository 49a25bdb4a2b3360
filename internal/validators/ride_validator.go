package validators

import (
	"math"
	"time"

	"oneridetho/internal/models"
)

// LocationInput is how clients send a pickup, dropoff or stop.
type LocationInput struct {
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Address string  `json:"address" validate:"required,max=500"`
	PlaceID string  `json:"place_id,omitempty" validate:"omitempty,max=300"`
}

func (l LocationInput) ToModel() models.Location {
	loc := models.NewLocation(l.Lat, l.Lng, l.Address)
	loc.PlaceID = l.PlaceID
	return loc
}

func ToModels(inputs []LocationInput) []models.Location {
	locations := make([]models.Location, 0, len(inputs))
	for _, in := range inputs {
		locations = append(locations, in.ToModel())
	}
	return locations
}

// ValidateLocations checks coordinates the struct tags cannot, such as NaN.
func ValidateLocations(inputs ...LocationInput) ValidationErrors {
	var errs ValidationErrors
	for _, in := range inputs {
		if math.IsNaN(in.Lat) || math.IsNaN(in.Lng) || math.IsInf(in.Lat, 0) || math.IsInf(in.Lng, 0) {
			errs = append(errs, ValidationError{
				Field:   "location",
				Tag:     "coordinates",
				Value:   in.Address,
				Message: "Invalid GPS coordinates",
			})
		}
	}
	return errs
}

func ValidateScheduledTime(pickup, now time.Time) ValidationErrors {
	if pickup.IsZero() {
		return ValidationErrors{{Field: "scheduled_pickup_time", Tag: "required", Message: "scheduled_pickup_time is required"}}
	}
	if !pickup.After(now) {
		return ValidationErrors{{Field: "scheduled_pickup_time", Tag: "future", Message: "Scheduled pickup must be in the future"}}
	}
	return nil
}
