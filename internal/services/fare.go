package services

import (
	"fmt"
	"math"

	"oneridetho/internal/config"
)

// FareBreakdown itemises a fare for the estimate endpoint.
type FareBreakdown struct {
	Base            float64 `json:"base"`
	Distance        float64 `json:"distance"`
	ExtraPassengers float64 `json:"extra_passengers"`
	Stops           float64 `json:"stops"`
	NightFee        float64 `json:"night_fee"`
	Total           string  `json:"total"`
	DistanceMiles   float64 `json:"distance_miles"`
}

type FareCalculator struct {
	cfg config.BookingConfig
}

func NewFareCalculator(cfg *config.BookingConfig) *FareCalculator {
	return &FareCalculator{cfg: *cfg}
}

// DefaultFareCalculator uses the published One Ride Tho tariff.
func DefaultFareCalculator() *FareCalculator {
	return &FareCalculator{cfg: config.BookingConfig{
		BaseFare:          10,
		PerMile:           2,
		PerExtraPassenger: 2,
		PerStop:           1,
		NightFee:          5,
		NightStartHour:    23,
		NightEndHour:      6,
		MaxPassengers:     4,
		MaxStops:          3,
	}}
}

// CalculateFare returns the fare formatted with two decimals.
func (f *FareCalculator) CalculateFare(distanceMiles float64, passengers, stops, hour int) (string, error) {
	b, err := f.Breakdown(distanceMiles, passengers, stops, hour)
	if err != nil {
		return "", err
	}
	return b.Total, nil
}

func (f *FareCalculator) Breakdown(distanceMiles float64, passengers, stops, hour int) (*FareBreakdown, error) {
	if math.IsNaN(distanceMiles) || math.IsInf(distanceMiles, 0) || distanceMiles < 0 {
		return nil, invalidInput("distance", "distance must be a non-negative number")
	}
	if passengers < 1 || passengers > f.cfg.MaxPassengers {
		return nil, invalidInput("passengers", fmt.Sprintf("passengers must be between 1 and %d", f.cfg.MaxPassengers))
	}
	if stops < 0 || stops > f.cfg.MaxStops {
		return nil, invalidInput("stops", fmt.Sprintf("stops must be between 0 and %d", f.cfg.MaxStops))
	}
	if hour < 0 || hour > 23 {
		return nil, invalidInput("hour", "hour must be between 0 and 23")
	}

	b := &FareBreakdown{
		Base:            f.cfg.BaseFare,
		Distance:        distanceMiles * f.cfg.PerMile,
		ExtraPassengers: float64(passengers-1) * f.cfg.PerExtraPassenger,
		Stops:           float64(stops) * f.cfg.PerStop,
		DistanceMiles:   distanceMiles,
	}
	if f.isNight(hour) {
		b.NightFee = f.cfg.NightFee
	}

	total := b.Base + b.Distance + b.ExtraPassengers + b.Stops + b.NightFee
	b.Total = fmt.Sprintf("%.2f", total)
	return b, nil
}

func (f *FareCalculator) isNight(hour int) bool {
	start, end := f.cfg.NightStartHour, f.cfg.NightEndHour
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// CalculateFare prices a ride with the default tariff.
func CalculateFare(distanceMiles float64, passengers, stops, hour int) (string, error) {
	return DefaultFareCalculator().CalculateFare(distanceMiles, passengers, stops, hour)
}
