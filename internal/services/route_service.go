package services

import (
	"context"
	"strings"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/validators"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/maps"
)

const metersPerMile = 1609.34

type RouteService interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*models.Location, error)
	Autocomplete(ctx context.Context, input string) ([]string, error)
	RouteDistance(ctx context.Context, origin, destination models.Location, stops []models.Location, optimize bool) (*RouteEstimate, error)
	EstimateFare(ctx context.Context, request *FareEstimateRequest) (*FareEstimate, error)
}

type RouteEstimate struct {
	Meters          float64 `json:"meters"`
	Miles           float64 `json:"miles"`
	DurationSeconds int     `json:"duration_seconds"`
	WaypointOrder   []int   `json:"waypoint_order,omitempty"`
}

type FareEstimateRequest struct {
	Pickup     validators.LocationInput   `json:"pickup" validate:"required"`
	Dropoff    validators.LocationInput   `json:"dropoff" validate:"required"`
	Stops      []validators.LocationInput `json:"stops" validate:"max_stops,dive"`
	Passengers int                        `json:"passengers" validate:"passenger_count"`
	PickupTime *time.Time                 `json:"pickup_time,omitempty"`
}

type FareEstimate struct {
	Fare      string         `json:"fare"`
	Breakdown *FareBreakdown `json:"breakdown"`
	Route     *RouteEstimate `json:"route"`
}

type routeService struct {
	maps     maps.MapsProvider
	fares    *FareCalculator
	maxStops int
	location *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

func NewRouteService(mapsProvider maps.MapsProvider, fares *FareCalculator, maxStops int, tz *time.Location, logger *logger.Logger) RouteService {
	if tz == nil {
		tz = time.UTC
	}
	return &routeService{
		maps:     mapsProvider,
		fares:    fares,
		maxStops: maxStops,
		location: tz,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *routeService) Geocode(ctx context.Context, address string) (*models.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, invalidInput("address", "address is required")
	}

	resp, err := s.maps.Geocode(ctx, address)
	if err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Geocoding failed")
		return nil, ErrRouteUnavailable
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}

	return toModelLocation(resp.Results[0]), nil
}

func (s *routeService) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.Location, error) {
	probe := models.NewLocation(lat, lng, "")
	if err := probe.Validate(); err != nil {
		return nil, invalidInput("coordinates", err.Error())
	}

	resp, err := s.maps.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		s.logger.WithError(err).Warn("Reverse geocoding failed")
		return nil, ErrRouteUnavailable
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}

	loc := toModelLocation(resp.Results[0])
	// keep the caller's exact point, only borrow the address
	loc.Coordinates = probe.Coordinates
	return loc, nil
}

func (s *routeService) Autocomplete(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return []string{}, nil
	}

	resp, err := s.maps.Autocomplete(ctx, &maps.AutocompleteRequest{Input: input})
	if err != nil {
		s.logger.WithError(err).Warn("Address autocomplete failed")
		return nil, ErrRouteUnavailable
	}

	suggestions := make([]string, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		suggestions = append(suggestions, p.Description)
	}
	return suggestions, nil
}

func (s *routeService) RouteDistance(ctx context.Context, origin, destination models.Location, stops []models.Location, optimize bool) (*RouteEstimate, error) {
	if len(stops) > s.maxStops {
		return nil, ErrTooManyStops
	}
	for _, loc := range append([]models.Location{origin, destination}, stops...) {
		if err := loc.Validate(); err != nil {
			return nil, invalidInput("location", err.Error())
		}
	}

	if len(stops) == 0 {
		return s.matrixDistance(ctx, origin, destination)
	}

	waypoints := make([]maps.Location, 0, len(stops))
	for _, stop := range stops {
		waypoints = append(waypoints, toMapsLocation(stop))
	}

	resp, err := s.maps.GetDirections(ctx, &maps.DirectionsRequest{
		Origin:      toMapsLocation(origin),
		Destination: toMapsLocation(destination),
		Waypoints:   waypoints,
		Optimize:    optimize,
		Mode:        "driving",
	})
	if err != nil {
		s.logger.WithError(err).Warn("Directions lookup failed")
		return nil, ErrRouteUnavailable
	}
	if len(resp.Routes) == 0 {
		return nil, ErrRouteUnavailable
	}

	route := resp.Routes[0]
	return &RouteEstimate{
		Meters:          route.Distance.Value,
		Miles:           route.Distance.Value / metersPerMile,
		DurationSeconds: route.Duration.Value,
		WaypointOrder:   route.WaypointOrder,
	}, nil
}

func (s *routeService) matrixDistance(ctx context.Context, origin, destination models.Location) (*RouteEstimate, error) {
	resp, err := s.maps.CalculateDistance(ctx, &maps.DistanceRequest{
		Origins:      []maps.Location{toMapsLocation(origin)},
		Destinations: []maps.Location{toMapsLocation(destination)},
		Mode:         "driving",
		Units:        "imperial",
	})
	if err != nil {
		s.logger.WithError(err).Warn("Distance matrix lookup failed")
		return nil, ErrRouteUnavailable
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, ErrRouteUnavailable
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != maps.StatusOK {
		return nil, ErrRouteUnavailable
	}

	return &RouteEstimate{
		Meters:          element.Distance.Value,
		Miles:           element.Distance.Value / metersPerMile,
		DurationSeconds: element.Duration.Value,
	}, nil
}

func (s *routeService) EstimateFare(ctx context.Context, request *FareEstimateRequest) (*FareEstimate, error) {
	if len(request.Stops) > s.maxStops {
		return nil, ErrTooManyStops
	}
	if errs := validators.ValidateStruct(request); errs != nil {
		return nil, &InputError{Fields: errs.Details()}
	}

	route, err := s.RouteDistance(ctx, request.Pickup.ToModel(), request.Dropoff.ToModel(), validators.ToModels(request.Stops), false)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if request.PickupTime != nil {
		at = *request.PickupTime
	}

	breakdown, err := s.fares.Breakdown(route.Miles, request.Passengers, len(request.Stops), at.In(s.location).Hour())
	if err != nil {
		return nil, err
	}

	return &FareEstimate{
		Fare:      breakdown.Total,
		Breakdown: breakdown,
		Route:     route,
	}, nil
}

func toMapsLocation(loc models.Location) maps.Location {
	return maps.Location{Latitude: loc.Latitude(), Longitude: loc.Longitude()}
}

func toModelLocation(result maps.GeocodeResult) *models.Location {
	loc := models.NewLocation(result.Coordinates.Latitude, result.Coordinates.Longitude, result.Address)
	loc.PlaceID = result.PlaceID
	return &loc
}
