package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client  *maps.Client
	region  string
	country string
}

func NewGoogleMapsProvider(apiKey, region, country string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client:  client,
		region:  region,
		country: country,
	}, nil
}

func (g *GoogleMapsProvider) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	req := &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	}

	resp, err := g.client.Geocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}

	return &GeocodeResponse{Results: toGeocodeResults(resp)}, nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error) {
	req := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}

	return &GeocodeResponse{Results: toGeocodeResults(resp)}, nil
}

func toGeocodeResults(resp []maps.GeocodingResult) []GeocodeResult {
	results := make([]GeocodeResult, len(resp))
	for i, result := range resp {
		results[i] = GeocodeResult{
			PlaceID: result.PlaceID,
			Address: result.FormattedAddress,
			Coordinates: Location{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Types: result.Types,
		}
	}
	return results
}

func (g *GoogleMapsProvider) GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error) {
	mode := maps.TravelModeDriving
	if request.Mode != "" {
		mode = maps.Mode(request.Mode)
	}

	req := &maps.DirectionsRequest{
		Origin:      latLngString(request.Origin),
		Destination: latLngString(request.Destination),
		Mode:        mode,
		Optimize:    request.Optimize,
		Region:      g.region,
	}

	if len(request.Waypoints) > 0 {
		waypoints := make([]string, len(request.Waypoints))
		for i, wp := range request.Waypoints {
			waypoints[i] = latLngString(wp)
		}
		req.Waypoints = waypoints
	}

	if len(request.Avoid) > 0 {
		avoid := make([]maps.Avoid, len(request.Avoid))
		for i, a := range request.Avoid {
			avoid[i] = maps.Avoid(a)
		}
		req.Avoid = avoid
	}

	resp, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}

	routes := make([]Route, 0, len(resp))
	for _, route := range resp {
		var meters int
		var duration time.Duration
		for _, leg := range route.Legs {
			meters += leg.Distance.Meters
			duration += leg.Duration
		}

		routes = append(routes, Route{
			Summary: route.Summary,
			Distance: Distance{
				Text:  fmt.Sprintf("%.1f km", float64(meters)/1000),
				Value: float64(meters),
			},
			Duration: Duration{
				Text:  duration.Round(time.Minute).String(),
				Value: int(duration.Seconds()),
			},
			Legs:          len(route.Legs),
			WaypointOrder: route.WaypointOrder,
			Polyline:      route.OverviewPolyline.Points,
		})
	}

	return &DirectionsResponse{Routes: routes}, nil
}

func (g *GoogleMapsProvider) CalculateDistance(ctx context.Context, request *DistanceRequest) (*DistanceResponse, error) {
	origins := make([]string, len(request.Origins))
	for i, origin := range request.Origins {
		origins[i] = latLngString(origin)
	}

	destinations := make([]string, len(request.Destinations))
	for i, dest := range request.Destinations {
		destinations[i] = latLngString(dest)
	}

	req := &maps.DistanceMatrixRequest{
		Origins:      origins,
		Destinations: destinations,
		Mode:         maps.Mode(request.Mode),
		Units:        maps.Units(request.Units),
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}

	rows := make([]DistanceRow, len(resp.Rows))
	for i, row := range resp.Rows {
		elements := make([]DistanceElement, len(row.Elements))
		for j, element := range row.Elements {
			elements[j] = DistanceElement{
				Distance: Distance{
					Text:  element.Distance.HumanReadable,
					Value: float64(element.Distance.Meters),
				},
				Duration: Duration{
					Text:  element.Duration.String(),
					Value: int(element.Duration.Seconds()),
				},
				Status: element.Status,
			}
		}
		rows[i] = DistanceRow{Elements: elements}
	}

	return &DistanceResponse{Rows: rows}, nil
}

func (g *GoogleMapsProvider) Autocomplete(ctx context.Context, request *AutocompleteRequest) (*AutocompleteResponse, error) {
	req := &maps.PlaceAutocompleteRequest{
		Input: request.Input,
	}

	country := request.Country
	if country == "" {
		country = g.country
	}
	if country != "" {
		req.Components = map[maps.Component][]string{
			maps.ComponentCountry: {country},
		}
	}

	if request.Location != nil {
		req.Location = &maps.LatLng{Lat: request.Location.Latitude, Lng: request.Location.Longitude}
		req.Radius = request.Radius
	}

	resp, err := g.client.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place autocomplete request failed: %w", err)
	}

	predictions := make([]Prediction, len(resp.Predictions))
	for i, p := range resp.Predictions {
		predictions[i] = Prediction{
			PlaceID:     p.PlaceID,
			Description: p.Description,
		}
	}

	return &AutocompleteResponse{Predictions: predictions}, nil
}

func latLngString(l Location) string {
	return fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
}
