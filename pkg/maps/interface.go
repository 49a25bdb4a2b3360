package maps

import "context"

type MapsProvider interface {
	Geocode(ctx context.Context, address string) (*GeocodeResponse, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error)
	GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error)
	CalculateDistance(ctx context.Context, request *DistanceRequest) (*DistanceResponse, error)
	Autocomplete(ctx context.Context, request *AutocompleteRequest) (*AutocompleteResponse, error)
}

// Element statuses returned by the distance matrix.
const (
	StatusOK       = "OK"
	StatusNotFound = "NOT_FOUND"
	StatusNoRoute  = "ZERO_RESULTS"
)

type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
}

type GeocodeResult struct {
	PlaceID     string   `json:"place_id"`
	Address     string   `json:"formatted_address"`
	Coordinates Location `json:"geometry"`
	Types       []string `json:"types"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Waypoints are visited in order unless Optimize is set.
type DirectionsRequest struct {
	Origin      Location   `json:"origin"`
	Destination Location   `json:"destination"`
	Waypoints   []Location `json:"waypoints,omitempty"`
	Optimize    bool       `json:"optimize"`
	Mode        string     `json:"mode"`            // driving, walking, bicycling, transit
	Avoid       []string   `json:"avoid,omitempty"` // tolls, highways, ferries
}

type DirectionsResponse struct {
	Routes []Route `json:"routes"`
}

// Route distance and duration are summed over every leg.
type Route struct {
	Summary       string   `json:"summary"`
	Distance      Distance `json:"distance"`
	Duration      Duration `json:"duration"`
	Legs          int      `json:"legs"`
	WaypointOrder []int    `json:"waypoint_order,omitempty"`
	Polyline      string   `json:"overview_polyline"`
}

type Distance struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"` // in meters
}

type Duration struct {
	Text  string `json:"text"`
	Value int    `json:"value"` // in seconds
}

type DistanceRequest struct {
	Origins      []Location `json:"origins"`
	Destinations []Location `json:"destinations"`
	Mode         string     `json:"mode"`
	Units        string     `json:"units"` // metric, imperial
}

type DistanceResponse struct {
	Rows []DistanceRow `json:"rows"`
}

type DistanceRow struct {
	Elements []DistanceElement `json:"elements"`
}

type DistanceElement struct {
	Distance Distance `json:"distance"`
	Duration Duration `json:"duration"`
	Status   string   `json:"status"`
}

type AutocompleteRequest struct {
	Input    string    `json:"input"`
	Country  string    `json:"country,omitempty"`
	Location *Location `json:"location,omitempty"`
	Radius   uint      `json:"radius,omitempty"`
}

type AutocompleteResponse struct {
	Predictions []Prediction `json:"predictions"`
}

type Prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}
