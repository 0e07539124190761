package domain

import "context"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeocodingResult is the answer of a place-name lookup. Found is false when
// the provider knows no match.
type GeocodingResult struct {
	Coordinates
	Name  string
	Found bool
}

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (GeocodingResult, error)
}

// Forecaster reports the current ambient temperature at a coordinate.
type Forecaster interface {
	CurrentTemperature(ctx context.Context, at Coordinates) (float64, error)
}
