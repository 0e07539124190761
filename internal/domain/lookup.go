package domain

import (
	"context"
	"log/slog"
	"math"
)

// LookupCoordinates geocodes a place name. Failures and empty results degrade
// to ok=false; the error is logged, never returned.
func LookupCoordinates(ctx context.Context, geocoder Geocoder, place string, logger *slog.Logger) (Coordinates, bool) {
	if geocoder == nil || place == "" {
		return Coordinates{}, false
	}
	res, err := geocoder.Geocode(ctx, place)
	if err != nil {
		logger.Warn("geocoding failed", "place", place, "error", err)
		return Coordinates{}, false
	}
	if !res.Found {
		logger.Debug("geocoding found no match", "place", place)
		return Coordinates{}, false
	}
	return res.Coordinates, true
}

// LookupTemperature fetches the current temperature. Failures and non-finite
// values degrade to ok=false.
func LookupTemperature(ctx context.Context, forecaster Forecaster, at Coordinates, logger *slog.Logger) (float64, bool) {
	if forecaster == nil {
		return 0, false
	}
	t, err := forecaster.CurrentTemperature(ctx, at)
	if err != nil {
		logger.Warn("temperature lookup failed", "lat", at.Lat, "lon", at.Lon, "error", err)
		return 0, false
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		logger.Warn("temperature lookup returned non-finite value", "lat", at.Lat, "lon", at.Lon)
		return 0, false
	}
	return t, true
}
