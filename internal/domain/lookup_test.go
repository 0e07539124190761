package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mocks ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) Geocode(_ context.Context, _ string) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockForecaster struct {
	temp float64
	err  error
}

func (m *mockForecaster) CurrentTemperature(_ context.Context, _ Coordinates) (float64, error) {
	return m.temp, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestLookupCoordinates(t *testing.T) {
	ctx := context.Background()

	t.Run("nil geocoder", func(t *testing.T) {
		_, ok := LookupCoordinates(ctx, nil, "Sweden", discardLogger())
		assert.False(t, ok)
	})

	t.Run("found", func(t *testing.T) {
		geo := &mockGeocoder{result: GeocodingResult{Coordinates: Coordinates{Lat: 59.3, Lon: 18.1}, Found: true}}
		c, ok := LookupCoordinates(ctx, geo, "Sweden", discardLogger())
		assert.True(t, ok)
		assert.Equal(t, Coordinates{Lat: 59.3, Lon: 18.1}, c)
	})

	t.Run("not found", func(t *testing.T) {
		geo := &mockGeocoder{}
		_, ok := LookupCoordinates(ctx, geo, "Atlantis", discardLogger())
		assert.False(t, ok)
		assert.Equal(t, 1, geo.calls)
	})

	t.Run("error degrades", func(t *testing.T) {
		geo := &mockGeocoder{err: errors.New("connection refused")}
		_, ok := LookupCoordinates(ctx, geo, "Sweden", discardLogger())
		assert.False(t, ok)
	})

	t.Run("empty place skips call", func(t *testing.T) {
		geo := &mockGeocoder{}
		_, ok := LookupCoordinates(ctx, geo, "", discardLogger())
		assert.False(t, ok)
		assert.Zero(t, geo.calls)
	})
}

func TestLookupTemperature(t *testing.T) {
	ctx := context.Background()
	at := Coordinates{Lat: 59.3, Lon: 18.1}

	temp, ok := LookupTemperature(ctx, &mockForecaster{temp: -4.5}, at, discardLogger())
	assert.True(t, ok)
	assert.Equal(t, -4.5, temp)

	_, ok = LookupTemperature(ctx, &mockForecaster{err: errors.New("timeout")}, at, discardLogger())
	assert.False(t, ok)

	_, ok = LookupTemperature(ctx, &mockForecaster{temp: math.NaN()}, at, discardLogger())
	assert.False(t, ok)

	_, ok = LookupTemperature(ctx, nil, at, discardLogger())
	assert.False(t, ok)
}
