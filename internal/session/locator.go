package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/heat-emissions/internal/domain"
)

// DefaultTemperatureTTL bounds how long a looked-up temperature is reused.
const DefaultTemperatureTTL = 30 * time.Minute

type attemptState int

const (
	attemptPending attemptState = iota + 1
	attemptDone
)

type reading struct {
	at    domain.Coordinates
	value float64
	taken time.Time
}

// Locator resolves a country to coordinates and an ambient temperature.
// Each country's coordinate lookup is attempted at most once: concurrent
// callers see the pending marker and get no coordinate, and a failed attempt
// is not retried.
type Locator struct {
	geocoder   domain.Geocoder
	forecaster domain.Forecaster
	logger     *slog.Logger
	clock      clockwork.Clock
	ttl        time.Duration

	mu       sync.Mutex
	attempts map[string]attemptState
	coords   map[string]domain.Coordinates
	readings map[string]reading
}

// NewLocator creates a Locator. Either capability may be nil, in which case
// the corresponding value is always unavailable.
func NewLocator(geocoder domain.Geocoder, forecaster domain.Forecaster, logger *slog.Logger) *Locator {
	return &Locator{
		geocoder:   geocoder,
		forecaster: forecaster,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		ttl:        DefaultTemperatureTTL,
		attempts:   make(map[string]attemptState),
		coords:     make(map[string]domain.Coordinates),
		readings:   make(map[string]reading),
	}
}

// Coordinates returns the coordinates of a country, geocoding place on the
// first call for that country code.
func (l *Locator) Coordinates(ctx context.Context, code, place string) (domain.Coordinates, bool) {
	if l == nil {
		return domain.Coordinates{}, false
	}
	key := strings.ToUpper(strings.TrimSpace(code))

	l.mu.Lock()
	if c, ok := l.coords[key]; ok {
		l.mu.Unlock()
		return c, true
	}
	if l.attempts[key] != 0 {
		l.mu.Unlock()
		return domain.Coordinates{}, false
	}
	l.attempts[key] = attemptPending
	l.mu.Unlock()

	c, ok := domain.LookupCoordinates(ctx, l.geocoder, place, l.logger)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts[key] = attemptDone
	if ok {
		l.coords[key] = c
	}
	return c, ok
}

// Temperature returns the current temperature at the country's coordinates.
// Readings are reused until they expire or the coordinates change.
func (l *Locator) Temperature(ctx context.Context, code string, at domain.Coordinates) (float64, bool) {
	if l == nil {
		return 0, false
	}
	key := strings.ToUpper(strings.TrimSpace(code))

	l.mu.Lock()
	if r, ok := l.readings[key]; ok && r.at == at && l.clock.Since(r.taken) < l.ttl {
		l.mu.Unlock()
		return r.value, true
	}
	l.mu.Unlock()

	t, ok := domain.LookupTemperature(ctx, l.forecaster, at, l.logger)
	if !ok {
		return 0, false
	}

	l.mu.Lock()
	l.readings[key] = reading{at: at, value: t, taken: l.clock.Now()}
	l.mu.Unlock()
	return t, true
}

// Resolve runs the geocode then forecast chain for a country.
func (l *Locator) Resolve(ctx context.Context, code, place string) Ambient {
	var amb Ambient
	c, ok := l.Coordinates(ctx, code, place)
	if !ok {
		return amb
	}
	amb.Coordinates = &c
	if t, ok := l.Temperature(ctx, code, c); ok {
		amb.TemperatureC = &t
	}
	return amb
}
