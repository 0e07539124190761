package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-emissions/internal/domain"
)

const emberCSV = `Area,ISO 3 code,Date,Category,Subcategory,Variable,Unit,Value
Sweden,SWE,2024-01-01,Power sector emissions,CO2 intensity,CO2 intensity,gCO2/kWh,41
Sweden,SWE,2024-02-01,Power sector emissions,CO2 intensity,CO2 intensity,gCO2/kWh,38
Sweden,SWE,2024-02-01,Electricity generation,Fuel,Hydro,TWh,6
Sweden,SWE,2024-02-01,Electricity generation,Fuel,Nuclear,TWh,4
Poland,POL,2024-02-01,Power sector emissions,CO2 intensity,CO2 intensity,gCO2/kWh,320
`

// --- mocks ---

type mockGeocoder struct {
	calls atomic.Int64
	// block holds places whose lookup waits for cancellation.
	block     map[string]bool
	err       error
	cancelled atomic.Int64
	started   chan string
}

func (m *mockGeocoder) Geocode(ctx context.Context, place string) (domain.GeocodingResult, error) {
	m.calls.Add(1)
	if m.started != nil {
		m.started <- place
	}
	if m.block[place] {
		<-ctx.Done()
		m.cancelled.Add(1)
		return domain.GeocodingResult{}, ctx.Err()
	}
	if m.err != nil {
		return domain.GeocodingResult{}, m.err
	}
	return domain.GeocodingResult{
		Coordinates: domain.Coordinates{Lat: float64(len(place)), Lon: 10},
		Name:        place,
		Found:       true,
	}, nil
}

type mockForecaster struct {
	mu    sync.Mutex
	temp  float64
	err   error
	calls int
}

func (m *mockForecaster) CurrentTemperature(_ context.Context, _ domain.Coordinates) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.temp, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	res, err := domain.ParseDataset(strings.NewReader(emberCSV))
	require.NoError(t, err)
	return domain.BuildDataset(res)
}

func freezeYear(t *testing.T, year int) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// --- Evaluate ---

func TestEvaluate_ResistiveObserved(t *testing.T) {
	freezeYear(t, 2025)
	d := domain.Defaults()
	ds := testDataset(t)

	sel := DefaultSelection("SWE", d)
	sel.Source = domain.HeatSourceResistive
	res := Evaluate(ds, sel, Ambient{}, d)

	assert.Equal(t, domain.Country{Code: "SWE", Name: "Sweden"}, res.Country)
	assert.Equal(t, 38.0, res.GridIntensity)
	assert.Equal(t, domain.IntensityObserved, res.IntensitySource)
	assert.Equal(t, 1.0, res.COP)
	assert.Equal(t, 2025, res.CurrentYear)
	require.Len(t, res.Comparisons, len(d.Horizons))
	assert.InDelta(t, 38.0*10000, res.Comparisons[0].ComparatorTotal, 1e-6)
	assert.Len(t, res.History, 2)
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, domain.MixHydro, res.Breakdown[0].Category)
}

func TestEvaluate_ByName(t *testing.T) {
	d := domain.Defaults()
	res := Evaluate(testDataset(t), DefaultSelection("poland", d), Ambient{}, d)
	assert.Equal(t, "POL", res.Country.Code)
	assert.Equal(t, 320.0, res.GridIntensity)
}

func TestEvaluate_UnknownCountryUsesDefault(t *testing.T) {
	d := domain.Defaults()
	res := Evaluate(testDataset(t), DefaultSelection("Atlantis", d), Ambient{}, d)
	assert.Equal(t, d.GlobalIntensity, res.GridIntensity)
	assert.Equal(t, domain.IntensityDefault, res.IntensitySource)
	assert.Empty(t, res.Breakdown)
}

func TestEvaluate_AmbientDrivesASHP(t *testing.T) {
	d := domain.Defaults()
	temp := 5.0
	res := Evaluate(testDataset(t), DefaultSelection("POL", d), Ambient{TemperatureC: &temp}, d)
	assert.InDelta(t, 3.1, res.COP, 1e-9)
	require.NotNil(t, res.AmbientC)
	assert.Equal(t, 5.0, *res.AmbientC)

	noTemp := Evaluate(testDataset(t), DefaultSelection("POL", d), Ambient{}, d)
	assert.InDelta(t, d.ASHPBase, noTemp.COP, 1e-9)
}

func TestEvaluate_CustomHorizons(t *testing.T) {
	d := domain.Defaults()
	sel := DefaultSelection("SWE", d)
	sel.Horizons = []int{5, 20}
	res := Evaluate(testDataset(t), sel, Ambient{}, d)
	require.Len(t, res.Comparisons, 2)
	assert.Equal(t, 5, res.Comparisons[0].Horizon)
	assert.Equal(t, 20, res.Comparisons[1].Horizon)
	assert.Len(t, d.Horizons, 5, "defaults must not be modified")
}

func TestEvaluate_DropsHorizonsBeyondMaximum(t *testing.T) {
	d := domain.Defaults()
	sel := DefaultSelection("SWE", d)
	sel.Horizons = []int{10, domain.MaxHorizon + 1, math.MaxInt}
	res := Evaluate(testDataset(t), sel, Ambient{}, d)
	require.Len(t, res.Comparisons, 1)
	assert.Equal(t, 10, res.Comparisons[0].Horizon)

	sel.Horizons = []int{math.MaxInt}
	res = Evaluate(testDataset(t), sel, Ambient{}, d)
	assert.Len(t, res.Comparisons, len(d.Horizons), "no valid custom horizon falls back to the defaults")
}

func TestEvaluate_NilDataset(t *testing.T) {
	d := domain.Defaults()
	res := Evaluate(nil, DefaultSelection("DEU", d), Ambient{}, d)
	assert.Equal(t, 380.0, res.GridIntensity)
	assert.Equal(t, domain.IntensityBaseline, res.IntensitySource)
}

// --- Locator ---

func TestLocator_AttemptsOncePerCountry(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("network down")}
	l := NewLocator(geo, nil, discardLogger())

	_, ok := l.Coordinates(context.Background(), "SWE", "Sweden")
	assert.False(t, ok)
	_, ok = l.Coordinates(context.Background(), "swe", "Sweden")
	assert.False(t, ok)

	assert.Equal(t, int64(1), geo.calls.Load(), "failed lookups are not retried")
}

func TestLocator_CachesCoordinates(t *testing.T) {
	geo := &mockGeocoder{}
	l := NewLocator(geo, nil, discardLogger())

	c1, ok := l.Coordinates(context.Background(), "SWE", "Sweden")
	require.True(t, ok)
	c2, ok := l.Coordinates(context.Background(), "SWE", "Sweden")
	require.True(t, ok)

	assert.Equal(t, c1, c2)
	assert.Equal(t, int64(1), geo.calls.Load())
}

func TestLocator_PendingLookupNotDuplicated(t *testing.T) {
	geo := &mockGeocoder{block: map[string]bool{"Sweden": true}, started: make(chan string, 1)}
	l := NewLocator(geo, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Coordinates(ctx, "SWE", "Sweden")
	}()
	<-geo.started

	_, ok := l.Coordinates(context.Background(), "SWE", "Sweden")
	assert.False(t, ok)

	cancel()
	<-done
	assert.Equal(t, int64(1), geo.calls.Load())
}

func TestLocator_TemperatureTTL(t *testing.T) {
	fc := &mockForecaster{temp: -2}
	l := NewLocator(nil, fc, discardLogger())
	fake := clockwork.NewFakeClock()
	l.clock = fake
	at := domain.Coordinates{Lat: 59, Lon: 18}

	temp, ok := l.Temperature(context.Background(), "SWE", at)
	require.True(t, ok)
	assert.Equal(t, -2.0, temp)

	_, _ = l.Temperature(context.Background(), "SWE", at)
	assert.Equal(t, 1, fc.calls)

	fake.Advance(DefaultTemperatureTTL)
	_, _ = l.Temperature(context.Background(), "SWE", at)
	assert.Equal(t, 2, fc.calls)

	_, _ = l.Temperature(context.Background(), "SWE", domain.Coordinates{Lat: 60, Lon: 18})
	assert.Equal(t, 3, fc.calls, "moved coordinates trigger a new lookup")
}

func TestLocator_ResolveDegrades(t *testing.T) {
	l := NewLocator(&mockGeocoder{}, &mockForecaster{err: errors.New("503")}, discardLogger())
	amb := l.Resolve(context.Background(), "SWE", "Sweden")
	assert.NotNil(t, amb.Coordinates)
	assert.Nil(t, amb.TemperatureC)

	var nilLocator *Locator
	assert.Equal(t, Ambient{}, nilLocator.Resolve(context.Background(), "SWE", "Sweden"))
}

// --- Session ---

func TestSession_SelectCountryResolvesAmbient(t *testing.T) {
	ds := testDataset(t)
	fc := &mockForecaster{temp: 5}
	l := NewLocator(&mockGeocoder{}, fc, discardLogger())
	s := New(func() *domain.Dataset { return ds }, l, domain.Defaults(), discardLogger())
	defer s.Close()

	s.SelectCountry(context.Background(), "SWE")
	s.Wait()

	amb := s.Ambient()
	require.NotNil(t, amb.TemperatureC)
	assert.Equal(t, 5.0, *amb.TemperatureC)

	res := s.Results()
	assert.Equal(t, "SWE", res.Country.Code)
	assert.InDelta(t, 3.1, res.COP, 1e-9)
}

func TestSession_SwitchCancelsStaleLookup(t *testing.T) {
	ds := testDataset(t)
	geo := &mockGeocoder{block: map[string]bool{"Sweden": true}, started: make(chan string, 2)}
	l := NewLocator(geo, &mockForecaster{temp: -10}, discardLogger())
	s := New(func() *domain.Dataset { return ds }, l, domain.Defaults(), discardLogger())
	defer s.Close()

	s.SelectCountry(context.Background(), "SWE")
	assert.Equal(t, "Sweden", <-geo.started)

	s.SelectCountry(context.Background(), "POL")
	s.Wait()

	assert.Equal(t, int64(1), geo.cancelled.Load(), "previous lookup must be cancelled")
	assert.Equal(t, "POL", s.Selection().Country)
	amb := s.Ambient()
	require.NotNil(t, amb.Coordinates)
	assert.Equal(t, float64(len("Poland")), amb.Coordinates.Lat)
}

func TestSession_UnknownCountrySkipsLookup(t *testing.T) {
	geo := &mockGeocoder{}
	ds := testDataset(t)
	s := New(func() *domain.Dataset { return ds }, NewLocator(geo, nil, discardLogger()), domain.Defaults(), discardLogger())

	s.SelectCountry(context.Background(), "Atlantis")
	s.Wait()
	assert.Zero(t, geo.calls.Load())
	assert.Equal(t, Ambient{}, s.Ambient())
}

func TestSession_ResultsMemoized(t *testing.T) {
	ds := testDataset(t)
	s := New(func() *domain.Dataset { return ds }, nil, domain.Defaults(), discardLogger())
	s.SelectCountry(context.Background(), "SWE")

	_ = s.Results()
	first := s.memo
	_ = s.Results()
	assert.Same(t, first, s.memo, "unchanged inputs reuse the previous result")

	s.Update(func(sel *Selection) { sel.Source = domain.HeatSourceGas })
	res := s.Results()
	assert.NotSame(t, first, s.memo)
	assert.Equal(t, domain.HeatSourceGas, res.Source)
	assert.InDelta(t, 202/0.92*10000, res.Comparisons[0].ComparatorTotal, 1e-6)
}

func TestSession_ResultsTrackYearChange(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2030, 12, 31, 23, 0, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	ds := testDataset(t)
	s := New(func() *domain.Dataset { return ds }, nil, domain.Defaults(), discardLogger())
	s.SelectCountry(context.Background(), "SWE")

	before := s.Results()
	assert.Equal(t, 2030, before.CurrentYear)

	clock.Advance(2 * time.Hour)
	after := s.Results()
	assert.Equal(t, 2031, after.CurrentYear)
	assert.NotEqual(t, before.Comparisons, after.Comparisons, "the grid path moves with the year")
}

func TestSession_ResultsTrackDatasetSwap(t *testing.T) {
	var current atomic.Pointer[domain.Dataset]
	current.Store(domain.EmptyDataset(nil))
	s := New(current.Load, nil, domain.Defaults(), discardLogger())
	s.SelectCountry(context.Background(), "SWE")

	assert.Equal(t, domain.IntensityBaseline, s.Results().IntensitySource)

	current.Store(testDataset(t))
	assert.Equal(t, domain.IntensityObserved, s.Results().IntensitySource)
}
