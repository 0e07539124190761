package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownCountry is returned when a country query matches nothing.
var ErrUnknownCountry = errors.New("unknown country")

// Intensity sources reported by Dataset.CurrentIntensity.
const (
	IntensityObserved = "observed"
	IntensityBaseline = "baseline"
	IntensityDefault  = "default"
)

// Dataset is an immutable snapshot of all per-country structures built from
// one successful load. It is replaced wholesale on the next load.
type Dataset struct {
	History   IntensityHistory
	Mix       MixAggregate
	Rows      int
	Skipped   int
	LoadedAt  time.Time
	LoadError string
}

// BuildDataset composes the intensity history and generation mix from parsed rows.
func BuildDataset(res ParseResult) *Dataset {
	return &Dataset{
		History:  BuildIntensityHistory(res.Rows),
		Mix:      AggregateMix(res.Rows),
		Rows:     len(res.Rows),
		Skipped:  res.Skipped,
		LoadedAt: clock.Now().UTC(),
	}
}

// EmptyDataset is the fallback served when no load has succeeded.
func EmptyDataset(loadErr error) *Dataset {
	ds := &Dataset{
		History:  BuildIntensityHistory(nil),
		Mix:      AggregateMix(nil),
		LoadedAt: clock.Now().UTC(),
	}
	if loadErr != nil {
		ds.LoadError = loadErr.Error()
	}
	return ds
}

// CurrentIntensity returns the grid intensity to use for a country and where
// it came from: the latest observation, the per-country baseline, or the
// global default.
func (ds *Dataset) CurrentIntensity(code string, d EmissionDefaults) (float64, string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if ds != nil {
		if p, ok := ds.History.Latest(code); ok {
			return p.Value, IntensityObserved
		}
	}
	if v, ok := d.BaselineIntensity[code]; ok {
		return v, IntensityBaseline
	}
	return d.GlobalIntensity, IntensityDefault
}

// CountryMix returns the generation shares and emission rates for a country.
func (ds *Dataset) CountryMix(code string) (CountryMix, CountryMixIntensity, bool) {
	if ds == nil {
		return nil, nil, false
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	mix, ok := ds.Mix.Mix[code]
	if !ok {
		return nil, nil, false
	}
	return mix, ds.Mix.Intensity[code], true
}

// Breakdown returns the folded display breakdown for a country.
func (ds *Dataset) Breakdown(code string) []MixSlice {
	mix, rates, ok := ds.CountryMix(code)
	if !ok {
		return nil
	}
	return Breakdown(mix, rates)
}

// ResolveCountry maps a code or name to a country. Exact matches in the
// dataset win, then codes present in the baseline table (which resolve to
// themselves), then fuzzy name matches.
func (ds *Dataset) ResolveCountry(query string, d EmissionDefaults) (Country, error) {
	if ds != nil {
		if c, ok := ds.History.ExactCountry(query); ok {
			return c, nil
		}
	}
	code := strings.ToUpper(strings.TrimSpace(query))
	if _, ok := d.BaselineIntensity[code]; ok {
		return Country{Code: code, Name: code}, nil
	}
	if ds != nil {
		if c, ok := ds.History.FuzzyCountry(query); ok {
			return c, nil
		}
	}
	return Country{}, fmt.Errorf("%w: %q", ErrUnknownCountry, query)
}

// LoadSummary describes one successful dataset load. It is the payload of the
// dataset_loaded notification.
type LoadSummary struct {
	Source     string        `json:"source"`
	Rows       int           `json:"rows"`
	Skipped    int           `json:"skipped"`
	Countries  int           `json:"countries"`
	MixCovered int           `json:"mix_countries"`
	LoadedAt   time.Time     `json:"loaded_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// Summary reports the counters of a dataset loaded from source.
func (ds *Dataset) Summary(source string, took time.Duration) LoadSummary {
	return LoadSummary{
		Source:     source,
		Rows:       ds.Rows,
		Skipped:    ds.Skipped,
		Countries:  len(ds.History.Countries),
		MixCovered: len(ds.Mix.Mix),
		LoadedAt:   ds.LoadedAt,
		Duration:   took,
	}
}
