// Package session coordinates user selections, location lookups and the
// emissions model.
package session

import (
	"slices"

	"github.com/couchcryptid/heat-emissions/internal/domain"
)

// Selection is the user-adjustable input to a comparison.
type Selection struct {
	Country         string            `json:"country" yaml:"country"`
	Source          domain.HeatSource `json:"source" yaml:"source"`
	Horizons        []int             `json:"horizons,omitempty" yaml:"horizons,omitempty"`
	AnnualDemandMWh float64           `json:"annual_demand_mwh" yaml:"annual_demand_mwh"`
	BiogenicScale   float64           `json:"biogenic_scale" yaml:"biogenic_scale"`
	COPOverride     string            `json:"cop_override,omitempty" yaml:"cop_override,omitempty"`
	DistrictCOP     string            `json:"district_cop,omitempty" yaml:"district_cop,omitempty"`
}

// DefaultSelection returns the initial selection for a country.
func DefaultSelection(country string, d domain.EmissionDefaults) Selection {
	return Selection{
		Country:         country,
		Source:          domain.HeatSourceASHP,
		AnnualDemandMWh: domain.DefaultAnnualDemandMWh,
		BiogenicScale:   d.BiogenicScaleDefault,
	}
}

func (s Selection) equal(o Selection) bool {
	return s.Country == o.Country &&
		s.Source == o.Source &&
		slices.Equal(s.Horizons, o.Horizons) &&
		s.AnnualDemandMWh == o.AnnualDemandMWh &&
		s.BiogenicScale == o.BiogenicScale &&
		s.COPOverride == o.COPOverride &&
		s.DistrictCOP == o.DistrictCOP
}

// Ambient carries the enrichment values resolved for the selected country.
type Ambient struct {
	Coordinates  *domain.Coordinates
	TemperatureC *float64
}

func (a Ambient) equal(o Ambient) bool {
	return eqPtr(a.Coordinates, o.Coordinates) && eqPtr(a.TemperatureC, o.TemperatureC)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Result is the full set of derived values for one selection.
type Result struct {
	Country         domain.Country          `json:"country" yaml:"country"`
	Source          domain.HeatSource       `json:"source" yaml:"source"`
	SourceLabel     string                  `json:"source_label" yaml:"source_label"`
	GridIntensity   float64                 `json:"grid_intensity" yaml:"grid_intensity"`
	IntensitySource string                  `json:"intensity_source" yaml:"intensity_source"`
	COP             float64                 `json:"cop" yaml:"cop"`
	AmbientC        *float64                `json:"ambient_c,omitempty" yaml:"ambient_c,omitempty"`
	CurrentYear     int                     `json:"current_year" yaml:"current_year"`
	Comparisons     []domain.Comparison     `json:"comparisons" yaml:"comparisons"`
	Snapshot        domain.Snapshot         `json:"snapshot" yaml:"snapshot"`
	Breakdown       []domain.MixSlice       `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
	History         []domain.IntensityPoint `json:"history,omitempty" yaml:"history,omitempty"`
	LoadError       string                  `json:"load_error,omitempty" yaml:"load_error,omitempty"`
}

// Evaluate composes the dataset snapshot, the selection and the ambient
// values into a Result. It performs no I/O.
func Evaluate(ds *domain.Dataset, sel Selection, amb Ambient, d domain.EmissionDefaults) Result {
	if ds == nil {
		ds = domain.EmptyDataset(nil)
	}
	if hs := validHorizons(sel.Horizons); len(hs) > 0 {
		d.Horizons = hs
	}

	country, err := ds.ResolveCountry(sel.Country, d)
	if err != nil {
		country = domain.Country{Code: sel.Country, Name: sel.Country}
	}
	grid, source := ds.CurrentIntensity(country.Code, d)

	cop := domain.ResolveCOP(sel.Source, domain.COPInput{
		AmbientC: amb.TemperatureC,
		Override: sel.COPOverride,
		District: sel.DistrictCOP,
	}, d)

	in := domain.ModelInput{
		Source:          sel.Source,
		GridIntensity:   grid,
		CurrentYear:     domain.CurrentYear(),
		AnnualDemandMWh: sel.AnnualDemandMWh,
		BiogenicScale:   sel.BiogenicScale,
		COP:             cop,
	}

	return Result{
		Country:         country,
		Source:          sel.Source,
		SourceLabel:     sel.Source.Label(),
		GridIntensity:   grid,
		IntensitySource: source,
		COP:             cop,
		AmbientC:        amb.TemperatureC,
		CurrentYear:     in.CurrentYear,
		Comparisons:     domain.CompareHorizons(in, d),
		Snapshot:        domain.TenYearSnapshot(in, d),
		Breakdown:       ds.Breakdown(country.Code),
		History:         ds.History.Series[country.Code],
		LoadError:       ds.LoadError,
	}
}

func validHorizons(hs []int) []int {
	var out []int
	for _, h := range hs {
		if domain.ValidHorizon(h) {
			out = append(out, h)
		}
	}
	return out
}
