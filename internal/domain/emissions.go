package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SnapshotHorizon is the fixed horizon, in years, of the per-kWh snapshot.
const SnapshotHorizon = 10

// MaxHorizon is the longest horizon, in years, a comparison accepts. It
// matches the longest entry of the GWPbio table.
const MaxHorizon = 1000

// ValidHorizon reports whether h is within 1..MaxHorizon.
func ValidHorizon(h int) bool {
	return h > 0 && h <= MaxHorizon
}

// ModelInput is the full set of inputs for one comparison. Emissions results
// are a pure function of ModelInput and EmissionDefaults.
type ModelInput struct {
	Source          HeatSource
	GridIntensity   float64 // current-year gCO2/kWh
	CurrentYear     int
	AnnualDemandMWh float64
	BiogenicScale   float64 // percent applied to GWPbio
	COP             float64 // effective COP for electric sources
}

// Comparison is the cumulative result for one horizon. Masses are in grams CO2eq.
type Comparison struct {
	Horizon         int     `json:"horizon" yaml:"horizon"`
	WoodTotal       float64 `json:"wood_total_g" yaml:"wood_total_g"`
	ComparatorTotal float64 `json:"comparator_total_g" yaml:"comparator_total_g"`
	Difference      float64 `json:"difference_g" yaml:"difference_g"`
	DifferencePct   float64 `json:"difference_pct" yaml:"difference_pct"`
	WoodRate        float64 `json:"wood_rate" yaml:"wood_rate"`
}

// Snapshot is the per-kWh-of-heat average over SnapshotHorizon years.
type Snapshot struct {
	WoodAvg       float64 `json:"wood_avg" yaml:"wood_avg"`
	ComparatorAvg float64 `json:"comparator_avg" yaml:"comparator_avg"`
	Difference    float64 `json:"difference" yaml:"difference"`
}

// GWPBioFactor returns the biogenic weighting factor for a horizon. Horizons
// missing from the table use the flat default rather than interpolating.
func (d EmissionDefaults) GWPBioFactor(horizon int) float64 {
	if v, ok := d.GWPBio[horizon]; ok {
		return v
	}
	return d.GWPBioDefault
}

// ClampScale bounds a biogenic scale percentage to the supported range.
// Non-finite input yields the default.
func (d EmissionDefaults) ClampScale(scale float64) float64 {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return d.BiogenicScaleDefault
	}
	return math.Min(math.Max(scale, d.BiogenicScaleMin), d.BiogenicScaleMax)
}

// WoodRate is the wood stove emission rate in gCO2eq per kWh of useful heat
// at the given horizon and biogenic scale (percent).
func WoodRate(horizon int, scale float64, d EmissionDefaults) float64 {
	s := d.ClampScale(scale) / 100
	biogenic := d.WoodCO2Factor * d.GWPBioFactor(horizon) * s
	return biogenic/d.StoveEfficiency + d.WoodNonCO2Factor/d.StoveEfficiency
}

// HeatRate is the emission rate in gCO2eq per kWh of useful heat for a
// non-wood source. grid is the grid intensity in gCO2/kWh and cop the
// effective COP; a non-positive or non-finite cop falls back to the source default.
func HeatRate(src HeatSource, grid, cop float64, d EmissionDefaults) float64 {
	switch src {
	case HeatSourceGas:
		return d.GasEmissionFactor / d.GasBoilerEff
	case HeatSourceOil:
		return d.OilEmissionFactor / d.OilBoilerEff
	case HeatSourceResistive:
		return grid
	}
	if math.IsNaN(cop) || math.IsInf(cop, 0) || cop <= 0 {
		cop = ResolveCOP(src, COPInput{}, d)
	}
	return grid / cop
}

// GridPath returns the grid intensity for each year of the horizon, declining
// linearly from current to the policy target by the target year and pinned at
// the target from then on. Horizons outside 1..MaxHorizon yield nil.
func GridPath(current float64, currentYear, horizon int, d EmissionDefaults) []float64 {
	if !ValidHorizon(horizon) {
		return nil
	}
	path := make([]float64, horizon)
	span := float64(d.TargetYear - currentYear)
	for i := range path {
		year := currentYear + i
		if year >= d.TargetYear {
			path[i] = d.TargetIntensity
			continue
		}
		path[i] = d.TargetIntensity + (current-d.TargetIntensity)*float64(d.TargetYear-year)/span
	}
	return path
}

// Compare computes cumulative wood and comparator emissions over a horizon.
func Compare(in ModelInput, horizon int, d EmissionDefaults) Comparison {
	in = sanitize(in, d)
	kwh := in.AnnualDemandMWh * 1000

	path := GridPath(in.GridIntensity, in.CurrentYear, horizon, d)
	yearly := make([]float64, len(path))
	for i, g := range path {
		yearly[i] = HeatRate(in.Source, g, in.COP, d) * kwh
	}

	woodRate := WoodRate(horizon, in.BiogenicScale, d)
	c := Comparison{
		Horizon:         horizon,
		WoodRate:        woodRate,
		ComparatorTotal: floats.Sum(yearly),
	}
	if ValidHorizon(horizon) {
		c.WoodTotal = woodRate * float64(horizon) * kwh
	}
	c.Difference = c.ComparatorTotal - c.WoodTotal
	if c.ComparatorTotal > 0 {
		c.DifferencePct = c.Difference / c.ComparatorTotal * 100
	}
	return c
}

// CompareHorizons runs Compare for every configured horizon.
func CompareHorizons(in ModelInput, d EmissionDefaults) []Comparison {
	out := make([]Comparison, 0, len(d.Horizons))
	for _, h := range d.Horizons {
		out = append(out, Compare(in, h, d))
	}
	return out
}

// TenYearSnapshot averages both sides over SnapshotHorizon years per kWh of
// heat delivered.
func TenYearSnapshot(in ModelInput, d EmissionDefaults) Snapshot {
	in = sanitize(in, d)
	c := Compare(in, SnapshotHorizon, d)

	delivered := in.AnnualDemandMWh * 1000 * SnapshotHorizon
	var s Snapshot
	if delivered > 0 {
		s.WoodAvg = c.WoodTotal / delivered
		s.ComparatorAvg = c.ComparatorTotal / delivered
	} else {
		// Zero demand: report the per-kWh rates directly.
		s.WoodAvg = c.WoodRate
		path := GridPath(in.GridIntensity, in.CurrentYear, SnapshotHorizon, d)
		rates := make([]float64, len(path))
		for i, g := range path {
			rates[i] = HeatRate(in.Source, g, in.COP, d)
		}
		s.ComparatorAvg = floats.Sum(rates) / float64(len(rates))
	}
	s.Difference = s.ComparatorAvg - s.WoodAvg
	return s
}

func sanitize(in ModelInput, d EmissionDefaults) ModelInput {
	if math.IsNaN(in.GridIntensity) || math.IsInf(in.GridIntensity, 0) || in.GridIntensity < 0 {
		in.GridIntensity = d.GlobalIntensity
	}
	if math.IsNaN(in.AnnualDemandMWh) || math.IsInf(in.AnnualDemandMWh, 0) || in.AnnualDemandMWh < 0 {
		in.AnnualDemandMWh = 0
	}
	in.BiogenicScale = d.ClampScale(in.BiogenicScale)
	return in
}
