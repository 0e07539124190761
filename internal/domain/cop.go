package domain

import (
	"math"
	"strconv"
	"strings"
)

// COPInput carries the context needed to resolve a coefficient of performance.
type COPInput struct {
	// AmbientC is the outdoor temperature in °C; nil when unavailable.
	AmbientC *float64
	// Override is a user-entered COP for heat pumps. Unparseable input is ignored.
	Override string
	// District is the user-entered COP for district heating.
	District string
}

// ParsePositive parses a user-entered number, returning false for empty,
// non-numeric, non-finite or non-positive input.
func ParsePositive(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// ASHPCOP evaluates the air-source heat pump formula at temperature t.
func (d EmissionDefaults) ASHPCOP(t float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		t = d.FallbackAmbientC
	}
	cop := d.ASHPBase + d.ASHPSlope*t
	return math.Min(math.Max(cop, d.ASHPMin), d.ASHPMax)
}

// ResolveCOP returns the effective efficiency ratio for a heat source.
// Combustion sources return their boiler efficiency.
func ResolveCOP(src HeatSource, in COPInput, d EmissionDefaults) float64 {
	switch src {
	case HeatSourceASHP:
		if v, ok := ParsePositive(in.Override); ok {
			return v
		}
		t := d.FallbackAmbientC
		if in.AmbientC != nil {
			t = *in.AmbientC
		}
		return d.ASHPCOP(t)
	case HeatSourceGSHP:
		if v, ok := ParsePositive(in.Override); ok {
			return v
		}
		return d.GSHPCOP
	case HeatSourceDistrict:
		if v, ok := ParsePositive(in.District); ok {
			return v
		}
		return d.DistrictCOP
	case HeatSourceResistive:
		return 1
	case HeatSourceGas:
		return d.GasBoilerEff
	case HeatSourceOil:
		return d.OilBoilerEff
	default:
		return 1
	}
}
