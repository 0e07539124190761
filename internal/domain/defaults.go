package domain

// EmissionDefaults holds the fixed physical and engineering constants used by
// the emissions model. Values are per kWh of fuel or electricity unless noted.
type EmissionDefaults struct {
	// Wood stove.
	WoodCO2Factor    float64 // gCO2/kWh of fuel, biogenic
	WoodNonCO2Factor float64 // gCO2eq/kWh of fuel (CH4, N2O)
	StoveEfficiency  float64

	// Combustion boilers.
	GasEmissionFactor float64 // gCO2/kWh of fuel
	GasBoilerEff      float64
	OilEmissionFactor float64 // gCO2/kWh of fuel
	OilBoilerEff      float64

	// Air-source heat pump: COP = clamp(ASHPBase + ASHPSlope*T, ASHPMin, ASHPMax).
	ASHPBase  float64
	ASHPSlope float64
	ASHPMin   float64
	ASHPMax   float64
	// FallbackAmbientC is used for the ASHP formula when no temperature is known.
	FallbackAmbientC float64

	GSHPCOP     float64
	DistrictCOP float64

	// Grid decarbonization path.
	TargetYear      int
	TargetIntensity float64 // gCO2/kWh

	// GWPBio maps horizon (years) to the biogenic CO2 weighting factor.
	GWPBio        map[int]float64
	GWPBioDefault float64

	BiogenicScaleDefault float64 // percent
	BiogenicScaleMin     float64
	BiogenicScaleMax     float64

	// BaselineIntensity is the per-country fallback grid intensity keyed by
	// ISO-3 code; GlobalIntensity applies when a country has neither data nor
	// a baseline.
	BaselineIntensity map[string]float64
	GlobalIntensity   float64

	Horizons []int
}

// AcceptedIntensityUnits lists the unit strings (lowercase, no whitespace)
// accepted for carbon-intensity rows.
var AcceptedIntensityUnits = []string{"gco2/kwh", "gco2/kwh_e", "gco2eq/kwh"}

// DefaultAnnualDemandMWh is the annual useful heat demand used when no value
// is supplied.
const DefaultAnnualDemandMWh = 10.0

// Defaults returns a fresh copy of the built-in constants. Callers may modify
// the returned value without affecting other callers.
func Defaults() EmissionDefaults {
	return EmissionDefaults{
		WoodCO2Factor:    403,
		WoodNonCO2Factor: 30,
		StoveEfficiency:  0.75,

		GasEmissionFactor: 202,
		GasBoilerEff:      0.92,
		OilEmissionFactor: 267,
		OilBoilerEff:      0.88,

		ASHPBase:         2.8,
		ASHPSlope:        0.06,
		ASHPMin:          1.8,
		ASHPMax:          5,
		FallbackAmbientC: 0,

		GSHPCOP:     4.0,
		DistrictCOP: 3.0,

		TargetYear:      2050,
		TargetIntensity: 50,

		GWPBio: map[int]float64{
			1:    0.95,
			10:   0.9,
			30:   0.75,
			100:  0.43,
			1000: 0.05,
		},
		GWPBioDefault: 0.5,

		BiogenicScaleDefault: 100,
		BiogenicScaleMin:     25,
		BiogenicScaleMax:     150,

		BaselineIntensity: map[string]float64{
			"SWE": 45,
			"NOR": 30,
			"FIN": 80,
			"DNK": 150,
			"FRA": 55,
			"DEU": 380,
			"GBR": 230,
			"POL": 660,
			"USA": 370,
		},
		GlobalIntensity: 300,

		Horizons: []int{1, 10, 30, 100, 1000},
	}
}
