package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/report"
	"github.com/couchcryptid/heat-emissions/internal/session"
)

const testDataset = `Area,ISO 3 code,Date,Area type,Category,Subcategory,Variable,Unit,Value
Sweden,SWE,2024-01-01,Country,Power sector emissions,CO2 intensity,CO2 intensity,gCO2/kWh,41
Sweden,SWE,2024-02-01,Country,Power sector emissions,CO2 intensity,CO2 intensity,gCO2/kWh,38
Sweden,SWE,2024-02-01,Country,Electricity generation,Fuel,Hydro,TWh,6
Sweden,SWE,2024-02-01,Country,Electricity generation,Fuel,Nuclear,TWh,4
Sweden,SWE,2024-02-01,Country,Power sector emissions,Fuel,Hydro,mtCO2,0.06
Poland,POL,2024-02-01,Country,Power sector emissions,CO2 intensity,CO2 intensity,gCO2/kWh,bad
`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ember.csv")
	require.NoError(t, os.WriteFile(path, []byte(testDataset), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCountries_JSON(t *testing.T) {
	out, err := execute(t, "countries", "--file", writeDataset(t), "-o", "json")
	require.NoError(t, err)

	var rows []report.CountryRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "SWE", rows[0].Code)
	assert.Equal(t, "Sweden", rows[0].Name)
	require.NotNil(t, rows[0].Latest)
	assert.Equal(t, 38.0, *rows[0].Latest)
	assert.Equal(t, "2024-02-01", rows[0].Date)
}

func TestCountries_Table(t *testing.T) {
	out, err := execute(t, "countries", "--file", writeDataset(t))
	require.NoError(t, err)
	assert.Contains(t, out, "CODE")
	assert.Contains(t, out, "Sweden")
	assert.Contains(t, out, "38.0 g/kWh")
}

func TestMix(t *testing.T) {
	out, err := execute(t, "mix", "sweden", "--file", writeDataset(t), "-o", "json")
	require.NoError(t, err)

	var m report.MixReport
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "SWE", m.Country.Code)
	require.Len(t, m.Breakdown, 2)
	assert.Equal(t, domain.MixHydro, m.Breakdown[0].Category)
	assert.InDelta(t, 60.0, m.Breakdown[0].Share, 1e-9)
	assert.InDelta(t, 10.0, m.Breakdown[0].Rate, 1e-9)
	assert.False(t, m.Breakdown[1].HasRate)
}

func TestMix_UnknownCountry(t *testing.T) {
	_, err := execute(t, "mix", "Atlantis", "--file", writeDataset(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownCountry)
}

func TestMix_NoGenerationData(t *testing.T) {
	// POL resolves through the baseline table but has no mix rows.
	_, err := execute(t, "mix", "POL", "--file", writeDataset(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generation mix data")
}

func TestCompare_WithTemperature(t *testing.T) {
	out, err := execute(t, "compare", "SWE", "--file", writeDataset(t),
		"--source", "ashp", "--temp", "7", "--horizons", "1,10", "-o", "json")
	require.NoError(t, err)

	var res session.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "SWE", res.Country.Code)
	assert.Equal(t, domain.HeatSourceASHP, res.Source)
	assert.Equal(t, 38.0, res.GridIntensity)
	assert.Equal(t, domain.IntensityObserved, res.IntensitySource)
	require.NotNil(t, res.AmbientC)
	assert.Equal(t, 7.0, *res.AmbientC)
	assert.InDelta(t, domain.Defaults().ASHPCOP(7), res.COP, 1e-9)

	require.Len(t, res.Comparisons, 2)
	assert.Equal(t, 1, res.Comparisons[0].Horizon)
	assert.Equal(t, 10, res.Comparisons[1].Horizon)
}

func TestCompare_GasIgnoresGrid(t *testing.T) {
	out, err := execute(t, "compare", "SWE", "--file", writeDataset(t),
		"--source", "gas", "--demand", "1", "-o", "json")
	require.NoError(t, err)

	var res session.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	d := domain.Defaults()
	rate := d.GasEmissionFactor / d.GasBoilerEff
	require.Len(t, res.Comparisons, len(d.Horizons))
	for _, c := range res.Comparisons {
		assert.InDelta(t, rate*1000*float64(c.Horizon), c.ComparatorTotal, 1e-6, "horizon %d", c.Horizon)
	}
	assert.Nil(t, res.AmbientC)
}

func TestCompare_LooksUpTemperature(t *testing.T) {
	var geocodes, forecasts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		geocodes.Add(1)
		assert.Equal(t, "Sweden", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`{"results":[{"name":"Sweden","latitude":62,"longitude":15,"country":"Sweden"}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, _ *http.Request) {
		forecasts.Add(1)
		_, _ = w.Write([]byte(`{"current":{"time":"2025-01-01T12:00","temperature_2m":-4.5}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := execute(t, "compare", "SWE", "--file", writeDataset(t), "-o", "json",
		"--geocoding-url", srv.URL+"/search", "--forecast-url", srv.URL+"/forecast")
	require.NoError(t, err)

	var res session.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.AmbientC)
	assert.Equal(t, -4.5, *res.AmbientC)
	assert.Equal(t, int32(1), geocodes.Load())
	assert.Equal(t, int32(1), forecasts.Load())
}

func TestCompare_LookupFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := execute(t, "compare", "SWE", "--file", writeDataset(t), "-o", "json",
		"--geocoding-url", srv.URL, "--forecast-url", srv.URL)
	require.NoError(t, err)

	var res session.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Nil(t, res.AmbientC)
	d := domain.Defaults()
	assert.InDelta(t, d.ASHPCOP(d.FallbackAmbientC), res.COP, 1e-9)
}

func TestCompare_UnknownCountryUsesDefault(t *testing.T) {
	out, err := execute(t, "compare", "Atlantis", "--file", writeDataset(t),
		"--lookup=false", "-o", "json")
	require.NoError(t, err)

	var res session.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.IntensityDefault, res.IntensitySource)
	assert.Equal(t, domain.Defaults().GlobalIntensity, res.GridIntensity)
}

func TestCompare_LoadFailureUsesBaseline(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	out, err := execute(t, "compare", "SWE", "--file", missing, "--source", "resistive", "-o", "json")
	require.NoError(t, err)

	var res session.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res.LoadError, "open dataset")
	assert.Equal(t, domain.IntensityBaseline, res.IntensitySource)
	assert.Equal(t, 45.0, res.GridIntensity)

	out, err = execute(t, "compare", "SWE", "--file", missing, "--source", "resistive")
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset unavailable")
}

func TestCompare_InvalidFlags(t *testing.T) {
	path := writeDataset(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown source", []string{"--source", "peat"}},
		{"negative demand", []string{"--demand", "-1"}},
		{"bad temperature", []string{"--temp", "warm"}},
		{"zero horizon", []string{"--horizons", "0"}},
		{"horizon too long", []string{"--horizons", "1,1001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compare", "SWE", "--file", path}, tt.args...)
			_, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestCompare_Table(t *testing.T) {
	out, err := execute(t, "compare", "SWE", "--file", writeDataset(t), "--temp", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Wood stove vs Air-source heat pump in Sweden (SWE)")
	assert.Contains(t, out, "HORIZON")
	assert.Contains(t, out, "1,000 years")
}

func TestValidate(t *testing.T) {
	path := writeDataset(t)

	out, err := execute(t, "validate", "--file", path, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 5")
	assert.Contains(t, out, "skipped: 1")
	assert.Contains(t, out, "countries: 1")

	_, err = execute(t, "validate", "--file", path, "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 rows skipped")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "--file", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open dataset")
}

func TestSources(t *testing.T) {
	out, err := execute(t, "sources", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: ashp")
	assert.Contains(t, out, "label: Oil boiler")
}

func TestRoot_InvalidOutput(t *testing.T) {
	_, err := execute(t, "sources", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
