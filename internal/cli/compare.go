package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/heat-emissions/internal/adapter/openmeteo"
	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/report"
	"github.com/couchcryptid/heat-emissions/internal/session"
)

type compareOptions struct {
	source       string
	demand       float64
	scale        float64
	cop          string
	districtCOP  string
	temp         string
	horizons     []int
	lookup       bool
	lookupTime   time.Duration
	geocodingURL string
	forecastURL  string
}

func newCompareCmd(opts *globalOptions) *cobra.Command {
	d := domain.Defaults()
	co := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare <country>",
		Short: "Compare wood stove emissions with another heat source",
		Long: `Compare the cumulative emissions of a wood stove with another heat source
over several time horizons, using the country's latest grid carbon intensity.

For air-source heat pumps the outdoor temperature sets the COP. It is looked
up from Open-Meteo unless --temp, --cop or --lookup=false is given.`,
		Example: `  heatcli compare SWE
  heatcli compare Germany --source gas --demand 15
  heatcli compare FRA --source ashp --temp -5 --horizons 1,30,100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := co.selection(args[0], d)
			if err != nil {
				return err
			}
			temp, hasTemp, err := co.temperature()
			if err != nil {
				return err
			}
			ds, err := opts.loadDataset(cmd.Context())
			if err != nil {
				opts.logger.Warn("dataset unavailable, using baseline intensities", "source", opts.sourceName(), "error", err)
				ds = domain.EmptyDataset(err)
			}

			country, err := ds.ResolveCountry(args[0], d)
			if err != nil {
				if !errors.Is(err, domain.ErrUnknownCountry) {
					return err
				}
				opts.logger.Warn("country not in dataset, using global default intensity", "country", args[0])
			} else {
				sel.Country = country.Code
			}

			var res session.Result
			if hasTemp {
				res = session.Evaluate(ds, sel, session.Ambient{TemperatureC: &temp}, d)
			} else {
				res = co.evaluate(cmd, opts, ds, sel, d)
			}
			return report.RenderComparison(cmd.OutOrStdout(), res, opts.format)
		},
	}

	f := cmd.Flags()
	f.StringVar(&co.source, "source", string(domain.HeatSourceASHP), "heat source: ashp, gshp, district, resistive, gas or oil")
	f.Float64Var(&co.demand, "demand", domain.DefaultAnnualDemandMWh, "annual heat demand in MWh")
	f.Float64Var(&co.scale, "scale", d.BiogenicScaleDefault, "biogenic CO2 scale in percent")
	f.StringVar(&co.cop, "cop", "", "heat pump COP override")
	f.StringVar(&co.districtCOP, "district-cop", "", "district heating COP")
	f.StringVar(&co.temp, "temp", "", "outdoor temperature in °C (skips the weather lookup)")
	f.IntSliceVar(&co.horizons, "horizons", nil, "comma-separated horizons in years (default 1,10,30,100,1000)")
	f.BoolVar(&co.lookup, "lookup", true, "look up the current outdoor temperature for air-source heat pumps")
	f.DurationVar(&co.lookupTime, "lookup-timeout", 5*time.Second, "timeout for location and weather lookups")
	f.StringVar(&co.geocodingURL, "geocoding-url", openmeteo.DefaultGeocodingURL, "geocoding API endpoint")
	f.StringVar(&co.forecastURL, "forecast-url", openmeteo.DefaultForecastURL, "forecast API endpoint")
	return cmd
}

// selection validates the flags and builds the comparison input.
func (co *compareOptions) selection(country string, d domain.EmissionDefaults) (session.Selection, error) {
	sel := session.DefaultSelection(country, d)

	src, err := domain.ParseHeatSource(co.source)
	if err != nil {
		return sel, err
	}
	sel.Source = src

	if math.IsNaN(co.demand) || math.IsInf(co.demand, 0) || co.demand < 0 {
		return sel, fmt.Errorf("demand must be a non-negative number, got %v", co.demand)
	}
	sel.AnnualDemandMWh = co.demand
	sel.BiogenicScale = d.ClampScale(co.scale)
	sel.COPOverride = co.cop
	sel.DistrictCOP = co.districtCOP

	for _, h := range co.horizons {
		if !domain.ValidHorizon(h) {
			return sel, fmt.Errorf("horizons must be between 1 and %d years, got %d", domain.MaxHorizon, h)
		}
	}
	sel.Horizons = co.horizons
	return sel, nil
}

// temperature parses --temp. ok is false when the flag is unset.
func (co *compareOptions) temperature() (float64, bool, error) {
	s := strings.TrimSpace(co.temp)
	if s == "" {
		return 0, false, nil
	}
	t, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false, fmt.Errorf("invalid temperature %q", co.temp)
	}
	return t, true, nil
}

// needsLookup reports whether the ambient temperature affects the result.
func (co *compareOptions) needsLookup(sel session.Selection) bool {
	if !co.lookup || sel.Source != domain.HeatSourceASHP {
		return false
	}
	_, overridden := domain.ParsePositive(sel.COPOverride)
	return !overridden
}

// evaluate runs the comparison through a Session so the temperature lookup
// follows the same at-most-once path as the service.
func (co *compareOptions) evaluate(cmd *cobra.Command, opts *globalOptions, ds *domain.Dataset, sel session.Selection, d domain.EmissionDefaults) session.Result {
	var locator *session.Locator
	if co.needsLookup(sel) {
		client := openmeteo.NewClient(co.geocodingURL, co.forecastURL, co.lookupTime, nil, opts.logger)
		locator = session.NewLocator(client, client, opts.logger)
	}

	s := session.New(func() *domain.Dataset { return ds }, locator, d, opts.logger)
	defer s.Close()

	s.Update(func(cur *session.Selection) { *cur = sel })
	s.SelectCountry(cmd.Context(), sel.Country)
	s.Wait()
	return s.Results()
}
