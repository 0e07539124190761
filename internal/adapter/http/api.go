package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/observability"
	"github.com/couchcryptid/heat-emissions/internal/report"
	"github.com/couchcryptid/heat-emissions/internal/session"
)

// DatasetProvider returns the current dataset snapshot.
type DatasetProvider interface {
	Current() *domain.Dataset
}

// API serves the country, mix and comparison endpoints.
type API struct {
	data          DatasetProvider
	locator       *session.Locator
	defaults      domain.EmissionDefaults
	lookupTimeout time.Duration
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewAPI creates the API handlers. locator may be nil to disable ambient
// temperature lookups.
func NewAPI(data DatasetProvider, locator *session.Locator, lookupTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *API {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}
	return &API{
		data:          data,
		locator:       locator,
		defaults:      domain.Defaults(),
		lookupTimeout: lookupTimeout,
		metrics:       metrics,
		logger:        logger,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/heat-sources", a.handleHeatSources)
	mux.HandleFunc("GET /api/countries", a.handleCountries)
	mux.HandleFunc("GET /api/countries/{code}/mix", a.handleMix)
	mux.HandleFunc("GET /api/compare", a.handleCompare)
}

func (a *API) handleHeatSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.HeatSources())
}

type countriesResponse struct {
	Countries []report.CountryRow `json:"countries"`
	LoadedAt  time.Time           `json:"loaded_at"`
	LoadError string              `json:"load_error,omitempty"`
}

func (a *API) handleCountries(w http.ResponseWriter, _ *http.Request) {
	ds := a.data.Current()
	writeJSON(w, http.StatusOK, countriesResponse{
		Countries: report.CountryRows(ds),
		LoadedAt:  ds.LoadedAt,
		LoadError: ds.LoadError,
	})
}

func (a *API) handleMix(w http.ResponseWriter, r *http.Request) {
	ds := a.data.Current()
	country, err := ds.ResolveCountry(r.PathValue("code"), a.defaults)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	mix, rates, ok := ds.CountryMix(country.Code)
	if !ok {
		writeError(w, http.StatusNotFound, "no generation mix for "+country.Code)
		return
	}
	writeJSON(w, http.StatusOK, report.MixReport{
		Country:   country,
		Shares:    mix,
		Rates:     rates,
		Breakdown: ds.Breakdown(country.Code),
	})
}

func (a *API) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	countryQuery := strings.TrimSpace(q.Get("country"))
	if countryQuery == "" {
		writeError(w, http.StatusBadRequest, "country is required")
		return
	}

	sel := session.DefaultSelection(countryQuery, a.defaults)
	if s := q.Get("source"); s != "" {
		src, err := domain.ParseHeatSource(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sel.Source = src
	}
	if v, ok := parseNonNegative(q.Get("demand")); ok {
		sel.AnnualDemandMWh = v
	}
	if v, ok := domain.ParsePositive(q.Get("scale")); ok {
		sel.BiogenicScale = v
	}
	sel.COPOverride = q.Get("cop")
	sel.DistrictCOP = q.Get("district_cop")
	horizons, err := parseHorizons(q.Get("horizons"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sel.Horizons = horizons

	ds := a.data.Current()
	amb := a.ambient(r.Context(), ds, sel, q.Get("temp"))

	res := session.Evaluate(ds, sel, amb, a.defaults)
	if a.metrics != nil {
		a.metrics.ComparisonsServed.WithLabelValues(string(sel.Source)).Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

// ambient resolves the outdoor temperature from the request or, for
// air-source heat pumps without an override, through the locator.
func (a *API) ambient(ctx context.Context, ds *domain.Dataset, sel session.Selection, temp string) session.Ambient {
	if t, err := strconv.ParseFloat(strings.TrimSpace(temp), 64); err == nil && !isNonFinite(t) {
		return session.Ambient{TemperatureC: &t}
	}
	if a.locator == nil || sel.Source != domain.HeatSourceASHP {
		return session.Ambient{}
	}
	if _, ok := domain.ParsePositive(sel.COPOverride); ok {
		return session.Ambient{}
	}
	country, err := ds.ResolveCountry(sel.Country, a.defaults)
	if err != nil {
		if !errors.Is(err, domain.ErrUnknownCountry) {
			a.logger.Warn("resolve country failed", "country", sel.Country, "error", err)
		}
		return session.Ambient{}
	}

	ctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()
	return a.locator.Resolve(ctx, country.Code, country.Name)
}

func parseNonNegative(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || isNonFinite(v) || v < 0 {
		return 0, false
	}
	return v, true
}

// parseHorizons reads a comma-separated horizon list. Non-numeric and
// non-positive entries are ignored; entries above domain.MaxHorizon are an error.
func parseHorizons(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if errors.Is(err, strconv.ErrRange) || (err == nil && n > domain.MaxHorizon) {
			return nil, fmt.Errorf("horizon %s exceeds the maximum of %d years", part, domain.MaxHorizon)
		}
		if err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out, nil
}

func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
