// Command genmock writes a synthetic Ember long-format CSV for local runs and
// tests. The output is deterministic: each country's generation mix is
// derived from its baseline grid intensity, with a small seasonal swing.
// After writing, the file is parsed with the domain package and a summary is
// printed so test assertions can be updated.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/ember_monthly_long.csv \
//	  -start 2024-01 -months 12 \
//	  -countries SWE,POL,DEU,FRA
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/heat-emissions/internal/domain"
)

var header = []string{"Area", "ISO 3 code", "Date", "Area type", "Continent", "Category", "Subcategory", "Variable", "Unit", "Value"}

// fuelProfile is a generation category with its share of the fossil or
// clean part of the mix and its emission factor in mtCO2 per TWh.
type fuelProfile struct {
	name   string
	fossil bool
	weight float64
	factor float64
}

var fuels = []fuelProfile{
	{name: "Coal", fossil: true, weight: 0.55, factor: 0.82},
	{name: "Gas", fossil: true, weight: 0.40, factor: 0.49},
	{name: "Other Fossil", fossil: true, weight: 0.05, factor: 0.70},
	{name: "Nuclear", weight: 0.30, factor: 0},
	{name: "Hydro", weight: 0.32, factor: 0},
	{name: "Wind", weight: 0.20, factor: 0},
	{name: "Solar", weight: 0.10, factor: 0},
	{name: "Bioenergy", weight: 0.07, factor: 0.23},
	{name: "Other Renewables", weight: 0.01, factor: 0},
}

// fossilIntensity is the intensity in gCO2/kWh of an all-fossil mix.
const fossilIntensity = 900.0

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the synthetic CSV")
	start := flag.String("start", "2024-01", "first month (YYYY-MM)")
	months := flag.Int("months", 12, "number of months to generate")
	countryList := flag.String("countries", "", "comma-separated ISO-3 codes (default: every baseline country)")
	totalTWh := flag.Float64("twh", 10, "monthly generation per country in TWh")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *months <= 0 {
		return fmt.Errorf("months must be positive, got %d", *months)
	}
	first, err := time.Parse("2006-01", *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	d := domain.Defaults()
	codes, err := selectCountries(*countryList, d)
	if err != nil {
		return err
	}

	records := generate(codes, d, first, *months, *totalTWh)
	if err := writeCSV(*out, records); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d rows for %d countries: %s", len(records)-1, len(codes), *out)

	return printStats(*out)
}

func selectCountries(list string, d domain.EmissionDefaults) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		codes := make([]string, 0, len(d.BaselineIntensity))
		for code := range d.BaselineIntensity {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		return codes, nil
	}
	var codes []string
	for _, part := range strings.Split(list, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if _, ok := d.BaselineIntensity[code]; !ok {
			return nil, fmt.Errorf("no baseline intensity for %q", code)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func generate(codes []string, d domain.EmissionDefaults, first time.Time, months int, total float64) [][]string {
	records := [][]string{header}
	for _, code := range codes {
		fossil := math.Min(d.BaselineIntensity[code]/fossilIntensity, 1)
		for m := range months {
			date := first.AddDate(0, m, 0)
			// Winter months burn a little more fossil fuel.
			season := 1 + 0.08*math.Cos(2*math.Pi*float64(date.Month()-1)/12)
			f := math.Min(fossil*season, 1)
			records = append(records, monthRecords(code, date.Format(time.DateOnly), f, total)...)
		}
	}
	return records
}

func monthRecords(code, date string, fossil, total float64) [][]string {
	row := func(category, subcategory, variable, unit string, v float64) []string {
		return []string{code, code, date, "Country", "Synthetic", category, subcategory, variable, unit, strconv.FormatFloat(v, 'f', 4, 64)}
	}

	var out [][]string
	var emitted float64
	for _, fp := range fuels {
		share := (1 - fossil) * fp.weight
		if fp.fossil {
			share = fossil * fp.weight
		}
		gen := total * share
		out = append(out, row("Electricity generation", "Fuel", fp.name, "TWh", gen))
		if fp.factor > 0 && gen > 0 {
			em := gen * fp.factor
			emitted += em
			out = append(out, row("Power sector emissions", "Fuel", fp.name, "mtCO2", em))
		}
	}
	out = append(out, row("Power sector emissions", "CO2 intensity", "CO2 intensity", "gCO2/kWh", emitted/total*1000))
	return out
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func printStats(path string) error {
	// Fixed clock for a reproducible LoadedAt.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := domain.ParseDataset(f)
	if err != nil {
		return fmt.Errorf("parse generated file: %w", err)
	}
	ds := domain.BuildDataset(res)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d (skipped %d)\n", ds.Rows, ds.Skipped)
	fmt.Printf("Countries: %d, with mix: %d\n", len(ds.History.Countries), len(ds.Mix.Mix))
	for _, c := range ds.History.Countries {
		p, _ := ds.History.Latest(c.Code)
		fmt.Printf("  %s latest=%.1f g/kWh on %s, slices=%d\n", c.Code, p.Value, p.Date, len(ds.Breakdown(c.Code)))
	}
	return nil
}
