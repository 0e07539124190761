package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/session"
)

const tabPadding = 2

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// CountryRow is one entry of the country listing.
type CountryRow struct {
	Code   string   `json:"code" yaml:"code"`
	Name   string   `json:"name" yaml:"name"`
	Latest *float64 `json:"latest_intensity,omitempty" yaml:"latest_intensity,omitempty"`
	Date   string   `json:"latest_date,omitempty" yaml:"latest_date,omitempty"`
}

// CountryRows lists the selectable countries of a dataset with their latest
// intensity observation.
func CountryRows(ds *domain.Dataset) []CountryRow {
	rows := make([]CountryRow, 0, len(ds.History.Countries))
	for _, c := range ds.History.Countries {
		row := CountryRow{Code: c.Code, Name: c.Name}
		if p, ok := ds.History.Latest(c.Code); ok {
			v := p.Value
			row.Latest = &v
			row.Date = p.Date
		}
		rows = append(rows, row)
	}
	return rows
}

// MixReport is the generation mix of one country.
type MixReport struct {
	Country   domain.Country             `json:"country" yaml:"country"`
	Shares    domain.CountryMix          `json:"shares" yaml:"shares"`
	Rates     domain.CountryMixIntensity `json:"rates" yaml:"rates"`
	Breakdown []domain.MixSlice          `json:"breakdown" yaml:"breakdown"`
}

// ValidationReport summarizes a dataset parse.
type ValidationReport struct {
	Source        string `json:"source" yaml:"source"`
	Rows          int    `json:"rows" yaml:"rows"`
	Skipped       int    `json:"skipped" yaml:"skipped"`
	Countries     int    `json:"countries" yaml:"countries"`
	MixCountries  int    `json:"mix_countries" yaml:"mix_countries"`
	LatestDate    string `json:"latest_date,omitempty" yaml:"latest_date,omitempty"`
	OldestCountry string `json:"stalest_country,omitempty" yaml:"stalest_country,omitempty"`
}

// NewValidationReport builds a ValidationReport for a dataset.
func NewValidationReport(source string, ds *domain.Dataset) ValidationReport {
	r := ValidationReport{
		Source:       source,
		Rows:         ds.Rows,
		Skipped:      ds.Skipped,
		Countries:    len(ds.History.Countries),
		MixCountries: len(ds.Mix.Mix),
	}
	oldest := ""
	for _, c := range ds.History.Countries {
		p, ok := ds.History.Latest(c.Code)
		if !ok {
			continue
		}
		if p.Date > r.LatestDate {
			r.LatestDate = p.Date
		}
		if oldest == "" || p.Date < oldest {
			oldest = p.Date
			r.OldestCountry = c.Code
		}
	}
	return r
}

// Render writes v in the machine formats. Table output is handled by the
// type-specific renderers.
func Render(w io.Writer, v any, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not a machine format", f)
	}
}

// RenderCountries writes the country listing.
func RenderCountries(w io.Writer, rows []CountryRow, f Format) error {
	if f != FormatTable {
		return Render(w, rows, f)
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tLATEST\tDATE")
	for _, r := range rows {
		latest := Unavailable
		if r.Latest != nil {
			latest = FormatRate(*r.Latest)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Code, r.Name, latest, orUnavailable(r.Date))
	}
	return tw.Flush()
}

// RenderHeatSources writes the heat-source catalog.
func RenderHeatSources(w io.Writer, sources []domain.HeatSourceInfo, f Format) error {
	if f != FormatTable {
		return Render(w, sources, f)
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL")
	for _, s := range sources {
		fmt.Fprintf(tw, "%s\t%s\n", s.ID, s.Label)
	}
	return tw.Flush()
}

// RenderMix writes a country's generation mix.
func RenderMix(w io.Writer, m MixReport, f Format) error {
	if f != FormatTable {
		return Render(w, m, f)
	}
	title(w, fmt.Sprintf("Generation mix: %s (%s)", m.Country.Name, m.Country.Code))
	if len(m.Breakdown) == 0 {
		_, err := fmt.Fprintln(w, "No generation data.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSHARE\tRATE")
	for _, s := range m.Breakdown {
		rate := Unavailable
		if s.HasRate {
			rate = FormatRate(s.Rate)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Category, FormatPercent(s.Share), rate)
	}
	return tw.Flush()
}

// RenderComparison writes a comparison result.
func RenderComparison(w io.Writer, res session.Result, f Format) error {
	if f != FormatTable {
		return Render(w, res, f)
	}

	title(w, fmt.Sprintf("Wood stove vs %s in %s", res.SourceLabel, countryLabel(res.Country)))
	if res.LoadError != "" {
		fmt.Fprintf(w, "Dataset unavailable (%s); using fallback intensities.\n", res.LoadError)
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(tw, "Grid intensity:\t%s (%s)\n", FormatRate(res.GridIntensity), res.IntensitySource)
	if res.Source.IsElectric() {
		fmt.Fprintf(tw, "COP:\t%s\n", FormatFloat(res.COP, 2))
	} else {
		fmt.Fprintf(tw, "Boiler efficiency:\t%s\n", FormatPercent(res.COP*100))
	}
	fmt.Fprintf(tw, "Ambient temperature:\t%s\n", FormatTemperature(res.AmbientC))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "HORIZON\tWOOD\tCOMPARATOR\tDIFFERENCE\tDIFF %")
	for _, c := range res.Comparisons {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			horizonLabel(c.Horizon),
			FormatMass(c.WoodTotal),
			FormatMass(c.ComparatorTotal),
			FormatSigned(FormatMass(c.Difference), c.Difference),
			FormatSigned(FormatPercent(c.DifferencePct), c.DifferencePct),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	title(w, fmt.Sprintf("%d-year average per kWh of heat", domain.SnapshotHorizon))
	tw = tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(tw, "Wood stove:\t%s\n", FormatRate(res.Snapshot.WoodAvg))
	fmt.Fprintf(tw, "%s:\t%s\n", res.SourceLabel, FormatRate(res.Snapshot.ComparatorAvg))
	fmt.Fprintf(tw, "Difference:\t%s\n", FormatSigned(FormatRate(res.Snapshot.Difference), res.Snapshot.Difference))
	return tw.Flush()
}

// RenderValidation writes a dataset validation summary.
func RenderValidation(w io.Writer, r ValidationReport, f Format) error {
	if f != FormatTable {
		return Render(w, r, f)
	}
	title(w, "Dataset: "+r.Source)
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(tw, "Rows parsed:\t%s\n", printer.Sprintf("%d", r.Rows))
	fmt.Fprintf(tw, "Rows skipped:\t%s\n", printer.Sprintf("%d", r.Skipped))
	fmt.Fprintf(tw, "Countries with intensity data:\t%d\n", r.Countries)
	fmt.Fprintf(tw, "Countries with mix data:\t%d\n", r.MixCountries)
	fmt.Fprintf(tw, "Latest observation:\t%s\n", orUnavailable(r.LatestDate))
	if r.OldestCountry != "" {
		fmt.Fprintf(tw, "Stalest country:\t%s\n", r.OldestCountry)
	}
	return tw.Flush()
}

func title(w io.Writer, s string) {
	if isWriterTerminal(w) {
		s = titleStyle.Render(s)
	}
	fmt.Fprintln(w, s)
}

// isWriterTerminal reports whether w is an *os.File attached to a terminal.
func isWriterTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func countryLabel(c domain.Country) string {
	if c.Name == "" || c.Name == c.Code {
		return c.Code
	}
	return c.Name + " (" + c.Code + ")"
}

func horizonLabel(years int) string {
	if years == 1 {
		return "1 year"
	}
	return printer.Sprintf("%d", years) + " years"
}

func orUnavailable(s string) string {
	if s == "" {
		return Unavailable
	}
	return s
}
