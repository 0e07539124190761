package domain

import (
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MaxHistoryPoints is the number of most recent intensity points kept per country.
const MaxHistoryPoints = 12

// IntensityPoint is one grid carbon-intensity observation in gCO2/kWh.
type IntensityPoint struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
}

// Country is a selectable country.
type Country struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// IntensityHistory holds the per-country intensity series built from a dataset.
type IntensityHistory struct {
	Series    map[string][]IntensityPoint
	Names     map[string]string
	Countries []Country // sorted by display name
}

// BuildIntensityHistory filters carbon-intensity rows, groups them by country,
// sorts each series by date and keeps the most recent MaxHistoryPoints.
func BuildIntensityHistory(rows []Row) IntensityHistory {
	h := IntensityHistory{
		Series: make(map[string][]IntensityPoint),
		Names:  make(map[string]string),
	}

	for _, r := range rows {
		if !isIntensityRow(r) {
			continue
		}
		code := r.Code()
		if code == "" {
			continue
		}
		v, ok := r.Number()
		if !ok {
			continue
		}
		day := r.Day()
		if day == "" {
			continue
		}
		name := strings.TrimSpace(r.Area)
		if name == "" {
			name = code
		}
		h.Names[code] = name
		h.Series[code] = append(h.Series[code], IntensityPoint{Date: day, Value: v})
	}

	for code, series := range h.Series {
		sort.SliceStable(series, func(i, j int) bool { return series[i].Date < series[j].Date })
		if len(series) > MaxHistoryPoints {
			series = slices.Clone(series[len(series)-MaxHistoryPoints:])
		}
		h.Series[code] = series
		h.Countries = append(h.Countries, Country{Code: code, Name: h.Names[code]})
	}

	col := collate.New(language.English, collate.IgnoreCase)
	slices.SortFunc(h.Countries, func(a, b Country) int {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	})
	return h
}

// Latest returns the most recent intensity value for a country.
func (h IntensityHistory) Latest(code string) (IntensityPoint, bool) {
	series := h.Series[strings.ToUpper(strings.TrimSpace(code))]
	if len(series) == 0 {
		return IntensityPoint{}, false
	}
	return series[len(series)-1], true
}

// Name returns the display name for a country code, falling back to the code.
func (h IntensityHistory) Name(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if n, ok := h.Names[code]; ok {
		return n
	}
	return code
}

// FindCountry resolves a code or a (possibly misspelled) display name to a
// selectable country. Exact code and name matches take precedence; queries
// shaped like an ISO-3 code are never fuzzy-matched.
func (h IntensityHistory) FindCountry(query string) (Country, bool) {
	if c, ok := h.ExactCountry(query); ok {
		return c, true
	}
	return h.FuzzyCountry(query)
}

// ExactCountry matches a code or display name, ignoring case.
func (h IntensityHistory) ExactCountry(query string) (Country, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Country{}, false
	}
	upper := strings.ToUpper(q)
	for _, c := range h.Countries {
		if c.Code == upper || strings.EqualFold(c.Name, q) {
			return c, true
		}
	}
	return Country{}, false
}

// FuzzyCountry ranks display names against a misspelled name. Code-shaped
// queries return false.
func (h IntensityHistory) FuzzyCountry(query string) (Country, bool) {
	q := strings.TrimSpace(query)
	if q == "" || looksLikeCode(q) {
		return Country{}, false
	}
	names := make([]string, 0, len(h.Countries))
	for _, c := range h.Countries {
		names = append(names, c.Name)
	}
	ranks := fuzzy.RankFindNormalizedFold(q, names)
	if len(ranks) == 0 {
		return Country{}, false
	}
	sort.Sort(ranks)
	return h.Countries[ranks[0].OriginalIndex], true
}

// looksLikeCode reports whether s is three ASCII letters.
func looksLikeCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func isIntensityRow(r Row) bool {
	if !strings.Contains(strings.ToLower(r.Variable), "intensity") {
		return false
	}
	unit := strings.ToLower(strings.Join(strings.Fields(r.Unit), ""))
	return slices.Contains(AcceptedIntensityUnits, unit)
}
