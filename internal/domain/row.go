package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrHeaderMismatch is returned when the dataset header lacks a required column.
var ErrHeaderMismatch = errors.New("dataset header mismatch")

// Record is one loosely typed dataset row keyed by normalized header name.
// Numeric-looking cells are float64, empty cells are absent, everything else
// is a string.
type Record map[string]any

// Row is a typed dataset record. Value is nil when the cell was empty.
type Row struct {
	CountryCode string   `mapstructure:"iso_3_code"`
	Area        string   `mapstructure:"area"`
	Date        string   `mapstructure:"date"`
	Category    string   `mapstructure:"category"`
	Subcategory string   `mapstructure:"subcategory"`
	Variable    string   `mapstructure:"variable"`
	Unit        string   `mapstructure:"unit"`
	Value       *float64 `mapstructure:"value"`
}

// requiredColumns are the normalized header names every dataset must carry.
var requiredColumns = []string{"iso_3_code", "area", "date", "category", "subcategory", "variable", "unit", "value"}

// headerAliases maps alternative header spellings onto the canonical names.
var headerAliases = map[string]string{
	"iso3":         "iso_3_code",
	"iso_code":     "iso_3_code",
	"country_code": "iso_3_code",
	"area_name":    "area",
}

// ParseResult is the outcome of parsing a dataset.
type ParseResult struct {
	Rows    []Row
	Skipped int
}

// ParseDataset reads comma-delimited text with a header row into typed rows.
// Malformed rows are counted in Skipped and otherwise ignored; only an
// unusable header (or an I/O failure) aborts the parse.
func ParseDataset(r io.Reader) (ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ParseResult{}, fmt.Errorf("%w: empty input", ErrHeaderMismatch)
	}
	if err != nil {
		return ParseResult{}, fmt.Errorf("read header: %w", err)
	}

	columns := normalizeHeader(header)
	if missing := missingColumns(columns); len(missing) > 0 {
		return ParseResult{}, fmt.Errorf("%w: missing %s", ErrHeaderMismatch, strings.Join(missing, ", "))
	}

	var res ParseResult
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}

		row, err := DecodeRow(toRecord(columns, fields))
		if err != nil {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// DecodeRow converts a loosely typed record into a Row, coercing scalar types
// where possible.
func DecodeRow(rec Record) (Row, error) {
	var row Row
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &row,
	})
	if err != nil {
		return Row{}, err
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return Row{}, fmt.Errorf("decode row: %w", err)
	}
	return row, nil
}

// Number returns the row value when it is present and finite.
func (r Row) Number() (float64, bool) {
	if r.Value == nil {
		return 0, false
	}
	v := *r.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Day returns the date truncated to day granularity (YYYY-MM-DD or shorter).
func (r Row) Day() string {
	d := strings.TrimSpace(r.Date)
	if len(d) > 10 {
		d = d[:10]
	}
	return d
}

// Code returns the trimmed, upper-cased country code.
func (r Row) Code() string {
	return strings.ToUpper(strings.TrimSpace(r.CountryCode))
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.Join(strings.Fields(h), "_")
		if alias, ok := headerAliases[h]; ok {
			h = alias
		}
		out[i] = h
	}
	return out
}

func missingColumns(columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, c := range requiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func toRecord(columns, fields []string) Record {
	rec := make(Record, len(columns))
	for i, col := range columns {
		if i >= len(fields) || col == "" {
			continue
		}
		if v := coerceCell(fields[i]); v != nil {
			rec[col] = v
		}
	}
	return rec
}

// coerceCell converts numeric-looking cells to float64. Words such as "NaN"
// stay strings so that country codes and names are never reinterpreted.
func coerceCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
