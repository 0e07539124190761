// Package report formats comparison results for terminals and machine
// consumers.
package report

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unavailable is rendered in place of missing or non-finite values.
const Unavailable = "—"

// printer is the locale-aware message printer for thousands grouping.
var printer = message.NewPrinter(language.English)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatFloat formats v with the given precision and thousands separators.
// Example: FormatFloat(1234.567, 2) returns "1,234.57".
func FormatFloat(v float64, precision int) string {
	if !finite(v) {
		return Unavailable
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', precision, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	out := s
	// Beyond int64 the digits are left ungrouped.
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		out = printer.Sprintf("%d", n)
		if frac != "" {
			out += "." + frac
		}
	}
	if v < 0 && strings.Trim(s, "0.") != "" {
		out = "-" + out
	}
	return out
}

// FormatRate formats an emission rate in grams CO2eq per kWh.
func FormatRate(v float64) string {
	if !finite(v) {
		return Unavailable
	}
	return FormatFloat(v, 1) + " g/kWh"
}

// FormatMass formats a mass given in grams CO2eq, scaling to kg or tonnes.
func FormatMass(g float64) string {
	if !finite(g) {
		return Unavailable
	}
	switch abs := math.Abs(g); {
	case abs >= 1e6:
		return FormatFloat(g/1e6, 2) + " t CO2e"
	case abs >= 1e3:
		return FormatFloat(g/1e3, 1) + " kg CO2e"
	default:
		return FormatFloat(g, 0) + " g CO2e"
	}
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(v float64) string {
	if !finite(v) {
		return Unavailable
	}
	return FormatFloat(v, 1) + "%"
}

// FormatSigned prefixes positive values with "+".
func FormatSigned(s string, v float64) string {
	if finite(v) && v > 0 {
		return "+" + s
	}
	return s
}

// FormatTemperature formats an optional temperature in °C.
func FormatTemperature(t *float64) string {
	if t == nil || !finite(*t) {
		return Unavailable
	}
	return FormatFloat(*t, 1) + " °C"
}
