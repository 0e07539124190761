package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownHeatSource is returned when a heat-source identifier is not in the catalog.
var ErrUnknownHeatSource = errors.New("unknown heat source")

// HeatSource identifies one of the heating methods compared against a wood stove.
type HeatSource string

const (
	HeatSourceASHP      HeatSource = "ashp"
	HeatSourceGSHP      HeatSource = "gshp"
	HeatSourceDistrict  HeatSource = "district"
	HeatSourceResistive HeatSource = "resistive"
	HeatSourceGas       HeatSource = "gas"
	HeatSourceOil       HeatSource = "oil"
)

var heatSourceLabels = map[HeatSource]string{
	HeatSourceASHP:      "Air-source heat pump",
	HeatSourceGSHP:      "Ground-source heat pump",
	HeatSourceDistrict:  "Electric district heating",
	HeatSourceResistive: "Resistive electric heating",
	HeatSourceGas:       "Gas boiler",
	HeatSourceOil:       "Oil boiler",
}

// HeatSourceInfo is a catalog entry.
type HeatSourceInfo struct {
	ID    HeatSource `json:"id" yaml:"id"`
	Label string     `json:"label" yaml:"label"`
}

// HeatSources returns the catalog in display order.
func HeatSources() []HeatSourceInfo {
	order := []HeatSource{
		HeatSourceASHP, HeatSourceGSHP, HeatSourceDistrict,
		HeatSourceResistive, HeatSourceGas, HeatSourceOil,
	}
	out := make([]HeatSourceInfo, 0, len(order))
	for _, id := range order {
		out = append(out, HeatSourceInfo{ID: id, Label: heatSourceLabels[id]})
	}
	return out
}

// ParseHeatSource resolves an identifier (case-insensitive) to a HeatSource.
func ParseHeatSource(s string) (HeatSource, error) {
	hs := HeatSource(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := heatSourceLabels[hs]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHeatSource, s)
	}
	return hs, nil
}

// Label returns the display label, or the raw identifier for unknown values.
func (h HeatSource) Label() string {
	if l, ok := heatSourceLabels[h]; ok {
		return l
	}
	return string(h)
}

// IsElectric reports whether the source draws from the grid.
func (h HeatSource) IsElectric() bool {
	switch h {
	case HeatSourceASHP, HeatSourceGSHP, HeatSourceDistrict, HeatSourceResistive:
		return true
	default:
		return false
	}
}
