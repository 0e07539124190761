package domain

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// MixCategory is a generation fuel category.
type MixCategory string

const (
	MixNuclear         MixCategory = "Nuclear"
	MixCoal            MixCategory = "Coal"
	MixGas             MixCategory = "Gas"
	MixBioenergy       MixCategory = "Bioenergy"
	MixHydro           MixCategory = "Hydro"
	MixWind            MixCategory = "Wind"
	MixSolar           MixCategory = "Solar"
	MixOtherFossil     MixCategory = "Other Fossil"
	MixOtherRenewables MixCategory = "Other Renewables"
	MixOther           MixCategory = "Other"
)

// MixCategories lists the categories in canonical order.
var MixCategories = []MixCategory{
	MixNuclear, MixCoal, MixGas, MixBioenergy, MixHydro,
	MixWind, MixSolar, MixOtherFossil, MixOtherRenewables, MixOther,
}

var fuelCategories = map[string]MixCategory{
	"nuclear":          MixNuclear,
	"coal":             MixCoal,
	"gas":              MixGas,
	"bioenergy":        MixBioenergy,
	"hydro":            MixHydro,
	"wind":             MixWind,
	"solar":            MixSolar,
	"other fossil":     MixOtherFossil,
	"other renewables": MixOtherRenewables,
}

const (
	generationCategory = "electricity generation"
	emissionsCategory  = "power sector emissions"
	fuelSubcategory    = "fuel"
	generationUnit     = "twh"
	emissionsUnit      = "mtco2"

	// minorShareThreshold is the share (percent) below which a category is
	// folded into Other in a breakdown.
	minorShareThreshold = 2.0
	// minorNoiseThreshold is the folded total (percent) at or below which the
	// minor categories are dropped instead of folded.
	minorNoiseThreshold = 0.5
)

// CategoryFor maps a source fuel name onto a MixCategory. Unknown names map to Other.
func CategoryFor(fuel string) MixCategory {
	key := strings.ToLower(strings.Join(strings.Fields(fuel), " "))
	if c, ok := fuelCategories[key]; ok {
		return c
	}
	return MixOther
}

// CountryMix maps a category to its percentage share of total generation.
type CountryMix map[MixCategory]float64

// CountryMixIntensity maps a category to its emission rate in gCO2/kWh.
type CountryMixIntensity map[MixCategory]float64

// MixAggregate is the generation-mix output for all countries.
type MixAggregate struct {
	Mix       map[string]CountryMix
	Intensity map[string]CountryMixIntensity
}

type datedValue struct {
	date  string
	value float64
}

// latestBucket keeps the latest value per (country, category).
type latestBucket map[string]map[MixCategory]datedValue

// offer records v unless a strictly later date is already held. Equal dates
// resolve to the later offer, so the last occurrence in input order wins.
func (b latestBucket) offer(code string, cat MixCategory, date string, v float64) {
	byCat, ok := b[code]
	if !ok {
		byCat = make(map[MixCategory]datedValue)
		b[code] = byCat
	}
	if cur, ok := byCat[cat]; ok && cur.date > date {
		return
	}
	byCat[cat] = datedValue{date: date, value: v}
}

// AggregateMix reduces generation-volume (TWh) and emissions-volume (mtCO2)
// fuel rows into per-country generation shares and per-category emission
// rates, in a single pass over the rows.
func AggregateMix(rows []Row) MixAggregate {
	generation := make(latestBucket)
	emissions := make(latestBucket)

	for _, r := range rows {
		if !strings.EqualFold(strings.TrimSpace(r.Subcategory), fuelSubcategory) {
			continue
		}
		// Share rows (%) sit next to the volume rows under the same
		// category; only volumes feed the buckets.
		unit := strings.ToLower(strings.Join(strings.Fields(r.Unit), ""))
		var bucket latestBucket
		switch strings.ToLower(strings.TrimSpace(r.Category)) {
		case generationCategory:
			if unit != generationUnit {
				continue
			}
			bucket = generation
		case emissionsCategory:
			if unit != emissionsUnit {
				continue
			}
			bucket = emissions
		default:
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
		bucket.offer(code, CategoryFor(r.Variable), r.Day(), v)
	}

	agg := MixAggregate{
		Mix:       make(map[string]CountryMix),
		Intensity: make(map[string]CountryMixIntensity),
	}
	for code, byCat := range generation {
		values := make([]float64, 0, len(byCat))
		for _, dv := range byCat {
			values = append(values, dv.value)
		}
		total := floats.Sum(values)
		if total <= 0 {
			continue
		}

		mix := make(CountryMix, len(byCat))
		rates := make(CountryMixIntensity)
		for cat, gen := range byCat {
			mix[cat] = gen.value / total * 100
			if gen.value <= 0 {
				continue
			}
			em, ok := emissions[code][cat]
			if !ok || em.value <= 0 {
				continue
			}
			rates[cat] = em.value / gen.value * 1000
		}
		agg.Mix[code] = mix
		agg.Intensity[code] = rates
	}
	return agg
}

// MixSlice is one entry of a display breakdown.
type MixSlice struct {
	Category MixCategory `json:"category" yaml:"category"`
	Share    float64     `json:"share" yaml:"share"`
	Rate     float64     `json:"rate,omitempty" yaml:"rate,omitempty"`
	HasRate  bool        `json:"has_rate" yaml:"has_rate"`
}

// Breakdown builds a display breakdown sorted by descending share. Categories
// below 2% are folded into a synthetic Other slice whose rate is the
// share-weighted average of the folded rates; when the folded total is at or
// below 0.5% the minor categories are dropped as noise. An existing major
// Other category absorbs the folded slice.
func Breakdown(mix CountryMix, rates CountryMixIntensity) []MixSlice {
	var (
		out         []MixSlice
		minorShare  float64
		weightedSum float64
		ratedShare  float64
	)
	for _, cat := range MixCategories {
		share, ok := mix[cat]
		if !ok || share <= 0 {
			continue
		}
		rate, hasRate := rates[cat]
		if share < minorShareThreshold {
			minorShare += share
			if hasRate {
				weightedSum += rate * share
				ratedShare += share
			}
			continue
		}
		out = append(out, MixSlice{Category: cat, Share: share, Rate: rate, HasRate: hasRate})
	}

	if minorShare > minorNoiseThreshold {
		other := MixSlice{Category: MixOther, Share: minorShare}
		if ratedShare > 0 {
			other.Rate = weightedSum / ratedShare
			other.HasRate = true
		}
		if i := slices.IndexFunc(out, func(s MixSlice) bool { return s.Category == MixOther }); i >= 0 {
			out[i] = mergeSlices(out[i], other)
		} else {
			out = append(out, other)
		}
	}

	slices.SortStableFunc(out, func(a, b MixSlice) int {
		switch {
		case a.Share > b.Share:
			return -1
		case a.Share < b.Share:
			return 1
		default:
			return 0
		}
	})
	return out
}

func mergeSlices(a, b MixSlice) MixSlice {
	merged := MixSlice{Category: a.Category, Share: a.Share + b.Share}
	var sum, weight float64
	for _, s := range []MixSlice{a, b} {
		if s.HasRate {
			sum += s.Rate * s.Share
			weight += s.Share
		}
	}
	if weight > 0 {
		merged.Rate = sum / weight
		merged.HasRate = true
	}
	return merged
}
