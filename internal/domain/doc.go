// Package domain models grid carbon-intensity data and the heating emissions
// comparison built on top of it.
//
// # Data Source
//
// The dataset is Ember's long-format electricity release: one CSV row per
// (area, date, category, subcategory, variable) with a unit and a value. The
// columns used are:
//
//	Area, ISO 3 code, Date, Category, Subcategory, Variable, Unit, Value
//
// Headers are matched case-insensitively with whitespace collapsed to
// underscores, so "ISO 3 code" becomes iso_3_code. Extra columns are ignored.
//
// # Conventions
//
// Carbon intensity rows carry a variable naming the intensity (e.g.
// "CO2 intensity") and a unit in gCO2/kWh:
//
//	Power sector emissions, CO2 intensity, CO2 intensity, gCO2/kWh, 320.5
//
// Generation mix rows use subcategory "Fuel":
//
//	Electricity generation, Fuel, Coal, TWh, 12.4
//	Power sector emissions, Fuel, Coal, mtCO2, 11.2
//
// mtCO2 divided by TWh is kt/GWh, so the ratio times 1000 is gCO2/kWh.
//
// Dates are zero-padded ISO strings ("2024-03-01"), so lexical order equals
// chronological order and "latest" is a string comparison.
//
// # Emissions model
//
// All rates are grams CO2eq per kWh of useful heat. Wood is charged its
// biogenic CO2 weighted by GWPbio(horizon) times a user scale, plus non-CO2
// gases, divided by stove efficiency. Electric sources divide the grid
// intensity by their COP; the grid intensity declines linearly to the policy
// target by the target year. Gas and oil divide their fuel factor by boiler
// efficiency and ignore the grid.
package domain
