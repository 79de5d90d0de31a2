// Package models defines the core domain entities for the gridledger engine:
// the fixed energy-source enumeration, per-source capacity records, historical
// monthly entries, and signed capacity deltas between two months.
//
// The eight energy sources form a closed, ordered set. Order defines both
// display order and aggregation order and is never user-extensible. Source
// names match the CSV header spellings exactly, punctuation included.
package models

// Source is one of the eight fixed generation categories.
type Source string

const (
	Coal       Source = "Coal"
	OilGas     Source = "Oil & Gas"
	Nuclear    Source = "Nuclear"
	Hydro      Source = "Hydro"
	Solar      Source = "Solar"
	Wind       Source = "Wind"
	SmallHydro Source = "Small-Hydro"
	BioPower   Source = "Bio Power"
)

// AllSources is the canonical enumeration order. Every record construction
// and every aggregation walks this slice, never map iteration order.
var AllSources = []Source{Coal, OilGas, Nuclear, Hydro, Solar, Wind, SmallHydro, BioPower}

// IsValid reports whether s names one of the eight fixed sources.
func (s Source) IsValid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}
