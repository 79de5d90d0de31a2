package models

import (
	"math"
	"strconv"
)

// Record maps every energy source to a non-negative capacity value in GW
// (or a percentage, for PLF records). Invariant: every source in AllSources
// is present as a key; missing or invalid input coerces to 0.
type Record map[Source]float64

// NewRecord returns a record with every source present and zeroed.
func NewRecord() Record {
	r := make(Record, len(AllSources))
	for _, s := range AllSources {
		r[s] = 0
	}
	return r
}

// Clone returns an independent copy of r with the key invariant restored.
func (r Record) Clone() Record {
	out := NewRecord()
	for _, s := range AllSources {
		out[s] = Coerce(r[s])
	}
	return out
}

// Normalized returns a copy of r restricted to the fixed enumeration:
// foreign keys are dropped, absent keys become 0, non-finite values
// coerce to 0.
func (r Record) Normalized() Record {
	return r.Clone()
}

// Coerce applies the engine-wide numeric coercion policy: NaN and the
// infinities resolve to exactly 0, everything else passes through.
func Coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseNumber parses a CSV cell as a float64 under the coercion policy:
// empty or non-numeric strings resolve to 0, never an error.
func ParseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return Coerce(v)
}
