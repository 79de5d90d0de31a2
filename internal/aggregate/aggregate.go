// Package aggregate holds the pure numeric functions shared by the snapshot
// store and the historical ledger: totals over the fixed source enumeration,
// component-wise differences, and the display rounding rule.
package aggregate

import (
	"math"

	"github.com/google/uuid"
	"github.com/rewired-gh/gridledger/internal/models"
	"github.com/rewired-gh/gridledger/internal/month"
)

// Total sums a record across the fixed eight-source enumeration, always in
// enumeration order and under the 0-coercion policy. Key insertion order of
// the underlying map is irrelevant.
func Total(r models.Record) float64 {
	var sum float64
	for _, s := range models.AllSources {
		sum += models.Coerce(r[s])
	}
	return sum
}

// Diff computes the signed difference end - start, component-wise per source
// and for the totals, and classifies the scalar result.
func Diff(start, end month.Key, a, b models.Record) models.Delta {
	per := models.NewRecord()
	for _, s := range models.AllSources {
		per[s] = models.Coerce(b[s]) - models.Coerce(a[s])
	}
	startTotal := Total(a)
	endTotal := Total(b)
	total := endTotal - startTotal
	return models.Delta{
		ID:         uuid.New().String(),
		Start:      start,
		End:        end,
		PerSource:  per,
		StartTotal: startTotal,
		EndTotal:   endTotal,
		Total:      total,
		Direction:  models.Classify(total),
	}
}

// Round2 rounds to 2 decimal places, half away from zero on the
// cents-scaled value.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
