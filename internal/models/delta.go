package models

import (
	"errors"
	"math"

	"github.com/rewired-gh/gridledger/internal/month"
)

// Delta direction classifications, used by the display tier for color coding.
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
	DirectionZero     = "zero"
)

// Delta is the signed capacity difference between two historical months,
// component-wise per source plus the scalar difference of the totals.
type Delta struct {
	ID         string    `json:"id"`
	Start      month.Key `json:"start"`
	End        month.Key `json:"end"`
	PerSource  Record    `json:"per_source"`
	StartTotal float64   `json:"start_total"`
	EndTotal   float64   `json:"end_total"`
	Total      float64   `json:"total"`
	Direction  string    `json:"direction"`
}

// Classify returns the direction label for a signed total.
func Classify(total float64) string {
	switch {
	case total > 0:
		return DirectionPositive
	case total < 0:
		return DirectionNegative
	default:
		return DirectionZero
	}
}

// Validate checks that all delta fields are consistent.
func (d *Delta) Validate() error {
	if d.ID == "" {
		return errors.New("delta ID must not be empty")
	}
	if !d.Start.Valid() {
		return errors.New("delta start must be a canonical MM/YYYY key")
	}
	if !d.End.Valid() {
		return errors.New("delta end must be a canonical MM/YYYY key")
	}
	if d.PerSource == nil {
		return errors.New("delta per-source record must not be nil")
	}
	if math.Abs(d.Total-(d.EndTotal-d.StartTotal)) > 0.001 {
		return errors.New("delta total must equal end_total - start_total")
	}
	if d.Direction != Classify(d.Total) {
		return errors.New("delta direction must match the sign of total")
	}
	return nil
}
