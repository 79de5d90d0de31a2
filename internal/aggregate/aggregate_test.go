package aggregate

import (
	"math"
	"testing"

	"github.com/rewired-gh/gridledger/internal/models"
)

func TestTotalScenario(t *testing.T) {
	r := models.Record{
		models.Coal:       50,
		models.OilGas:     10,
		models.Nuclear:    8,
		models.Hydro:      5,
		models.Solar:      20,
		models.Wind:       15,
		models.SmallHydro: 2,
		models.BioPower:   3,
	}
	if got := Total(r); got != 113 {
		t.Errorf("Total = %v, want 113", got)
	}
}

func TestTotalIgnoresInsertionOrderAndForeignKeys(t *testing.T) {
	a := models.Record{models.Coal: 1, models.Wind: 2}
	b := models.Record{models.Wind: 2, models.Coal: 1, models.Source("Fusion"): 99}
	if Total(a) != Total(b) {
		t.Errorf("Total depends on key insertion order or foreign keys: %v vs %v", Total(a), Total(b))
	}
}

func TestTotalCoercesNonFinite(t *testing.T) {
	r := models.Record{models.Coal: math.NaN(), models.Solar: math.Inf(1), models.Wind: 4}
	if got := Total(r); got != 4 {
		t.Errorf("Total = %v, want 4", got)
	}
}

func TestDiff(t *testing.T) {
	start := models.NewRecord()
	start[models.Coal] = 60
	start[models.Solar] = 40

	end := models.NewRecord()
	end[models.Coal] = 62
	end[models.Solar] = 53

	delta := Diff("01/2023", "01/2024", start, end)

	if delta.Total != 15 {
		t.Errorf("Total = %v, want 15", delta.Total)
	}
	if delta.Direction != models.DirectionPositive {
		t.Errorf("Direction = %q, want positive", delta.Direction)
	}
	if delta.PerSource[models.Coal] != 2 {
		t.Errorf("Coal delta = %v, want 2", delta.PerSource[models.Coal])
	}
	if delta.PerSource[models.Solar] != 13 {
		t.Errorf("Solar delta = %v, want 13", delta.PerSource[models.Solar])
	}
	if delta.PerSource[models.Wind] != 0 {
		t.Errorf("Wind delta = %v, want 0", delta.PerSource[models.Wind])
	}
	if err := delta.Validate(); err != nil {
		t.Errorf("Diff produced an invalid delta: %v", err)
	}
}

func TestDiffNegativeAndZero(t *testing.T) {
	a := models.NewRecord()
	a[models.Coal] = 10

	b := models.NewRecord()
	b[models.Coal] = 7

	if d := Diff("01/2023", "02/2023", a, b); d.Direction != models.DirectionNegative || d.Total != -3 {
		t.Errorf("got (%v, %q), want (-3, negative)", d.Total, d.Direction)
	}
	if d := Diff("01/2023", "02/2023", a, a); d.Direction != models.DirectionZero || d.Total != 0 {
		t.Errorf("got (%v, %q), want (0, zero)", d.Total, d.Direction)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{30, 30},
		{30.004, 30},
		{0.125, 0.13},
		{-0.125, -0.13},
		{1.239, 1.24},
		{113, 113},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
