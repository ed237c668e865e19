package series

import (
	"math"
	"testing"
	"time"

	"MacroSync/internal/domain/models"
)

func monthlyLevels(start time.Time, values []float64) models.Series {
	var s models.Series
	for i, v := range values {
		s.Set(start.AddDate(0, i, 0), v)
	}
	return s
}

func TestToRatesYoY(t *testing.T) {
	// 13 monthly points from 100 to 110: YoY exists only for the 13th.
	values := []float64{100, 102, 103, 104, 105, 106, 107, 108, 109, 108, 107, 109, 110}
	level := monthlyLevels(date(2023, 1, 1), values)

	r := ToRates(level, 12)

	if r.YoY.Len() != 1 {
		t.Fatalf("YoY len = %d, want 1", r.YoY.Len())
	}
	got, ok := r.YoY.At(date(2024, 1, 1))
	if !ok {
		t.Fatalf("YoY missing 13th month")
	}
	if math.Abs(got-10.0) > 1e-9 {
		t.Fatalf("YoY = %v, want 10.0", got)
	}
	for i := 0; i < 12; i++ {
		if _, ok := r.YoY.At(date(2023, time.Month(1+i), 1)); ok {
			t.Fatalf("YoY has value for month %d, want absent", i+1)
		}
	}
}

func TestToRatesPoP(t *testing.T) {
	level := monthlyLevels(date(2024, 1, 1), []float64{200, 210, 189})

	r := ToRates(level, 12)

	if r.PoP.Len() != 2 {
		t.Fatalf("PoP len = %d, want 2", r.PoP.Len())
	}
	if v, _ := r.PoP.At(date(2024, 2, 1)); math.Abs(v-5.0) > 1e-9 {
		t.Fatalf("PoP feb = %v, want 5.0", v)
	}
	if v, _ := r.PoP.At(date(2024, 3, 1)); math.Abs(v+10.0) > 1e-9 {
		t.Fatalf("PoP mar = %v, want -10.0", v)
	}
	if _, ok := r.PoP.At(date(2024, 1, 1)); ok {
		t.Fatalf("PoP has value for first month, want absent")
	}
}

func TestToRatesZeroBaseSkipped(t *testing.T) {
	level := monthlyLevels(date(2024, 1, 1), []float64{0, 5, 10})

	r := ToRates(level, 12)

	if _, ok := r.PoP.At(date(2024, 2, 1)); ok {
		t.Fatalf("PoP over zero base should be absent")
	}
	if v, _ := r.PoP.At(date(2024, 3, 1)); math.Abs(v-100.0) > 1e-9 {
		t.Fatalf("PoP mar = %v, want 100.0", v)
	}
}
