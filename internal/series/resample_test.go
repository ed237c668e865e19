package series

import (
	"testing"

	"MacroSync/internal/domain/models"
)

func TestMonthLast(t *testing.T) {
	var daily models.Series
	daily.Set(date(2024, 1, 2), 4.00)
	daily.Set(date(2024, 1, 31), 4.25)
	daily.Set(date(2024, 2, 15), 4.50)

	m := MonthLast(daily)

	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
	if v, _ := m.At(date(2024, 1, 1)); v != 4.25 {
		t.Fatalf("jan = %v, want last observation 4.25", v)
	}
	if v, _ := m.At(date(2024, 2, 1)); v != 4.50 {
		t.Fatalf("feb = %v, want 4.50", v)
	}
}
