package models

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeriesSetKeepsOrderAndOverwrites(t *testing.T) {
	var s Series
	s.Set(day(2024, 1, 3), 3.0)
	s.Set(day(2024, 1, 1), 1.0)
	s.Set(day(2024, 1, 2), 2.0)
	s.Set(day(2024, 1, 2), 2.5) // same date, last write wins

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	for i := 1; i < s.Len(); i++ {
		if !s.Points[i-1].Date.Before(s.Points[i].Date) {
			t.Fatalf("points out of order at %d", i)
		}
	}
	if v, _ := s.At(day(2024, 1, 2)); v != 2.5 {
		t.Fatalf("overwrite = %v, want 2.5", v)
	}
}

func TestTableWatermark(t *testing.T) {
	tbl := Table{Name: "x"}
	if _, ok := tbl.Watermark(); ok {
		t.Fatalf("empty table has no watermark")
	}
	tbl.Rows = []Row{
		{Date: day(2024, 1, 1)},
		{Date: day(2024, 1, 5)},
	}
	wm, ok := tbl.Watermark()
	if !ok || !wm.Equal(day(2024, 1, 5)) {
		t.Fatalf("watermark = %v %v", wm, ok)
	}
}

func TestHeaderEqual(t *testing.T) {
	cases := []struct {
		a, b []string
		want bool
	}{
		{[]string{"Date", "A"}, []string{"Date", "A"}, true},
		{[]string{"Date", "A"}, []string{"Date", "B"}, false},
		{[]string{"Date", "A"}, []string{"A", "Date"}, false},
		{[]string{"Date"}, []string{"Date", "A"}, false},
	}
	for _, c := range cases {
		if got := HeaderEqual(c.a, c.b); got != c.want {
			t.Errorf("HeaderEqual(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestPartialFailureUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &PartialFailure{Provider: "fred", Code: "X", Column: "Rate", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("must unwrap to the underlying error")
	}
}

func TestFrequencyStep(t *testing.T) {
	if got := Monthly.Step(day(2024, 3, 1), -12); !got.Equal(day(2023, 3, 1)) {
		t.Errorf("monthly step = %v", got)
	}
	if got := Quarterly.Step(day(2024, 1, 1), -4); !got.Equal(day(2023, 1, 1)) {
		t.Errorf("quarterly step = %v", got)
	}
	if got := Weekly.Step(day(2024, 1, 3), 2); !got.Equal(day(2024, 1, 17)) {
		t.Errorf("weekly step = %v", got)
	}
}
