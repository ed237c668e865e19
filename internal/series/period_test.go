package series

import (
	"errors"
	"testing"
	"time"

	"MacroSync/internal/domain/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		label string
		freq  models.Frequency
		want  time.Time
	}{
		{"2024-03-15", models.Daily, date(2024, 3, 15)},
		{"20240315", models.Daily, date(2024, 3, 15)},
		{"2024-01-05", models.Weekly, date(2024, 1, 5)},
		{"202403", models.Monthly, date(2024, 3, 1)},
		{"2024-03", models.Monthly, date(2024, 3, 1)},
		{"2024-03-15", models.Monthly, date(2024, 3, 1)},
		{"2024-Q1", models.Quarterly, date(2024, 3, 31)},
		{"2024Q4", models.Quarterly, date(2024, 12, 31)},
		{"2023Q2", models.Quarterly, date(2023, 6, 30)},
		{"2024-02", models.Quarterly, date(2024, 3, 31)},
		{" 2024-03 ", models.Monthly, date(2024, 3, 1)},
	}
	for _, c := range cases {
		got, err := Normalize(c.label, c.freq)
		if err != nil {
			t.Fatalf("Normalize(%q, %s): %v", c.label, c.freq, err)
		}
		if !got.Equal(c.want) {
			t.Fatalf("Normalize(%q, %s) = %v, want %v", c.label, c.freq, got, c.want)
		}
	}
}

func TestNormalizeMalformed(t *testing.T) {
	for _, label := range []string{"", "garbage", "2024-13", "202413", "2024-Q5", "20240230", "24-03"} {
		_, err := Normalize(label, models.Monthly)
		if !errors.Is(err, models.ErrMalformedPeriod) {
			t.Fatalf("Normalize(%q) err = %v, want ErrMalformedPeriod", label, err)
		}
	}
}
