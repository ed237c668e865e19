// Package series holds the pure time-series algorithms: period label
// normalization, rate-of-change transforms, hybrid splicing and
// frequency resampling. Everything here is side-effect free.
package series

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"MacroSync/internal/domain/models"
)

// Normalize parses a provider period label onto the canonical timeline of
// the given frequency class. One calendar convention per class:
//
//	daily/weekly  -> the observation's own date
//	monthly       -> first day of the month
//	quarterly     -> last day of the quarter
//
// Accepted label shapes are the superset providers emit: YYYY-MM-DD,
// YYYYMMDD, YYYY-MM, YYYYMM, YYYYQn and YYYY-Qn. Anything else yields
// models.ErrMalformedPeriod; callers drop the point and continue.
func Normalize(label string, freq models.Frequency) (time.Time, error) {
	s := strings.TrimSpace(label)

	if y, q, ok := parseQuarter(s); ok {
		return quarterEnd(y, q), nil
	}

	var t time.Time
	var err error
	switch {
	case len(s) == 10 && s[4] == '-' && s[7] == '-':
		t, err = time.Parse("2006-01-02", s)
	case len(s) == 8 && allDigits(s):
		t, err = time.Parse("20060102", s)
	case len(s) == 7 && s[4] == '-':
		t, err = time.Parse("2006-01", s)
	case len(s) == 6 && allDigits(s):
		t, err = time.Parse("200601", s)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrMalformedPeriod, label)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrMalformedPeriod, label)
	}

	switch freq {
	case models.Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case models.Quarterly:
		q := (int(t.Month())-1)/3 + 1
		return quarterEnd(t.Year(), q), nil
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
}

// parseQuarter handles YYYYQn and YYYY-Qn.
func parseQuarter(s string) (year, quarter int, ok bool) {
	i := strings.IndexByte(s, 'Q')
	if i < 0 {
		return 0, 0, false
	}
	ys := strings.TrimSuffix(s[:i], "-")
	if len(ys) != 4 || !allDigits(ys) {
		return 0, 0, false
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, false
	}
	q, err := strconv.Atoi(s[i+1:])
	if err != nil || q < 1 || q > 4 {
		return 0, 0, false
	}
	return y, q, true
}

// quarterEnd returns the last calendar day of quarter q.
func quarterEnd(year, q int) time.Time {
	// day 0 of the following month normalizes to the quarter's last day
	return time.Date(year, time.Month(3*q+1), 0, 0, 0, 0, 0, time.UTC)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
