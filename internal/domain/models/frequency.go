package models

import "time"

// Frequency classifies the canonical timeline of a table.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
)

// Valid reports whether f is a known frequency class.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Quarterly:
		return true
	}
	return false
}

// PeriodsPerYear returns the rate-transform offset for year-over-year changes.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Daily:
		return 365
	case Weekly:
		return 52
	case Monthly:
		return 12
	case Quarterly:
		return 4
	}
	return 0
}

// Step moves t back or forward by n periods of this frequency.
func (f Frequency) Step(t time.Time, n int) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, n)
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Monthly:
		return t.AddDate(0, n, 0)
	case Quarterly:
		return t.AddDate(0, 3*n, 0)
	}
	return t
}
