package models

import (
	"sort"
	"time"
)

// Point is one dated observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is an ordered sequence of observations, unique per date.
// A date that carries no value is simply absent from the series.
type Series struct {
	Points []Point
}

// Set upserts a value at date, keeping points sorted ascending.
// Re-setting an existing date overwrites it (last writer wins inside
// a single fetched batch, matching provider revision behavior).
func (s *Series) Set(date time.Time, value float64) {
	i := sort.Search(len(s.Points), func(i int) bool {
		return !s.Points[i].Date.Before(date)
	})
	if i < len(s.Points) && s.Points[i].Date.Equal(date) {
		s.Points[i].Value = value
		return
	}
	s.Points = append(s.Points, Point{})
	copy(s.Points[i+1:], s.Points[i:])
	s.Points[i] = Point{Date: date, Value: value}
}

// At returns the value at date, if present.
func (s *Series) At(date time.Time) (float64, bool) {
	i := sort.Search(len(s.Points), func(i int) bool {
		return !s.Points[i].Date.Before(date)
	})
	if i < len(s.Points) && s.Points[i].Date.Equal(date) {
		return s.Points[i].Value, true
	}
	return 0, false
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Points) }

// Empty reports whether the series has no observations.
func (s *Series) Empty() bool { return len(s.Points) == 0 }

// First returns the earliest observation, if any.
func (s *Series) First() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[0], true
}

// Last returns the latest observation, if any.
func (s *Series) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}
