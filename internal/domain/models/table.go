package models

import "time"

// DateColumn is the mandatory first header column of every table.
const DateColumn = "Date"

// Row is one period of a table. Cells holds only present values;
// a column missing from the map is an empty cell, never zero.
type Row struct {
	Date  time.Time
	Cells map[string]float64
}

// Cell returns the value of column, if present.
func (r Row) Cell(column string) (float64, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

// Table is the unit of persistence: a canonical header and rows
// strictly sorted ascending by date, one row per period.
type Table struct {
	Name   string
	Header []string
	Rows   []Row
}

// Watermark returns the latest period key present, if the table has rows.
func (t *Table) Watermark() (time.Time, bool) {
	if len(t.Rows) == 0 {
		return time.Time{}, false
	}
	return t.Rows[len(t.Rows)-1].Date, true
}

// HeaderEqual reports whether two headers match exactly, order included.
func HeaderEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
