package usecase

import (
	"sort"
	"time"

	"MacroSync/internal/domain/models"
)

// RowsFromColumns assembles rows from per-column series. Dates are the
// union across the header's data columns; a column with no observation
// at a date leaves that cell absent. Columns outside the header are
// intermediates and do not survive into rows.
func RowsFromColumns(columns map[string]models.Series, header []string) []models.Row {
	cols := dataColumns(header)

	dates := make(map[time.Time]struct{})
	for col := range cols {
		s, ok := columns[col]
		if !ok {
			continue
		}
		for _, p := range s.Points {
			dates[p.Date] = struct{}{}
		}
	}

	rows := make([]models.Row, 0, len(dates))
	for d := range dates {
		cells := make(map[string]float64, len(cols))
		for col := range cols {
			s, ok := columns[col]
			if !ok {
				continue
			}
			if v, ok := s.At(d); ok {
				cells[col] = v
			}
		}
		rows = append(rows, models.Row{Date: d, Cells: cells})
	}
	sortRows(rows)
	return rows
}

// MergeIncremental folds freshly fetched rows into the existing table.
// An existing non-empty cell always wins over a fetched value for the
// same date and column; fetched values only fill cells that were empty
// and add rows for dates the table has never seen. The result stays
// sorted with one row per date.
func MergeIncremental(existing, fetched []models.Row, header []string) []models.Row {
	cols := dataColumns(header)

	out := make([]models.Row, 0, len(existing)+len(fetched))
	index := make(map[time.Time]int, len(existing))
	for _, r := range existing {
		out = append(out, models.Row{Date: r.Date, Cells: filterCells(r.Cells, cols)})
		index[r.Date] = len(out) - 1
	}

	for _, f := range fetched {
		i, ok := index[f.Date]
		if !ok {
			out = append(out, models.Row{Date: f.Date, Cells: filterCells(f.Cells, cols)})
			index[f.Date] = len(out) - 1
			continue
		}
		for col := range cols {
			if _, have := out[i].Cells[col]; have {
				continue
			}
			if v, ok := f.Cells[col]; ok {
				out[i].Cells[col] = v
			}
		}
	}
	sortRows(out)
	return out
}

// MergeBackfill rebuilds the table from fetched rows alone; whatever was
// persisted before is discarded wholesale.
func MergeBackfill(fetched []models.Row, header []string) []models.Row {
	cols := dataColumns(header)
	out := make([]models.Row, 0, len(fetched))
	for _, f := range fetched {
		out = append(out, models.Row{Date: f.Date, Cells: filterCells(f.Cells, cols)})
	}
	sortRows(out)
	return out
}

func dataColumns(header []string) map[string]struct{} {
	cols := make(map[string]struct{}, len(header))
	for _, h := range header {
		if h == models.DateColumn {
			continue
		}
		cols[h] = struct{}{}
	}
	return cols
}

func filterCells(cells map[string]float64, cols map[string]struct{}) map[string]float64 {
	out := make(map[string]float64, len(cells))
	for k, v := range cells {
		if _, ok := cols[k]; ok {
			out[k] = v
		}
	}
	return out
}

func sortRows(rows []models.Row) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}
