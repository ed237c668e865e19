package usecase

import (
	"testing"
	"time"

	"MacroSync/internal/domain/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var testHeader = []string{models.DateColumn, "A", "B"}

func row(d time.Time, cells map[string]float64) models.Row {
	return models.Row{Date: d, Cells: cells}
}

func TestMergeIncrementalExistingWins(t *testing.T) {
	existing := []models.Row{
		row(date(2024, 1, 1), map[string]float64{"A": 1.0, "B": 2.0}),
	}
	fetched := []models.Row{
		row(date(2024, 1, 1), map[string]float64{"A": 9.9, "B": 9.9}),
	}

	out := MergeIncremental(existing, fetched, testHeader)

	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if v := out[0].Cells["A"]; v != 1.0 {
		t.Fatalf("A = %v, revised upstream value must not replace persisted one", v)
	}
}

func TestMergeIncrementalGapFillAndAppend(t *testing.T) {
	existing := []models.Row{
		row(date(2024, 1, 1), map[string]float64{"A": 1.0}),
	}
	fetched := []models.Row{
		row(date(2024, 1, 1), map[string]float64{"B": 5.0}),
		row(date(2024, 1, 2), map[string]float64{"A": 2.0, "B": 6.0}),
	}

	out := MergeIncremental(existing, fetched, testHeader)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if v, ok := out[0].Cells["B"]; !ok || v != 5.0 {
		t.Fatalf("empty cell must be gap-filled, got %v %v", v, ok)
	}
	if v := out[1].Cells["A"]; v != 2.0 {
		t.Fatalf("appended row A = %v, want 2.0", v)
	}
}

func TestMergeIncrementalIdempotent(t *testing.T) {
	fetched := []models.Row{
		row(date(2024, 1, 1), map[string]float64{"A": 1.0, "B": 2.0}),
		row(date(2024, 1, 2), map[string]float64{"A": 3.0}),
	}

	once := MergeIncremental(nil, fetched, testHeader)
	twice := MergeIncremental(once, fetched, testHeader)

	if len(once) != len(twice) {
		t.Fatalf("row count changed: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Date.Equal(twice[i].Date) || len(once[i].Cells) != len(twice[i].Cells) {
			t.Fatalf("row %d changed on re-merge", i)
		}
	}
}

func TestMergeIncrementalDropsForeignColumns(t *testing.T) {
	fetched := []models.Row{
		row(date(2024, 1, 1), map[string]float64{"A": 1.0, "CPI_LEVEL": 300.0}),
	}

	out := MergeIncremental(nil, fetched, testHeader)

	if _, ok := out[0].Cells["CPI_LEVEL"]; ok {
		t.Fatalf("intermediate column must not reach the table")
	}
}

func TestMergeBackfillReplaces(t *testing.T) {
	fetched := []models.Row{
		row(date(2024, 1, 2), map[string]float64{"A": 2.0}),
		row(date(2024, 1, 1), map[string]float64{"A": 1.0}),
	}

	out := MergeBackfill(fetched, testHeader)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if !out[0].Date.Equal(date(2024, 1, 1)) {
		t.Fatalf("rows must come out sorted ascending")
	}
}

func TestRowsFromColumns(t *testing.T) {
	var a, b, extra models.Series
	a.Set(date(2024, 1, 1), 1.0)
	a.Set(date(2024, 1, 2), 2.0)
	b.Set(date(2024, 1, 2), 20.0)
	extra.Set(date(2024, 1, 3), 99.0)

	rows := RowsFromColumns(map[string]models.Series{
		"A":     a,
		"B":     b,
		"EXTRA": extra,
	}, testHeader)

	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2 (non-header column contributes no dates)", len(rows))
	}
	if _, ok := rows[0].Cells["B"]; ok {
		t.Fatalf("B has no observation on day one, cell must be absent")
	}
	if v := rows[1].Cells["B"]; v != 20.0 {
		t.Fatalf("B = %v, want 20.0", v)
	}
}
