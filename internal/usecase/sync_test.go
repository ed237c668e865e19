package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/domain/repository"
	"MacroSync/pkg/cache"
	"MacroSync/pkg/config"
)

type tableData struct {
	header []string
	rows   []models.Row
}

type fakeStore struct {
	mu        sync.Mutex
	tables    map[string]*tableData
	commitErr map[string]error
	commits   map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:    make(map[string]*tableData),
		commitErr: make(map[string]error),
		commits:   make(map[string]int),
	}
}

func (f *fakeStore) ReadState(_ context.Context, name string) ([]string, []models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	td, ok := f.tables[name]
	if !ok {
		return nil, nil, models.ErrTableMissing
	}
	return td.header, td.rows, nil
}

func (f *fakeStore) Commit(_ context.Context, name string, header []string, rows []models.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.commitErr[name]; err != nil {
		return err
	}
	f.tables[name] = &tableData{header: header, rows: rows}
	f.commits[name]++
	return nil
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

type fakeMetrics struct {
	mu      sync.Mutex
	reinits int
	commits int
}

func (m *fakeMetrics) RecordFetch(string, string, int) {}
func (m *fakeMetrics) RecordFetchError(string, string) {}
func (m *fakeMetrics) RecordCommit(string, int) {
	m.mu.Lock()
	m.commits++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordCommitError(string) {}
func (m *fakeMetrics) RecordReinit(string) {
	m.mu.Lock()
	m.reinits++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordRunDuration(float64)         {}
func (m *fakeMetrics) RecordWatermark(string, time.Time) {}

func testConfig(tables ...config.TableSpec) *config.Config {
	c := &config.Config{}
	c.Sync.FetchWorkers = 2
	c.Sync.ResolveTTL = time.Hour
	c.Sync.LockTTL = time.Minute
	c.Sync.Tables = tables
	return c
}

func dailyTable() config.TableSpec {
	return config.TableSpec{
		Name:      "daily",
		Frequency: "daily",
		FullStart: "2024-01-01",
		Lookback:  4,
		Columns:   []string{"Rate"},
		Series: []config.SeriesSpec{
			{Provider: "fred", Codes: []string{"X"}, Column: "Rate"},
		},
	}
}

func TestSyncIncrementalPreservesAndAppends(t *testing.T) {
	store := newFakeStore()
	store.tables["daily"] = &tableData{
		header: []string{models.DateColumn, "Rate"},
		rows: []models.Row{
			{Date: date(2024, 1, 1), Cells: map[string]float64{"Rate": 5.0}},
		},
	}

	adapter := &fakeAdapter{
		provider: "fred",
		freq:     models.Daily,
		fetch: func(code string, start, end time.Time) (models.Series, error) {
			var s models.Series
			s.Set(date(2024, 1, 1), 9.9) // upstream revision
			s.Set(date(2024, 1, 2), 5.1)
			return s, nil
		},
	}

	syncer := NewSyncer(testConfig(dailyTable()),
		map[string]repository.SourceAdapter{"fred": adapter},
		store, cache.NewMemoryCache(), &fakeMetrics{}, nil, testLogger(t))

	report, err := syncer.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tr := report.Tables[0]
	if !tr.Committed || tr.Error != "" {
		t.Fatalf("table not committed: %+v", tr)
	}
	if tr.Reinitialized || tr.Backfill {
		t.Fatalf("matching header must stay incremental: %+v", tr)
	}

	rows := store.tables["daily"].rows
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if v := rows[0].Cells["Rate"]; v != 5.0 {
		t.Fatalf("existing value = %v, want preserved 5.0", v)
	}
	if v := rows[1].Cells["Rate"]; v != 5.1 {
		t.Fatalf("appended value = %v, want 5.1", v)
	}
	if tr.Watermark == nil || !tr.Watermark.Equal(date(2024, 1, 2)) {
		t.Fatalf("watermark = %v, want 2024-01-02", tr.Watermark)
	}
}

func TestSyncReinitializesOnHeaderMismatch(t *testing.T) {
	store := newFakeStore()
	store.tables["daily"] = &tableData{
		header: []string{models.DateColumn, "OldRate"},
		rows: []models.Row{
			{Date: date(2023, 6, 1), Cells: map[string]float64{"OldRate": 1.0}},
		},
	}

	adapter := &fakeAdapter{
		provider: "fred",
		freq:     models.Daily,
		fetch: func(code string, start, end time.Time) (models.Series, error) {
			var s models.Series
			s.Set(date(2024, 1, 1), 4.0)
			return s, nil
		},
	}

	metrics := &fakeMetrics{}
	syncer := NewSyncer(testConfig(dailyTable()),
		map[string]repository.SourceAdapter{"fred": adapter},
		store, cache.NewMemoryCache(), metrics, nil, testLogger(t))

	report, err := syncer.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tr := report.Tables[0]
	if !tr.Reinitialized || !tr.Backfill {
		t.Fatalf("mismatched header must reinitialize: %+v", tr)
	}
	if metrics.reinits != 1 {
		t.Fatalf("reinits = %d, want 1", metrics.reinits)
	}

	rows := store.tables["daily"].rows
	if len(rows) != 1 || rows[0].Cells["Rate"] != 4.0 {
		t.Fatalf("old state must be replaced wholesale, got %+v", rows)
	}
}

func TestSyncTableIsolation(t *testing.T) {
	store := newFakeStore()

	broken := &fakeAdapter{
		provider: "fred",
		freq:     models.Daily,
		fetch: func(code string, start, end time.Time) (models.Series, error) {
			return models.Series{}, fmt.Errorf("upstream down")
		},
	}
	healthy := &fakeAdapter{
		provider: "ofr",
		freq:     models.Weekly,
		fetch: func(code string, start, end time.Time) (models.Series, error) {
			var s models.Series
			s.Set(date(2024, 1, 3), 2.0)
			return s, nil
		},
	}

	weekly := config.TableSpec{
		Name:      "weekly",
		Frequency: "weekly",
		FullStart: "2024-01-01",
		Lookback:  4,
		Columns:   []string{"Vol"},
		Series: []config.SeriesSpec{
			{Provider: "ofr", Codes: []string{"Y"}, Column: "Vol"},
		},
	}

	syncer := NewSyncer(testConfig(dailyTable(), weekly),
		map[string]repository.SourceAdapter{"fred": broken, "ofr": healthy},
		store, cache.NewMemoryCache(), &fakeMetrics{}, nil, testLogger(t))

	report, err := syncer.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("one broken table must not fail the run: %v", err)
	}
	if report.Tables[0].Committed {
		t.Fatalf("table with every series failed must not commit")
	}
	if !report.Tables[1].Committed {
		t.Fatalf("healthy table must commit despite sibling failure: %+v", report.Tables[1])
	}
	if failed := report.Failed(); len(failed) != 1 || failed[0] != "daily" {
		t.Fatalf("Failed() = %v, want [daily]", failed)
	}
}

func TestSyncDerivesRates(t *testing.T) {
	store := newFakeStore()

	adapter := &fakeAdapter{
		provider: "oecd",
		freq:     models.Monthly,
		fetch: func(code string, start, end time.Time) (models.Series, error) {
			var s models.Series
			for i := 0; i < 12; i++ {
				s.Set(date(2023, time.Month(1+i), 1), 100.0)
			}
			s.Set(date(2024, 1, 1), 110.0)
			return s, nil
		},
	}

	monthly := config.TableSpec{
		Name:      "monthly",
		Frequency: "monthly",
		FullStart: "2024-01",
		Lookback:  4,
		Columns:   []string{"CPI_YOY"},
		Series: []config.SeriesSpec{
			{Provider: "oecd", Codes: []string{"CPIUS"}, Column: "CPI"},
		},
		Rates: []config.RateSpec{
			{Source: "CPI", YoY: "CPI_YOY"},
		},
	}

	syncer := NewSyncer(testConfig(monthly),
		map[string]repository.SourceAdapter{"oecd": adapter},
		store, cache.NewMemoryCache(), &fakeMetrics{}, nil, testLogger(t))

	if _, err := syncer.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows := store.tables["monthly"].rows
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want only the window inside full start", len(rows))
	}
	if v := rows[0].Cells["CPI_YOY"]; v != 10.0 {
		t.Fatalf("CPI_YOY = %v, want 10.0", v)
	}
	if _, ok := rows[0].Cells["CPI"]; ok {
		t.Fatalf("level column must not leak into the table")
	}
}

func TestSyncRunLock(t *testing.T) {
	locker := cache.NewMemoryCache()
	ok, err := locker.TryLock(context.Background(), runLockKey, time.Minute)
	if err != nil || !ok {
		t.Fatalf("prelock: %v %v", ok, err)
	}

	syncer := NewSyncer(testConfig(dailyTable()),
		map[string]repository.SourceAdapter{},
		newFakeStore(), locker, &fakeMetrics{}, nil, testLogger(t))

	if _, err := syncer.Run(context.Background(), RunOptions{}); err != ErrRunInProgress {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
}

func TestSyncLastReport(t *testing.T) {
	store := newFakeStore()
	adapter := &fakeAdapter{
		provider: "fred",
		freq:     models.Daily,
		fetch: func(code string, start, end time.Time) (models.Series, error) {
			var s models.Series
			s.Set(date(2024, 1, 2), 1.0)
			return s, nil
		},
	}

	syncer := NewSyncer(testConfig(dailyTable()),
		map[string]repository.SourceAdapter{"fred": adapter},
		store, cache.NewMemoryCache(), &fakeMetrics{}, nil, testLogger(t))

	if syncer.LastReport() != nil {
		t.Fatalf("no report before first run")
	}
	report, err := syncer.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if syncer.LastReport() != report {
		t.Fatalf("LastReport must return the latest run")
	}
}
