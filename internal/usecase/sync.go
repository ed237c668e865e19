package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/domain/repository"
	"MacroSync/internal/series"
	"MacroSync/pkg/cache"
	"MacroSync/pkg/config"
	applogger "MacroSync/pkg/logger"
)

// ErrRunInProgress is returned when a sweep is requested while another
// one still holds the run lock.
var ErrRunInProgress = errors.New("sync run already in progress")

const runLockKey = "sync:run"

// RunOptions selects the scope of one sweep.
type RunOptions struct {
	// Backfill refetches every table from its configured full start and
	// replaces the persisted state wholesale.
	Backfill bool
	// Tables limits the sweep to the named tables; empty means all.
	Tables []string
}

// Syncer drives one sweep: per table it inspects the destination,
// fetches the configured series, derives splices and rates, merges and
// commits. Tables are isolated; one table failing never stops the rest.
type Syncer struct {
	cfg      *config.Config
	adapters map[string]repository.SourceAdapter
	store    repository.TableStore
	tracker  *StateTracker
	resolver *CodeResolver
	locker   cache.Service
	metrics  repository.Metrics
	events   repository.EventPublisher
	log      *applogger.Logger

	mu   sync.Mutex
	last *models.RunReport
}

// NewSyncer wires the orchestrator. events may be nil when no broker is
// configured.
func NewSyncer(
	cfg *config.Config,
	adapters map[string]repository.SourceAdapter,
	store repository.TableStore,
	locker cache.Service,
	metrics repository.Metrics,
	events repository.EventPublisher,
	log *applogger.Logger,
) *Syncer {
	return &Syncer{
		cfg:      cfg,
		adapters: adapters,
		store:    store,
		tracker:  NewStateTracker(store, log),
		resolver: NewCodeResolver(locker, cfg.Sync.ResolveTTL, log),
		locker:   locker,
		metrics:  metrics,
		events:   events,
		log:      log,
	}
}

// Run executes one sweep under the run lock.
func (s *Syncer) Run(ctx context.Context, opts RunOptions) (*models.RunReport, error) {
	ok, err := s.locker.TryLock(ctx, runLockKey, s.cfg.Sync.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), runLockKey); err != nil {
			s.log.Warn("release run lock", applogger.Error(err))
		}
	}()

	report := &models.RunReport{
		StartedAt: time.Now().UTC(),
		Backfill:  opts.Backfill,
	}

	selected := make(map[string]bool, len(opts.Tables))
	for _, name := range opts.Tables {
		selected[name] = true
	}

	for _, spec := range s.cfg.Sync.Tables {
		if len(selected) > 0 && !selected[spec.Name] {
			continue
		}
		tr := s.syncTable(ctx, spec, opts.Backfill)
		report.Tables = append(report.Tables, tr)
	}

	report.FinishedAt = time.Now().UTC()
	s.metrics.RecordRunDuration(report.FinishedAt.Sub(report.StartedAt).Seconds())

	if s.events != nil {
		if err := s.events.PublishRunReport(ctx, report); err != nil {
			s.log.Error("publish run report", applogger.Error(err))
		}
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if failed := report.Failed(); len(failed) > 0 {
		s.log.Warn("sweep finished with failed tables", applogger.Strings("tables", failed))
	} else {
		s.log.Info("sweep finished",
			applogger.Int("tables", len(report.Tables)),
			applogger.Duration("duration_ms", report.FinishedAt.Sub(report.StartedAt)),
		)
	}
	return report, nil
}

// LastReport returns the most recent sweep's report, if any.
func (s *Syncer) LastReport() *models.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Syncer) syncTable(ctx context.Context, spec config.TableSpec, backfill bool) models.TableReport {
	report := models.TableReport{Table: spec.Name}
	header := spec.Header()
	freq := spec.Freq()

	state, err := s.tracker.Inspect(ctx, spec.Name, header)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	if state.Reinit {
		report.Reinitialized = true
		s.metrics.RecordReinit(spec.Name)
	}
	backfill = backfill || state.Reinit || !state.HasWatermark
	report.Backfill = backfill
	report.RowsBefore = len(state.Rows)

	fullStart, err := series.Normalize(spec.FullStart, freq)
	if err != nil {
		report.Error = fmt.Sprintf("full_start: %v", err)
		return report
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := fullStart
	if !backfill {
		start = freq.Step(state.Watermark, -spec.Lookback)
		if start.Before(fullStart) {
			start = fullStart
		}
	}

	// Rate columns need history beyond the window to compute the first
	// year-over-year change inside it.
	fetchStart := start
	if len(spec.Rates) > 0 {
		fetchStart = freq.Step(start, -(freq.PeriodsPerYear() + 1))
	}

	columns, fetched, failed := s.fetchColumns(ctx, spec, fetchStart, end)
	report.SeriesFetched = fetched
	report.SeriesFailed = failed
	if fetched == 0 && len(failed) > 0 {
		report.Error = "every series fetch failed"
		return report
	}

	for _, sp := range spec.Splices {
		res := series.Splice(columns[sp.Primary], columns[sp.Fallback])
		columns[sp.Column] = res.Series
		if res.HasCutover {
			s.log.Info("splice cutover",
				applogger.String("table", spec.Name),
				applogger.String("column", sp.Column),
				applogger.String("cutover", res.Cutover.Format("2006-01-02")),
			)
		}
	}

	for _, r := range spec.Rates {
		rates := series.ToRates(columns[r.Source], freq.PeriodsPerYear())
		if r.YoY != "" {
			columns[r.YoY] = rates.YoY
		}
		if r.PoP != "" {
			columns[r.PoP] = rates.PoP
		}
	}

	fetchedRows := trimBefore(RowsFromColumns(columns, header), start)

	var rows []models.Row
	if backfill {
		rows = MergeBackfill(fetchedRows, header)
	} else {
		rows = MergeIncremental(state.Rows, fetchedRows, header)
	}
	report.RowsAfter = len(rows)

	if err := s.store.Commit(ctx, spec.Name, header, rows); err != nil {
		cf := &models.CommitFailure{Table: spec.Name, Err: err}
		s.log.Error("commit failed, prior state remains", applogger.Error(cf))
		s.metrics.RecordCommitError(spec.Name)
		report.Error = cf.Error()
		return report
	}
	report.Committed = true
	s.metrics.RecordCommit(spec.Name, len(rows))
	if len(rows) > 0 {
		wm := rows[len(rows)-1].Date
		report.Watermark = &wm
		s.metrics.RecordWatermark(spec.Name, wm)
	}
	return report
}

// fetchColumns pulls every configured series through a bounded worker
// pool and returns the per-column series plus the failed column names.
func (s *Syncer) fetchColumns(ctx context.Context, spec config.TableSpec, start, end time.Time) (map[string]models.Series, int, []string) {
	columns := make(map[string]models.Series, len(spec.Series))
	var failed []string
	fetched := 0

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan config.SeriesSpec)

	workers := s.cfg.Sync.FetchWorkers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sp := range jobs {
				adapter, ok := s.adapters[sp.Provider]
				var (
					code string
					got  models.Series
					err  error
				)
				if !ok {
					err = fmt.Errorf("no adapter for provider %q", sp.Provider)
				} else {
					code, got, err = s.resolver.Fetch(ctx, adapter, spec.Name, sp.Column, sp.Codes, start, end)
				}
				if err == nil && sp.Resample == "month_last" {
					got = series.MonthLast(got)
				}

				mu.Lock()
				if err != nil {
					pf := &models.PartialFailure{Provider: sp.Provider, Code: code, Column: sp.Column, Err: err}
					s.log.Error("series fetch failed", applogger.Error(pf))
					s.metrics.RecordFetchError(sp.Provider, spec.Name)
					failed = append(failed, sp.Column)
				} else {
					columns[sp.Column] = got
					fetched++
					s.metrics.RecordFetch(sp.Provider, spec.Name, got.Len())
				}
				mu.Unlock()
			}
		}()
	}

	for _, sp := range spec.Series {
		jobs <- sp
	}
	close(jobs)
	wg.Wait()

	return columns, fetched, failed
}

func trimBefore(rows []models.Row, start time.Time) []models.Row {
	i := 0
	for i < len(rows) && rows[i].Date.Before(start) {
		i++
	}
	return rows[i:]
}
