package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	fetchPoints   *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	commitRows    *prometheus.CounterVec
	commitErrors  *prometheus.CounterVec
	reinits       *prometheus.CounterVec
	runDuration   prometheus.Histogram
	watermarkTime *prometheus.GaugeVec
)

// Recorder exposes sync outcomes as Prometheus metrics.
type Recorder struct{}

// NewRecorder registers the sync metrics on the default registry. Safe
// to call more than once.
func NewRecorder() *Recorder {
	once.Do(func() {
		fetchPoints = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrosync_fetch_points_total",
				Help: "Observations fetched from providers",
			},
			[]string{"provider", "table"},
		)
		fetchErrors = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrosync_fetch_errors_total",
				Help: "Failed series fetches",
			},
			[]string{"provider", "table"},
		)
		commitRows = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrosync_commit_rows_total",
				Help: "Rows written by committed tables",
			},
			[]string{"table"},
		)
		commitErrors = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrosync_commit_errors_total",
				Help: "Failed table commits",
			},
			[]string{"table"},
		)
		reinits = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrosync_table_reinits_total",
				Help: "Tables rebuilt from scratch after a schema mismatch or first run",
			},
			[]string{"table"},
		)
		runDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "macrosync_run_duration_seconds",
				Help:    "Wall time of one full sweep",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		)
		watermarkTime = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "macrosync_table_watermark_seconds",
				Help: "Latest period present per table, as a unix timestamp",
			},
			[]string{"table"},
		)
	})
	return &Recorder{}
}

func (r *Recorder) RecordFetch(provider, table string, points int) {
	fetchPoints.WithLabelValues(provider, table).Add(float64(points))
}

func (r *Recorder) RecordFetchError(provider, table string) {
	fetchErrors.WithLabelValues(provider, table).Inc()
}

func (r *Recorder) RecordCommit(table string, rows int) {
	commitRows.WithLabelValues(table).Add(float64(rows))
}

func (r *Recorder) RecordCommitError(table string) {
	commitErrors.WithLabelValues(table).Inc()
}

func (r *Recorder) RecordReinit(table string) {
	reinits.WithLabelValues(table).Inc()
}

func (r *Recorder) RecordRunDuration(seconds float64) {
	runDuration.Observe(seconds)
}

func (r *Recorder) RecordWatermark(table string, ts time.Time) {
	watermarkTime.WithLabelValues(table).Set(float64(ts.Unix()))
}
