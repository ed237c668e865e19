package models

import "time"

// TableReport summarizes one table's outcome within a sync run.
type TableReport struct {
	Table          string     `json:"table"`
	Reinitialized  bool       `json:"reinitialized,omitempty"`
	Backfill       bool       `json:"backfill,omitempty"`
	RowsBefore     int        `json:"rows_before"`
	RowsAfter      int        `json:"rows_after"`
	SeriesFetched  int        `json:"series_fetched"`
	SeriesFailed   []string   `json:"series_failed,omitempty"`
	Watermark      *time.Time `json:"watermark,omitempty"`
	Committed      bool       `json:"committed"`
	Error          string     `json:"error,omitempty"`
}

// RunReport summarizes a full sync sweep across all configured tables.
type RunReport struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Backfill   bool          `json:"backfill,omitempty"`
	Tables     []TableReport `json:"tables"`
}

// Failed returns the names of tables whose commit did not succeed.
func (r *RunReport) Failed() []string {
	var out []string
	for _, t := range r.Tables {
		if !t.Committed {
			out = append(out, t.Table)
		}
	}
	return out
}
