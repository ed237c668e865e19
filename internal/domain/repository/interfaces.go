package repository

import (
	"context"
	"time"

	"MacroSync/internal/domain/models"
)

// SourceAdapter fetches observations for one provider family. The returned
// series is already normalized to the family's frequency class. A window the
// provider legitimately has no data for yields an empty series, not an error.
type SourceAdapter interface {
	Provider() string
	Frequency() models.Frequency
	Fetch(ctx context.Context, code string, start, end time.Time) (models.Series, error)
}

// TableStore is the persisted tabular store seen by this core: read the whole
// current state, replace it wholesale in one logical operation.
type TableStore interface {
	// ReadState returns the header and rows of a table, in the order written.
	// Returns models.ErrTableMissing when the table does not exist.
	ReadState(ctx context.Context, name string) (header []string, rows []models.Row, err error)
	// Commit replaces header and rows atomically from the caller's point of
	// view. On failure the prior persisted state remains authoritative.
	Commit(ctx context.Context, name string, header []string, rows []models.Row) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records sync outcomes.
type Metrics interface {
	RecordFetch(provider, table string, points int)
	RecordFetchError(provider, table string)
	RecordCommit(table string, rows int)
	RecordCommitError(table string)
	RecordReinit(table string)
	RecordRunDuration(seconds float64)
	RecordWatermark(table string, ts time.Time)
}

// EventPublisher emits run summaries for downstream consumers.
type EventPublisher interface {
	PublishRunReport(ctx context.Context, report *models.RunReport) error
	Close() error
}
