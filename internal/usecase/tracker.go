package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/domain/repository"
	applogger "MacroSync/pkg/logger"
)

// TableState is what the tracker learned about a destination table
// before a sync pass.
type TableState struct {
	Exists       bool
	Reinit       bool
	Rows         []models.Row
	Watermark    time.Time
	HasWatermark bool
}

// StateTracker reads a table's persisted header and decides whether the
// run can proceed incrementally or must reinitialize from scratch.
type StateTracker struct {
	store repository.TableStore
	log   *applogger.Logger
}

// NewStateTracker creates a tracker over the given store.
func NewStateTracker(store repository.TableStore, log *applogger.Logger) *StateTracker {
	return &StateTracker{store: store, log: log}
}

// Inspect compares the persisted header against the canonical one. A
// missing table or a header mismatch forces reinitialization; mismatches
// are logged loudly since they discard history.
func (t *StateTracker) Inspect(ctx context.Context, name string, header []string) (TableState, error) {
	got, rows, err := t.store.ReadState(ctx, name)
	if errors.Is(err, models.ErrTableMissing) {
		return TableState{Reinit: true}, nil
	}
	if err != nil {
		return TableState{}, fmt.Errorf("read state %s: %w", name, err)
	}

	if !models.HeaderEqual(got, header) {
		mismatch := &models.SchemaMismatch{Table: name, Want: header, Got: got}
		t.log.Warn("destination header mismatch, reinitializing table",
			applogger.String("table", name),
			applogger.Error(mismatch),
		)
		return TableState{Exists: true, Reinit: true}, nil
	}

	state := TableState{Exists: true, Rows: rows}
	if len(rows) > 0 {
		state.Watermark = rows[len(rows)-1].Date
		state.HasWatermark = true
	}
	return state, nil
}
