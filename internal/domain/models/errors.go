package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedPeriod marks a period label the normalizer could not parse.
	// The observation carrying it is dropped, never the whole series.
	ErrMalformedPeriod = errors.New("malformed period label")

	// ErrTableMissing is returned by a store when the destination table
	// does not exist yet.
	ErrTableMissing = errors.New("table not found")
)

// PartialFailure reports one unreachable identifier. The orchestrator
// logs it and continues with the table's other columns.
type PartialFailure struct {
	Provider string
	Code     string
	Column   string
	Err      error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("fetch %s/%s for column %s: %v", e.Provider, e.Code, e.Column, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// SchemaMismatch reports a destination header that disagrees with the
// canonical one. It triggers an explicit, logged reinitialization.
type SchemaMismatch struct {
	Table string
	Want  []string
	Got   []string
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("table %s: header mismatch: want [%s], got [%s]",
		e.Table, strings.Join(e.Want, " "), strings.Join(e.Got, " "))
}

// CommitFailure reports a commit that could not be written. The prior
// persisted state is untouched; the table is retried on the next run.
type CommitFailure struct {
	Table string
	Err   error
}

func (e *CommitFailure) Error() string {
	return fmt.Sprintf("commit table %s: %v", e.Table, e.Err)
}

func (e *CommitFailure) Unwrap() error { return e.Err }
