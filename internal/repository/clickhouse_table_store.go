package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/pkg/clickhouse"
	applogger "MacroSync/pkg/logger"
)

// ClickHouseTableStore persists sync tables in ClickHouse. A commit
// builds the new state in a staging table and swaps it in with EXCHANGE
// TABLES, so readers only ever see the previous or the next complete
// state, never a partial one.
type ClickHouseTableStore struct {
	client   *clickhouse.Client
	db       *sql.DB
	database string
	log      *applogger.Logger
}

// NewClickHouseTableStore creates a table store on an existing client.
func NewClickHouseTableStore(client *clickhouse.Client, database string, log *applogger.Logger) *ClickHouseTableStore {
	return &ClickHouseTableStore{
		client:   client,
		db:       client.DB(),
		database: database,
		log:      log,
	}
}

// ReadState returns the persisted header in column order plus all rows
// sorted by date. Cells that are NULL in storage stay absent.
func (s *ClickHouseTableStore) ReadState(ctx context.Context, name string) ([]string, []models.Row, error) {
	header, err := s.readHeader(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("table %s: %w", name, models.ErrTableMissing)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		quoteColumns(header), s.qualified(name), quote(models.DateColumn))
	result, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("read rows %s: %w", name, err)
	}
	defer result.Close()

	var rows []models.Row
	for result.Next() {
		var date time.Time
		values := make([]sql.NullFloat64, len(header)-1)
		dest := make([]interface{}, 0, len(header))
		dest = append(dest, &date)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := result.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", name, err)
		}

		cells := make(map[string]float64, len(values))
		for i, v := range values {
			if v.Valid {
				cells[header[i+1]] = v.Float64
			}
		}
		rows = append(rows, models.Row{Date: date.UTC(), Cells: cells})
	}
	if err := result.Err(); err != nil {
		return nil, nil, fmt.Errorf("read rows %s: %w", name, err)
	}
	return header, rows, nil
}

// Commit writes the full state into a staging table and swaps it with
// the live one in a single DDL statement. On any error before the swap
// the live table is untouched.
func (s *ClickHouseTableStore) Commit(ctx context.Context, name string, header []string, rows []models.Row) error {
	staging := name + "_staging"

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.qualified(staging)); err != nil {
		return fmt.Errorf("drop stale staging %s: %w", staging, err)
	}

	cols := make([]string, 0, len(header))
	cols = append(cols, quote(models.DateColumn)+" Date")
	for _, h := range header[1:] {
		cols = append(cols, quote(h)+" Nullable(Float64)")
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s) ENGINE = MergeTree ORDER BY %s",
		s.qualified(staging), strings.Join(cols, ", "), quote(models.DateColumn))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create staging %s: %w", staging, err)
	}

	if err := s.insertRows(ctx, staging, header, rows); err != nil {
		return err
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		swap := fmt.Sprintf("EXCHANGE TABLES %s AND %s", s.qualified(staging), s.qualified(name))
		if _, err := s.db.ExecContext(ctx, swap); err != nil {
			return fmt.Errorf("exchange %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.qualified(staging)); err != nil {
			s.log.Warn("drop retired staging table failed",
				applogger.String("table", staging),
				applogger.Error(err),
			)
		}
		return nil
	}

	rename := fmt.Sprintf("RENAME TABLE %s TO %s", s.qualified(staging), s.qualified(name))
	if _, err := s.db.ExecContext(ctx, rename); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Health delegates to the client ping.
func (s *ClickHouseTableStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close closes the underlying connection pool.
func (s *ClickHouseTableStore) Close() error {
	return s.client.Close()
}

func (s *ClickHouseTableStore) readHeader(ctx context.Context, name string) ([]string, error) {
	result, err := s.db.QueryContext(ctx,
		"SELECT name FROM system.columns WHERE database = ? AND table = ? ORDER BY position",
		s.database, name)
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", name, err)
	}
	defer result.Close()

	var header []string
	for result.Next() {
		var col string
		if err := result.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan header %s: %w", name, err)
		}
		header = append(header, col)
	}
	return header, result.Err()
}

func (s *ClickHouseTableStore) insertRows(ctx context.Context, table string, header []string, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s)", s.qualified(table), quoteColumns(header)))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]interface{}, 0, len(header))
		args = append(args, row.Date)
		for _, col := range header[1:] {
			if v, ok := row.Cells[col]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append row %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("send batch %s: %w", table, err)
	}
	return nil
}

func (s *ClickHouseTableStore) tableExists(ctx context.Context, name string) (bool, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx,
		"SELECT count() FROM system.tables WHERE database = ? AND name = ?",
		s.database, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *ClickHouseTableStore) qualified(name string) string {
	return quote(s.database) + "." + quote(name)
}

func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "") + "`"
}

func quoteColumns(header []string) string {
	quoted := make([]string, len(header))
	for i, h := range header {
		quoted[i] = quote(h)
	}
	return strings.Join(quoted, ", ")
}
