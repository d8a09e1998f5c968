// Package warehouse stores raw tables in a SQL database. Each entity is
// replaced wholesale in one transaction, and every read of derived views
// starts from a Snapshot taken inside one read transaction.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Warehouse is a raw-table store backed by database/sql.
type Warehouse struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the warehouse and creates any missing raw tables.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Warehouse, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	if driver == DriverSQLite {
		// One connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	attempts := 1
	if driver == DriverPostgres {
		// A server started alongside the pipeline may still be booting.
		attempts = pingAttempts
	}
	if err := pingWithRetry(ctx, db, attempts, initialPingBackoff, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	w := &Warehouse{db: db, dialect: d, logger: logger}
	if err := w.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("warehouse opened", "driver", driver)
	return w, nil
}

const (
	pingAttempts       = 5
	initialPingBackoff = 250 * time.Millisecond
	maxPingBackoff     = 4 * time.Second
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// pingWithRetry pings up to attempts times, doubling the wait between tries.
func pingWithRetry(ctx context.Context, db pinger, attempts int, backoff time.Duration, logger *slog.Logger) error {
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil || attempt >= attempts {
			return err
		}
		logger.Warn("warehouse not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		}
		backoff = retry.NextBackoff(backoff, maxPingBackoff)
	}
}

// sqliteDSN adds the pragmas the warehouse relies on unless the caller set them.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Migrate creates every raw table that does not exist yet.
func (w *Warehouse) Migrate(ctx context.Context) error {
	for _, s := range raw.Schemas() {
		if _, err := w.db.ExecContext(ctx, w.dialect.createTable(s)); err != nil {
			return fmt.Errorf("create table %s: %w", s.Table, err)
		}
	}
	return nil
}

// Replace swaps the contents of s's table for rows in one transaction. On any
// error the previous contents remain.
func (w *Warehouse) Replace(ctx context.Context, s raw.Schema, rows []raw.Row) (err error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", s.Entity, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				w.logger.Warn("rollback failed", "entity", s.Entity, "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+quote(s.Table)); err != nil {
		return fmt.Errorf("clear %s: %w", s.Table, err)
	}
	if err = w.dialect.bulkInsert(ctx, tx, s, rows, w.dialect.bind); err != nil {
		return fmt.Errorf("load %s: %w", s.Table, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", s.Table, err)
	}
	return nil
}

// Rows reads every row of s's table.
func (w *Warehouse) Rows(ctx context.Context, s raw.Schema) ([]raw.Row, error) {
	tx, err := w.db.BeginTx(ctx, w.dialect.snapshotTx)
	if err != nil {
		return nil, fmt.Errorf("begin read %s: %w", s.Entity, err)
	}
	defer func() { _ = tx.Rollback() }()

	return readRows(ctx, tx, s)
}

// Snapshot reads every raw table inside one transaction and decodes them.
func (w *Warehouse) Snapshot(ctx context.Context) (domain.Tables, error) {
	var tables domain.Tables

	tx, err := w.db.BeginTx(ctx, w.dialect.snapshotTx)
	if err != nil {
		return tables, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range raw.Schemas() {
		rows, err := readRows(ctx, tx, s)
		if err != nil {
			return domain.Tables{}, err
		}
		if err := raw.Decode(s.Entity, rows, &tables); err != nil {
			return domain.Tables{}, err
		}
	}
	return tables, nil
}

// RowCount returns the number of rows in s's table.
func (w *Warehouse) RowCount(ctx context.Context, s raw.Schema) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(s.Table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.Table, err)
	}
	return n, nil
}

// CheckReadiness returns nil once the database answers and every raw table
// exists.
func (w *Warehouse) CheckReadiness(ctx context.Context) error {
	if err := w.db.PingContext(ctx); err != nil {
		return fmt.Errorf("warehouse unreachable: %w", err)
	}
	for _, s := range raw.Schemas() {
		rows, err := w.db.QueryContext(ctx, "SELECT 1 FROM "+quote(s.Table)+" LIMIT 1")
		if err != nil {
			return fmt.Errorf("table %s not available: %w", s.Table, err)
		}
		_ = rows.Close()
	}
	return nil
}

// Close releases the database handle.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

func readRows(ctx context.Context, tx *sql.Tx, s raw.Schema) ([]raw.Row, error) {
	// Raw tables carry no key; rows come back in engine order.
	query := fmt.Sprintf("SELECT %s FROM %s", quotedColumns(s), quote(s.Table))
	rs, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Table, err)
	}
	defer rs.Close()

	var out []raw.Row
	dest := make([]any, len(s.Columns))
	ptrs := make([]any, len(s.Columns))
	for rs.Next() {
		for i := range dest {
			dest[i] = nil
			ptrs[i] = &dest[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Table, err)
		}
		row := make(raw.Row, len(s.Columns))
		for i, c := range s.Columns {
			v, err := raw.Coerce(c, dest[i])
			if err != nil {
				return nil, fmt.Errorf("read %s row %d: %w", s.Table, len(out)+1, err)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.Table, err)
	}
	return out, nil
}
