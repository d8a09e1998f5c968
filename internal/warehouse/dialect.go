package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Supported warehouse drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const timestampLayout = "2006-01-02 15:04:05.999999999"

// dialect isolates the SQL differences between the supported engines.
type dialect struct {
	name       string
	columnType func(raw.ColumnType) string
	bindBool   func(bool) any
	// bulkInsert writes rows inside tx after the table has been emptied.
	bulkInsert func(ctx context.Context, tx *sql.Tx, s raw.Schema, rows []raw.Row, bind func(raw.Column, any) any) error
	// snapshotTx is the isolation used for multi-table reads; nil means the
	// driver default.
	snapshotTx *sql.TxOptions
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return dialect{
			name: DriverSQLite,
			columnType: func(t raw.ColumnType) string {
				switch t {
				case raw.Int, raw.Bool:
					return "INTEGER"
				case raw.Float:
					return "REAL"
				default:
					// Decimals, dates and timestamps are stored as text so
					// the driver never converts them.
					return "TEXT"
				}
			},
			bindBool: func(b bool) any {
				if b {
					return int64(1)
				}
				return int64(0)
			},
			bulkInsert: insertRows,
		}, nil
	case DriverPostgres:
		return dialect{
			name: DriverPostgres,
			columnType: func(t raw.ColumnType) string {
				switch t {
				case raw.Int:
					return "BIGINT"
				case raw.Decimal:
					return "NUMERIC"
				case raw.Float:
					return "DOUBLE PRECISION"
				case raw.Date:
					return "DATE"
				case raw.Timestamp:
					return "TIMESTAMP"
				case raw.Bool:
					return "BOOLEAN"
				default:
					return "TEXT"
				}
			},
			bindBool:   func(b bool) any { return b },
			bulkInsert: copyRows,
			snapshotTx: &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
}

func (d dialect) createTable(s raw.Schema) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		def := quote(c.Name) + " " + d.columnType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(s.Table), strings.Join(cols, ", "))
}

// bind converts a typed raw value into a driver argument.
func (d dialect) bind(c raw.Column, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return x.String()
	case domain.Date:
		return x.String()
	case time.Time:
		return x.Format(timestampLayout)
	case bool:
		return d.bindBool(x)
	default:
		return v
	}
}

func insertRows(ctx context.Context, tx *sql.Tx, s raw.Schema, rows []raw.Row, bind func(raw.Column, any) any) error {
	placeholders := make([]string, len(s.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(s.Table), quotedColumns(s), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(s.Columns))
	for n, row := range rows {
		for i, c := range s.Columns {
			args[i] = bind(c, row[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", n+1, err)
		}
	}
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, s raw.Schema, rows []raw.Row, bind func(raw.Column, any) any) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(s.Table, s.ColumnNames()...))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	args := make([]any, len(s.Columns))
	for n, row := range rows {
		for i, c := range s.Columns {
			args[i] = bind(c, row[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy row %d: %w", n+1, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}
	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quotedColumns(s raw.Schema) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = quote(c.Name)
	}
	return strings.Join(cols, ", ")
}
