package raw

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrMalformed marks a source record that does not fit its schema.
var ErrMalformed = errors.New("malformed record")

// LoadError locates a malformed record. Line is 1-based and counts the header.
type LoadError struct {
	Entity string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("load %s: line %d: %v", e.Entity, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: line %d, column %s: %v", e.Entity, e.Line, e.Column, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports every LoadError as ErrMalformed.
func (e *LoadError) Is(target error) bool { return target == ErrMalformed }

// Row holds one record's values in schema column order. Values are int64,
// string, decimal.Decimal, float64, domain.Date, time.Time, bool, or nil for
// NULL.
type Row []any

// CSVOptions controls how a delimited stream is read.
type CSVOptions struct {
	Delimiter rune
	Header    bool
}

// DefaultCSVOptions reads comma-separated files with a header line.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', Header: true}
}

const ctxCheckEvery = 1000

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
}

// ReadCSV parses every record of r against schema s. The first malformed
// record aborts the read with a *LoadError; no partial result is returned.
func ReadCSV(ctx context.Context, r io.Reader, s Schema, opts CSVOptions) ([]Row, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1

	if opts.Header {
		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Entity: s.Entity, Line: 1, Err: fmt.Errorf("%w: missing header", ErrMalformed)}
		}
		if err != nil {
			return nil, csvError(s.Entity, err)
		}
		if err := checkHeader(s, header); err != nil {
			return nil, err
		}
	}

	var rows []Row
	for {
		if len(rows)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("read %s: %w", s.Entity, err)
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(s.Entity, err)
		}
		line, _ := cr.FieldPos(0)

		row, err := ParseRecord(s, record)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				le.Line = line
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseRecord converts one record's text fields into typed values. The
// returned *LoadError has no line number; ReadCSV fills it in.
func ParseRecord(s Schema, record []string) (Row, error) {
	if len(record) != len(s.Columns) {
		return nil, &LoadError{
			Entity: s.Entity,
			Err:    fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, len(s.Columns), len(record)),
		}
	}
	row := make(Row, len(record))
	for i, c := range s.Columns {
		v, err := parseCell(c, record[i])
		if err != nil {
			return nil, &LoadError{Entity: s.Entity, Column: c.Name, Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
		}
		row[i] = v
	}
	return row, nil
}

func checkHeader(s Schema, header []string) error {
	if len(header) != len(s.Columns) {
		return &LoadError{
			Entity: s.Entity,
			Line:   1,
			Err:    fmt.Errorf("%w: header has %d columns, expected %d", ErrMalformed, len(header), len(s.Columns)),
		}
	}
	for i, c := range s.Columns {
		got := strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
		if !strings.EqualFold(got, c.Name) {
			return &LoadError{
				Entity: s.Entity,
				Line:   1,
				Column: c.Name,
				Err:    fmt.Errorf("%w: header column %d is %q", ErrMalformed, i+1, got),
			}
		}
	}
	return nil
}

func csvError(entity string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Entity: entity, Line: pe.Line, Err: fmt.Errorf("%w: %w", ErrMalformed, pe.Err)}
	}
	return fmt.Errorf("read %s: %w", entity, err)
}

func parseCell(c Column, cell string) (any, error) {
	if cell == "" {
		switch {
		case c.Nullable:
			return nil, nil
		case c.Type == Text:
			return "", nil
		default:
			return nil, errors.New("empty value in non-nullable column")
		}
	}
	if c.Type == Text {
		return cell, nil
	}

	v := strings.TrimSpace(cell)
	switch c.Type {
	case Int:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q", cell)
		}
		return n, nil
	case Decimal:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q", cell)
		}
		return d, nil
	case Float:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", cell)
		}
		return f, nil
	case Date:
		d, err := domain.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", cell)
		}
		return d, nil
	case Timestamp:
		ts, err := parseTimestamp(v)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", cell)
		}
		return ts, nil
	case Bool:
		b, err := parseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", cell)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", c.Type)
	}
}

// parseTimestamp keeps the wall clock as written and drops any offset.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return wallClock(t), nil
		}
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}
