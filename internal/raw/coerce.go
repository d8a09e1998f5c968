package raw

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/shopspring/decimal"
)

// Coerce converts a value read back from a database driver into the typed
// value ReadCSV would have produced for column c. Drivers differ in what they
// return (SQLite hands back text and int64, PostgreSQL []byte for NUMERIC and
// time.Time for DATE), so stored rows go through Coerce before decoding.
func Coerce(c Column, v any) (any, error) {
	if v == nil {
		if !c.Nullable && c.Type != Text {
			return nil, fmt.Errorf("column %s: unexpected NULL", c.Name)
		}
		if c.Type == Text && !c.Nullable {
			return "", nil
		}
		return nil, nil
	}

	switch x := v.(type) {
	case []byte:
		return coerceString(c, string(x))
	case string:
		return coerceString(c, x)
	}

	switch c.Type {
	case Int:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("column %s: non-integral value %v", c.Name, x)
			}
			return int64(x), nil
		}
	case Decimal:
		switch x := v.(type) {
		case decimal.Decimal:
			return x, nil
		case float64:
			return decimal.NewFromFloat(x), nil
		case int64:
			return decimal.NewFromInt(x), nil
		}
	case Float:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case Date:
		switch x := v.(type) {
		case domain.Date:
			return x, nil
		case time.Time:
			return domain.DateOf(x), nil
		}
	case Timestamp:
		if x, ok := v.(time.Time); ok {
			return wallClock(x), nil
		}
	case Bool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		}
	}
	return nil, fmt.Errorf("column %s: cannot convert %T to %s", c.Name, v, c.Type)
}

func coerceString(c Column, s string) (any, error) {
	if c.Type == Timestamp {
		// Drivers may render stored timestamps with a zone suffix.
		if t, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", s); err == nil {
			return wallClock(t), nil
		}
	}
	if s == "" && c.Nullable && c.Type != Text {
		return nil, nil
	}
	v, err := parseCell(c, s)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", c.Name, err)
	}
	return v, nil
}
