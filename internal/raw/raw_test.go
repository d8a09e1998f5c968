package raw_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, entity string) raw.Schema {
	t.Helper()
	s, ok := raw.Lookup(entity)
	require.True(t, ok, "schema %s", entity)
	return s
}

func TestSchemas(t *testing.T) {
	schemas := raw.Schemas()
	require.Len(t, schemas, 8)

	seen := map[string]bool{}
	for _, s := range schemas {
		assert.NotEmpty(t, s.Table)
		assert.NotEmpty(t, s.Columns)
		assert.False(t, seen[s.Entity], "duplicate entity %s", s.Entity)
		seen[s.Entity] = true
	}

	s, ok := raw.Lookup("WEATHER_HISTORY_DAY")
	require.True(t, ok)
	assert.Equal(t, []string{
		"date_valid_std", "postal_code", "country",
		"avg_temperature_air_2m_f", "tot_precipitation_in", "max_wind_speed_100m_mph",
	}, s.ColumnNames())

	_, ok = raw.Lookup("nope")
	assert.False(t, ok)
}

func TestReadCSV(t *testing.T) {
	input := "order_id,truck_id,customer_id,order_ts,order_currency,order_total\n" +
		"1,10,500,2022-02-15 12:30:00,EUR,100.00\n" +
		"2,10,,2022-02-15T23:59:59+01:00,EUR,7.5\n"

	rows, err := raw.ReadCSV(context.Background(), strings.NewReader(input), mustSchema(t, raw.EntityOrderHeader), raw.DefaultCSVOptions())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0][0])
	assert.Equal(t, int64(500), rows[0][2])
	assert.Equal(t, time.Date(2022, 2, 15, 12, 30, 0, 0, time.UTC), rows[0][3])
	assert.True(t, decimal.RequireFromString("100").Equal(rows[0][5].(decimal.Decimal)))

	assert.Nil(t, rows[1][2], "empty nullable cell loads as NULL")
	assert.Equal(t, time.Date(2022, 2, 15, 23, 59, 59, 0, time.UTC), rows[1][3], "offset dropped, wall clock kept")
}

func TestReadCSVOptions(t *testing.T) {
	input := "20095;DE;Hamburg\n10115;DE;Berlin\n"

	rows, err := raw.ReadCSV(context.Background(), strings.NewReader(input), mustSchema(t, raw.EntityPostalCode),
		raw.CSVOptions{Delimiter: ';', Header: false})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, raw.Row{"10115", "DE", "Berlin"}, rows[1])
}

func TestReadCSVPreservesTextVerbatim(t *testing.T) {
	input := "postal_code,country,city_name\n 20095 ,DE,Hamburg \n"

	rows, err := raw.ReadCSV(context.Background(), strings.NewReader(input), mustSchema(t, raw.EntityPostalCode), raw.DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, raw.Row{" 20095 ", "DE", "Hamburg "}, rows[0])
}

func TestReadCSVMalformed(t *testing.T) {
	const header = "truck_id,menu_type_id,primary_city,region,country,iso_country_code,franchise_flag\n"

	tests := []struct {
		name   string
		input  string
		line   int
		column string
		msg    string
	}{
		{"wrong column count", header + "1,1,Hamburg,Hamburg,Germany,DE\n", 2, "", "expected 7 fields, got 6"},
		{"bad int", header + "1,1,Hamburg,Hamburg,Germany,DE,1\nx,1,Berlin,Berlin,Germany,DE,0\n", 3, "truck_id", "invalid int"},
		{"bad bool", header + "1,1,Hamburg,Hamburg,Germany,DE,maybe\n", 2, "franchise_flag", "invalid bool"},
		{"null in non-nullable", header + "1,,Hamburg,Hamburg,Germany,DE,1\n", 2, "menu_type_id", "empty value"},
		{"wrong header", "id,menu_type_id,primary_city,region,country,iso_country_code,franchise_flag\n", 1, "truck_id", "header column 1"},
		{"missing header", "", 1, "", "missing header"},
		{"bad quoting", header + "1,1,\"Ham\"burg,Hamburg,Germany,DE,1\n", 2, "", "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := raw.ReadCSV(context.Background(), strings.NewReader(tt.input), mustSchema(t, raw.EntityTruck), raw.DefaultCSVOptions())
			require.Error(t, err)
			assert.Nil(t, rows)
			assert.True(t, errors.Is(err, raw.ErrMalformed))

			var le *raw.LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, raw.EntityTruck, le.Entity)
			assert.Equal(t, tt.line, le.Line)
			assert.Equal(t, tt.column, le.Column)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadCSVCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := raw.ReadCSV(ctx, strings.NewReader("20095,DE,Hamburg\n"), mustSchema(t, raw.EntityPostalCode), raw.CSVOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseBool(t *testing.T) {
	s := mustSchema(t, raw.EntityTruck)
	for in, want := range map[string]bool{"1": true, "0": false, "TRUE": true, "false": false, "Y": true, "n": false} {
		row, err := raw.ParseRecord(s, []string{"1", "1", "Hamburg", "Hamburg", "Germany", "DE", in})
		require.NoError(t, err, in)
		assert.Equal(t, want, row[6], in)
	}
}

func TestDecode(t *testing.T) {
	input := "date_valid_std,postal_code,country,avg_temperature_air_2m_f,tot_precipitation_in,max_wind_speed_100m_mph\n" +
		"2022-02-15,20095,DE,35.5,,70\n"
	rows, err := raw.ReadCSV(context.Background(), strings.NewReader(input), mustSchema(t, raw.EntityWeather), raw.DefaultCSVOptions())
	require.NoError(t, err)

	var tables domain.Tables
	require.NoError(t, raw.Decode(raw.EntityWeather, rows, &tables))
	require.Len(t, tables.Weather, 1)

	obs := tables.Weather[0]
	assert.Equal(t, domain.NewDate(2022, time.February, 15), obs.Date)
	assert.Equal(t, "20095", obs.PostalCode)
	require.NotNil(t, obs.AvgTempF)
	assert.InDelta(t, 35.5, *obs.AvgTempF, 1e-9)
	assert.Nil(t, obs.TotPrecipIn)
	require.NotNil(t, obs.MaxWindSpeedMPH)
	assert.InDelta(t, 70, *obs.MaxWindSpeedMPH, 1e-9)
}

func TestDecodeErrors(t *testing.T) {
	var tables domain.Tables

	err := raw.Decode("unknown", nil, &tables)
	assert.ErrorContains(t, err, "unknown entity")

	err = raw.Decode(raw.EntityPostalCode, []raw.Row{{"20095", "DE"}}, &tables)
	assert.ErrorContains(t, err, "expected 3 values")

}

func TestDecodeRejectsMistypedValues(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		row    raw.Row
		want   string
	}{
		{"text id", raw.EntityTruck, raw.Row{"one", int64(1), "Hamburg", "Hamburg", "Germany", "DE", true}, "column truck_id: want int64, got string"},
		{"null id", raw.EntityTruck, raw.Row{nil, int64(1), "Hamburg", "Hamburg", "Germany", "DE", true}, "column truck_id: want int64, got <nil>"},
		{"int flag", raw.EntityTruck, raw.Row{int64(7), int64(1), "Hamburg", "Hamburg", "Germany", "DE", int64(1)}, "column franchise_flag: want bool"},
		{"text temperature", raw.EntityWeather, raw.Row{domain.NewDate(2022, time.February, 15), "20095", "DE", "36", nil, nil}, "want float64, got string"},
		{"float price", raw.EntityOrderDetail, raw.Row{int64(1), int64(1), int64(10), int64(1), int64(1), decimal.NewFromInt(6), 6.0}, "want decimal, got float64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tables domain.Tables
			err := raw.Decode(tt.entity, []raw.Row{tt.row}, &tables)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, domain.Tables{}, tables, "a mistyped row is not appended")
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		col  raw.Column
		in   any
		want any
	}{
		{"sqlite bool", raw.Column{Name: "f", Type: raw.Bool}, int64(1), true},
		{"postgres numeric", raw.Column{Name: "d", Type: raw.Decimal}, []byte("12.50"), decimal.RequireFromString("12.5")},
		{"postgres date", raw.Column{Name: "d", Type: raw.Date}, time.Date(2022, 2, 15, 0, 0, 0, 0, time.UTC), domain.NewDate(2022, time.February, 15)},
		{"text date", raw.Column{Name: "d", Type: raw.Date}, "2022-02-15", domain.NewDate(2022, time.February, 15)},
		{"text timestamp", raw.Column{Name: "ts", Type: raw.Timestamp}, "2022-02-15 12:30:00", time.Date(2022, 2, 15, 12, 30, 0, 0, time.UTC)},
		{"int as float", raw.Column{Name: "i", Type: raw.Int}, float64(42), int64(42)},
		{"nullable null", raw.Column{Name: "p", Type: raw.Int, Nullable: true}, nil, nil},
		{"text null", raw.Column{Name: "s", Type: raw.Text}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := raw.Coerce(tt.col, tt.in)
			require.NoError(t, err)
			if d, ok := tt.want.(decimal.Decimal); ok {
				assert.True(t, d.Equal(got.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := raw.Coerce(raw.Column{Name: "i", Type: raw.Int}, nil)
	assert.ErrorContains(t, err, "unexpected NULL")

	_, err = raw.Coerce(raw.Column{Name: "i", Type: raw.Int}, 1.5)
	assert.ErrorContains(t, err, "non-integral")
}
