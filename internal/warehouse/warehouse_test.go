package warehouse_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
	"github.com/couchcryptid/weather-sales-pipeline/internal/warehouse"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	Replace(ctx context.Context, s raw.Schema, rows []raw.Row) error
	Rows(ctx context.Context, s raw.Schema) ([]raw.Row, error)
	Snapshot(ctx context.Context) (domain.Tables, error)
	RowCount(ctx context.Context, s raw.Schema) (int, error)
	CheckReadiness(ctx context.Context) error
	Close() error
}

var (
	_ store = (*warehouse.Warehouse)(nil)
	_ store = (*warehouse.Memory)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openSQLite(t *testing.T) *warehouse.Warehouse {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warehouse.db")
	w, err := warehouse.Open(context.Background(), warehouse.DriverSQLite, path, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func stores(t *testing.T) map[string]store {
	t.Helper()
	return map[string]store{
		"sqlite": openSQLite(t),
		"memory": warehouse.NewMemory(),
	}
}

func parse(t *testing.T, entity, csv string) (raw.Schema, []raw.Row) {
	t.Helper()
	s, ok := raw.Lookup(entity)
	require.True(t, ok)
	rows, err := raw.ReadCSV(context.Background(), strings.NewReader(csv), s, raw.DefaultCSVOptions())
	require.NoError(t, err)
	return s, rows
}

const (
	orderHeaderCSV = "order_id,truck_id,customer_id,order_ts,order_currency,order_total\n" +
		"1,1,500,2022-02-15 12:30:00.25,EUR,100.00\n" +
		"2,1,,2022-02-16 08:00:00,EUR,19.99\n"
	truckCSV = "truck_id,menu_type_id,primary_city,region,country,iso_country_code,franchise_flag\n" +
		"1,1,Hamburg,Hamburg,Germany,DE,1\n" +
		"2,1,Berlin,Berlin,Germany,DE,0\n"
	weatherCSV = "date_valid_std,postal_code,country,avg_temperature_air_2m_f,tot_precipitation_in,max_wind_speed_100m_mph\n" +
		"2022-02-15,20095,DE,35.5,,70\n" +
		"2022-02-15,20097,DE,,0.25,\n"
	countryCSV = "country_id,country,iso_currency,iso_country,city_id,city,city_population\n" +
		"1,Germany,EUR,DE,1,Hamburg,1841179\n" +
		"1,Germany,EUR,DE,2,Berlin,\n"
	customerCSV = "customer_id,first_name,last_name,city,country,postal_code,e_mail,sign_up_date\n" +
		"500,Lena,Vogel,Hamburg,Germany,20095,lena@example.com,2020-03-01\n"
)

func TestReplaceAndSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for entity, csv := range map[string]string{
				raw.EntityOrderHeader: orderHeaderCSV,
				raw.EntityTruck:       truckCSV,
				raw.EntityWeather:     weatherCSV,
				raw.EntityCountry:     countryCSV,
				raw.EntityCustomer:    customerCSV,
			} {
				s, rows := parse(t, entity, csv)
				require.NoError(t, st.Replace(ctx, s, rows))
			}

			tables, err := st.Snapshot(ctx)
			require.NoError(t, err)

			require.Len(t, tables.OrderHeaders, 2)
			h := tables.OrderHeaders[0]
			assert.Equal(t, int64(1), h.OrderID)
			require.NotNil(t, h.CustomerID)
			assert.Equal(t, int64(500), *h.CustomerID)
			assert.Equal(t, time.Date(2022, 2, 15, 12, 30, 0, 250_000_000, time.UTC), h.OrderTS)
			assert.True(t, decimal.RequireFromString("100").Equal(h.OrderTotal))
			assert.Nil(t, tables.OrderHeaders[1].CustomerID)
			assert.True(t, decimal.RequireFromString("19.99").Equal(tables.OrderHeaders[1].OrderTotal))

			require.Len(t, tables.Trucks, 2)
			assert.True(t, tables.Trucks[0].FranchiseFlag)
			assert.False(t, tables.Trucks[1].FranchiseFlag)

			require.Len(t, tables.Weather, 2)
			assert.Equal(t, domain.NewDate(2022, time.February, 15), tables.Weather[0].Date)
			require.NotNil(t, tables.Weather[0].AvgTempF)
			assert.InDelta(t, 35.5, *tables.Weather[0].AvgTempF, 1e-9)
			assert.Nil(t, tables.Weather[0].TotPrecipIn)
			assert.Nil(t, tables.Weather[1].AvgTempF)
			assert.Nil(t, tables.Weather[1].MaxWindSpeedMPH)

			require.Len(t, tables.Locations, 2)
			assert.Nil(t, tables.Locations[1].CityPopulation)

			require.Len(t, tables.Customers, 1)
			assert.Equal(t, domain.NewDate(2020, time.March, 1), tables.Customers[0].SignUpDate)

			assert.Empty(t, tables.OrderLines)
			assert.Empty(t, tables.PostalCodes)
		})
	}
}

func TestReplaceIsWholesale(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s, rows := parse(t, raw.EntityTruck, truckCSV)
			require.NoError(t, st.Replace(ctx, s, rows))
			require.NoError(t, st.Replace(ctx, s, rows))

			n, err := st.RowCount(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, 2, n, "reload must replace, not append")

			require.NoError(t, st.Replace(ctx, s, nil))
			n, err = st.RowCount(ctx, s)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestRowsMatchLoadedRows(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s, rows := parse(t, raw.EntityWeather, weatherCSV)
			require.NoError(t, st.Replace(ctx, s, rows))

			got, err := st.Rows(ctx, s)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(rows, got, cmp.Comparer(func(a, b domain.Date) bool { return a == b })))
		})
	}
}

func TestFailedReplaceKeepsPreviousContents(t *testing.T) {
	ctx := context.Background()
	w := openSQLite(t)

	s, rows := parse(t, raw.EntityTruck, truckCSV)
	require.NoError(t, w.Replace(ctx, s, rows))

	bad := []raw.Row{
		{int64(3), int64(1), "Munich", "Bavaria", "Germany", "DE", false},
		{nil, int64(1), "Cologne", "NRW", "Germany", "DE", false},
	}
	err := w.Replace(ctx, s, bad)
	require.Error(t, err)

	n, err := w.RowCount(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReplaceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, rows := parse(t, raw.EntityTruck, truckCSV)
	assert.Error(t, warehouse.NewMemory().Replace(ctx, s, rows))
	assert.Error(t, openSQLite(t).Replace(ctx, s, rows))
}

func TestCheckReadiness(t *testing.T) {
	ctx := context.Background()

	w := openSQLite(t)
	assert.NoError(t, w.CheckReadiness(ctx))

	m := warehouse.NewMemory()
	assert.NoError(t, m.CheckReadiness(ctx))
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.CheckReadiness(ctx), warehouse.ErrClosed)
	_, err := m.Snapshot(ctx)
	assert.ErrorIs(t, err, warehouse.ErrClosed)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := warehouse.Open(context.Background(), "oracle", "x", discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported warehouse driver")
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "warehouse.db")

	w, err := warehouse.Open(ctx, warehouse.DriverSQLite, path, discardLogger())
	require.NoError(t, err)
	s, rows := parse(t, raw.EntityTruck, truckCSV)
	require.NoError(t, w.Replace(ctx, s, rows))
	require.NoError(t, w.Close())

	w, err = warehouse.Open(ctx, warehouse.DriverSQLite, path, discardLogger())
	require.NoError(t, err)
	defer w.Close()

	n, err := w.RowCount(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "reopening must not drop loaded data")
}
