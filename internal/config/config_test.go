package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.WarehouseDriver)
	assert.Equal(t, "weather_sales.db", cfg.WarehouseDSN)
	assert.Equal(t, "data/raw", cfg.DataDir)
	assert.Equal(t, ',', cfg.CSVDelimiter)
	assert.True(t, cfg.CSVHeader)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.QueryTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "weather-sales", cfg.KafkaSinkTopic)

	q := cfg.DashboardQuery()
	assert.Equal(t, "Hamburg", q.City)
	assert.Empty(t, q.Country)
	assert.Equal(t, domain.NewDate(2022, time.February, 1), q.Start)
	assert.Equal(t, domain.NewDate(2022, time.February, 28), q.End)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("WAREHOUSE_DRIVER", "Postgres")
	t.Setenv("WAREHOUSE_DSN", "postgres://u:p@db:5432/sales?sslmode=disable")
	t.Setenv("DATA_DIR", "/data")
	t.Setenv("CSV_DELIMITER", `\t`)
	t.Setenv("CSV_HEADER", "false")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("QUERY_TIMEOUT", "2s")
	t.Setenv("DASHBOARD_CITY", "Berlin")
	t.Setenv("DASHBOARD_COUNTRY", "Germany")
	t.Setenv("DASHBOARD_START", "2022-03-01")
	t.Setenv("DASHBOARD_END", "2022-03-31")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.WarehouseDriver)
	assert.Equal(t, "postgres://u:p@db:5432/sales?sslmode=disable", cfg.WarehouseDSN)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, '\t', cfg.CSVDelimiter)
	assert.False(t, cfg.CSVHeader)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, "Berlin", cfg.DashboardCity)
	assert.Equal(t, "Germany", cfg.DashboardCountry)
	assert.Equal(t, domain.NewDate(2022, time.March, 31), cfg.DashboardEnd)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"query timeout", "QUERY_TIMEOUT", "0s", "QUERY_TIMEOUT"},
		{"driver", "WAREHOUSE_DRIVER", "oracle", "WAREHOUSE_DRIVER"},
		{"delimiter", "CSV_DELIMITER", ";;", "CSV_DELIMITER"},
		{"quote delimiter", "CSV_DELIMITER", `"`, "CSV_DELIMITER"},
		{"header", "CSV_HEADER", "maybe", "CSV_HEADER"},
		{"dashboard start", "DASHBOARD_START", "Feb 1", "DASHBOARD_START"},
		{"dashboard range", "DASHBOARD_END", "2021-01-01", "DASHBOARD_*"},
		{"brokers", "KAFKA_BROKERS", " , ", "KAFKA_BROKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{",": ',', ";": ';', "|": '|', "tab": '\t', `\t`: '\t'} {
		got, err := parseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
