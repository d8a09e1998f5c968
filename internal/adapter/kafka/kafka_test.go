package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/config"
	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func windyDay() domain.WeatherSalesRow {
	wind := 70.0
	return domain.WeatherSalesRow{
		Date:            domain.NewDate(2022, time.February, 15),
		City:            "Hamburg",
		Country:         "Germany",
		DailySales:      decimal.RequireFromString("100.50"),
		MaxWindSpeedMPH: &wind,
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2022, 3, 1, 6, 0, 0, 0, time.UTC)

	msg, err := serializeToMessage(windyDay(), now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Hamburg|2022-02-15"), msg.Key)
	assert.Contains(t, string(msg.Value), `"daily_sales":"100.5"`)
	assert.Contains(t, string(msg.Value), `"avg_temperature_fahrenheit":null`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "city", msg.Headers[0].Key)
	assert.Equal(t, []byte("Hamburg"), msg.Headers[0].Value)
	assert.Equal(t, "date", msg.Headers[1].Key)
	assert.Equal(t, []byte("2022-02-15"), msg.Headers[1].Value)
	assert.Equal(t, "exported_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var back domain.WeatherSalesRow
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, windyDay().Date, back.Date)
	assert.True(t, back.DailySales.Equal(decimal.RequireFromString("100.5")))
}

func TestPublishEmptyIsNoop(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaSinkTopic: "weather-sales"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Publish(context.Background(), nil))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RowsExported))
}
