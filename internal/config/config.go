package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/warehouse"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	WarehouseDriver string
	WarehouseDSN    string

	DataDir      string
	CSVDelimiter rune
	CSVHeader    bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	QueryTimeout    time.Duration

	// Default dashboard query.
	DashboardCity    string
	DashboardCountry string
	DashboardStart   domain.Date
	DashboardEnd     domain.Date

	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first when
// present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	queryTimeout, err := parsePositiveDuration("QUERY_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	delimiter, err := parseDelimiter(sharedcfg.EnvOrDefault("CSV_DELIMITER", ","))
	if err != nil {
		return nil, err
	}
	header, err := strconv.ParseBool(sharedcfg.EnvOrDefault("CSV_HEADER", "true"))
	if err != nil {
		return nil, errors.New("invalid CSV_HEADER")
	}
	start, err := domain.ParseDate(sharedcfg.EnvOrDefault("DASHBOARD_START", "2022-02-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_START: %w", err)
	}
	end, err := domain.ParseDate(sharedcfg.EnvOrDefault("DASHBOARD_END", "2022-02-28"))
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_END: %w", err)
	}

	cfg := &Config{
		WarehouseDriver:  strings.ToLower(sharedcfg.EnvOrDefault("WAREHOUSE_DRIVER", warehouse.DriverSQLite)),
		WarehouseDSN:     sharedcfg.EnvOrDefault("WAREHOUSE_DSN", "weather_sales.db"),
		DataDir:          sharedcfg.EnvOrDefault("DATA_DIR", "data/raw"),
		CSVDelimiter:     delimiter,
		CSVHeader:        header,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		QueryTimeout:     queryTimeout,
		DashboardCity:    sharedcfg.EnvOrDefault("DASHBOARD_CITY", "Hamburg"),
		DashboardCountry: os.Getenv("DASHBOARD_COUNTRY"),
		DashboardStart:   start,
		DashboardEnd:     end,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "weather-sales"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DashboardQuery returns the configured default Weather-Sales query.
func (c *Config) DashboardQuery() domain.WeatherSalesQuery {
	return domain.WeatherSalesQuery{
		City:    c.DashboardCity,
		Country: c.DashboardCountry,
		Start:   c.DashboardStart,
		End:     c.DashboardEnd,
	}
}

func (c *Config) validate() error {
	switch c.WarehouseDriver {
	case warehouse.DriverSQLite, warehouse.DriverPostgres:
	default:
		return fmt.Errorf("invalid WAREHOUSE_DRIVER %q: want sqlite or postgres", c.WarehouseDriver)
	}
	if c.WarehouseDSN == "" {
		return errors.New("WAREHOUSE_DSN is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if err := c.DashboardQuery().Validate(); err != nil {
		return fmt.Errorf("invalid DASHBOARD_* settings: %w", err)
	}
	return nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` || s == "tab" {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid CSV_DELIMITER %q", s)
	}
	return r, nil
}
