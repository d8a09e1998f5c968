// Package dashboard turns one Weather-Sales query into four time-aligned
// chart series (sales, temperature, precipitation, wind) and a short
// correlation summary.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// minCorrelationSamples is the fewest paired days a coefficient is reported for.
const minCorrelationSamples = 3

// Source answers Weather-Sales queries.
type Source interface {
	WeatherSales(ctx context.Context, q domain.WeatherSalesQuery) ([]domain.WeatherSalesRow, error)
}

// Point is one day on a chart. Days with no row, or a null metric, are gaps
// with Valid false; they are never drawn as zero.
type Point struct {
	Date  domain.Date `json:"date"`
	Value float64     `json:"value"`
	Alt   float64     `json:"alt,omitempty"` // value in the secondary unit
	Valid bool        `json:"valid"`
}

// Series is one chart line over the shared date axis.
type Series struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	AltUnit string  `json:"alt_unit,omitempty"`
	Points  []Point `json:"points"`
}

// Bounds returns the smallest and largest valid value, and false when the
// series has no valid points.
func (s Series) Bounds() (lo, hi float64, ok bool) {
	for _, p := range s.Points {
		if !p.Valid {
			continue
		}
		if !ok {
			lo, hi, ok = p.Value, p.Value, true
			continue
		}
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	return lo, hi, ok
}

// Correlation is the Pearson coefficient of daily sales against one weather
// metric. Coefficient is nil when there are too few days or no variance.
type Correlation struct {
	Metric      string   `json:"metric"`
	Coefficient *float64 `json:"coefficient"`
	Samples     int      `json:"samples"`
}

// WindExtreme is the windiest day in range with the sales made on it.
type WindExtreme struct {
	Date       domain.Date     `json:"date"`
	WindMPH    float64         `json:"max_wind_speed_mph"`
	DailySales decimal.Decimal `json:"daily_sales"`
}

// Dashboard is everything the four-chart view needs.
type Dashboard struct {
	Query         domain.WeatherSalesQuery `json:"query"`
	Rows          []domain.WeatherSalesRow `json:"rows"`
	Axis          []domain.Date            `json:"axis"`
	Sales         Series                   `json:"sales"`
	Temperature   Series                   `json:"temperature"`
	Precipitation Series                   `json:"precipitation"`
	Wind          Series                   `json:"wind"`
	Correlations  []Correlation            `json:"correlations"`
	ZeroSalesDays []domain.Date            `json:"zero_sales_days"`
	PeakWind      *WindExtreme             `json:"peak_wind,omitempty"`
}

// Reader loads dashboards from a Source. It is read-only.
type Reader struct {
	source Source
}

// NewReader creates a Reader over source.
func NewReader(source Source) *Reader {
	return &Reader{source: source}
}

// Load runs one Weather-Sales query and builds the dashboard from its rows.
func (r *Reader) Load(ctx context.Context, q domain.WeatherSalesQuery) (*Dashboard, error) {
	rows, err := r.source.WeatherSales(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	if countries := distinctCountries(rows); len(countries) > 1 {
		return nil, fmt.Errorf("%w: city %q exists in %s; set a country",
			domain.ErrInvalidQuery, q.City, strings.Join(countries, ", "))
	}
	return Build(q, rows), nil
}

func distinctCountries(rows []domain.WeatherSalesRow) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Country] {
			seen[r.Country] = true
			out = append(out, r.Country)
		}
	}
	sort.Strings(out)
	return out
}

// Build lays rows out over every day of q's range. Rows are expected to
// belong to one city; the first row wins for a repeated date.
func Build(q domain.WeatherSalesQuery, rows []domain.WeatherSalesRow) *Dashboard {
	axis := make([]domain.Date, 0, q.Days())
	for d := q.Start; !d.After(q.End); d = d.AddDays(1) {
		axis = append(axis, d)
	}

	byDate := make(map[domain.Date]domain.WeatherSalesRow, len(rows))
	for _, r := range rows {
		if _, ok := byDate[r.Date]; !ok {
			byDate[r.Date] = r
		}
	}

	d := &Dashboard{
		Query:         q,
		Rows:          rows,
		Axis:          axis,
		Sales:         Series{Name: "Daily sales", Unit: "currency"},
		Temperature:   Series{Name: "Average temperature", Unit: "°F", AltUnit: "°C"},
		Precipitation: Series{Name: "Average precipitation", Unit: "in", AltUnit: "mm"},
		Wind:          Series{Name: "Max wind speed", Unit: "mph"},
	}

	for _, day := range axis {
		r, ok := byDate[day]
		if !ok {
			gap := Point{Date: day}
			d.Sales.Points = append(d.Sales.Points, gap)
			d.Temperature.Points = append(d.Temperature.Points, gap)
			d.Precipitation.Points = append(d.Precipitation.Points, gap)
			d.Wind.Points = append(d.Wind.Points, gap)
			continue
		}

		sales, _ := r.DailySales.Float64()
		d.Sales.Points = append(d.Sales.Points, Point{Date: day, Value: sales, Valid: true})
		d.Temperature.Points = append(d.Temperature.Points, pair(day, r.AvgTempF, r.AvgTempC))
		d.Precipitation.Points = append(d.Precipitation.Points, pair(day, r.AvgPrecipIn, r.AvgPrecipMM))
		d.Wind.Points = append(d.Wind.Points, pair(day, r.MaxWindSpeedMPH, nil))

		if r.DailySales.IsZero() {
			d.ZeroSalesDays = append(d.ZeroSalesDays, day)
		}
		if r.MaxWindSpeedMPH != nil && (d.PeakWind == nil || *r.MaxWindSpeedMPH > d.PeakWind.WindMPH) {
			d.PeakWind = &WindExtreme{Date: day, WindMPH: *r.MaxWindSpeedMPH, DailySales: r.DailySales}
		}
	}

	d.Correlations = []Correlation{
		correlate("temperature", d.Sales, d.Temperature),
		correlate("precipitation", d.Sales, d.Precipitation),
		correlate("wind", d.Sales, d.Wind),
	}
	return d
}

func pair(day domain.Date, v, alt *float64) Point {
	if v == nil {
		return Point{Date: day}
	}
	p := Point{Date: day, Value: *v, Valid: true}
	if alt != nil {
		p.Alt = *alt
	}
	return p
}

// correlate pairs sales with metric on days where both are present.
func correlate(metric string, sales, weather Series) Correlation {
	var xs, ys []float64
	for i := range sales.Points {
		if sales.Points[i].Valid && weather.Points[i].Valid {
			xs = append(xs, sales.Points[i].Value)
			ys = append(ys, weather.Points[i].Value)
		}
	}
	c := Correlation{Metric: metric, Samples: len(xs)}
	if len(xs) < minCorrelationSamples {
		return c
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return c
	}
	c.Coefficient = &r
	return c
}
