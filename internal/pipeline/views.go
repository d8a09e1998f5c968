package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
)

// Views is every harmonized view computed from one snapshot.
type Views struct {
	Orders       []domain.HarmonizedOrder
	Weather      []domain.HarmonizedWeather
	Customers    []domain.Customer
	OrderAudit   domain.OrderAudit
	WeatherAudit domain.WeatherAudit
}

// Audit reports what the harmonization joins kept and dropped.
type Audit struct {
	Orders  domain.OrderAudit   `json:"orders"`
	Weather domain.WeatherAudit `json:"weather"`
}

// Views reads one snapshot and computes the harmonized views from it.
func (p *Pipeline) Views(ctx context.Context) (*Views, error) {
	tables, err := p.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	orders, orderAudit := domain.HarmonizeOrders(tables)
	weather, weatherAudit := domain.HarmonizeWeather(tables)
	p.recordAudit(orderAudit, weatherAudit)

	p.logger.Debug("views computed",
		"orders", len(orders),
		"orders_excluded", orderAudit.Excluded(),
		"weather_city_days", len(weather),
		"weather_excluded", weatherAudit.Excluded(),
	)

	return &Views{
		Orders:       orders,
		Weather:      weather,
		Customers:    tables.Customers,
		OrderAudit:   orderAudit,
		WeatherAudit: weatherAudit,
	}, nil
}

// WeatherSales computes the Weather-Sales view for q. Invalid queries fail
// with domain.ErrInvalidQuery before any data is read.
func (p *Pipeline) WeatherSales(ctx context.Context, q domain.WeatherSalesQuery) ([]domain.WeatherSalesRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	defer p.observe("weather_sales", time.Now())

	v, err := p.Views(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := domain.WeatherSales(v.Weather, v.Orders, q)
	if err != nil {
		return nil, err
	}
	p.metrics.ViewRows.WithLabelValues("weather_sales").Set(float64(len(rows)))
	return rows, nil
}

// Orders returns the analytics orders view.
func (p *Pipeline) Orders(ctx context.Context) ([]domain.HarmonizedOrder, error) {
	defer p.observe("orders", time.Now())

	v, err := p.Views(ctx)
	if err != nil {
		return nil, err
	}
	return domain.AnalyticsOrders(v.Orders), nil
}

// CustomerLoyalty returns per-customer purchase metrics.
func (p *Pipeline) CustomerLoyalty(ctx context.Context) ([]domain.CustomerMetrics, error) {
	defer p.observe("customer_loyalty", time.Now())

	v, err := p.Views(ctx)
	if err != nil {
		return nil, err
	}
	metrics := domain.CustomerLoyaltyMetrics(v.Customers, v.Orders)
	p.metrics.ViewRows.WithLabelValues("customer_loyalty").Set(float64(len(metrics)))
	return metrics, nil
}

// Audit returns the join counts of the current snapshot.
func (p *Pipeline) Audit(ctx context.Context) (Audit, error) {
	v, err := p.Views(ctx)
	if err != nil {
		return Audit{}, err
	}
	return Audit{Orders: v.OrderAudit, Weather: v.WeatherAudit}, nil
}

func (p *Pipeline) observe(view string, start time.Time) {
	p.metrics.ViewDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

func (p *Pipeline) recordAudit(o domain.OrderAudit, w domain.WeatherAudit) {
	p.metrics.ExcludedRows.WithLabelValues("orders", "missing_order_header").Set(float64(o.MissingOrderHeader))
	p.metrics.ExcludedRows.WithLabelValues("orders", "missing_truck").Set(float64(o.MissingTruck))
	p.metrics.ExcludedRows.WithLabelValues("orders", "missing_menu_item").Set(float64(o.MissingMenuItem))
	p.metrics.ExcludedRows.WithLabelValues("weather", "unmatched_postal_code").Set(float64(w.UnmatchedPostalCode))
	p.metrics.ExcludedRows.WithLabelValues("weather", "unmatched_city").Set(float64(w.UnmatchedCity))
	p.metrics.ViewRows.WithLabelValues("orders").Set(float64(o.Kept))
	p.metrics.ViewRows.WithLabelValues("weather").Set(float64(w.CityDays))
}
