package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxQueryDays bounds the inclusive date range of a Weather-Sales query.
const MaxQueryDays = 366

// ErrInvalidQuery is returned for malformed Weather-Sales queries.
var ErrInvalidQuery = errors.New("invalid weather-sales query")

// WeatherSalesQuery selects one city over an inclusive date range. Country is
// optional and narrows the match when a city name exists in several countries.
type WeatherSalesQuery struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
	Start   Date   `json:"start"`
	End     Date   `json:"end"`
}

// Validate reports whether q can be executed. Errors wrap ErrInvalidQuery.
func (q WeatherSalesQuery) Validate() error {
	if strings.TrimSpace(q.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidQuery)
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidQuery)
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidQuery, q.End, q.Start)
	}
	if days := q.Start.DaysUntil(q.End) + 1; days > MaxQueryDays {
		return fmt.Errorf("%w: range of %d days exceeds %d", ErrInvalidQuery, days, MaxQueryDays)
	}
	return nil
}

// Days returns the number of calendar days the query covers.
func (q WeatherSalesQuery) Days() int {
	return q.Start.DaysUntil(q.End) + 1
}

func (q WeatherSalesQuery) matches(date Date, city, country string) bool {
	if !date.Within(q.Start, q.End) {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(city), strings.TrimSpace(q.City)) {
		return false
	}
	if q.Country != "" && !strings.EqualFold(strings.TrimSpace(country), strings.TrimSpace(q.Country)) {
		return false
	}
	return true
}

// AnalyticsOrders is the analytics-layer orders view. It exposes harmonized
// orders unchanged so consumers depend on the analytics contract only.
func AnalyticsOrders(orders []HarmonizedOrder) []HarmonizedOrder {
	out := make([]HarmonizedOrder, len(orders))
	copy(out, orders)
	return out
}

// CustomerLoyaltyMetrics summarizes purchases per loyalty member. Only members
// with at least one harmonized order appear. Rows are sorted by customer id.
func CustomerLoyaltyMetrics(customers []Customer, orders []HarmonizedOrder) []CustomerMetrics {
	type acc struct {
		orders map[int64]struct{}
		trucks map[int64]struct{}
		total  decimal.Decimal
	}

	byCustomer := make(map[int64]*acc)
	for _, o := range orders {
		if o.CustomerID == nil {
			continue
		}
		a, ok := byCustomer[*o.CustomerID]
		if !ok {
			a = &acc{orders: make(map[int64]struct{}), trucks: make(map[int64]struct{}), total: decimal.Zero}
			byCustomer[*o.CustomerID] = a
		}
		a.orders[o.OrderID] = struct{}{}
		a.trucks[o.TruckID] = struct{}{}
		a.total = a.total.Add(o.Price)
	}

	seen := make(map[int64]struct{}, len(customers))
	out := make([]CustomerMetrics, 0, len(byCustomer))
	for _, c := range customers {
		a, ok := byCustomer[c.CustomerID]
		if !ok {
			continue
		}
		if _, dup := seen[c.CustomerID]; dup {
			continue
		}
		seen[c.CustomerID] = struct{}{}

		trucks := make([]int64, 0, len(a.trucks))
		for id := range a.trucks {
			trucks = append(trucks, id)
		}
		sort.Slice(trucks, func(i, j int) bool { return trucks[i] < trucks[j] })

		out = append(out, CustomerMetrics{
			CustomerID: c.CustomerID,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			City:       c.City,
			Country:    c.Country,
			Email:      c.Email,
			OrderCount: len(a.orders),
			TotalSales: a.total,
			TruckIDs:   trucks,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

type salesKey struct {
	date    Date
	city    string
	country string
}

// WeatherSales joins city-day weather with city-day sales for one query.
// Every weather row in range produces exactly one output row; a day with no
// sales reports zero, and a day with no weather is absent. Sales are summed
// per city-day before the join so they cannot be multiplied by the number of
// weather rows. Rows are sorted by date, then country.
func WeatherSales(weather []HarmonizedWeather, orders []HarmonizedOrder, q WeatherSalesQuery) ([]WeatherSalesRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sales := make(map[salesKey]decimal.Decimal)
	for _, o := range orders {
		if !q.matches(o.OrderDate, o.PrimaryCity, o.Country) {
			continue
		}
		k := salesKey{date: o.OrderDate, city: strings.TrimSpace(o.PrimaryCity), country: strings.TrimSpace(o.Country)}
		if cur, ok := sales[k]; ok {
			sales[k] = cur.Add(o.Price)
		} else {
			sales[k] = o.Price
		}
	}

	out := make([]WeatherSalesRow, 0, q.Days())
	for _, w := range weather {
		if !q.matches(w.Date, w.City, w.Country) {
			continue
		}
		daily, ok := sales[salesKey{date: w.Date, city: strings.TrimSpace(w.City), country: strings.TrimSpace(w.Country)}]
		if !ok {
			daily = decimal.Zero
		}
		out = append(out, WeatherSalesRow{
			Date:            w.Date,
			City:            w.City,
			Country:         w.Country,
			DailySales:      daily,
			AvgTempF:        copyFloat(w.AvgTempF),
			AvgTempC:        FahrenheitToCelsiusPtr(w.AvgTempF),
			AvgPrecipIn:     copyFloat(w.AvgPrecipIn),
			AvgPrecipMM:     InchToMillimeterPtr(w.AvgPrecipIn),
			MaxWindSpeedMPH: copyFloat(w.MaxWindSpeedMPH),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Country < out[j].Country
	})
	return out, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
