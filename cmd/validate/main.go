// Command validate checks a directory of raw CSV extracts before it is loaded
// into the warehouse. It parses every entity with the production loader, runs
// the harmonization joins in memory and reports what they would drop, then
// cross-checks order totals, weather coverage and the Weather-Sales sums.
//
// Usage:
//
//	go run ./cmd/validate -dir data/raw
//	go run ./cmd/validate -dir data/raw -strict
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/observability"
	"github.com/couchcryptid/weather-sales-pipeline/internal/pipeline"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
	"github.com/couchcryptid/weather-sales-pipeline/internal/warehouse"
	"github.com/shopspring/decimal"
)

// maxReported caps the detail lines printed per phase.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// flagf records an error in strict mode and a warning otherwise.
func (p *phase) flagf(strict bool, format string, args ...any) {
	if strict {
		p.errorf(format, args...)
		return
	}
	p.warnf(format, args...)
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory containing <entity>.csv files")
	strict := flag.Bool("strict", false, "treat rows dropped by harmonization joins as failures")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dir, *strict))
}

func run(dir string, strict bool) int {
	ctx := context.Background()

	fmt.Println("=== Weather-Sales Raw Data Validation ===")
	fmt.Println()

	store := warehouse.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(store, raw.DefaultCSVOptions(), logger, observability.NewMetricsForTesting())

	parse := validateParse(ctx, p, dir)
	if !parse.passed() {
		report([]*phase{parse})
		return 1
	}

	tables, err := store.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: snapshot: %v\n", err)
		return 1
	}
	orders, orderAudit := domain.HarmonizeOrders(tables)
	weather, weatherAudit := domain.HarmonizeWeather(tables)

	phases := []*phase{
		parse,
		validateOrderJoins(orderAudit, strict),
		validateOrderTotals(tables),
		validateWeatherJoins(weatherAudit, strict),
		validateWeatherCoverage(tables, orders, weather, strict),
		validateSalesInvariant(orders, weather),
	}

	fmt.Printf("Rows: %d order lines, %d harmonized lines, %d weather observations, %d city-days\n\n",
		len(tables.OrderLines), len(orders), len(tables.Weather), len(weather))

	if report(phases) {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// report prints the phase table and details. It returns true when every
// phase passed.
func report(phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		printDetails("error", p.errors)
		printDetails("warn", p.warnings)
	}
	return allPassed
}

func printDetails(kind string, lines []string) {
	for i, l := range lines {
		if i == maxReported {
			fmt.Printf("  ... %d more\n", len(lines)-maxReported)
			return
		}
		fmt.Printf("  [%s %d] %s\n", kind, i+1, l)
	}
}

// ── Phase 1: Parse ──
// Every entity file exists and loads with the production parser.

func validateParse(ctx context.Context, p *pipeline.Pipeline, dir string) *phase {
	ph := &phase{name: "Phase 1: Raw files parse"}
	for _, s := range raw.Schemas() {
		path := filepath.Join(dir, s.Entity+".csv")
		f, err := os.Open(path)
		if err != nil {
			ph.errorf("%s: %v", s.Entity, err)
			continue
		}
		res, err := p.LoadEntity(ctx, s.Entity, f)
		f.Close()
		if err != nil {
			ph.errorf("%v", err)
			continue
		}
		if res.Rows == 0 {
			ph.warnf("%s: file has no records", s.Entity)
		}
	}
	return ph
}

// ── Phase 2: Order joins ──

func validateOrderJoins(a domain.OrderAudit, strict bool) *phase {
	ph := &phase{name: "Phase 2: Order lines resolve"}
	if a.MissingOrderHeader > 0 {
		ph.flagf(strict, "%d order line(s) reference a missing order header", a.MissingOrderHeader)
	}
	if a.MissingTruck > 0 {
		ph.flagf(strict, "%d order line(s) belong to orders at an unknown truck", a.MissingTruck)
	}
	if a.MissingMenuItem > 0 {
		ph.flagf(strict, "%d order line(s) reference an unknown menu item", a.MissingMenuItem)
	}
	if a.UnresolvedCustomers > 0 {
		ph.warnf("%d order line(s) carry a customer id with no loyalty record", a.UnresolvedCustomers)
	}
	if a.DuplicateKeys > 0 {
		ph.warnf("%d duplicate reference key(s); the first row wins", a.DuplicateKeys)
	}
	return ph
}

// ── Phase 3: Order totals ──
// The header total equals the sum of its line prices.

func validateOrderTotals(t domain.Tables) *phase {
	ph := &phase{name: "Phase 3: Order totals match lines"}

	sums := make(map[int64]decimal.Decimal, len(t.OrderHeaders))
	for _, l := range t.OrderLines {
		sums[l.OrderID] = sums[l.OrderID].Add(l.Price)
	}
	for _, h := range t.OrderHeaders {
		lines, ok := sums[h.OrderID]
		if !ok {
			ph.warnf("order %d: header has no lines", h.OrderID)
			continue
		}
		if !lines.Equal(h.OrderTotal) {
			ph.errorf("order %d: order_total %s, lines sum to %s", h.OrderID, h.OrderTotal, lines)
		}
	}
	return ph
}

// ── Phase 4: Weather joins ──

func validateWeatherJoins(a domain.WeatherAudit, strict bool) *phase {
	ph := &phase{name: "Phase 4: Weather resolves to business cities"}
	if a.UnmatchedPostalCode > 0 {
		ph.flagf(strict, "%d observation(s) have a postal code missing from postal_codes", a.UnmatchedPostalCode)
	}
	if a.UnmatchedCity > 0 {
		ph.flagf(strict, "%d observation(s) map to a city with no business location", a.UnmatchedCity)
	}
	return ph
}

// ── Phase 5: Weather coverage ──
// Every day a truck city sold something has weather for that city.

func validateWeatherCoverage(t domain.Tables, orders []domain.HarmonizedOrder, weather []domain.HarmonizedWeather, strict bool) *phase {
	ph := &phase{name: "Phase 5: Weather covers sales days"}

	type cityDay struct {
		city, country string
		date          domain.Date
	}
	covered := make(map[cityDay]bool, len(weather))
	for _, w := range weather {
		covered[cityDay{w.City, w.Country, w.Date}] = true
	}

	missing := make(map[string]int)
	seen := make(map[cityDay]bool)
	for _, o := range orders {
		k := cityDay{o.PrimaryCity, o.Country, o.OrderDate}
		if seen[k] {
			continue
		}
		seen[k] = true
		if !covered[k] {
			missing[o.PrimaryCity+", "+o.Country]++
		}
	}

	cities := make([]string, 0, len(missing))
	for c := range missing {
		cities = append(cities, c)
	}
	sort.Strings(cities)
	for _, c := range cities {
		ph.flagf(strict, "%s: %d sales day(s) have no weather and drop out of Weather-Sales", c, missing[c])
	}

	truckCities := make(map[string]bool)
	for _, tr := range t.Trucks {
		truckCities[tr.PrimaryCity+"|"+tr.Country] = true
	}
	weatherCities := make(map[string]bool)
	for _, w := range weather {
		weatherCities[w.City+"|"+w.Country] = true
	}
	var dark []string
	for c := range truckCities {
		if !weatherCities[c] {
			dark = append(dark, c)
		}
	}
	sort.Strings(dark)
	for _, c := range dark {
		ph.warnf("truck city %s has no weather at all", c)
	}
	return ph
}

// ── Phase 6: Sales invariant ──
// Daily sales from the Weather-Sales view equal the harmonized line prices on
// weather days, however many postal codes a city has.

func validateSalesInvariant(orders []domain.HarmonizedOrder, weather []domain.HarmonizedWeather) *phase {
	ph := &phase{name: "Phase 6: Weather-Sales sums are exact"}

	type cityKey struct{ city, country string }
	type span struct{ first, last domain.Date }

	spans := make(map[cityKey]span)
	weatherDays := make(map[cityKey]map[domain.Date]bool)
	for _, w := range weather {
		k := cityKey{w.City, w.Country}
		s, ok := spans[k]
		if !ok || w.Date.Before(s.first) {
			s.first = w.Date
		}
		if !ok || w.Date.After(s.last) {
			s.last = w.Date
		}
		spans[k] = s
		if weatherDays[k] == nil {
			weatherDays[k] = make(map[domain.Date]bool)
		}
		weatherDays[k][w.Date] = true
	}

	expected := make(map[cityKey]decimal.Decimal)
	for _, o := range orders {
		k := cityKey{o.PrimaryCity, o.Country}
		if weatherDays[k][o.OrderDate] {
			expected[k] = expected[k].Add(o.Price)
		}
	}

	keys := make([]cityKey, 0, len(spans))
	for k := range spans {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].country != keys[j].country {
			return keys[i].country < keys[j].country
		}
		return keys[i].city < keys[j].city
	})

	for _, k := range keys {
		s := spans[k]
		got := decimal.Zero
		rows := 0
		// Queries are bounded, so long histories are summed window by window.
		for start := s.first; !start.After(s.last); start = start.AddDays(domain.MaxQueryDays) {
			end := start.AddDays(domain.MaxQueryDays - 1)
			if end.After(s.last) {
				end = s.last
			}
			q := domain.WeatherSalesQuery{City: k.city, Country: k.country, Start: start, End: end}
			out, err := domain.WeatherSales(weather, orders, q)
			if err != nil {
				ph.errorf("%s, %s: %v", k.city, k.country, err)
				break
			}
			rows += len(out)
			for _, r := range out {
				got = got.Add(r.DailySales)
			}
		}
		if rows != len(weatherDays[k]) {
			ph.errorf("%s, %s: %d Weather-Sales rows for %d weather days", k.city, k.country, rows, len(weatherDays[k]))
		}
		if !got.Equal(expected[k]) {
			ph.errorf("%s, %s: Weather-Sales total %s, order lines total %s", k.city, k.country, got, expected[k])
		}
	}
	return ph
}
