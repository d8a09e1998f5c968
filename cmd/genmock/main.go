// Command genmock writes a deterministic set of raw CSV extracts, one file per
// entity, for local runs of the pipeline and the dashboard. The data covers
// January to March 2022 for Hamburg, Berlin and Seattle and reproduces the
// February 2022 North Sea storms: on the stormiest Hamburg days no truck sells
// anything.
//
// Usage:
//
//	go run ./cmd/genmock -out data/raw
//	go run ./cmd/genmock -out data/raw -seed 7 -orders-per-day 40
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
	"github.com/shopspring/decimal"
)

var (
	firstDay = domain.NewDate(2022, time.January, 1)
	lastDay  = domain.NewDate(2022, time.March, 31)
)

// Hamburg days with storm-force wind and no sales.
var stormDays = map[domain.Date]bool{
	domain.NewDate(2022, time.February, 16): true,
	domain.NewDate(2022, time.February, 17): true,
	domain.NewDate(2022, time.February, 18): true,
	domain.NewDate(2022, time.February, 19): true,
}

type city struct {
	id          int64
	countryID   int64
	name        string
	country     string
	iso         string
	currency    string
	population  int64
	postalCodes []string
	baseTempF   float64
}

var cities = []city{
	{id: 1, countryID: 1, name: "Hamburg", country: "Germany", iso: "DE", currency: "EUR", population: 1841179, postalCodes: []string{"20095", "20097", "22041"}, baseTempF: 38},
	{id: 2, countryID: 1, name: "Berlin", country: "Germany", iso: "DE", currency: "EUR", population: 3644826, postalCodes: []string{"10115", "10117"}, baseTempF: 35},
	{id: 3, countryID: 2, name: "Seattle", country: "United States", iso: "US", currency: "USD", population: 737015, postalCodes: []string{"98101"}, baseTempF: 44},
}

type menuItem struct {
	id, menuTypeID        int64
	menuType, brand, name string
	category, sub         string
	cost, price           string
}

var menu = []menuItem{
	{10, 1, "Hot Dogs", "Amped Up Franks", "Bratwurst", "Main", "Hot Option", "1.50", "6.00"},
	{11, 1, "Hot Dogs", "Amped Up Franks", "Currywurst", "Main", "Hot Option", "1.75", "6.50"},
	{12, 1, "Hot Dogs", "Amped Up Franks", "Lemonade", "Beverage", "Cold Option", "0.50", "3.50"},
	{20, 2, "Ice Cream", "Freezing Point", "Sundae", "Dessert", "Cold Option", "1.00", "5.00"},
	{21, 2, "Ice Cream", "Freezing Point", "Waffle Cone", "Dessert", "Cold Option", "0.90", "4.50"},
	{30, 3, "Ramen", "Kitakata Ramen Bar", "Tonkotsu", "Main", "Hot Option", "2.50", "11.00"},
	{31, 3, "Ramen", "Kitakata Ramen Bar", "Green Tea", "Beverage", "Hot Option", "0.40", "3.00"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for <entity>.csv files")
	seed := flag.Uint64("seed", 20220216, "random seed")
	ordersPerDay := flag.Int("orders-per-day", 24, "orders per truck and day on a normal day")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	g := newGenerator(*seed, *ordersPerDay)
	g.build()

	for _, s := range raw.Schemas() {
		path := filepath.Join(*out, s.Entity+".csv")
		if err := writeCSV(path, s, g.records[s.Entity]); err != nil {
			return err
		}
		fmt.Printf("%-20s %7d rows  %s\n", s.Entity, len(g.records[s.Entity]), path)
	}
	return nil
}

type generator struct {
	rng          *rand.Rand
	ordersPerDay int
	records      map[string][][]string

	nextOrder  int64
	nextDetail int64
}

func newGenerator(seed uint64, ordersPerDay int) *generator {
	return &generator{
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ordersPerDay: ordersPerDay,
		records:      make(map[string][][]string),
		nextOrder:    1,
		nextDetail:   1,
	}
}

func (g *generator) add(entity string, fields ...string) {
	g.records[entity] = append(g.records[entity], fields)
}

func (g *generator) build() {
	type truck struct {
		id   int64
		city city
		menu int64
	}
	var trucks []truck

	for _, c := range cities {
		g.add(raw.EntityCountry, strconv.FormatInt(c.countryID, 10), c.country, c.currency, c.iso,
			strconv.FormatInt(c.id, 10), c.name, strconv.FormatInt(c.population, 10))
		for _, pc := range c.postalCodes {
			g.add(raw.EntityPostalCode, pc, c.iso, c.name)
		}
		for m := int64(1); m <= 3; m++ {
			t := truck{id: c.id*10 + m, city: c, menu: m}
			trucks = append(trucks, t)
			franchise := "0"
			if m == 3 {
				franchise = "1"
			}
			g.add(raw.EntityTruck, strconv.FormatInt(t.id, 10), strconv.FormatInt(m, 10),
				c.name, c.name, c.country, c.iso, franchise)
		}
	}
	// Postal code the business has no location for.
	g.add(raw.EntityPostalCode, "80331", "DE", "München")

	for _, m := range menu {
		g.add(raw.EntityMenu, strconv.FormatInt(m.id, 10), strconv.FormatInt(m.menuTypeID, 10),
			m.menuType, m.brand, m.name, m.category, m.sub, m.cost, m.price)
	}

	var customers []int64
	firstNames := []string{"Lena", "Jonas", "Mia", "Noah", "Emma", "Paul", "Ava", "Liam"}
	lastNames := []string{"Vogel", "Beck", "Krause", "Wolf", "Smith", "Nguyen", "Meyer", "Park"}
	for i := 0; i < 60; i++ {
		c := cities[i%len(cities)]
		id := int64(1000 + i)
		customers = append(customers, id)
		first, last := firstNames[g.rng.IntN(len(firstNames))], lastNames[g.rng.IntN(len(lastNames))]
		signUp := domain.NewDate(2019, time.January, 1).AddDays(g.rng.IntN(1000))
		g.add(raw.EntityCustomer, strconv.FormatInt(id, 10), first, last, c.name, c.country,
			c.postalCodes[0], fmt.Sprintf("%s.%s%d@example.com", first, last, i), signUp.String())
	}

	for day := firstDay; !day.After(lastDay); day = day.AddDays(1) {
		for _, c := range cities {
			g.weather(day, c)
		}
		for _, t := range trucks {
			if t.city.name == "Hamburg" && stormDays[day] {
				continue
			}
			n := g.ordersPerDay/2 + g.rng.IntN(g.ordersPerDay)
			for i := 0; i < n; i++ {
				g.order(day, t.id, t.menu, t.city.currency, customers)
			}
		}
	}

	// An order placed at a truck that is not in the truck table.
	g.order(domain.NewDate(2022, time.February, 15), 999, 1, "EUR", nil)
}

func (g *generator) weather(day domain.Date, c city) {
	// Seasonal swing over the quarter plus daily noise.
	season := 8 * math.Sin(float64(firstDay.DaysUntil(day))/90*math.Pi)
	for _, pc := range c.postalCodes {
		temp := c.baseTempF + season + g.rng.NormFloat64()*4
		precip := math.Max(0, g.rng.NormFloat64()*0.15+0.05)
		wind := 12 + g.rng.Float64()*18

		if c.name == "Hamburg" && stormDays[day] {
			wind = 65 + g.rng.Float64()*25
			precip = 0.4 + g.rng.Float64()*0.6
		}

		fields := []string{day.String(), pc, c.iso, fmt1(temp), fmt2(precip), fmt1(wind)}
		// Sensors occasionally miss a reading.
		if g.rng.IntN(40) == 0 {
			fields[4] = ""
		}
		g.add(raw.EntityWeather, fields...)
	}
}

func (g *generator) order(day domain.Date, truckID, menuType int64, currency string, customers []int64) {
	var items []menuItem
	for _, m := range menu {
		if m.menuTypeID == menuType {
			items = append(items, m)
		}
	}

	orderID := g.nextOrder
	g.nextOrder++

	ts := day.Time().Add(time.Duration(10*3600+g.rng.IntN(10*3600)) * time.Second)
	customer := ""
	if len(customers) > 0 && g.rng.IntN(3) > 0 {
		customer = strconv.FormatInt(customers[g.rng.IntN(len(customers))], 10)
	}

	total := decimal.Zero
	lines := 1 + g.rng.IntN(3)
	for line := 1; line <= lines; line++ {
		m := items[g.rng.IntN(len(items))]
		qty := 1 + g.rng.IntN(3)
		unit := decimal.RequireFromString(m.price)
		price := unit.Mul(decimal.NewFromInt(int64(qty)))
		total = total.Add(price)

		g.add(raw.EntityOrderDetail, strconv.FormatInt(g.nextDetail, 10), strconv.FormatInt(orderID, 10),
			strconv.FormatInt(m.id, 10), strconv.Itoa(line), strconv.Itoa(qty),
			unit.StringFixed(2), price.StringFixed(2))
		g.nextDetail++
	}

	g.add(raw.EntityOrderHeader, strconv.FormatInt(orderID, 10), strconv.FormatInt(truckID, 10), customer,
		ts.Format("2006-01-02 15:04:05"), currency, total.StringFixed(2))
}

func writeCSV(path string, s raw.Schema, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.ColumnNames()); err != nil {
		return fmt.Errorf("write %s header: %w", s.Entity, err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", s.Entity, err)
	}
	return nil
}

func fmt1(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) }
func fmt2(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
