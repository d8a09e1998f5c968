package domain_test

import (
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/shopspring/decimal"
)

func f64(v float64) *float64 { return &v }

func i64(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) domain.Date { return domain.NewDate(2022, time.February, d) }

func ts(d, h, m int) time.Time {
	return time.Date(2022, time.February, d, h, m, 0, 0, time.UTC)
}

// hamburgTables is a small dataset around a Hamburg wind storm:
//   - Feb 15: one order of 100 at truck 1, 70 mph gusts
//   - Feb 16: weather only, no orders
//   - Feb 17: an order but no weather
//   - an order at truck 99, which is missing from the truck table
//   - weather at an unmapped postal code and at a city with no business
func hamburgTables() domain.Tables {
	return domain.Tables{
		OrderHeaders: []domain.OrderHeader{
			{OrderID: 1, TruckID: 1, CustomerID: i64(500), OrderTS: ts(15, 12, 30), OrderCurrency: "EUR", OrderTotal: dec("100")},
			{OrderID: 2, TruckID: 99, CustomerID: i64(500), OrderTS: ts(15, 13, 0), OrderCurrency: "EUR", OrderTotal: dec("30")},
			{OrderID: 3, TruckID: 1, OrderTS: ts(17, 9, 15), OrderCurrency: "EUR", OrderTotal: dec("25")},
			{OrderID: 4, TruckID: 2, CustomerID: i64(501), OrderTS: ts(15, 18, 0), OrderCurrency: "EUR", OrderTotal: dec("12.5")},
		},
		OrderLines: []domain.OrderLine{
			{OrderDetailID: 11, OrderID: 1, MenuItemID: 10, LineNumber: 1, Quantity: 2, UnitPrice: dec("30"), Price: dec("60")},
			{OrderDetailID: 12, OrderID: 1, MenuItemID: 11, LineNumber: 2, Quantity: 1, UnitPrice: dec("40"), Price: dec("40")},
			{OrderDetailID: 21, OrderID: 2, MenuItemID: 10, LineNumber: 1, Quantity: 1, UnitPrice: dec("30"), Price: dec("30")},
			{OrderDetailID: 31, OrderID: 3, MenuItemID: 11, LineNumber: 1, Quantity: 1, UnitPrice: dec("25"), Price: dec("25")},
			{OrderDetailID: 41, OrderID: 4, MenuItemID: 10, LineNumber: 1, Quantity: 1, UnitPrice: dec("12.5"), Price: dec("12.5")},
		},
		Trucks: []domain.Truck{
			{TruckID: 1, MenuTypeID: 1, PrimaryCity: "Hamburg", Region: "Hamburg", Country: "Germany", ISOCountryCode: "DE"},
			{TruckID: 2, MenuTypeID: 1, PrimaryCity: "Berlin", Region: "Berlin", Country: "Germany", ISOCountryCode: "DE", FranchiseFlag: true},
		},
		Menu: []domain.MenuItem{
			{MenuItemID: 10, MenuTypeID: 1, MenuType: "Hot Dogs", TruckBrandName: "Amped Up Franks", MenuItemName: "Bratwurst", ItemCategory: "Main", ItemSubcategory: "Hot Option", CostOfGoodsUSD: dec("4"), SalePriceUSD: dec("30")},
			{MenuItemID: 11, MenuTypeID: 1, MenuType: "Hot Dogs", TruckBrandName: "Amped Up Franks", MenuItemName: "Currywurst", ItemCategory: "Main", ItemSubcategory: "Hot Option", CostOfGoodsUSD: dec("5"), SalePriceUSD: dec("40")},
		},
		Customers: []domain.Customer{
			{CustomerID: 500, FirstName: "Lena", LastName: "Vogel", City: "Hamburg", Country: "Germany", PostalCode: "20095", Email: "lena@example.com", SignUpDate: domain.NewDate(2020, time.March, 1)},
			{CustomerID: 501, FirstName: "Jonas", LastName: "Beck", City: "Berlin", Country: "Germany", PostalCode: "10115", Email: "jonas@example.com", SignUpDate: domain.NewDate(2021, time.June, 9)},
			{CustomerID: 502, FirstName: "Mia", LastName: "Kraus", City: "Berlin", Country: "Germany", PostalCode: "10117", Email: "mia@example.com", SignUpDate: domain.NewDate(2021, time.July, 4)},
		},
		Locations: []domain.Location{
			{CountryID: 1, Country: "Germany", ISOCurrency: "EUR", ISOCountry: "DE", CityID: 1, City: "Hamburg", CityPopulation: i64(1841179)},
			{CountryID: 1, Country: "Germany", ISOCurrency: "EUR", ISOCountry: "DE", CityID: 2, City: "Berlin"},
		},
		PostalCodes: []domain.PostalCode{
			{PostalCode: "20095", Country: "DE", CityName: "Hamburg"},
			{PostalCode: "20097", Country: "DE", CityName: "Hamburg"},
			{PostalCode: "10115", Country: "DE", CityName: "Berlin"},
			{PostalCode: "80331", Country: "DE", CityName: "München"},
		},
		Weather: []domain.WeatherObservation{
			{Date: day(15), PostalCode: "20095", Country: "DE", AvgTempF: f64(35), TotPrecipIn: f64(0.5), MaxWindSpeedMPH: f64(70)},
			{Date: day(15), PostalCode: "20097", Country: "DE", AvgTempF: f64(37), MaxWindSpeedMPH: f64(60)},
			{Date: day(16), PostalCode: "20095", Country: "DE", AvgTempF: f64(30), TotPrecipIn: f64(0.1), MaxWindSpeedMPH: f64(55)},
			{Date: day(15), PostalCode: "10115", Country: "DE", AvgTempF: f64(33), TotPrecipIn: f64(0), MaxWindSpeedMPH: f64(20)},
			{Date: day(15), PostalCode: "99999", Country: "DE", AvgTempF: f64(40)},
			{Date: day(15), PostalCode: "80331", Country: "DE", AvgTempF: f64(41)},
		},
	}
}

func hamburgFebruary() domain.WeatherSalesQuery {
	return domain.WeatherSalesQuery{City: "Hamburg", Start: day(1), End: day(28)}
}
