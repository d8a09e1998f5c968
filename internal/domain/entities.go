package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderHeader is one point-of-sale order.
type OrderHeader struct {
	OrderID       int64           `json:"order_id"`
	TruckID       int64           `json:"truck_id"`
	CustomerID    *int64          `json:"customer_id,omitempty"` // nil for guest orders
	OrderTS       time.Time       `json:"order_ts"`
	OrderCurrency string          `json:"order_currency"`
	OrderTotal    decimal.Decimal `json:"order_total"`
}

// OrderLine is one line item of an order.
type OrderLine struct {
	OrderDetailID int64           `json:"order_detail_id"`
	OrderID       int64           `json:"order_id"`
	MenuItemID    int64           `json:"menu_item_id"`
	LineNumber    int64           `json:"line_number"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Price         decimal.Decimal `json:"price"`
}

// Truck is a food truck and the city it operates in.
type Truck struct {
	TruckID        int64  `json:"truck_id"`
	MenuTypeID     int64  `json:"menu_type_id"`
	PrimaryCity    string `json:"primary_city"`
	Region         string `json:"region"`
	Country        string `json:"country"`
	ISOCountryCode string `json:"iso_country_code"`
	FranchiseFlag  bool   `json:"franchise_flag"`
}

// MenuItem is a sellable item on a truck brand's menu.
type MenuItem struct {
	MenuItemID      int64           `json:"menu_item_id"`
	MenuTypeID      int64           `json:"menu_type_id"`
	MenuType        string          `json:"menu_type"`
	TruckBrandName  string          `json:"truck_brand_name"`
	MenuItemName    string          `json:"menu_item_name"`
	ItemCategory    string          `json:"item_category"`
	ItemSubcategory string          `json:"item_subcategory"`
	CostOfGoodsUSD  decimal.Decimal `json:"cost_of_goods_usd"`
	SalePriceUSD    decimal.Decimal `json:"sale_price_usd"`
}

// Customer is a loyalty program member.
type Customer struct {
	CustomerID int64  `json:"customer_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Email      string `json:"e_mail"`
	SignUpDate Date   `json:"sign_up_date"`
}

// Location is a city the business operates in, with its country.
type Location struct {
	CountryID      int64  `json:"country_id"`
	Country        string `json:"country"`
	ISOCurrency    string `json:"iso_currency"`
	ISOCountry     string `json:"iso_country"`
	CityID         int64  `json:"city_id"`
	City           string `json:"city"`
	CityPopulation *int64 `json:"city_population,omitempty"`
}

// PostalCode maps a weather-feed postal code to a city name.
type PostalCode struct {
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"` // ISO 3166 alpha-2
	CityName   string `json:"city_name"`
}

// WeatherObservation is one day of weather at one postal code, in imperial
// units. Any metric may be missing.
type WeatherObservation struct {
	Date            Date     `json:"date_valid_std"`
	PostalCode      string   `json:"postal_code"`
	Country         string   `json:"country"` // ISO 3166 alpha-2
	AvgTempF        *float64 `json:"avg_temperature_air_2m_f,omitempty"`
	TotPrecipIn     *float64 `json:"tot_precipitation_in,omitempty"`
	MaxWindSpeedMPH *float64 `json:"max_wind_speed_100m_mph,omitempty"`
}

// Tables is a consistent snapshot of every raw table. Views take a Tables
// value and never reach for storage themselves.
type Tables struct {
	OrderHeaders []OrderHeader
	OrderLines   []OrderLine
	Trucks       []Truck
	Menu         []MenuItem
	Customers    []Customer
	Locations    []Location
	PostalCodes  []PostalCode
	Weather      []WeatherObservation
}

// HarmonizedOrder is one order line enriched with its order, truck, menu item
// and, when known, customer.
type HarmonizedOrder struct {
	OrderID         int64           `json:"order_id"`
	OrderDetailID   int64           `json:"order_detail_id"`
	LineNumber      int64           `json:"line_number"`
	OrderTS         time.Time       `json:"order_ts"`
	OrderDate       Date            `json:"order_date"`
	OrderCurrency   string          `json:"order_currency"`
	TruckID         int64           `json:"truck_id"`
	TruckBrandName  string          `json:"truck_brand_name"`
	MenuType        string          `json:"menu_type"`
	PrimaryCity     string          `json:"primary_city"`
	Region          string          `json:"region"`
	Country         string          `json:"country"`
	FranchiseFlag   bool            `json:"franchise_flag"`
	MenuItemID      int64           `json:"menu_item_id"`
	MenuItemName    string          `json:"menu_item_name"`
	ItemCategory    string          `json:"item_category"`
	ItemSubcategory string          `json:"item_subcategory"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Price           decimal.Decimal `json:"price"`
	CustomerID      *int64          `json:"customer_id,omitempty"`
	FirstName       string          `json:"first_name,omitempty"`
	LastName        string          `json:"last_name,omitempty"`
}

// HarmonizedWeather is the weather of one business city on one day, collapsed
// over every postal code mapped to that city.
type HarmonizedWeather struct {
	Date            Date     `json:"date"`
	City            string   `json:"city"`
	Country         string   `json:"country"`
	ISOCountry      string   `json:"iso_country"`
	AvgTempF        *float64 `json:"avg_temperature_air_2m_f"`
	AvgPrecipIn     *float64 `json:"avg_precipitation_in"`
	MaxWindSpeedMPH *float64 `json:"max_wind_speed_100m_mph"`
	PostalCodes     int      `json:"postal_codes"`
}

// WeatherSalesRow is the terminal analytics row: one city-day of weather with
// the sales made there that day.
type WeatherSalesRow struct {
	Date            Date            `json:"date"`
	City            string          `json:"city_name"`
	Country         string          `json:"country_desc"`
	DailySales      decimal.Decimal `json:"daily_sales"`
	AvgTempF        *float64        `json:"avg_temperature_fahrenheit"`
	AvgTempC        *float64        `json:"avg_temperature_celsius"`
	AvgPrecipIn     *float64        `json:"avg_precipitation_inches"`
	AvgPrecipMM     *float64        `json:"avg_precipitation_millimeters"`
	MaxWindSpeedMPH *float64        `json:"max_wind_speed_100m_mph"`
}

// CustomerMetrics summarizes one loyalty member's purchases.
type CustomerMetrics struct {
	CustomerID int64           `json:"customer_id"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	City       string          `json:"city"`
	Country    string          `json:"country"`
	Email      string          `json:"e_mail"`
	OrderCount int             `json:"order_count"`
	TotalSales decimal.Decimal `json:"total_sales"`
	TruckIDs   []int64         `json:"visited_truck_ids"`
}
