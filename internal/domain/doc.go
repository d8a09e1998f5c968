// Package domain models the food-truck sales and daily weather datasets and
// the views derived from them.
//
// # Layers
//
// Raw tables mirror the source files one-to-one and are held in [Tables].
// Every derived view is a pure function of a Tables value:
//
//	raw (Tables)
//	  ├─ HarmonizeOrders   -> []HarmonizedOrder    (one row per order line)
//	  └─ HarmonizeWeather  -> []HarmonizedWeather  (one row per city per day)
//	analytics
//	  ├─ AnalyticsOrders         (pass-through of harmonized orders)
//	  ├─ CustomerLoyaltyMetrics  (per-customer totals)
//	  └─ WeatherSales            (city-day weather joined with city-day sales)
//
// Nothing derived is stored; views are recomputed from a snapshot on every read.
//
// # Join Policy
//
// Orders: order lines are inner-joined to their header, truck and menu item.
// A line whose header, truck or menu item does not resolve is dropped and
// counted in [OrderAudit]. This is a data-quality filter, not an error.
// Customer loyalty is a left join so guest orders are kept.
//
// Weather: observations resolve postal code -> city through the postal code
// reference, then city -> business location through the country table.
// Observations for postal codes or cities the business does not operate in
// are dropped and counted in [WeatherAudit].
//
// # Postal Code Collapse
//
// Several postal codes map to one city. HarmonizeWeather collapses them to
// city-day grain before any sales join:
//
//	temperature:   mean of non-null observations
//	precipitation: mean of non-null observations
//	wind speed:    max of non-null observations
//
// Sales are aggregated to city-day grain separately and joined 1:1, so the
// number of postal codes per city never changes a sales figure.
//
// # Dates
//
// Order dates are the wall-clock date of order_ts exactly as written in the
// source file. No timezone normalization is done against the weather feed,
// whose dates are in its own reporting timezone. Orders placed near midnight
// can therefore land on the neighbouring weather day; this is a known
// limitation.
//
// # Units
//
// Source weather is imperial (°F, inches, mph). Celsius and millimetre values
// are never stored; they are derived from the imperial field whenever a row
// is built. See [FahrenheitToCelsius] and [InchToMillimeter].
package domain
