// Package raw declares the raw table schemas and parses delimited source
// files into rows that match them. Raw rows are loaded verbatim: no
// deduplication, trimming of values, or referential checks happen here.
package raw

import (
	"fmt"
	"strings"
)

// ColumnType is the declared type of a raw column.
type ColumnType int

const (
	Int ColumnType = iota
	Text
	Decimal
	Float
	Date
	Timestamp
	Bool
)

func (t ColumnType) String() string {
	switch t {
	case Int:
		return "int"
	case Text:
		return "text"
	case Decimal:
		return "decimal"
	case Float:
		return "float"
	case Date:
		return "date"
	case Timestamp:
		return "timestamp"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column is one field of a raw table, in file order.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Schema describes one raw entity: the table it loads into and its columns in
// the order they appear in the source file.
type Schema struct {
	Entity  string
	Table   string
	Columns []Column
}

// ColumnNames returns the column names in file order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Entity names.
const (
	EntityOrderHeader = "order_header"
	EntityOrderDetail = "order_detail"
	EntityTruck       = "truck"
	EntityMenu        = "menu"
	EntityCustomer    = "customer_loyalty"
	EntityCountry     = "country"
	EntityPostalCode  = "postal_codes"
	EntityWeather     = "weather_history_day"
)

var schemas = []Schema{
	{
		Entity: EntityCountry,
		Table:  "raw_country",
		Columns: []Column{
			{Name: "country_id", Type: Int},
			{Name: "country", Type: Text},
			{Name: "iso_currency", Type: Text},
			{Name: "iso_country", Type: Text},
			{Name: "city_id", Type: Int},
			{Name: "city", Type: Text},
			{Name: "city_population", Type: Int, Nullable: true},
		},
	},
	{
		Entity: EntityTruck,
		Table:  "raw_truck",
		Columns: []Column{
			{Name: "truck_id", Type: Int},
			{Name: "menu_type_id", Type: Int},
			{Name: "primary_city", Type: Text},
			{Name: "region", Type: Text},
			{Name: "country", Type: Text},
			{Name: "iso_country_code", Type: Text},
			{Name: "franchise_flag", Type: Bool},
		},
	},
	{
		Entity: EntityMenu,
		Table:  "raw_menu",
		Columns: []Column{
			{Name: "menu_item_id", Type: Int},
			{Name: "menu_type_id", Type: Int},
			{Name: "menu_type", Type: Text},
			{Name: "truck_brand_name", Type: Text},
			{Name: "menu_item_name", Type: Text},
			{Name: "item_category", Type: Text},
			{Name: "item_subcategory", Type: Text},
			{Name: "cost_of_goods_usd", Type: Decimal},
			{Name: "sale_price_usd", Type: Decimal},
		},
	},
	{
		Entity: EntityCustomer,
		Table:  "raw_customer_loyalty",
		Columns: []Column{
			{Name: "customer_id", Type: Int},
			{Name: "first_name", Type: Text},
			{Name: "last_name", Type: Text},
			{Name: "city", Type: Text},
			{Name: "country", Type: Text},
			{Name: "postal_code", Type: Text},
			{Name: "e_mail", Type: Text},
			{Name: "sign_up_date", Type: Date},
		},
	},
	{
		Entity: EntityOrderHeader,
		Table:  "raw_order_header",
		Columns: []Column{
			{Name: "order_id", Type: Int},
			{Name: "truck_id", Type: Int},
			{Name: "customer_id", Type: Int, Nullable: true},
			{Name: "order_ts", Type: Timestamp},
			{Name: "order_currency", Type: Text},
			{Name: "order_total", Type: Decimal},
		},
	},
	{
		Entity: EntityOrderDetail,
		Table:  "raw_order_detail",
		Columns: []Column{
			{Name: "order_detail_id", Type: Int},
			{Name: "order_id", Type: Int},
			{Name: "menu_item_id", Type: Int},
			{Name: "line_number", Type: Int},
			{Name: "quantity", Type: Int},
			{Name: "unit_price", Type: Decimal},
			{Name: "price", Type: Decimal},
		},
	},
	{
		Entity: EntityPostalCode,
		Table:  "raw_postal_codes",
		Columns: []Column{
			{Name: "postal_code", Type: Text},
			{Name: "country", Type: Text},
			{Name: "city_name", Type: Text},
		},
	},
	{
		Entity: EntityWeather,
		Table:  "raw_weather_history_day",
		Columns: []Column{
			{Name: "date_valid_std", Type: Date},
			{Name: "postal_code", Type: Text},
			{Name: "country", Type: Text},
			{Name: "avg_temperature_air_2m_f", Type: Float, Nullable: true},
			{Name: "tot_precipitation_in", Type: Float, Nullable: true},
			{Name: "max_wind_speed_100m_mph", Type: Float, Nullable: true},
		},
	},
}

// Schemas returns every raw schema in load order.
func Schemas() []Schema {
	out := make([]Schema, len(schemas))
	copy(out, schemas)
	return out
}

// Lookup returns the schema for an entity name, case-insensitively.
func Lookup(entity string) (Schema, bool) {
	for _, s := range schemas {
		if strings.EqualFold(s.Entity, strings.TrimSpace(entity)) {
			return s, true
		}
	}
	return Schema{}, false
}
