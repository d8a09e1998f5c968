package raw

import (
	"fmt"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/shopspring/decimal"
)

// Decode appends rows of the given entity to the matching slice of t.
func Decode(entity string, rows []Row, t *domain.Tables) error {
	s, ok := Lookup(entity)
	if !ok {
		return fmt.Errorf("decode: unknown entity %q", entity)
	}
	for i, r := range rows {
		if len(r) != len(s.Columns) {
			return fmt.Errorf("decode %s row %d: expected %d values, got %d", entity, i, len(s.Columns), len(r))
		}
		if err := decodeRow(s.Entity, &rowReader{row: r, columns: s.Columns}, t); err != nil {
			return fmt.Errorf("decode %s row %d: %w", entity, i, err)
		}
	}
	return nil
}

func decodeRow(entity string, r *rowReader, t *domain.Tables) error {
	switch entity {
	case EntityOrderHeader:
		v := domain.OrderHeader{
			OrderID:       r.intAt(0),
			TruckID:       r.intAt(1),
			CustomerID:    r.intPtrAt(2),
			OrderTS:       r.timestampAt(3),
			OrderCurrency: r.textAt(4),
			OrderTotal:    r.decimalAt(5),
		}
		if r.err == nil {
			t.OrderHeaders = append(t.OrderHeaders, v)
		}
	case EntityOrderDetail:
		v := domain.OrderLine{
			OrderDetailID: r.intAt(0),
			OrderID:       r.intAt(1),
			MenuItemID:    r.intAt(2),
			LineNumber:    r.intAt(3),
			Quantity:      r.intAt(4),
			UnitPrice:     r.decimalAt(5),
			Price:         r.decimalAt(6),
		}
		if r.err == nil {
			t.OrderLines = append(t.OrderLines, v)
		}
	case EntityTruck:
		v := domain.Truck{
			TruckID:        r.intAt(0),
			MenuTypeID:     r.intAt(1),
			PrimaryCity:    r.textAt(2),
			Region:         r.textAt(3),
			Country:        r.textAt(4),
			ISOCountryCode: r.textAt(5),
			FranchiseFlag:  r.boolAt(6),
		}
		if r.err == nil {
			t.Trucks = append(t.Trucks, v)
		}
	case EntityMenu:
		v := domain.MenuItem{
			MenuItemID:      r.intAt(0),
			MenuTypeID:      r.intAt(1),
			MenuType:        r.textAt(2),
			TruckBrandName:  r.textAt(3),
			MenuItemName:    r.textAt(4),
			ItemCategory:    r.textAt(5),
			ItemSubcategory: r.textAt(6),
			CostOfGoodsUSD:  r.decimalAt(7),
			SalePriceUSD:    r.decimalAt(8),
		}
		if r.err == nil {
			t.Menu = append(t.Menu, v)
		}
	case EntityCustomer:
		v := domain.Customer{
			CustomerID: r.intAt(0),
			FirstName:  r.textAt(1),
			LastName:   r.textAt(2),
			City:       r.textAt(3),
			Country:    r.textAt(4),
			PostalCode: r.textAt(5),
			Email:      r.textAt(6),
			SignUpDate: r.dateAt(7),
		}
		if r.err == nil {
			t.Customers = append(t.Customers, v)
		}
	case EntityCountry:
		v := domain.Location{
			CountryID:      r.intAt(0),
			Country:        r.textAt(1),
			ISOCurrency:    r.textAt(2),
			ISOCountry:     r.textAt(3),
			CityID:         r.intAt(4),
			City:           r.textAt(5),
			CityPopulation: r.intPtrAt(6),
		}
		if r.err == nil {
			t.Locations = append(t.Locations, v)
		}
	case EntityPostalCode:
		v := domain.PostalCode{
			PostalCode: r.textAt(0),
			Country:    r.textAt(1),
			CityName:   r.textAt(2),
		}
		if r.err == nil {
			t.PostalCodes = append(t.PostalCodes, v)
		}
	case EntityWeather:
		v := domain.WeatherObservation{
			Date:            r.dateAt(0),
			PostalCode:      r.textAt(1),
			Country:         r.textAt(2),
			AvgTempF:        r.floatPtrAt(3),
			TotPrecipIn:     r.floatPtrAt(4),
			MaxWindSpeedMPH: r.floatPtrAt(5),
		}
		if r.err == nil {
			t.Weather = append(t.Weather, v)
		}
	default:
		return fmt.Errorf("unknown entity %q", entity)
	}
	return r.err
}

// rowReader reads typed values out of a Row. The first value of the wrong
// type is kept in err and later reads return zero values.
type rowReader struct {
	row     Row
	columns []Column
	err     error
}

func (r *rowReader) value(i int) any {
	if r.err != nil {
		return nil
	}
	return r.row[i]
}

func (r *rowReader) mismatch(i int, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("column %s: want %s, got %T", r.columns[i].Name, want, r.row[i])
	}
}

func (r *rowReader) intAt(i int) int64 {
	v, ok := r.value(i).(int64)
	if !ok {
		r.mismatch(i, "int64")
	}
	return v
}

func (r *rowReader) intPtrAt(i int) *int64 {
	if r.value(i) == nil {
		return nil
	}
	v := r.intAt(i)
	return &v
}

func (r *rowReader) textAt(i int) string {
	raw := r.value(i)
	if raw == nil {
		return ""
	}
	v, ok := raw.(string)
	if !ok {
		r.mismatch(i, "string")
	}
	return v
}

func (r *rowReader) decimalAt(i int) decimal.Decimal {
	v, ok := r.value(i).(decimal.Decimal)
	if !ok {
		r.mismatch(i, "decimal")
	}
	return v
}

func (r *rowReader) floatPtrAt(i int) *float64 {
	raw := r.value(i)
	if raw == nil {
		return nil
	}
	v, ok := raw.(float64)
	if !ok {
		r.mismatch(i, "float64")
		return nil
	}
	return &v
}

func (r *rowReader) dateAt(i int) domain.Date {
	v, ok := r.value(i).(domain.Date)
	if !ok {
		r.mismatch(i, "date")
	}
	return v
}

func (r *rowReader) timestampAt(i int) time.Time {
	v, ok := r.value(i).(time.Time)
	if !ok {
		r.mismatch(i, "timestamp")
	}
	return v
}

func (r *rowReader) boolAt(i int) bool {
	v, ok := r.value(i).(bool)
	if !ok {
		r.mismatch(i, "bool")
	}
	return v
}
