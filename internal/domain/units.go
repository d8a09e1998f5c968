package domain

const millimetersPerInch = 25.4

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CelsiusToFahrenheit converts °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// InchToMillimeter converts inches to millimetres.
func InchToMillimeter(in float64) float64 {
	return in * millimetersPerInch
}

// MillimeterToInch converts millimetres to inches.
func MillimeterToInch(mm float64) float64 {
	return mm / millimetersPerInch
}

// FahrenheitToCelsiusPtr is FahrenheitToCelsius over a nullable value.
// A nil input yields nil; no default is substituted.
func FahrenheitToCelsiusPtr(f *float64) *float64 {
	return mapNullable(f, FahrenheitToCelsius)
}

// InchToMillimeterPtr is InchToMillimeter over a nullable value.
func InchToMillimeterPtr(in *float64) *float64 {
	return mapNullable(in, InchToMillimeter)
}

func mapNullable(v *float64, fn func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	out := fn(*v)
	return &out
}
