package domain_test

import (
	"testing"

	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFahrenheitToCelsius(t *testing.T) {
	tests := []struct {
		name string
		f    float64
		want float64
	}{
		{"freezing", 32, 0},
		{"boiling", 212, 100},
		{"crossover", -40, -40},
		{"body temperature", 98.6, 37},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, domain.FahrenheitToCelsius(tt.f), 1e-9)
		})
	}
}

func TestInchToMillimeter(t *testing.T) {
	assert.InDelta(t, 25.4, domain.InchToMillimeter(1), 1e-9)
	assert.InDelta(t, 0, domain.InchToMillimeter(0), 1e-9)
	assert.InDelta(t, 12.7, domain.InchToMillimeter(0.5), 1e-9)
}

func TestConversionRoundTrip(t *testing.T) {
	for _, v := range []float64{-40, -3.7, 0, 0.01, 32, 71.25, 1e4} {
		assert.InDelta(t, v, domain.CelsiusToFahrenheit(domain.FahrenheitToCelsius(v)), 1e-9)
		assert.InDelta(t, v, domain.MillimeterToInch(domain.InchToMillimeter(v)), 1e-9)
	}
}

func TestNullableConversions(t *testing.T) {
	assert.Nil(t, domain.FahrenheitToCelsiusPtr(nil))
	assert.Nil(t, domain.InchToMillimeterPtr(nil))

	c := domain.FahrenheitToCelsiusPtr(f64(50))
	if assert.NotNil(t, c) {
		assert.InDelta(t, 10, *c, 1e-9)
	}
	mm := domain.InchToMillimeterPtr(f64(2))
	if assert.NotNil(t, mm) {
		assert.InDelta(t, 50.8, *mm, 1e-9)
	}
}
