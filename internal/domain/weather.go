package domain

import (
	"sort"
	"strings"
)

// WeatherAudit counts what HarmonizeWeather kept and why it dropped the rest.
type WeatherAudit struct {
	ObservationsRead    int `json:"observations_read"`
	Kept                int `json:"kept"`
	UnmatchedPostalCode int `json:"unmatched_postal_code"`
	UnmatchedCity       int `json:"unmatched_city"`
	CityDays            int `json:"city_days"`
}

// Excluded returns the number of observations dropped by the joins.
func (a WeatherAudit) Excluded() int {
	return a.UnmatchedPostalCode + a.UnmatchedCity
}

type postalKey struct {
	code    string
	country string
}

type cityKey struct {
	city    string
	country string // ISO
}

type cityDayKey struct {
	date Date
	city cityKey
}

type weatherAcc struct {
	loc       Location
	tempSum   float64
	tempN     int
	precipSum float64
	precipN   int
	wind      *float64
	codes     map[string]struct{}
}

// HarmonizeWeather resolves each observation's postal code to a business city
// and collapses all observations for the same city and day into one row.
// Temperature and precipitation are averaged over non-null values and wind is
// the maximum; a metric with no non-null values stays nil.
func HarmonizeWeather(t Tables) ([]HarmonizedWeather, WeatherAudit) {
	var audit WeatherAudit

	postal := make(map[postalKey]string, len(t.PostalCodes))
	for _, p := range t.PostalCodes {
		k := postalKey{code: strings.TrimSpace(p.PostalCode), country: normalizeISO(p.Country)}
		if _, ok := postal[k]; !ok {
			postal[k] = strings.TrimSpace(p.CityName)
		}
	}
	cities := make(map[cityKey]Location, len(t.Locations))
	for _, l := range t.Locations {
		k := cityKey{city: strings.TrimSpace(l.City), country: normalizeISO(l.ISOCountry)}
		if _, ok := cities[k]; !ok {
			cities[k] = l
		}
	}

	groups := make(map[cityDayKey]*weatherAcc)
	for _, obs := range t.Weather {
		audit.ObservationsRead++

		code := strings.TrimSpace(obs.PostalCode)
		iso := normalizeISO(obs.Country)
		cityName, ok := postal[postalKey{code: code, country: iso}]
		if !ok {
			audit.UnmatchedPostalCode++
			continue
		}
		ck := cityKey{city: cityName, country: iso}
		loc, ok := cities[ck]
		if !ok {
			audit.UnmatchedCity++
			continue
		}
		audit.Kept++

		key := cityDayKey{date: obs.Date, city: ck}
		acc, ok := groups[key]
		if !ok {
			acc = &weatherAcc{loc: loc, codes: make(map[string]struct{})}
			groups[key] = acc
		}
		acc.codes[code] = struct{}{}
		if obs.AvgTempF != nil {
			acc.tempSum += *obs.AvgTempF
			acc.tempN++
		}
		if obs.TotPrecipIn != nil {
			acc.precipSum += *obs.TotPrecipIn
			acc.precipN++
		}
		if obs.MaxWindSpeedMPH != nil && (acc.wind == nil || *obs.MaxWindSpeedMPH > *acc.wind) {
			w := *obs.MaxWindSpeedMPH
			acc.wind = &w
		}
	}

	out := make([]HarmonizedWeather, 0, len(groups))
	for key, acc := range groups {
		out = append(out, HarmonizedWeather{
			Date:            key.date,
			City:            strings.TrimSpace(acc.loc.City),
			Country:         strings.TrimSpace(acc.loc.Country),
			ISOCountry:      key.city.country,
			AvgTempF:        mean(acc.tempSum, acc.tempN),
			AvgPrecipIn:     mean(acc.precipSum, acc.precipN),
			MaxWindSpeedMPH: acc.wind,
			PostalCodes:     len(acc.codes),
		})
	}
	audit.CityDays = len(out)

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.ISOCountry < b.ISOCountry
	})

	return out, audit
}

func normalizeISO(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}
