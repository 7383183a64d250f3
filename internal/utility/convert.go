package utility

import (
	"strings"
	"time"
	_ "time/tzdata"
)

type unitPair struct{ from, to string }

var unitConversions = map[unitPair]func(float64) float64{
	{"m", "ft"}:  func(v float64) float64 { return v * 3.28084 },
	{"ft", "m"}:  func(v float64) float64 { return v / 3.28084 },
	{"km", "mi"}: func(v float64) float64 { return v * 0.621371 },
	{"mi", "km"}: func(v float64) float64 { return v / 0.621371 },
	{"kg", "lb"}: func(v float64) float64 { return v * 2.20462 },
	{"lb", "kg"}: func(v float64) float64 { return v / 2.20462 },
	{"c", "f"}:   func(v float64) float64 { return v*9/5 + 32 },
	{"f", "c"}:   func(v float64) float64 { return (v - 32) * 5 / 9 },
}

// ConvertUnits converts between m/ft, km/mi, kg/lb and c/f.
func ConvertUnits(value float64, from, to string) (float64, error) {
	fn, ok := unitConversions[unitPair{strings.ToLower(from), strings.ToLower(to)}]
	if !ok {
		return 0, ErrUnsupportedConversion
	}
	return fn(value), nil
}

// CityTimeZones lists the cities TimeIn knows.
var CityTimeZones = map[string]string{
	"new york":    "America/New_York",
	"los angeles": "America/Los_Angeles",
	"london":      "Europe/London",
	"paris":       "Europe/Paris",
	"tokyo":       "Asia/Tokyo",
	"sydney":      "Australia/Sydney",
	"delhi":       "Asia/Kolkata",
}

// TimeIn formats now in city's zone as "2006-01-02 15:04:05 (MST)".
func TimeIn(city string, now time.Time) (string, error) {
	zone, ok := CityTimeZones[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return "", ErrUnknownCity
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", err
	}
	return now.In(loc).Format("2006-01-02 15:04:05 (MST)"), nil
}

// SplitBill returns each person's share of total plus tipPercent.
func SplitBill(total float64, people int, tipPercent float64) (float64, error) {
	if people <= 0 {
		return 0, ErrNonPositivePeople
	}
	if total < 0 || tipPercent < 0 {
		return 0, ErrNegativeAmount
	}
	tip := total * tipPercent / 100
	return (total + tip) / float64(people), nil
}

// CalculateAge returns whole years between birthdate (YYYY-MM-DD) and today.
func CalculateAge(birthdate string, today time.Time) (int, error) {
	b, err := time.Parse("2006-01-02", strings.TrimSpace(birthdate))
	if err != nil {
		return 0, ErrBirthdateFormat
	}
	ty, tm, td := today.Date()
	todayDate := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	if b.After(todayDate) {
		return 0, ErrBirthdateInFuture
	}

	years := ty - b.Year()
	if tm < b.Month() || (tm == b.Month() && td < b.Day()) {
		years--
	}
	return years, nil
}
