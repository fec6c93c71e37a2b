// Package calendar handles the YYYY-MM-DD dates used throughout the dataset.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the date format stored in measurement.date and accepted in URLs.
const Layout = "2006-01-02"

// Parse reads a strict YYYY-MM-DD calendar date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// OneYearEarlier returns the same month and day one year before date. A day
// that does not exist in the earlier year is clamped to the month's last day,
// so 2020-02-29 maps to 2019-02-28 rather than rolling over into March.
func OneYearEarlier(date string) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	y, m, d := t.Date()
	if last := daysIn(y-1, m); d > last {
		d = last
	}
	return time.Date(y-1, m, d, 0, 0, 0, 0, time.UTC).Format(Layout), nil
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
