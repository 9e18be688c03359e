package models

import (
	"fmt"
	"time"
)

// MonthKey is a month in base-10 YYYYMM form, e.g. 202405 for May 2024.
type MonthKey int

// NewMonthKey builds the key for year and month (1-12).
func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(year*100 + int(month))
}

// MonthOf returns the month key of t in UTC, the zone spend dates are
// bucketed in.
func MonthOf(t time.Time) MonthKey {
	t = t.UTC()
	return NewMonthKey(t.Year(), t.Month())
}

// Year returns the four-digit year.
func (m MonthKey) Year() int {
	return int(m) / 100
}

// Month returns the calendar month.
func (m MonthKey) Month() time.Month {
	return time.Month(int(m) % 100)
}

// Valid reports whether m names a real month. TemplateMonth is not valid.
func (m MonthKey) Valid() bool {
	return m.Year() >= 1 && m.Year() <= 9999 && m.Month() >= time.January && m.Month() <= time.December
}

// Bounds returns the half-open UTC interval [start, end) covered by m.
func (m MonthKey) Bounds() (time.Time, time.Time) {
	start := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d%02d", m.Year(), int(m.Month()))
}
