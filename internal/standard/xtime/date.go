// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xtime provides extensions to the standard time package.
//
// Date is a civil date without a time zone, used for valuation dates and
// exchange rate lookups that are keyed by calendar day.
package xtime

import (
	"fmt"
	"time"
)

// Date represents a date (year, month, day).
//
// This type does not include location information, and therefore does not
// describe a unique 24-hour timespan.
type Date struct {
	Year  int        // Year (e.g., 2014).
	Month time.Month // Month of the year (January = 1, ...).
	Day   int        // Day of the month, starting at 1.
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return timeToDate(t), nil
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddDays returns the date that is n days in the future.
// n can also be negative to go into the past.
func (d Date) AddDays(n int) Date {
	return timeToDate(d.utc().AddDate(0, 0, n))
}

// Weekday returns the day of the week of the date.
func (d Date) Weekday() time.Weekday {
	return d.utc().Weekday()
}

// IsBusinessDay reports whether the date falls on Monday through Friday.
//
// Public holidays are not taken into account.
func (d Date) IsBusinessDay() bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// LastBusinessDayOfYear returns the latest Monday-Friday date of the year.
func LastBusinessDayOfYear(year int) Date {
	d := Date{Year: year, Month: time.December, Day: 31}
	for !d.IsBusinessDay() {
		d = d.AddDays(-1)
	}
	return d
}

// *** PRIVATE ***

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func timeToDate(t time.Time) Date {
	var d Date
	d.Year, d.Month, d.Day = t.Date()
	return d
}
