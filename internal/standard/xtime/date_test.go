// Copyright 2026 Peter Edge
//
// All rights reserved.

package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()
	date, err := ParseDate("2024-12-31")
	require.NoError(t, err)
	require.Equal(t, Date{2024, time.December, 31}, date)
	require.Equal(t, "2024-12-31", date.String())
	for _, invalid := range []string{"", "2024-12-32", "2024-12-31x", "999-01-26", "31/12/2024"} {
		_, err := ParseDate(invalid)
		require.Error(t, err, invalid)
	}
}

func TestDateString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "0999-01-02", Date{999, time.January, 2}.String())
}

func TestDateAddDays(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		start Date
		days  int
		want  Date
	}{
		{Date{2014, 5, 9}, 0, Date{2014, 5, 9}},
		{Date{2014, 12, 31}, 1, Date{2015, 1, 1}},
		{Date{2015, 1, 1}, -1, Date{2014, 12, 31}},
		{Date{2024, 2, 28}, 1, Date{2024, 2, 29}},
		{Date{2023, 2, 28}, 1, Date{2023, 3, 1}},
		{Date{2004, 1, 1}, 366, Date{2005, 1, 1}},
	} {
		require.Equal(t, test.want, test.start.AddDays(test.days), "%v + %d", test.start, test.days)
	}
}

func TestDateWeekday(t *testing.T) {
	t.Parallel()
	require.Equal(t, time.Tuesday, Date{2024, 12, 31}.Weekday())
	require.Equal(t, time.Sunday, Date{2023, 12, 31}.Weekday())
}

func TestDateIsBusinessDay(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		date Date
		want bool
	}{
		{Date{2024, 12, 27}, true},  // Friday
		{Date{2024, 12, 28}, false}, // Saturday
		{Date{2024, 12, 29}, false}, // Sunday
		{Date{2024, 12, 30}, true},  // Monday
	} {
		require.Equal(t, test.want, test.date.IsBusinessDay(), test.date.String())
	}
}

func TestLastBusinessDayOfYear(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		year int
		want Date
	}{
		// December 31 is a Tuesday.
		{2024, Date{2024, 12, 31}},
		// December 31 is a Sunday.
		{2023, Date{2023, 12, 29}},
		// December 31 is a Saturday.
		{2022, Date{2022, 12, 30}},
		// December 31 is a Wednesday.
		{2025, Date{2025, 12, 31}},
	} {
		got := LastBusinessDayOfYear(test.year)
		require.Equal(t, test.want, got, "year %d", test.year)
		require.True(t, got.IsBusinessDay())
	}
}
