package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(loc *time.Location, y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestResolvePeriod(t *testing.T) {
	loc := time.UTC
	// A mid-month, mid-year anchor: Saturday 2025-03-15, late morning.
	now := time.Date(2025, time.March, 15, 11, 42, 7, 0, loc)

	tests := []struct {
		period    Period
		wantStart time.Time
		wantEnd   time.Time
	}{
		{PeriodToday, date(loc, 2025, time.March, 15), date(loc, 2025, time.March, 16)},
		{PeriodYesterday, date(loc, 2025, time.March, 14), date(loc, 2025, time.March, 15)},
		{PeriodLastWeek, date(loc, 2025, time.March, 8), date(loc, 2025, time.March, 16)},
		{PeriodThisMonth, date(loc, 2025, time.March, 1), date(loc, 2025, time.April, 1)},
		{PeriodLastMonth, date(loc, 2025, time.February, 1), date(loc, 2025, time.March, 1)},
		{PeriodThisYear, date(loc, 2025, time.January, 1), date(loc, 2026, time.January, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end := ResolvePeriod(tt.period, now, loc)
			assert.True(t, start.Equal(tt.wantStart), "start: got %v, want %v", start, tt.wantStart)
			assert.True(t, end.Equal(tt.wantEnd), "end: got %v, want %v", end, tt.wantEnd)
		})
	}
}

func TestResolvePeriod_YearRollover(t *testing.T) {
	loc := time.UTC

	t.Run("this month in December ends next January", func(t *testing.T) {
		now := time.Date(2025, time.December, 20, 9, 0, 0, 0, loc)
		start, end := ResolvePeriod(PeriodThisMonth, now, loc)
		assert.True(t, start.Equal(date(loc, 2025, time.December, 1)))
		assert.True(t, end.Equal(date(loc, 2026, time.January, 1)))
	})

	t.Run("last month in January is previous December", func(t *testing.T) {
		now := time.Date(2025, time.January, 10, 9, 0, 0, 0, loc)
		start, end := ResolvePeriod(PeriodLastMonth, now, loc)
		assert.True(t, start.Equal(date(loc, 2024, time.December, 1)))
		assert.True(t, end.Equal(date(loc, 2025, time.January, 1)))
	})
}

func TestResolvePeriod_UnknownDefaultsToThisYear(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.June, 5, 0, 0, 0, 0, loc)

	start, end := ResolvePeriod(Period("next decade"), now, loc)
	assert.True(t, start.Equal(date(loc, 2025, time.January, 1)))
	assert.True(t, end.Equal(date(loc, 2026, time.January, 1)))
}

func TestResolvePeriod_UsesLocationOfRecord(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	// 23:30 UTC is already the next day in UTC+5.
	now := time.Date(2025, time.March, 15, 23, 30, 0, 0, time.UTC)

	start, end := ResolvePeriod(PeriodToday, now, loc)
	assert.True(t, start.Equal(date(loc, 2025, time.March, 16)))
	assert.True(t, end.Equal(date(loc, 2025, time.March, 17)))
}

func TestIsPeriodLabel(t *testing.T) {
	for _, label := range []string{"today", "yesterday", "last week", "this month", "last month", "this year"} {
		assert.True(t, IsPeriodLabel(label), label)
	}
	assert.False(t, IsPeriodLabel("food"))
	assert.False(t, IsPeriodLabel("Today"))
	assert.False(t, IsPeriodLabel(""))
}
