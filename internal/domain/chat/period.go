package chat

import "time"

// Period is one of the six time-period labels the assistant is allowed to use.
type Period string

const (
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	PeriodLastWeek  Period = "last week"
	PeriodThisMonth Period = "this month"
	PeriodLastMonth Period = "last month"
	PeriodThisYear  Period = "this year"
)

// periodLabels is the closed enumeration used for capture-group
// disambiguation. Membership is always checked by content, never by capture
// position.
var periodLabels = map[string]Period{
	string(PeriodToday):     PeriodToday,
	string(PeriodYesterday): PeriodYesterday,
	string(PeriodLastWeek):  PeriodLastWeek,
	string(PeriodThisMonth): PeriodThisMonth,
	string(PeriodLastMonth): PeriodLastMonth,
	string(PeriodThisYear):  PeriodThisYear,
}

// IsPeriodLabel reports whether s is exactly one of the six period labels.
func IsPeriodLabel(s string) bool {
	_, ok := periodLabels[s]
	return ok
}

// ResolvePeriod maps a period label to the half-open interval [start, end)
// it denotes, anchored to now and constructed in loc, the time zone of record
// for persisted timestamps. Unknown labels fall back to "this year".
func ResolvePeriod(p Period, now time.Time, loc *time.Location) (start, end time.Time) {
	year, month, day := now.In(loc).Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		return today, today.AddDate(0, 0, 1)
	case PeriodYesterday:
		return today.AddDate(0, 0, -1), today
	case PeriodLastWeek:
		return today.AddDate(0, 0, -7), today.AddDate(0, 0, 1)
	case PeriodThisMonth:
		// time.Date normalizes month 13 to January of the next year.
		return time.Date(year, month, 1, 0, 0, 0, 0, loc),
			time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	case PeriodLastMonth:
		return time.Date(year, month-1, 1, 0, 0, 0, 0, loc),
			time.Date(year, month, 1, 0, 0, 0, 0, loc)
	default: // this year
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
			time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	}
}
