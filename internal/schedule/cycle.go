// Package schedule maps calendar time onto a repeating template of weeks.
//
// All arithmetic is done on calendar dates, stored as UTC midnight, so the
// same calendar day always resolves to the same template week regardless of
// the time of day.
package schedule

import "time"

const hoursPerDay = 24

// DateOnly returns the calendar date of t, read in t's own location, as
// midnight UTC. 2024-01-01T00:30:00+02:00 is 2024-01-01.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from start to current.
// It is negative when current is before start.
func DaysBetween(start, current time.Time) int {
	return int(DateOnly(current).Sub(DateOnly(start)).Hours() / hoursPerDay)
}

// AddDays returns the date n calendar days after t.
func AddDays(t time.Time, n int) time.Time {
	return DateOnly(t).AddDate(0, 0, n)
}

func normalizeWeekCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ResolveWeek returns the 1-indexed template week that applies on current
// for an enrollment starting on start. Before the start date it returns 1;
// afterwards it wraps through the template once every templateWeekCount weeks.
func ResolveWeek(start, current time.Time, templateWeekCount int) int {
	w := normalizeWeekCount(templateWeekCount)
	elapsed := DaysBetween(start, current)
	if elapsed < 0 {
		return 1
	}
	totalWeekIndex := elapsed/7 + 1
	return (totalWeekIndex-1)%w + 1
}

// CurrentPeriod returns the 1-indexed repetition of the week cycle that
// contains current. It is not capped by the configured period count.
func CurrentPeriod(start, current time.Time, templateWeekCount int) int {
	w := normalizeWeekCount(templateWeekCount)
	elapsed := DaysBetween(start, current)
	if elapsed < 0 {
		return 1
	}
	return elapsed/(7*w) + 1
}

// DayNumber returns the 1..7 template day that current falls on, counted
// from the enrollment start rather than the calendar weekday.
func DayNumber(start, current time.Time) int {
	elapsed := DaysBetween(start, current)
	if elapsed < 0 {
		return 1
	}
	return elapsed%7 + 1
}

// ScheduledDate places a template day on the calendar:
// start + ((period-1)*W*7 + (week-1)*7 + dayOffset) days.
func ScheduledDate(start time.Time, period, week, dayOffset, templateWeekCount int) time.Time {
	w := normalizeWeekCount(templateWeekCount)
	offset := (period-1)*w*7 + (week-1)*7 + dayOffset
	return AddDays(start, offset)
}

// ProgramEnd returns the last calendar day covered by periodCount
// repetitions of a templateWeekCount-week cycle.
func ProgramEnd(start time.Time, templateWeekCount, periodCount int) time.Time {
	if periodCount < 1 {
		periodCount = 1
	}
	return AddDays(start, normalizeWeekCount(templateWeekCount)*7*periodCount-1)
}
